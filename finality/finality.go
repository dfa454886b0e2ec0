// Copyright 2024 The Gwchain Authors
// This file is part of Gwchain.
//
// Gwchain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gwchain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Gwchain. If not, see <http://www.gnu.org/licenses/>.

// Package finality is C9: the two-encoding Timepoint and the
// is_finalized predicate that drives withdrawal/custodian unlocking
// (spec §3 "Timepoint", §4.9).
package finality

// timepointTimestampBit is the high bit of a Timepoint's u64 encoding:
// 0 selects a block-number timepoint (low 63 bits), 1 selects a
// millisecond timestamp (low 63 bits). Grounded on spec §3's Timepoint
// encoding, itself the Go-native re-expression of
// gw_common::h256_ext's from_block_number/from_timestamp helpers.
const timepointTimestampBit = uint64(1) << 63

// Timepoint is a version-tagged 64-bit value encoding either a block
// number or a millisecond timestamp, letting one GlobalState field
// carry either semantics across the v2 hard-fork boundary (spec §3,
// §4.9).
type Timepoint uint64

// FromBlockNumber builds a block-number timepoint.
func FromBlockNumber(n uint64) Timepoint { return Timepoint(n &^ timepointTimestampBit) }

// FromTimestamp builds a millisecond-timestamp timepoint.
func FromTimestamp(ms uint64) Timepoint { return Timepoint(ms | timepointTimestampBit) }

// IsTimestamp reports whether tp is timestamp-encoded.
func (tp Timepoint) IsTimestamp() bool { return uint64(tp)&timepointTimestampBit != 0 }

// Value returns the 63-bit payload (a block number or a millisecond
// timestamp, per IsTimestamp).
func (tp Timepoint) Value() uint64 { return uint64(tp) &^ timepointTimestampBit }

// EncodingForVersion selects which encoding a rollup at this GlobalState.version
// produces: version >= 2 writes timestamp-encoded timepoints, earlier
// versions write block-number-encoded ones (spec §4.9).
func EncodingForVersion(version uint8) func(blockNumber, timestampMs uint64) Timepoint {
	if version >= 2 {
		return func(_, timestampMs uint64) Timepoint { return FromTimestamp(timestampMs) }
	}
	return func(blockNumber, _ uint64) Timepoint { return FromBlockNumber(blockNumber) }
}

// PrevGlobalState is the subset of GlobalState the finality predicate
// needs: the tip it was computed against, and the last-finalized
// timepoint it itself carries (which may lag the rollup's current
// version during a version-switch window).
type PrevGlobalState struct {
	TipBlockNumber        uint64
	LastFinalizedTimestamp uint64
	LastFinalizedTimepoint Timepoint
}

// IsFinalized implements spec §4.9's predicate for tp, judged against
// prev and a finality window of finalityBlocks blocks:
//   - tp block-number-encoded: tp.value + finalityBlocks <= prev.tip_number.
//   - tp timestamp-encoded: tp.value <= prev.last_finalized_timestamp,
//     *unless* prev's own last_finalized_timepoint is still
//     block-number-encoded — that signals a version-switch window, in
//     which case tp is treated as not finalized regardless of its value.
func IsFinalized(prev PrevGlobalState, tp Timepoint, finalityBlocks uint64) bool {
	if !tp.IsTimestamp() {
		return tp.Value()+finalityBlocks <= prev.TipBlockNumber
	}
	if !prev.LastFinalizedTimepoint.IsTimestamp() {
		return false
	}
	return tp.Value() <= prev.LastFinalizedTimestamp
}
