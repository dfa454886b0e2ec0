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

package genesis

import "github.com/godwokenrises/gwchain/common"

// AccountMerkleState pairs an account SMT root with the account count
// it was computed against (spec §3 "prev_account (root,count)").
type AccountMerkleState struct {
	Root  common.H
	Count uint32
}

// SubmitTransactions is the per-block transaction-submission summary
// (spec §3 RawL2Block).
type SubmitTransactions struct {
	TxWitnessRoot       common.H
	TxCount             uint32
	PrevStateCheckpoint common.H
}

// SubmitWithdrawals is the per-block withdrawal-submission summary.
type SubmitWithdrawals struct {
	WithdrawalWitnessRoot common.H
	WithdrawalCount       uint32
}

// RawL2Block is the block header the core relies on (spec §3).
// Molecule/CKB wire encoding is out of scope for this rewrite (same
// simplification already made in smt/proof.go and state/keys.go); Hash
// is a blake2b digest of a canonical Go-native field encoding rather
// than the on-chain serialization.
type RawL2Block struct {
	Number             uint64
	ParentBlockHash    common.H
	Timestamp          uint64
	PrevAccount        AccountMerkleState
	PostAccount        AccountMerkleState
	SubmitTransactions SubmitTransactions
	SubmitWithdrawals  SubmitWithdrawals
	StateCheckpointList []common.H
}

// Hash computes RawL2Block's identity hash, used as the block SMT leaf
// value and as the parent_block_hash the next block must match.
func (b RawL2Block) Hash() common.H {
	buf := make([]byte, 0, 256)
	buf = append(buf, common.BE8(b.Number)...)
	buf = append(buf, b.ParentBlockHash[:]...)
	buf = append(buf, common.BE8(b.Timestamp)...)
	buf = append(buf, b.PrevAccount.Root[:]...)
	buf = append(buf, common.BE4(b.PrevAccount.Count)...)
	buf = append(buf, b.PostAccount.Root[:]...)
	buf = append(buf, common.BE4(b.PostAccount.Count)...)
	buf = append(buf, b.SubmitTransactions.TxWitnessRoot[:]...)
	buf = append(buf, common.BE4(b.SubmitTransactions.TxCount)...)
	buf = append(buf, b.SubmitTransactions.PrevStateCheckpoint[:]...)
	buf = append(buf, b.SubmitWithdrawals.WithdrawalWitnessRoot[:]...)
	buf = append(buf, common.BE4(b.SubmitWithdrawals.WithdrawalCount)...)
	for _, cp := range b.StateCheckpointList {
		buf = append(buf, cp[:]...)
	}
	return common.Blake2b256(buf)
}

// L2Block bundles a RawL2Block with its block-SMT proof of insertion
// (spec §3 "Block (L2Block)"). Transaction/withdrawal bodies are
// consumed as opaque typed records at this layer (spec §1 "the concrete
// VM ... is out of scope"); only their hashes and count feed
// SubmitTransactions/SubmitWithdrawals.
type L2Block struct {
	Raw        RawL2Block
	BlockProof []byte
}

// GlobalStateStatus mirrors the on-chain rollup status (spec §3
// GlobalState).
type GlobalStateStatus uint8

const (
	StatusRunning GlobalStateStatus = iota
	StatusHalting
)

// GlobalState is the on-chain mirror the core consumes as-is (spec §3).
type GlobalState struct {
	Account              AccountMerkleState
	Block                AccountMerkleState
	RevertedBlockRoot    common.H
	TipBlockHash         common.H
	TipBlockTimestamp    uint64
	Status               GlobalStateStatus
	LastFinalizedTimepoint uint64
	Version              uint8
}
