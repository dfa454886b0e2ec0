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

package finality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimepointEncodingRoundTrips(t *testing.T) {
	bn := FromBlockNumber(1000)
	require.False(t, bn.IsTimestamp())
	require.Equal(t, uint64(1000), bn.Value())

	ts := FromTimestamp(1_700_000_000_000)
	require.True(t, ts.IsTimestamp())
	require.Equal(t, uint64(1_700_000_000_000), ts.Value())
}

func TestEncodingForVersionSwitchesAtV2(t *testing.T) {
	v1 := EncodingForVersion(1)
	require.False(t, v1(100, 999).IsTimestamp())

	v2 := EncodingForVersion(2)
	require.True(t, v2(100, 999).IsTimestamp())
}

func TestIsFinalizedBlockNumberEncoding(t *testing.T) {
	prev := PrevGlobalState{TipBlockNumber: 110}
	require.True(t, IsFinalized(prev, FromBlockNumber(100), 10))
	require.False(t, IsFinalized(prev, FromBlockNumber(101), 10))
}

func TestIsFinalizedTimestampEncoding(t *testing.T) {
	prev := PrevGlobalState{
		LastFinalizedTimestamp: 1000,
		LastFinalizedTimepoint: FromTimestamp(1000),
	}
	require.True(t, IsFinalized(prev, FromTimestamp(900), 10))
	require.False(t, IsFinalized(prev, FromTimestamp(1001), 10))
}

func TestIsFinalizedDuringVersionSwitchWindow(t *testing.T) {
	// prev still carries a block-number-encoded last_finalized_timepoint
	// even though we're judging a timestamp-encoded tp: treat as not
	// finalized (spec §4.9).
	prev := PrevGlobalState{
		LastFinalizedTimestamp: 1000,
		LastFinalizedTimepoint: FromBlockNumber(50),
	}
	require.False(t, IsFinalized(prev, FromTimestamp(1), 10))
}
