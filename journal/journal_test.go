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

package journal

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
)

// fakeState is a minimal Restorer backed by a plain map, standing in
// for state.BlockStateDB/MemStateDB in isolation from the SMT.
type fakeState struct{ values map[common.H]common.H }

func newFakeState() *fakeState { return &fakeState{values: map[common.H]common.H{}} }

func (s *fakeState) UpdateRaw(key, value common.H) error {
	s.values[key] = value
	return nil
}

func TestRevertToUndoesWritesInReverseOrder(t *testing.T) {
	st := newFakeState()
	j := New(st)
	k := common.U32ToH(1)

	st.UpdateRaw(k, common.U32ToH(1))
	j.Record(k, common.Zero, common.U32ToH(1))
	sp := j.Snapshot()

	st.UpdateRaw(k, common.U32ToH(2))
	j.Record(k, common.U32ToH(1), common.U32ToH(2))
	st.UpdateRaw(k, common.U32ToH(3))
	j.Record(k, common.U32ToH(2), common.U32ToH(3))

	require.NoError(t, j.RevertTo(sp))
	require.Equal(t, common.U32ToH(1), st.values[k])
}

func TestFinaliseClearsJournal(t *testing.T) {
	st := newFakeState()
	j := New(st)
	k := common.U32ToH(1)
	j.Record(k, common.Zero, common.U32ToH(1))
	j.AppendLog(LogEntry{AccountID: 1, Data: []byte("x")})
	j.Finalise()
	require.Empty(t, j.Logs())
	// after Finalise, a Snapshot taken now reverts to an empty journal:
	// rolling back to it must not touch anything recorded before.
	sp := j.Snapshot()
	require.NoError(t, j.RevertTo(sp))
}

func TestStateTrackerObservesWrites(t *testing.T) {
	st := newFakeState()
	j := New(st)
	tracker := NewKeySetTracker()
	j.SetTracker(tracker)

	k1, k2 := common.U32ToH(1), common.U32ToH(2)
	j.Record(k1, common.Zero, common.U32ToH(10))
	j.RecordRead(k2)
	j.Record(k1, common.U32ToH(10), common.U32ToH(11))

	keys := tracker.Keys()
	require.ElementsMatch(t, []common.H{k1, k2}, keys)
}

func TestCheckpointMatchesFormula(t *testing.T) {
	root := common.U32ToH(7)
	got := Checkpoint(root, 3)
	want := common.Blake2b256(root[:], binary.LittleEndian.AppendUint32(nil, 3))
	require.Equal(t, want, got)
}
