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

package smt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/kv"
)

func newMemStore() *KVStore {
	db := kv.NewMemDB([]string{"branch", "leaf"})
	tx, _ := db.Begin(context.Background())
	return NewKVStore(tx, tx, "branch", "leaf")
}

func TestEmptyTreeRoot(t *testing.T) {
	tr := NewTree(newMemStore(), EmptyRoot())
	v, err := tr.Get(common.U32ToH(1))
	require.NoError(t, err)
	require.True(t, v.IsZero())
	require.Equal(t, EmptyRoot(), tr.Root())
}

func TestUpdateAndGet(t *testing.T) {
	tr := NewTree(newMemStore(), EmptyRoot())
	k1, v1 := common.U32ToH(1), common.U32ToH(100)
	k2, v2 := common.U32ToH(2), common.U32ToH(200)

	_, err := tr.Update(k1, v1)
	require.NoError(t, err)
	_, err = tr.Update(k2, v2)
	require.NoError(t, err)

	got1, err := tr.Get(k1)
	require.NoError(t, err)
	require.Equal(t, v1, got1)

	got2, err := tr.Get(k2)
	require.NoError(t, err)
	require.Equal(t, v2, got2)
}

func TestDeleteReturnsToEmpty(t *testing.T) {
	tr := NewTree(newMemStore(), EmptyRoot())
	k := common.U32ToH(7)
	_, err := tr.Update(k, common.U32ToH(42))
	require.NoError(t, err)
	root, err := tr.Update(k, common.Zero)
	require.NoError(t, err)
	require.Equal(t, EmptyRoot(), root)
}

func TestMerkleProofRoundTrip(t *testing.T) {
	tr := NewTree(newMemStore(), EmptyRoot())
	keys := []common.H{common.U32ToH(1), common.U32ToH(2), common.U32ToH(3)}
	values := []common.H{common.U32ToH(10), common.U32ToH(20), common.U32ToH(30)}
	for i := range keys {
		_, err := tr.Update(keys[i], values[i])
		require.NoError(t, err)
	}
	// also write a key not included in the proof set, to make sure the
	// proof stays valid regardless of the rest of the tree.
	_, err := tr.Update(common.U32ToH(99), common.U32ToH(999))
	require.NoError(t, err)

	proof, err := tr.MerkleProof(keys)
	require.NoError(t, err)

	pairs := map[common.H]common.H{}
	for i := range keys {
		pairs[keys[i]] = values[i]
	}
	root, err := ComputeRoot(pairs, proof)
	require.NoError(t, err)
	require.Equal(t, tr.Root(), root)
}

func TestMerkleProofRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := NewTree(newMemStore(), EmptyRoot())
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		pairs := map[common.H]common.H{}
		for i := 0; i < n; i++ {
			k := common.U64ToH(rapid.Uint64().Draw(rt, "k"))
			v := common.U64ToH(rapid.Uint64Range(1, 1<<62).Draw(rt, "v"))
			pairs[k] = v
			if _, err := tr.Update(k, v); err != nil {
				rt.Fatal(err)
			}
		}
		keys := make([]common.H, 0, len(pairs))
		for k := range pairs {
			keys = append(keys, k)
		}
		proof, err := tr.MerkleProof(keys)
		if err != nil {
			rt.Fatal(err)
		}
		root, err := ComputeRoot(pairs, proof)
		if err != nil {
			rt.Fatal(err)
		}
		if root != tr.Root() {
			rt.Fatalf("root mismatch: got %s want %s", root, tr.Root())
		}
	})
}

func TestOverlayTransparentReadsAndCommit(t *testing.T) {
	base := newMemStore()
	baseTree := NewTree(base, EmptyRoot())
	k1 := common.U32ToH(1)
	baseRoot, err := baseTree.Update(k1, common.U32ToH(111))
	require.NoError(t, err)

	overlay := NewOverlay(base)
	otree := NewTree(overlay, baseRoot)
	k2 := common.U32ToH(2)
	newRoot, err := otree.Update(k2, common.U32ToH(222))
	require.NoError(t, err)

	// base is untouched
	v, err := baseTree.Get(k2)
	require.NoError(t, err)
	require.True(t, v.IsZero())

	// overlay sees both
	v1, err := otree.Get(k1)
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(111), v1)
	v2, err := otree.Get(k2)
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(222), v2)

	// committing onto a writable base makes base equivalent to direct writes
	require.NoError(t, overlay.Commit(base))
	directTree := NewTree(base, newRoot)
	v2b, err := directTree.Get(k2)
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(222), v2b)
}
