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

// Package smt implements the C2 sparse Merkle trie: a blake2b-hashed
// binary authenticated key-value map over 256-bit words, with
// compact proofs and copy-on-write overlays.
package smt

import (
	"fmt"

	"github.com/godwokenrises/gwchain/common"
)

// Height is the depth of the trie: one branch level per key bit, plus
// the leaf level.
const Height = common.WordSize * 8

// emptyHashes[h] is the root hash of an entirely-empty subtree of
// height h; emptyHashes[0] is the empty leaf value (the zero word).
var emptyHashes [Height + 1]common.H

func init() {
	emptyHashes[0] = common.Zero
	for h := 1; h <= Height; h++ {
		emptyHashes[h] = branchHash(emptyHashes[h-1], emptyHashes[h-1])
	}
}

// EmptyRoot is the root hash of a brand-new, fully-empty tree.
func EmptyRoot() common.H { return emptyHashes[Height] }

func leafHash(key, value common.H) common.H {
	return common.Blake2b256([]byte{0x00}, key[:], value[:])
}

func branchHash(left, right common.H) common.H {
	return common.Blake2b256([]byte{0x01}, left[:], right[:])
}

// bitSet reports whether the bit at position idx (0 = most significant
// bit of the key) is set.
func bitSet(key common.H, idx int) bool {
	return key[idx/8]&(1<<(7-uint(idx%8))) != 0
}

// Tree is a handle onto one sparse Merkle trie rooted at Root(). It
// holds no cycle back to its Store: the store is a plain handle passed
// in at construction (design note in SPEC_FULL.md / spec.md §9).
type Tree struct {
	store Store
	root  common.H
}

// NewTree wraps store with a trie view rooted at root. Pass EmptyRoot()
// to start a fresh trie.
func NewTree(store Store, root common.H) *Tree {
	return &Tree{store: store, root: root}
}

// Root returns the current root hash.
func (t *Tree) Root() common.H { return t.root }

// Get returns the value stored at key, or the zero word if absent.
func (t *Tree) Get(key common.H) (common.H, error) {
	return t.getAt(t.root, Height, key)
}

func (t *Tree) getAt(node common.H, height int, key common.H) (common.H, error) {
	if node == emptyHashes[height] {
		return common.Zero, nil
	}
	if height == 0 {
		k, v, ok, err := t.store.GetLeaf(node)
		if err != nil {
			return common.H{}, err
		}
		if !ok {
			return common.H{}, fmt.Errorf("smt: %w: leaf %s", common.ErrMissingKey, node)
		}
		if k != key {
			return common.H{}, fmt.Errorf("smt: %w: leaf %s key mismatch", common.ErrCorruptedLeaf, node)
		}
		return v, nil
	}
	left, right, ok, err := t.store.GetBranch(node)
	if err != nil {
		return common.H{}, err
	}
	if !ok {
		return common.H{}, fmt.Errorf("smt: %w: branch %s", common.ErrMissingKey, node)
	}
	idx := Height - height
	if bitSet(key, idx) {
		return t.getAt(right, height-1, key)
	}
	return t.getAt(left, height-1, key)
}

// Update sets key to value (value == common.Zero deletes the leaf) and
// returns the new root. Old nodes along the replaced path are left in
// the store untouched, which is what lets a caller holding an old root
// still reconstruct historical state (spec §3 SMT lifecycle).
func (t *Tree) Update(key, value common.H) (common.H, error) {
	newRoot, err := t.updateAt(t.root, Height, key, value)
	if err != nil {
		return common.H{}, err
	}
	t.root = newRoot
	return newRoot, nil
}

func (t *Tree) updateAt(node common.H, height int, key, value common.H) (common.H, error) {
	if height == 0 {
		if value.IsZero() {
			return emptyHashes[0], nil
		}
		h := leafHash(key, value)
		if err := t.store.PutLeaf(h, key, value); err != nil {
			return common.H{}, err
		}
		return h, nil
	}
	var left, right common.H
	if node == emptyHashes[height] {
		left, right = emptyHashes[height-1], emptyHashes[height-1]
	} else {
		l, r, ok, err := t.store.GetBranch(node)
		if err != nil {
			return common.H{}, err
		}
		if !ok {
			return common.H{}, fmt.Errorf("smt: %w: branch %s", common.ErrMissingKey, node)
		}
		left, right = l, r
	}
	idx := Height - height
	if bitSet(key, idx) {
		nr, err := t.updateAt(right, height-1, key, value)
		if err != nil {
			return common.H{}, err
		}
		right = nr
	} else {
		nl, err := t.updateAt(left, height-1, key, value)
		if err != nil {
			return common.H{}, err
		}
		left = nl
	}
	if left == emptyHashes[height-1] && right == emptyHashes[height-1] {
		return emptyHashes[height], nil
	}
	h := branchHash(left, right)
	if err := t.store.PutBranch(h, left, right); err != nil {
		return common.H{}, err
	}
	return h, nil
}
