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
	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/kv"
)

// Store is the persistence handle a Tree is built on: content-addressed
// branch and leaf node storage. A Store is a plain handle — it owns a
// column-family tag and a reference to the underlying KV engine, and
// holds no back-reference to any Tree (spec §9 "cyclic store
// references").
type Store interface {
	GetBranch(hash common.H) (left, right common.H, ok bool, err error)
	PutBranch(hash common.H, left, right common.H) error
	GetLeaf(hash common.H) (key, value common.H, ok bool, err error)
	PutLeaf(hash common.H, key, value common.H) error
}

// KVStore adapts a kv.Getter+Putter pair into a Store, scoped to one
// branch column and one leaf column. The same KVStore type backs the
// account trie (AccountSMTBranch/Leaf), the block trie
// (BlockSMTBranch/Leaf), and the reverted-block trie
// (RevertedBlockSMTBranch/Leaf) — only the column names differ.
type KVStore struct {
	Getter     kv.Getter
	Putter     kv.Putter // nil for a read-only store
	BranchCol  string
	LeafCol    string
}

// NewKVStore builds a read-write store over an RwTx (or read-only store
// if putter is nil, e.g. when wrapping a ReadView).
func NewKVStore(getter kv.Getter, putter kv.Putter, branchCol, leafCol string) *KVStore {
	return &KVStore{Getter: getter, Putter: putter, BranchCol: branchCol, LeafCol: leafCol}
}

func (s *KVStore) GetBranch(hash common.H) (common.H, common.H, bool, error) {
	val, ok, err := s.Getter.Get(s.BranchCol, hash[:])
	if err != nil || !ok {
		return common.H{}, common.H{}, ok, err
	}
	if len(val) != 2*common.WordSize {
		return common.H{}, common.H{}, false, common.ErrCorruptedLeaf
	}
	var left, right common.H
	copy(left[:], val[:common.WordSize])
	copy(right[:], val[common.WordSize:])
	return left, right, true, nil
}

func (s *KVStore) PutBranch(hash common.H, left, right common.H) error {
	if s.Putter == nil {
		return nil // idempotent: content-addressed, re-derivable, safe to skip on read-only views
	}
	buf := make([]byte, 0, 2*common.WordSize)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return s.Putter.Put(s.BranchCol, hash[:], buf)
}

func (s *KVStore) GetLeaf(hash common.H) (common.H, common.H, bool, error) {
	val, ok, err := s.Getter.Get(s.LeafCol, hash[:])
	if err != nil || !ok {
		return common.H{}, common.H{}, ok, err
	}
	if len(val) != 2*common.WordSize {
		return common.H{}, common.H{}, false, common.ErrCorruptedLeaf
	}
	var key, value common.H
	copy(key[:], val[:common.WordSize])
	copy(value[:], val[common.WordSize:])
	return key, value, true, nil
}

func (s *KVStore) PutLeaf(hash common.H, key, value common.H) error {
	if s.Putter == nil {
		return nil
	}
	buf := make([]byte, 0, 2*common.WordSize)
	buf = append(buf, key[:]...)
	buf = append(buf, value[:]...)
	return s.Putter.Put(s.LeafCol, hash[:], buf)
}
