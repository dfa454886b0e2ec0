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

import "github.com/godwokenrises/gwchain/common"

type branchEntry struct{ left, right common.H }
type leafEntry struct{ key, value common.H }

// Overlay wraps a base Store with copy-on-write branch/leaf inserts:
// reads consult the overlay first, then fall through to base; writes
// land only in the overlay. The base is never mutated, which is what
// lets the mem-pool run speculative execution against the confirmed
// tip's SMT store without holding a lock on it (spec §4.2, §4.7).
type Overlay struct {
	base          Store
	branchInserts map[common.H]branchEntry
	leafInserts   map[common.H]leafEntry
	tombstones    map[common.H]struct{}
}

// NewOverlay builds an Overlay over base with empty insert/tombstone
// sets.
func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:          base,
		branchInserts: make(map[common.H]branchEntry),
		leafInserts:   make(map[common.H]leafEntry),
		tombstones:    make(map[common.H]struct{}),
	}
}

// Tombstone marks hash as absent in this overlay regardless of what the
// base store holds. Used to invalidate a node the overlay knows to be
// stale (e.g. after MemStateDB discards a speculative write) without
// touching the base.
func (o *Overlay) Tombstone(hash common.H) {
	o.tombstones[hash] = struct{}{}
	delete(o.branchInserts, hash)
	delete(o.leafInserts, hash)
}

func (o *Overlay) GetBranch(hash common.H) (common.H, common.H, bool, error) {
	if e, ok := o.branchInserts[hash]; ok {
		return e.left, e.right, true, nil
	}
	if _, dead := o.tombstones[hash]; dead {
		return common.H{}, common.H{}, false, nil
	}
	return o.base.GetBranch(hash)
}

func (o *Overlay) PutBranch(hash common.H, left, right common.H) error {
	o.branchInserts[hash] = branchEntry{left: left, right: right}
	delete(o.tombstones, hash)
	return nil
}

func (o *Overlay) GetLeaf(hash common.H) (common.H, common.H, bool, error) {
	if e, ok := o.leafInserts[hash]; ok {
		return e.key, e.value, true, nil
	}
	if _, dead := o.tombstones[hash]; dead {
		return common.H{}, common.H{}, false, nil
	}
	return o.base.GetLeaf(hash)
}

func (o *Overlay) PutLeaf(hash common.H, key, value common.H) error {
	o.leafInserts[hash] = leafEntry{key: key, value: value}
	delete(o.tombstones, hash)
	return nil
}

// Commit flushes every staged insert onto a writable base store and
// clears the overlay, turning it into an equivalent direct write
// against base (spec invariant 5: committing O onto S yields a
// BlockStateDB equivalent to having applied O's writes directly).
func (o *Overlay) Commit(writableBase Store) error {
	for hash, e := range o.branchInserts {
		if err := writableBase.PutBranch(hash, e.left, e.right); err != nil {
			return err
		}
	}
	for hash, e := range o.leafInserts {
		if err := writableBase.PutLeaf(hash, e.key, e.value); err != nil {
			return err
		}
	}
	o.branchInserts = make(map[common.H]branchEntry)
	o.leafInserts = make(map[common.H]leafEntry)
	o.tombstones = make(map[common.H]struct{})
	return nil
}
