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

package kv

import (
	"context"
	"sort"
	"sync"

	"github.com/google/btree"
)

// MemDB is an in-process KV engine backed by sorted maps, used for
// tests, the genesis builder, and as the base store wrapped by SMT
// overlays. It implements the same DB contract as the MDBX-backed
// engine so callers never branch on backend.
type MemDB struct {
	mu      sync.RWMutex
	cols    map[string]*btree.BTreeG[kvItem]
	version uint64 // bumped on every committed write, for conflict detection
	written map[string]uint64
}

type kvItem struct {
	key, value []byte
}

func itemLess(a, b kvItem) bool { return string(a.key) < string(b.key) }

// NewMemDB constructs an empty MemDB with the given columns pre-created.
func NewMemDB(cols []string) *MemDB {
	db := &MemDB{
		cols:    make(map[string]*btree.BTreeG[kvItem], len(cols)),
		written: make(map[string]uint64),
	}
	for _, c := range cols {
		db.cols[c] = btree.NewG(32, itemLess)
	}
	return db
}

func (db *MemDB) tree(col string) *btree.BTreeG[kvItem] {
	t, ok := db.cols[col]
	if !ok {
		t = btree.NewG(32, itemLess)
		db.cols[col] = t
	}
	return t
}

func (db *MemDB) Snapshot() ReadView {
	db.mu.RLock()
	defer db.mu.RUnlock()
	snap := &memSnapshot{db: db, version: db.version, cols: make(map[string]*btree.BTreeG[kvItem], len(db.cols))}
	for name, t := range db.cols {
		snap.cols[name] = t.Clone()
	}
	return snap
}

func (db *MemDB) Begin(_ context.Context) (Tx, error) {
	snap := db.Snapshot().(*memSnapshot)
	return &memTx{db: db, base: snap, writes: make(map[string]map[string][]byte), reads: make(map[string]map[string]uint64)}, nil
}

func (db *MemDB) View(ctx context.Context, fn func(ReadView) error) error {
	v := db.Snapshot()
	defer v.Close()
	return fn(v)
}

func (db *MemDB) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *MemDB) Close() {}

type memSnapshot struct {
	db      *MemDB
	version uint64
	cols    map[string]*btree.BTreeG[kvItem]
	closed  bool
}

func (s *memSnapshot) Get(col string, key []byte) ([]byte, bool, error) {
	t, ok := s.cols[col]
	if !ok {
		return nil, false, nil
	}
	item, found := t.Get(kvItem{key: key})
	if !found {
		return nil, false, nil
	}
	return item.value, true, nil
}

func (s *memSnapshot) SeekForPrev(col string, seek []byte) ([]byte, []byte, bool, error) {
	t, ok := s.cols[col]
	if !ok {
		return nil, nil, false, nil
	}
	var foundKey, foundVal []byte
	found := false
	t.DescendLessOrEqual(kvItem{key: seek}, func(it kvItem) bool {
		foundKey, foundVal, found = it.key, it.value, true
		return false
	})
	return foundKey, foundVal, found, nil
}

func (s *memSnapshot) Iterator(col string, mode IterMode, start []byte) (Iterator, error) {
	t, ok := s.cols[col]
	if !ok {
		t = btree.NewG(32, itemLess)
	}
	items := make([]kvItem, 0, t.Len())
	t.Ascend(func(it kvItem) bool { items = append(items, it); return true })
	switch mode {
	case IterBackward, IterEnd:
		sort.SliceStable(items, func(i, j int) bool { return itemLess(items[j].key2(), items[i].key2()) })
	}
	idx := 0
	if mode == IterForward && start != nil {
		for idx < len(items) && string(items[idx].key) < string(start) {
			idx++
		}
	}
	if mode == IterBackward && start != nil {
		for idx < len(items) && string(items[idx].key) > string(start) {
			idx++
		}
	}
	return &sliceIterator{items: items, idx: idx - 1}, nil
}

func (i kvItem) key2() kvItem { return i }

func (s *memSnapshot) Close() { s.closed = true }

type sliceIterator struct {
	items []kvItem
	idx   int
}

func (it *sliceIterator) Next() bool {
	it.idx++
	return it.idx < len(it.items)
}
func (it *sliceIterator) Key() []byte   { return it.items[it.idx].key }
func (it *sliceIterator) Value() []byte { return it.items[it.idx].value }
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close()        {}

// memTx is an optimistic transaction: writes are buffered locally and
// applied atomically on Commit, which fails with ErrWriteConflict if any
// key read via GetForUpdate was overwritten after the snapshot passed to
// that GetForUpdate call was taken.
type memTx struct {
	db     *MemDB
	base   *memSnapshot
	writes map[string]map[string][]byte // col -> key -> value (nil means delete)
	reads  map[string]map[string]uint64 // col -> key -> version read at
}

func (tx *memTx) Get(col string, key []byte) ([]byte, bool, error) {
	if m, ok := tx.writes[col]; ok {
		if v, ok := m[string(key)]; ok {
			if v == nil {
				return nil, false, nil
			}
			return v, true, nil
		}
	}
	return tx.base.Get(col, key)
}

func (tx *memTx) SeekForPrev(col string, seek []byte) ([]byte, []byte, bool, error) {
	return tx.base.SeekForPrev(col, seek)
}

func (tx *memTx) Iterator(col string, mode IterMode, start []byte) (Iterator, error) {
	return tx.base.Iterator(col, mode, start)
}

func (tx *memTx) Put(col string, key, value []byte) error {
	m, ok := tx.writes[col]
	if !ok {
		m = make(map[string][]byte)
		tx.writes[col] = m
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m[string(key)] = cp
	return nil
}

func (tx *memTx) Delete(col string, key []byte) error {
	m, ok := tx.writes[col]
	if !ok {
		m = make(map[string][]byte)
		tx.writes[col] = m
	}
	m[string(key)] = nil
	return nil
}

func (tx *memTx) GetForUpdate(col string, key []byte, snap ReadView) ([]byte, bool, error) {
	ms, ok := snap.(*memSnapshot)
	if !ok {
		return nil, false, errWrongSnapshotType
	}
	m, ok2 := tx.reads[col]
	if !ok2 {
		m = make(map[string]uint64)
		tx.reads[col] = m
	}
	m[string(key)] = ms.version
	return tx.Get(col, key)
}

func (tx *memTx) Commit() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for col, reads := range tx.reads {
		for key, asOfVersion := range reads {
			if written := tx.db.written[col+"\x00"+key]; written > asOfVersion {
				return ErrWriteConflict
			}
		}
	}
	tx.db.version++
	for col, m := range tx.writes {
		t := tx.db.tree(col)
		for key, value := range m {
			if value == nil {
				t.Delete(kvItem{key: []byte(key)})
			} else {
				t.ReplaceOrInsert(kvItem{key: []byte(key), value: value})
			}
			tx.db.written[col+"\x00"+key] = tx.db.version
		}
	}
	return nil
}

func (tx *memTx) Rollback() {
	tx.writes = nil
	tx.reads = nil
}

var errWrongSnapshotType = &memError{"kv: GetForUpdate requires a snapshot taken from the same MemDB"}

type memError struct{ s string }

func (e *memError) Error() string { return e.s }
