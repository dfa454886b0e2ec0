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

package state

import (
	"context"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/journal"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

// MemStateDB is the mem-pool's speculative account state: the same
// State logic as BlockStateDB, run against a smt.Overlay of a read-only
// snapshot of the confirmed tip, with side-column writes (scripts, code,
// registry mappings) buffered in an in-memory MemDB rather than the
// confirmed kv.DB. No history is recorded — recordWrite skips the
// BlockStateRecord/BlockStateReverse columns entirely — matching spec
// §4.2's "mem-pool state has no history" rule, but every write is still
// fed to an attached journal.Journal so push_transaction can run each
// candidate tx under its own savepoint and revert on rejection. Dropping
// a MemStateDB (EntryList refresh discarding a stale tx) simply discards
// these in-memory buffers; the confirmed store is never touched (spec
// §4.7 "speculative execution never mutates the confirmed tip").
type MemStateDB struct {
	base
	overlay    *smt.Overlay
	sideWrites *kv.MemDB
	sideTx     kv.Tx
	journal    *journal.Journal
}

var _ State = (*MemStateDB)(nil)

// NewMemStateDB builds a MemStateDB overlaying confirmedRoot on top of
// confirmedSnapshot (a ReadView taken from the confirmed kv.DB).
func NewMemStateDB(confirmedSnapshot kv.ReadView, confirmedRoot common.H) *MemStateDB {
	confirmedStore := smt.NewKVStore(confirmedSnapshot, nil, kv.AccountSMTBranch, kv.AccountSMTLeaf)
	overlay := smt.NewOverlay(confirmedStore)

	sideDB := kv.NewMemDB([]string{kv.Script, kv.Data, kv.RegistryAddressData})
	sideTx, _ := sideDB.Begin(context.Background())

	db := &MemStateDB{overlay: overlay, sideWrites: sideDB, sideTx: sideTx}
	db.journal = journal.New(db)
	reader := sideReader{confirmed: confirmedSnapshot, overlay: sideTx}
	db.base = base{tree: smt.NewTree(overlay, confirmedRoot), getter: reader, putter: sideTx, recorder: db}
	return db
}

// Journal returns the write journal attached to this overlay, for the
// mem-pool to snapshot/revert a speculative tx.
func (db *MemStateDB) Journal() *journal.Journal { return db.journal }

func (db *MemStateDB) recordWrite(key, before, newValue common.H) error {
	db.journal.Record(key, before, newValue)
	return nil
}

// sideReader reads side-column data from the in-memory overlay first,
// falling through to the confirmed snapshot — the same "overlay, then
// base" shape as smt.Overlay, applied to the Script/Data/
// RegistryAddressData columns.
type sideReader struct {
	confirmed kv.ReadView
	overlay   kv.Getter
}

func (r sideReader) Get(col string, key []byte) ([]byte, bool, error) {
	if v, ok, err := r.overlay.Get(col, key); err != nil {
		return nil, false, err
	} else if ok {
		return v, true, nil
	}
	return r.confirmed.Get(col, key)
}

func (r sideReader) SeekForPrev(col string, seek []byte) ([]byte, []byte, bool, error) {
	return r.confirmed.SeekForPrev(col, seek)
}

func (r sideReader) Iterator(col string, mode kv.IterMode, start []byte) (kv.Iterator, error) {
	return r.confirmed.Iterator(col, mode, start)
}
