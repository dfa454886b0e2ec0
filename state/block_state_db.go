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
	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/journal"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

// BlockStateDB is the confirmed-tip account state: an SMT over the
// AccountSMTBranch/Leaf columns, with every raw write additionally
// recorded into BlockStateRecord/BlockStateReverse so "value of key as
// of block N" can be answered later (spec §4.1, §4.3). It owns a live
// kv.Tx and must be committed or rolled back by the caller exactly once
// per block, alongside the Meta.account_smt_root / account_count
// updates (the chain package does this as part of SubmitBlock). Every
// raw write is also fed to an attached journal.Journal (C4), giving the
// generator savepoint/revert around each tx without a second SMT write
// path.
type BlockStateDB struct {
	base
	tx          kv.Tx
	blockNumber uint64
	journal     *journal.Journal
}

var _ State = (*BlockStateDB)(nil)

// NewBlockStateDB opens a BlockStateDB rooted at root, recording any
// writes against blockNumber's forward/reverse history entries.
func NewBlockStateDB(tx kv.Tx, root common.H, blockNumber uint64) *BlockStateDB {
	store := smt.NewKVStore(tx, tx, kv.AccountSMTBranch, kv.AccountSMTLeaf)
	db := &BlockStateDB{tx: tx, blockNumber: blockNumber}
	db.journal = journal.New(db)
	db.base = base{tree: smt.NewTree(store, root), getter: tx, putter: tx, recorder: db}
	return db
}

// Journal returns the write journal attached to this store, for the
// generator to snapshot/revert around each tx (spec §4.4, §4.6).
func (db *BlockStateDB) Journal() *journal.Journal { return db.journal }

// recordWrite implements writeRecorder: forward index keyed by
// BE8(block_number) ‖ key -> new value, reverse index keyed by
// key ‖ BE8(block_number) -> ∅ (spec §4.1, §6), grounded on
// crates/store/src/state/history/block_state_record.rs. It also feeds
// the attached journal so the write is undoable within the current tx.
func (db *BlockStateDB) recordWrite(key, before, newValue common.H) error {
	forwardKey := append(common.BE8(db.blockNumber), key[:]...)
	if err := db.tx.Put(kv.BlockStateRecord, forwardKey, newValue[:]); err != nil {
		return err
	}
	reverseKey := append(append([]byte(nil), key[:]...), common.BE8(db.blockNumber)...)
	if err := db.tx.Put(kv.BlockStateReverse, reverseKey, nil); err != nil {
		return err
	}
	db.journal.Record(key, before, newValue)
	return nil
}
