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
	"fmt"

	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/pkg/errors"
)

// MdbxDB is the production KV engine: an MDBX environment with one DBI
// per logical column in tables.go. It is the concrete realization of
// C1 used by the chain actor; tests and the mem-pool overlay base use
// MemDB instead.
type MdbxDB struct {
	env  *mdbx.Env
	dbis map[string]mdbx.DBI
}

// OpenMdbx opens (creating if absent) an MDBX environment at path with
// one DBI per AllTables entry.
func OpenMdbx(path string, maxReaders, maxDBs uint64) (*MdbxDB, error) {
	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, errors.Wrap(err, "kv: mdbx.NewEnv")
	}
	if err := env.SetOption(mdbx.OptMaxDB, maxDBs); err != nil {
		return nil, errors.Wrap(err, "kv: set max dbs")
	}
	if err := env.SetOption(mdbx.OptMaxReaders, maxReaders); err != nil {
		return nil, errors.Wrap(err, "kv: set max readers")
	}
	if err := env.Open(path, mdbx.NoSubdir|mdbx.Coalesce|mdbx.LifoReclaim, 0664); err != nil {
		return nil, errors.Wrapf(err, "kv: open mdbx env at %s", path)
	}
	db := &MdbxDB{env: env, dbis: make(map[string]mdbx.DBI, len(AllTables))}
	if err := env.Update(func(txn *mdbx.Txn) error {
		for _, name := range AllTables {
			dbi, err := txn.OpenDBISimple(name, mdbx.Create)
			if err != nil {
				return errors.Wrapf(err, "kv: create dbi %s", name)
			}
			db.dbis[name] = dbi
		}
		return nil
	}); err != nil {
		env.Close()
		return nil, err
	}
	return db, nil
}

func (db *MdbxDB) dbi(col string) (mdbx.DBI, error) {
	d, ok := db.dbis[col]
	if !ok {
		return 0, fmt.Errorf("kv: unknown column %q", col)
	}
	return d, nil
}

func (db *MdbxDB) Snapshot() ReadView {
	txn, err := db.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		return &mdbxErrView{err: errors.Wrap(err, "kv: begin readonly txn")}
	}
	return &mdbxReadView{db: db, txn: txn}
}

func (db *MdbxDB) Begin(ctx context.Context) (Tx, error) {
	txn, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		return nil, errors.Wrap(err, "kv: begin read-write txn")
	}
	return &mdbxTx{db: db, txn: txn}, nil
}

func (db *MdbxDB) View(ctx context.Context, fn func(ReadView) error) error {
	v := db.Snapshot()
	defer v.Close()
	return fn(v)
}

func (db *MdbxDB) Update(ctx context.Context, fn func(Tx) error) error {
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

func (db *MdbxDB) Close() { db.env.Close() }

type mdbxReadView struct {
	db  *MdbxDB
	txn *mdbx.Txn
}

func (v *mdbxReadView) Get(col string, key []byte) ([]byte, bool, error) {
	dbi, err := v.db.dbi(col)
	if err != nil {
		return nil, false, err
	}
	val, err := v.txn.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "kv: get")
	}
	return val, true, nil
}

func (v *mdbxReadView) SeekForPrev(col string, seek []byte) ([]byte, []byte, bool, error) {
	dbi, err := v.db.dbi(col)
	if err != nil {
		return nil, nil, false, err
	}
	cur, err := v.txn.OpenCursor(dbi)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "kv: open cursor")
	}
	defer cur.Close()
	k, val, err := cur.Get(seek, nil, mdbx.SetRange)
	if mdbx.IsNotFound(err) {
		k, val, err = cur.Get(nil, nil, mdbx.Last)
		if mdbx.IsNotFound(err) {
			return nil, nil, false, nil
		}
		if err != nil {
			return nil, nil, false, errors.Wrap(err, "kv: cursor last")
		}
		return k, val, true, nil
	}
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "kv: cursor set-range")
	}
	if string(k) == string(seek) {
		return k, val, true, nil
	}
	k, val, err = cur.Get(nil, nil, mdbx.Prev)
	if mdbx.IsNotFound(err) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "kv: cursor prev")
	}
	return k, val, true, nil
}

func (v *mdbxReadView) Iterator(col string, mode IterMode, start []byte) (Iterator, error) {
	dbi, err := v.db.dbi(col)
	if err != nil {
		return nil, err
	}
	cur, err := v.txn.OpenCursor(dbi)
	if err != nil {
		return nil, errors.Wrap(err, "kv: open cursor")
	}
	return &mdbxIterator{cur: cur, mode: mode, start: start, first: true}, nil
}

func (v *mdbxReadView) Close() { v.txn.Abort() }

type mdbxErrView struct{ err error }

func (v *mdbxErrView) Get(string, []byte) ([]byte, bool, error) { return nil, false, v.err }
func (v *mdbxErrView) SeekForPrev(string, []byte) ([]byte, []byte, bool, error) {
	return nil, nil, false, v.err
}
func (v *mdbxErrView) Iterator(string, IterMode, []byte) (Iterator, error) { return nil, v.err }
func (v *mdbxErrView) Close()                                              {}

type mdbxIterator struct {
	cur        *mdbx.Cursor
	mode       IterMode
	start      []byte
	first      bool
	key, value []byte
	err        error
}

func (it *mdbxIterator) Next() bool {
	var k, v []byte
	var err error
	switch {
	case it.first && it.mode == IterForward && it.start != nil:
		k, v, err = it.cur.Get(it.start, nil, mdbx.SetRange)
	case it.first && (it.mode == IterForward || it.mode == IterStart):
		k, v, err = it.cur.Get(nil, nil, mdbx.First)
	case it.first:
		k, v, err = it.cur.Get(nil, nil, mdbx.Last)
	case it.mode == IterBackward || it.mode == IterEnd:
		k, v, err = it.cur.Get(nil, nil, mdbx.Prev)
	default:
		k, v, err = it.cur.Get(nil, nil, mdbx.Next)
	}
	it.first = false
	if mdbx.IsNotFound(err) {
		return false
	}
	if err != nil {
		it.err = err
		return false
	}
	it.key, it.value = k, v
	return true
}

func (it *mdbxIterator) Key() []byte   { return it.key }
func (it *mdbxIterator) Value() []byte { return it.value }
func (it *mdbxIterator) Err() error    { return it.err }
func (it *mdbxIterator) Close()        { it.cur.Close() }

type mdbxTx struct {
	db  *MdbxDB
	txn *mdbx.Txn
}

func (tx *mdbxTx) Get(col string, key []byte) ([]byte, bool, error) {
	dbi, err := tx.db.dbi(col)
	if err != nil {
		return nil, false, err
	}
	val, err := tx.txn.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "kv: get")
	}
	return val, true, nil
}

func (tx *mdbxTx) SeekForPrev(col string, seek []byte) ([]byte, []byte, bool, error) {
	return (&mdbxReadView{db: tx.db, txn: tx.txn}).SeekForPrev(col, seek)
}

func (tx *mdbxTx) Iterator(col string, mode IterMode, start []byte) (Iterator, error) {
	return (&mdbxReadView{db: tx.db, txn: tx.txn}).Iterator(col, mode, start)
}

func (tx *mdbxTx) Put(col string, key, value []byte) error {
	dbi, err := tx.db.dbi(col)
	if err != nil {
		return err
	}
	return errors.Wrap(tx.txn.Put(dbi, key, value, 0), "kv: put")
}

func (tx *mdbxTx) Delete(col string, key []byte) error {
	dbi, err := tx.db.dbi(col)
	if err != nil {
		return err
	}
	err = tx.txn.Del(dbi, key, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}
	return errors.Wrap(err, "kv: delete")
}

// GetForUpdate re-reads key inside this read-write transaction. MDBX's
// single-writer model makes every read-write transaction already
// serialized against other writers, so the optimistic conflict check
// that MemDB performs explicitly is enforced by the environment itself;
// snap is accepted for interface symmetry but not consulted.
func (tx *mdbxTx) GetForUpdate(col string, key []byte, snap ReadView) ([]byte, bool, error) {
	return tx.Get(col, key)
}

func (tx *mdbxTx) Commit() error {
	_, err := tx.txn.Commit()
	return errors.Wrap(err, "kv: commit")
}

func (tx *mdbxTx) Rollback() { tx.txn.Abort() }
