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

// Package kv is the C1 KV store abstraction: a column-family key-value
// engine with snapshots and optimistic transactions, in the spirit of
// erigon-lib/kv but re-scoped to Gwchain's column set (see tables.go).
package kv

import (
	"context"
	"errors"
)

// ErrWriteConflict is returned by Tx.Commit when an optimistic
// transaction's write set conflicts with a write committed after the
// transaction began (spec §4.1 "get_for_update ... fails commit on
// write-write conflict").
var ErrWriteConflict = errors.New("kv: write-write conflict")

// IterMode selects the direction and bound of an Iterator.
type IterMode int

const (
	IterForward IterMode = iota
	IterBackward
	IterStart
	IterEnd
)

// Getter is the read side available on both read-only and read-write
// handles.
type Getter interface {
	// Get returns the value for key in column col, or (nil, false) if
	// absent.
	Get(col string, key []byte) ([]byte, bool, error)
	// SeekForPrev returns the last key <= seek in col, used by the
	// history "as of block N" lookup (spec §4.1).
	SeekForPrev(col string, seek []byte) (key, value []byte, ok bool, err error)
	// Iterator returns a lazy (key, value) iterator over col.
	Iterator(col string, mode IterMode, start []byte) (Iterator, error)
}

// Iterator lazily produces (key, value) pairs. Callers must call Close.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close()
}

// Putter is the write side, available only on an RwTx.
type Putter interface {
	Put(col string, key, value []byte) error
	Delete(col string, key []byte) error
}

// ReadView is a point-in-time consistent read handle that outlives
// subsequent writes to the underlying store (spec §4.1 "snapshot()").
type ReadView interface {
	Getter
	Close()
}

// Tx is an optimistic read-write transaction.
type Tx interface {
	Getter
	Putter
	// GetForUpdate reads key through snap (a prior Snapshot) and marks
	// it as part of this transaction's read set for conflict detection;
	// Commit fails if any such key was written by another transaction
	// since snap was taken.
	GetForUpdate(col string, key []byte, snap ReadView) ([]byte, bool, error)
	Commit() error
	Rollback()
}

// DB is the top-level handle a process holds on the KV engine.
type DB interface {
	Snapshot() ReadView
	Begin(ctx context.Context) (Tx, error)
	// View runs fn against a point-in-time snapshot, closing it
	// afterwards regardless of fn's outcome.
	View(ctx context.Context, fn func(ReadView) error) error
	// Update runs fn inside a transaction, committing on success and
	// rolling back (and returning the error) otherwise.
	Update(ctx context.Context, fn func(Tx) error) error
	Close()
}
