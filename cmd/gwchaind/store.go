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

package main

import (
	"path/filepath"

	"github.com/godwokenrises/gwchain/kv"
)

const (
	defaultMaxReaders = 4096
	defaultMaxDBs     = uint64(len(kv.AllTables))
)

// openStore opens an MDBX-backed store under datadir/chaindata, or an
// in-memory store when datadir is empty -- the latter lets `gwchaind
// start --datadir= ` smoke-test the CLI wiring itself without leaving
// anything on disk, the same role the teacher's own in-memory kv
// backend plays in its test suite.
func openStore(datadir string) (kv.DB, error) {
	if datadir == "" {
		return kv.NewMemDB(kv.AllTables), nil
	}
	path := filepath.Join(datadir, "chaindata")
	return kv.OpenMdbx(path, defaultMaxReaders, defaultMaxDBs)
}
