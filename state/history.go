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
	"bytes"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/kv"
)

// TouchedKeysInBlock returns every SMT key BlockStateDB.recordWrite
// recorded a write for in blockNumber, grounded on
// crates/store/src/state/history/block_state_record.rs's forward index
// (BE8(block_number) ‖ key -> value) — used by chain's Revert to know
// which keys a reverted block touched (spec §4.8).
func TouchedKeysInBlock(g kv.Getter, blockNumber uint64) ([]common.H, error) {
	prefix := common.BE8(blockNumber)
	it, err := g.Iterator(kv.BlockStateRecord, kv.IterForward, prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys []common.H
	for it.Next() {
		k := it.Key()
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		var h common.H
		copy(h[:], k[len(prefix):])
		keys = append(keys, h)
	}
	return keys, it.Err()
}

// ValueBefore returns key's value immediately before blockNumber wrote
// to it — the value chain's Revert must restore when undoing
// blockNumber's writes (spec §4.8 "undo its writes using the history
// column (look up prior values per touched key)"). ok is false if key
// was never written before blockNumber, meaning it did not exist yet
// (the SMT's zero-value convention).
func ValueBefore(g kv.Getter, key common.H, blockNumber uint64) (common.H, bool, error) {
	if blockNumber == 0 {
		return common.Zero, false, nil
	}
	seek := append(append([]byte(nil), key[:]...), common.BE8(blockNumber-1)...)
	foundKey, _, ok, err := g.SeekForPrev(kv.BlockStateReverse, seek)
	if err != nil || !ok {
		return common.Zero, false, err
	}
	if !bytes.HasPrefix(foundKey, key[:]) {
		return common.Zero, false, nil
	}
	priorBlock := common.U64FromBE8(foundKey[common.WordSize:])
	forwardKey := append(common.BE8(priorBlock), key[:]...)
	val, ok, err := g.Get(kv.BlockStateRecord, forwardKey)
	if err != nil || !ok {
		return common.Zero, false, err
	}
	var h common.H
	copy(h[:], val)
	return h, true, nil
}
