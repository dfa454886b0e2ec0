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

package txpool

import (
	"github.com/google/btree"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/generator"
)

// entry is one queued item, nonce-ordered within its sender's EntryList.
// seq is the pool-global insertion sequence, used to break ties between
// senders during packaging (spec §5's "insertion order modulo a
// fee/priority policy" — this rewrite's deterministic policy is plain
// FIFO by seq; seq is unique, so no further tiebreak is used).
type entry struct {
	sender uint32
	nonce  uint32
	seq    uint64
	hash   common.H
	tx     *generator.L2Transaction
	wd     *generator.WithdrawalRequest
}

func entryLess(a, b entry) bool {
	if a.nonce != b.nonce {
		return a.nonce < b.nonce
	}
	return a.seq < b.seq
}

// EntryList is the per-sender queue spec §4.7 names: two nonce-sorted
// vectors, one for transactions and one for withdrawals. Grounded on
// `crates/mem-pool/src/pool.rs`'s `EntryList`, using
// `github.com/google/btree` (already wired by `kv/memdb.go`) in place of
// the source's plain `Vec` since this rewrite also needs fast
// nonce-threshold eviction (`removeBelow`) on every refresh.
type EntryList struct {
	txs         *btree.BTreeG[entry]
	withdrawals *btree.BTreeG[entry]
}

func newEntryList() *EntryList {
	return &EntryList{
		txs:         btree.NewG(32, entryLess),
		withdrawals: btree.NewG(32, entryLess),
	}
}

func (l *EntryList) empty() bool {
	return l.txs.Len() == 0 && l.withdrawals.Len() == 0
}

// removeBelow drops every tx/withdrawal entry whose nonce is strictly
// below threshold — spec §4.7 "remove entries whose nonce is below a
// threshold", used by refresh to evict entries the new tip already
// confirmed.
func (l *EntryList) removeBelow(threshold uint32) {
	removeBelowFrom(l.txs, threshold)
	removeBelowFrom(l.withdrawals, threshold)
}

func removeBelowFrom(t *btree.BTreeG[entry], threshold uint32) {
	var stale []entry
	t.Ascend(func(e entry) bool {
		if e.nonce >= threshold {
			return false
		}
		stale = append(stale, e)
		return true
	})
	for _, e := range stale {
		t.Delete(e)
	}
}

// removeFromNonce drops every tx/withdrawal entry whose nonce is >=
// threshold, used to cut an EntryList off at the first gap or rejection
// found during refresh/packaging (spec §4.7 "discard entries whose
// nonce is now stale").
func (l *EntryList) removeFromNonce(threshold uint32) {
	removeFromNonceIn(l.txs, threshold)
	removeFromNonceIn(l.withdrawals, threshold)
}

func removeFromNonceIn(t *btree.BTreeG[entry], threshold uint32) {
	var toDrop []entry
	t.Ascend(func(e entry) bool {
		if e.nonce < threshold {
			return true
		}
		toDrop = append(toDrop, e)
		return true
	})
	for _, e := range toDrop {
		t.Delete(e)
	}
}
