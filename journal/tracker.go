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

package journal

import "github.com/godwokenrises/gwchain/common"

// StateTracker observes every key read or written through a Journal.
// Attached while executing a tx whose challenge may need to be
// cancelled, so the witness can carry a kv state proof of exactly the
// keys touched (spec §4.4, §9 "dynamic dispatch").
type StateTracker interface {
	OnRead(key common.H)
	OnWrite(key common.H)
}

// KeySetTracker is the concrete StateTracker used by generator and
// chain: it accumulates the touched key set, in the order first seen,
// with no further bookkeeping.
type KeySetTracker struct {
	order []common.H
	seen  map[common.H]struct{}
}

// NewKeySetTracker builds an empty tracker.
func NewKeySetTracker() *KeySetTracker {
	return &KeySetTracker{seen: make(map[common.H]struct{})}
}

func (t *KeySetTracker) add(key common.H) {
	if _, ok := t.seen[key]; ok {
		return
	}
	t.seen[key] = struct{}{}
	t.order = append(t.order, key)
}

func (t *KeySetTracker) OnRead(key common.H)  { t.add(key) }
func (t *KeySetTracker) OnWrite(key common.H) { t.add(key) }

// Keys returns the touched key set in first-seen order.
func (t *KeySetTracker) Keys() []common.H {
	return append([]common.H(nil), t.order...)
}
