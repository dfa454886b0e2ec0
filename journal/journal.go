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

// Package journal is C4: the per-execution write journal that backs
// savepoint/revert semantics and the state-checkpoint chain (spec §4.4).
package journal

import "github.com/godwokenrises/gwchain/common"

// Restorer applies a raw key/value write directly to the backing state.
// A Journal calls it only to replay "before" values during RevertTo;
// state.BlockStateDB and state.MemStateDB both satisfy it via their
// promoted UpdateRaw method.
type Restorer interface {
	UpdateRaw(key, value common.H) error
}

type writeEntry struct {
	key, before common.H
}

// LogEntry is a single contract log emitted by a syscall during tx
// execution. Journaled so that reverting a tx also discards the logs it
// emitted (spec §4.4 "per-tx appended log items ... are also journaled
// and reverted together").
type LogEntry struct {
	AccountID uint32
	Data      []byte
}

type savepoint struct{ writes, logs int }

// Journal is attached to a state.BlockStateDB/MemStateDB (via its
// recordWrite hook) and records every raw write made through it. Writes
// land in the backing state immediately — the journal exists purely to
// make them undoable: Snapshot marks a point, RevertTo replays
// "before" values in reverse back to that point, Finalise drops the
// log once a tx (or block) completes successfully.
type Journal struct {
	state      Restorer
	writes     []writeEntry
	logs       []LogEntry
	savepoints []savepoint
	tracker    StateTracker
}

// New builds a Journal that applies reverts against state.
func New(state Restorer) *Journal {
	return &Journal{state: state}
}

// SetTracker attaches a StateTracker that observes every journaled
// write (and, via RecordRead, every read) from this point on. Pass nil
// to detach.
func (j *Journal) SetTracker(t StateTracker) { j.tracker = t }

// Record appends a write entry recording key's value before this
// write. Called by the owning BlockStateDB/MemStateDB; callers of the
// State capability never call this directly.
func (j *Journal) Record(key, before, _ common.H) {
	j.writes = append(j.writes, writeEntry{key: key, before: before})
	if j.tracker != nil {
		j.tracker.OnWrite(key)
	}
}

// RecordRead notifies the attached tracker (if any) that key was read.
// It does not affect RevertTo.
func (j *Journal) RecordRead(key common.H) {
	if j.tracker != nil {
		j.tracker.OnRead(key)
	}
}

// AppendLog journals a contract log so RevertTo also discards it.
func (j *Journal) AppendLog(entry LogEntry) {
	j.logs = append(j.logs, entry)
}

// Logs returns the logs journaled since the journal was last Finalised.
func (j *Journal) Logs() []LogEntry {
	return append([]LogEntry(nil), j.logs...)
}

// Snapshot returns an opaque id RevertTo can later roll back to.
func (j *Journal) Snapshot() int {
	j.savepoints = append(j.savepoints, savepoint{writes: len(j.writes), logs: len(j.logs)})
	return len(j.savepoints) - 1
}

// RevertTo undoes every write and discards every log recorded since
// snapshot id, replaying "before" values in reverse order. The replay
// itself goes through state.UpdateRaw, which re-enters Record — the
// truncation below discards those transient entries along with the
// ones being undone, so the journal ends up exactly as it was at id.
func (j *Journal) RevertTo(id int) error {
	sp := j.savepoints[id]
	for i := len(j.writes) - 1; i >= sp.writes; i-- {
		e := j.writes[i]
		if err := j.state.UpdateRaw(e.key, e.before); err != nil {
			return err
		}
	}
	j.writes = j.writes[:sp.writes]
	j.logs = j.logs[:sp.logs]
	j.savepoints = j.savepoints[:id]
	return nil
}

// Finalise flushes the journal: the writes it recorded already landed
// in the backing store as they happened, so finalising just clears the
// undo log and the log buffer (spec §4.4).
func (j *Journal) Finalise() {
	j.writes = j.writes[:0]
	j.logs = j.logs[:0]
	j.savepoints = j.savepoints[:0]
}
