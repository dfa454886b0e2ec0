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

// Package vm is C5: the VM host interface. The concrete bytecode
// interpreter is explicitly out of scope (spec §1) — this package
// specifies only the capability boundary the Generator dispatches
// through and the syscall table a Vm implementation calls back into,
// per spec §4.5 and §9's "dynamic dispatch across VMs" design note.
package vm

import "github.com/godwokenrises/gwchain/common"

// Cycles tracks the two meters a run accumulates: execution cycles
// spent inside the interpreter itself, and virtual cycles charged for
// syscalls that touch state (spec §3 RunResult, §4.6 step 5).
type Cycles struct {
	Execution uint64
	Virtual   uint64
}

// Total is the cycle count checked against a CallContext's MaxCycles.
func (c Cycles) Total() uint64 { return c.Execution + c.Virtual }

// Log is a single contract-emitted log record, captured into
// RunResult.Logs by the Log syscall.
type Log struct {
	AccountID uint32
	Data      []byte
}

// RunResult is C6's per-tx output (spec §3). ExitCode 0 means success;
// any nonzero value is an opaque VM-defined failure code the receipt
// carries through unchanged.
type RunResult struct {
	ReturnData      []byte
	Logs            []Log
	ExitCode        int8
	Cycles          Cycles
	ReadDataHashes  map[common.H]struct{}
	WriteDataHashes map[common.H]struct{}
	DebugLogBuf     []byte
}

// NewRunResult returns a zeroed RunResult with its hash sets allocated.
func NewRunResult() *RunResult {
	return &RunResult{
		ReadDataHashes:  make(map[common.H]struct{}),
		WriteDataHashes: make(map[common.H]struct{}),
	}
}

// CallContext carries everything a Vm needs to execute one call: the
// account ids on each side, the raw call args, the current recursion
// depth (bounded by MaxDepth), and the cycle budget for this execution.
type CallContext struct {
	FromID    uint32
	ToID      uint32
	Args      []byte
	Depth     int
	MaxDepth  int
	MaxCycles uint64
}

// BlockInfo is the subset of block header fields the LoadBlockInfo
// syscall exposes to running code.
type BlockInfo struct {
	Number    uint64
	Timestamp uint64
	Producer  common.RegistryAddress
}

// Vm is the capability the Generator dispatches a call through. The
// concrete bytecode interpreter (EVM/Polyjuice/etc.) is out of scope;
// this interface is the entire contract between C6 and it.
type Vm interface {
	// Execute runs ctx against syscalls and returns a populated
	// RunResult. It must never mutate state except through syscalls, so
	// every mutation is journaled (spec §4.5 "each syscall that mutates
	// state routes through the journal").
	Execute(ctx CallContext, block BlockInfo, syscalls Syscalls) (*RunResult, error)
}

// CodeHash identifies the Vm responsible for a given contract code
// image or lock script, resolved by the fork-config-driven backend
// table (spec §6 "fork schedule ... per-backend code-hash table").
type CodeHash = common.H

// Registry maps code_hash -> Vm, looked up in O(1) the way spec §9
// specifies for both Vm and LockAlgorithm dispatch.
type Registry struct {
	vms map[CodeHash]Vm
}

// NewRegistry builds an empty Vm registry.
func NewRegistry() *Registry { return &Registry{vms: make(map[CodeHash]Vm)} }

// Register associates codeHash with vm, overwriting any prior entry —
// used at startup to wire the fork-config's backend table.
func (r *Registry) Register(codeHash CodeHash, vm Vm) { r.vms[codeHash] = vm }

// Lookup returns the Vm registered for codeHash, if any.
func (r *Registry) Lookup(codeHash CodeHash) (Vm, bool) {
	vm, ok := r.vms[codeHash]
	return vm, ok
}
