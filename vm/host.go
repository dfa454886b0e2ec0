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

package vm

import (
	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
)

// State is the subset of state.State a running call touches. Defined
// locally (rather than importing package state) to keep vm free of a
// dependency on C3's concrete store types — the generator supplies the
// live state.BlockStateDB/MemStateDB, both of which satisfy this.
type State interface {
	GetStorage(id uint32, slot common.H) (common.H, error)
	SetStorage(id uint32, slot, value common.H) error
	CreateAccountFromScript(script common.Script) (uint32, error)
	GetSudtBalance(sudtID uint32, owner common.RegistryAddress) (*uint256.Int, error)
	TransferSudt(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error
	RegistryAddressToScriptHash(addr common.RegistryAddress) (common.H, bool, error)
	ScriptHashToRegistryAddress(scriptHash common.H) (common.RegistryAddress, bool, error)
	MapRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error
	GetScriptHash(id uint32) (common.H, error)
}

// hostSyscalls is the concrete Syscalls a Generator hands a Vm for one
// call. It owns the caller's account id and its current position in
// the call tree, and dispatches every state-touching syscall straight
// at a state.State — mutations land immediately and are undoable via
// the journal the caller-supplied State already forwards writes to
// (state/block_state_db.go, state/mem_state_db.go), so hostSyscalls
// itself does not need its own undo log (spec §4.5).
type hostSyscalls struct {
	state    State
	registry *Registry
	caller   uint32
	block    BlockInfo
	ctx      CallContext
	result   *RunResult
}

var _ Syscalls = (*hostSyscalls)(nil)

// NewHostSyscalls builds the Syscalls a Vm backend calls back into for
// ctx, backed by state and able to dispatch nested Call invocations
// through registry.
func NewHostSyscalls(state State, registry *Registry, ctx CallContext, block BlockInfo) Syscalls {
	return &hostSyscalls{state: state, registry: registry, caller: ctx.ToID, block: block, ctx: ctx, result: NewRunResult()}
}

func (h *hostSyscalls) StorageRead(slot common.H) (common.H, error) {
	v, err := h.state.GetStorage(h.caller, slot)
	if err != nil {
		return common.H{}, err
	}
	h.result.ReadDataHashes[slot] = struct{}{}
	return v, nil
}

func (h *hostSyscalls) StorageWrite(slot, value common.H) error {
	if err := h.state.SetStorage(h.caller, slot, value); err != nil {
		return err
	}
	h.result.WriteDataHashes[slot] = struct{}{}
	return nil
}

func (h *hostSyscalls) Call(toID uint32, args []byte) (*RunResult, error) {
	if h.ctx.Depth+1 > h.ctx.MaxDepth {
		return nil, ErrMaxDepthExceeded
	}
	scriptHash, err := h.state.GetScriptHash(toID)
	if err != nil {
		return nil, err
	}
	callee, ok := h.registry.Lookup(scriptHash)
	if !ok {
		return nil, errNoVmForScript(scriptHash)
	}
	nestedCtx := CallContext{
		FromID:    h.caller,
		ToID:      toID,
		Args:      args,
		Depth:     h.ctx.Depth + 1,
		MaxDepth:  h.ctx.MaxDepth,
		MaxCycles: h.ctx.MaxCycles - h.result.Cycles.Total(),
	}
	nestedSyscalls := NewHostSyscalls(h.state, h.registry, nestedCtx, h.block)
	sub, err := callee.Execute(nestedCtx, h.block, nestedSyscalls)
	if err != nil {
		return nil, err
	}
	h.result.Cycles.Execution += sub.Cycles.Execution
	h.result.Cycles.Virtual += sub.Cycles.Virtual
	if err := h.ChargeVirtual(0); err != nil {
		return sub, err
	}
	return sub, nil
}

func (h *hostSyscalls) CreateAccount(script common.Script) (uint32, error) {
	return h.state.CreateAccountFromScript(script)
}

func (h *hostSyscalls) BalanceOf(sudtID uint32, addr common.RegistryAddress) (*uint256.Int, error) {
	return h.state.GetSudtBalance(sudtID, addr)
}

func (h *hostSyscalls) Transfer(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error {
	return h.state.TransferSudt(sudtID, from, to, amount)
}

func (h *hostSyscalls) RegistryAddressByScriptHash(scriptHash common.H) (common.RegistryAddress, bool, error) {
	return h.state.ScriptHashToRegistryAddress(scriptHash)
}

func (h *hostSyscalls) CreateRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error {
	return h.state.MapRegistryAddress(addr, scriptHash)
}

func (h *hostSyscalls) Log(data []byte) {
	h.result.Logs = append(h.result.Logs, Log{AccountID: h.caller, Data: append([]byte(nil), data...)})
}

func (h *hostSyscalls) LoadBlockInfo() BlockInfo { return h.block }

func (h *hostSyscalls) DebugPrint(msg []byte) {
	h.result.DebugLogBuf = append(h.result.DebugLogBuf, msg...)
}

func (h *hostSyscalls) SetReturnData(data []byte) error {
	if len(data) > MaxReturnDataSize {
		return ErrReturnDataTooLarge
	}
	h.result.ReturnData = append([]byte(nil), data...)
	return nil
}

func (h *hostSyscalls) Cycles() Cycles { return h.result.Cycles }

func (h *hostSyscalls) ChargeVirtual(n uint64) error {
	h.result.Cycles.Virtual += n
	if h.result.Cycles.Total() > h.ctx.MaxCycles {
		return ErrCyclesExceeded
	}
	return nil
}

// Result returns the RunResult accumulated so far, for the Vm backend
// to fold its own ExitCode/ReturnData/Execution-cycle count into once
// it finishes running ctx.
func (h *hostSyscalls) Result() *RunResult { return h.result }

func errNoVmForScript(scriptHash common.H) error {
	return &NoVmError{ScriptHash: scriptHash}
}

// NoVmError is returned by Call when the callee's script_hash has no
// registered Vm backend.
type NoVmError struct{ ScriptHash common.H }

func (e *NoVmError) Error() string {
	return "vm: no backend registered for script_hash " + e.ScriptHash.String()
}
