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
	"errors"

	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
)

// Syscalls is the host interface a Vm calls back into while executing a
// CallContext (spec §4.5's logical syscall list). It is implemented by
// hostSyscalls here and constructed fresh per call by the Generator,
// which is the only place that has both a state.State (journaled) and
// the CallContext's caller-id/depth bookkeeping (spec §4.6 step 4).
//
// Numeric syscall ids are deliberately not part of this interface: the
// real CKB-VM wire encodes each of these as a numbered ecall, but that
// numbering is an artifact of the on-chain VM ABI, which is out of
// scope for this rewrite (spec §1 Non-goals, consistent with smt/proof.go
// and state/keys.go already dropping CKB byte-compatibility elsewhere).
// Each method below is one logical syscall; a concrete Vm backend is
// free to map its own numeric ecall table onto these calls however its
// ABI requires.
type Syscalls interface {
	// StorageRead/StorageWrite are scoped to the calling account's own
	// id — a contract can never address another account's storage
	// directly (spec §4.5 "storage read/write scoped to caller account
	// id"). StorageWrite routes through the journal, so a Revert to any
	// savepoint taken before the call undoes it transparently.
	StorageRead(slot common.H) (common.H, error)
	StorageWrite(slot, value common.H) error

	// Call invokes another account's code, bumping Depth by one and
	// failing with ErrMaxDepthExceeded once MaxDepth is reached (spec
	// §4.5 "nested call bounded by max-depth").
	Call(toID uint32, args []byte) (*RunResult, error)

	// CreateAccount registers a new account from script, the same
	// operation state.State.CreateAccountFromScript exposes, callable
	// mid-execution (e.g. a factory contract deploying another).
	CreateAccount(script common.Script) (uint32, error)

	// BalanceOf/Transfer expose the sUDT balance ops a running contract
	// needs (spec §4.5 "token balance query/transfer").
	BalanceOf(sudtID uint32, addr common.RegistryAddress) (*uint256.Int, error)
	Transfer(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error

	// RegistryAddressByScriptHash/CreateRegistryAddress expose lookup and
	// first-deposit creation of a registry mapping (spec §4.5 "registry
	// address lookup/creation by first deposit").
	RegistryAddressByScriptHash(scriptHash common.H) (common.RegistryAddress, bool, error)
	CreateRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error

	// Log appends data to the running account's log buffer, flushed into
	// RunResult.Logs on return (spec §4.5 "log emit").
	Log(data []byte)

	// LoadBlockInfo exposes the current block's header fields (spec §4.5
	// "load block info").
	LoadBlockInfo() BlockInfo

	// DebugPrint appends to the run's debug_log_buf. It never affects
	// consensus and is dropped outside of debug builds by convention,
	// but is always collected here so tests can assert on it.
	DebugPrint(msg []byte)

	// SetReturnData sets the call's return value, failing with
	// ErrReturnDataTooLarge when data exceeds MaxReturnDataSize
	// (spec §4.5 "bounded size").
	SetReturnData(data []byte) error

	// Cycles returns the meters accumulated so far, for a Vm backend to
	// check against CallContext.MaxCycles as it runs (spec §4.5 "get/set
	// cycle meters for execution vs virtual").
	Cycles() Cycles
	// ChargeVirtual adds n virtual cycles, returning ErrCyclesExceeded if
	// the call's MaxCycles budget is now exhausted.
	ChargeVirtual(n uint64) error
}

// MaxReturnDataSize bounds SetReturnData, per spec §4.5.
const MaxReturnDataSize = 320 * 1024

var (
	// ErrMaxDepthExceeded is returned by Call once CallContext.MaxDepth
	// nested calls have already been made.
	ErrMaxDepthExceeded = errors.New("vm: max call depth exceeded")
	// ErrCyclesExceeded is returned once a call's cycle budget (execution
	// + virtual) is spent.
	ErrCyclesExceeded = errors.New("vm: cycle budget exceeded")
	// ErrReturnDataTooLarge is returned by SetReturnData for an
	// over-budget payload.
	ErrReturnDataTooLarge = errors.New("vm: return data exceeds maximum size")
)
