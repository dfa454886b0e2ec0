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

// Package state is the C3 account state model: the per-account SMT key
// scheme (keys.go), the State capability shared by the confirmed-tip
// store (BlockStateDB) and the mem-pool's speculative overlay
// (MemStateDB), and the code/history side-stores that back it.
package state

import (
	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/smt"
)

// State is the capability every layer above C3 programs against (spec
// §4.3). BlockStateDB and MemStateDB are its two realizations: the
// former writes through to the confirmed SMT and records history:
// history of every slot; the latter runs the identical logic over an
// in-memory smt.Overlay with no history writes, so speculative mem-pool
// execution never touches the confirmed store (spec §4.2, §4.7).
type State interface {
	// GetRaw/UpdateRaw are the primitive SMT accessors: every other
	// method is expressed in terms of these two plus the key helpers
	// in keys.go.
	GetRaw(key common.H) (common.H, error)
	UpdateRaw(key, value common.H) error

	GetAccountCount() (uint32, error)
	SetAccountCount(count uint32) error

	// CreateAccountFromScript registers script (computing and storing
	// its script_hash), allocates the next account_id, and returns it.
	// Returns ErrDuplicatedScriptHash if the script is already
	// registered (spec invariant: script_hash -> account_id is unique).
	CreateAccountFromScript(script common.Script) (uint32, error)

	GetScriptHash(id uint32) (common.H, error)
	GetScript(scriptHash common.H) (common.Script, bool, error)
	GetAccountIDByScriptHash(scriptHash common.H) (uint32, bool, error)

	GetNonce(id uint32) (uint32, error)
	SetNonce(id uint32, nonce uint32) error

	// GetSudtBalance reads owner's balance of the sUDT whose account id
	// is sudtID (spec §4.3 "balances[sudt_id -> u256] per registry
	// address"; see keys.go's BalanceKey doc for how this maps onto the
	// underlying per-account KV storage scheme).
	GetSudtBalance(sudtID uint32, owner common.RegistryAddress) (*uint256.Int, error)
	MintSudt(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error
	BurnSudt(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error
	TransferSudt(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error

	RegistryAddressToScriptHash(addr common.RegistryAddress) (common.H, bool, error)
	ScriptHashToRegistryAddress(scriptHash common.H) (common.RegistryAddress, bool, error)
	MapRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error

	GetCodeHash(id uint32) (common.H, error)
	SetCode(id uint32, code []byte) (common.H, error)
	GetCode(dataHash common.H) ([]byte, bool, error)

	GetStorage(id uint32, slot common.H) (common.H, error)
	SetStorage(id uint32, slot, value common.H) error

	// CalculateRoot returns the current account SMT root.
	CalculateRoot() common.H
	// CalculateStateCheckpoint returns
	// blake2b(root ‖ LE4(account_count)) per spec §3.
	CalculateStateCheckpoint() (common.H, error)

	// MerkleProof returns an SMT proof over keys against the current
	// root (spec §4.7, §6 "kv state proof").
	MerkleProof(keys []common.H) (smt.Proof, error)
}
