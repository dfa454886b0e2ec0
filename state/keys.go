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

import "github.com/godwokenrises/gwchain/common"

// typeTag enumerates the per-account SMT slot kinds, per spec §3
// "SMT keys are deterministic derivations".
type typeTag byte

const (
	tagKV typeTag = iota + 1
	tagNonce
	tagScriptHash
	tagCodeHash
	tagBalance
)

// accountKey derives a per-account SMT key as blake2b(id ‖ type_tag ‖ sub_key).
func accountKey(id uint32, tag typeTag, subKey common.H) common.H {
	return common.Blake2b256(common.BE4(id), []byte{byte(tag)}, subKey[:])
}

// NonceKey is the SMT key holding account id's nonce.
func NonceKey(id uint32) common.H { return accountKey(id, tagNonce, common.Zero) }

// ScriptHashKey is the SMT key holding account id's script_hash.
func ScriptHashKey(id uint32) common.H { return accountKey(id, tagScriptHash, common.Zero) }

// CodeHashKey is the SMT key holding the data_hash of account id's
// contract code (absent/zero for non-contract accounts).
func CodeHashKey(id uint32) common.H { return accountKey(id, tagCodeHash, common.Zero) }

// StorageKey is the SMT key for account id's contract storage slot.
func StorageKey(id uint32, slot common.H) common.H { return accountKey(id, tagKV, slot) }

// BalanceKey is the SMT key holding owner's balance within sudt account
// sudtAccountID's own KV storage. Every sUDT, including the built-in
// CKB sUDT, is itself a regular account (spec §5, "genesis reserves a
// CKB-sUDT account"); its balances live as ordinary contract storage
// slots on that account, keyed by the holder's registry address —
// mirroring an ERC20 balance mapping rather than a field on the
// holder's own account record. Grounded on
// crates/generator/src/sudt.rs's build_l2_sudt_script (each sUDT is its
// own account with its own contract-style storage) together with
// contracts/state-validator/src/key.rs's build_raw_key(id, key) scheme.
func BalanceKey(sudtAccountID uint32, owner common.RegistryAddress) common.H {
	return accountKey(sudtAccountID, tagKV, common.Blake2b256(owner.Serialize()))
}

// Meta key: the dedicated slot holding account_count (spec §3).
var AccountCountKey = common.Blake2b256([]byte("gwchain/meta/account_count"))

const (
	registryToScriptPrefix = "gwchain/registry/addr-to-script"
	scriptToRegistryPrefix = "gwchain/registry/script-to-addr"
)

// RegistryAddressToScriptHashKey is the SMT key for the forward
// registry_address -> script_hash map; its value is a script_hash, so
// it fits a single H word directly.
func RegistryAddressToScriptHashKey(addr common.RegistryAddress) common.H {
	return common.Blake2b256([]byte(registryToScriptPrefix), addr.Serialize())
}

// ScriptHashToRegistryAddressKey is the SMT key for the inverse
// script_hash -> registry_address map. Since a RegistryAddress is
// variable-length it cannot be an SMT value directly; the leaf instead
// holds blake2b(serialized address), and the actual bytes live in the
// RegistryAddressData KV column, addressed by that hash — the same
// split used for scripts (hash in the trie, bytes in a side column) and
// code (data_hash in the trie, bytes in the Data column).
func ScriptHashToRegistryAddressKey(scriptHash common.H) common.H {
	return common.Blake2b256([]byte(scriptToRegistryPrefix), scriptHash[:])
}
