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
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

// writeRecorder lets base notify a subclass whenever a raw SMT slot
// changes value, without base knowing whether that subclass keeps
// history. BlockStateDB records every change into BlockStateRecord /
// BlockStateReverse (spec §4.1); MemStateDB's recorder only feeds its
// journal and writes no history, matching the "mem-pool state has no
// history" rule (spec §4.2).
type writeRecorder interface {
	recordWrite(key, oldValue, newValue common.H) error
}

// base implements State against a smt.Tree plus the Script/Data/
// RegistryAddressData side columns, shared verbatim by BlockStateDB and
// MemStateDB. It is embedded, not used directly: callers construct a
// BlockStateDB or MemStateDB, both of which supply a writeRecorder and
// the side-column getter/putter appropriate to their backing store.
type base struct {
	tree     *smt.Tree
	getter   kv.Getter
	putter   kv.Putter // nil in a read-only base; both concrete types pass a live one
	recorder writeRecorder
}

func (b *base) GetRaw(key common.H) (common.H, error) {
	return b.tree.Get(key)
}

func (b *base) UpdateRaw(key, value common.H) error {
	old, err := b.tree.Get(key)
	if err != nil {
		return err
	}
	if _, err := b.tree.Update(key, value); err != nil {
		return err
	}
	if old == value {
		return nil
	}
	return b.recorder.recordWrite(key, old, value)
}

func (b *base) GetAccountCount() (uint32, error) {
	v, err := b.GetRaw(AccountCountKey)
	if err != nil {
		return 0, err
	}
	return common.HToU32(v), nil
}

func (b *base) SetAccountCount(count uint32) error {
	return b.UpdateRaw(AccountCountKey, common.U32ToH(count))
}

func (b *base) GetScriptHash(id uint32) (common.H, error) {
	return b.GetRaw(ScriptHashKey(id))
}

func (b *base) GetNonce(id uint32) (uint32, error) {
	v, err := b.GetRaw(NonceKey(id))
	if err != nil {
		return 0, err
	}
	return common.HToU32(v), nil
}

func (b *base) SetNonce(id uint32, nonce uint32) error {
	return b.UpdateRaw(NonceKey(id), common.U32ToH(nonce))
}

func (b *base) GetCodeHash(id uint32) (common.H, error) {
	return b.GetRaw(CodeHashKey(id))
}

func (b *base) GetStorage(id uint32, slot common.H) (common.H, error) {
	return b.GetRaw(StorageKey(id, slot))
}

func (b *base) SetStorage(id uint32, slot, value common.H) error {
	return b.UpdateRaw(StorageKey(id, slot), value)
}

func (b *base) CalculateRoot() common.H { return b.tree.Root() }

// MerkleProof builds an SMT inclusion/exclusion proof over keys against
// the current root, for the mem-pool's block-proposal kv proof (spec
// §4.7 "kv proof for the touched keys") and the on-chain witness's
// equivalent (spec §6).
func (b *base) MerkleProof(keys []common.H) (smt.Proof, error) {
	return b.tree.MerkleProof(keys)
}

func (b *base) CalculateStateCheckpoint() (common.H, error) {
	count, err := b.GetAccountCount()
	if err != nil {
		return common.H{}, err
	}
	root := b.tree.Root()
	return common.Blake2b256(root[:], binary.LittleEndian.AppendUint32(nil, count)), nil
}

// CreateAccountFromScript allocates the next account_id, writes
// script_hash -> account fields, and bumps account_count. Grounded on
// crates/generator/src/state_ext.rs's StateExt::create_account.
func (b *base) CreateAccountFromScript(script common.Script) (uint32, error) {
	scriptHash := script.Hash()
	if _, ok, err := b.GetAccountIDByScriptHash(scriptHash); err != nil {
		return 0, err
	} else if ok {
		return 0, common.ErrDuplicatedScriptHash
	}

	count, err := b.GetAccountCount()
	if err != nil {
		return 0, err
	}
	id := count

	if err := b.UpdateRaw(ScriptHashKey(id), scriptHash); err != nil {
		return 0, err
	}
	if err := b.putScript(scriptHash, script); err != nil {
		return 0, err
	}
	if err := b.putAccountIndex(scriptHash, id); err != nil {
		return 0, err
	}
	if err := b.SetAccountCount(count + 1); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *base) putScript(scriptHash common.H, script common.Script) error {
	if b.putter == nil {
		return fmt.Errorf("state: %w: read-only base cannot register scripts", common.ErrSmtStore)
	}
	buf := make([]byte, 0, common.WordSize+1+len(script.Args))
	buf = append(buf, script.CodeHash[:]...)
	buf = append(buf, byte(script.HashType))
	buf = append(buf, script.Args...)
	return b.putter.Put(kv.Script, scriptHash[:], buf)
}

func (b *base) GetScript(scriptHash common.H) (common.Script, bool, error) {
	val, ok, err := b.getter.Get(kv.Script, scriptHash[:])
	if err != nil || !ok {
		return common.Script{}, ok, err
	}
	if len(val) < common.WordSize+1 {
		return common.Script{}, false, fmt.Errorf("state: %w: corrupted script record", common.ErrCorruptedLeaf)
	}
	var s common.Script
	copy(s.CodeHash[:], val[:common.WordSize])
	s.HashType = common.HashType(val[common.WordSize])
	s.Args = append([]byte(nil), val[common.WordSize+1:]...)
	return s, true, nil
}

// accountIndexKey is where the script_hash -> account_id reverse index
// lives in the side columns (not the SMT: it is pure bookkeeping, never
// part of the state checkpoint). Grounded on the Script column already
// being the canonical scriptHash-addressed record; the index is stored
// alongside it under a disjoint key prefix so the two never collide.
func accountIndexKey(scriptHash common.H) []byte {
	return append([]byte("idx:"), scriptHash[:]...)
}

func (b *base) GetAccountIDByScriptHash(scriptHash common.H) (uint32, bool, error) {
	val, ok, err := b.getter.Get(kv.Script, accountIndexKey(scriptHash))
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(val) != 4 {
		return 0, false, fmt.Errorf("state: %w: corrupted account index record", common.ErrCorruptedLeaf)
	}
	return common.U32FromBE4(val), true, nil
}

func (b *base) putAccountIndex(scriptHash common.H, id uint32) error {
	if b.putter == nil {
		return fmt.Errorf("state: %w: read-only base cannot index accounts", common.ErrSmtStore)
	}
	return b.putter.Put(kv.Script, accountIndexKey(scriptHash), common.BE4(id))
}

func (b *base) RegistryAddressToScriptHash(addr common.RegistryAddress) (common.H, bool, error) {
	h, err := b.GetRaw(RegistryAddressToScriptHashKey(addr))
	if err != nil {
		return common.H{}, false, err
	}
	if h.IsZero() {
		return common.H{}, false, nil
	}
	return h, true, nil
}

func (b *base) ScriptHashToRegistryAddress(scriptHash common.H) (common.RegistryAddress, bool, error) {
	h, err := b.GetRaw(ScriptHashToRegistryAddressKey(scriptHash))
	if err != nil {
		return common.RegistryAddress{}, false, err
	}
	if h.IsZero() {
		return common.RegistryAddress{}, false, nil
	}
	val, ok, err := b.getter.Get(kv.RegistryAddressData, h[:])
	if err != nil || !ok {
		return common.RegistryAddress{}, false, err
	}
	addr, err := common.DeserializeRegistryAddress(val)
	if err != nil {
		return common.RegistryAddress{}, false, err
	}
	return addr, true, nil
}

// MapRegistryAddress records the addr <-> scriptHash bijection both
// ways (spec §3 "registry-address <-> script-hash bijection"). Returns
// ErrDuplicatedRegistryAddress if addr is already mapped to a different
// script hash.
func (b *base) MapRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error {
	if existing, ok, err := b.RegistryAddressToScriptHash(addr); err != nil {
		return err
	} else if ok && existing != scriptHash {
		return common.ErrDuplicatedRegistryAddress
	}
	if err := b.UpdateRaw(RegistryAddressToScriptHashKey(addr), scriptHash); err != nil {
		return err
	}
	addrHash := common.Blake2b256(addr.Serialize())
	if b.putter == nil {
		return fmt.Errorf("state: %w: read-only base cannot map registry addresses", common.ErrSmtStore)
	}
	if err := b.putter.Put(kv.RegistryAddressData, addrHash[:], addr.Serialize()); err != nil {
		return err
	}
	return b.UpdateRaw(ScriptHashToRegistryAddressKey(scriptHash), addrHash)
}

func (b *base) SetCode(id uint32, code []byte) (common.H, error) {
	dataHash := common.Blake2b256(code)
	if b.putter == nil {
		return common.H{}, fmt.Errorf("state: %w: read-only base cannot store code", common.ErrSmtStore)
	}
	if err := b.putter.Put(kv.Data, dataHash[:], code); err != nil {
		return common.H{}, err
	}
	if err := b.UpdateRaw(CodeHashKey(id), dataHash); err != nil {
		return common.H{}, err
	}
	return dataHash, nil
}

func (b *base) GetCode(dataHash common.H) ([]byte, bool, error) {
	if dataHash.IsZero() {
		return nil, false, nil
	}
	val, ok, err := b.getter.Get(kv.Data, dataHash[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	return append([]byte(nil), val...), true, nil
}

func (b *base) GetSudtBalance(sudtID uint32, owner common.RegistryAddress) (*uint256.Int, error) {
	v, err := b.GetRaw(BalanceKey(sudtID, owner))
	if err != nil {
		return nil, err
	}
	return common.HToU256(v), nil
}

func (b *base) setSudtBalance(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error {
	return b.UpdateRaw(BalanceKey(sudtID, owner), common.U256ToH(amount))
}

func (b *base) MintSudt(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error {
	balance, err := b.GetSudtBalance(sudtID, owner)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return common.ErrAmountOverflow
	}
	return b.setSudtBalance(sudtID, owner, sum)
}

func (b *base) BurnSudt(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error {
	balance, err := b.GetSudtBalance(sudtID, owner)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return common.ErrInsufficientBalance
	}
	return b.setSudtBalance(sudtID, owner, new(uint256.Int).Sub(balance, amount))
}

// TransferSudt debits from and credits to atomically with respect to
// the caller's view: both balances are read before either is written,
// so a failed debit never leaves a partial credit applied.
func (b *base) TransferSudt(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error {
	fromBal, err := b.GetSudtBalance(sudtID, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return common.ErrInsufficientBalance
	}
	toBal, err := b.GetSudtBalance(sudtID, to)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return common.ErrAmountOverflow
	}
	if err := b.setSudtBalance(sudtID, from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return b.setSudtBalance(sudtID, to, sum)
}
