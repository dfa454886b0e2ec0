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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
)

// fakeState is a minimal vm.State for exercising hostSyscalls without a
// real SMT-backed store.
type fakeState struct {
	storage     map[uint32]map[common.H]common.H
	balances    map[uint32]map[string]*uint256.Int
	scriptHash  map[uint32]common.H
	regToScript map[string]common.H
	nextID      uint32
}

func newFakeState() *fakeState {
	return &fakeState{
		storage:     map[uint32]map[common.H]common.H{},
		balances:    map[uint32]map[string]*uint256.Int{},
		scriptHash:  map[uint32]common.H{},
		regToScript: map[string]common.H{},
		nextID:      1,
	}
}

func (s *fakeState) GetStorage(id uint32, slot common.H) (common.H, error) {
	return s.storage[id][slot], nil
}

func (s *fakeState) SetStorage(id uint32, slot, value common.H) error {
	if s.storage[id] == nil {
		s.storage[id] = map[common.H]common.H{}
	}
	s.storage[id][slot] = value
	return nil
}

func (s *fakeState) CreateAccountFromScript(script common.Script) (uint32, error) {
	id := s.nextID
	s.nextID++
	s.scriptHash[id] = script.Hash()
	return id, nil
}

func (s *fakeState) GetSudtBalance(sudtID uint32, owner common.RegistryAddress) (*uint256.Int, error) {
	if b, ok := s.balances[sudtID][owner.Key()]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (s *fakeState) TransferSudt(sudtID uint32, from, to common.RegistryAddress, amount *uint256.Int) error {
	if s.balances[sudtID] == nil {
		s.balances[sudtID] = map[string]*uint256.Int{}
	}
	fromBal, _ := s.GetSudtBalance(sudtID, from)
	toBal, _ := s.GetSudtBalance(sudtID, to)
	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	s.balances[sudtID][from.Key()] = fromBal
	s.balances[sudtID][to.Key()] = toBal
	return nil
}

func (s *fakeState) RegistryAddressToScriptHash(addr common.RegistryAddress) (common.H, bool, error) {
	h, ok := s.regToScript[addr.Key()]
	return h, ok, nil
}

func (s *fakeState) ScriptHashToRegistryAddress(scriptHash common.H) (common.RegistryAddress, bool, error) {
	return common.RegistryAddress{}, false, nil
}

func (s *fakeState) MapRegistryAddress(addr common.RegistryAddress, scriptHash common.H) error {
	s.regToScript[addr.Key()] = scriptHash
	return nil
}

func (s *fakeState) GetScriptHash(id uint32) (common.H, error) { return s.scriptHash[id], nil }

func testCtx() CallContext {
	return CallContext{FromID: 1, ToID: 2, Depth: 0, MaxDepth: 8, MaxCycles: 1_000_000}
}

func TestStorageReadWriteRoundTrips(t *testing.T) {
	st := newFakeState()
	h := NewHostSyscalls(st, NewRegistry(), testCtx(), BlockInfo{Number: 1})

	slot := common.U32ToH(7)
	require.NoError(t, h.StorageWrite(slot, common.U32ToH(42)))
	got, err := h.StorageRead(slot)
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(42), got)
}

func TestCallFailsPastMaxDepth(t *testing.T) {
	st := newFakeState()
	ctx := testCtx()
	ctx.Depth = ctx.MaxDepth
	h := NewHostSyscalls(st, NewRegistry(), ctx, BlockInfo{})
	_, err := h.Call(3, nil)
	require.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestCallFailsWithoutRegisteredVm(t *testing.T) {
	st := newFakeState()
	h := NewHostSyscalls(st, NewRegistry(), testCtx(), BlockInfo{})
	_, err := h.Call(3, nil)
	var noVm *NoVmError
	require.ErrorAs(t, err, &noVm)
}

func TestChargeVirtualExhaustsBudget(t *testing.T) {
	st := newFakeState()
	ctx := testCtx()
	ctx.MaxCycles = 100
	h := NewHostSyscalls(st, NewRegistry(), ctx, BlockInfo{})
	require.NoError(t, h.ChargeVirtual(50))
	require.ErrorIs(t, h.ChargeVirtual(51), ErrCyclesExceeded)
}

func TestSetReturnDataRejectsOversize(t *testing.T) {
	st := newFakeState()
	h := NewHostSyscalls(st, NewRegistry(), testCtx(), BlockInfo{})
	require.ErrorIs(t, h.SetReturnData(make([]byte, MaxReturnDataSize+1)), ErrReturnDataTooLarge)
	require.NoError(t, h.SetReturnData([]byte("ok")))
}

func TestTransferMovesBalance(t *testing.T) {
	st := newFakeState()
	from := common.RegistryAddress{RegistryID: 2, Address: []byte{1}}
	to := common.RegistryAddress{RegistryID: 2, Address: []byte{2}}
	st.balances[1] = map[string]*uint256.Int{from.Key(): uint256.NewInt(100)}

	h := NewHostSyscalls(st, NewRegistry(), testCtx(), BlockInfo{})
	require.NoError(t, h.Transfer(1, from, to, uint256.NewInt(30)))

	got, err := h.BalanceOf(1, to)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(30), got)
}
