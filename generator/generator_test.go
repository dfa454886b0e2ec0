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

package generator

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/lockalgo"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
	"github.com/godwokenrises/gwchain/vm"
)

var alwaysSuccessCodeHash = common.U32ToH(9)

// stubVm is a minimal vm.Vm used to drive ApplyTransaction's step 5/6/7
// without a real bytecode interpreter: scriptedExitCode controls whether
// the "execution" is a success or a revert.
type stubVm struct {
	scriptedExitCode int8
	charge           uint64
}

func (v stubVm) Execute(ctx vm.CallContext, block vm.BlockInfo, syscalls vm.Syscalls) (*vm.RunResult, error) {
	if err := syscalls.StorageWrite(common.U32ToH(1), common.U32ToH(99)); err != nil {
		return nil, err
	}
	if err := syscalls.ChargeVirtual(v.charge); err != nil {
		return nil, err
	}
	result := vm.NewRunResult()
	if h, err := syscalls.StorageRead(common.U32ToH(1)); err == nil {
		result.ReadDataHashes[h] = struct{}{}
	}
	result.ExitCode = v.scriptedExitCode
	result.Cycles.Execution = 10
	return result, nil
}

func newTestState(t *testing.T) *state.BlockStateDB {
	t.Helper()
	db := kv.NewMemDB([]string{
		kv.AccountSMTBranch, kv.AccountSMTLeaf,
		kv.Script, kv.Data, kv.RegistryAddressData,
		kv.BlockStateRecord, kv.BlockStateReverse,
	})
	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	return state.NewBlockStateDB(tx, smt.EmptyRoot(), 1)
}

func setupAccounts(t *testing.T, st *state.BlockStateDB) (senderID, receiverID uint32, senderAddr common.RegistryAddress) {
	t.Helper()
	senderScript := common.Script{CodeHash: alwaysSuccessCodeHash, HashType: common.HashTypeType, Args: []byte{1}}
	senderID, err := st.CreateAccountFromScript(senderScript)
	require.NoError(t, err)

	receiverScript := common.Script{CodeHash: common.U32ToH(100), HashType: common.HashTypeType, Args: []byte{2}}
	receiverID, err = st.CreateAccountFromScript(receiverScript)
	require.NoError(t, err)

	senderAddr = common.RegistryAddress{RegistryID: 2, Address: []byte{0xaa}}
	require.NoError(t, st.MapRegistryAddress(senderAddr, senderScript.Hash()))

	return senderID, receiverID, senderAddr
}

func newGenerator(exitCode int8) (*Generator, common.H) {
	locks := lockalgo.NewManage()
	locks.Register(alwaysSuccessCodeHash, lockalgo.AlwaysSuccess{})

	vms := vm.NewRegistry()
	receiverScriptHash := common.Script{CodeHash: common.U32ToH(100), HashType: common.HashTypeType, Args: []byte{2}}.Hash()
	vms.Register(receiverScriptHash, stubVm{scriptedExitCode: exitCode, charge: 5})

	forks := &config.ForkConfig{}
	return New(locks, vms, forks, 42), receiverScriptHash
}

func TestApplyTransactionSuccessBumpsNonceAndWritesState(t *testing.T) {
	st := newTestState(t)
	senderID, receiverID, _ := setupAccounts(t, st)
	g, _ := newGenerator(0)

	tx := L2Transaction{Raw: RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 0}}
	receipt, err := g.ApplyTransaction(st, vm.BlockInfo{Number: 1}, tx)
	require.NoError(t, err)
	require.Equal(t, int8(0), receipt.ExitCode)
	require.Len(t, receipt.ReadDataHashes, 1)

	nonce, err := st.GetNonce(senderID)
	require.NoError(t, err)
	require.Equal(t, uint32(1), nonce)

	v, err := st.GetStorage(receiverID, common.U32ToH(1))
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(99), v)
}

func TestApplyTransactionRevertOnNonzeroExitCodeStillBumpsNonce(t *testing.T) {
	st := newTestState(t)
	senderID, receiverID, _ := setupAccounts(t, st)
	g, _ := newGenerator(1)

	tx := L2Transaction{Raw: RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 0}}
	receipt, err := g.ApplyTransaction(st, vm.BlockInfo{Number: 1}, tx)
	require.NoError(t, err)
	require.Equal(t, int8(1), receipt.ExitCode)

	nonce, err := st.GetNonce(senderID)
	require.NoError(t, err)
	require.Equal(t, uint32(1), nonce, "nonce bump survives a reverted execution")

	v, err := st.GetStorage(receiverID, common.U32ToH(1))
	require.NoError(t, err)
	require.Equal(t, common.Zero, v, "storage write is rolled back on revert")
}

func TestApplyTransactionRejectsWrongNonce(t *testing.T) {
	st := newTestState(t)
	senderID, receiverID, _ := setupAccounts(t, st)
	g, _ := newGenerator(0)

	tx := L2Transaction{Raw: RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 5}}
	_, err := g.ApplyTransaction(st, vm.BlockInfo{Number: 1}, tx)
	var nonceErr *common.NonceError
	require.ErrorAs(t, err, &nonceErr)
	require.Equal(t, uint32(0), nonceErr.Expected)
	require.Equal(t, uint32(5), nonceErr.Actual)

	nonce, err := st.GetNonce(senderID)
	require.NoError(t, err)
	require.Equal(t, uint32(0), nonce, "a rejected-before-step-4 tx must not touch state at all")
}

func TestApplyTransactionRejectsChainIDMismatchOnceEnforced(t *testing.T) {
	st := newTestState(t)
	senderID, receiverID, _ := setupAccounts(t, st)
	locks := lockalgo.NewManage()
	locks.Register(alwaysSuccessCodeHash, lockalgo.AlwaysSuccess{})
	vms := vm.NewRegistry()
	activation := uint64(0)
	forks := &config.ForkConfig{EnforceChainIDCheck: &activation}
	g := New(locks, vms, forks, 42)

	tx := L2Transaction{Raw: RawL2Transaction{ChainID: 0, FromID: senderID, ToID: receiverID, Nonce: 0}}
	_, err := g.ApplyTransaction(st, vm.BlockInfo{Number: 1}, tx)
	require.ErrorIs(t, err, ErrChainIDMismatch)
}

func TestApplyWithdrawalBurnsBalanceAndBumpsNonce(t *testing.T) {
	st := newTestState(t)
	senderID, _, senderAddr := setupAccounts(t, st)
	require.NoError(t, st.MintSudt(config.CKBSudtAccountID, senderAddr, uint256.NewInt(100)))

	locks := lockalgo.NewManage()
	locks.Register(alwaysSuccessCodeHash, lockalgo.AlwaysSuccess{})
	g := New(locks, vm.NewRegistry(), &config.ForkConfig{}, 42)

	w := WithdrawalRequest{ChainID: 42, Nonce: 0, Amount: 40, RegistryAddress: senderAddr}
	receipt, err := g.ApplyWithdrawal(st, w)
	require.NoError(t, err)
	require.Equal(t, int8(0), receipt.ExitCode)

	bal, err := st.GetSudtBalance(config.CKBSudtAccountID, senderAddr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(60), bal)

	nonce, err := st.GetNonce(senderID)
	require.NoError(t, err)
	require.Equal(t, uint32(1), nonce)
}
