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

package txpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/lockalgo"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
	"github.com/godwokenrises/gwchain/vm"
)

var alwaysSuccessCodeHash = common.U32ToH(9)

// echoVm is a minimal vm.Vm: it writes the tx's Args as a storage slot
// value under slot 1 and always succeeds, just enough to exercise
// ApplyTransaction's full pipeline from the pool.
type echoVm struct{}

func (echoVm) Execute(ctx vm.CallContext, block vm.BlockInfo, syscalls vm.Syscalls) (*vm.RunResult, error) {
	var v common.H
	copy(v[:], ctx.Args)
	if err := syscalls.StorageWrite(common.U32ToH(1), v); err != nil {
		return nil, err
	}
	result := vm.NewRunResult()
	result.Cycles.Execution = 10
	return result, nil
}

func newMemDB() *kv.MemDB {
	return kv.NewMemDB([]string{
		kv.AccountSMTBranch, kv.AccountSMTLeaf,
		kv.Script, kv.Data, kv.RegistryAddressData,
		kv.BlockStateRecord, kv.BlockStateReverse,
	})
}

// testPool builds a Pool over a confirmed store seeded with two
// accounts (sender, receiver) at nonce 0, wired with a generator that
// accepts any always-success-locked sender and dispatches to receiver
// through echoVm.
func testPool(t *testing.T) (p *Pool, senderID, receiverID uint32) {
	t.Helper()
	db := newMemDB()
	tx, err := db.Begin(context.Background())
	require.NoError(t, err)

	st := state.NewBlockStateDB(tx, smt.EmptyRoot(), 1)
	senderScript := common.Script{CodeHash: alwaysSuccessCodeHash, HashType: common.HashTypeType, Args: []byte{1}}
	senderID, err = st.CreateAccountFromScript(senderScript)
	require.NoError(t, err)
	receiverCodeHash := common.U32ToH(100)
	receiverScript := common.Script{CodeHash: receiverCodeHash, HashType: common.HashTypeType, Args: []byte{2}}
	receiverID, err = st.CreateAccountFromScript(receiverScript)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	locks := lockalgo.NewManage()
	locks.Register(alwaysSuccessCodeHash, lockalgo.AlwaysSuccess{})
	vms := vm.NewRegistry()
	vms.Register(receiverScript.Hash(), echoVm{})
	gen := generator.New(locks, vms, &config.ForkConfig{}, 42)

	snap := db.Snapshot()
	p = New(db, gen, &config.ForkConfig{}, snap, st.CalculateRoot(), vm.BlockInfo{Number: 1}, nil)
	p.Start()
	t.Cleanup(p.Close)
	return p, senderID, receiverID
}

func TestPushTransactionAcceptsAndRejects(t *testing.T) {
	p, senderID, receiverID := testPool(t)

	tx := generator.L2Transaction{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 0}}
	hash, err := p.PushTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.NotEqual(t, common.H{}, hash)

	list, ok := p.entries[senderID]
	require.True(t, ok)
	require.Equal(t, 1, list.txs.Len())

	// Wrong nonce is rejected by the generator and never enters the pool.
	bad := generator.L2Transaction{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 9}}
	_, err = p.PushTransaction(context.Background(), bad)
	require.Error(t, err)
	require.Equal(t, 1, list.txs.Len())
}

func TestRefreshDropsConfirmedAndRejectedEntries(t *testing.T) {
	p, senderID, receiverID := testPool(t)

	for nonce := uint32(0); nonce < 3; nonce++ {
		tx := generator.L2Transaction{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: nonce}}
		_, err := p.PushTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
	require.Equal(t, 3, p.entries[senderID].txs.Len())

	// Simulate a new confirmed tip where the chain already applied
	// nonce 0: the pool must discard it on refresh and replay 1, 2
	// against the fresh overlay.
	db := newMemDB()
	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	st := state.NewBlockStateDB(tx, smt.EmptyRoot(), 2)
	_, err = st.CreateAccountFromScript(common.Script{CodeHash: alwaysSuccessCodeHash, HashType: common.HashTypeType, Args: []byte{1}})
	require.NoError(t, err)
	_, err = st.CreateAccountFromScript(common.Script{CodeHash: common.U32ToH(100), HashType: common.HashTypeType, Args: []byte{2}})
	require.NoError(t, err)
	require.NoError(t, st.SetNonce(senderID, 1))
	require.NoError(t, tx.Commit())

	p.Refresh(db.Snapshot(), st.CalculateRoot(), vm.BlockInfo{Number: 2})

	list, ok := p.entries[senderID]
	require.True(t, ok)
	require.Equal(t, 2, list.txs.Len(), "nonce 0 confirmed away, nonces 1 and 2 replay cleanly")
}

func TestPackageDrainsInFIFOOrderAndBuildsProof(t *testing.T) {
	p, senderID, receiverID := testPool(t)

	for nonce := uint32(0); nonce < 2; nonce++ {
		tx := generator.L2Transaction{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: nonce}}
		_, err := p.PushTransaction(context.Background(), tx)
		require.NoError(t, err)
	}

	param, err := p.Package(vm.BlockInfo{Number: 1})
	require.NoError(t, err)
	require.Len(t, param.Transactions, 2)
	require.Equal(t, uint32(0), param.Transactions[0].Raw.Nonce)
	require.Equal(t, uint32(1), param.Transactions[1].Raw.Nonce)
	require.Len(t, param.StateCheckpointList, 2)
	require.NotEqual(t, common.H{}, param.TxWitnessRoot)
	require.NotEmpty(t, param.KVProofKeys)
	require.NotEmpty(t, param.KVProof, "package must emit proof bytes over the touched keys")

	// Draining empties the pool.
	require.True(t, p.entries[senderID].empty())
}

func TestPackageTruncatesAtMaxPackaged(t *testing.T) {
	p, senderID, receiverID := testPool(t)
	p.maxPackaged = 1

	for nonce := uint32(0); nonce < 2; nonce++ {
		tx := generator.L2Transaction{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: nonce}}
		_, err := p.PushTransaction(context.Background(), tx)
		require.NoError(t, err)
	}

	param, err := p.Package(vm.BlockInfo{Number: 1})
	require.NoError(t, err)
	require.Len(t, param.Transactions, 1)
	require.Equal(t, uint32(0), param.Transactions[0].Raw.Nonce)

	// The un-packaged nonce-1 entry stays queued.
	require.Equal(t, 1, p.entries[senderID].txs.Len())
}
