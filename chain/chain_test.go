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

package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/lockalgo"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
	"github.com/godwokenrises/gwchain/vm"
)

var ethLockCodeHash = common.U32ToH(7)

// stubVm always succeeds without touching any state, so this file's
// fixtures only ever need to reason about deposit/transfer/withdrawal
// bookkeeping, never about VM semantics (already covered by
// generator_test.go).
type stubVm struct{}

func (stubVm) Execute(vm.CallContext, vm.BlockInfo, vm.Syscalls) (*vm.RunResult, error) {
	return vm.NewRunResult(), nil
}

func ethAddr(b byte) []byte {
	addr := make([]byte, 20)
	addr[19] = b
	return addr
}

func eoaScript(rollupTypeHash common.H, addrByte byte) common.Script {
	return common.Script{
		CodeHash: ethLockCodeHash,
		HashType: common.HashTypeType,
		Args:     append(append([]byte(nil), rollupTypeHash[:]...), ethAddr(addrByte)...),
	}
}

type testChain struct {
	db       *kv.MemDB
	chain    *Chain
	gen      *generator.Generator
	forks    *config.ForkConfig
	rollup   config.RollupConfig
	registry *common.RegistryContext
	gencfg   config.GenesisConfig
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	db := kv.NewMemDB(kv.AllTables)

	locks := lockalgo.NewManage()
	locks.Register(ethLockCodeHash, lockalgo.AlwaysSuccess{})
	vms := vm.NewRegistry()
	vms.Register(ethLockCodeHash, stubVm{})

	rollupTypeHash := common.U32ToH(1)
	forks := &config.ForkConfig{}
	rollup := config.RollupConfig{ChainID: 42, FinalityBlocks: 100, RollupTypeHash: rollupTypeHash}
	gen := generator.New(locks, vms, forks, rollup.ChainID)
	registry := common.NewRegistryContext([]common.AllowedTypeHash{{Hash: ethLockCodeHash, Type: common.EoaEth}})

	gencfg := config.GenesisConfig{
		Timestamp:                     1,
		RollupTypeHash:                rollupTypeHash,
		MetaContractValidatorTypeHash: common.U32ToH(2),
		EthAccountLockTypeHash:        ethLockCodeHash,
		Rollup:                        rollup,
	}

	c, err := New(db, gen, forks, rollup, registry, nil)
	require.NoError(t, err)
	require.NoError(t, c.InitGenesis(context.Background(), gencfg))

	return &testChain{db: db, chain: c, gen: gen, forks: forks, rollup: rollup, registry: registry, gencfg: gencfg}
}

// buildBlock dry-runs deposits+txs+withdrawals against a disposable tx
// opened from the chain's current committed state, to learn the
// correct per-step checkpoints a real sequencer would compute before
// submission. The dry-run tx is always rolled back; it never commits.
func (tc *testChain) buildBlock(t *testing.T, deposits []DepositRequest, txs []generator.L2Transaction, wds []generator.WithdrawalRequest, producer common.RegistryAddress) genesis.RawL2Block {
	t.Helper()
	ctx := context.Background()

	tx, err := tc.db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	number := tc.chain.TipBlockNumber() + 1
	prevRoot := tc.chain.AccountRoot()
	prevCount := tc.chain.AccountCount()

	st := state.NewBlockStateDB(tx, prevRoot, number)
	for _, dep := range deposits {
		require.NoError(t, tc.chain.applyDeposit(st, dep))
	}

	prevCheckpoint, err := st.CalculateStateCheckpoint()
	require.NoError(t, err)

	block := vm.BlockInfo{Number: number, Timestamp: uint64(number), Producer: producer}
	var checkpoints []common.H
	for _, txn := range txs {
		_, err := tc.gen.ApplyTransaction(st, block, txn)
		require.NoError(t, err)
		cp, err := st.CalculateStateCheckpoint()
		require.NoError(t, err)
		checkpoints = append(checkpoints, cp)
	}
	for _, w := range wds {
		_, err := tc.gen.ApplyWithdrawal(st, w)
		require.NoError(t, err)
		cp, err := st.CalculateStateCheckpoint()
		require.NoError(t, err)
		checkpoints = append(checkpoints, cp)
	}

	postCount, err := st.GetAccountCount()
	require.NoError(t, err)
	postRoot := st.CalculateRoot()

	return genesis.RawL2Block{
		Number:          number,
		ParentBlockHash: tc.chain.TipBlockHash(),
		Timestamp:       uint64(number),
		PrevAccount:     genesis.AccountMerkleState{Root: prevRoot, Count: prevCount},
		PostAccount:     genesis.AccountMerkleState{Root: postRoot, Count: postCount},
		SubmitTransactions: genesis.SubmitTransactions{
			TxCount:             uint32(len(txs)),
			PrevStateCheckpoint: prevCheckpoint,
		},
		SubmitWithdrawals: genesis.SubmitWithdrawals{
			WithdrawalCount: uint32(len(wds)),
		},
		StateCheckpointList: checkpoints,
	}
}

func TestInitGenesisSetsTip(t *testing.T) {
	tc := newTestChain(t)
	require.Equal(t, uint64(0), tc.chain.TipBlockNumber())
	require.NotEqual(t, common.H{}, tc.chain.TipBlockHash())
	require.Equal(t, uint32(3), tc.chain.AccountCount(), "reserved + ckb-sudt + eth-registry builtins")
}

func TestInitGenesisTwiceRejected(t *testing.T) {
	tc := newTestChain(t)
	err := tc.chain.InitGenesis(context.Background(), tc.gencfg)
	require.ErrorIs(t, err, ErrGenesisAlreadyInitialized)
}

func TestSubmitBlockWithDepositAndTransferAndWithdrawal(t *testing.T) {
	tc := newTestChain(t)
	rollupTypeHash := tc.gencfg.RollupTypeHash

	senderScript := eoaScript(rollupTypeHash, 0xaa)
	receiverScript := eoaScript(rollupTypeHash, 0xbb)

	deposits := []DepositRequest{
		{Script: senderScript, SudtID: config.CKBSudtAccountID, Amount: 100},
		{Script: receiverScript, SudtID: config.CKBSudtAccountID, Amount: 0},
	}

	// Resolve the ids a dry apply would assign: builtins occupy 0-2, so
	// the sender is account 3 and the receiver account 4.
	senderID := uint32(3)
	receiverID := uint32(4)

	txs := []generator.L2Transaction{
		{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 0}},
	}

	senderAddr := common.RegistryAddress{RegistryID: config.EthRegistryAccountID, Address: ethAddr(0xaa)}
	wds := []generator.WithdrawalRequest{
		{ChainID: 42, Nonce: 1, Amount: 10, RegistryAddress: senderAddr},
	}

	raw := tc.buildBlock(t, deposits, txs, wds, senderAddr)

	bad, err := tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{
		Block:        raw,
		Transactions: txs,
		Withdrawals:  wds,
		Deposits:     deposits,
		Producer:     senderAddr,
	})
	require.NoError(t, err)
	require.Nil(t, bad)

	require.Equal(t, uint64(1), tc.chain.TipBlockNumber())
	require.Equal(t, raw.Hash(), tc.chain.TipBlockHash())
	require.Equal(t, raw.PostAccount.Root, tc.chain.AccountRoot())
	require.Equal(t, raw.PostAccount.Count, tc.chain.AccountCount())
}

func TestSubmitBlockBadCheckpointIsRecordedNotCommitted(t *testing.T) {
	tc := newTestChain(t)
	rollupTypeHash := tc.gencfg.RollupTypeHash

	senderScript := eoaScript(rollupTypeHash, 0xaa)
	receiverScript := eoaScript(rollupTypeHash, 0xbb)
	deposits := []DepositRequest{
		{Script: senderScript, SudtID: config.CKBSudtAccountID, Amount: 100},
		{Script: receiverScript, SudtID: config.CKBSudtAccountID, Amount: 0},
	}
	senderID, receiverID := uint32(3), uint32(4)
	txs := []generator.L2Transaction{
		{Raw: generator.RawL2Transaction{ChainID: 42, FromID: senderID, ToID: receiverID, Nonce: 0}},
	}
	senderAddr := common.RegistryAddress{RegistryID: config.EthRegistryAccountID, Address: ethAddr(0xaa)}

	raw := tc.buildBlock(t, deposits, txs, nil, senderAddr)
	raw.StateCheckpointList[0] = common.U32ToH(0xdead)

	beforeRoot := tc.chain.AccountRoot()
	beforeTip := tc.chain.TipBlockHash()

	bad, err := tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{
		Block:        raw,
		Transactions: txs,
		Deposits:     deposits,
		Producer:     senderAddr,
	})
	require.NoError(t, err)
	require.NotNil(t, bad)
	require.ErrorIs(t, bad.Reason, ErrCheckpointMismatch)

	require.Equal(t, uint64(0), tc.chain.TipBlockNumber(), "rejected block must not advance the tip")
	require.Equal(t, beforeRoot, tc.chain.AccountRoot(), "rejected block must not mutate account state")
	require.Equal(t, beforeTip, tc.chain.TipBlockHash())
	require.NotEqual(t, smt.EmptyRoot(), tc.chain.revertedBlockSMTRoot, "bad block must be folded into the reverted-block smt")
}

func TestSubmitBlockIdempotentOnCurrentTip(t *testing.T) {
	tc := newTestChain(t)
	raw := tc.buildBlock(t, nil, nil, nil, common.RegistryAddress{})
	action := SubmitBlockAction{Block: raw}
	_, err := tc.chain.SubmitBlock(context.Background(), action)
	require.NoError(t, err)

	tipBefore := tc.chain.TipBlockHash()
	bad, err := tc.chain.SubmitBlock(context.Background(), action)
	require.NoError(t, err)
	require.Nil(t, bad)
	require.Equal(t, tipBefore, tc.chain.TipBlockHash())
}

func TestSubmitBlockRejectsParentMismatch(t *testing.T) {
	tc := newTestChain(t)
	raw := tc.buildBlock(t, nil, nil, nil, common.RegistryAddress{})
	raw.ParentBlockHash = common.U32ToH(0xbad)

	_, err := tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{Block: raw})
	require.ErrorIs(t, err, ErrParentMismatch)
}

func TestRevertUndoesBlockAndRestoresTip(t *testing.T) {
	tc := newTestChain(t)
	rollupTypeHash := tc.gencfg.RollupTypeHash
	genesisRoot := tc.chain.AccountRoot()
	genesisHash := tc.chain.TipBlockHash()

	senderScript := eoaScript(rollupTypeHash, 0xaa)
	deposits := []DepositRequest{{Script: senderScript, SudtID: config.CKBSudtAccountID, Amount: 100}}

	raw := tc.buildBlock(t, deposits, nil, nil, common.RegistryAddress{})
	bad, err := tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{
		Block:    raw,
		Deposits: deposits,
	})
	require.NoError(t, err)
	require.Nil(t, bad)
	require.Equal(t, uint64(1), tc.chain.TipBlockNumber())

	revertedRootBefore := tc.chain.revertedBlockSMTRoot

	err = tc.chain.Revert(context.Background(), RevertAction{
		RevertedBlocks:   []uint64{1},
		PostRevertedRoot: common.H{}, // placeholder, corrected below
	})
	require.Error(t, err, "wrong claimed root must be rejected")
	require.ErrorIs(t, err, ErrRevertRootMismatch)
	require.Equal(t, uint64(1), tc.chain.TipBlockNumber(), "a rejected revert must not partially apply")
	require.Equal(t, revertedRootBefore, tc.chain.revertedBlockSMTRoot, "a rejected revert must not mutate the cached reverted-block root either")

	// Recompute the actual post-revert root the same way Revert would,
	// by folding the known block hash into a throwaway copy of the
	// reverted-block smt starting from revertedRootBefore.
	wantRoot := computeExpectedRevertedRoot(t, tc, revertedRootBefore, raw.Number, raw.Hash())

	err = tc.chain.Revert(context.Background(), RevertAction{
		RevertedBlocks:   []uint64{1},
		PostRevertedRoot: wantRoot,
	})
	require.NoError(t, err)

	require.Equal(t, uint64(0), tc.chain.TipBlockNumber())
	require.Equal(t, genesisHash, tc.chain.TipBlockHash())
	require.Equal(t, genesisRoot, tc.chain.AccountRoot())
}

func computeExpectedRevertedRoot(t *testing.T, tc *testChain, startRoot common.H, blockNumber uint64, blockHash common.H) common.H {
	t.Helper()
	ctx := context.Background()
	tx, err := tc.db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	store := smt.NewKVStore(tx, tx, kv.RevertedBlockSMTBranch, kv.RevertedBlockSMTLeaf)
	tree := smt.NewTree(store, startRoot)
	root, err := tree.Update(genesis.BlockSMTKey(blockNumber), blockHash)
	require.NoError(t, err)
	return root
}

func TestRevertRejectsNonDescendingOrder(t *testing.T) {
	tc := newTestChain(t)
	err := tc.chain.Revert(context.Background(), RevertAction{RevertedBlocks: []uint64{1, 2}})
	require.ErrorIs(t, err, ErrRevertOrderInvalid)
}

func TestChallengeHaltsSubmitBlockUntilCancelled(t *testing.T) {
	tc := newTestChain(t)
	require.NoError(t, tc.chain.Challenge(ChallengeAction{BlockHash: tc.chain.TipBlockHash(), TargetType: TargetTransaction}))
	require.True(t, tc.chain.Halted())

	raw := tc.buildBlock(t, nil, nil, nil, common.RegistryAddress{})
	_, err := tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{Block: raw})
	require.ErrorIs(t, err, ErrHalted)

	require.NoError(t, tc.chain.CancelChallenge())
	require.False(t, tc.chain.Halted())

	_, err = tc.chain.SubmitBlock(context.Background(), SubmitBlockAction{Block: raw})
	require.NoError(t, err)
}

func TestCancelChallengeRejectsWhenNotHalted(t *testing.T) {
	tc := newTestChain(t)
	err := tc.chain.CancelChallenge()
	require.ErrorIs(t, err, ErrNotHalted)
}
