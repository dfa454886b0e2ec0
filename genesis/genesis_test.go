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

package genesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

func testGenesisConfig() config.GenesisConfig {
	return config.GenesisConfig{
		Timestamp:                     42,
		RollupTypeHash:                common.H{0x2a, 0x2a, 0x2a},
		MetaContractValidatorTypeHash: common.U32ToH(1),
		EthAccountLockTypeHash:        common.U32ToH(2),
	}
}

func newMemTx(t *testing.T) kv.Tx {
	t.Helper()
	db := kv.NewMemDB([]string{
		kv.AccountSMTBranch, kv.AccountSMTLeaf,
		kv.BlockSMTBranch, kv.BlockSMTLeaf,
		kv.Script, kv.Data, kv.RegistryAddressData,
		kv.BlockStateRecord, kv.BlockStateReverse,
	})
	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

// S1 from spec §8: build genesis and check account_count = 3 (reserved,
// ckb-sudt, eth-registry).
func TestBuildGenesisS1AccountCount(t *testing.T) {
	tx := newMemTx(t)
	result, err := BuildGenesis(testGenesisConfig(), tx)
	require.NoError(t, err)

	require.Equal(t, uint32(3), result.Block.Raw.PostAccount.Count)
	require.Equal(t, uint32(3), result.GlobalState.Account.Count)
	require.Equal(t, uint64(0), result.Block.Raw.Number)
	require.Equal(t, uint64(42), result.Block.Raw.Timestamp)
}

func TestBuildGenesisIsDeterministic(t *testing.T) {
	r1, err := BuildGenesis(testGenesisConfig(), newMemTx(t))
	require.NoError(t, err)
	r2, err := BuildGenesis(testGenesisConfig(), newMemTx(t))
	require.NoError(t, err)

	require.Equal(t, r1.Block.Raw.Hash(), r2.Block.Raw.Hash())
	require.Equal(t, r1.Block.BlockProof, r2.Block.BlockProof)
	require.Equal(t, r1.GlobalState, r2.GlobalState)
}

func TestBuildGenesisBlockProofVerifiesAgainstBlockHash(t *testing.T) {
	tx := newMemTx(t)
	result, err := BuildGenesis(testGenesisConfig(), tx)
	require.NoError(t, err)
	proof, err := smt.DecodeProof(result.Block.BlockProof)
	require.NoError(t, err)
	root, err := smt.ComputeRoot(map[common.H]common.H{BlockSMTKey(0): result.Block.Raw.Hash()}, proof)
	require.NoError(t, err)
	require.Equal(t, result.GlobalState.Block.Root, root)
	require.Equal(t, result.GlobalState.TipBlockHash, result.Block.Raw.Hash())
}
