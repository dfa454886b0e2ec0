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

// Package genesis is C10's genesis builder (spec §4.10), plus the
// shared block/global-state record types (types.go) that C8 decodes
// submissions into. Grounded on crates/chain/src/genesis.rs's
// build_genesis, re-scoped to the three builtin accounts spec §3/§8's
// S1 scenario actually names (reserved, ckb-sudt, eth-registry) rather
// than the older source's benchmark "initial aggregator" mint.
package genesis

import (
	"fmt"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
)

// BlockSMTKey derives the block SMT's key for blockNumber: the number,
// big-endian, zero-extended to a full word. Grounded on
// RawL2Block::compute_smt_key, re-expressed without CKB's molecule
// packing (out of scope, as elsewhere in this rewrite).
func BlockSMTKey(blockNumber uint64) common.H {
	return common.BytesToH(common.BE8(blockNumber))
}

// Result is build_genesis's output: the assembled genesis L2Block plus
// the GlobalState a freshly-initialized chain should persist.
type Result struct {
	Block       L2Block
	GlobalState GlobalState
}

// BuildGenesis implements spec §4.10's 6-step algorithm against tx (a
// fresh, empty kv.Tx — the caller is responsible for opening and
// eventually committing it as part of chain initialization).
func BuildGenesis(cfg config.GenesisConfig, tx kv.Tx) (*Result, error) {
	// step 1: fresh empty state.
	st := state.NewBlockStateDB(tx, smt.EmptyRoot(), 0)
	if root := st.CalculateRoot(); root != smt.EmptyRoot() {
		return nil, fmt.Errorf("genesis: fresh state root must be empty, got %s", root)
	}

	// step 2: reserved account (id=0), bound to the meta-contract script.
	metaScript := common.Script{
		CodeHash: cfg.MetaContractValidatorTypeHash,
		HashType: common.HashTypeType,
		Args:     cfg.RollupTypeHash[:],
	}
	reservedID, err := st.CreateAccountFromScript(metaScript)
	if err != nil {
		return nil, fmt.Errorf("genesis: create reserved account: %w", err)
	}
	if reservedID != config.ReservedAccountID {
		return nil, fmt.Errorf("genesis: reserved account id must be %d, got %d", config.ReservedAccountID, reservedID)
	}

	// step 3: CKB-sUDT account (id=1). Its own lock is the meta-contract
	// too — sUDT accounts are owned by the protocol, not by any signer
	// (spec §4.3 "sudt is itself a regular account", state/keys.go).
	sudtScript := common.Script{
		CodeHash: cfg.MetaContractValidatorTypeHash,
		HashType: common.HashTypeType,
		Args:     append(append([]byte(nil), cfg.RollupTypeHash[:]...), byte(config.CKBSudtAccountID)),
	}
	sudtID, err := st.CreateAccountFromScript(sudtScript)
	if err != nil {
		return nil, fmt.Errorf("genesis: create ckb-sudt account: %w", err)
	}
	if sudtID != config.CKBSudtAccountID {
		return nil, fmt.Errorf("genesis: ckb-sudt account id must be %d, got %d", config.CKBSudtAccountID, sudtID)
	}

	// step 4: eth-registry account, bound to the eth-account-lock config.
	registryScript := common.Script{
		CodeHash: cfg.EthAccountLockTypeHash,
		HashType: common.HashTypeType,
		Args:     append(append([]byte(nil), cfg.RollupTypeHash[:]...), byte(2)),
	}
	registryID, err := st.CreateAccountFromScript(registryScript)
	if err != nil {
		return nil, fmt.Errorf("genesis: create eth-registry account: %w", err)
	}
	if registryID != config.EthRegistryAccountID {
		return nil, fmt.Errorf("genesis: eth-registry account id must be %d, got %d", config.EthRegistryAccountID, registryID)
	}

	// step 5: post-state root and count.
	count, err := st.GetAccountCount()
	if err != nil {
		return nil, fmt.Errorf("genesis: get account count: %w", err)
	}
	postRoot := st.CalculateRoot()
	postCheckpoint, err := st.CalculateStateCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("genesis: calculate checkpoint: %w", err)
	}

	raw := RawL2Block{
		Number:      0,
		Timestamp:   cfg.Timestamp,
		PostAccount: AccountMerkleState{Root: postRoot, Count: count},
		SubmitTransactions: SubmitTransactions{
			PrevStateCheckpoint: postCheckpoint,
		},
	}

	// step 6: assemble L2Block with a proof-of-insert into the block SMT.
	blockHash := raw.Hash()
	blockStore := smt.NewKVStore(tx, tx, kv.BlockSMTBranch, kv.BlockSMTLeaf)
	blockTree := smt.NewTree(blockStore, smt.EmptyRoot())
	blockKey := BlockSMTKey(0)
	newBlockRoot, err := blockTree.Update(blockKey, blockHash)
	if err != nil {
		return nil, fmt.Errorf("genesis: insert block smt leaf: %w", err)
	}
	proof, err := blockTree.MerkleProof([]common.H{blockKey})
	if err != nil {
		return nil, fmt.Errorf("genesis: build block proof: %w", err)
	}

	block := L2Block{Raw: raw, BlockProof: smt.EncodeProof(proof)}

	global := GlobalState{
		Account:           AccountMerkleState{Root: postRoot, Count: count},
		Block:             AccountMerkleState{Root: newBlockRoot, Count: 1},
		RevertedBlockRoot: smt.EmptyRoot(),
		TipBlockHash:      blockHash,
		TipBlockTimestamp: cfg.Timestamp,
		Status:            StatusRunning,
		Version:           1,
	}

	return &Result{Block: block, GlobalState: global}, nil
}
