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

package config

import "github.com/godwokenrises/gwchain/common"

// Builtin account ids, per crates/common/src/builtins.rs.
const (
	ReservedAccountID    uint32 = 0
	CKBSudtAccountID     uint32 = 1
	EthRegistryAccountID uint32 = 2
)

// RollupConfig carries the chain-wide parameters chain/finality/genesis
// all consult: the finality window, chain id, and rollup identity
// hashes baked into genesis-derived lock args (spec §6 "Genesis
// config").
type RollupConfig struct {
	ChainID        uint64  `yaml:"chain_id"`
	FinalityBlocks uint64  `yaml:"finality_blocks"`
	RollupTypeHash common.H `yaml:"rollup_type_hash"`
}

// GenesisConfig is build_genesis's input (spec §4.10): the genesis
// timestamp, the rollup identity, and the code hashes of the built-in
// meta-contract and eth-account-lock scripts that the reserved/registry
// accounts are bound to.
type GenesisConfig struct {
	Timestamp                  uint64       `yaml:"timestamp"`
	RollupTypeHash             common.H     `yaml:"rollup_type_hash"`
	MetaContractValidatorTypeHash common.H  `yaml:"meta_contract_validator_type_hash"`
	EthAccountLockTypeHash     common.H     `yaml:"eth_account_lock_type_hash"`
	Rollup                     RollupConfig `yaml:"rollup_config"`
}
