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

// Package config is C10's configuration surface: the fork-activation
// schedule (§6 "Fork schedule"), the rollup/genesis config, and the
// per-backend code-hash table, all YAML-loadable the way the teacher's
// node config layers are. Grounded on crates/config/src/fork_config.rs.
package config

import "github.com/godwokenrises/gwchain/common"

// Cycle/size limits, grounded on crates/config/src/constants.rs.
const (
	L2TxMaxCycles150M     = 150_000_000
	L2TxMaxCycles500M     = 500_000_000
	MaxTxSize             = 50_000
	MaxWithdrawalSize     = 50_000
	MaxWriteDataBytes     = 25 * 1024
	MaxTotalReadDataBytes = 2 * 1024 * 1024
)

// BackendType classifies which built-in contract a BackendConfig entry
// backs, per fork_config.rs's BackendType enum.
type BackendType int

const (
	BackendUnknown BackendType = iota
	BackendMeta
	BackendSudt
	BackendPolyjuice
	BackendEthAddrReg
)

// BackendConfig names the validator/generator pair active for a given
// code_hash from a given activation height, per fork_config.rs's
// BackendConfig (ValidatorPath/GeneratorPath are dropped — this
// rewrite's Vm/LockAlgorithm registries are populated by Go code at
// startup, not by loading external binaries).
type BackendConfig struct {
	ValidatorCodeHash common.H    `yaml:"validator_code_hash"`
	BackendType       BackendType `yaml:"backend_type"`
}

// BackendForkConfig activates a set of BackendConfig entries at
// ForkHeight, per fork_config.rs's BackendForkConfig.
type BackendForkConfig struct {
	ForkHeight uint64          `yaml:"fork_height"`
	Backends   []BackendConfig `yaml:"backends"`
}

// ForkConfig is the activation schedule C6/C9 consult (spec §6 "Fork
// schedule"), grounded on fork_config.rs's ForkConfig.
type ForkConfig struct {
	IncreaseMaxL2TxCyclesTo500M *uint64             `yaml:"increase_max_l2_tx_cycles_to_500m"`
	EnforceChainIDCheck         *uint64             `yaml:"enforce_chain_id_check"`
	UseTimestampAsTimepoint     *uint64             `yaml:"use_timestamp_as_timepoint"`
	BackendForks                []BackendForkConfig `yaml:"backend_forks"`
}

// MaxL2TxCycles returns the cycle budget for a tx in blockNumber,
// switching from the 150M to the 500M tier once
// IncreaseMaxL2TxCyclesTo500M activates, per fork_config.rs's
// ForkConfig::max_l2_tx_cycles.
func (f *ForkConfig) MaxL2TxCycles(blockNumber uint64) uint64 {
	if f.IncreaseMaxL2TxCyclesTo500M == nil || blockNumber < *f.IncreaseMaxL2TxCyclesTo500M {
		return L2TxMaxCycles150M
	}
	return L2TxMaxCycles500M
}

// ChainIDCheckEnforced reports whether blockNumber must reject
// unprotected (chain_id == 0) transactions (spec §4.6 step 3).
func (f *ForkConfig) ChainIDCheckEnforced(blockNumber uint64) bool {
	return f.EnforceChainIDCheck != nil && blockNumber >= *f.EnforceChainIDCheck
}

// UsesTimestampAsTimepoint reports whether blockNumber produces
// timestamp-encoded (rather than block-number-encoded) timepoints.
func (f *ForkConfig) UsesTimestampAsTimepoint(blockNumber uint64) bool {
	return f.UseTimestampAsTimepoint != nil && blockNumber >= *f.UseTimestampAsTimepoint
}

// MaxTxSize/MaxWithdrawalSize/MaxWriteDataBytes/MaxTotalReadDataBytes
// are currently block-number-independent (fork_config.rs's own
// equivalents also ignore their block_number argument today), but take
// one for forward compatibility with a future fork that changes them.
func (f *ForkConfig) MaxTxSize(uint64) int             { return MaxTxSize }
func (f *ForkConfig) MaxWithdrawalSize(uint64) int     { return MaxWithdrawalSize }
func (f *ForkConfig) MaxWriteDataBytes(uint64) int     { return MaxWriteDataBytes }
func (f *ForkConfig) MaxTotalReadDataBytes(uint64) int { return MaxTotalReadDataBytes }

// BackendFor returns the BackendConfig active for codeHash at
// blockNumber: the highest-ForkHeight <= blockNumber entry whose
// Backends list contains codeHash.
func (f *ForkConfig) BackendFor(codeHash common.H, blockNumber uint64) (BackendConfig, bool) {
	var best *BackendConfig
	var bestHeight uint64
	for i := range f.BackendForks {
		bf := &f.BackendForks[i]
		if bf.ForkHeight > blockNumber {
			continue
		}
		for j := range bf.Backends {
			if bf.Backends[j].ValidatorCodeHash == codeHash && (best == nil || bf.ForkHeight >= bestHeight) {
				best = &bf.Backends[j]
				bestHeight = bf.ForkHeight
			}
		}
	}
	if best == nil {
		return BackendConfig{}, false
	}
	return *best, true
}
