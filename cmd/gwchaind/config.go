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

package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/godwokenrises/gwchain/config"
)

// NodeConfig is the on-disk --config file format: genesis parameters
// (which embed the rollup config) plus the fork-activation schedule,
// the two config/ structs spec §6's "Genesis config"/"Fork schedule"
// sections name. It has no package of its own since it is purely a
// cmd-level grouping of two already-yaml-tagged structs.
type NodeConfig struct {
	Genesis config.GenesisConfig `yaml:"genesis"`
	Fork    config.ForkConfig    `yaml:"fork"`
}

// loadNodeConfig reads and parses path, or returns a minimal built-in
// devnet default when path is empty (so `gwchaind start` works out of
// the box against a throwaway datadir, the same convenience Erigon's
// own default chain config offers for `--chain dev`).
func loadNodeConfig(path string) (NodeConfig, error) {
	if path == "" {
		return devnetConfig(), nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, err
	}
	var cfg NodeConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// devnetConfig bootstraps a self-consistent rollup/genesis config
// with devnet-only code hashes (no external contract deployment
// required), mirroring the teacher's "--chain dev" single-node preset.
func devnetConfig() NodeConfig {
	rollupTypeHash := devnetHash(1)
	rollup := config.RollupConfig{
		ChainID:        202204,
		FinalityBlocks: 100,
		RollupTypeHash: rollupTypeHash,
	}
	return NodeConfig{
		Genesis: config.GenesisConfig{
			Timestamp:                     0,
			RollupTypeHash:                rollupTypeHash,
			MetaContractValidatorTypeHash: devnetHash(2),
			EthAccountLockTypeHash:        devnetHash(3),
			Rollup:                        rollup,
		},
	}
}
