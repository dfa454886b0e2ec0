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
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/godwokenrises/gwchain/chain"
)

// exportedBlock is export-block's YAML output shape: a flattened,
// human-readable view of genesis.RawL2Block, avoiding a yaml.v3
// round-trip through common.H's raw [32]byte array encoding.
type exportedBlock struct {
	Number              uint64   `yaml:"number"`
	ParentBlockHash     string   `yaml:"parent_block_hash"`
	Timestamp           uint64   `yaml:"timestamp"`
	PrevAccountRoot     string   `yaml:"prev_account_root"`
	PrevAccountCount    uint32   `yaml:"prev_account_count"`
	PostAccountRoot     string   `yaml:"post_account_root"`
	PostAccountCount    uint32   `yaml:"post_account_count"`
	TxCount             uint32   `yaml:"tx_count"`
	WithdrawalCount     uint32   `yaml:"withdrawal_count"`
	StateCheckpointList []string `yaml:"state_checkpoint_list"`
}

func newExportBlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-block <number>",
		Short: "print a committed block as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("gwchaind: invalid block number %q: %w", args[0], err)
			}
			return runExportBlock(cmd.Context(), number)
		},
	}
}

func runExportBlock(ctx context.Context, number uint64) error {
	log, err := newRootLogger()
	if err != nil {
		return err
	}
	cfg, err := loadNodeConfig(flags.configPath)
	if err != nil {
		return err
	}
	s, err := buildStack(ctx, flags.datadir, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.chain.Snapshot()
	defer snap.Close()
	block, ok, err := s.chain.BlockByNumber(snap, number)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("gwchaind: %w: block %d", chain.ErrUnknownBlock, number)
	}

	checkpoints := make([]string, len(block.Raw.StateCheckpointList))
	for i, cp := range block.Raw.StateCheckpointList {
		checkpoints[i] = cp.String()
	}
	out := exportedBlock{
		Number:              block.Raw.Number,
		ParentBlockHash:     block.Raw.ParentBlockHash.String(),
		Timestamp:           block.Raw.Timestamp,
		PrevAccountRoot:     block.Raw.PrevAccount.Root.String(),
		PrevAccountCount:    block.Raw.PrevAccount.Count,
		PostAccountRoot:     block.Raw.PostAccount.Root.String(),
		PostAccountCount:    block.Raw.PostAccount.Count,
		TxCount:             block.Raw.SubmitTransactions.TxCount,
		WithdrawalCount:     block.Raw.SubmitWithdrawals.WithdrawalCount,
		StateCheckpointList: checkpoints,
	}
	enc, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Print(string(enc))
	return nil
}
