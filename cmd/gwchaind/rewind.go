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

	"github.com/godwokenrises/gwchain/chain"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

func newRewindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewind <number>",
		Short: "revert the chain tip back to the given block number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("gwchaind: invalid block number %q: %w", args[0], err)
			}
			return runRewind(cmd.Context(), number)
		},
	}
}

// runRewind unwinds the tip down to (but not including) target, one
// call to chain.Chain.Revert covering the whole descending run, the
// same shape chain_test.go's computeExpectedRevertedRoot helper builds
// by hand: fold each reverted block's hash into a throwaway copy of the
// reverted-block SMT seeded from the chain's current RevertedBlockRoot,
// walking from tip down to target+1.
func runRewind(ctx context.Context, target uint64) error {
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

	tip := s.chain.TipBlockNumber()
	if target >= tip {
		return fmt.Errorf("gwchaind: rewind target %d is not below tip %d", target, tip)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	root := s.chain.GlobalState().RevertedBlockRoot
	store := smt.NewKVStore(tx, tx, kv.RevertedBlockSMTBranch, kv.RevertedBlockSMTLeaf)
	tree := smt.NewTree(store, root)

	reverted := make([]uint64, 0, tip-target)
	for n := tip; n > target; n-- {
		var block genesis.L2Block
		var ok bool
		block, ok, err = s.chain.BlockByNumber(tx, n)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("gwchaind: %w: block %d", chain.ErrUnknownBlock, n)
		}
		root, err = tree.Update(genesis.BlockSMTKey(n), block.Raw.Hash())
		if err != nil {
			return err
		}
		reverted = append(reverted, n)
	}

	if err := s.chain.Revert(ctx, chain.RevertAction{
		RevertedBlocks:   reverted,
		PostRevertedRoot: root,
	}); err != nil {
		return err
	}

	log.Info("rewind complete", "target", target, "new_tip", s.chain.TipBlockNumber())
	return nil
}
