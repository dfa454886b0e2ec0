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

	"github.com/godwokenrises/gwchain/chain"
	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/lockalgo"
	gwlog "github.com/godwokenrises/gwchain/log"
	"github.com/godwokenrises/gwchain/metrics"
	"github.com/godwokenrises/gwchain/txpool"
	"github.com/godwokenrises/gwchain/vm"
)

func devnetHash(n uint32) common.H { return common.U32ToH(n) }

// passthroughVm is the devnet/smoke-test stand-in for a real CKB-VM
// bytecode interpreter, which is explicitly out of scope for this
// rewrite (spec §1/§2's DOMAIN STACK table): it never touches state
// and always reports success, the same role lockalgo.AlwaysSuccess
// plays on the signature side. A production deployment swaps this for
// a real vm.Vm implementation against the same Registry seam.
type passthroughVm struct{}

func (passthroughVm) Execute(vm.CallContext, vm.BlockInfo, vm.Syscalls) (*vm.RunResult, error) {
	return vm.NewRunResult(), nil
}

// stack bundles every wired component buildStack assembles, so
// subcommands can pick only what they need (export-block/rewind never
// touch txpool or metrics, start needs everything).
type stack struct {
	db       kv.DB
	gen      *generator.Generator
	chain    *chain.Chain
	pool     *txpool.Pool
	metrics  *metrics.Metrics
	log      gwlog.Logger
	cfg      NodeConfig
}

// buildStack opens db (an MDBX store at datadir, or an in-memory store
// when datadir is empty), wires the lock-algorithm/Vm registries, the
// generator, the chain state machine (running InitGenesis on first
// boot), and a mem-pool seeded from the chain's current tip.
func buildStack(ctx context.Context, datadir string, cfg NodeConfig, log gwlog.Logger) (*stack, error) {
	db, err := openStore(datadir)
	if err != nil {
		return nil, err
	}

	locks := lockalgo.NewManage()
	locks.Register(cfg.Genesis.EthAccountLockTypeHash, lockalgo.EthSecp256k1{})
	locks.Register(cfg.Genesis.MetaContractValidatorTypeHash, lockalgo.AlwaysSuccess{})

	vms := vm.NewRegistry()
	vms.Register(cfg.Genesis.EthAccountLockTypeHash, passthroughVm{})
	vms.Register(cfg.Genesis.MetaContractValidatorTypeHash, passthroughVm{})
	for _, bf := range cfg.Fork.BackendForks {
		for _, b := range bf.Backends {
			vms.Register(b.ValidatorCodeHash, passthroughVm{})
		}
	}

	gen := generator.New(locks, vms, &cfg.Fork, cfg.Genesis.Rollup.ChainID)
	registry := common.NewRegistryContext([]common.AllowedTypeHash{
		{Hash: cfg.Genesis.EthAccountLockTypeHash, Type: common.EoaEth},
	})

	c, err := chain.New(db, gen, &cfg.Fork, cfg.Genesis.Rollup, registry, log.New("component", "chain"))
	if err != nil {
		db.Close()
		return nil, err
	}
	if c.TipBlockHash().IsZero() {
		if err := c.InitGenesis(ctx, cfg.Genesis); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("initialized genesis", "tip_hash", c.TipBlockHash())
	}

	block := producerBlockInfo(c)
	pool := txpool.New(db, gen, &cfg.Fork, c.Snapshot(), c.AccountRoot(), block, log.New("component", "txpool"))

	return &stack{
		db: db, gen: gen, chain: c, pool: pool,
		metrics: metrics.New(), log: log, cfg: cfg,
	}, nil
}

func (s *stack) Close() {
	s.pool.Close()
	s.db.Close()
}

// producerBlockInfo derives the vm.BlockInfo the mem-pool's speculative
// overlay should run against: the block right after the current tip,
// with no fixed producer address (devnet single-sequencer mode).
func producerBlockInfo(c *chain.Chain) vm.BlockInfo {
	return vm.BlockInfo{Number: c.TipBlockNumber() + 1}
}
