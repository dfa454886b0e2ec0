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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
	"github.com/godwokenrises/gwchain/vm"
)

// Chain is C8: the confirmed-tip state machine. A single instance owns
// the account/block/reverted-block SMT roots and the three tip
// pointers (spec §4.8), serializing every SubmitBlock/Revert/Challenge
// call through mu -- mirroring txpool.Pool's single-logical-instance
// mutex, re-scoped to the confirmed tip rather than the mem-pool
// overlay.
type Chain struct {
	mu sync.Mutex

	db       kv.DB
	gen      *generator.Generator
	forks    *config.ForkConfig
	rollup   config.RollupConfig
	registry *common.RegistryContext
	log      Logger

	// applying holds 1+blockNumber while a SubmitBlock call for
	// blockNumber is in flight, 0 otherwise. Checked by Revert without
	// taking mu, so an overlapping revert returns ErrRevertInProgress
	// immediately instead of blocking on the SubmitBlock in progress
	// (SPEC_FULL.md §5 open question #2).
	applying atomic.Uint64

	halted bool

	tip
}

// tip bundles every field of the confirmed-tip pointer (spec §4.8's
// three tip pointers plus the three SMT roots). SubmitBlock/Revert
// compute a candidate tip into a local value and only fold it into
// Chain via applyTip once their underlying kv.Tx has actually
// committed -- so a failed commit, or a root-mismatch caught after the
// speculative work runs, never leaves Chain's cached fields ahead of
// what is actually durable.
type tip struct {
	tipBlockHash   common.H
	tipBlockNumber uint64
	lastConfirmed  uint64
	lastSubmitted  uint64

	accountRoot  common.H
	accountCount uint32

	blockSMTRoot         common.H
	revertedBlockSMTRoot common.H
}

func (c *Chain) snapshotTip() tip { return c.tip }

func (c *Chain) applyTip(t tip) { c.tip = t }

// New opens a Chain over db, loading whatever tip state is already
// persisted under the Meta column. A freshly created db has no Meta
// entries yet; call InitGenesis before submitting any block.
func New(db kv.DB, gen *generator.Generator, forks *config.ForkConfig, rollup config.RollupConfig, registry *common.RegistryContext, log Logger) (*Chain, error) {
	if log == nil {
		log = noopLogger{}
	}
	c := &Chain{
		db:       db,
		gen:      gen,
		forks:    forks,
		rollup:   rollup,
		registry: registry,
		log:      log,
		tip: tip{
			accountRoot:          smt.EmptyRoot(),
			blockSMTRoot:         smt.EmptyRoot(),
			revertedBlockSMTRoot: smt.EmptyRoot(),
		},
	}
	snap := db.Snapshot()
	defer snap.Close()
	if err := c.loadMeta(snap); err != nil {
		return nil, err
	}
	return c, nil
}

func getMetaH(g kv.Getter, key string) (common.H, bool, error) {
	v, ok, err := g.Get(kv.Meta, []byte(key))
	if err != nil || !ok {
		return common.H{}, ok, err
	}
	return common.BytesToH(v), true, nil
}

func getMetaU64(g kv.Getter, key string) (uint64, bool, error) {
	v, ok, err := g.Get(kv.Meta, []byte(key))
	if err != nil || !ok {
		return 0, ok, err
	}
	return common.U64FromBE8(v), true, nil
}

func (c *Chain) loadMeta(g kv.Getter) error {
	if h, ok, err := getMetaH(g, kv.MetaTipBlockHash); err != nil {
		return err
	} else if ok {
		c.tipBlockHash = h
	}
	if h, ok, err := getMetaH(g, kv.MetaBlockSMTRoot); err != nil {
		return err
	} else if ok {
		c.blockSMTRoot = h
	}
	if h, ok, err := getMetaH(g, kv.MetaRevertedBlockSMTRoot); err != nil {
		return err
	} else if ok {
		c.revertedBlockSMTRoot = h
	}
	if h, ok, err := getMetaH(g, kv.MetaAccountSMTRoot); err != nil {
		return err
	} else if ok {
		c.accountRoot = h
	}
	if n, ok, err := getMetaU64(g, kv.MetaLastSubmitted); err != nil {
		return err
	} else if ok {
		c.lastSubmitted = n
		c.tipBlockNumber = n
	}
	if n, ok, err := getMetaU64(g, kv.MetaLastConfirmed); err != nil {
		return err
	} else if ok {
		c.lastConfirmed = n
	}
	if v, ok, err := g.Get(kv.Meta, []byte(kv.MetaAccountCount)); err != nil {
		return err
	} else if ok {
		c.accountCount = common.U32FromBE4(v)
	}
	return nil
}

// persistMeta writes t's fields into the Meta column (spec §6
// "Persisted state layout"), within the same tx the caller is about to
// commit. It never touches c directly -- the caller folds t into c via
// applyTip only after the tx commits.
func (c *Chain) persistMeta(tx kv.Putter, t tip) error {
	puts := []struct {
		key string
		val []byte
	}{
		{kv.MetaTipBlockHash, t.tipBlockHash[:]},
		{kv.MetaLastConfirmed, common.BE8(t.lastConfirmed)},
		{kv.MetaLastSubmitted, common.BE8(t.lastSubmitted)},
		{kv.MetaBlockSMTRoot, t.blockSMTRoot[:]},
		{kv.MetaRevertedBlockSMTRoot, t.revertedBlockSMTRoot[:]},
		{kv.MetaAccountSMTRoot, t.accountRoot[:]},
		{kv.MetaAccountCount, common.BE4(t.accountCount)},
		{kv.MetaChainID, common.BE8(c.rollup.ChainID)},
	}
	for _, p := range puts {
		if err := tx.Put(kv.Meta, []byte(p.key), p.val); err != nil {
			return err
		}
	}
	return nil
}

// TipBlockHash/TipBlockNumber/AccountRoot/AccountCount/GlobalState/
// Snapshot let the rest of the node (the mem-pool, the CLI) observe the
// confirmed tip chain just committed.
func (c *Chain) TipBlockHash() common.H {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tipBlockHash
}

func (c *Chain) TipBlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tipBlockNumber
}

func (c *Chain) AccountRoot() common.H {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountRoot
}

func (c *Chain) AccountCount() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountCount
}

func (c *Chain) Snapshot() kv.ReadView { return c.db.Snapshot() }

// BlockByNumber looks up the committed block stored at number, for
// operational tooling (cmd/gwchaind's export-block) that needs a
// decoded block without reaching into chain's private wire format.
func (c *Chain) BlockByNumber(g kv.Getter, number uint64) (genesis.L2Block, bool, error) {
	hashBytes, ok, err := g.Get(kv.Index, common.BE8(number))
	if err != nil || !ok {
		return genesis.L2Block{}, false, err
	}
	rawBytes, ok, err := g.Get(kv.Block, hashBytes)
	if err != nil || !ok {
		return genesis.L2Block{}, false, err
	}
	block, err := decodeL2Block(rawBytes)
	if err != nil {
		return genesis.L2Block{}, false, err
	}
	return block, true, nil
}

// GlobalState assembles the on-chain-mirror view of the current tip
// (spec §3 GlobalState), as of the last successfully applied action.
func (c *Chain) GlobalState() genesis.GlobalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := genesis.StatusRunning
	if c.halted {
		status = genesis.StatusHalting
	}
	return genesis.GlobalState{
		Account:           genesis.AccountMerkleState{Root: c.accountRoot, Count: c.accountCount},
		Block:             genesis.AccountMerkleState{Root: c.blockSMTRoot, Count: uint32(c.tipBlockNumber + 1)},
		RevertedBlockRoot: c.revertedBlockSMTRoot,
		TipBlockHash:      c.tipBlockHash,
		Status:            status,
	}
}

// InitGenesis builds and persists the genesis block (spec §4.10), and
// must be called exactly once against a fresh store before any
// SubmitBlock.
func (c *Chain) InitGenesis(ctx context.Context, cfg config.GenesisConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tipBlockHash.IsZero() || c.blockSMTRoot != smt.EmptyRoot() {
		return ErrGenesisAlreadyInitialized
	}

	var next tip
	err := c.db.Update(ctx, func(tx kv.Tx) error {
		result, err := genesis.BuildGenesis(cfg, tx)
		if err != nil {
			return err
		}
		blockHash := result.Block.Raw.Hash()
		if err := tx.Put(kv.Block, blockHash[:], encodeL2Block(result.Block)); err != nil {
			return err
		}
		if err := tx.Put(kv.Index, common.BE8(0), blockHash[:]); err != nil {
			return err
		}

		next = tip{
			tipBlockHash:         blockHash,
			tipBlockNumber:       0,
			accountRoot:          result.GlobalState.Account.Root,
			accountCount:         result.GlobalState.Account.Count,
			blockSMTRoot:         result.GlobalState.Block.Root,
			revertedBlockSMTRoot: result.GlobalState.RevertedBlockRoot,
		}
		return c.persistMeta(tx, next)
	})
	if err != nil {
		return err
	}
	c.applyTip(next)
	return nil
}

func (c *Chain) currentlyApplying() (uint64, bool) {
	v := c.applying.Load()
	if v == 0 {
		return 0, false
	}
	return v - 1, true
}

// isCurrentTip reports whether (number, hash) already is the chain's
// confirmed tip, the idempotent-resubmission case spec invariant 8
// requires SubmitBlock to treat as a no-op.
func (c *Chain) isCurrentTip(number uint64, hash common.H) bool {
	return number == c.tipBlockNumber && hash == c.tipBlockHash && !hash.IsZero()
}

// SubmitBlock implements spec §4.8's SubmitBlock handling: verify the
// parent hash, apply deposits, apply each transaction/withdrawal
// comparing its post-state checkpoint against the submitted
// block.state_checkpoint_list entry, and on success append the block to
// the block SMT and advance the tip. A non-nil *BadBlockError return
// (with a nil error) means the block was rejected and recorded into the
// reverted-block SMT instead of being committed; a non-nil error means
// SubmitBlock itself could not be evaluated (I/O failure, halted
// rollup, bad parent hash) and the block was not touched at all.
func (c *Chain) SubmitBlock(ctx context.Context, action SubmitBlockAction) (*BadBlockError, error) {
	blockHash := action.Block.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.halted {
		return nil, ErrHalted
	}
	if c.isCurrentTip(action.Block.Number, blockHash) {
		return nil, nil
	}
	if action.Block.Number != 0 && action.Block.ParentBlockHash != c.tipBlockHash {
		return nil, ErrParentMismatch
	}

	c.applying.Store(action.Block.Number + 1)
	defer c.applying.Store(0)

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	st := state.NewBlockStateDB(tx, c.accountRoot, action.Block.Number)

	for i, dep := range action.Deposits {
		if err := c.applyDeposit(st, dep); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("chain: apply deposit %d: %w", i, err)
		}
	}

	block := vm.BlockInfo{Number: action.Block.Number, Timestamp: action.Block.Timestamp, Producer: action.Producer}
	bad, err := c.applyBlockBody(st, action, block, blockHash)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if bad != nil {
		tx.Rollback()
		if err := c.recordBadBlock(ctx, bad); err != nil {
			return nil, err
		}
		c.log.Warn("chain: bad block", "number", bad.BlockNumber, "hash", bad.BlockHash, "reason", bad.Reason)
		return bad, nil
	}

	next := c.snapshotTip()
	if err := c.commitBlock(tx, st, action.Block, blockHash, &next); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	c.applyTip(next)
	c.log.Info("chain: submitted block", "number", action.Block.Number, "hash", blockHash)
	return nil, nil
}

// applyDeposit resolves or creates the deposit's target account and
// mints the requested sUDT amount into it (spec §4.8 step 2), using
// RegistryContext to recover the account's registry address the same
// way genesis binds its own builtin accounts.
func (c *Chain) applyDeposit(st *state.BlockStateDB, dep DepositRequest) error {
	scriptHash := dep.Script.Hash()
	_, ok, err := st.GetAccountIDByScriptHash(scriptHash)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := st.CreateAccountFromScript(dep.Script); err != nil {
			return err
		}
		addr, err := c.registry.ExtractRegistryAddressFromDeposit(config.EthRegistryAccountID, dep.Script)
		if err != nil {
			return err
		}
		if err := st.MapRegistryAddress(addr, scriptHash); err != nil {
			return err
		}
	}

	addr, ok, err := st.ScriptHashToRegistryAddress(scriptHash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chain: deposit target has no registry address mapped")
	}
	return st.MintSudt(dep.SudtID, addr, new(uint256.Int).SetUint64(dep.Amount))
}

// applyBlockBody runs every transaction then every withdrawal against
// st, checking each one's post-state checkpoint against the matching
// entry of action.Block.StateCheckpointList (spec §4.8). It returns a
// non-nil *BadBlockError (and a nil error) on the first mismatch,
// leaving st's writes in place for the caller to discard by rolling
// back its tx.
func (c *Chain) applyBlockBody(st *state.BlockStateDB, action SubmitBlockAction, block vm.BlockInfo, blockHash common.H) (*BadBlockError, error) {
	checkpoints := action.Block.StateCheckpointList
	checkpointIdx := 0

	check := func(globalIdx int) (*BadBlockError, error) {
		if checkpointIdx >= len(checkpoints) {
			return nil, fmt.Errorf("chain: %w: fewer checkpoints (%d) than applied entries", ErrCheckpointMismatch, len(checkpoints))
		}
		want := checkpoints[checkpointIdx]
		got, err := st.CalculateStateCheckpoint()
		if err != nil {
			return nil, err
		}
		checkpointIdx++
		if got != want {
			return &BadBlockError{
				BlockNumber: action.Block.Number,
				BlockHash:   blockHash,
				TxIndex:     globalIdx,
				Reason:      fmt.Errorf("%w: entry %d: want %s got %s", ErrCheckpointMismatch, globalIdx, want, got),
			}, nil
		}
		return nil, nil
	}

	for i, t := range action.Transactions {
		if _, err := c.gen.ApplyTransaction(st, block, t); err != nil {
			return nil, fmt.Errorf("chain: apply transaction %d: %w", i, err)
		}
		if bad, err := check(i); err != nil || bad != nil {
			return bad, err
		}
	}
	for i, w := range action.Withdrawals {
		if _, err := c.gen.ApplyWithdrawal(st, w); err != nil {
			return nil, fmt.Errorf("chain: apply withdrawal %d: %w", i, err)
		}
		if bad, err := check(len(action.Transactions) + i); err != nil || bad != nil {
			return bad, err
		}
	}
	return nil, nil
}

// commitBlock is SubmitBlock's success path: append blockHash to the
// block SMT (the same insertion pattern genesis.BuildGenesis uses for
// the genesis block) and advance next -- the candidate tip SubmitBlock
// folds into c only once tx.Commit succeeds.
func (c *Chain) commitBlock(tx kv.Tx, st *state.BlockStateDB, raw genesis.RawL2Block, blockHash common.H, next *tip) error {
	blockStore := smt.NewKVStore(tx, tx, kv.BlockSMTBranch, kv.BlockSMTLeaf)
	blockTree := smt.NewTree(blockStore, next.blockSMTRoot)
	blockKey := genesis.BlockSMTKey(raw.Number)
	newBlockRoot, err := blockTree.Update(blockKey, blockHash)
	if err != nil {
		return fmt.Errorf("chain: insert block smt leaf: %w", err)
	}
	proof, err := blockTree.MerkleProof([]common.H{blockKey})
	if err != nil {
		return fmt.Errorf("chain: build block proof: %w", err)
	}

	block := genesis.L2Block{Raw: raw, BlockProof: smt.EncodeProof(proof)}
	if err := tx.Put(kv.Block, blockHash[:], encodeL2Block(block)); err != nil {
		return err
	}
	if err := tx.Put(kv.Index, common.BE8(raw.Number), blockHash[:]); err != nil {
		return err
	}

	count, err := st.GetAccountCount()
	if err != nil {
		return err
	}

	next.tipBlockHash = blockHash
	next.tipBlockNumber = raw.Number
	next.accountRoot = st.CalculateRoot()
	next.accountCount = count
	next.blockSMTRoot = newBlockRoot
	next.lastSubmitted = raw.Number

	return c.persistMeta(tx, *next)
}

// recordBadBlock folds blockHash into the reverted-block SMT, in a
// fresh transaction of its own so it commits independently of the bad
// block's (rolled back) speculative state writes.
func (c *Chain) recordBadBlock(ctx context.Context, bad *BadBlockError) error {
	next := c.snapshotTip()
	err := c.db.Update(ctx, func(tx kv.Tx) error {
		store := smt.NewKVStore(tx, tx, kv.RevertedBlockSMTBranch, kv.RevertedBlockSMTLeaf)
		tree := smt.NewTree(store, next.revertedBlockSMTRoot)
		newRoot, err := tree.Update(genesis.BlockSMTKey(bad.BlockNumber), bad.BlockHash)
		if err != nil {
			return fmt.Errorf("chain: insert reverted-block smt leaf: %w", err)
		}
		next.revertedBlockSMTRoot = newRoot
		return c.persistMeta(tx, next)
	})
	if err != nil {
		return err
	}
	c.applyTip(next)
	return nil
}

// Revert implements spec §4.8's Revert handling: walk action's blocks
// in the descending order they were confirmed, undoing each one's
// writes via the history columns, then check the resulting
// reverted-block SMT root against action.PostRevertedRoot. The
// candidate tip is only folded into c once the underlying tx commits
// and the root check passes.
func (c *Chain) Revert(ctx context.Context, action RevertAction) error {
	if len(action.RevertedBlocks) == 0 {
		return nil
	}
	if err := c.checkRevertInProgress(action); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkRevertInProgress(action); err != nil {
		return err
	}
	for i := 1; i < len(action.RevertedBlocks); i++ {
		if action.RevertedBlocks[i] >= action.RevertedBlocks[i-1] {
			return ErrRevertOrderInvalid
		}
	}

	next := c.snapshotTip()
	err := c.db.Update(ctx, func(tx kv.Tx) error {
		for _, blockNumber := range action.RevertedBlocks {
			if err := c.revertOneBlock(tx, blockNumber, &next); err != nil {
				return err
			}
		}
		if next.revertedBlockSMTRoot != action.PostRevertedRoot {
			return fmt.Errorf("chain: %w: want %s got %s", ErrRevertRootMismatch, action.PostRevertedRoot, next.revertedBlockSMTRoot)
		}
		return c.persistMeta(tx, next)
	})
	if err != nil {
		return err
	}
	c.applyTip(next)
	return nil
}

func (c *Chain) checkRevertInProgress(action RevertAction) error {
	applying, ok := c.currentlyApplying()
	if !ok {
		return nil
	}
	for _, b := range action.RevertedBlocks {
		if b >= applying {
			return ErrRevertInProgress
		}
	}
	return nil
}

// revertOneBlock undoes blockNumber's writes (looking up each touched
// key's pre-block value via state.TouchedKeysInBlock/ValueBefore),
// removes it from the block SMT, folds it into the reverted-block SMT,
// and rewinds next's tip to blockNumber's parent (spec §4.8 "undo its
// writes using the history column"). It mutates only next, never c, so
// Revert can discard a partially computed result on error.
func (c *Chain) revertOneBlock(tx kv.Tx, blockNumber uint64, next *tip) error {
	if blockNumber == 0 {
		return fmt.Errorf("chain: cannot revert the genesis block")
	}

	hashBytes, ok, err := tx.Get(kv.Index, common.BE8(blockNumber))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chain: %w: block %d", ErrUnknownBlock, blockNumber)
	}
	blockHash := common.BytesToH(hashBytes)

	rawBytes, ok, err := tx.Get(kv.Block, hashBytes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chain: %w: block %d body", ErrUnknownBlock, blockNumber)
	}
	block, err := decodeL2Block(rawBytes)
	if err != nil {
		return err
	}

	keys, err := state.TouchedKeysInBlock(tx, blockNumber)
	if err != nil {
		return err
	}
	accountStore := smt.NewKVStore(tx, tx, kv.AccountSMTBranch, kv.AccountSMTLeaf)
	accountTree := smt.NewTree(accountStore, next.accountRoot)
	for _, key := range keys {
		prior, _, err := state.ValueBefore(tx, key, blockNumber)
		if err != nil {
			return err
		}
		newRoot, err := accountTree.Update(key, prior)
		if err != nil {
			return fmt.Errorf("chain: undo key %s in block %d: %w", key, blockNumber, err)
		}
		next.accountRoot = newRoot
	}
	countVal, err := accountTree.Get(state.AccountCountKey)
	if err != nil {
		return err
	}
	next.accountCount = common.HToU32(countVal)

	blockStore := smt.NewKVStore(tx, tx, kv.BlockSMTBranch, kv.BlockSMTLeaf)
	blockTree := smt.NewTree(blockStore, next.blockSMTRoot)
	blockKey := genesis.BlockSMTKey(blockNumber)
	newBlockRoot, err := blockTree.Update(blockKey, common.Zero)
	if err != nil {
		return fmt.Errorf("chain: remove block %d from block smt: %w", blockNumber, err)
	}
	next.blockSMTRoot = newBlockRoot

	revertedStore := smt.NewKVStore(tx, tx, kv.RevertedBlockSMTBranch, kv.RevertedBlockSMTLeaf)
	revertedTree := smt.NewTree(revertedStore, next.revertedBlockSMTRoot)
	newRevertedRoot, err := revertedTree.Update(blockKey, blockHash)
	if err != nil {
		return fmt.Errorf("chain: insert reverted block %d: %w", blockNumber, err)
	}
	next.revertedBlockSMTRoot = newRevertedRoot

	next.tipBlockHash = block.Raw.ParentBlockHash
	next.tipBlockNumber = blockNumber - 1
	if next.lastSubmitted >= blockNumber {
		next.lastSubmitted = blockNumber - 1
	}
	if next.lastConfirmed >= blockNumber {
		next.lastConfirmed = blockNumber - 1
	}

	if err := tx.Delete(kv.Index, common.BE8(blockNumber)); err != nil {
		return err
	}
	return tx.Delete(kv.Block, hashBytes)
}

// Confirm advances the last-confirmed tip pointer once the caller's own
// L1 observation confirms blockNumber was included (spec §4.8's three
// tip pointers: SubmitBlock advances the local/last-submitted tip
// together since this rewrite has no separate submission step;
// confirmation is a distinct, later event the caller reports here).
func (c *Chain) Confirm(ctx context.Context, blockNumber uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if blockNumber > c.tipBlockNumber {
		return fmt.Errorf("chain: cannot confirm block %d ahead of local tip %d", blockNumber, c.tipBlockNumber)
	}
	err := c.db.Update(ctx, func(tx kv.Tx) error {
		return tx.Put(kv.Meta, []byte(kv.MetaLastConfirmed), common.BE8(blockNumber))
	})
	if err != nil {
		return err
	}
	c.lastConfirmed = blockNumber
	return nil
}

// Challenge halts the rollup pending resolution of a disputed
// transaction or withdrawal (spec §4.8).
func (c *Chain) Challenge(action ChallengeAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted {
		return nil
	}
	c.halted = true
	c.log.Warn("chain: halted by challenge", "block_hash", action.BlockHash, "target_index", action.TargetIndex, "target_type", action.TargetType)
	return nil
}

// CancelChallenge resumes a halted rollup once its challenge resolves
// in the defender's favor.
func (c *Chain) CancelChallenge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.halted {
		return ErrNotHalted
	}
	c.halted = false
	c.log.Info("chain: challenge cancelled, resuming")
	return nil
}

// Halted reports whether the rollup currently sits halted by an
// unresolved challenge.
func (c *Chain) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}
