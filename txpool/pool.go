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

package txpool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/journal"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
	"github.com/godwokenrises/gwchain/state"
	"github.com/godwokenrises/gwchain/vm"
)

// DefaultMaxPackagedTxs bounds a single `package` call's batch size
// (spec §4.7 "MAX_PACKAGED_TXS").
const DefaultMaxPackagedTxs = 500

// DefaultBatchTxs bounds how many queued pushes the background packager
// coalesces per mutex acquisition (spec §4.7 "BATCH_TXS").
const DefaultBatchTxs = 32

// DefaultRejectedCacheSize bounds the recently-rejected tx hash cache
// (see Pool.rejected): large enough to absorb a client repeatedly
// resubmitting the same already-rejected tx without growing unbounded.
const DefaultRejectedCacheSize = 4096

// Pool is C7's mem-pool actor: a single logical instance guarded by mu
// (spec §5 "single logical mem-pool guarded by an async mutex";
// `sync.Mutex` stands in for the source's async mutex per this
// rewrite's single-threaded-cooperative-per-service model, spec §5).
// mem is rebuilt wholesale on every Refresh and is never touched
// directly by more than one goroutine at a time.
type Pool struct {
	mu sync.Mutex

	confirmed kv.DB
	gen       *generator.Generator
	forks     *config.ForkConfig
	log       Logger

	tipSnapshot kv.ReadView
	tipRoot     common.H
	block       vm.BlockInfo

	mem     *state.MemStateDB
	entries map[uint32]*EntryList
	nextSeq uint64

	maxPackaged int
	batchTxs    int

	// rejected remembers tx hashes pushLocked has already turned away,
	// so a client that keeps resubmitting the same bad tx (e.g. a
	// wallet retrying a stuck nonce) short-circuits before paying for
	// another generator dispatch.
	rejected *lru.Cache[common.H, error]

	incoming chan pushRequest
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

type pushRequest struct {
	tx     generator.L2Transaction
	result chan<- pushResult
}

type pushResult struct {
	hash common.H
	err  error
}

// New builds a Pool over confirmed (the chain's confirmed KV store),
// wired with gen/forks, starting from tipRoot/tipSnapshot/block as the
// confirmed tip. Call Start to launch the background packager goroutine,
// and Close to stop it.
func New(confirmed kv.DB, gen *generator.Generator, forks *config.ForkConfig, tipSnapshot kv.ReadView, tipRoot common.H, block vm.BlockInfo, log Logger) *Pool {
	if log == nil {
		log = noopLogger{}
	}
	rejected, err := lru.New[common.H, error](DefaultRejectedCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size, which DefaultRejectedCacheSize never is
	}
	p := &Pool{
		confirmed:   confirmed,
		gen:         gen,
		forks:       forks,
		log:         log,
		tipSnapshot: tipSnapshot,
		tipRoot:     tipRoot,
		block:       block,
		mem:         state.NewMemStateDB(tipSnapshot, tipRoot),
		entries:     make(map[uint32]*EntryList),
		maxPackaged: DefaultMaxPackagedTxs,
		batchTxs:    DefaultBatchTxs,
		rejected:    rejected,
		incoming:    make(chan pushRequest),
		closeCh:     make(chan struct{}),
	}
	return p
}

// Start launches the background packager task that coalesces incoming
// PushTransaction calls (spec §4.7 "a background packager task batches
// incoming txs from a channel ... to amortise lock cost").
func (p *Pool) Start() {
	p.wg.Add(1)
	go p.runIncoming()
}

// Close stops the background packager and waits for it to drain (spec
// §5 "background tasks listen to a shutdown broadcast; they drain their
// input channel to a configurable limit before exiting").
func (p *Pool) Close() {
	close(p.closeCh)
	p.wg.Wait()
}

func (p *Pool) runIncoming() {
	defer p.wg.Done()
	for {
		batch := make([]pushRequest, 0, p.batchTxs)
		select {
		case req := <-p.incoming:
			batch = append(batch, req)
		case <-p.closeCh:
			p.drainRemaining()
			return
		}
	drain:
		for len(batch) < p.batchTxs {
			select {
			case req := <-p.incoming:
				batch = append(batch, req)
			default:
				break drain
			}
		}
		p.applyBatch(batch)
	}
}

// drainRemaining services any requests still queued when shutdown is
// signalled, rather than leaving callers hanging on an unbuffered send.
func (p *Pool) drainRemaining() {
	for {
		select {
		case req := <-p.incoming:
			p.applyBatch([]pushRequest{req})
		default:
			return
		}
	}
}

func (p *Pool) applyBatch(batch []pushRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, req := range batch {
		hash, err := p.pushLocked(req.tx)
		req.result <- pushResult{hash: hash, err: err}
	}
}

// PushTransaction enqueues tx through the background packager (spec
// §4.7's channel-batched push path). The caller's ctx governs how long
// it waits for a reply; once tx is accepted into the pool its execution
// already ran to completion against the overlay (spec §5 "once accepted
// into the pool it runs to completion").
func (p *Pool) PushTransaction(ctx context.Context, tx generator.L2Transaction) (common.H, error) {
	resultCh := make(chan pushResult, 1)
	select {
	case p.incoming <- pushRequest{tx: tx, result: resultCh}:
	case <-ctx.Done():
		return common.H{}, ctx.Err()
	}
	select {
	case res := <-resultCh:
		return res.hash, res.err
	case <-ctx.Done():
		return common.H{}, ctx.Err()
	}
}

// pushLocked implements spec §4.7's push_transaction, assuming mu is
// already held.
func (p *Pool) pushLocked(tx generator.L2Transaction) (common.H, error) {
	hash := tx.Hash()
	if cached, ok := p.rejected.Get(hash); ok {
		return common.H{}, cached
	}

	if len(tx.Raw.Args) > p.forks.MaxTxSize(p.block.Number) {
		err := fmt.Errorf("txpool: tx exceeds max size")
		p.rejected.Add(hash, err)
		return common.H{}, err
	}

	receipt, err := p.gen.ApplyTransaction(p.mem, p.block, tx)
	if err != nil {
		err = errors.Wrap(err, "txpool: reject tx")
		p.rejected.Add(hash, err)
		return common.H{}, err
	}

	sender := tx.Raw.FromID
	list, ok := p.entries[sender]
	if !ok {
		list = newEntryList()
		p.entries[sender] = list
	}
	p.nextSeq++
	list.txs.ReplaceOrInsert(entry{sender: sender, nonce: tx.Raw.Nonce, seq: p.nextSeq, hash: hash, tx: &tx})
	p.log.Debug("txpool: accepted transaction", "sender", sender, "nonce", tx.Raw.Nonce, "exit_code", receipt.ExitCode)
	return hash, nil
}

// PushWithdrawal enqueues w directly (withdrawals bypass the batched
// channel since they carry no VM dispatch to amortise, spec §4.6's
// withdrawal note).
func (p *Pool) PushWithdrawal(w generator.WithdrawalRequest) (common.H, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	receipt, err := p.gen.ApplyWithdrawal(p.mem, w)
	if err != nil {
		return common.H{}, errors.Wrap(err, "txpool: reject withdrawal")
	}
	ownerID, _, err := p.resolveOwnerID(w)
	if err != nil {
		return common.H{}, err
	}
	list, ok := p.entries[ownerID]
	if !ok {
		list = newEntryList()
		p.entries[ownerID] = list
	}
	hash := w.Hash()
	p.nextSeq++
	list.withdrawals.ReplaceOrInsert(entry{sender: ownerID, nonce: w.Nonce, seq: p.nextSeq, hash: hash, wd: &w})
	p.log.Debug("txpool: accepted withdrawal", "owner", ownerID, "exit_code", receipt.ExitCode)
	return hash, nil
}

func (p *Pool) resolveOwnerID(w generator.WithdrawalRequest) (uint32, common.H, error) {
	scriptHash, ok, err := p.mem.RegistryAddressToScriptHash(w.RegistryAddress)
	if err != nil {
		return 0, common.H{}, err
	}
	if !ok {
		return 0, common.H{}, fmt.Errorf("txpool: no account mapped for withdrawal registry address")
	}
	id, ok, err := p.mem.GetAccountIDByScriptHash(scriptHash)
	if err != nil {
		return 0, common.H{}, err
	}
	if !ok {
		return 0, common.H{}, fmt.Errorf("txpool: no account found for script_hash %s", scriptHash)
	}
	return id, scriptHash, nil
}

// Refresh rebuilds the pool's overlay from a new confirmed tip and
// replays every still-valid entry in nonce order, discarding entries
// whose nonce the new tip already confirmed past or whose execution now
// fails (spec §4.7 "refresh"). It happens-before any subsequent push
// observing the new tip (spec §5), since both share mu.
func (p *Pool) Refresh(tipSnapshot kv.ReadView, tipRoot common.H, block vm.BlockInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tipSnapshot.Close()
	p.tipSnapshot = tipSnapshot
	p.tipRoot = tipRoot
	p.block = block
	p.mem = state.NewMemStateDB(tipSnapshot, tipRoot)

	for sender, list := range p.entries {
		p.replaySender(sender, list)
		if list.empty() {
			delete(p.entries, sender)
		}
	}
}

func (p *Pool) replaySender(sender uint32, list *EntryList) {
	nonce, err := p.mem.GetNonce(sender)
	if err != nil {
		p.log.Warn("txpool: refresh could not read nonce, dropping sender", "sender", sender, "err", err)
		list.removeFromNonce(0)
		return
	}
	list.removeBelow(nonce)

	var toDrop uint32
	dropping := false
	list.txs.Ascend(func(e entry) bool {
		if dropping {
			return true
		}
		if e.nonce != nonce {
			toDrop = e.nonce
			dropping = true
			return true
		}
		if _, err := p.gen.ApplyTransaction(p.mem, p.block, *e.tx); err != nil {
			p.log.Debug("txpool: refresh dropped tx", "sender", sender, "nonce", e.nonce, "err", err)
			toDrop = e.nonce
			dropping = true
			return true
		}
		nonce++
		return true
	})
	if dropping {
		removeFromNonceIn(list.txs, toDrop)
	}
}

// Package drains a bounded, deterministically-ordered batch of pending
// entries into a BlockParam (spec §4.7 "package"). Ordering is FIFO by
// insertion sequence (an explicit Open-Question decision: spec §5 leaves
// the fee/priority policy implementation-defined so long as it is
// deterministic for a given input set); transactions are packaged ahead
// of withdrawals, matching `crates/mem-pool/src/pool.rs`'s own
// transaction-then-withdrawal submission ordering.
func (p *Pool) Package(block vm.BlockInfo) (*BlockParam, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mem = state.NewMemStateDB(p.tipSnapshot, p.tipRoot)
	prevCount, err := p.mem.GetAccountCount()
	if err != nil {
		return nil, err
	}
	prevAccount := genesis.AccountMerkleState{Root: p.mem.CalculateRoot(), Count: prevCount}

	txEntries, wdEntries := p.drainOrdered()

	tracker := journal.NewKeySetTracker()
	p.mem.Journal().SetTracker(tracker)
	defer p.mem.Journal().SetTracker(nil)

	param := &BlockParam{PrevAccount: prevAccount}
	for _, e := range txEntries {
		receipt, err := p.gen.ApplyTransaction(p.mem, block, *e.tx)
		if err != nil {
			p.log.Warn("txpool: package skipped stale tx", "sender", e.tx.Raw.FromID, "nonce", e.nonce, "err", err)
			continue
		}
		param.Transactions = append(param.Transactions, *e.tx)
		param.StateCheckpointList = append(param.StateCheckpointList, journal.Checkpoint(receipt.PostState.Root, receipt.PostState.Count))
	}
	for _, e := range wdEntries {
		receipt, err := p.gen.ApplyWithdrawal(p.mem, *e.wd)
		if err != nil {
			p.log.Warn("txpool: package skipped stale withdrawal", "nonce", e.nonce, "err", err)
			continue
		}
		param.Withdrawals = append(param.Withdrawals, *e.wd)
		param.StateCheckpointList = append(param.StateCheckpointList, journal.Checkpoint(receipt.PostState.Root, receipt.PostState.Count))
	}

	count, err := p.mem.GetAccountCount()
	if err != nil {
		return nil, err
	}
	param.PostAccount = genesis.AccountMerkleState{Root: p.mem.CalculateRoot(), Count: count}

	txHashes := make([]common.H, len(param.Transactions))
	for i, tx := range param.Transactions {
		txHashes[i] = tx.Hash()
	}
	param.TxWitnessRoot = witnessRoot(txHashes)
	wdHashes := make([]common.H, len(param.Withdrawals))
	for i, w := range param.Withdrawals {
		wdHashes[i] = w.Hash()
	}
	param.WithdrawalWitnessRoot = witnessRoot(wdHashes)

	keys := tracker.Keys()
	param.KVProofKeys = keys
	proof, err := p.mem.MerkleProof(keys)
	if err != nil {
		return nil, errors.Wrap(err, "txpool: build kv proof")
	}
	param.KVProof = smt.EncodeProof(proof)

	return param, nil
}

// drainOrdered removes up to maxPackaged tx/withdrawal entries from the
// pool in global FIFO (seq) order, per sender contiguous nonce order
// preserved since each EntryList is itself nonce-sorted.
func (p *Pool) drainOrdered() (txs, withdrawals []entry) {
	var allTxs, allWds []entry
	for _, list := range p.entries {
		list.txs.Ascend(func(e entry) bool { allTxs = append(allTxs, e); return true })
		list.withdrawals.Ascend(func(e entry) bool { allWds = append(allWds, e); return true })
	}
	sort.Slice(allTxs, func(i, j int) bool { return allTxs[i].seq < allTxs[j].seq })
	sort.Slice(allWds, func(i, j int) bool { return allWds[i].seq < allWds[j].seq })

	if len(allTxs) > p.maxPackaged {
		p.log.Info("txpool: package truncated pending transactions", "dropped", len(allTxs)-p.maxPackaged)
		allTxs = allTxs[:p.maxPackaged]
	}
	remaining := p.maxPackaged - len(allTxs)
	if remaining < 0 {
		remaining = 0
	}
	if len(allWds) > remaining {
		p.log.Info("txpool: package truncated pending withdrawals", "dropped", len(allWds)-remaining)
		allWds = allWds[:remaining]
	}

	for _, e := range allTxs {
		p.entries[e.sender].txs.Delete(e)
	}
	for _, e := range allWds {
		p.entries[e.sender].withdrawals.Delete(e)
	}
	return allTxs, allWds
}
