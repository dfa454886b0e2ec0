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

package generator

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/config"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/journal"
	"github.com/godwokenrises/gwchain/lockalgo"
	"github.com/godwokenrises/gwchain/vm"
)

// ErrChainIDMismatch is returned when a tx's declared chain_id does not
// match RollupConfig.ChainID, once ForkConfig.ChainIDCheckEnforced
// activates (spec §4.6 step 3).
var ErrChainIDMismatch = errors.New("generator: chain id mismatch")

// ErrWriteDataNotAllowed is returned by step 8's anti-abuse check: a
// contract-creation whose code hash is on the sUDT-proxy allowlist, but
// whose creator account is not on the paired creator allowlist.
var ErrWriteDataNotAllowed = errors.New("generator: creator not allowed to deploy this code")

// State is the subset of state.State the generator needs directly; it
// also requires a Journal accessor, which state.BlockStateDB/MemStateDB
// both provide but which the shared State interface (kept VM-agnostic
// in package vm) does not declare.
type State interface {
	vm.State
	GetNonce(id uint32) (uint32, error)
	SetNonce(id uint32, nonce uint32) error
	GetAccountIDByScriptHash(scriptHash common.H) (uint32, bool, error)
	GetScript(scriptHash common.H) (common.Script, bool, error)
	BurnSudt(sudtID uint32, owner common.RegistryAddress, amount *uint256.Int) error
	CalculateRoot() common.H
	CalculateStateCheckpoint() (common.H, error)
	GetAccountCount() (uint32, error)
	Journal() *journal.Journal
}

// Generator is C6: the deterministic per-tx/per-withdrawal executor,
// wired with the lock-algorithm dispatch table (C9), the Vm registry
// (C5), the rollup's chain id, and the fork schedule governing cycle
// limits and the chain-id-check activation (C10). Grounded on
// crates/generator/src/generator.rs's Generator::execute_transaction.
type Generator struct {
	locks   *lockalgo.Manage
	vms     *vm.Registry
	forks   *config.ForkConfig
	chainID uint64

	// WriteDataAllowlist maps a deployed code's data hash to the set of
	// creator account ids permitted to deploy it (spec §4.6 step 8,
	// grounded on crates/generator/src/account_lock_manage's sibling
	// sudt-proxy allowlist check in verification/withdrawal.rs's cousin
	// for tx creation). Nil/empty means no restriction is enforced.
	WriteDataAllowlist map[common.H]map[uint32]struct{}
}

// New builds a Generator wired against locks/vms/forks for a rollup
// running under chainID.
func New(locks *lockalgo.Manage, vms *vm.Registry, forks *config.ForkConfig, chainID uint64) *Generator {
	return &Generator{locks: locks, vms: vms, forks: forks, chainID: chainID}
}

func (g *Generator) resolveSender(st State, fromID uint32) (common.RegistryAddress, common.Script, error) {
	scriptHash, err := st.GetScriptHash(fromID)
	if err != nil {
		return common.RegistryAddress{}, common.Script{}, err
	}
	senderScript, ok, err := st.GetScript(scriptHash)
	if err != nil {
		return common.RegistryAddress{}, common.Script{}, err
	}
	if !ok {
		return common.RegistryAddress{}, common.Script{}, fmt.Errorf("generator: script not found for account %d", fromID)
	}
	senderAddr, ok, err := st.ScriptHashToRegistryAddress(scriptHash)
	if err != nil {
		return common.RegistryAddress{}, common.Script{}, err
	}
	if !ok {
		return common.RegistryAddress{}, common.Script{}, fmt.Errorf("generator: no registry address mapped for account %d", fromID)
	}
	return senderAddr, senderScript, nil
}

// ApplyTransaction runs tx against st under block, returning its
// receipt. Implements spec §4.6's 8-step algorithm: steps 1-3
// (signature, nonce, chain id) run before any state is touched — a
// failure there returns with st completely unmodified. From step 4
// onward the sender's nonce is always bumped, whether execution
// succeeds or the VM reverts (spec §4.6 "the nonce bump itself is never
// undone").
func (g *Generator) ApplyTransaction(st State, block vm.BlockInfo, tx L2Transaction) (*TxReceipt, error) {
	raw := tx.Raw

	// step 1: signature verification.
	senderAddr, senderScript, err := g.resolveSender(st, raw.FromID)
	if err != nil {
		return nil, err
	}
	receiverScriptHash, err := st.GetScriptHash(raw.ToID)
	if err != nil {
		return nil, err
	}
	receiverScript, ok, err := st.GetScript(receiverScriptHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generator: script not found for account %d", raw.ToID)
	}
	algo, ok := g.locks.Get(senderScript.CodeHash)
	if !ok {
		return nil, fmt.Errorf("%w: no lock algorithm registered for code_hash %s", lockalgo.ErrWrongSignature, senderScript.CodeHash)
	}
	txHash := tx.Hash()
	if err := algo.VerifyTx(senderAddr, senderScript, receiverScript, lockalgo.SignedMessage{Hash: txHash, Signature: tx.Signature}); err != nil {
		return nil, err
	}

	// step 2: nonce check.
	nonce, err := st.GetNonce(raw.FromID)
	if err != nil {
		return nil, err
	}
	if nonce != raw.Nonce {
		return nil, &common.NonceError{Expected: nonce, Actual: raw.Nonce}
	}

	// step 3: chain id check.
	if raw.ChainID != g.chainID {
		if raw.ChainID != 0 || g.forks.ChainIDCheckEnforced(block.Number) {
			return nil, ErrChainIDMismatch
		}
	}

	// step 4: journal savepoint.
	snapshot := st.Journal().Snapshot()

	// step 5: VM dispatch, bounded by the fork-active cycle limit.
	result, execErr := g.dispatch(st, block, raw.FromID, raw.ToID, raw.Args)

	// step 6: post-state write. A hard dispatch error (no registered Vm,
	// max-depth, etc) reverts exactly like a nonzero ExitCode; either way
	// the nonce still bumps.
	if execErr != nil || result.ExitCode != 0 {
		if err := st.Journal().RevertTo(snapshot); err != nil {
			return nil, err
		}
	}
	if err := st.SetNonce(raw.FromID, raw.Nonce+1); err != nil {
		return nil, err
	}
	st.Journal().Finalise()

	if execErr != nil {
		return nil, execErr
	}

	// step 8: write-data allowlist anti-abuse check, only meaningful for
	// contract-creation calls (to_id == 0 by convention, meta contract).
	if raw.ToID == config.ReservedAccountID {
		if err := g.checkWriteDataAllowlist(result, raw.FromID); err != nil {
			return nil, err
		}
	}

	// step 7: receipt assembly.
	count, err := st.GetAccountCount()
	if err != nil {
		return nil, err
	}
	receipt := &TxReceipt{
		TxWitnessHash: txHash,
		ExitCode:      result.ExitCode,
		PostState:     genesis.AccountMerkleState{Root: st.CalculateRoot(), Count: count},
		Logs:          result.Logs,
	}
	for h := range result.ReadDataHashes {
		receipt.ReadDataHashes = append(receipt.ReadDataHashes, h)
	}
	return receipt, nil
}

// ApplyWithdrawal runs w against st with the nonce and signature checks
// of ApplyTransaction (nonce first, then signature) and no VM dispatch
// step: a withdrawal only ever burns sUDT/CKB from the owner's balance
// (spec §4.6 "withdrawals skip step 5 entirely"). w.ChainID is not
// checked.
func (g *Generator) ApplyWithdrawal(st State, w WithdrawalRequest) (*TxReceipt, error) {
	ownerScriptHash, ok, err := st.RegistryAddressToScriptHash(w.RegistryAddress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generator: no account mapped for withdrawal registry address")
	}
	ownerID, ok, err := st.GetAccountIDByScriptHash(ownerScriptHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generator: no account found for withdrawal script_hash")
	}
	ownerScript, ok, err := st.GetScript(ownerScriptHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generator: script not found for withdrawing account %d", ownerID)
	}
	algo, ok := g.locks.Get(ownerScript.CodeHash)
	if !ok {
		return nil, fmt.Errorf("%w: no lock algorithm registered for code_hash %s", lockalgo.ErrWrongSignature, ownerScript.CodeHash)
	}

	nonce, err := st.GetNonce(ownerID)
	if err != nil {
		return nil, err
	}
	if nonce != w.Nonce {
		return nil, &common.NonceError{Expected: nonce, Actual: w.Nonce}
	}

	wHash := w.Hash()
	if err := algo.VerifyWithdrawal(ownerScript, w.RegistryAddress, lockalgo.SignedMessage{Hash: wHash, Signature: w.Signature}); err != nil {
		return nil, err
	}

	snapshot := st.Journal().Snapshot()
	burnErr := st.BurnSudt(config.CKBSudtAccountID, w.RegistryAddress, amountToUint256(w.Amount))
	if burnErr != nil {
		if err := st.Journal().RevertTo(snapshot); err != nil {
			return nil, err
		}
	}
	if err := st.SetNonce(ownerID, w.Nonce+1); err != nil {
		return nil, err
	}
	st.Journal().Finalise()
	if burnErr != nil {
		return nil, burnErr
	}

	count, err := st.GetAccountCount()
	if err != nil {
		return nil, err
	}
	exitCode := int8(0)
	return &TxReceipt{
		TxWitnessHash: wHash,
		ExitCode:      exitCode,
		PostState:     genesis.AccountMerkleState{Root: st.CalculateRoot(), Count: count},
	}, nil
}

func (g *Generator) dispatch(st State, block vm.BlockInfo, fromID, toID uint32, args []byte) (*vm.RunResult, error) {
	scriptHash, err := st.GetScriptHash(toID)
	if err != nil {
		return nil, err
	}
	backend, ok := g.vms.Lookup(scriptHash)
	if !ok {
		return nil, fmt.Errorf("generator: no vm backend registered for script_hash %s", scriptHash)
	}
	ctx := vm.CallContext{
		FromID:    fromID,
		ToID:      toID,
		Args:      args,
		Depth:     0,
		MaxDepth:  64,
		MaxCycles: g.forks.MaxL2TxCycles(block.Number),
	}
	syscalls := vm.NewHostSyscalls(st, g.vms, ctx, block)
	return backend.Execute(ctx, block, syscalls)
}

func (g *Generator) checkWriteDataAllowlist(result *vm.RunResult, creatorID uint32) error {
	if len(g.WriteDataAllowlist) == 0 {
		return nil
	}
	for codeHash := range result.WriteDataHashes {
		allowed, restricted := g.WriteDataAllowlist[codeHash]
		if !restricted {
			continue
		}
		if _, ok := allowed[creatorID]; !ok {
			return ErrWriteDataNotAllowed
		}
	}
	return nil
}
