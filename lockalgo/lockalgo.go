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

// Package lockalgo is the per-account signature scheme dispatch table
// (spec §4.6 step 1, §9 "dynamic dispatch across LockAlgorithms by
// code_hash"), grounded on
// crates/generator/src/account_lock_manage/mod.rs's LockAlgorithm trait
// and AccountLockManage registry.
package lockalgo

import (
	"errors"

	"github.com/godwokenrises/gwchain/common"
)

// LockAlgorithm verifies a transaction or withdrawal's signature against
// a sender's lock script, and can recover a signer's raw pubkey/address
// bytes from a (message, signature) pair. One instance is registered per
// lock code_hash (spec §9), mirroring the Rust trait's recover/verify_tx
// /verify_withdrawal methods one-for-one.
type LockAlgorithm interface {
	// Recover returns the raw signer identity bytes (e.g. a 20-byte
	// Keccak pubkey-hash for the ETH/Tron schemes) a signature over
	// message resolves to, without reference to any particular account.
	Recover(message common.H, signature []byte) ([]byte, error)

	// VerifyTx checks tx's signature against senderScript's lock args,
	// after the caller has already resolved senderAddress/receiverScript
	// (spec §4.6 step 1).
	VerifyTx(senderAddress common.RegistryAddress, senderScript, receiverScript common.Script, tx SignedMessage) error

	// VerifyWithdrawal checks a withdrawal request's signature the same
	// way VerifyTx checks a transaction's.
	VerifyWithdrawal(senderScript common.Script, withdrawalAddress common.RegistryAddress, withdrawal SignedMessage) error
}

// SignedMessage is the minimal shape VerifyTx/VerifyWithdrawal need: the
// signing payload's hash and the raw signature bytes over it. Generator
// builds this from the L2Transaction/WithdrawalRequest it is validating.
type SignedMessage struct {
	Hash      common.H
	Signature []byte
}

var (
	// ErrWrongSignature is returned when a signature fails to verify or
	// recovers to an identity other than the expected one.
	ErrWrongSignature = errors.New("lockalgo: wrong signature")
	// ErrInvalidArgs is returned for malformed lock args (wrong length,
	// bad registry id, etc).
	ErrInvalidArgs = errors.New("lockalgo: invalid lock args")
)

// Manage is the code_hash -> LockAlgorithm registry the Generator
// dispatches through, grounded on AccountLockManage.
type Manage struct {
	algos map[common.H]LockAlgorithm
}

// NewManage builds an empty registry.
func NewManage() *Manage { return &Manage{algos: make(map[common.H]LockAlgorithm)} }

// Register associates codeHash with algo, overwriting any prior entry.
func (m *Manage) Register(codeHash common.H, algo LockAlgorithm) { m.algos[codeHash] = algo }

// Get returns the LockAlgorithm registered for codeHash, if any.
func (m *Manage) Get(codeHash common.H) (LockAlgorithm, bool) {
	a, ok := m.algos[codeHash]
	return a, ok
}
