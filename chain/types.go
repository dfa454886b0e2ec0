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

// Package chain is C8: the rollup state machine driving the confirmed
// tip forward from the four L1 action kinds (spec §4.8) --
// SubmitBlock, Challenge, CancelChallenge, Revert -- on top of C3's
// BlockStateDB, C6's Generator, and C2's SMTs. crates/chain/src/chain.rs
// itself was not retrievable from the source this rewrite is grounded
// on (only crypto.rs/genesis.rs/lib.rs/main.rs/metrics.rs survived
// retrieval); SubmitBlock/Revert's algorithms here follow spec.md §4.8's
// description directly, with genesis.rs's block-SMT insertion pattern
// (already ported into genesis.BuildGenesis) and the teacher's own
// stage/reactor idiom as the structural model.
package chain

import (
	"fmt"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/genesis"
)

// DepositRequest is a single L1 deposit bundled into a SubmitBlock
// action: the target account's script plus the sUDT id/amount to mint
// for it (spec §4.8 step 2). Grounded on
// crates/block-producer/src/deposit.rs's DepositInfo, stripped of the
// CKB cell/script wire format that crate reads straight off L1 -- out
// of scope here, the same simplification already made for RawL2Block
// in genesis/types.go.
type DepositRequest struct {
	Script common.Script
	SudtID uint32
	Amount uint64
}

// TargetType names what a Challenge targets within a block (spec §4.8).
type TargetType uint8

const (
	TargetTransaction TargetType = iota
	TargetWithdrawal
)

func (t TargetType) String() string {
	if t == TargetWithdrawal {
		return "withdrawal"
	}
	return "transaction"
}

// SubmitBlockAction is the first of the four L1 action kinds (spec
// §4.8): an already-decoded block plus its bodies and deposits --
// molecule/CKB witness decoding is out of scope for this rewrite, the
// same simplification genesis/types.go and txpool/types.go already make
// for their own wire shapes.
type SubmitBlockAction struct {
	Block        genesis.RawL2Block
	Transactions []generator.L2Transaction
	Withdrawals  []generator.WithdrawalRequest
	Deposits     []DepositRequest
	Producer     common.RegistryAddress
}

// ChallengeAction halts the rollup pending resolution of a disputed
// transaction or withdrawal within a confirmed block (spec §4.8).
type ChallengeAction struct {
	BlockHash   common.H
	TargetIndex uint32
	TargetType  TargetType
}

// CancelChallengeAction resumes a halted rollup once the challenge is
// resolved in the defender's favor.
type CancelChallengeAction struct{}

// RevertAction undoes a contiguous run of confirmed blocks, e.g.
// because a challenge against one of them succeeded on L1 (spec §4.8).
// RevertedBlocks must be given in descending block-number order (the
// order a real rollup unwinds its tip in) and PostRevertedRoot is the
// reverted-block SMT root the caller expects to hold once every block
// listed has been folded in.
type RevertAction struct {
	RevertedBlocks   []uint64
	PostRevertedRoot common.H
}

// BadBlockError is SubmitBlock's signal that a submitted block failed
// checkpoint verification partway through apply (spec §4.8's
// SyncEvent::BadBlock). The block's speculative writes are never
// committed -- only the reverted-block SMT's record of the bad block is
// -- leaving it to the caller (an on-chain challenge service, out of
// scope per spec's Non-goals) to decide whether to raise a challenge.
type BadBlockError struct {
	BlockNumber uint64
	BlockHash   common.H
	// TxIndex indexes into the combined Transactions‖Withdrawals stream
	// (withdrawals are numbered starting at len(Transactions)).
	TxIndex int
	Reason  error
}

func (e *BadBlockError) Error() string {
	return fmt.Sprintf("chain: bad block %d (%s) at index %d: %v", e.BlockNumber, e.BlockHash, e.TxIndex, e.Reason)
}

func (e *BadBlockError) Unwrap() error { return e.Reason }

// Logger is the subset of the teacher's structured-logging convention
// (erigon-lib/log/v3-style Debug/Info/Warn/Error(msg string, ctx
// ...any)) chain needs. Defined locally, same as txpool.Logger, so
// chain has no import-time dependency on log/'s concrete zap-backed
// implementation.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
