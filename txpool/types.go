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

// Package txpool is C7: the mem-pool's pending tx/withdrawal queues,
// overlay state over the confirmed tip, tip-refresh, and block-proposal
// packaging (spec §4.7). Grounded on `crates/mem-pool/src/pool.rs`'s
// `MemPool` actor.
package txpool

import (
	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/generator"
	"github.com/godwokenrises/gwchain/genesis"
)

// Logger is the subset of the teacher's structured-logging convention
// (erigon-lib/log/v3-style `Debug/Info/Warn/Error(msg string, ctx
// ...any)`) the pool needs. Defined locally so txpool has no import-time
// dependency on `log/`'s concrete implementation; `log.Logger`
// satisfies this interface structurally once wired by `cmd/gwchaind`.
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

// BlockParam is `package`'s output (spec §4.7, §6): everything a
// block-producer needs to assemble and sign a `RawL2Block` submission.
type BlockParam struct {
	PrevAccount           genesis.AccountMerkleState
	PostAccount           genesis.AccountMerkleState
	Transactions          []generator.L2Transaction
	Withdrawals           []generator.WithdrawalRequest
	StateCheckpointList   []common.H
	TxWitnessRoot         common.H
	WithdrawalWitnessRoot common.H
	KVProof               []byte
	KVProofKeys           []common.H
}

// witnessRoot folds a list of witness hashes into a single root via
// repeated blake2b pairing, grounded on
// `crates/common/src/merkle_utils.rs`'s `calculate_compacted_tx_root`
// (a plain sequential Merkle fold rather than CKB's full witness-tree
// format — the same byte-compatibility simplification already made in
// `smt/proof.go`/`genesis/types.go`).
func witnessRoot(hashes []common.H) common.H {
	if len(hashes) == 0 {
		return common.Zero
	}
	level := hashes
	for len(level) > 1 {
		next := make([]common.H, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, common.Blake2b256(level[i][:], level[i+1][:]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}
