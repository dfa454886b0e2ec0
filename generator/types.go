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

// Package generator is C6: the deterministic transaction/withdrawal
// executor (spec §4.6). It is the seam between C3/C4 (state + journal)
// and C5 (the opaque Vm) and the lockalgo/fork-config inputs, applying the 8-step algorithm spec §4.6 lays out.
package generator

import (
	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/genesis"
	"github.com/godwokenrises/gwchain/vm"
)

// RawL2Transaction is an L2Transaction's signed payload (spec §3's
// RawL2Block references "transactions"; this is their per-tx shape).
type RawL2Transaction struct {
	ChainID uint64
	FromID  uint32
	ToID    uint32
	Nonce   uint32
	Args    []byte
}

// L2Transaction pairs a RawL2Transaction with its signature.
type L2Transaction struct {
	Raw       RawL2Transaction
	Signature []byte
}

// Hash is the tx's witness hash, fed to LockAlgorithm.VerifyTx and
// recorded on the receipt as TxWitnessHash.
func (tx L2Transaction) Hash() common.H {
	buf := make([]byte, 0, 8+4+4+4+len(tx.Raw.Args))
	buf = append(buf, common.BE8(tx.Raw.ChainID)...)
	buf = append(buf, common.BE4(tx.Raw.FromID)...)
	buf = append(buf, common.BE4(tx.Raw.ToID)...)
	buf = append(buf, common.BE4(tx.Raw.Nonce)...)
	buf = append(buf, tx.Raw.Args...)
	return common.Blake2b256(buf)
}

// WithdrawalRequest is the withdrawal analogue of L2Transaction (spec
// §4.6 "applies a single L2Transaction or WithdrawalRequest").
type WithdrawalRequest struct {
	ChainID          uint64
	Nonce            uint32
	CapacityCKB      uint64
	SudtScriptHash   common.H
	Amount           uint64
	OwnerLockHash    common.H
	RegistryAddress  common.RegistryAddress
	Signature        []byte
}

// Hash is the withdrawal's witness hash.
func (w WithdrawalRequest) Hash() common.H {
	buf := make([]byte, 0, 8+4+8+32+8+32)
	buf = append(buf, common.BE8(w.ChainID)...)
	buf = append(buf, common.BE4(w.Nonce)...)
	buf = append(buf, common.BE8(w.CapacityCKB)...)
	buf = append(buf, w.SudtScriptHash[:]...)
	buf = append(buf, common.BE8(w.Amount)...)
	buf = append(buf, w.OwnerLockHash[:]...)
	buf = append(buf, w.RegistryAddress.Serialize()...)
	return common.Blake2b256(buf)
}

// TxReceipt is C6's per-tx output (spec §3).
type TxReceipt struct {
	TxWitnessHash  common.H
	ExitCode       int8
	PostState      genesis.AccountMerkleState
	ReadDataHashes []common.H
	Logs           []vm.Log
}
