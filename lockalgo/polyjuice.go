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

package lockalgo

import (
	"errors"
	"fmt"

	"github.com/godwokenrises/gwchain/common"
)

// SenderRecoverError is the Polyjuice sender-recovery error family, a
// narrower set than the general ErrWrongSignature/ErrInvalidArgs used
// elsewhere in this package: a Polyjuice tx's "sender" is recovered out
// of the Ethereum raw-tx signature embedded in the L2Transaction's
// args, not out of the account's own lock script, so recovery can fail
// in ways specific to that indirection (spec §9 Open Question: "accept
// this narrower subset rather than the full Rust SenderRecoveryError
// enum, since chain/txpool only need to distinguish these outcomes").
// Grounded on crates/polyjuice-sender-recover/src/recover/error.rs's
// PolyjuiceTxSenderRecoverError.
type SenderRecoverError struct {
	Kind SenderRecoverErrorKind
	// RegistryAddress/ScriptHash are populated only for KindDifferentScript.
	RegistryAddress common.RegistryAddress
	ScriptHash      common.H
	// Cause is populated only for KindInvalidSignature.
	Cause error
}

// SenderRecoverErrorKind enumerates the subset of
// PolyjuiceTxSenderRecoverError's variants this rewrite distinguishes:
// ChainId, ToScriptNotFound, InvalidSignature, and DifferentScript (the
// Rust enum's remaining NotPolyjuiceTx/Internal variants collapse into
// ordinary errors elsewhere in the generator's dispatch, since they
// signal "this isn't a Polyjuice tx at all" rather than a recovery
// failure proper).
type SenderRecoverErrorKind int

const (
	KindChainID SenderRecoverErrorKind = iota
	KindToScriptNotFound
	KindInvalidSignature
	KindDifferentScript
)

func (e *SenderRecoverError) Error() string {
	switch e.Kind {
	case KindChainID:
		return "lockalgo: polyjuice sender recovery: mismatch chain id"
	case KindToScriptNotFound:
		return "lockalgo: polyjuice sender recovery: to script not found"
	case KindInvalidSignature:
		return fmt.Sprintf("lockalgo: polyjuice sender recovery: invalid signature: %v", e.Cause)
	case KindDifferentScript:
		return fmt.Sprintf("lockalgo: polyjuice sender recovery: %s is registered to script %s",
			e.RegistryAddress, e.ScriptHash)
	default:
		return "lockalgo: polyjuice sender recovery: unknown error"
	}
}

func (e *SenderRecoverError) Unwrap() error { return e.Cause }

// PolyjuiceEth recovers a Polyjuice tx's sender the way
// crates/polyjuice-sender-recover does: the signature is over the
// embedded Ethereum raw-transaction's signing hash (not the
// L2Transaction's own hash), using the same EIP-191-free, bare-Keccak
// recovery EthSecp256k1 uses. It is not a LockAlgorithm and is not
// registered in Manage: a Polyjuice tx's sender is recovered from its
// raw-tx payload up front, before an account lookup is even possible
// (hence KindToScriptNotFound below — the recovered sender's account
// may not exist yet).
type PolyjuiceEth struct {
	ChainID uint64
}

// RecoverSender recovers the 20-byte Ethereum sender address from
// ethTxSigningHash/signature, checking the embedded chain id against
// p.ChainID first.
func (p PolyjuiceEth) RecoverSender(ethChainID uint64, ethTxSigningHash common.H, signature []byte) ([20]byte, error) {
	if ethChainID != p.ChainID {
		return [20]byte{}, &SenderRecoverError{Kind: KindChainID}
	}
	if len(signature) != 65 {
		return [20]byte{}, &SenderRecoverError{Kind: KindInvalidSignature, Cause: ErrInvalidArgs}
	}
	var sig [65]byte
	copy(sig[:], signature)
	pubkey, err := recoverUncompressedPubkey(ethTxSigningHash, sig)
	if err != nil {
		return [20]byte{}, &SenderRecoverError{Kind: KindInvalidSignature, Cause: err}
	}
	return keccakPubkeyHash160(pubkey), nil
}

// CheckRegisteredScript verifies the recovered sender is registered to
// the expected eth-account-lock script_hash, failing with
// KindDifferentScript if it has already registered under a different
// one (e.g. a rollup replay/impersonation attempt) and KindToScriptNotFound
// if it has no registered script at all.
func CheckRegisteredScript(registered common.H, found bool, addr common.RegistryAddress, expected common.H) error {
	if !found {
		return &SenderRecoverError{Kind: KindToScriptNotFound}
	}
	if registered != expected {
		return &SenderRecoverError{Kind: KindDifferentScript, RegistryAddress: addr, ScriptHash: registered}
	}
	return nil
}

// IsSenderRecoverError reports whether err is (or wraps) a
// *SenderRecoverError, for the generator/txpool to distinguish recovery
// failures from other errors without a type switch at every call site.
func IsSenderRecoverError(err error) bool {
	var e *SenderRecoverError
	return errors.As(err, &e)
}
