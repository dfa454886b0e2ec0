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
	"fmt"

	"github.com/godwokenrises/gwchain/common"
)

// tronSignedMessagePrefix is Tron's personal_sign-equivalent prefix,
// grounded on tron_signature.rs's verify_message.
const tronSignedMessagePrefix = "\x19TRON Signed Message:\n32"

// TronLockArgsLen matches eth-account-lock's 52-byte layout.
const TronLockArgsLen = 52

// Secp256k1Tron is the Tron personal-sign lock algorithm. It differs
// from EthSecp256k1 only in its message prefix and in rewriting the
// signature's recovery-id byte before recovery: Tron wallets emit 27/28
// rather than CKB's 0/1 convention, so it is normalized first. Grounded
// on gwos/contracts/tron-account-lock/src/tron_signature.rs's
// Secp256k1Tron.
type Secp256k1Tron struct{}

var _ LockAlgorithm = Secp256k1Tron{}

// ExtractTronLockArgs parses a 52-byte tron-account-lock args blob.
func ExtractTronLockArgs(args []byte) (rollupScriptHash common.H, tronAddress [20]byte, err error) {
	if len(args) != TronLockArgsLen {
		return common.H{}, [20]byte{}, fmt.Errorf("%w: tron lock args len %d, want %d", ErrInvalidArgs, len(args), TronLockArgsLen)
	}
	copy(rollupScriptHash[:], args[:32])
	copy(tronAddress[:], args[32:])
	return rollupScriptHash, tronAddress, nil
}

func (Secp256k1Tron) Recover(message common.H, signature []byte) ([]byte, error) {
	if len(signature) != 65 {
		return nil, fmt.Errorf("%w: signature len %d, want 65", ErrInvalidArgs, len(signature))
	}
	var sig [65]byte
	copy(sig[:], signature)
	// rewrite rec_id: Tron wallets sign with v in {27,28}; CKB's
	// recovery convention wants {0,1}.
	if sig[64] == 28 {
		sig[64] = 1
	} else {
		sig[64] = 0
	}
	pubkey, err := recoverUncompressedPubkey(message, sig)
	if err != nil {
		return nil, err
	}
	hash := keccakPubkeyHash160(pubkey)
	return hash[:], nil
}

func (t Secp256k1Tron) verifyMessage(tronAddress [20]byte, signature []byte, message common.H) error {
	signingMessage := keccak256([]byte(tronSignedMessagePrefix), message[:])
	recovered, err := t.Recover(signingMessage, signature)
	if err != nil {
		return err
	}
	if [20]byte(recovered[:20]) != tronAddress {
		return ErrWrongSignature
	}
	return nil
}

func (t Secp256k1Tron) VerifyTx(senderAddress common.RegistryAddress, senderScript, _ common.Script, tx SignedMessage) error {
	_, tronAddress, err := ExtractTronLockArgs(senderScript.Args)
	if err != nil {
		return err
	}
	return t.verifyMessage(tronAddress, tx.Signature, tx.Hash)
}

func (t Secp256k1Tron) VerifyWithdrawal(senderScript common.Script, _ common.RegistryAddress, withdrawal SignedMessage) error {
	_, tronAddress, err := ExtractTronLockArgs(senderScript.Args)
	if err != nil {
		return err
	}
	return t.verifyMessage(tronAddress, withdrawal.Signature, withdrawal.Hash)
}
