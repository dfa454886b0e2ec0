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

// ethSignedMessagePrefix is EIP-191's personal_sign prefix for a
// 32-byte payload, grounded on eth_signature.rs's verify_message.
const ethSignedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// EthLockArgsLen is the expected eth-account-lock script args length:
// rollup_script_hash(32) ‖ eth_address(20).
const EthLockArgsLen = 52

// EthSecp256k1 is the ETH personal-sign lock algorithm: recover a
// secp256k1 signature over EIP-191("\x19Ethereum Signed
// Message:\n32" ‖ message), hash the recovered pubkey with Keccak-256,
// and compare its low 20 bytes against the lock script's embedded
// address. Grounded on
// gwos/contracts/eth-account-lock/src/eth_signature.rs's Secp256k1Eth.
type EthSecp256k1 struct{}

var _ LockAlgorithm = EthSecp256k1{}

// ExtractEthLockArgs parses a 52-byte eth-account-lock args blob into
// its rollup_script_hash and eth_address components.
func ExtractEthLockArgs(args []byte) (rollupScriptHash common.H, ethAddress [20]byte, err error) {
	if len(args) != EthLockArgsLen {
		return common.H{}, [20]byte{}, fmt.Errorf("%w: eth lock args len %d, want %d", ErrInvalidArgs, len(args), EthLockArgsLen)
	}
	copy(rollupScriptHash[:], args[:32])
	copy(ethAddress[:], args[32:])
	return rollupScriptHash, ethAddress, nil
}

func (EthSecp256k1) Recover(message common.H, signature []byte) ([]byte, error) {
	if len(signature) != 65 {
		return nil, fmt.Errorf("%w: signature len %d, want 65", ErrInvalidArgs, len(signature))
	}
	var sig [65]byte
	copy(sig[:], signature)
	pubkey, err := recoverUncompressedPubkey(message, sig)
	if err != nil {
		return nil, err
	}
	hash := keccakPubkeyHash160(pubkey)
	return hash[:], nil
}

func (e EthSecp256k1) verifyMessage(ethAddress [20]byte, signature []byte, message common.H) error {
	signingMessage := keccak256([]byte(ethSignedMessagePrefix), message[:])
	recovered, err := e.Recover(signingMessage, signature)
	if err != nil {
		return err
	}
	if [20]byte(recovered[:20]) != ethAddress {
		return ErrWrongSignature
	}
	return nil
}

func (e EthSecp256k1) VerifyTx(senderAddress common.RegistryAddress, senderScript, _ common.Script, tx SignedMessage) error {
	_, ethAddress, err := ExtractEthLockArgs(senderScript.Args)
	if err != nil {
		return err
	}
	return e.verifyMessage(ethAddress, tx.Signature, tx.Hash)
}

func (e EthSecp256k1) VerifyWithdrawal(senderScript common.Script, _ common.RegistryAddress, withdrawal SignedMessage) error {
	_, ethAddress, err := ExtractEthLockArgs(senderScript.Args)
	if err != nil {
		return err
	}
	return e.verifyMessage(ethAddress, withdrawal.Signature, withdrawal.Hash)
}
