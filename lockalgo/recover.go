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

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/godwokenrises/gwchain/common"
)

// recoverUncompressedPubkey recovers the 65-byte uncompressed secp256k1
// pubkey (0x04 ‖ X ‖ Y) a 65-byte Ethereum-style r‖s‖v signature over
// message resolves to, mirroring the secp256k1-utils
// recover_uncompressed_key helper both eth_signature.rs and
// tron_signature.rs call.
func recoverUncompressedPubkey(message common.H, signature [65]byte) ([65]byte, error) {
	v := signature[64]
	if v >= 27 {
		v -= 27
	}
	if v > 3 {
		return [65]byte{}, fmt.Errorf("lockalgo: invalid recovery id %d", signature[64])
	}

	// decred's compact format is recovery_id(biased by 27) ‖ R ‖ S.
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:33], signature[:32])
	copy(compact[33:65], signature[32:64])

	pubkey, _, err := ecdsa.RecoverCompact(compact, message[:])
	if err != nil {
		return [65]byte{}, fmt.Errorf("%w: %v", ErrWrongSignature, err)
	}

	var out [65]byte
	copy(out[:], pubkey.SerializeUncompressed())
	return out, nil
}

// keccakPubkeyHash160 returns the low 20 bytes of keccak256(pubkey[1:]),
// the Ethereum/Tron address derivation from an uncompressed pubkey.
func keccakPubkeyHash160(uncompressedPubkey [65]byte) [20]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressedPubkey[1:])
	sum := h.Sum(nil)
	var out [20]byte
	copy(out[:], sum[12:])
	return out
}

// keccak256 hashes data with Keccak-256 (not the NIST SHA3-256
// variant), matching the sha3::Keccak256 the teacher's lock scripts use.
func keccak256(data ...[]byte) common.H {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.H
	copy(out[:], h.Sum(nil))
	return out
}
