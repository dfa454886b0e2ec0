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

// Package common holds the wire-level primitives shared by every layer of
// the state engine: the 256-bit word, scripts, and registry addresses.
package common

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"
)

// WordSize is the byte-length of an H value.
const WordSize = 32

// H is a fixed 32-byte word. It is used both as an SMT key and an SMT
// value, as a script/code/tx hash, and as a block hash.
type H [WordSize]byte

// Zero is the empty H, used to mean "absent" in the SMT (update(key, Zero)
// deletes the leaf) and "unset" for optional hash fields.
var Zero H

// IsZero reports whether h is the all-zero word.
func (h H) IsZero() bool { return h == Zero }

// Bytes returns a copy of the underlying bytes.
func (h H) Bytes() []byte {
	b := make([]byte, WordSize)
	copy(b, h[:])
	return b
}

// BytesToH left-pads/truncates b into an H, matching the teacher's
// common.BytesToHash convention: extra bytes are dropped from the front,
// short inputs are right-aligned (low-order bytes).
func BytesToH(b []byte) H {
	var h H
	if len(b) > WordSize {
		b = b[len(b)-WordSize:]
	}
	copy(h[WordSize-len(b):], b)
	return h
}

func (h H) String() string { return "0x" + hex.EncodeToString(h[:]) }

// HexToH parses a 0x-prefixed or bare hex string into an H.
func HexToH(s string) (H, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return H{}, fmt.Errorf("common: invalid hex word %q: %w", s, err)
	}
	return BytesToH(b), nil
}

// Blake2b256 hashes data with blake2b-256, the hash function used
// throughout the SMT and for script/code identities.
func Blake2b256(data ...[]byte) H {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // blake2b.New256 only errors on a bad key, which we never pass
	}
	for _, d := range data {
		hasher.Write(d)
	}
	var out H
	copy(out[:], hasher.Sum(nil))
	return out
}

// --- little-endian pack/unpack helpers into the low bytes of an H,
// named after the rust h256_ext.rs extension trait this is grounded on.

// U32ToH packs a u32 little-endian into the low 4 bytes of an H.
func U32ToH(v uint32) H {
	var h H
	h[0] = byte(v)
	h[1] = byte(v >> 8)
	h[2] = byte(v >> 16)
	h[3] = byte(v >> 24)
	return h
}

// HToU32 unpacks the low 4 bytes of h as a little-endian u32.
func HToU32(h H) uint32 {
	return uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16 | uint32(h[3])<<24
}

// U64ToH packs a u64 little-endian into the low 8 bytes of an H.
func U64ToH(v uint64) H {
	var h H
	for i := 0; i < 8; i++ {
		h[i] = byte(v >> (8 * i))
	}
	return h
}

// HToU64 unpacks the low 8 bytes of h as a little-endian u64.
func HToU64(h H) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(h[i]) << (8 * i)
	}
	return v
}

// U128ToH packs a 128-bit amount (hi:lo, both little-endian within
// themselves) into the low 16 bytes of an H.
func U128ToH(hi, lo uint64) H {
	var h H
	for i := 0; i < 8; i++ {
		h[i] = byte(lo >> (8 * i))
		h[8+i] = byte(hi >> (8 * i))
	}
	return h
}

// HToU128 unpacks the low 16 bytes of h as a little-endian 128-bit amount.
func HToU128(h H) (hi, lo uint64) {
	for i := 0; i < 8; i++ {
		lo |= uint64(h[i]) << (8 * i)
		hi |= uint64(h[8+i]) << (8 * i)
	}
	return hi, lo
}

// U256ToH packs a uint256 little-endian into H.
func U256ToH(v *uint256.Int) H {
	var h H
	b := v.Bytes32() // big-endian
	for i := 0; i < WordSize; i++ {
		h[i] = b[WordSize-1-i]
	}
	return h
}

// HToU256 unpacks H (little-endian) into a uint256.
func HToU256(h H) *uint256.Int {
	var be [WordSize]byte
	for i := 0; i < WordSize; i++ {
		be[i] = h[WordSize-1-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

// BE8 big-endian encodes a u64 block number, used as a KV key prefix so
// numeric ordering matches lexicographic ordering (spec §6).
func BE8(n uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(n >> (8 * i))
	}
	return b
}

// BE4 big-endian encodes a u32.
func BE4(n uint32) []byte {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[3-i] = byte(n >> (8 * i))
	}
	return b
}

// U64FromBE8 decodes an 8-byte big-endian block number, the inverse of
// BE8, used to recover a block number from a history-column key.
func U64FromBE8(b []byte) uint64 {
	var n uint64
	for i := 0; i < 8 && i < len(b); i++ {
		n = n<<8 | uint64(b[i])
	}
	return n
}

// U32FromBE4 decodes a 4-byte big-endian u32, the inverse of BE4.
func U32FromBE4(b []byte) uint32 {
	var n uint32
	for i := 0; i < 4 && i < len(b); i++ {
		n = n<<8 | uint32(b[i])
	}
	return n
}
