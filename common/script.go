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

package common

import "fmt"

// HashType distinguishes how a Script's code_hash should be interpreted
// when a validator resolves it to executable code.
type HashType uint8

const (
	HashTypeData HashType = iota
	HashTypeType
	HashTypeData1
)

func (t HashType) String() string {
	switch t {
	case HashTypeData:
		return "data"
	case HashTypeType:
		return "type"
	case HashTypeData1:
		return "data1"
	default:
		return fmt.Sprintf("HashType(%d)", uint8(t))
	}
}

// Script identifies either a contract code reference or an account lock
// policy. Its identity, Hash(), is what the SMT stores as the account's
// script_hash.
type Script struct {
	CodeHash H
	HashType HashType
	Args     []byte
}

// Hash computes hash(script) = H, the deterministic identity of a Script.
func (s Script) Hash() H {
	buf := make([]byte, 0, WordSize+1+len(s.Args))
	buf = append(buf, s.CodeHash[:]...)
	buf = append(buf, byte(s.HashType))
	buf = append(buf, s.Args...)
	return Blake2b256(buf)
}

func (s Script) String() string {
	return fmt.Sprintf("Script{code_hash:%s hash_type:%s args:0x%x}", s.CodeHash, s.HashType, s.Args)
}

// RegistryAddress is a chain-agnostic (registry_id, bytes) tuple naming an
// external identity, e.g. an ETH address under the eth registry.
type RegistryAddress struct {
	RegistryID uint32
	Address    []byte
}

// Serialize encodes the address as registry_id:LE4 ‖ len:LE4 ‖ address,
// per spec §3.
func (a RegistryAddress) Serialize() []byte {
	out := make([]byte, 0, 8+len(a.Address))
	out = append(out, le4(a.RegistryID)...)
	out = append(out, le4(uint32(len(a.Address)))...)
	out = append(out, a.Address...)
	return out
}

// Key returns a value suitable for use as a map key for this address.
func (a RegistryAddress) Key() string { return string(a.Serialize()) }

func le4(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// DeserializeRegistryAddress parses the wire encoding produced by Serialize.
func DeserializeRegistryAddress(b []byte) (RegistryAddress, error) {
	if len(b) < 8 {
		return RegistryAddress{}, fmt.Errorf("common: registry address too short: %d bytes", len(b))
	}
	registryID := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	n := uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16 | uint32(b[7])<<24
	if uint32(len(b)-8) != n {
		return RegistryAddress{}, fmt.Errorf("common: registry address length mismatch: want %d have %d", n, len(b)-8)
	}
	addr := make([]byte, n)
	copy(addr, b[8:])
	return RegistryAddress{RegistryID: registryID, Address: addr}, nil
}

func (a RegistryAddress) String() string {
	return fmt.Sprintf("RegistryAddress{registry_id:%d address:0x%x}", a.RegistryID, a.Address)
}
