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

// EoaType enumerates the externally-owned-account conventions the
// registry knows how to extract an address from.
type EoaType uint8

const (
	EoaUnknown EoaType = iota
	EoaEth
	EoaTron
)

// AllowedTypeHash pairs an EOA lock script's code_hash with the EOA
// convention it follows.
type AllowedTypeHash struct {
	Hash H
	Type EoaType
}

// RegistryContext extracts a RegistryAddress out of a deposit's target
// account script, dispatching on the lock script's code_hash. It is
// configured once at startup (genesis/config) with the set of EOA lock
// scripts the rollup recognizes, then shared read-only by state and
// chain.
type RegistryContext struct {
	allowed []AllowedTypeHash
}

// NewRegistryContext builds a context from the configured allow-list.
func NewRegistryContext(allowed []AllowedTypeHash) *RegistryContext {
	cp := make([]AllowedTypeHash, len(allowed))
	copy(cp, allowed)
	return &RegistryContext{allowed: cp}
}

func (c *RegistryContext) findEoaType(codeHash H) EoaType {
	for _, a := range c.allowed {
		if a.Hash == codeHash {
			return a.Type
		}
	}
	return EoaUnknown
}

// ExtractRegistryAddressFromDeposit extracts the EOA registry address
// carried by a deposit's target account script, per the EOA convention
// registered for that script's code_hash.
func (c *RegistryContext) ExtractRegistryAddressFromDeposit(registryID uint32, script Script) (RegistryAddress, error) {
	switch c.findEoaType(script.CodeHash) {
	case EoaEth:
		addr, err := ExtractEthAddressFromEoaArgs(script.Args)
		if err != nil {
			return RegistryAddress{}, err
		}
		return RegistryAddress{RegistryID: registryID, Address: addr}, nil
	case EoaTron:
		addr, err := ExtractEthAddressFromEoaArgs(script.Args) // Tron EOA args share the 20-byte layout
		if err != nil {
			return RegistryAddress{}, err
		}
		return RegistryAddress{RegistryID: registryID, Address: addr}, nil
	default:
		return RegistryAddress{}, fmt.Errorf("common: unknown eoa code hash %s", script.CodeHash)
	}
}

// ExtractEthAddressFromEoaArgs pulls the 20-byte ETH address out of an
// eth-lock script's args, which are laid out as rollup_type_hash(32) ||
// eth_address(20).
func ExtractEthAddressFromEoaArgs(args []byte) ([]byte, error) {
	const ethAddrLen = 20
	if len(args) < WordSize+ethAddrLen {
		return nil, fmt.Errorf("common: eoa args too short: %d bytes", len(args))
	}
	addr := make([]byte, ethAddrLen)
	copy(addr, args[WordSize:WordSize+ethAddrLen])
	return addr, nil
}
