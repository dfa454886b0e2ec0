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

import "fmt"

// ChainIDVerifier rejects any EIP-712-style signature produced for a
// different chain id than this rollup's own. The Generator does not call
// it; ApplyTransaction makes its own chain-id comparison.
// Grounded on crates/generator/src/verification/chain_id.rs.
type ChainIDVerifier struct {
	chainID uint64
}

// NewChainIDVerifier builds a verifier pinned to chainID.
func NewChainIDVerifier(chainID uint64) ChainIDVerifier {
	return ChainIDVerifier{chainID: chainID}
}

// Verify returns an error if chainID does not match the pinned value.
func (v ChainIDVerifier) Verify(chainID uint64) error {
	if v.chainID != chainID {
		return fmt.Errorf("%w: wrong chain_id, expected %d actual %d", ErrWrongSignature, v.chainID, chainID)
	}
	return nil
}
