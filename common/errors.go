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

import (
	"errors"
	"fmt"
)

// Error kinds shared across layers, per spec §7. Errors that carry
// structured fields wrap one of these sentinels with errors.Is-compatible
// chains where useful.
var (
	ErrSmtStore       = errors.New("gwchain: smt store error")
	ErrMissingKey     = errors.New("gwchain: missing key")
	ErrCorruptedLeaf  = errors.New("gwchain: corrupted smt leaf")
	ErrProofMismatch  = errors.New("gwchain: smt proof mismatch")
	ErrAmountOverflow = errors.New("gwchain: amount overflow")
	ErrInsufficientBalance = errors.New("gwchain: insufficient balance")
	ErrDuplicatedScriptHash     = errors.New("gwchain: duplicated script hash")
	ErrDuplicatedRegistryAddress = errors.New("gwchain: duplicated registry address")
	ErrNotFinalized  = errors.New("gwchain: not finalized")
	ErrIndexOutOfBound = errors.New("gwchain: index out of bound")
)

// NonceError is raised when a tx's declared nonce does not match the
// sender's current nonce.
type NonceError struct {
	Expected, Actual uint32
}

func (e *NonceError) Error() string {
	return fmt.Sprintf("gwchain: nonce mismatch: expected %d, actual %d", e.Expected, e.Actual)
}
