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

import "github.com/godwokenrises/gwchain/common"

// AlwaysSuccess accepts every signature unconditionally. It exists
// purely for tests and devnets (register it under a dedicated
// code_hash, never the production eth/tron lock code hashes).
// Grounded on
// crates/generator/src/account_lock_manage/always_success.rs, whose own
// doc comment restricts it the same way ("never in production").
type AlwaysSuccess struct{}

var _ LockAlgorithm = AlwaysSuccess{}

func (AlwaysSuccess) Recover(common.H, []byte) ([]byte, error) { return nil, nil }
func (AlwaysSuccess) VerifyTx(common.RegistryAddress, common.Script, common.Script, SignedMessage) error {
	return nil
}
func (AlwaysSuccess) VerifyWithdrawal(common.Script, common.RegistryAddress, SignedMessage) error {
	return nil
}
