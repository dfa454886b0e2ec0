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

package state

import (
	"encoding/binary"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/smt"
)

// KVStateProof is a self-contained, detached view of a set of SMT slots
// plus the proof needed to recompute the root they imply, without
// holding the rest of the trie. Grounded on
// contracts/validator-utils/src/kv_state.rs's KVState: both chain (to
// verify a SubmitBlock's claimed touched-key set matches its post
// state) and txpool.Pool.Package (to ship a proof of exactly the keys
// it touched, spec §4.7) produce or consume one of these.
type KVStateProof struct {
	Pairs        map[common.H]common.H
	Proof        smt.Proof
	AccountCount uint32
}

// DecodeKVStateProof reconstructs a KVStateProof from the wire form
// txpool/genesis ship: a key->value map already known to the caller
// (e.g. read back off the submitted transactions/withdrawals) plus the
// encoded smt.Proof bytes.
func DecodeKVStateProof(pairs map[common.H]common.H, proofBytes []byte, accountCount uint32) (KVStateProof, error) {
	proof, err := smt.DecodeProof(proofBytes)
	if err != nil {
		return KVStateProof{}, err
	}
	return KVStateProof{Pairs: pairs, Proof: proof, AccountCount: accountCount}, nil
}

// CalculateRoot recomputes the account SMT root implied by s's pairs
// and proof (spec invariant 4: compute_root(merkle_proof(K),
// current_values(K)) == root), without needing the full trie.
func (s KVStateProof) CalculateRoot() (common.H, error) {
	return smt.ComputeRoot(s.Pairs, s.Proof)
}

// CalculateStateCheckpoint mirrors base.CalculateStateCheckpoint's
// blake2b(root ‖ LE4(account_count)) derivation (spec §3), but over the
// detached proof rather than a live tree.
func (s KVStateProof) CalculateStateCheckpoint() (common.H, error) {
	root, err := s.CalculateRoot()
	if err != nil {
		return common.H{}, err
	}
	return common.Blake2b256(root[:], binary.LittleEndian.AppendUint32(nil, s.AccountCount)), nil
}
