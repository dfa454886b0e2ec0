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

package smt

import (
	"fmt"
	"sort"

	"github.com/godwokenrises/gwchain/common"
)

// Proof is a compact merkle proof for a set of keys: only the sibling
// hashes of subtrees that contain none of the queried keys are kept, so
// the proof size is O(depth * |keys|) rather than O(2^depth). It can be
// shipped alongside the touched leaves (current_values) so a verifier
// can recompute the root without holding the rest of the trie — used
// both for on-chain verification and for the mem-pool overlay's kv
// proof (spec §4.2, §9).
type Proof struct {
	// Siblings maps a bit-path prefix (each byte '0' or '1', one per
	// consumed bit) identifying an off-path subtree to that subtree's
	// hash.
	Siblings map[string]common.H
}

// MerkleProof builds a Proof sufficient to recompute the root after
// (or before) updating exactly the given keys.
func (t *Tree) MerkleProof(keys []common.H) (Proof, error) {
	out := map[string]common.H{}
	uniq := dedupe(keys)
	if len(uniq) == 0 {
		return Proof{Siblings: out}, nil
	}
	if err := t.proofAt(t.root, Height, nil, uniq, out); err != nil {
		return Proof{}, err
	}
	return Proof{Siblings: out}, nil
}

func (t *Tree) proofAt(node common.H, height int, prefix []byte, keys []common.H, out map[string]common.H) error {
	if height == 0 {
		return nil
	}
	if node == emptyHashes[height] {
		return nil
	}
	left, right, ok, err := t.store.GetBranch(node)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("smt: %w: branch %s", common.ErrMissingKey, node)
	}
	idx := len(prefix)
	leftKeys, rightKeys := partition(keys, idx)

	leftPrefix := appendBit(prefix, '0')
	if len(leftKeys) == 0 {
		if left != emptyHashes[height-1] {
			out[string(leftPrefix)] = left
		}
	} else if err := t.proofAt(left, height-1, leftPrefix, leftKeys, out); err != nil {
		return err
	}

	rightPrefix := appendBit(prefix, '1')
	if len(rightKeys) == 0 {
		if right != emptyHashes[height-1] {
			out[string(rightPrefix)] = right
		}
	} else if err := t.proofAt(right, height-1, rightPrefix, rightKeys, out); err != nil {
		return err
	}
	return nil
}

// ComputeRoot recomputes a trie root from a Proof plus the current
// values of exactly the keys the proof was built for (spec invariant 4:
// compute_root(merkle_proof(K), current_values(K)) == root).
func ComputeRoot(pairs map[common.H]common.H, proof Proof) (common.H, error) {
	keys := make([]common.H, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return EmptyRoot(), nil
	}
	return computeAt(nil, Height, keys, pairs, proof)
}

func computeAt(prefix []byte, height int, keys []common.H, pairs map[common.H]common.H, proof Proof) (common.H, error) {
	if height == 0 {
		if len(keys) != 1 {
			return common.H{}, fmt.Errorf("smt: %w: expected exactly one key at leaf level, got %d", common.ErrProofMismatch, len(keys))
		}
		v := pairs[keys[0]]
		if v.IsZero() {
			return emptyHashes[0], nil
		}
		return leafHash(keys[0], v), nil
	}
	idx := len(prefix)
	leftKeys, rightKeys := partition(keys, idx)

	left, err := sideRoot(appendBit(prefix, '0'), height-1, leftKeys, pairs, proof)
	if err != nil {
		return common.H{}, err
	}
	right, err := sideRoot(appendBit(prefix, '1'), height-1, rightKeys, pairs, proof)
	if err != nil {
		return common.H{}, err
	}
	if left == emptyHashes[height-1] && right == emptyHashes[height-1] {
		return emptyHashes[height], nil
	}
	return branchHash(left, right), nil
}

func sideRoot(prefix []byte, height int, keys []common.H, pairs map[common.H]common.H, proof Proof) (common.H, error) {
	if len(keys) == 0 {
		if h, ok := proof.Siblings[string(prefix)]; ok {
			return h, nil
		}
		return emptyHashes[height], nil
	}
	return computeAt(prefix, height, keys, pairs, proof)
}

func partition(keys []common.H, bitIdx int) (left, right []common.H) {
	for _, k := range keys {
		if bitSet(k, bitIdx) {
			right = append(right, k)
		} else {
			left = append(left, k)
		}
	}
	return left, right
}

func appendBit(prefix []byte, bit byte) []byte {
	out := make([]byte, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = bit
	return out
}

// EncodeProof flattens a Proof into a byte slice suitable for shipping
// alongside a block or mem-pool package (spec §4.7, §6 "kv state
// proof"). The structured form is what ComputeRoot/MerkleProof operate
// on; this encoding only needs to round-trip through storage or the
// wire, not match any on-chain format. Siblings are visited in sorted
// prefix order so two builds of the same proof encode byte-identically
// (spec invariant 9, determinism).
func EncodeProof(proof Proof) []byte {
	prefixes := make([]string, 0, len(proof.Siblings))
	for prefix := range proof.Siblings {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	buf := make([]byte, 0, len(prefixes)*(common.WordSize+2))
	for _, prefix := range prefixes {
		buf = append(buf, byte(len(prefix)))
		buf = append(buf, prefix...)
		sibling := proof.Siblings[prefix]
		buf = append(buf, sibling[:]...)
	}
	return buf
}

// DecodeProof parses the byte form EncodeProof produces back into a
// Proof.
func DecodeProof(buf []byte) (Proof, error) {
	out := map[string]common.H{}
	for len(buf) > 0 {
		n := int(buf[0])
		buf = buf[1:]
		if len(buf) < n+common.WordSize {
			return Proof{}, fmt.Errorf("smt: %w: truncated proof encoding", common.ErrProofMismatch)
		}
		prefix := string(buf[:n])
		buf = buf[n:]
		var sibling common.H
		copy(sibling[:], buf[:common.WordSize])
		buf = buf[common.WordSize:]
		out[prefix] = sibling
	}
	return Proof{Siblings: out}, nil
}

func dedupe(keys []common.H) []common.H {
	seen := make(map[common.H]struct{}, len(keys))
	out := make([]common.H, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
