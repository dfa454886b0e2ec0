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

package chain

import (
	"fmt"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/genesis"
)

// encodeL2Block flattens an L2Block into the bytes stored under
// kv.Block, field-for-field in the same order RawL2Block.Hash() folds
// them (genesis/types.go) plus the trailing StateCheckpointList and
// BlockProof. Molecule/CKB's on-chain serialization is out of scope for
// this rewrite (same simplification as RawL2Block.Hash() itself); this
// encoding only needs to round-trip through the local store.
func encodeL2Block(b genesis.L2Block) []byte {
	raw := b.Raw
	buf := make([]byte, 0, 256+len(raw.StateCheckpointList)*common.WordSize+len(b.BlockProof))
	buf = append(buf, common.BE8(raw.Number)...)
	buf = append(buf, raw.ParentBlockHash[:]...)
	buf = append(buf, common.BE8(raw.Timestamp)...)
	buf = append(buf, raw.PrevAccount.Root[:]...)
	buf = append(buf, common.BE4(raw.PrevAccount.Count)...)
	buf = append(buf, raw.PostAccount.Root[:]...)
	buf = append(buf, common.BE4(raw.PostAccount.Count)...)
	buf = append(buf, raw.SubmitTransactions.TxWitnessRoot[:]...)
	buf = append(buf, common.BE4(raw.SubmitTransactions.TxCount)...)
	buf = append(buf, raw.SubmitTransactions.PrevStateCheckpoint[:]...)
	buf = append(buf, raw.SubmitWithdrawals.WithdrawalWitnessRoot[:]...)
	buf = append(buf, common.BE4(raw.SubmitWithdrawals.WithdrawalCount)...)
	buf = append(buf, common.BE4(uint32(len(raw.StateCheckpointList)))...)
	for _, cp := range raw.StateCheckpointList {
		buf = append(buf, cp[:]...)
	}
	buf = append(buf, common.BE4(uint32(len(b.BlockProof)))...)
	buf = append(buf, b.BlockProof...)
	return buf
}

// decodeL2Block is encodeL2Block's inverse.
func decodeL2Block(buf []byte) (genesis.L2Block, error) {
	var raw genesis.RawL2Block
	r := byteReader{buf: buf}

	raw.Number = r.u64()
	raw.ParentBlockHash = r.word()
	raw.Timestamp = r.u64()
	raw.PrevAccount.Root = r.word()
	raw.PrevAccount.Count = r.u32()
	raw.PostAccount.Root = r.word()
	raw.PostAccount.Count = r.u32()
	raw.SubmitTransactions.TxWitnessRoot = r.word()
	raw.SubmitTransactions.TxCount = r.u32()
	raw.SubmitTransactions.PrevStateCheckpoint = r.word()
	raw.SubmitWithdrawals.WithdrawalWitnessRoot = r.word()
	raw.SubmitWithdrawals.WithdrawalCount = r.u32()

	checkpointCount := r.u32()
	raw.StateCheckpointList = make([]common.H, checkpointCount)
	for i := range raw.StateCheckpointList {
		raw.StateCheckpointList[i] = r.word()
	}

	proofLen := r.u32()
	proof := r.bytes(int(proofLen))

	if r.err != nil {
		return genesis.L2Block{}, fmt.Errorf("chain: decode l2 block: %w", r.err)
	}
	return genesis.L2Block{Raw: raw, BlockProof: proof}, nil
}

// byteReader is a small sequential-field decoder shared by
// decodeL2Block; once it hits a short read it records err and every
// subsequent call becomes a no-op, so the caller only needs one error
// check at the end.
type byteReader struct {
	buf []byte
	err error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("truncated encoding: need %d bytes, have %d", n, len(r.buf))
		return nil
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out
}

func (r *byteReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return common.U64FromBE8(b)
}

func (r *byteReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return common.U32FromBE4(b)
}

func (r *byteReader) word() common.H {
	b := r.take(common.WordSize)
	var h common.H
	copy(h[:], b)
	return h
}

func (r *byteReader) bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
