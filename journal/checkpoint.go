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

package journal

import (
	"encoding/binary"

	"github.com/godwokenrises/gwchain/common"
)

// Checkpoint computes blake2b(root ‖ account_count_LE4): the
// state-checkpoint hash chained after every tx in a block (spec §3,
// §4.4, §8 invariant 1). Grounded on
// crates/common/src/merkle_utils.rs's calculate_state_checkpoint.
// state.BlockStateDB.CalculateStateCheckpoint computes the same value
// directly against its own root/count; this copy lets chain and
// generator recompute the formula against an arbitrary (root, count)
// pair (e.g. one read back out of a block header) without needing a
// live State handle.
func Checkpoint(root common.H, accountCount uint32) common.H {
	return common.Blake2b256(root[:], binary.LittleEndian.AppendUint32(nil, accountCount))
}
