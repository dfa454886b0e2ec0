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

import "errors"

var (
	// ErrParentMismatch is SubmitBlock's rejection of a block whose
	// parent_block_hash does not match the local tip (spec §4.8 step 1).
	ErrParentMismatch = errors.New("chain: parent_block_hash does not match local tip")

	// ErrHalted is returned by SubmitBlock while the rollup sits
	// halted by an unresolved Challenge.
	ErrHalted = errors.New("chain: rollup halted pending challenge resolution")

	// ErrNotHalted is CancelChallenge's rejection when the rollup is not
	// currently halted.
	ErrNotHalted = errors.New("chain: cancel_challenge received while rollup is running")

	// ErrUnknownBlock is returned when a revert names a block number the
	// confirmed chain has no record of.
	ErrUnknownBlock = errors.New("chain: unknown block")

	// ErrRevertOrderInvalid is Revert's rejection of a RevertedBlocks
	// list not given in strictly descending order (spec §4.8 "walk
	// descending block order").
	ErrRevertOrderInvalid = errors.New("chain: reverted_blocks must be strictly descending")

	// ErrRevertRootMismatch is Revert's rejection when the
	// reverted-block SMT root computed after folding in every reverted
	// block does not match the caller's claimed PostRevertedRoot.
	ErrRevertRootMismatch = errors.New("chain: post_reverted_block_smt_root mismatch")

	// ErrRevertInProgress is returned by Revert when any block it names
	// is still being applied by a concurrent SubmitBlock call -- the
	// open question SPEC_FULL.md §5 resolves in favor of rejecting the
	// overlapping revert outright rather than blocking, leaving the
	// caller to reissue it once that SubmitBlock completes.
	ErrRevertInProgress = errors.New("chain: a block in the revert range is still being applied, reissue after it completes")

	// ErrCheckpointMismatch is SubmitBlock's per-tx/withdrawal
	// verification failure: the state checkpoint computed after
	// applying entry i does not match block.state_checkpoint_list[i]
	// (spec §4.8, wrapped by BadBlockError.Reason).
	ErrCheckpointMismatch = errors.New("chain: state checkpoint mismatch")

	// ErrGenesisAlreadyInitialized guards InitGenesis against being run
	// twice against the same store.
	ErrGenesisAlreadyInitialized = errors.New("chain: genesis already initialized")
)
