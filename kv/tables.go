// Copyright 2021 The Erigon Authors
// (original work)
// Copyright 2024 The Gwchain Authors
// (modifications: column set re-scoped to the Gwchain state engine)
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

package kv

// DBSchemaVersion is bumped whenever the column layout below changes in
// a way that requires a migration.
var DBSchemaVersion = struct{ Major, Minor, Patch uint32 }{Major: 1, Minor: 0, Patch: 0}

// Column names. Naming and key/value schema comments follow spec §6
// "Persisted state layout".
const (
	// Meta holds named scalar keys: tip_block_hash, last_confirmed,
	// last_submitted, block_smt_root, reverted_block_smt_root,
	// account_smt_root, account_count, chain_id.
	Meta = "Meta"

	// Block: block_hash -> L2Block bytes (encoded).
	Block = "Block"

	// Index: BE8(block_number) -> block_hash. Big-endian block numbers
	// so numeric ordering == lexicographic ordering, required by the
	// history seek-for-prev lookup and by Backward iteration.
	Index = "Index"

	// BlockSubmitTx: BE8(block_number) -> L1 submission tx bytes.
	BlockSubmitTx = "BlockSubmitTx"

	// AccountSMTBranch / AccountSMTLeaf: SMT node storage for the
	// account state tree (C2 over C1).
	AccountSMTBranch = "AccountSMTBranch"
	AccountSMTLeaf   = "AccountSMTLeaf"

	// RevertedBlockSMTBranch / RevertedBlockSMTLeaf: the second SMT
	// recording hashes of blocks applied then invalidated.
	RevertedBlockSMTBranch = "RevertedBlockSMTBranch"
	RevertedBlockSMTLeaf   = "RevertedBlockSMTLeaf"

	// BlockSMTBranch / BlockSMTLeaf: the SMT of all confirmed block
	// hashes, keyed by block number.
	BlockSMTBranch = "BlockSMTBranch"
	BlockSMTLeaf   = "BlockSMTLeaf"

	// BlockStateRecord (forward history index):
	//   BE8(block_number) ‖ key -> value_after
	BlockStateRecord = "BlockStateRecord"

	// BlockStateReverse (reverse history index):
	//   key ‖ BE8(block_number) -> ∅
	// Used with SeekForPrev to answer "what was key's value as of
	// block N" in one seek (spec §4.1).
	BlockStateReverse = "BlockStateReverse"

	// Script: script_hash -> Script bytes.
	Script = "Script"

	// Data: data_hash -> code bytes (the code store, spec §4.3).
	Data = "Data"

	// TxIndex: tx_hash -> (block_hash, BE4(tx_index)).
	TxIndex = "TxIndex"

	// RegistryAddressData: blake2b(serialized address) -> serialized
	// RegistryAddress bytes. Supplements spec §6's persisted layout so
	// the script_hash -> registry_address inverse map (a variable-length
	// value) can be addressed by hash from the SMT, the same way Script
	// and Data are.
	RegistryAddressData = "RegistryAddressData"
)

// AllTables lists every column the KV engine must create at open time.
var AllTables = []string{
	Meta,
	Block,
	Index,
	BlockSubmitTx,
	AccountSMTBranch,
	AccountSMTLeaf,
	RevertedBlockSMTBranch,
	RevertedBlockSMTLeaf,
	BlockSMTBranch,
	BlockSMTLeaf,
	BlockStateRecord,
	BlockStateReverse,
	Script,
	Data,
	TxIndex,
	RegistryAddressData,
}

// Meta key names (values stored under the Meta column).
const (
	MetaTipBlockHash          = "tip_block_hash"
	MetaLastConfirmed         = "last_confirmed"
	MetaLastSubmitted         = "last_submitted"
	MetaBlockSMTRoot          = "block_smt_root"
	MetaRevertedBlockSMTRoot  = "reverted_block_smt_root"
	MetaAccountSMTRoot        = "account_smt_root"
	MetaAccountCount          = "account_count"
	MetaChainID               = "chain_id"
)
