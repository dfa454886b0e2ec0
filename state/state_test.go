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
	"context"
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/godwokenrises/gwchain/common"
	"github.com/godwokenrises/gwchain/kv"
	"github.com/godwokenrises/gwchain/smt"
)

func newBlockStateDB(t *testing.T) (*BlockStateDB, *kv.MemDB) {
	t.Helper()
	db := kv.NewMemDB(kv.AllTables)
	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	return NewBlockStateDB(tx, smt.EmptyRoot(), 1), db
}

func ethAddr(b byte) common.RegistryAddress {
	addr := make([]byte, 20)
	addr[19] = b
	return common.RegistryAddress{RegistryID: 2, Address: addr}
}

func TestCreateAccountFromScriptAssignsSequentialIDs(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	s1 := common.Script{CodeHash: common.U32ToH(1), HashType: common.HashTypeType, Args: []byte("alice")}
	s2 := common.Script{CodeHash: common.U32ToH(1), HashType: common.HashTypeType, Args: []byte("bob")}

	id1, err := sdb.CreateAccountFromScript(s1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), id1)

	id2, err := sdb.CreateAccountFromScript(s2)
	require.NoError(t, err)
	require.Equal(t, uint32(1), id2)

	count, err := sdb.GetAccountCount()
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	h, err := sdb.GetScriptHash(id1)
	require.NoError(t, err)
	require.Equal(t, s1.Hash(), h)

	got, ok, err := sdb.GetScript(h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s1, got)

	gotID, ok, err := sdb.GetAccountIDByScriptHash(s2.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id2, gotID)
}

func TestCreateAccountFromScriptRejectsDuplicate(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	s := common.Script{CodeHash: common.U32ToH(1), HashType: common.HashTypeType, Args: []byte("alice")}
	_, err := sdb.CreateAccountFromScript(s)
	require.NoError(t, err)
	_, err = sdb.CreateAccountFromScript(s)
	require.ErrorIs(t, err, common.ErrDuplicatedScriptHash)
}

func TestNonceRoundTrip(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	require.NoError(t, sdb.SetNonce(3, 42))
	n, err := sdb.GetNonce(3)
	require.NoError(t, err)
	require.Equal(t, uint32(42), n)
}

func TestSudtMintBurnTransfer(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	const sudtID = 1
	alice, bob := ethAddr(1), ethAddr(2)

	require.NoError(t, sdb.MintSudt(sudtID, alice, uint256.NewInt(100)))
	bal, err := sdb.GetSudtBalance(sudtID, alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), bal)

	require.NoError(t, sdb.TransferSudt(sudtID, alice, bob, uint256.NewInt(30)))
	aliceBal, err := sdb.GetSudtBalance(sudtID, alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(70), aliceBal)
	bobBal, err := sdb.GetSudtBalance(sudtID, bob)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(30), bobBal)

	err = sdb.TransferSudt(sudtID, alice, bob, uint256.NewInt(1000))
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	require.NoError(t, sdb.BurnSudt(sudtID, bob, uint256.NewInt(30)))
	bobBal, err = sdb.GetSudtBalance(sudtID, bob)
	require.NoError(t, err)
	require.True(t, bobBal.IsZero())
}

func TestRegistryAddressBijection(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	addr := ethAddr(7)
	scriptHash := common.U32ToH(99)

	require.NoError(t, sdb.MapRegistryAddress(addr, scriptHash))

	gotHash, ok, err := sdb.RegistryAddressToScriptHash(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, scriptHash, gotHash)

	gotAddr, ok, err := sdb.ScriptHashToRegistryAddress(scriptHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr, gotAddr)

	err = sdb.MapRegistryAddress(addr, common.U32ToH(123))
	require.ErrorIs(t, err, common.ErrDuplicatedRegistryAddress)
}

func TestCodeStoreRoundTrip(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	code := []byte{0x60, 0x00, 0x60, 0x00}
	dataHash, err := sdb.SetCode(5, code)
	require.NoError(t, err)

	gotHash, err := sdb.GetCodeHash(5)
	require.NoError(t, err)
	require.Equal(t, dataHash, gotHash)

	got, ok, err := sdb.GetCode(dataHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, code, got)
}

func TestStorageAndCheckpoint(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	slot := common.U32ToH(1)
	require.NoError(t, sdb.SetStorage(4, slot, common.U32ToH(777)))
	v, err := sdb.GetStorage(4, slot)
	require.NoError(t, err)
	require.Equal(t, common.U32ToH(777), v)

	checkpoint, err := sdb.CalculateStateCheckpoint()
	require.NoError(t, err)
	count, err := sdb.GetAccountCount()
	require.NoError(t, err)
	root := sdb.CalculateRoot()
	require.Equal(t, common.Blake2b256(root[:], binary.LittleEndian.AppendUint32(nil, count)), checkpoint)
}

func TestBlockStateDBRecordsHistory(t *testing.T) {
	sdb, _ := newBlockStateDB(t)
	require.NoError(t, sdb.SetNonce(1, 10))

	key := NonceKey(1)
	forwardKey := append(common.BE8(1), key[:]...)
	val, ok, err := sdb.tx.Get(kv.BlockStateRecord, forwardKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, common.U32ToH(10), common.BytesToH(val))

	reverseKey := append(append([]byte(nil), key[:]...), common.BE8(1)...)
	_, ok, err = sdb.tx.Get(kv.BlockStateReverse, reverseKey)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemStateDBOverlaysConfirmedTipWithoutMutatingIt(t *testing.T) {
	db := kv.NewMemDB(kv.AllTables)
	ctx := context.Background()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	confirmed := NewBlockStateDB(tx, smt.EmptyRoot(), 1)
	id, err := confirmed.CreateAccountFromScript(common.Script{CodeHash: common.U32ToH(1), Args: []byte("alice")})
	require.NoError(t, err)
	require.NoError(t, confirmed.SetNonce(id, 5))
	require.NoError(t, tx.Commit())

	snap := db.Snapshot()
	defer snap.Close()
	mem := NewMemStateDB(snap, confirmed.CalculateRoot())

	// speculative write visible in the overlay...
	require.NoError(t, mem.SetNonce(id, 6))
	n, err := mem.GetNonce(id)
	require.NoError(t, err)
	require.Equal(t, uint32(6), n)

	// ...but invisible to a fresh read against the confirmed tip.
	tx2, err := db.Begin(ctx)
	require.NoError(t, err)
	confirmedAgain := NewBlockStateDB(tx2, confirmed.CalculateRoot(), 2)
	n2, err := confirmedAgain.GetNonce(id)
	require.NoError(t, err)
	require.Equal(t, uint32(5), n2)
}
