// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package statetest builds small plain-state databases for tests.
package statetest

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/types/accounts"
	"github.com/jsign/eth-stateless/db/kv"
	"github.com/jsign/eth-stateless/db/kv/memdb"
)

type Account struct {
	Address common.Address
	Nonce   uint64
	Balance uint64
	Code    []byte
	Slots   []common.Hash
}

// Addr - address with the given leading bytes.
func Addr(prefix ...byte) common.Address {
	var a common.Address
	copy(a[:], prefix)
	return a
}

// Key - storage key holding n as a big-endian 256-bit number.
func Key(n uint64) common.Hash {
	var h common.Hash
	binary.BigEndian.PutUint64(h[24:], n)
	return h
}

func PutAccount(tb testing.TB, tx kv.RwTx, a Account) {
	tb.Helper()
	acc := accounts.NewAccount()
	acc.Nonce = a.Nonce
	acc.Balance.Set(uint256.NewInt(a.Balance))
	if len(a.Code) > 0 {
		acc.CodeHash = common.Keccak256(a.Code)
		require.NoError(tb, tx.Put(kv.Bytecodes, acc.CodeHash[:], a.Code))
	}
	require.NoError(tb, tx.Put(kv.PlainAccountState, a.Address[:], acc.SerialiseForStorage()))
	for i, key := range a.Slots {
		PutSlot(tb, tx, a.Address, key, []byte{byte(i + 1)})
	}
}

func PutSlot(tb testing.TB, tx kv.RwTx, addr common.Address, key common.Hash, value []byte) {
	tb.Helper()
	require.NoError(tb, tx.Put(kv.PlainStorageState, addr[:], append(key.Bytes(), value...)))
}

// NewDB - in-memory state database holding accs.
func NewDB(tb testing.TB, accs ...Account) *memdb.DB {
	tb.Helper()
	db := memdb.NewTestDB(tb)
	require.NoError(tb, db.Update(context.Background(), func(tx kv.RwTx) error {
		for _, a := range accs {
			PutAccount(tb, tx, a)
		}
		return nil
	}))
	return db
}

// BeginRo - read transaction rolled back at the end of the test.
func BeginRo(tb testing.TB, db kv.RoDB) kv.Tx {
	tb.Helper()
	tx, err := db.BeginRo(context.Background())
	require.NoError(tb, err)
	tb.Cleanup(tx.Rollback)
	return tx
}
