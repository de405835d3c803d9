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

package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state/statetest"
	"github.com/jsign/eth-stateless/db/kv"
)

func TestPlainStateReaderCursors(t *testing.T) {
	t.Parallel()
	code := []byte{0x60, 0x01, 0x60, 0x02}
	db := statetest.NewDB(t,
		statetest.Account{Address: statetest.Addr(0x02), Nonce: 1},
		statetest.Account{Address: statetest.Addr(0x01), Code: code, Slots: []common.Hash{statetest.Key(9), statetest.Key(3)}},
		statetest.Account{Address: statetest.Addr(0x03), Slots: []common.Hash{statetest.Key(1)}},
	)
	r := NewPlainStateReader(statetest.BeginRo(t, db))

	n, err := r.AccountsCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), n)

	ac, err := r.AccountCursor()
	require.NoError(t, err)
	defer ac.Close()
	var addrs []common.Address
	for {
		e, err := ac.Next()
		require.NoError(t, err)
		if e == nil {
			break
		}
		addrs = append(addrs, e.Address)
	}
	require.Equal(t, []common.Address{statetest.Addr(1), statetest.Addr(2), statetest.Addr(3)}, addrs)

	sc, err := r.StorageCursor()
	require.NoError(t, err)
	defer sc.Close()
	e, err := sc.Next()
	require.NoError(t, err)
	require.Equal(t, statetest.Addr(0x01), e.Address)
	require.Equal(t, statetest.Key(3), e.Key)
	require.Equal(t, []byte{2}, e.Value)
	e, err = sc.Next()
	require.NoError(t, err)
	require.Equal(t, statetest.Key(9), e.Key)
	e, err = sc.Next()
	require.NoError(t, err)
	require.Equal(t, statetest.Addr(0x03), e.Address)
	e, err = sc.Next()
	require.NoError(t, err)
	require.Nil(t, e)
	e, err = sc.NextSlot()
	require.NoError(t, err)
	require.Nil(t, e)

	e, err = sc.SeekAccount(statetest.Addr(0x01))
	require.NoError(t, err)
	require.Equal(t, statetest.Key(3), e.Key)
	e, err = sc.NextSlot()
	require.NoError(t, err)
	require.Equal(t, statetest.Addr(0x01), e.Address)
	require.Equal(t, statetest.Key(9), e.Key)
	e, err = sc.NextSlot()
	require.NoError(t, err)
	require.Nil(t, e)

	for _, addr := range []common.Address{statetest.Addr(0x02), statetest.Addr(0x04)} {
		e, err = sc.SeekAccount(addr)
		require.NoError(t, err)
		require.Nil(t, e)
		e, err = sc.NextSlot()
		require.NoError(t, err)
		require.Nil(t, e)
	}
	e, err = sc.SeekAccount(statetest.Addr(0x03))
	require.NoError(t, err)
	require.Equal(t, statetest.Key(1), e.Key)
	e, err = sc.NextSlot()
	require.NoError(t, err)
	require.Nil(t, e)

	acc, err := r.ReadAccount(statetest.Addr(0x01))
	require.NoError(t, err)
	got, err := r.ReadCode(acc.CodeHash)
	require.NoError(t, err)
	require.Equal(t, code, got)

	acc, err = r.ReadAccount(statetest.Addr(0x09))
	require.NoError(t, err)
	require.Nil(t, acc)

	empty, err := r.ReadCode(common.EmptyCodeHash)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestPlainStateReaderMalformed(t *testing.T) {
	t.Parallel()
	db := statetest.NewDB(t)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return tx.Put(kv.PlainStorageState, statetest.Addr(0x05).Bytes(), []byte{1, 2, 3})
	}))
	r := NewPlainStateReader(statetest.BeginRo(t, db))
	sc, err := r.StorageCursor()
	require.NoError(t, err)
	defer sc.Close()

	_, err = sc.Next()
	var se *SourceError
	require.True(t, errors.As(err, &se))
	require.ErrorIs(t, err, ErrMalformedEntry)
	require.NotNil(t, se.Address)
	require.Equal(t, statetest.Addr(0x05), *se.Address)
}

func TestCodeSizeCache(t *testing.T) {
	t.Parallel()
	code := make([]byte, 100)
	db := statetest.NewDB(t,
		statetest.Account{Address: statetest.Addr(0x01), Code: code},
		statetest.Account{Address: statetest.Addr(0x02), Code: code},
		statetest.Account{Address: statetest.Addr(0x03)},
	)
	c, err := NewCodeSizeCache(NewPlainStateReader(statetest.BeginRo(t, db)), 16)
	require.NoError(t, err)

	for _, tc := range []struct {
		addr common.Address
		size int
	}{{statetest.Addr(1), 100}, {statetest.Addr(2), 100}, {statetest.Addr(3), 0}, {statetest.Addr(4), 0}} {
		n, err := c.AccountCodeSize(tc.addr)
		require.NoError(t, err)
		require.Equal(t, tc.size, n, tc.addr.Hex())
	}
	hits, misses := c.Stats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(1), misses)
}
