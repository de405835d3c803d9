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
	"errors"
	"fmt"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/types/accounts"
	"github.com/jsign/eth-stateless/db/kv"
)

var _ StateSource = (*PlainStateReader)(nil)

var ErrMalformedEntry = errors.New("malformed entry")

// PlainStateReader reads data from so called "plain state".
// Data in the plain state is stored using un-hashed account/storage items
// as opposed to the "normal" state that uses hashes of merkle paths to store items.
type PlainStateReader struct {
	tx kv.Tx
}

func NewPlainStateReader(tx kv.Tx) *PlainStateReader {
	return &PlainStateReader{tx: tx}
}

func (r *PlainStateReader) ReadAccount(address common.Address) (*accounts.Account, error) {
	enc, err := r.tx.GetOne(kv.PlainAccountState, address[:])
	if err != nil {
		return nil, sourceErr("read account", &address, err)
	}
	if enc == nil {
		return nil, nil
	}
	acc := &accounts.Account{}
	if err := acc.DecodeForStorage(enc); err != nil {
		return nil, sourceErr("decode account", &address, err)
	}
	return acc, nil
}

func (r *PlainStateReader) ReadCode(codeHash common.Hash) ([]byte, error) {
	if codeHash == common.EmptyCodeHash || codeHash == (common.Hash{}) {
		return nil, nil
	}
	code, err := r.tx.GetOne(kv.Bytecodes, codeHash[:])
	if err != nil {
		return nil, sourceErr(fmt.Sprintf("read code %x", codeHash), nil, err)
	}
	return code, nil
}

func (r *PlainStateReader) AccountsCount() (uint64, error) {
	n, err := r.tx.Count(kv.PlainAccountState)
	return n, sourceErr("count accounts", nil, err)
}

func (r *PlainStateReader) AccountCursor() (AccountCursor, error) {
	c, err := r.tx.Cursor(kv.PlainAccountState)
	if err != nil {
		return nil, sourceErr("open account cursor", nil, err)
	}
	return &plainAccountCursor{c: c}, nil
}

func (r *PlainStateReader) StorageCursor() (StorageCursor, error) {
	c, err := r.tx.CursorDupSort(kv.PlainStorageState)
	if err != nil {
		return nil, sourceErr("open storage cursor", nil, err)
	}
	return &plainStorageCursor{c: c}, nil
}

type plainAccountCursor struct {
	c       kv.Cursor
	started bool
	entry   AccountEntry
}

func (pc *plainAccountCursor) Next() (*AccountEntry, error) {
	var k, v []byte
	var err error
	if !pc.started {
		pc.started = true
		k, v, err = pc.c.First()
	} else {
		k, v, err = pc.c.Next()
	}
	if err != nil {
		return nil, sourceErr("next account", nil, err)
	}
	if k == nil {
		return nil, nil
	}
	if len(k) != common.AddressLength {
		return nil, sourceErr("next account", nil, fmt.Errorf("%w: key of %d bytes in %s", ErrMalformedEntry, len(k), kv.PlainAccountState))
	}
	pc.entry.Address.SetBytes(k)
	if err := pc.entry.Account.DecodeForStorage(v); err != nil {
		return nil, sourceErr("decode account", &pc.entry.Address, err)
	}
	return &pc.entry, nil
}

func (pc *plainAccountCursor) Close() { pc.c.Close() }

// plainStorageCursor - onSlot is false until a read returns a slot, and after
// a read returns nil or fails.
type plainStorageCursor struct {
	c       kv.CursorDupSort
	started bool
	onSlot  bool
	entry   StorageEntry
}

func (sc *plainStorageCursor) decode(op string, k, v []byte, err error) (*StorageEntry, error) {
	sc.onSlot = false
	if err != nil {
		return nil, sourceErr(op, nil, err)
	}
	if k == nil {
		return nil, nil
	}
	if len(k) != common.AddressLength {
		return nil, sourceErr(op, nil, fmt.Errorf("%w: key of %d bytes in %s", ErrMalformedEntry, len(k), kv.PlainStorageState))
	}
	sc.entry.Address.SetBytes(k)
	if len(v) < common.HashLength {
		return nil, sourceErr(op, &sc.entry.Address, fmt.Errorf("%w: value of %d bytes in %s", ErrMalformedEntry, len(v), kv.PlainStorageState))
	}
	sc.entry.Key.SetBytes(v[:common.HashLength])
	sc.entry.Value = v[common.HashLength:]
	sc.onSlot = true
	return &sc.entry, nil
}

func (sc *plainStorageCursor) SeekAccount(addr common.Address) (*StorageEntry, error) {
	sc.started = true
	k, v, err := sc.c.SeekExact(addr[:])
	e, err := sc.decode("seek storage", k, v, err)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) && se.Address == nil {
			se.Address = &addr
		}
	}
	return e, err
}

func (sc *plainStorageCursor) NextSlot() (*StorageEntry, error) {
	if !sc.onSlot {
		return nil, nil
	}
	k, v, err := sc.c.NextDup()
	return sc.decode("next storage slot", k, v, err)
}

func (sc *plainStorageCursor) Next() (*StorageEntry, error) {
	var k, v []byte
	var err error
	if !sc.started {
		sc.started = true
		k, v, err = sc.c.First()
	} else {
		k, v, err = sc.c.Next()
	}
	return sc.decode("next storage", k, v, err)
}

func (sc *plainStorageCursor) Close() { sc.c.Close() }
