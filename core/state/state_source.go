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
	"fmt"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/types/accounts"
)

type AccountEntry struct {
	Address common.Address
	Account accounts.Account
}

// StorageEntry - Value has leading zero bytes trimmed, as stored.
type StorageEntry struct {
	Address common.Address
	Key     common.Hash
	Value   []byte
}

// AccountCursor walks accounts in ascending address order. Next returns nil
// after the last account.
type AccountCursor interface {
	Next() (*AccountEntry, error)
	Close()
}

// StorageCursor walks storage slots in ascending (address, key) order. Next
// returns nil at the end of the table.
type StorageCursor interface {
	Next() (*StorageEntry, error)
	// SeekAccount positions at the first slot of addr, nil if addr has none.
	SeekAccount(addr common.Address) (*StorageEntry, error)
	// NextSlot - next slot of the address of the current one, nil after its last slot.
	NextSlot() (*StorageEntry, error)
	Close()
}

// StateSource is the read side of the plain state used by every analysis pass.
// Returned entries are only valid until the next call on the same cursor.
type StateSource interface {
	AccountCursor() (AccountCursor, error)
	StorageCursor() (StorageCursor, error)

	// ReadAccount returns nil for an absent account.
	ReadAccount(addr common.Address) (*accounts.Account, error)
	// ReadCode returns nil for absent code, including the empty code hash.
	ReadCode(codeHash common.Hash) ([]byte, error)
	// AccountsCount is a hint for pre-sizing buffers.
	AccountsCount() (uint64, error)
}

// SourceError - a failed read of the underlying store. It is fatal for the pass
// that observed it.
type SourceError struct {
	Op      string
	Address *common.Address
	Err     error
}

func (e *SourceError) Error() string {
	if e.Address != nil {
		return fmt.Sprintf("state source: %s (address %x): %v", e.Op, *e.Address, e.Err)
	}
	return fmt.Sprintf("state source: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceErr(op string, addr *common.Address, err error) error {
	if err == nil {
		return nil
	}
	if addr != nil {
		a := *addr
		addr = &a
	}
	return &SourceError{Op: op, Address: addr, Err: err}
}
