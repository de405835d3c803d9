// Copyright 2022 The Erigon Authors
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

package kv

import (
	"context"
	"errors"
)

/*
Naming:
 tx - Database Transaction
 RoTx - Read-Only Database Transaction. RwTx - read-write
 k, v - key, value
 Table - collection of key-value pairs. In MDBX - it's `dbi`. Keys are sorted and unique
 DupSort - if table created `Sorted Duplicates` option: then 1 key can have multiple (sorted and unique) values
 Cursor - low-level api to navigate over Table

Methods Naming:
 Get: exact match of criteria
 SeekExact: position at the first value of the given key

Lifetime: keys and values returned by Tx or Cursor are valid until the end of the transaction.
*/

var ErrTableNotFound = errors.New("kv: table not found")

type Closer interface {
	Close()
}

/*
RoDB low-level interface - common abstraction over MDBX and the in-memory store.
Warning: can't move `tx` between goroutines.
Example:

	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() // it's safe to Rollback after `tx.Commit()`

	... application logic using `tx`
*/
type RoDB interface {
	Closer
	BeginRo(ctx context.Context) (Tx, error)

	// View like BeginRo but for short-living transactions. Example:
	//	 if err := db.View(ctx, func(tx kv.Tx) error {
	//	    ... code which uses database in transaction
	//	 }); err != nil {
	//			return err
	//	}
	View(ctx context.Context, f func(tx Tx) error) error

	ReadOnly() bool
	AllTables() TableCfg
}

type RwDB interface {
	RoDB

	Update(ctx context.Context, f func(tx RwTx) error) error

	// BeginRw - creates transaction
	// A transaction and its cursors must only be used by a single
	// 	thread (not goroutine), and a thread may only have a single transaction at a time.
	BeginRw(ctx context.Context) (RwTx, error)
}

type Getter interface {
	// GetOne references a readonly section of memory that must not be accessed after txn has terminated
	GetOne(table string, key []byte) (val []byte, err error)

	Rollback() // Rollback - abandon all the operations of the transaction instead of saving them.
}

// Tx
// WARNING:
//   - Tx is not threadsafe and may only be used in the goroutine that created it
type Tx interface {
	Getter

	// Cursor - creates cursor object on top of given table. On a DupSort table
	// Next moves over every key/value pair, duplicates included.
	Cursor(table string) (Cursor, error)
	CursorDupSort(table string) (CursorDupSort, error) // CursorDupSort - can be used if table has DupSort flag

	// Count - number of entries in table (key/value pairs for DupSort tables)
	Count(table string) (uint64, error)
}

type RwTx interface {
	Tx
	Putter

	Commit() error
}

// Putter wraps the database write operations.
type Putter interface {
	// Put inserts or updates a single entry. On a DupSort table it adds v to the values of k.
	Put(table string, k, v []byte) error
}

/*
Cursor - nil key is returned when the end of the table is reached. Example:

	for k, v, err := c.First(); k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
	   ... logic using `k` and `v` (key and value)
	}
*/
type Cursor interface {
	First() ([]byte, []byte, error)               // First - position at first key/data item
	SeekExact(key []byte) ([]byte, []byte, error) // SeekExact - position at exact matching key if exists
	Next() ([]byte, []byte, error)                // Next - position at next key/value (can iterate over DupSort key/values automatically)

	Close()
}

type CursorDupSort interface {
	Cursor

	NextDup() ([]byte, []byte, error) // NextDup - position at next data item of current key
}

type Label string

const (
	ChainDB     = "chaindata"
	TemporaryDB = "temporary"
)
