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

package memdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tidwall/btree"

	"github.com/jsign/eth-stateless/db/kv"
)

var ErrClosed = errors.New("memdb: database closed")

var _ kv.RwDB = (*DB)(nil)

type entry struct {
	k, v []byte
}

type table = btree.BTreeG[entry]

func lessFor(dupSort bool) func(a, b entry) bool {
	if dupSort {
		return func(a, b entry) bool {
			if c := bytes.Compare(a.k, b.k); c != 0 {
				return c < 0
			}
			return bytes.Compare(a.v, b.v) < 0
		}
	}
	return func(a, b entry) bool { return bytes.Compare(a.k, b.k) < 0 }
}

// DB is an ordered in-memory kv.RwDB. Read transactions see a copy-on-write
// snapshot taken at BeginRo; write transactions are serialized and publish their
// tables atomically on Commit.
type DB struct {
	cfg kv.TableCfg

	mu      sync.RWMutex
	writeMu sync.Mutex
	tables  map[string]*table
	closed  bool
}

func New(cfg kv.TableCfg) *DB {
	db := &DB{cfg: cfg, tables: make(map[string]*table, len(cfg))}
	for name, item := range cfg {
		db.tables[name] = btree.NewBTreeGOptions[entry](lessFor(item.Flags&kv.DupSort != 0), btree.Options{NoLocks: true})
	}
	return db
}

// NewStateDB - database with the plain state tables.
func NewStateDB() *DB { return New(kv.StateTablesCfg) }

func NewTestDB(tb testing.TB) *DB {
	tb.Helper()
	db := NewStateDB()
	tb.Cleanup(db.Close)
	return db
}

func BeginRw(tb testing.TB, db kv.RwDB) kv.RwTx {
	tb.Helper()
	tx, err := db.BeginRw(context.Background()) //nolint:gocritic
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(tx.Rollback)
	return tx
}

func (db *DB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
}

func (db *DB) ReadOnly() bool         { return false }
func (db *DB) AllTables() kv.TableCfg { return db.cfg }

func (db *DB) snapshot() (map[string]*table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	tables := make(map[string]*table, len(db.tables))
	for name, t := range db.tables {
		tables[name] = t.Copy()
	}
	return tables, nil
}

func (db *DB) BeginRo(ctx context.Context) (kv.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tables, err := db.snapshot()
	if err != nil {
		return nil, err
	}
	return &tx{db: db, ctx: ctx, tables: tables}, nil
}

func (db *DB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.writeMu.Lock()
	tables, err := db.snapshot()
	if err != nil {
		db.writeMu.Unlock()
		return nil, err
	}
	return &tx{db: db, ctx: ctx, tables: tables, rw: true}, nil
}

func (db *DB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *DB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err = f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type tx struct {
	db     *DB
	ctx    context.Context
	tables map[string]*table
	rw     bool
	done   bool
}

func (tx *tx) table(name string) (*table, error) {
	if tx.done {
		return nil, errors.New("memdb: transaction already finished")
	}
	t, ok := tx.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kv.ErrTableNotFound, name)
	}
	return t, nil
}

func (tx *tx) GetOne(table string, key []byte) ([]byte, error) {
	t, err := tx.table(table)
	if err != nil {
		return nil, err
	}
	it := t.Iter()
	defer it.Release()
	if !it.Seek(entry{k: key}) || !bytes.Equal(it.Item().k, key) {
		return nil, nil
	}
	return it.Item().v, nil
}

func (tx *tx) Count(table string) (uint64, error) {
	t, err := tx.table(table)
	if err != nil {
		return 0, err
	}
	return uint64(t.Len()), nil
}

func (tx *tx) Put(table string, k, v []byte) error {
	if !tx.rw {
		return errors.New("memdb: put in read-only transaction")
	}
	t, err := tx.table(table)
	if err != nil {
		return err
	}
	if v == nil {
		v = []byte{}
	}
	t.Set(entry{k: bytes.Clone(k), v: bytes.Clone(v)})
	return nil
}

func (tx *tx) Commit() error {
	if tx.done {
		return errors.New("memdb: transaction already finished")
	}
	if !tx.rw {
		tx.Rollback()
		return nil
	}
	tx.db.mu.Lock()
	closed := tx.db.closed
	if !closed {
		tx.db.tables = tx.tables
	}
	tx.db.mu.Unlock()
	tx.finish()
	if closed {
		return ErrClosed
	}
	return nil
}

func (tx *tx) Rollback() {
	if tx.done {
		return
	}
	tx.finish()
}

func (tx *tx) finish() {
	tx.done = true
	if tx.rw {
		tx.db.writeMu.Unlock()
	}
}

func (tx *tx) Cursor(table string) (kv.Cursor, error) {
	return tx.CursorDupSort(table)
}

func (tx *tx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	t, err := tx.table(table)
	if err != nil {
		return nil, err
	}
	return &cursor{ctx: tx.ctx, it: t.Iter()}, nil
}
