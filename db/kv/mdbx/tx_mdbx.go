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

package mdbx

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/jsign/eth-stateless/common/dbg"
	"github.com/jsign/eth-stateless/db/kv"
)

type MdbxTx struct {
	ctx      context.Context
	tx       *mdbx.Txn
	db       *MdbxKV
	cursors  []*MdbxCursor
	readOnly bool
	done     bool
	start    time.Time
}

func (tx *MdbxTx) dbi(table string) (mdbx.DBI, error) {
	dbi, ok := tx.db.dbis[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", kv.ErrTableNotFound, table)
	}
	return dbi, nil
}

func (tx *MdbxTx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return nil, err
	}
	if dbi == NonExistingDBI {
		return nil, nil
	}
	v, err := tx.tx.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("table: %s, %w", table, err)
	}
	return v, nil
}

func (tx *MdbxTx) Count(table string) (uint64, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return 0, err
	}
	if dbi == NonExistingDBI {
		return 0, nil
	}
	st, err := tx.tx.StatDBI(dbi)
	if err != nil {
		return 0, fmt.Errorf("table: %s, %w", table, err)
	}
	return st.Entries, nil
}

func (tx *MdbxTx) Put(table string, k, v []byte) error {
	dbi, err := tx.dbi(table)
	if err != nil {
		return err
	}
	return tx.tx.Put(dbi, k, v, 0)
}

func (tx *MdbxTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.closeCursors()
	defer tx.finish()
	latency, err := tx.tx.Commit()
	if err != nil {
		return err
	}
	if !tx.readOnly {
		tx.db.log.Trace("commit", "total", latency.Whole)
	}
	return nil
}

func (tx *MdbxTx) Rollback() {
	if tx.done {
		return
	}
	tx.closeCursors()
	defer tx.finish()
	tx.tx.Abort()
}

func (tx *MdbxTx) finish() {
	if slow := dbg.SlowTx(); slow > 0 && tx.readOnly {
		if d := time.Since(tx.start); d > slow {
			tx.db.log.Info("[dbg] long read transaction", "duration", d.Round(time.Millisecond))
		}
	}
	tx.done = true
	tx.db.wg.Done()
	runtime.UnlockOSThread()
}

func (tx *MdbxTx) closeCursors() {
	for _, c := range tx.cursors {
		c.Close()
	}
	tx.cursors = nil
}

func (tx *MdbxTx) Cursor(table string) (kv.Cursor, error) {
	return tx.stdCursor(table)
}

func (tx *MdbxTx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	return tx.stdCursor(table)
}

func (tx *MdbxTx) stdCursor(table string) (*MdbxCursor, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return nil, err
	}
	c := &MdbxCursor{ctx: tx.ctx, table: table}
	if dbi != NonExistingDBI {
		if c.c, err = tx.tx.OpenCursor(dbi); err != nil {
			return nil, fmt.Errorf("table: %s, %w", table, err)
		}
	}
	tx.cursors = append(tx.cursors, c)
	return c, nil
}

// MdbxCursor - a nil inner cursor stands for a table absent from a read-only database.
type MdbxCursor struct {
	ctx   context.Context
	table string
	c     *mdbx.Cursor
}

func (c *MdbxCursor) get(k, v []byte, op uint) ([]byte, []byte, error) {
	if c.c == nil {
		return nil, nil, nil
	}
	k, v, err := c.c.Get(k, v, op)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("table: %s, %w", c.table, err)
	}
	return k, v, nil
}

func (c *MdbxCursor) First() ([]byte, []byte, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, nil, err
	}
	return c.get(nil, nil, mdbx.First)
}

func (c *MdbxCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, nil, err
	}
	return c.get(key, nil, mdbx.SetKey)
}

func (c *MdbxCursor) Next() ([]byte, []byte, error) { return c.get(nil, nil, mdbx.Next) }

func (c *MdbxCursor) NextDup() ([]byte, []byte, error) { return c.get(nil, nil, mdbx.NextDup) }

func (c *MdbxCursor) Close() {
	if c.c != nil {
		c.c.Close()
		c.c = nil
	}
}
