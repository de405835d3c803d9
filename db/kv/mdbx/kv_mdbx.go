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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common/dbg"
	"github.com/jsign/eth-stateless/db/kv"
)

const NonExistingDBI mdbx.DBI = 999_999_999

var ErrDBClosed = errors.New("mdbx: database closed")

type MdbxOpts struct {
	log        log.Logger
	path       string
	label      kv.Label
	inMem      bool
	tables     kv.TableCfg
	mapSize    datasize.ByteSize
	growthStep datasize.ByteSize
	pageSize   datasize.ByteSize
	flags      uint
}

func NewMDBX(logger log.Logger) MdbxOpts {
	return MdbxOpts{
		log:        logger,
		label:      kv.ChainDB,
		tables:     kv.StateTablesCfg,
		mapSize:    2 * datasize.TB,
		growthStep: 2 * datasize.GB,
		pageSize:   4 * datasize.KB,
		flags:      mdbx.NoReadahead | mdbx.Durable,
	}
}

func (opts MdbxOpts) Label(label kv.Label) MdbxOpts {
	opts.label = label
	return opts
}

func (opts MdbxOpts) Path(path string) MdbxOpts {
	opts.path = path
	return opts
}

// InMem - throw-away database under tmpDir, removed on Close.
func (opts MdbxOpts) InMem(tmpDir string) MdbxOpts {
	opts.inMem = true
	opts.path = tmpDir
	opts.mapSize = 512 * datasize.MB
	opts.growthStep = 2 * datasize.MB
	return opts
}

func (opts MdbxOpts) Readonly() MdbxOpts {
	opts.flags = opts.flags | mdbx.Readonly
	return opts
}

func (opts MdbxOpts) MapSize(sz datasize.ByteSize) MdbxOpts {
	opts.mapSize = sz
	return opts
}

func (opts MdbxOpts) GrowthStep(sz datasize.ByteSize) MdbxOpts {
	opts.growthStep = sz
	return opts
}

func (opts MdbxOpts) WithTableCfg(cfg kv.TableCfg) MdbxOpts {
	opts.tables = cfg
	return opts
}

func (opts MdbxOpts) readOnly() bool { return opts.flags&mdbx.Readonly != 0 }

func (opts MdbxOpts) Open(ctx context.Context) (*MdbxKV, error) {
	if opts.inMem {
		dir, err := os.MkdirTemp(opts.path, "mdbx-inmem-")
		if err != nil {
			return nil, err
		}
		opts.path = dir
	}
	if opts.path == "" {
		return nil, errors.New("mdbx: path is not set")
	}
	logger := opts.log.New("mdbx", filepath.Base(opts.path))

	env, err := mdbx.NewEnv(mdbx.Label(opts.label))
	if err != nil {
		return nil, err
	}
	if err = env.SetOption(mdbx.OptMaxDB, 100); err != nil {
		env.Close()
		return nil, err
	}
	if !opts.readOnly() {
		if err = env.SetGeometry(-1, -1, int(opts.mapSize), int(opts.growthStep), -1, int(opts.pageSize)); err != nil {
			env.Close()
			return nil, err
		}
		if err = os.MkdirAll(opts.path, 0744); err != nil {
			env.Close()
			return nil, fmt.Errorf("could not create dir: %s, %w", opts.path, err)
		}
	}
	if dbg.MdbxReadAhead() {
		opts.flags &^= mdbx.NoReadahead
	}
	if err = env.Open(opts.path, opts.flags, 0664); err != nil {
		env.Close()
		return nil, fmt.Errorf("%w, path: %s", err, opts.path)
	}

	db := &MdbxKV{
		opts: opts,
		env:  env,
		log:  logger,
		wg:   &sync.WaitGroup{},
		dbis: make(map[string]mdbx.DBI, len(opts.tables)),
	}
	if err = db.openTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (opts MdbxOpts) MustOpen() *MdbxKV {
	db, err := opts.Open(context.Background())
	if err != nil {
		panic(fmt.Errorf("fail to open mdbx: %w", err))
	}
	return db
}

// openTables creates missing tables in read-write mode. A read-only database
// may lack some tables: cursors over them are empty.
func (db *MdbxKV) openTables(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var txFlags uint
	if db.opts.readOnly() {
		txFlags = mdbx.Readonly
	}
	tx, err := db.env.BeginTxn(nil, txFlags)
	if err != nil {
		return err
	}
	for _, name := range db.opts.tables.Names() {
		if err := ctx.Err(); err != nil {
			tx.Abort()
			return err
		}
		var flags uint
		if db.opts.tables.IsDupSort(name) {
			flags |= uint(mdbx.DupSort)
		}
		if db.opts.readOnly() {
			flags = uint(mdbx.DBAccede)
		} else {
			flags |= uint(mdbx.Create)
		}
		dbi, openErr := tx.OpenDBISimple(name, flags)
		if openErr != nil {
			if db.opts.readOnly() && mdbx.IsNotFound(openErr) {
				db.log.Debug("table not found in read-only database", "table", name)
				db.dbis[name] = NonExistingDBI
				continue
			}
			tx.Abort()
			return fmt.Errorf("table: %s, %w", name, openErr)
		}
		db.dbis[name] = dbi
	}
	if _, err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

type MdbxKV struct {
	env  *mdbx.Env
	log  log.Logger
	wg   *sync.WaitGroup
	opts MdbxOpts
	dbis map[string]mdbx.DBI

	closeMu sync.Mutex
}

var _ kv.RwDB = (*MdbxKV)(nil)

func (db *MdbxKV) ReadOnly() bool         { return db.opts.readOnly() }
func (db *MdbxKV) AllTables() kv.TableCfg { return db.opts.tables }
func (db *MdbxKV) Path() string           { return db.opts.path }

// Close closes db
// All transactions must be closed before closing the database.
func (db *MdbxKV) Close() {
	db.closeMu.Lock()
	defer db.closeMu.Unlock()
	if db.env == nil {
		return
	}
	db.wg.Wait()
	db.env.Close()
	db.env = nil

	if db.opts.inMem {
		if err := os.RemoveAll(db.opts.path); err != nil {
			db.log.Warn("failed to remove in-mem db file", "err", err)
		}
	} else {
		db.log.Debug("database closed (MDBX)")
	}
}

// BeginRo - the transaction is pinned to the calling OS thread until Rollback.
func (db *MdbxKV) BeginRo(ctx context.Context) (txn kv.Tx, err error) {
	return db.begin(ctx, mdbx.Readonly)
}

func (db *MdbxKV) BeginRw(ctx context.Context) (txn kv.RwTx, err error) {
	if db.opts.readOnly() {
		return nil, errors.New("mdbx: read-write transaction on read-only database")
	}
	return db.begin(ctx, 0)
}

func (db *MdbxKV) begin(ctx context.Context, flags uint) (*MdbxTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if db.env == nil {
		return nil, ErrDBClosed
	}
	runtime.LockOSThread()
	tx, err := db.env.BeginTxn(nil, flags)
	if err != nil {
		runtime.UnlockOSThread() // unlock only in case of error. normal flow is "defer .Rollback()"
		return nil, err
	}
	db.wg.Add(1)
	return &MdbxTx{
		ctx:      ctx,
		db:       db,
		tx:       tx,
		readOnly: flags&mdbx.Readonly != 0,
		start:    time.Now(),
	}, nil
}

func (db *MdbxKV) View(ctx context.Context, f func(tx kv.Tx) error) (err error) {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *MdbxKV) Update(ctx context.Context, f func(tx kv.RwTx) error) (err error) {
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
