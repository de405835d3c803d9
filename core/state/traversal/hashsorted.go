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

package traversal

import (
	"context"
	"fmt"
	"time"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/common/etl"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/db/kv/stream"
)

const (
	// keccak256(addr) || addr
	accountRecordSize = common.HashLength + common.AddressLength
	// keccak256(key) || key
	slotRecordSize = common.HashLength + common.HashLength
)

type hashState uint8

const (
	hashStateAccount hashState = iota
	hashStateLoadSlots
	hashStateSlots
	hashStateEnd
)

type hashSortedSequence struct {
	ctx       context.Context
	cfg       Config
	collector *etl.Collector
	sorted    *etl.MergeIter
	storage   state.StorageCursor

	state   hashState
	cur     common.Address
	slotBuf []byte
	slotPos int

	next    Item
	hasNext bool
	err     error
	closed  bool

	counters
}

func openHashSorted(ctx context.Context, src state.StateSource, cfg Config) (_ *hashSortedSequence, err error) {
	collector := etl.NewCollector("traversal", cfg.TmpDir, accountRecordSize, cfg.BufferSize, cfg.Workers, cfg.Logger)
	defer func() {
		if err != nil {
			collector.Close()
		}
	}()
	n, err := src.AccountsCount()
	if err != nil {
		return nil, err
	}
	collector.Grow(n)
	if err = collectAccounts(ctx, src, collector, cfg); err != nil {
		return nil, err
	}
	sorted, err := collector.Iter()
	if err != nil {
		return nil, fmt.Errorf("traversal: sort accounts: %w", err)
	}
	storage, err := src.StorageCursor()
	if err != nil {
		return nil, err
	}
	s := &hashSortedSequence{
		ctx:       ctx,
		cfg:       cfg,
		collector: collector,
		sorted:    sorted,
		storage:   storage,
	}
	s.advance()
	return s, nil
}

func collectAccounts(ctx context.Context, src state.StateSource, collector *etl.Collector, cfg Config) error {
	accounts, err := src.AccountCursor()
	if err != nil {
		return err
	}
	defer accounts.Close()

	logEvery := time.NewTicker(30 * time.Second)
	defer logEvery.Stop()

	var rec [accountRecordSize]byte
	for {
		e, err := accounts.Next()
		if err != nil {
			return err
		}
		if e == nil {
			break
		}
		cfg.Progress(e.Address)
		h := common.Keccak256(e.Address[:])
		copy(rec[:common.HashLength], h[:])
		copy(rec[common.HashLength:], e.Address[:])
		if err := collector.Collect(rec[:]); err != nil {
			return err
		}
		select {
		default:
		case <-logEvery.C:
			if err := common.Stopped(ctx); err != nil {
				return err
			}
			cfg.Logger.Info("[traversal] Collecting account hashes", "accounts", collector.Len(), "spills", collector.Spills())
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg.Logger.Debug("[traversal] Collected account hashes", "accounts", collector.Len(), "spills", collector.Spills())
	return nil
}

func (s *hashSortedSequence) fail(err error) {
	s.err = err
	s.hasNext = false
	s.state = hashStateEnd
}

func (s *hashSortedSequence) advance() {
	s.hasNext = false
	for {
		switch s.state {
		case hashStateAccount:
			if !s.sorted.HasNext() {
				s.state = hashStateEnd
				s.cfg.Logger.Debug("[traversal] hash-ordered pass done", "accounts", s.numAccounts, "slots", s.numSlots)
				return
			}
			if err := s.ctx.Err(); err != nil {
				s.fail(err)
				return
			}
			rec, err := s.sorted.Next()
			if err != nil {
				s.fail(err)
				return
			}
			s.cur.SetBytes(rec[common.HashLength:])
			s.numAccounts++
			s.next, s.hasNext = AccountOf(s.cur), true
			s.state = hashStateLoadSlots
			return
		case hashStateLoadSlots:
			if err := s.loadSlots(); err != nil {
				s.fail(err)
				return
			}
			s.state = hashStateSlots
		case hashStateSlots:
			if s.slotPos >= len(s.slotBuf) {
				s.state = hashStateAccount
				continue
			}
			var key common.Hash
			key.SetBytes(s.slotBuf[s.slotPos+common.HashLength : s.slotPos+slotRecordSize])
			s.slotPos += slotRecordSize
			s.numSlots++
			s.next, s.hasNext = SlotOf(s.cur, key), true
			return
		case hashStateEnd:
			return
		}
	}
}

// loadSlots reads all slots of the current account and sorts them by key hash.
// The buffer is reused across accounts.
func (s *hashSortedSequence) loadSlots() error {
	s.slotBuf, s.slotPos = s.slotBuf[:0], 0
	var rec [slotRecordSize]byte
	e, err := s.storage.SeekAccount(s.cur)
	for ; err == nil && e != nil; e, err = s.storage.NextSlot() {
		h := common.Keccak256(e.Key[:])
		copy(rec[:common.HashLength], h[:])
		copy(rec[common.HashLength:], e.Key[:])
		s.slotBuf = append(s.slotBuf, rec[:]...)
	}
	if err != nil {
		return err
	}
	return etl.SortFixed(s.slotBuf, slotRecordSize, s.cfg.Workers)
}

func (s *hashSortedSequence) HasNext() bool { return s.err != nil || s.hasNext }

func (s *hashSortedSequence) Next() (Item, error) {
	if s.err != nil {
		err := s.err
		s.err = nil
		return Item{}, err
	}
	if !s.hasNext {
		return Item{}, stream.ErrIteratorExhausted
	}
	it := s.next
	s.advance()
	return it, nil
}

func (s *hashSortedSequence) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.hasNext, s.state = false, hashStateEnd
	s.sorted.Close()
	s.storage.Close()
	s.collector.Close()
}
