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

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/db/kv/stream"
)

type plainState uint8

const (
	stateAccount plainState = iota
	stateStorage
	stateEnd
)

// plainSequence merges the account and storage cursors, both in address order.
// The first storage entry of the next account is kept in pending.
type plainSequence struct {
	ctx      context.Context
	cfg      Config
	accounts state.AccountCursor
	storage  state.StorageCursor

	state       plainState
	cur         common.Address
	pending     state.StorageEntry
	hasPending  bool
	storageDone bool

	next    Item
	hasNext bool
	err     error
	closed  bool

	counters
	orphans uint64
}

func openPlain(ctx context.Context, src state.StateSource, cfg Config) (*plainSequence, error) {
	accounts, err := src.AccountCursor()
	if err != nil {
		return nil, err
	}
	storage, err := src.StorageCursor()
	if err != nil {
		accounts.Close()
		return nil, err
	}
	s := &plainSequence{ctx: ctx, cfg: cfg, accounts: accounts, storage: storage}
	s.advance()
	return s, nil
}

func (s *plainSequence) fail(err error) {
	s.err = err
	s.hasNext = false
	s.state = stateEnd
}

// fetchStorage fills pending with the next storage entry unless it already holds one.
func (s *plainSequence) fetchStorage() (bool, error) {
	if s.hasPending {
		return true, nil
	}
	if s.storageDone {
		return false, nil
	}
	e, err := s.storage.Next()
	if err != nil {
		return false, err
	}
	if e == nil {
		s.storageDone = true
		return false, nil
	}
	s.pending.Address, s.pending.Key = e.Address, e.Key
	s.hasPending = true
	return true, nil
}

func (s *plainSequence) advance() {
	s.hasNext = false
	for {
		switch s.state {
		case stateAccount:
			if err := s.ctx.Err(); err != nil {
				s.fail(err)
				return
			}
			e, err := s.accounts.Next()
			if err != nil {
				s.fail(err)
				return
			}
			if e == nil {
				s.state = stateEnd
				s.finish()
				return
			}
			s.cur = e.Address
			s.cfg.Progress(s.cur)
			s.numAccounts++
			s.next, s.hasNext = AccountOf(s.cur), true
			s.state = stateStorage
			return
		case stateStorage:
			ok, err := s.fetchStorage()
			if err != nil {
				s.fail(err)
				return
			}
			if !ok {
				s.state = stateAccount
				continue
			}
			switch s.pending.Address.Cmp(s.cur) {
			case -1:
				// slot without an account record
				s.orphans++
				s.hasPending = false
			case 0:
				s.hasPending = false
				s.numSlots++
				s.next, s.hasNext = SlotOf(s.cur, s.pending.Key), true
				return
			default:
				s.state = stateAccount
			}
		case stateEnd:
			return
		}
	}
}

// finish counts the storage entries left after the last account: all of them are orphans.
func (s *plainSequence) finish() {
	for {
		ok, err := s.fetchStorage()
		if err != nil {
			s.fail(err)
			return
		}
		if !ok {
			break
		}
		s.orphans++
		s.hasPending = false
	}
	if s.orphans > 0 {
		s.cfg.Logger.Debug("[traversal] skipped storage slots without account", "slots", s.orphans)
	}
	s.cfg.Logger.Debug("[traversal] plain pass done", "accounts", s.numAccounts, "slots", s.numSlots)
}

func (s *plainSequence) HasNext() bool { return s.err != nil || s.hasNext }

func (s *plainSequence) Next() (Item, error) {
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

func (s *plainSequence) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.hasNext, s.state = false, stateEnd
	s.accounts.Close()
	s.storage.Close()
}

// Orphans - storage slots skipped because their address has no account record.
func (s *plainSequence) Orphans() uint64 { return s.orphans }
