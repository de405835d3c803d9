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

package stems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state/traversal"
)

var ErrUnorderedSlots = errors.New("storage slots not in ascending key order")

// AccountStemStats - layout of one account. Emitted once all its slots are
// seen and not modified afterwards.
type AccountStemStats struct {
	Address   common.Address
	CodeLen   uint64
	SlotCount uint64
	// AccountStem - occupied positions of the header bucket.
	AccountStem uint64
	// SSStems - slot count of every storage group bucket, in key order.
	SSStems []uint64
	// CodeStems - extra buckets for code not fitting in the header.
	CodeStems uint64

	lastGroup uint256.Int
	lastKey   common.Hash
	hasGroup  bool
}

// TotalStems - header + storage groups + code overflow.
func (s *AccountStemStats) TotalStems() uint64 {
	return 1 + uint64(len(s.SSStems)) + s.CodeStems
}

func (s *AccountStemStats) IsEOA() bool { return s.CodeLen == 0 }

type Partitioner struct {
	cfg                Config
	chunksInHeaderMax  uint64
	headerSlotCapacity uint256.Int
	groupBits          uint
}

func NewPartitioner(cfg Config) (*Partitioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Partitioner{
		cfg:               cfg,
		chunksInHeaderMax: cfg.GroupSize - cfg.CodeOffset(),
		groupBits:         cfg.GroupSizeBits(),
	}
	p.headerSlotCapacity.SetUint64(cfg.HeaderSlotCapacity())
	return p, nil
}

func (p *Partitioner) Config() Config { return p.cfg }

func (p *Partitioner) NewAccount(addr common.Address, codeLen uint64) *AccountStemStats {
	chunks := (codeLen + CodeChunkSize - 1) / CodeChunkSize
	inHeader := min(p.chunksInHeaderMax, chunks)
	return &AccountStemStats{
		Address:     addr,
		CodeLen:     codeLen,
		AccountStem: headerFields + inHeader,
		CodeStems:   (chunks - inHeader + p.cfg.GroupSize - 1) / p.cfg.GroupSize,
	}
}

// AddSlot places key into the layout of s. Keys must come in ascending order.
func (p *Partitioner) AddSlot(s *AccountStemStats, key common.Hash) {
	s.SlotCount++
	s.lastKey = key

	var k uint256.Int
	k.SetBytes32(key[:])
	if k.Lt(&p.headerSlotCapacity) {
		s.AccountStem++
		return
	}

	var group uint256.Int
	group.Rsh(&k, p.groupBits)
	if _, overflow := group.AddOverflow(&group, uint256.NewInt(1)); overflow {
		panic(fmt.Sprintf("stem group overflow for key %x, group size %d", key, p.cfg.GroupSize))
	}
	if s.hasGroup && group.Eq(&s.lastGroup) {
		s.SSStems[len(s.SSStems)-1]++
		return
	}
	s.SSStems = append(s.SSStems, 1)
	s.lastGroup.Set(&group)
	s.hasGroup = true
}

// CodeSizer - code length of an account, 0 for accounts without code.
type CodeSizer interface {
	AccountCodeSize(addr common.Address) (int, error)
}

// Run partitions every account of a plain-ordered traversal and calls emit
// once per account in traversal order.
func (p *Partitioner) Run(ctx context.Context, seq traversal.Sequence, codes CodeSizer, emit func(*AccountStemStats) error, logger log.Logger) error {
	defer seq.Close()
	logEvery := time.NewTicker(30 * time.Second)
	defer logEvery.Stop()

	var cur *AccountStemStats
	var accounts uint64
	for seq.HasNext() {
		it, err := seq.Next()
		if err != nil {
			return err
		}
		switch it.Kind {
		case traversal.AccountItem:
			if cur != nil {
				if err := emit(cur); err != nil {
					return err
				}
			}
			codeLen, err := codes.AccountCodeSize(it.Address)
			if err != nil {
				return err
			}
			cur = p.NewAccount(it.Address, uint64(codeLen))
			accounts++
		case traversal.StorageSlotItem:
			if cur == nil || cur.Address != it.Address {
				return fmt.Errorf("stems: slot %x of %x outside of its account", it.Key, it.Address)
			}
			if cur.SlotCount > 0 && it.Key.Cmp(cur.lastKey) <= 0 {
				return fmt.Errorf("stems: account %x: %w", it.Address, ErrUnorderedSlots)
			}
			p.AddSlot(cur, it.Key)
		}

		select {
		default:
		case <-logEvery.C:
			if err := common.Stopped(ctx); err != nil {
				return err
			}
			logger.Info("[stems] Partitioning", "accounts", accounts, "current", it.Address)
		}
	}
	if cur != nil {
		if err := emit(cur); err != nil {
			return err
		}
	}
	logger.Debug("[stems] Done", "accounts", accounts)
	return nil
}
