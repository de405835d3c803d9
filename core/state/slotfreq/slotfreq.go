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

// Package slotfreq finds the most repeated storage key prefixes of a plain
// state, the candidates for key deduplication.
package slotfreq

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
)

const (
	DefaultPrefixLen  = common.HashLength
	DefaultTopK       = 10
	DefaultMaxEntries = 200_000_000

	// entryOverhead - estimated bytes of a table entry besides the prefix itself:
	// string header, counter and map bucket share.
	entryOverhead = 16 + 4 + 28
)

type Config struct {
	// PrefixLen - leading key bytes counted together, 1..32.
	PrefixLen int
	TopK      int
	// MaxEntries - table cardinality that triggers pruning of entries seen once.
	// A lower ceiling uses less memory but may undercount a prefix whose first
	// occurrence was pruned before the next one arrived.
	MaxEntries int
	Progress   func(common.Address)
	Logger     log.Logger
}

func DefaultConfig() Config {
	return Config{PrefixLen: DefaultPrefixLen, TopK: DefaultTopK, MaxEntries: DefaultMaxEntries}
}

func (cfg Config) withDefaults() (Config, error) {
	if cfg.PrefixLen == 0 {
		cfg.PrefixLen = DefaultPrefixLen
	}
	if cfg.PrefixLen < 1 || cfg.PrefixLen > common.HashLength {
		return cfg, fmt.Errorf("slotfreq: prefix length %d out of range 1..%d", cfg.PrefixLen, common.HashLength)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Progress == nil {
		cfg.Progress = func(common.Address) {}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Root()
	}
	return cfg, nil
}

// MaxEntriesForBudget - pruning ceiling keeping the table of prefixLen-byte
// prefixes within roughly budget bytes.
func MaxEntriesForBudget(budget datasize.ByteSize, prefixLen int) int {
	n := int(budget.Bytes() / uint64(prefixLen+entryOverhead))
	return max(n, 1)
}

type Entry struct {
	Prefix     []byte
	Count      uint32
	Percentage float64
	// Footprint - bytes taken by all occurrences of the prefix.
	Footprint           uint64
	CumulativeFootprint uint64
}

type Result struct {
	PrefixLen  int
	TotalSlots uint64
	// Prunes - times the table was pruned during the pass.
	Prunes  int
	Entries []Entry
}

// TopK counts the prefixes of every storage key of src in one pass and returns
// the cfg.TopK most frequent ones seen more than once, most frequent first.
// Equal counts are ordered by ascending prefix.
func TopK(ctx context.Context, src state.StateSource, cfg Config) (*Result, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger

	c, err := src.StorageCursor()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	logEvery := time.NewTicker(30 * time.Second)
	defer logEvery.Stop()

	counts := make(map[string]uint32)
	res := &Result{PrefixLen: cfg.PrefixLen}
	var lastAddr common.Address
	for {
		e, err := c.Next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		if res.TotalSlots == 0 || e.Address != lastAddr {
			lastAddr = e.Address
			cfg.Progress(lastAddr)
		}
		res.TotalSlots++
		counts[string(e.Key[:cfg.PrefixLen])]++
		if len(counts) > cfg.MaxEntries {
			before := len(counts)
			pruneSingles(counts)
			res.Prunes++
			logger.Debug("[slotfreq] Pruned", "before", before, "after", len(counts))
		}

		select {
		default:
		case <-logEvery.C:
			if err := common.Stopped(ctx); err != nil {
				return nil, err
			}
			logger.Info("[slotfreq] Counting", "slots", res.TotalSlots, "entries", len(counts), "addr", lastAddr)
		}
	}
	if err := common.Stopped(ctx); err != nil {
		return nil, err
	}
	pruneSingles(counts)

	res.Entries = selectTop(counts, cfg.TopK)
	var cumulative uint64
	for i := range res.Entries {
		e := &res.Entries[i]
		e.Percentage = float64(e.Count) / float64(res.TotalSlots) * 100
		e.Footprint = uint64(e.Count) * uint64(cfg.PrefixLen)
		cumulative += e.Footprint
		e.CumulativeFootprint = cumulative
	}
	logger.Debug("[slotfreq] Done", "slots", res.TotalSlots, "repeated", len(counts), "prunes", res.Prunes)
	return res, nil
}

func pruneSingles(counts map[string]uint32) {
	for k, v := range counts {
		if v == 1 {
			delete(counts, k)
		}
	}
}

func selectTop(counts map[string]uint32, k int) []Entry {
	h := make(minHeap, 0, k)
	for prefix, count := range counts {
		e := heapEntry{prefix: prefix, count: count}
		if h.Len() < k {
			heap.Push(&h, e)
			continue
		}
		if !h[0].less(e) {
			continue
		}
		h[0] = e
		heap.Fix(&h, 0)
	}

	out := make([]Entry, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		e := heap.Pop(&h).(heapEntry)
		out[i] = Entry{Prefix: []byte(e.prefix), Count: e.count}
	}
	return out
}

type heapEntry struct {
	prefix string
	count  uint32
}

// less orders by rank: a is ranked below b when it is rarer, or equally frequent
// with a greater prefix.
func (a heapEntry) less(b heapEntry) bool {
	if a.count != b.count {
		return a.count < b.count
	}
	return a.prefix > b.prefix
}

// minHeap keeps the lowest ranked entry on top.
type minHeap []heapEntry

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(heapEntry)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
