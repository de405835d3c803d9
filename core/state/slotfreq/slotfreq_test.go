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

package slotfreq

import (
	"context"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/statetest"
)

func filled(b byte) common.Hash {
	var h common.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

// newSource - keys[k] accounts hold slot k, the first account also holds
// singles keys seen nowhere else.
func newSource(t *testing.T, keys map[common.Hash]int, singles int) state.StateSource {
	t.Helper()
	var accs []statetest.Account
	addAt := func(i int, k common.Hash) {
		for len(accs) <= i {
			accs = append(accs, statetest.Account{Address: statetest.Addr(byte(len(accs)+1), 0xaa)})
		}
		accs[i].Slots = append(accs[i].Slots, k)
	}
	for k, n := range keys {
		for i := 0; i < n; i++ {
			addAt(i, k)
		}
	}
	for i := 0; i < singles; i++ {
		addAt(0, statetest.Key(uint64(1000+i)))
	}
	db := statetest.NewDB(t, accs...)
	return state.NewPlainStateReader(statetest.BeginRo(t, db))
}

func TestTopK(t *testing.T) {
	t.Parallel()
	p, q := filled(0xee), filled(0xcc)
	src := newSource(t, map[common.Hash]int{p: 5, q: 3}, 4)

	res, err := TopK(context.Background(), src, Config{Logger: log.New()})
	require.NoError(t, err)
	require.Equal(t, uint64(12), res.TotalSlots)
	require.Zero(t, res.Prunes)
	require.Len(t, res.Entries, 2)

	require.Equal(t, p[:], res.Entries[0].Prefix)
	require.Equal(t, uint32(5), res.Entries[0].Count)
	require.InDelta(t, 5.0/12*100, res.Entries[0].Percentage, 1e-9)
	require.Equal(t, uint64(5*32), res.Entries[0].Footprint)
	require.Equal(t, uint64(5*32), res.Entries[0].CumulativeFootprint)

	require.Equal(t, q[:], res.Entries[1].Prefix)
	require.Equal(t, uint32(3), res.Entries[1].Count)
	require.Equal(t, uint64(8*32), res.Entries[1].CumulativeFootprint)
}

func TestTopKTiesAndLimit(t *testing.T) {
	t.Parallel()
	a, b, c := filled(0x03), filled(0x01), filled(0x02)
	src := newSource(t, map[common.Hash]int{a: 2, b: 2, c: 2}, 0)

	res, err := TopK(context.Background(), src, Config{TopK: 2, Logger: log.New()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	require.Equal(t, b[:], res.Entries[0].Prefix)
	require.Equal(t, c[:], res.Entries[1].Prefix)
}

func TestTopKShortPrefix(t *testing.T) {
	t.Parallel()
	src := newSource(t, map[common.Hash]int{filled(0xee): 2}, 3)

	res, err := TopK(context.Background(), src, Config{PrefixLen: 1, Logger: log.New()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	require.Equal(t, []byte{0x00}, res.Entries[0].Prefix)
	require.Equal(t, uint32(3), res.Entries[0].Count)
	require.InDelta(t, 60.0, res.Entries[0].Percentage, 1e-9)
	require.Equal(t, uint64(3), res.Entries[0].Footprint)
	require.Equal(t, []byte{0xee}, res.Entries[1].Prefix)
	require.Equal(t, uint64(5), res.Entries[1].CumulativeFootprint)
}

func TestTopKPruningNeverOvercounts(t *testing.T) {
	t.Parallel()
	keys := map[common.Hash]int{filled(0xee): 6, filled(0x11): 2, filled(0x77): 4}
	src := newSource(t, keys, 20)

	exact, err := TopK(context.Background(), src, Config{Logger: log.New()})
	require.NoError(t, err)
	pruned, err := TopK(context.Background(), src, Config{MaxEntries: 2, Logger: log.New()})
	require.NoError(t, err)

	require.Equal(t, exact.TotalSlots, pruned.TotalSlots)
	require.Positive(t, pruned.Prunes)
	truth := make(map[string]uint32)
	for _, e := range exact.Entries {
		truth[string(e.Prefix)] = e.Count
	}
	for _, e := range pruned.Entries {
		require.LessOrEqual(t, e.Count, truth[string(e.Prefix)])
	}
}

func TestTopKEmptyState(t *testing.T) {
	t.Parallel()
	src := state.NewPlainStateReader(statetest.BeginRo(t, statetest.NewDB(t)))
	res, err := TopK(context.Background(), src, Config{})
	require.NoError(t, err)
	require.Zero(t, res.TotalSlots)
	require.Empty(t, res.Entries)
}

func TestTopKBadPrefixLen(t *testing.T) {
	t.Parallel()
	src := state.NewPlainStateReader(statetest.BeginRo(t, statetest.NewDB(t)))
	_, err := TopK(context.Background(), src, Config{PrefixLen: 33})
	require.Error(t, err)
	_, err = TopK(context.Background(), src, Config{PrefixLen: -1})
	require.Error(t, err)
}

func TestTopKCancelled(t *testing.T) {
	t.Parallel()
	src := newSource(t, map[common.Hash]int{filled(0xee): 2}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TopK(ctx, src, Config{Logger: log.New()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMaxEntriesForBudget(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1024/(32+entryOverhead), MaxEntriesForBudget(datasize.KB, 32))
	require.Greater(t, MaxEntriesForBudget(datasize.MB, 1), MaxEntriesForBudget(datasize.MB, 32))
	require.Equal(t, 1, MaxEntriesForBudget(0, 32))
}
