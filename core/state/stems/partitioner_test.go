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
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/statetest"
	"github.com/jsign/eth-stateless/core/state/traversal"
	"github.com/jsign/eth-stateless/db/kv/stream"
)

func newTestPartitioner(t *testing.T) *Partitioner {
	t.Helper()
	p, err := NewPartitioner(DefaultConfig())
	require.NoError(t, err)
	return p
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, Config{GroupSize: 2, HeaderStorageOffset: 1}.Validate())

	for _, cfg := range []Config{
		{GroupSize: 0},
		{GroupSize: 1},
		{GroupSize: 100, HeaderStorageOffset: 10},
		{GroupSize: 256, HeaderStorageOffset: 129},
	} {
		err := cfg.Validate()
		var ce *ConfigurationError
		require.True(t, errors.As(err, &ce), "%+v", cfg)
		_, err = NewPartitioner(cfg)
		require.Error(t, err)
	}

	cfg := DefaultConfig()
	require.Equal(t, uint64(128), cfg.CodeOffset())
	require.Equal(t, uint64(64), cfg.HeaderSlotCapacity())
	require.Equal(t, uint(8), cfg.GroupSizeBits())
}

func TestEmptyAccount(t *testing.T) {
	t.Parallel()
	s := newTestPartitioner(t).NewAccount(statetest.Addr(1), 0)
	require.Equal(t, uint64(2), s.AccountStem)
	require.Empty(t, s.SSStems)
	require.Zero(t, s.CodeStems)
	require.Equal(t, uint64(1), s.TotalStems())
	require.True(t, s.IsEOA())
}

func TestSingleChunkAndHeaderSlot(t *testing.T) {
	t.Parallel()
	p := newTestPartitioner(t)
	s := p.NewAccount(statetest.Addr(2), 31)
	p.AddSlot(s, statetest.Key(0))
	require.Equal(t, uint64(4), s.AccountStem)
	require.Empty(t, s.SSStems)
	require.Zero(t, s.CodeStems)
	require.Equal(t, uint64(1), s.TotalStems())
}

func TestHeaderBoundaryIsExclusive(t *testing.T) {
	t.Parallel()
	p := newTestPartitioner(t)
	capacity := p.Config().HeaderSlotCapacity()

	s := p.NewAccount(statetest.Addr(1), 0)
	p.AddSlot(s, statetest.Key(capacity-1))
	require.Equal(t, uint64(3), s.AccountStem)
	require.Empty(t, s.SSStems)

	p.AddSlot(s, statetest.Key(capacity))
	require.Equal(t, uint64(3), s.AccountStem)
	require.Equal(t, []uint64{1}, s.SSStems)
	require.Equal(t, uint64(2), s.SlotCount)
}

func TestStorageGroups(t *testing.T) {
	t.Parallel()
	p := newTestPartitioner(t)
	s := p.NewAccount(statetest.Addr(1), 0)
	for _, k := range []uint64{64, 100, 255, 256, 1000, 1001} {
		p.AddSlot(s, statetest.Key(k))
	}
	// groups: 1, 1, 1, 2, 4, 4
	require.Equal(t, []uint64{3, 1, 2}, s.SSStems)
	require.Equal(t, uint64(4), s.TotalStems())

	var top common.Hash
	for i := range top {
		top[i] = 0xff
	}
	require.NotPanics(t, func() { p.AddSlot(s, top) })
	require.Equal(t, []uint64{3, 1, 2, 1}, s.SSStems)
}

func TestCodeStems(t *testing.T) {
	t.Parallel()
	p := newTestPartitioner(t)
	for _, tc := range []struct {
		codeLen     uint64
		accountStem uint64
		codeStems   uint64
	}{
		{1, 3, 0},
		{32, 4, 0},
		{31 * 128, 130, 0},
		{31*128 + 1, 130, 1},
		{31 * (128 + 256), 130, 1},
		{31*(128+256) + 1, 130, 2},
	} {
		s := p.NewAccount(statetest.Addr(1), tc.codeLen)
		require.Equal(t, tc.accountStem, s.AccountStem, "code len %d", tc.codeLen)
		require.Equal(t, tc.codeStems, s.CodeStems, "code len %d", tc.codeLen)
		require.False(t, s.IsEOA())
	}
}

func TestRunOverPlainState(t *testing.T) {
	t.Parallel()
	code := make([]byte, 31)
	code[0] = 0x60
	db := statetest.NewDB(t,
		statetest.Account{Address: statetest.Addr(0x0a)},
		statetest.Account{Address: statetest.Addr(0x0b), Code: code, Slots: []common.Hash{statetest.Key(0)}},
		statetest.Account{Address: statetest.Addr(0x0c), Slots: []common.Hash{statetest.Key(300), statetest.Key(70)}},
	)
	src := state.NewPlainStateReader(statetest.BeginRo(t, db))
	codes, err := state.NewCodeSizeCache(src, 8)
	require.NoError(t, err)
	seq, err := traversal.Open(context.Background(), src, traversal.Plain, traversal.Config{Logger: log.New()})
	require.NoError(t, err)

	var emitted []*AccountStemStats
	report := &Report{}
	p := newTestPartitioner(t)
	require.NoError(t, p.Run(context.Background(), seq, codes, func(s *AccountStemStats) error {
		emitted = append(emitted, s)
		return report.Add(s)
	}, log.New()))

	require.Len(t, emitted, 3)
	require.Equal(t, uint64(1), emitted[0].TotalStems())
	require.Equal(t, uint64(4), emitted[1].AccountStem)
	require.Equal(t, uint64(1), emitted[1].TotalStems())
	require.Equal(t, []uint64{1, 1}, emitted[2].SSStems)

	require.Equal(t, uint64(3), report.Accounts)
	require.Equal(t, uint64(2), report.EOAs)
	require.Equal(t, uint64(1), report.Contracts)
	require.Equal(t, uint64(3), report.HeaderStems)
	require.Equal(t, uint64(2), report.StorageStems)
	require.Equal(t, uint64(5), report.TotalStems())
	require.InDelta(t, 60.0, report.Percent(report.HeaderStems), 1e-9)

	sum := report.Summarize()
	require.Equal(t, uint64(31), sum.ContractCodeLens.Max)
	require.Equal(t, uint64(2), sum.SlotCounts.Max)
	require.Equal(t, uint64(3), sum.SlotCounts.Sum)
	require.Equal(t, uint64(4), sum.AccountStems.Max)
}

// items - a fixed Sequence.
type items []traversal.Item

func (s *items) HasNext() bool { return len(*s) > 0 }
func (s *items) Close()        {}
func (s *items) Next() (traversal.Item, error) {
	if len(*s) == 0 {
		return traversal.Item{}, stream.ErrIteratorExhausted
	}
	it := (*s)[0]
	*s = (*s)[1:]
	return it, nil
}

type fixedCodes map[common.Address]int

func (f fixedCodes) AccountCodeSize(addr common.Address) (int, error) { return f[addr], nil }

func TestRunRejectsUnorderedSlots(t *testing.T) {
	t.Parallel()
	a := statetest.Addr(1)
	seq := &items{
		traversal.AccountOf(a),
		traversal.SlotOf(a, statetest.Key(500)),
		traversal.SlotOf(a, statetest.Key(400)),
	}
	err := newTestPartitioner(t).Run(context.Background(), seq, fixedCodes{}, func(*AccountStemStats) error { return nil }, log.New())
	require.ErrorIs(t, err, ErrUnorderedSlots)

	orphan := &items{traversal.SlotOf(a, statetest.Key(1))}
	require.Error(t, newTestPartitioner(t).Run(context.Background(), orphan, fixedCodes{}, func(*AccountStemStats) error { return nil }, log.New()))
}

func TestEmptyReport(t *testing.T) {
	t.Parallel()
	r := &Report{}
	require.Zero(t, r.TotalStems())
	require.Zero(t, r.Percent(0))
	require.Equal(t, Summary{}, r.Summarize())
}
