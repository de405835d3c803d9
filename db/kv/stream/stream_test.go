// Copyright 2021 The Erigon Authors
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

package stream_test

import (
	"errors"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/db/kv/stream"
)

type ints struct {
	vals   []int
	failAt int
	closed bool
}

func (s *ints) HasNext() bool { return len(s.vals) > 0 }
func (s *ints) Close()        { s.closed = true }
func (s *ints) Next() (int, error) {
	if len(s.vals) == 0 {
		return 0, stream.ErrIteratorExhausted
	}
	v := s.vals[0]
	if v == s.failAt {
		return 0, errors.New("boom")
	}
	s.vals = s.vals[1:]
	return v, nil
}

func recorder(msgs *[]string) log.Logger {
	logger := log.New()
	logger.SetHandler(log.FuncHandler(func(r *log.Record) error {
		*msgs = append(*msgs, r.Msg)
		return nil
	}))
	return logger
}

func TestTrace(t *testing.T) {
	var msgs []string
	src := &ints{vals: []int{1, 2}}
	s := stream.Trace[int](src, recorder(&msgs), "test")

	var res []int
	for s.HasNext() {
		v, err := s.Next()
		require.NoError(t, err)
		res = append(res, v)
	}
	require.Equal(t, []int{1, 2}, res)
	require.Equal(t, []string{"[test] stream", "[test] stream"}, msgs)

	_, err := s.Next()
	require.ErrorIs(t, err, stream.ErrIteratorExhausted)
	require.Equal(t, "[test] stream error", msgs[2])

	s.Close()
	require.True(t, src.closed)
}

func TestTraceError(t *testing.T) {
	var msgs []string
	s := stream.Trace[int](&ints{vals: []int{1, 7}, failAt: 7}, recorder(&msgs), "test")
	v, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	_, err = s.Next()
	require.EqualError(t, err, "boom")
	require.Equal(t, []string{"[test] stream", "[test] stream error"}, msgs)
}
