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

package progress

import (
	"testing"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
)

func TestFromAddress(t *testing.T) {
	require.Equal(t, uint64(0), FromAddress(common.Address{}))
	require.Equal(t, uint64(0x1234), FromAddress(common.HexToAddress("0x1234000000000000000000000000000000000000")))
	require.InDelta(t, 50.0, Percent(common.HexToAddress("0x8000000000000000000000000000000000000000")), 1e-9)
}

func TestReporterCounts(t *testing.T) {
	r := NewAddressReporter("test", time.Hour, log.New())
	defer r.Close()
	for i := 0; i < 10; i++ {
		r.Report(common.Address{byte(i)})
	}
	require.Equal(t, uint64(10), r.Seen())
}

func TestEstimate(t *testing.T) {
	rate, eta := estimate(addressSpace/4, 500, 10*time.Second)
	require.InDelta(t, 50.0, rate, 1e-9)
	require.Equal(t, 30*time.Second, eta)

	rate, eta = estimate(0, 0, 0)
	require.Zero(t, rate)
	require.Zero(t, eta)

	_, eta = estimate(addressSpace, 10, time.Minute)
	require.Zero(t, eta)
}

func TestReporterLogsRateAndETA(t *testing.T) {
	var recs []*log.Record
	logger := log.New()
	logger.SetHandler(log.FuncHandler(func(r *log.Record) error {
		recs = append(recs, r)
		return nil
	}))
	r := NewAddressReporter("test", time.Millisecond, logger)
	defer r.Close()
	time.Sleep(5 * time.Millisecond)
	r.Report(common.HexToAddress("0x4000000000000000000000000000000000000000"))

	require.Len(t, recs, 1)
	require.Equal(t, "[test] Progress", recs[0].Msg)
	keys := map[string]bool{}
	for i := 0; i+1 < len(recs[0].Ctx); i += 2 {
		keys[recs[0].Ctx[i].(string)] = true
	}
	for _, k := range []string{"progress", "accounts", "accounts/s", "eta", "elapsed"} {
		require.True(t, keys[k], k)
	}
}
