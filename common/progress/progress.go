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
	"fmt"
	"runtime"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/common/dbg"
)

// addressSpace is the number of distinct two-byte address prefixes.
const addressSpace = 0x10000

// FromAddress maps an address to its position in the address space, using the
// first two bytes. Addresses are uniformly distributed, so this is a fair
// proxy for how far a plain-ordered pass has got.
func FromAddress(addr common.Address) uint64 {
	return uint64(addr[0])<<8 | uint64(addr[1])
}

// Percent of the address space below addr.
func Percent(addr common.Address) float64 {
	return float64(FromAddress(addr)) * 100 / addressSpace
}

// AddressReporter logs the current address at most once per interval. It never
// affects the caller: Report does not block and holds no other state.
type AddressReporter struct {
	logPrefix string
	logger    log.Logger
	logEvery  *time.Ticker
	started   time.Time
	seen      uint64
}

func NewAddressReporter(logPrefix string, interval time.Duration, logger log.Logger) *AddressReporter {
	return &AddressReporter{
		logPrefix: logPrefix,
		logger:    logger,
		logEvery:  time.NewTicker(interval),
		started:   time.Now(),
	}
}

// Report is a traversal progress callback.
func (r *AddressReporter) Report(addr common.Address) {
	r.seen++
	select {
	default:
	case <-r.logEvery.C:
		var m runtime.MemStats
		dbg.ReadMemStats(&m)
		elapsed := time.Since(r.started)
		rate, eta := estimate(FromAddress(addr), r.seen, elapsed)
		r.logger.Info(fmt.Sprintf("[%s] Progress", r.logPrefix),
			"addr", addr.Hex(),
			"progress", fmt.Sprintf("%.2f%%", Percent(addr)),
			"accounts", r.seen,
			"accounts/s", fmt.Sprintf("%.0f", rate),
			"eta", eta,
			"elapsed", elapsed.Round(time.Second),
			"alloc", common.StorageSize(m.Alloc), "sys", common.StorageSize(m.Sys))
	}
}

// estimate returns the reporting rate and the remaining time, extrapolated from
// the share of the address space covered so far. eta is 0 until pos moves.
func estimate(pos, seen uint64, elapsed time.Duration) (rate float64, eta time.Duration) {
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(seen) / secs
	}
	if pos == 0 || pos >= addressSpace {
		return rate, 0
	}
	eta = time.Duration(float64(elapsed) * float64(addressSpace-pos) / float64(pos))
	return rate, eta.Round(time.Second)
}

// Seen is the number of addresses reported so far.
func (r *AddressReporter) Seen() uint64 { return r.seen }

func (r *AddressReporter) Close() { r.logEvery.Stop() }
