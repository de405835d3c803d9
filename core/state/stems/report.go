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
	"github.com/jsign/eth-stateless/common/stats"
)

// Report aggregates the layouts of all accounts of a pass. Add has the
// signature of an emit callback of Partitioner.Run.
type Report struct {
	Accounts  uint64
	EOAs      uint64
	Contracts uint64

	HeaderStems  uint64
	StorageStems uint64
	CodeStems    uint64

	CodeLens          []uint64
	SlotCounts        []uint64
	AccountStems      []uint64
	StorageStemCounts []uint64
}

func (r *Report) Add(s *AccountStemStats) error {
	r.Accounts++
	if s.IsEOA() {
		r.EOAs++
	} else {
		r.Contracts++
	}
	r.HeaderStems++
	r.StorageStems += uint64(len(s.SSStems))
	r.CodeStems += s.CodeStems

	r.CodeLens = append(r.CodeLens, s.CodeLen)
	r.AccountStems = append(r.AccountStems, s.AccountStem)
	r.StorageStemCounts = append(r.StorageStemCounts, uint64(len(s.SSStems)))
	if s.SlotCount > 0 {
		r.SlotCounts = append(r.SlotCounts, s.SlotCount)
	}
	return nil
}

func (r *Report) TotalStems() uint64 { return r.HeaderStems + r.StorageStems + r.CodeStems }

// Percent of all stems, 0 for an empty report.
func (r *Report) Percent(n uint64) float64 {
	total := r.TotalStems()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

type Summary struct {
	CodeLens          stats.Stats
	ContractCodeLens  stats.Stats
	SlotCounts        stats.Stats
	AccountStems      stats.Stats
	StorageStemCounts stats.Stats
}

// Summarize computes order statistics of the per-account sequences. The
// sequences are sorted in place. An empty report yields zero statistics, as do
// empty ContractCodeLens (no contracts) and SlotCounts (no account has storage).
// SlotCounts only covers accounts with at least one slot.
func (r *Report) Summarize() Summary {
	contractLens := make([]uint64, 0, r.Contracts)
	for _, l := range r.CodeLens {
		if l > 0 {
			contractLens = append(contractLens, l)
		}
	}
	return Summary{
		CodeLens:          stats.CalculateOrZero(r.CodeLens),
		ContractCodeLens:  stats.CalculateOrZero(contractLens),
		SlotCounts:        stats.CalculateOrZero(r.SlotCounts),
		AccountStems:      stats.CalculateOrZero(r.AccountStems),
		StorageStemCounts: stats.CalculateOrZero(r.StorageStemCounts),
	}
}
