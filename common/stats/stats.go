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

// Package stats computes exact order statistics over finite sequences.
package stats

import (
	"errors"
	"slices"

	"golang.org/x/exp/constraints"
)

var ErrEmptySequence = errors.New("stats: empty sequence")

// Stats is a snapshot of distribution statistics. All values are in the unit
// of the input sequence.
type Stats struct {
	Sum     uint64
	Average uint64
	Median  uint64
	P99     uint64
	Max     uint64
}

// Calculate sorts data in place and returns its statistics.
//
// Average truncates. Median is the element at len/2 (the upper median for even
// lengths) and P99 the element at floor(len*99/100).
func Calculate[T constraints.Unsigned](data []T) (Stats, error) {
	if len(data) == 0 {
		return Stats{}, ErrEmptySequence
	}
	slices.Sort(data)

	var sum uint64
	for _, v := range data {
		sum += uint64(v)
	}
	n := uint64(len(data))
	return Stats{
		Sum:     sum,
		Average: sum / n,
		Median:  uint64(data[n/2]),
		P99:     uint64(data[n*99/100]),
		Max:     uint64(data[n-1]),
	}, nil
}

// CalculateOrZero is Calculate for call sites where an empty sequence means
// "nothing to report" rather than a failure.
func CalculateOrZero[T constraints.Unsigned](data []T) Stats {
	s, err := Calculate(data)
	if err != nil {
		return Stats{}
	}
	return s
}
