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

package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/core/state/slotfreq"
	"github.com/jsign/eth-stateless/core/state/traversal"
)

var (
	outputPath  string
	inputPath   string
	plain       bool
	hashOrdered bool

	topN         int
	prefixLen    int
	maxEntries   int
	memoryBudget string
)

var errOrdering = errors.New("exactly one of --plain or --hash-ordered is required")

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func withOrdering(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&plain, "plain", false, "accounts by address, slots by key")
	cmd.Flags().BoolVar(&hashOrdered, "hash-ordered", false, "accounts by keccak256(address), slots by keccak256(key)")
	cmd.MarkFlagsMutuallyExclusive("plain", "hash-ordered")
}

func ordering() (traversal.Ordering, error) {
	switch {
	case plain == hashOrdered:
		return 0, errOrdering
	case plain:
		return traversal.Plain, nil
	default:
		return traversal.HashSorted, nil
	}
}

func withOutputPath(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputPath, "output-path", "preimages.bin", "path of the preimage file to write")
	must(cmd.MarkFlagFilename("output-path"))
}

func withInputPath(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputPath, "path", "preimages.bin", "path of the preimage file to verify")
	must(cmd.MarkFlagFilename("path"))
}

func withFreq(cmd *cobra.Command) {
	cmd.Flags().IntVar(&topN, "top-n", slotfreq.DefaultTopK, "number of most repeated prefixes to show")
	cmd.Flags().IntVar(&prefixLen, "prefix-len", slotfreq.DefaultPrefixLen, "leading storage key bytes compared, 1..32")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "prefix table size that triggers pruning of prefixes seen once, derived from --freq.memory-budget if 0")
	cmd.Flags().StringVar(&memoryBudget, "freq.memory-budget", "", "memory for the prefix table, a quarter of the total memory if empty")
	cmd.MarkFlagsMutuallyExclusive("max-entries", "freq.memory-budget")
}
