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
	"encoding/hex"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pbnjay/memory"
	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/slotfreq"
	"github.com/jsign/eth-stateless/db/datadir"
)

var cmdStorageSlotFreq = &cobra.Command{
	Use:   "storage-slot-freq",
	Short: "Show the most repeated storage slot key prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := freqConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		return withState(ctx, cmd, func(src state.StateSource, _ datadir.Dirs) error {
			reporter := newReporter()
			defer reporter.Close()
			cfg.Progress = reporter.Report
			cfg.Logger = logger

			logger.Info("[slotfreq] Counting storage key prefixes", "prefix-len", cfg.PrefixLen, "max-entries", cfg.MaxEntries)
			res, err := slotfreq.TopK(ctx, src, cfg)
			if err != nil {
				return err
			}
			printFreq(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

func freqConfig() (slotfreq.Config, error) {
	cfg := slotfreq.Config{PrefixLen: prefixLen, TopK: topN, MaxEntries: maxEntries}
	if prefixLen < 1 || prefixLen > common.HashLength {
		return cfg, fmt.Errorf("--prefix-len=%d out of range 1..%d", prefixLen, common.HashLength)
	}
	if cfg.MaxEntries > 0 {
		return cfg, nil
	}
	budget := datasize.ByteSize(memory.TotalMemory() / 4)
	if memoryBudget != "" {
		if err := budget.UnmarshalText([]byte(memoryBudget)); err != nil {
			return cfg, fmt.Errorf("invalid --freq.memory-budget=%s: %w", memoryBudget, err)
		}
	}
	if budget == 0 {
		cfg.MaxEntries = slotfreq.DefaultMaxEntries
		return cfg, nil
	}
	cfg.MaxEntries = slotfreq.MaxEntriesForBudget(budget, prefixLen)
	return cfg, nil
}

func printFreq(w io.Writer, res *slotfreq.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Top %d storage slot %d-byte prefix repetitions (%d slots)", len(res.Entries), res.PrefixLen, res.TotalSlots)
	t.AppendHeader(table.Row{"Prefix", "Count", "%", "MiB", "Cum. MiB"})
	for _, e := range res.Entries {
		t.AppendRow(table.Row{
			hex.EncodeToString(e.Prefix),
			e.Count,
			fmt.Sprintf("%.2f", e.Percentage),
			fmt.Sprintf("%.2f", common.StorageSize(e.Footprint).MiB()),
			fmt.Sprintf("%.2f", common.StorageSize(e.CumulativeFootprint).MiB()),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func init() {
	withFreq(cmdStorageSlotFreq)
	rootCmd.AddCommand(cmdStorageSlotFreq)
}
