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
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/cmd/utils"
	"github.com/jsign/eth-stateless/common/progress"
	"github.com/jsign/eth-stateless/common/stats"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/stems"
	"github.com/jsign/eth-stateless/core/state/traversal"
	"github.com/jsign/eth-stateless/db/kv"
)

var (
	stemCfg       = stems.DefaultConfig()
	codeCacheSize int
)

var cmdAccountsStats = &cobra.Command{
	Use:   "accounts-stats",
	Short: "Report how accounts, storage and code would be split into stems",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := stems.NewPartitioner(stemCfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		dirs, err := utils.DirsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		db, err := utils.OpenDB(ctx, dirs, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		report := &stems.Report{}
		if err := db.View(ctx, func(tx kv.Tx) error {
			src := state.NewPlainStateReader(tx)
			codes, err := state.NewCodeSizeCache(src, codeCacheSize)
			if err != nil {
				return err
			}
			reporter := progress.NewAddressReporter("analysis", 30*time.Second, logger)
			defer reporter.Close()

			cfg, err := utils.TraversalConfig(cmd.Flags(), dirs, logger)
			if err != nil {
				return err
			}
			cfg.Progress = reporter.Report
			seq, err := traversal.Open(ctx, src, traversal.Plain, cfg)
			if err != nil {
				return err
			}
			if err := p.Run(ctx, seq, codes, report.Add, logger); err != nil {
				return err
			}
			hits, misses := codes.Stats()
			logger.Debug("[analysis] Code size cache", "hits", hits, "misses", misses)
			return nil
		}); err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	f := cmdAccountsStats.Flags()
	f.Uint64Var(&stemCfg.GroupSize, "group-size", stems.DefaultGroupSize, "leaves per stem, a power of two")
	f.Uint64Var(&stemCfg.HeaderStorageOffset, "header-storage-offset", stems.DefaultHeaderStorageOffset, "first header position holding storage slots")
	f.IntVar(&codeCacheSize, "code.cache.size", state.DefaultCodeSizeCacheSize, "code sizes kept in memory")
	rootCmd.AddCommand(cmdAccountsStats)
}

func printReport(w io.Writer, r *stems.Report) {
	sum := r.Summarize()

	t := newTable(w, "Accounts")
	t.AppendHeader(table.Row{"EOAs", "Contracts", "Total"})
	t.AppendRow(table.Row{r.EOAs, r.Contracts, r.Accounts})
	t.Render()

	t = newTable(w, "Code lengths")
	statsHeader(t)
	statsRow(t, "All accounts", sum.CodeLens)
	statsRow(t, "Contracts", sum.ContractCodeLens)
	t.Render()

	t = newTable(w, "Storage slots")
	statsHeader(t)
	statsRow(t, "Accounts with storage", sum.SlotCounts)
	t.Render()

	t = newTable(w, "Stems type counts")
	t.AppendHeader(table.Row{"", "Total", "%"})
	for _, row := range []struct {
		name string
		n    uint64
	}{
		{"Contract header stems", r.HeaderStems},
		{"Storage-slots stems", r.StorageStems},
		{"Code-chunks stems", r.CodeStems},
	} {
		t.AppendRow(table.Row{row.name, row.n, fmt.Sprintf("%.2f%%", r.Percent(row.n))})
	}
	t.AppendFooter(table.Row{"Total", r.TotalStems(), ""})
	t.Render()

	t = newTable(w, "Stem usage per account")
	statsHeader(t)
	statsRow(t, "Contract header stem slots", sum.AccountStems)
	statsRow(t, "Storage-slots stems", sum.StorageStemCounts)
	t.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s", title)
	return t
}

func statsHeader(t table.Writer) {
	t.AppendHeader(table.Row{"", "Sum", "Average", "Median", "P99", "Max"})
}

func statsRow(t table.Writer, name string, s stats.Stats) {
	t.AppendRow(table.Row{name, s.Sum, s.Average, s.Median, s.P99, s.Max})
}
