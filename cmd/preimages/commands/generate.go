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
	"os"

	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/cmd/utils"
	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/preimages"
	"github.com/jsign/eth-stateless/core/state/traversal"
	"github.com/jsign/eth-stateless/db/datadir"
)

var cmdGenerate = &cobra.Command{
	Use:   "generate",
	Short: "Write the preimages of all accounts and storage slots to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := ordering()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		return withState(ctx, cmd, func(src state.StateSource, dirs datadir.Dirs) error {
			cfg, err := utils.TraversalConfig(cmd.Flags(), dirs, logger)
			if err != nil {
				return err
			}
			reporter := newReporter()
			defer reporter.Close()
			cfg.Progress = reporter.Report

			logger.Info("[preimages] Generating", "ordering", o, "path", outputPath)
			lock, err := datadir.TryFlock(outputPath)
			if err != nil {
				return fmt.Errorf("%s: %w", outputPath, err)
			}
			defer func() {
				_ = lock.Unlock()
				_ = os.Remove(lock.Path())
			}()

			seq, err := traversal.Open(ctx, src, o, cfg)
			if err != nil {
				return err
			}
			f, err := os.Create(outputPath)
			if err != nil {
				seq.Close()
				return err
			}
			sum, err := preimages.Generate(ctx, seq, f, logger)
			if err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d accounts and %d storage slots (%s) to %s\n",
				sum.Accounts, sum.Slots, common.StorageSize(sum.Bytes), outputPath)
			return nil
		})
	},
}

func init() {
	withOrdering(cmdGenerate)
	withOutputPath(cmdGenerate)
	rootCmd.AddCommand(cmdGenerate)
}
