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
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/core/state/preimages"
	"github.com/jsign/eth-stateless/core/state/traversal"
	"github.com/jsign/eth-stateless/db/datadir"
)

var cmdVerify = &cobra.Command{
	Use:   "verify",
	Short: "Check a preimage file against the state",
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

			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()

			logger.Info("[preimages] Verifying", "ordering", o, "path", inputPath)
			seq, err := traversal.Open(ctx, src, o, cfg)
			if err != nil {
				return err
			}
			sum, err := preimages.Verify(ctx, seq, f, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", inputPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s matches the state: %d accounts, %d storage slots\n",
				inputPath, sum.Accounts, sum.Slots)
			return nil
		})
	},
}

func init() {
	withOrdering(cmdVerify)
	withInputPath(cmdVerify)
	rootCmd.AddCommand(cmdVerify)
}
