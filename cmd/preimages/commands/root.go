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
	"context"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/cmd/utils"
	"github.com/jsign/eth-stateless/common/progress"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/db/datadir"
	"github.com/jsign/eth-stateless/db/kv"
)

var logger = log.Root()

var rootCmd = &cobra.Command{
	Use:          "preimages",
	Short:        "Generate and verify state preimage files, analyze storage slot keys",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := utils.SetupCobra(cmd, "preimages")
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func RootCommand() *cobra.Command {
	utils.CobraFlags(rootCmd)
	return rootCmd
}

// withState runs f over a read transaction of the database named by the flags.
func withState(ctx context.Context, cmd *cobra.Command, f func(src state.StateSource, dirs datadir.Dirs) error) error {
	dirs, err := utils.DirsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	db, err := utils.OpenDB(ctx, dirs, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(ctx, func(tx kv.Tx) error {
		return f(state.NewPlainStateReader(tx), dirs)
	})
}

func newReporter() *progress.AddressReporter {
	return progress.NewAddressReporter("preimages", 30*time.Second, logger)
}
