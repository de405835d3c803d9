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
	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"

	"github.com/jsign/eth-stateless/cmd/utils"
)

var logger = log.Root()

var rootCmd = &cobra.Command{
	Use:          "analysis",
	Short:        "Analyze the layout of the state under a stem based tree",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := utils.SetupCobra(cmd, "analysis")
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
