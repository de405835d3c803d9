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

package logging

import (
	"github.com/spf13/cobra"
)

type Flag struct {
	Name  string
	Usage string
	Value string
}

var (
	LogJsonFlag = Flag{
		Name:  "log.json",
		Usage: "Format console logs with JSON",
	}
	LogConsoleJsonFlag = Flag{
		Name:  "log.console.json",
		Usage: "Format console logs with JSON",
	}
	LogDirJsonFlag = Flag{
		Name:  "log.dir.json",
		Usage: "Format file logs with JSON",
	}
	LogVerbosityFlag = Flag{
		Name:  "verbosity",
		Usage: "Set the log level for console logs",
		Value: "info",
	}
	LogConsoleVerbosityFlag = Flag{
		Name:  "log.console.verbosity",
		Usage: "Set the log level for console logs",
		Value: "info",
	}
	LogDirPathFlag = Flag{
		Name:  "log.dir.path",
		Usage: "Path to store user and error logs to disk, <datadir>/logs if empty",
	}
	LogDirVerbosityFlag = Flag{
		Name:  "log.dir.verbosity",
		Usage: "Set the log verbosity for logs stored to disk",
		Value: "info",
	}
)

// Flags registers the logging flags on cmd and all of its subcommands.
func Flags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	for _, b := range []Flag{LogJsonFlag, LogConsoleJsonFlag, LogDirJsonFlag} {
		f.Bool(b.Name, false, b.Usage)
	}
	for _, s := range []Flag{LogVerbosityFlag, LogConsoleVerbosityFlag, LogDirPathFlag, LogDirVerbosityFlag} {
		f.String(s.Name, s.Value, s.Usage)
	}
}
