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
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jsign/eth-stateless/db/datadir"
)

// SetupLoggerCmd configures the root logger from the flags registered by Flags
// and returns it. File logs go to <log.dir.path>/<filePrefix>.log, or to
// <datadir>/logs when only --datadir is set.
func SetupLoggerCmd(filePrefix string, cmd *cobra.Command) log.Logger {
	flags := cmd.Flags()
	logJsonVal, ljerr := flags.GetBool(LogJsonFlag.Name)
	if ljerr != nil {
		logJsonVal = false
	}

	logConsoleJsonVal, lcjerr := flags.GetBool(LogConsoleJsonFlag.Name)
	if lcjerr != nil {
		logConsoleJsonVal = false
	}

	var consoleJson = logJsonVal || logConsoleJsonVal
	dirJson, djerr := flags.GetBool(LogDirJsonFlag.Name)
	if djerr != nil {
		dirJson = false
	}

	consoleLevel := ConsoleLevel(flags)

	dirLevel, dErr := tryGetLogLevel(lookup(flags, LogDirVerbosityFlag.Name))
	if dErr != nil {
		dirLevel = log.LvlInfo
	}

	dirPath := lookup(flags, LogDirPathFlag.Name)
	if dirPath == "" {
		if d := lookup(flags, "datadir"); d != "" {
			dirPath = datadir.New(d).Logs
		}
	}
	return initSeparatedLogging(filePrefix, dirPath, consoleLevel, dirLevel, consoleJson, dirJson, os.Stderr)
}

// ConsoleLevel - --log.console.verbosity when set, --verbosity otherwise.
func ConsoleLevel(flags *pflag.FlagSet) log.Lvl {
	consoleLevel, lErr := tryGetLogLevel(lookup(flags, LogConsoleVerbosityFlag.Name))
	if lErr != nil || !flags.Changed(LogConsoleVerbosityFlag.Name) {
		// try verbosity flag
		consoleLevel, lErr = tryGetLogLevel(lookup(flags, LogVerbosityFlag.Name))
		if lErr != nil {
			consoleLevel = log.LvlInfo
		}
	}
	return consoleLevel
}

func lookup(flags *pflag.FlagSet, name string) string {
	f := flags.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func initSeparatedLogging(
	filePrefix string,
	dirPath string,
	consoleLevel log.Lvl,
	dirLevel log.Lvl,
	consoleJson bool,
	dirJson bool,
	console *os.File) log.Logger {

	logger := log.Root()

	if consoleJson {
		logger.SetHandler(log.LvlFilterHandler(consoleLevel, log.StreamHandler(console, log.JsonFormat())))
	} else {
		usecolor := (isatty.IsTerminal(console.Fd()) || isatty.IsCygwinTerminal(console.Fd())) && os.Getenv("TERM") != "dumb"
		output, format := io.Writer(console), log.TerminalFormatNoColor()
		if usecolor {
			output, format = colorable.NewColorable(console), log.TerminalFormat()
		}
		logger.SetHandler(log.LvlFilterHandler(consoleLevel, log.StreamHandler(output, format)))
	}

	if len(dirPath) == 0 {
		logger.Debug("no log dir set, console logging only")
		return logger
	}

	err := os.MkdirAll(dirPath, 0764)
	if err != nil {
		logger.Warn("failed to create log dir, console logging only", "err", err)
		return logger
	}

	dirFormat := log.TerminalFormatNoColor()
	if dirJson {
		dirFormat = log.JsonFormat()
	}

	lumberjack := &lumberjack.Logger{
		Filename:   filepath.Join(dirPath, filePrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, //days
	}
	userLog := log.StreamHandler(lumberjack, dirFormat)

	mux := log.MultiHandler(logger.GetHandler(), log.LvlFilterHandler(dirLevel, userLog))
	logger.SetHandler(mux)
	logger.Info("logging to file system", "log dir", dirPath, "file prefix", filePrefix, "log level", dirLevel, "json", dirJson)
	return logger
}

func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		l, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return log.Lvl(l), nil
	}
	return lvl, nil
}
