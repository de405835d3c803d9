// Copyright 2015 The go-ethereum Authors
// (original work)
// Copyright 2024 The Erigon Authors
// (modifications)
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

// Package utils contains the flags and helpers shared by the commands.
package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jsign/eth-stateless/common/etl"
	"github.com/jsign/eth-stateless/core/state/traversal"
	"github.com/jsign/eth-stateless/db/datadir"
	"github.com/jsign/eth-stateless/db/kv"
	"github.com/jsign/eth-stateless/db/kv/mdbx"
	"github.com/jsign/eth-stateless/turbo/logging"
)

type Flag struct {
	Name  string
	Usage string
	Value string
}

var (
	DataDirFlag = Flag{
		Name:  "datadir",
		Usage: "Data directory of the node holding the state database",
	}
	ChaindataFlag = Flag{
		Name:  "chaindata",
		Usage: "Path of the state database, <datadir>/chaindata if empty",
	}
	ConfigFlag = Flag{
		Name:  "config",
		Usage: "Sets flags from YAML/TOML file",
	}
	TmpDirFlag = Flag{
		Name:  "tmpdir",
		Usage: "Directory for temporary sort files, <datadir>/temp if empty",
	}
	EtlBufferSizeFlag = Flag{
		Name:  "etl.bufferSize",
		Usage: "Memory used to sort accounts before spilling to tmpdir",
		Value: etl.BufferOptimalSize.String(),
	}
	SortWorkersFlag = Flag{
		Name:  "sort.workers",
		Usage: "Goroutines used to sort, the number of CPUs if 0",
		Value: "0",
	}
)

var ErrNoDatadir = errors.New("--datadir is not set")

// CobraFlags registers the shared flags on the root command.
func CobraFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	for _, f := range []Flag{DataDirFlag, ChaindataFlag, ConfigFlag, TmpDirFlag, EtlBufferSizeFlag} {
		flags.String(f.Name, f.Value, f.Usage)
	}
	flags.Int(SortWorkersFlag.Name, 0, SortWorkersFlag.Usage)
	must(cmd.MarkPersistentFlagDirname(DataDirFlag.Name))
	must(cmd.MarkPersistentFlagFilename(ConfigFlag.Name, "toml", "yaml", "yml"))
	logging.Flags(cmd)
}

// SetupCobra applies the --config file and configures logging. It is meant
// for PersistentPreRunE of the root command.
func SetupCobra(cmd *cobra.Command, filePrefix string) (log.Logger, error) {
	if path, _ := cmd.Flags().GetString(ConfigFlag.Name); path != "" {
		if err := SetFlagsFromConfigFile(cmd, path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	return logging.SetupLoggerCmd(filePrefix, cmd), nil
}

func DirsFromFlags(f *pflag.FlagSet) (datadir.Dirs, error) {
	dataDir, err := f.GetString(DataDirFlag.Name)
	if err != nil {
		return datadir.Dirs{}, err
	}
	if dataDir == "" {
		return datadir.Dirs{}, ErrNoDatadir
	}
	dirs := datadir.New(dataDir)
	if v, _ := f.GetString(ChaindataFlag.Name); v != "" {
		dirs.Chaindata = v
	}
	if v, _ := f.GetString(TmpDirFlag.Name); v != "" {
		dirs.Tmp = v
	}
	return dirs, nil
}

// TraversalConfig - sort settings from the flags, spilling into dirs.Tmp.
func TraversalConfig(f *pflag.FlagSet, dirs datadir.Dirs, logger log.Logger) (traversal.Config, error) {
	var bufSize datasize.ByteSize
	s, err := f.GetString(EtlBufferSizeFlag.Name)
	if err != nil {
		return traversal.Config{}, err
	}
	if err := bufSize.UnmarshalText([]byte(s)); err != nil {
		return traversal.Config{}, fmt.Errorf("invalid --%s=%s: %w", EtlBufferSizeFlag.Name, s, err)
	}
	workers, err := f.GetInt(SortWorkersFlag.Name)
	if err != nil {
		return traversal.Config{}, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return traversal.Config{
		TmpDir:     dirs.Tmp,
		BufferSize: bufSize,
		Workers:    workers,
		Trace:      logging.ConsoleLevel(f) == log.LvlTrace,
		Logger:     logger,
	}, nil
}

// OpenDB opens the state database read-only. Tables missing from it read as empty.
func OpenDB(ctx context.Context, dirs datadir.Dirs, logger log.Logger) (*mdbx.MdbxKV, error) {
	db, err := mdbx.NewMDBX(logger).
		Label(kv.ChainDB).
		Path(dirs.Chaindata).
		WithTableCfg(kv.StateTablesCfg).
		Readonly().
		Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dirs.Chaindata, err)
	}
	return db, nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
