// Copyright 2021 The Erigon Authors
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

package datadir

import (
	"errors"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
)

// Dirs - layout of a node data directory as seen by the analysis tools. Nothing
// is created by New: the state database must exist, Tmp is created on first spill.
type Dirs struct {
	DataDir         string
	RelativeDataDir string // like dataDir, but without filepath.Abs() resolution
	Chaindata       string
	Tmp             string
	Logs            string
}

func New(datadir string) Dirs {
	relativeDataDir := datadir
	if datadir != "" {
		absdatadir, err := filepath.Abs(datadir)
		if err != nil {
			panic(err)
		}
		datadir = absdatadir
	}

	return Dirs{
		RelativeDataDir: relativeDataDir,
		DataDir:         datadir,
		Chaindata:       filepath.Join(datadir, "chaindata"),
		Tmp:             filepath.Join(datadir, "temp"),
		Logs:            filepath.Join(datadir, "logs"),
	}
}

var (
	ErrFileLocked = errors.New("file already used by another process")

	fileInUseErrNos = map[uint]bool{11: true, 32: true, 35: true}
)

func convertFileLockError(err error) error {
	//nolint
	if errno, ok := err.(syscall.Errno); ok && fileInUseErrNos[uint(errno)] {
		return ErrFileLocked
	}
	return err
}

// TryFlock takes an exclusive lock on path+".lock", so that two processes never
// write the same output file.
func TryFlock(path string) (*flock.Flock, error) {
	l := flock.New(path + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return nil, convertFileLockError(err)
	}
	if !locked {
		return nil, ErrFileLocked
	}
	return l, nil
}
