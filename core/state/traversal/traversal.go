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

// Package traversal produces the accounts and storage slots of a plain state as
// one lazy, forward-only sequence in either database order or hash order.
package traversal

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/common/etl"
	"github.com/jsign/eth-stateless/core/state"
	"github.com/jsign/eth-stateless/db/kv/stream"
)

// Sequence - every storage slot is preceded by the account owning it, and the
// slots of one account are contiguous. After an error HasNext is false.
type Sequence = stream.Uno[Item]

type Config struct {
	// TmpDir - spill directory of the account sort, os.TempDir() if empty.
	TmpDir string
	// BufferSize - memory for sorted accounts before spilling to TmpDir.
	BufferSize datasize.ByteSize
	// Workers - goroutines used by sorts, runtime.NumCPU() if zero.
	Workers int
	// Progress observes the address of every account read from the source.
	Progress func(common.Address)
	// Trace logs every item of the sequence at trace level.
	Trace  bool
	Logger log.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.TmpDir == "" {
		cfg.TmpDir = os.TempDir()
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = etl.BufferOptimalSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Progress == nil {
		cfg.Progress = func(common.Address) {}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Root()
	}
	return cfg
}

// Open starts a traversal of src. For HashSorted it reads and sorts every account
// address before returning, slots are read lazily per account in both orderings.
func Open(ctx context.Context, src state.StateSource, ordering Ordering, cfg Config) (Sequence, error) {
	cfg = cfg.withDefaults()
	var seq Sequence
	switch ordering {
	case Plain:
		s, err := openPlain(ctx, src, cfg)
		if err != nil {
			return nil, err
		}
		seq = s
	case HashSorted:
		s, err := openHashSorted(ctx, src, cfg)
		if err != nil {
			return nil, err
		}
		seq = s
	default:
		return nil, fmt.Errorf("traversal: unsupported ordering %s", ordering)
	}
	if cfg.Trace {
		seq = stream.Trace[Item](seq, cfg.Logger, "traversal "+ordering.String())
	}
	return seq, nil
}

type counters struct {
	numAccounts, numSlots uint64
}
