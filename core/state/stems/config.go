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

// Package stems estimates how accounts would be laid out in a stem-based state
// tree: an account header bucket holding basic data, the code hash, the first code
// chunks and the first storage slots, followed by storage groups and code overflow buckets.
package stems

import (
	"fmt"
	"math/bits"
)

const (
	DefaultGroupSize           = 256
	DefaultHeaderStorageOffset = 64

	// CodeChunkSize - bytes of code per chunk, one byte of every 32 is reserved for the chunk marker.
	CodeChunkSize = 31

	// basic data + code hash
	headerFields = 2
)

type Config struct {
	GroupSize           uint64 `toml:"group-size" yaml:"group-size"`
	HeaderStorageOffset uint64 `toml:"header-storage-offset" yaml:"header-storage-offset"`
}

func DefaultConfig() Config {
	return Config{GroupSize: DefaultGroupSize, HeaderStorageOffset: DefaultHeaderStorageOffset}
}

type ConfigurationError struct {
	Field  string
	Value  uint64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid stem configuration: %s=%d: %s", e.Field, e.Value, e.Reason)
}

func (c Config) Validate() error {
	if c.GroupSize < 2 || c.GroupSize&(c.GroupSize-1) != 0 {
		return &ConfigurationError{Field: "group-size", Value: c.GroupSize, Reason: "must be a power of two >= 2"}
	}
	if c.HeaderStorageOffset > c.GroupSize/2 {
		return &ConfigurationError{Field: "header-storage-offset", Value: c.HeaderStorageOffset,
			Reason: fmt.Sprintf("must not exceed group-size/2 (%d)", c.GroupSize/2)}
	}
	return nil
}

// CodeOffset - first header position holding code chunks.
func (c Config) CodeOffset() uint64 { return c.GroupSize / 2 }

// HeaderSlotCapacity - storage keys below this value live in the account header.
func (c Config) HeaderSlotCapacity() uint64 { return c.CodeOffset() - c.HeaderStorageOffset }

func (c Config) GroupSizeBits() uint { return uint(bits.TrailingZeros64(c.GroupSize)) }
