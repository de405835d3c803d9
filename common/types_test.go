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

package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	a := HexToAddress("0x00000000000000000000000000000000000000ff")
	require.Equal(t, byte(0xff), a[AddressLength-1])
	require.Equal(t, "0x00000000000000000000000000000000000000ff", a.String())
	require.Equal(t, a, HexToAddress("00000000000000000000000000000000000000ff"))
	require.Equal(t, 1, a.Cmp(Address{}))

	// longer input keeps the trailing bytes
	long := BytesToAddress(make([]byte, 32))
	require.Equal(t, Address{}, long)
}

func TestHash(t *testing.T) {
	h := HexToHash("0x01")
	require.Equal(t, byte(1), h[HashLength-1])
	require.Equal(t, -1, Hash{}.Cmp(h))
	require.Equal(t, "000000..000001", h.TerminalString())
	require.Equal(t, h, BytesToHash(h.Bytes()))
}

func TestKeccak256(t *testing.T) {
	require.Equal(t, HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"), EmptyCodeHash)
	require.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func TestStorageSize(t *testing.T) {
	require.Equal(t, "1.50 KiB", StorageSize(1536).String())
	require.Equal(t, "2.00MiB", StorageSize(2*1048576).TerminalString())
	require.InDelta(t, 0.5, StorageSize(524288).MiB(), 1e-12)
	require.Equal(t, "12.00 B", StorageSize(12).String())
}

func TestStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, Stopped(ctx))
	cancel()
	require.ErrorIs(t, Stopped(ctx), context.Canceled)
}
