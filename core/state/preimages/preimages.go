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

// Package preimages writes and checks preimage files: the raw addresses and
// storage keys of a traversal concatenated in traversal order, without
// delimiters. A file is only meaningful together with the ordering that produced it.
package preimages

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state/traversal"
)

const bufSize = 1 << 20

var (
	ErrTruncated    = errors.New("preimage file truncated")
	ErrTrailingData = errors.New("preimage file has data after the last item")
)

// FormatMismatchError - the file disagrees with the state at item Index, whose
// preimage starts at byte Offset of the file.
type FormatMismatchError struct {
	Index  uint64
	Offset uint64
	Item   traversal.Item
	Got    []byte
}

func (e *FormatMismatchError) Error() string {
	if e.Item.Kind == traversal.AccountItem {
		return fmt.Sprintf("address %x preimage mismatch at offset %d (item %d): file has %x",
			e.Item.Address, e.Offset, e.Index, e.Got)
	}
	return fmt.Sprintf("storage slot %x preimage (address %x) mismatch at offset %d (item %d): file has %x",
		e.Item.Key, e.Item.Address, e.Offset, e.Index, e.Got)
}

type Summary struct {
	Accounts uint64
	Slots    uint64
	Bytes    uint64
}

func (s *Summary) add(it traversal.Item) {
	if it.Kind == traversal.AccountItem {
		s.Accounts++
	} else {
		s.Slots++
	}
	s.Bytes += uint64(it.PreimageLen())
}

// Generate writes the preimage of every item of seq to w and closes seq.
func Generate(ctx context.Context, seq traversal.Sequence, w io.Writer, logger log.Logger) (Summary, error) {
	defer seq.Close()
	logEvery := time.NewTicker(30 * time.Second)
	defer logEvery.Stop()

	bw := bufio.NewWriterSize(w, bufSize)
	var sum Summary
	for seq.HasNext() {
		it, err := seq.Next()
		if err != nil {
			return sum, err
		}
		if _, err := bw.Write(it.Preimage()); err != nil {
			return sum, fmt.Errorf("writing %s preimage: %w", it.Kind, err)
		}
		sum.add(it)

		select {
		default:
		case <-logEvery.C:
			if err := common.Stopped(ctx); err != nil {
				return sum, err
			}
			logger.Info("[preimages] Generating", "accounts", sum.Accounts, "slots", sum.Slots,
				"written", common.StorageSize(sum.Bytes), "addr", it.Address)
		}
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("flushing preimages: %w", err)
	}
	logger.Info("[preimages] Generated", "accounts", sum.Accounts, "slots", sum.Slots, "size", common.StorageSize(sum.Bytes))
	return sum, nil
}

// Verify checks that r holds exactly the preimages of seq, in order, and closes
// seq. It stops at the first difference.
func Verify(ctx context.Context, seq traversal.Sequence, r io.Reader, logger log.Logger) (Summary, error) {
	defer seq.Close()
	logEvery := time.NewTicker(30 * time.Second)
	defer logEvery.Stop()

	br := bufio.NewReaderSize(r, bufSize)
	var (
		sum   Summary
		index uint64
		buf   [common.HashLength]byte
	)
	for seq.HasNext() {
		it, err := seq.Next()
		if err != nil {
			return sum, err
		}
		got := buf[:it.PreimageLen()]
		if n, err := io.ReadFull(br, got); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return sum, fmt.Errorf("%w: %d of %d bytes of %s at offset %d", ErrTruncated, n, len(got), it, sum.Bytes)
			}
			return sum, fmt.Errorf("reading %s preimage: %w", it.Kind, err)
		}
		if !bytes.Equal(got, it.Preimage()) {
			return sum, &FormatMismatchError{Index: index, Offset: sum.Bytes, Item: it, Got: bytes.Clone(got)}
		}
		sum.add(it)
		index++

		select {
		default:
		case <-logEvery.C:
			if err := common.Stopped(ctx); err != nil {
				return sum, err
			}
			logger.Info("[preimages] Verifying", "accounts", sum.Accounts, "slots", sum.Slots,
				"read", common.StorageSize(sum.Bytes), "addr", it.Address)
		}
	}
	if _, err := br.ReadByte(); err == nil {
		return sum, fmt.Errorf("%w: offset %d", ErrTrailingData, sum.Bytes)
	} else if !errors.Is(err, io.EOF) {
		return sum, fmt.Errorf("reading preimages: %w", err)
	}
	logger.Info("[preimages] Verified", "accounts", sum.Accounts, "slots", sum.Slots, "size", common.StorageSize(sum.Bytes))
	return sum, nil
}
