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

package etl

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/c2h5oh/datasize"
	"golang.org/x/sync/errgroup"
)

const (
	// BufferOptimalSize - default memory budget of a collector before it spills a sorted run to disk
	BufferOptimalSize = 256 * datasize.MB

	// ParallelSortThreshold - buffers with fewer records are sorted on the calling goroutine
	ParallelSortThreshold = 1 << 15

	// BufIOSize - buffered reader/writer size for spilled runs
	BufIOSize = 64 * 4096
)

// fixedBuffer is a view over a contiguous slice of fixed-width records. Records
// are ordered by raw byte comparison, so a record layout of key||value sorts by key.
type fixedBuffer struct {
	data       []byte
	recordSize int
	tmp        []byte
}

func newFixedBuffer(data []byte, recordSize int) *fixedBuffer {
	return &fixedBuffer{data: data, recordSize: recordSize, tmp: make([]byte, recordSize)}
}

func (b *fixedBuffer) record(i int) []byte {
	off := i * b.recordSize
	return b.data[off : off+b.recordSize : off+b.recordSize]
}

func (b *fixedBuffer) Len() int { return len(b.data) / b.recordSize }

func (b *fixedBuffer) Less(i, j int) bool {
	return bytes.Compare(b.record(i), b.record(j)) < 0
}

func (b *fixedBuffer) Swap(i, j int) {
	ri, rj := b.record(i), b.record(j)
	copy(b.tmp, ri)
	copy(ri, rj)
	copy(rj, b.tmp)
}

// SortFixed sorts buf, a concatenation of recordSize-wide records, in ascending
// byte order. When workers > 1 and buf holds at least ParallelSortThreshold
// records, equal-sized chunks are sorted concurrently and then k-way merged, so
// the result does not depend on the number of workers.
func SortFixed(buf []byte, recordSize, workers int) error {
	if recordSize <= 0 || len(buf)%recordSize != 0 {
		return fmt.Errorf("etl: buffer of %d bytes is not a multiple of record size %d", len(buf), recordSize)
	}
	n := len(buf) / recordSize
	if workers <= 1 || n < ParallelSortThreshold {
		sort.Sort(newFixedBuffer(buf, recordSize))
		return nil
	}

	per := (n + workers - 1) / workers
	chunks := make([]dataProvider, 0, workers)
	var g errgroup.Group
	for from := 0; from < n; from += per {
		chunk := buf[from*recordSize : min(from+per, n)*recordSize]
		chunks = append(chunks, newRAMProvider(chunk, recordSize))
		g.Go(func() error {
			sort.Sort(newFixedBuffer(chunk, recordSize))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := make([]byte, 0, len(buf))
	it, err := newMergeIter(chunks, recordSize)
	if err != nil {
		return err
	}
	for it.HasNext() {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		merged = append(merged, rec...)
	}
	copy(buf, merged)
	return nil
}
