// Copyright 2024 The Erigon Authors
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
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
)

// Collector sorts a stream of fixed-width records that may not fit in memory.
// Records go into one contiguous buffer; a full buffer is sorted and spilled to
// tmpdir as a run, and Iter merges all runs together with the in-memory tail.
type Collector struct {
	logPrefix  string
	tmpdir     string
	recordSize int
	workers    int
	maxBuf     int

	buf       []byte
	providers []dataProvider
	count     uint64
	iterated  bool

	logLvl log.Lvl
	logger log.Logger
}

func NewCollector(logPrefix, tmpdir string, recordSize int, bufferSize datasize.ByteSize, workers int, logger log.Logger) *Collector {
	if recordSize <= 0 {
		panic(fmt.Sprintf("etl: invalid record size %d", recordSize))
	}
	maxBuf := int(bufferSize.Bytes()) / recordSize * recordSize
	if maxBuf < recordSize {
		maxBuf = recordSize
	}
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		logPrefix:  logPrefix,
		tmpdir:     tmpdir,
		recordSize: recordSize,
		workers:    workers,
		maxBuf:     maxBuf,
		logLvl:     log.LvlDebug,
		logger:     logger,
	}
}

func (c *Collector) LogLvl(v log.Lvl) { c.logLvl = v }

// Grow pre-sizes the buffer for the expected number of records, capped by the memory budget.
func (c *Collector) Grow(records uint64) {
	want := c.maxBuf
	if records*uint64(c.recordSize) < uint64(want) {
		want = int(records) * c.recordSize
	}
	if cap(c.buf) >= want {
		return
	}
	buf := make([]byte, len(c.buf), want)
	copy(buf, c.buf)
	c.buf = buf
}

func (c *Collector) Collect(rec []byte) error {
	if len(rec) != c.recordSize {
		return fmt.Errorf("[%s] record of %d bytes, expected %d", c.logPrefix, len(rec), c.recordSize)
	}
	if c.iterated {
		return fmt.Errorf("[%s] collect after iteration started", c.logPrefix)
	}
	c.buf = append(c.buf, rec...)
	c.count++
	if len(c.buf) >= c.maxBuf {
		return c.flushBuffer()
	}
	return nil
}

// Len is the number of collected records.
func (c *Collector) Len() uint64 { return c.count }

// Spills is the number of sorted runs written to disk so far.
func (c *Collector) Spills() int { return len(c.providers) }

func (c *Collector) flushBuffer() error {
	if len(c.buf) == 0 {
		return nil
	}
	if err := SortFixed(c.buf, c.recordSize, c.workers); err != nil {
		return err
	}
	provider, err := flushToDisk(c.logPrefix, c.buf, c.recordSize, c.tmpdir, c.logLvl, c.logger)
	if err != nil {
		return fmt.Errorf("[%s] flush: %w", c.logPrefix, err)
	}
	c.providers = append(c.providers, provider)
	c.buf = c.buf[:0]
	return nil
}

// Iter sorts the in-memory tail and returns an iterator over all records in
// ascending byte order. The collector accepts no records afterwards.
func (c *Collector) Iter() (*MergeIter, error) {
	if c.iterated {
		return nil, fmt.Errorf("[%s] already iterated", c.logPrefix)
	}
	c.iterated = true
	providers := c.providers
	if len(c.buf) > 0 {
		if err := SortFixed(c.buf, c.recordSize, c.workers); err != nil {
			return nil, err
		}
		providers = append(providers, newRAMProvider(c.buf, c.recordSize))
	}
	return newMergeIter(providers, c.recordSize)
}

// Close removes spilled runs and drops the buffer.
func (c *Collector) Close() {
	disposeProviders(c.logPrefix, c.providers, c.logger)
	c.providers = nil
	c.buf = nil
}
