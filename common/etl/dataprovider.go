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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledgerwatch/log/v3"
)

// dataProvider yields the records of one sorted run. Next returns io.EOF after
// the last record; the returned slice may be reused by the following call.
type dataProvider interface {
	Next() ([]byte, error)
	Dispose() error
	String() string
}

type fileDataProvider struct {
	file       *os.File
	reader     *bufio.Reader
	recordSize int
	rec        []byte
}

// flushToDisk writes the already sorted buf to a new file in tmpdir.
func flushToDisk(logPrefix string, buf []byte, recordSize int, tmpdir string, lvl log.Lvl, logger log.Logger) (dataProvider, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(tmpdir, 0755); err != nil {
		return nil, err
	}
	bufferFile, err := os.CreateTemp(tmpdir, "eth-stateless-sortable-buf-")
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(bufferFile, BufIOSize)
	if _, err = w.Write(buf); err != nil {
		bufferFile.Close()
		return nil, fmt.Errorf("write sorted run: %w", err)
	}
	if err = w.Flush(); err != nil {
		bufferFile.Close()
		return nil, fmt.Errorf("flush sorted run: %w", err)
	}
	if _, err = bufferFile.Seek(0, io.SeekStart); err != nil {
		bufferFile.Close()
		return nil, err
	}
	logAt(logger, lvl, fmt.Sprintf("[%s] Flushed buffer file", logPrefix), "name", bufferFile.Name(), "records", len(buf)/recordSize)
	return &fileDataProvider{
		file:       bufferFile,
		reader:     bufio.NewReaderSize(bufferFile, BufIOSize),
		recordSize: recordSize,
		rec:        make([]byte, recordSize),
	}, nil
}

func (p *fileDataProvider) Next() ([]byte, error) {
	if _, err := io.ReadFull(p.reader, p.rec); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: partial record: %w", p, err)
		}
		return nil, err
	}
	return p.rec, nil
}

func (p *fileDataProvider) Dispose() error {
	name := p.file.Name()
	_ = p.file.Close()
	return os.Remove(name)
}

func (p *fileDataProvider) String() string {
	return fmt.Sprintf("%T(file: %s)", p, p.file.Name())
}

// ramDataProvider serves the last sorted buffer straight from memory.
type ramDataProvider struct {
	buf        []byte
	recordSize int
	pos        int
}

func newRAMProvider(buf []byte, recordSize int) *ramDataProvider {
	return &ramDataProvider{buf: buf, recordSize: recordSize}
}

func (p *ramDataProvider) Next() ([]byte, error) {
	if p.pos >= len(p.buf) {
		return nil, io.EOF
	}
	rec := p.buf[p.pos : p.pos+p.recordSize]
	p.pos += p.recordSize
	return rec, nil
}

func (p *ramDataProvider) Dispose() error { return nil }

func (p *ramDataProvider) String() string {
	return fmt.Sprintf("%T(records: %d)", p, len(p.buf)/p.recordSize)
}

func logAt(logger log.Logger, lvl log.Lvl, msg string, ctx ...interface{}) {
	switch lvl {
	case log.LvlTrace:
		logger.Trace(msg, ctx...)
	case log.LvlDebug:
		logger.Debug(msg, ctx...)
	case log.LvlInfo:
		logger.Info(msg, ctx...)
	case log.LvlWarn:
		logger.Warn(msg, ctx...)
	default:
		logger.Error(msg, ctx...)
	}
}

func disposeProviders(logPrefix string, providers []dataProvider, logger log.Logger) {
	for _, p := range providers {
		if err := p.Dispose(); err != nil {
			logger.Warn(fmt.Sprintf("[%s] dispose of sorted run failed", logPrefix), "provider", p, "err", err)
		}
	}
}
