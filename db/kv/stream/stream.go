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

package stream

import (
	"fmt"

	"github.com/ledgerwatch/log/v3"
)

// Traced - logs every element at Trace level, for debugging of stream pipelines.
type Traced[T any] struct {
	it     Uno[T]
	prefix string
	logger log.Logger
}

func Trace[T any](it Uno[T], logger log.Logger, prefix string) *Traced[T] {
	return &Traced[T]{it: it, logger: logger, prefix: prefix}
}
func (m *Traced[T]) HasNext() bool { return m.it.HasNext() }
func (m *Traced[T]) Next() (v T, err error) {
	v, err = m.it.Next()
	if err != nil {
		m.logger.Trace(fmt.Sprintf("[%s] stream error", m.prefix), "err", err)
		return v, err
	}
	m.logger.Trace(fmt.Sprintf("[%s] stream", m.prefix), "v", v)
	return v, nil
}
func (m *Traced[T]) Close() { m.it.Close() }
