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

import "errors"

// Streams - iterator-like composable abstraction over ordered data:
//   - return errors
//   - pull-based: the consumer drives every read, nothing happens between calls
//   - single pass: a stream can't be rewound, open a new one instead
//
//	for s.HasNext() {
//		v, err := s.Next()
//		if err != nil {
//			return err
//		}
//	}
//
//	Invariants:
//	 1. HasNext() is Idempotent
//	 2. After Next() returned an error the stream is unusable, only Close() is valid
//	 3. Close() is safe to call many times

// ErrIteratorExhausted is returned by Next() when called past the last element.
var ErrIteratorExhausted = errors.New("iterator exhausted")

// Uno - return 1 item. Example:
//
//	for s.HasNext() {
//		v, err := s.Next()
//		if err != nil {
//			return err
//		}
//	}
type Uno[V any] interface {
	Next() (V, error)
	HasNext() bool
	Close()
}
