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
	"bytes"
	"container/heap"
	"errors"
	"fmt"
	"io"
)

type HeapElem struct {
	Key     []byte
	TimeIdx int
}

type Heap []HeapElem

func (h Heap) Len() int {
	return len(h)
}

func (h Heap) Less(i, j int) bool {
	if c := bytes.Compare(h[i].Key, h[j].Key); c != 0 {
		return c < 0
	}
	return h[i].TimeIdx < h[j].TimeIdx
}

func (h Heap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *Heap) Push(x any) {
	// Push and Pop use pointer receivers because they modify the slice's length,
	// not just its contents.
	*h = append(*h, x.(HeapElem))
}

func (h *Heap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// MergeIter yields the records of several sorted providers in global order.
// The returned record is valid until the next call to Next.
type MergeIter struct {
	providers []dataProvider
	h         *Heap
	cur       []byte
	err       error
}

func newMergeIter(providers []dataProvider, recordSize int) (*MergeIter, error) {
	h := &Heap{}
	heap.Init(h)
	for i, provider := range providers {
		rec, err := provider.Next()
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("etl: reading first record of %s: %w", provider, err)
		}
		heap.Push(h, HeapElem{Key: rec, TimeIdx: i})
	}
	return &MergeIter{providers: providers, h: h, cur: make([]byte, recordSize)}, nil
}

func (it *MergeIter) HasNext() bool { return it.err != nil || it.h.Len() > 0 }

func (it *MergeIter) Next() ([]byte, error) {
	if it.err != nil {
		return nil, it.err
	}
	element := heap.Pop(it.h).(HeapElem)
	copy(it.cur, element.Key)

	provider := it.providers[element.TimeIdx]
	rec, err := provider.Next()
	switch {
	case err == nil:
		element.Key = rec
		heap.Push(it.h, element)
	case !errors.Is(err, io.EOF):
		it.err = fmt.Errorf("etl: reading next record of %s: %w", provider, err)
	}
	return it.cur, nil
}

func (it *MergeIter) Close() {}
