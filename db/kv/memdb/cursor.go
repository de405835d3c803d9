// Copyright 2022 The Erigon Authors
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

package memdb

import (
	"bytes"
	"context"

	"github.com/tidwall/btree"
)

type cursor struct {
	ctx    context.Context
	it     btree.IterG[entry]
	valid  bool
	closed bool
}

func (c *cursor) result(ok bool) ([]byte, []byte, error) {
	c.valid = ok
	if !ok {
		return nil, nil, nil
	}
	item := c.it.Item()
	return item.k, item.v, nil
}

func (c *cursor) First() ([]byte, []byte, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, nil, err
	}
	return c.result(c.it.First())
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, nil, err
	}
	k, v, _ := c.result(c.it.Seek(entry{k: key}))
	if k == nil || !bytes.Equal(k, key) {
		c.valid = false
		return nil, nil, nil
	}
	return k, v, nil
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(c.it.Next())
}

func (c *cursor) NextDup() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	cur := c.it.Item().k
	k, v, err := c.result(c.it.Next())
	if err != nil || k == nil || !bytes.Equal(k, cur) {
		return nil, nil, err
	}
	return k, v, nil
}

func (c *cursor) Close() {
	if c.closed {
		return
	}
	c.closed, c.valid = true, false
	c.it.Release()
}
