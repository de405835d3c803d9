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

package state

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jsign/eth-stateless/common"
)

const DefaultCodeSizeCacheSize = 1 << 16

// CodeSizeCache memoizes code hash -> code length.
type CodeSizeCache struct {
	src          StateSource
	sizes        *lru.Cache[common.Hash, int]
	hits, misses uint64
}

func NewCodeSizeCache(src StateSource, size int) (*CodeSizeCache, error) {
	sizes, err := lru.New[common.Hash, int](size)
	if err != nil {
		return nil, fmt.Errorf("code size cache: %w", err)
	}
	return &CodeSizeCache{src: src, sizes: sizes}, nil
}

func (c *CodeSizeCache) CodeSize(codeHash common.Hash) (int, error) {
	if codeHash == common.EmptyCodeHash || codeHash == (common.Hash{}) {
		return 0, nil
	}
	if n, ok := c.sizes.Get(codeHash); ok {
		c.hits++
		return n, nil
	}
	c.misses++
	code, err := c.src.ReadCode(codeHash)
	if err != nil {
		return 0, err
	}
	c.sizes.Add(codeHash, len(code))
	return len(code), nil
}

// AccountCodeSize - code length of the account at addr, 0 for absent accounts and EOAs.
func (c *CodeSizeCache) AccountCodeSize(addr common.Address) (int, error) {
	acc, err := c.src.ReadAccount(addr)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, nil
	}
	return c.CodeSize(acc.CodeHash)
}

func (c *CodeSizeCache) Stats() (hits, misses uint64) { return c.hits, c.misses }
