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

package common

import (
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// keccakState wraps sha3.state. In addition to the usual hash methods, it also supports
// Read to get a variable amount of data from the hash state. Read is faster than Sum
// because it doesn't copy the internal state, but also modifies the internal state.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

type Hasher struct {
	Sha keccakState
}

var hashersPool = sync.Pool{
	New: func() any {
		return &Hasher{Sha: sha3.NewLegacyKeccak256().(keccakState)}
	},
}

func NewHasher() *Hasher {
	h := hashersPool.Get().(*Hasher)
	h.Sha.Reset()
	return h
}
func ReturnHasherToPool(h *Hasher) { hashersPool.Put(h) }

// Keccak256 calculates the legacy keccak256 hash of data. It is the hash used
// to order accounts and storage slots in the hashed state layout.
func Keccak256(data ...[]byte) (h Hash) {
	hasher := NewHasher()
	defer ReturnHasherToPool(hasher)
	for _, b := range data {
		hasher.Sha.Write(b) //nolint:errcheck
	}
	hasher.Sha.Read(h[:]) //nolint:errcheck
	return h
}

// EmptyCodeHash is the keccak256 of zero bytes, stored for accounts without code.
var EmptyCodeHash = Keccak256(nil)
