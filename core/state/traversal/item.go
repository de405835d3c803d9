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

package traversal

import (
	"fmt"

	"github.com/jsign/eth-stateless/common"
)

type ItemKind uint8

const (
	AccountItem ItemKind = iota
	StorageSlotItem
)

func (k ItemKind) String() string {
	switch k {
	case AccountItem:
		return "account"
	case StorageSlotItem:
		return "storage slot"
	default:
		return fmt.Sprintf("ItemKind(%d)", uint8(k))
	}
}

// Item is one element of a traversal: an account, or a storage slot of the
// account that precedes it. Key is zero for accounts.
type Item struct {
	Kind    ItemKind
	Address common.Address
	Key     common.Hash
}

func AccountOf(addr common.Address) Item { return Item{Kind: AccountItem, Address: addr} }

func SlotOf(addr common.Address, key common.Hash) Item {
	return Item{Kind: StorageSlotItem, Address: addr, Key: key}
}

// Preimage - raw bytes of the item: 20-byte address or 32-byte storage key.
func (it Item) Preimage() []byte {
	if it.Kind == AccountItem {
		return it.Address.Bytes()
	}
	return it.Key.Bytes()
}

// PreimageLen - length of Preimage without materializing it.
func (it Item) PreimageLen() int {
	if it.Kind == AccountItem {
		return common.AddressLength
	}
	return common.HashLength
}

func (it Item) String() string {
	if it.Kind == AccountItem {
		return fmt.Sprintf("account %x", it.Address)
	}
	return fmt.Sprintf("slot %x of %x", it.Key, it.Address)
}

type Ordering uint8

const (
	// Plain - database order: accounts by address, slots by key. No buffering.
	Plain Ordering = iota
	// HashSorted - accounts by keccak256(address), slots of each account by keccak256(key).
	HashSorted
)

func (o Ordering) String() string {
	switch o {
	case Plain:
		return "plain"
	case HashSorted:
		return "hash-ordered"
	default:
		return fmt.Sprintf("Ordering(%d)", uint8(o))
	}
}

func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "plain":
		return Plain, nil
	case "hash-ordered", "hash-sorted", "hashed":
		return HashSorted, nil
	default:
		return 0, fmt.Errorf("unknown ordering %q, expected plain or hash-ordered", s)
	}
}
