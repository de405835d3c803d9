// Copyright 2015 The go-ethereum Authors
// (original work)
// Copyright 2025 The Erigon Authors
// (modifications)
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
package accounts

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/jsign/eth-stateless/common"
)

// Account is the plain-state representation of an account.
type Account struct {
	Nonce       uint64
	Balance     uint256.Int
	Incarnation uint64
	CodeHash    common.Hash // hash of the bytecode; EmptyCodeHash for externally owned accounts
}

const (
	fieldNonce       = 1
	fieldBalance     = 2
	fieldIncarnation = 4
	fieldCodeHash    = 8
)

var ErrTruncatedAccount = errors.New("truncated account encoding")

// NewAccount creates a new account w/o code nor storage.
func NewAccount() Account {
	return Account{CodeHash: common.EmptyCodeHash}
}

func (a *Account) IsEmptyCodeHash() bool {
	return a.CodeHash == common.EmptyCodeHash || a.CodeHash == (common.Hash{})
}

func uintLen(v uint64) int { return (bits.Len64(v) + 7) / 8 }

func putUint(buf []byte, v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

func (a *Account) EncodingLengthForStorage() int {
	structLength := 1 // 1 byte for fieldset
	if !a.Balance.IsZero() {
		structLength += a.Balance.ByteLen() + 1
	}
	if a.Nonce > 0 {
		structLength += uintLen(a.Nonce) + 1
	}
	if !a.IsEmptyCodeHash() {
		structLength += 33 // 32-byte array + 1 byte for length
	}
	if a.Incarnation > 0 {
		structLength += uintLen(a.Incarnation) + 1
	}
	return structLength
}

// EncodeForStorage writes the account into buffer, which must be at least
// EncodingLengthForStorage bytes long. Layout: one field-set byte, then every
// present field as length byte + big-endian bytes.
func (a *Account) EncodeForStorage(buffer []byte) {
	var fieldSet = 0 // start with first bit set to 0
	var pos = 1
	if a.Nonce > 0 {
		fieldSet = fieldNonce
		n := uintLen(a.Nonce)
		buffer[pos] = byte(n)
		putUint(buffer[pos+1:], a.Nonce, n)
		pos += n + 1
	}

	// Encoding balance
	if !a.Balance.IsZero() {
		fieldSet |= fieldBalance
		n := a.Balance.ByteLen()
		buffer[pos] = byte(n)
		a.Balance.WriteToSlice(buffer[pos+1 : pos+1+n])
		pos += n + 1
	}

	if a.Incarnation > 0 {
		fieldSet |= fieldIncarnation
		n := uintLen(a.Incarnation)
		buffer[pos] = byte(n)
		putUint(buffer[pos+1:], a.Incarnation, n)
		pos += n + 1
	}

	// Encoding CodeHash
	if !a.IsEmptyCodeHash() {
		fieldSet |= fieldCodeHash
		buffer[pos] = 32
		copy(buffer[pos+1:], a.CodeHash[:])
	}

	buffer[0] = byte(fieldSet)
}

func (a *Account) DecodeForStorage(enc []byte) error {
	a.Reset()
	if len(enc) == 0 {
		return nil
	}

	var fieldSet = enc[0]
	var pos = 1

	readField := func(name string, maxLen int) ([]byte, error) {
		if len(enc) < pos+1 {
			return nil, fmt.Errorf("%w: %s length missing", ErrTruncatedAccount, name)
		}
		n := int(enc[pos])
		if n > maxLen {
			return nil, fmt.Errorf("account %s field too long: %d", name, n)
		}
		if len(enc) < pos+1+n {
			return nil, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrTruncatedAccount, name, n, len(enc)-pos-1)
		}
		field := enc[pos+1 : pos+1+n]
		pos += n + 1
		return field, nil
	}
	bytesToUint64 := func(b []byte) (v uint64) {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}

	if fieldSet&fieldNonce > 0 {
		field, err := readField("nonce", 8)
		if err != nil {
			return err
		}
		a.Nonce = bytesToUint64(field)
	}

	if fieldSet&fieldBalance > 0 {
		field, err := readField("balance", 32)
		if err != nil {
			return err
		}
		a.Balance.SetBytes(field)
	}

	if fieldSet&fieldIncarnation > 0 {
		field, err := readField("incarnation", 8)
		if err != nil {
			return err
		}
		a.Incarnation = bytesToUint64(field)
	}

	if fieldSet&fieldCodeHash > 0 {
		field, err := readField("codeHash", 32)
		if err != nil {
			return err
		}
		a.CodeHash.SetBytes(field)
	}
	return nil
}

func (a *Account) Reset() {
	a.Nonce = 0
	a.Incarnation = 0
	a.Balance.Clear()
	a.CodeHash = common.EmptyCodeHash
}

// SerialiseForStorage - EncodeForStorage into a new buffer.
func (a *Account) SerialiseForStorage() []byte {
	buf := make([]byte, a.EncodingLengthForStorage())
	a.EncodeForStorage(buf)
	return buf
}
