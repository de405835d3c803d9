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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
)

func TestEmptyAccountEncoding(t *testing.T) {
	t.Parallel()
	a := NewAccount()
	enc := a.SerialiseForStorage()
	require.Equal(t, []byte{0}, enc)

	var decoded Account
	require.NoError(t, decoded.DecodeForStorage(enc))
	require.Equal(t, a, decoded)
	require.True(t, decoded.IsEmptyCodeHash())
}

func TestAccountEncodingRoundTrip(t *testing.T) {
	t.Parallel()
	a := Account{
		Nonce:       0x0102,
		Balance:     *uint256.NewInt(1_000_000_000_000_000_000),
		Incarnation: 1,
		CodeHash:    common.Keccak256([]byte{0x60, 0x00}),
	}
	enc := a.SerialiseForStorage()
	require.Equal(t, a.EncodingLengthForStorage(), len(enc))
	require.Equal(t, byte(fieldNonce|fieldBalance|fieldIncarnation|fieldCodeHash), enc[0])
	require.Equal(t, []byte{2, 0x01, 0x02}, enc[1:4])

	var decoded Account
	require.NoError(t, decoded.DecodeForStorage(enc))
	require.Equal(t, a, decoded)
}

func TestAccountDecodeTruncated(t *testing.T) {
	t.Parallel()
	a := Account{Nonce: 5, CodeHash: common.Keccak256([]byte{1})}
	enc := a.SerialiseForStorage()

	var decoded Account
	require.ErrorIs(t, decoded.DecodeForStorage(enc[:len(enc)-1]), ErrTruncatedAccount)
	require.ErrorIs(t, decoded.DecodeForStorage(enc[:1]), ErrTruncatedAccount)
	require.Error(t, decoded.DecodeForStorage([]byte{fieldNonce, 9, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
}
