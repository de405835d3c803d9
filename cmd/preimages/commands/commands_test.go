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

package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state/statetest"
	"github.com/jsign/eth-stateless/db/kv"
	"github.com/jsign/eth-stateless/db/kv/mdbx"
)

var (
	rootOnce sync.Once
	root     *cobra.Command
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootOnce.Do(func() { root = RootCommand() })
	// bool flags keep their value between executions
	plain, hashOrdered = false, false
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newDatadir(t *testing.T) string {
	t.Helper()
	datadir := t.TempDir()
	db := mdbx.NewMDBX(log.New()).Path(filepath.Join(datadir, "chaindata")).WithTableCfg(kv.StateTablesCfg).MustOpen()
	defer db.Close()

	shared := statetest.Key(0xabcdef)
	tx, err := db.BeginRw(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	for _, a := range []statetest.Account{
		{Address: statetest.Addr(0x10), Slots: []common.Hash{shared, statetest.Key(1)}},
		{Address: statetest.Addr(0x20), Code: []byte{0x60, 0x01}},
		{Address: statetest.Addr(0x30), Slots: []common.Hash{shared}},
	} {
		statetest.PutAccount(t, tx, a)
	}
	require.NoError(t, tx.Commit())
	return datadir
}

func TestGenerateVerify(t *testing.T) {
	datadir := newDatadir(t)
	for _, ordering := range []string{"--plain", "--hash-ordered"} {
		path := filepath.Join(t.TempDir(), "preimages.bin")
		out, err := run(t, "generate", "--datadir", datadir, "--output-path", path, ordering)
		require.NoError(t, err, out)
		require.Contains(t, out, "3 accounts and 3 storage slots")

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, int64(3*20+3*32), info.Size())

		out, err = run(t, "verify", "--datadir", datadir, "--path", path, ordering)
		require.NoError(t, err, out)
		require.Contains(t, out, "matches the state")
	}
}

func TestVerifyOtherOrderingFails(t *testing.T) {
	datadir := newDatadir(t)
	path := filepath.Join(t.TempDir(), "preimages.bin")
	_, err := run(t, "generate", "--datadir", datadir, "--output-path", path, "--plain")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0600))
	_, err = run(t, "verify", "--datadir", datadir, "--path", path, "--plain")
	require.ErrorContains(t, err, "mismatch")
}

func TestOrderingRequired(t *testing.T) {
	datadir := newDatadir(t)
	_, err := run(t, "generate", "--datadir", datadir, "--output-path", filepath.Join(t.TempDir(), "p.bin"))
	require.ErrorIs(t, err, errOrdering)

	_, err = run(t, "generate", "--datadir", datadir, "--plain", "--hash-ordered")
	require.Error(t, err)
}

func TestStorageSlotFreq(t *testing.T) {
	datadir := newDatadir(t)
	out, err := run(t, "storage-slot-freq", "--datadir", datadir, "--top-n", "5", "--prefix-len", "32", "--max-entries", "100")
	require.NoError(t, err, out)
	key := statetest.Key(0xabcdef)
	require.Contains(t, out, common.Bytes2Hex(key[:]))
	require.Contains(t, out, "66.67")

	_, err = run(t, "storage-slot-freq", "--datadir", datadir, "--prefix-len", "40")
	require.Error(t, err)
}

func TestMissingDatadir(t *testing.T) {
	_, err := run(t, "generate", "--datadir", "", "--plain")
	require.Error(t, err)
}
