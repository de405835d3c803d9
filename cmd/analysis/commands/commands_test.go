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
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jsign/eth-stateless/common"
	"github.com/jsign/eth-stateless/core/state/statetest"
	"github.com/jsign/eth-stateless/core/state/stems"
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

	code := make([]byte, 31)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		statetest.PutAccount(t, tx, statetest.Account{Address: statetest.Addr(0x01)})
		statetest.PutAccount(t, tx, statetest.Account{Address: statetest.Addr(0x02), Code: code, Slots: []common.Hash{statetest.Key(0)}})
		statetest.PutAccount(t, tx, statetest.Account{Address: statetest.Addr(0x03), Code: code, Slots: []common.Hash{statetest.Key(300)}})
		return nil
	}))
	return datadir
}

func TestAccountsStats(t *testing.T) {
	out, err := run(t, "accounts-stats", "--datadir", newDatadir(t), "--group-size", "256", "--header-storage-offset", "64")
	require.NoError(t, err, out)
	for _, s := range []string{"Accounts", "Code lengths", "Stems type counts", "Contract header stems", "Storage-slots stems", "75.00%", "25.00%"} {
		require.Contains(t, out, s)
	}
}

func TestAccountsStatsBadConfig(t *testing.T) {
	_, err := run(t, "accounts-stats", "--datadir", newDatadir(t), "--group-size", "100")
	var cfgErr *stems.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	stemCfg = stems.DefaultConfig()
}

func TestPrintEmptyReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &stems.Report{})
	require.Equal(t, 3, strings.Count(out.String(), "0.00%"))
	require.Contains(t, out.String(), "Stem usage per account")
}
