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

package kv

import (
	"slices"
)

const (
	/*
	   PlainAccountState logical layout:
	   	key - address (unhashed, 20 bytes)
	   	value - account encoded for storage (see accounts.Account.EncodeForStorage)
	*/
	PlainAccountState = "PlainAccountState"

	/*
	   PlainStorageState logical layout:
	   	key - address (unhashed, 20 bytes)
	   	value - storage key (unhashed, 32 bytes) + storage value (leading zeroes trimmed)

	   Physical layout: DupSort, so all slots of one address are stored under one key,
	   sorted by storage key.

	   -------------------------------------------------------------
	   	key              |            value
	   -------------------------------------------------------------
	   [addr1]           | [storage1_key]+[storage1_value]
	                     | [storage2_key]+[storage2_value] // this value has no own key. it's 2nd value of [addr1] key.
	                     | ...
	   [addr2]           | [storage1_key]+[storage1_value]
	*/
	PlainStorageState = "PlainStorageState"

	// Bytecodes - code hash -> contract bytecode
	Bytecodes = "Bytecodes"
)


type TableCfg map[string]TableCfgItem

type TableFlags uint

const (
	Default TableFlags = 0x00
	DupSort TableFlags = 0x04
)

type TableCfgItem struct {
	Flags TableFlags
}

var StateTablesCfg = TableCfg{
	PlainAccountState: {},
	PlainStorageState: {Flags: DupSort},
	Bytecodes:         {},
}

// Names returns table names in ascending order.
func (cfg TableCfg) Names() []string {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (cfg TableCfg) IsDupSort(table string) bool {
	return cfg[table].Flags&DupSort != 0
}
