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

package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SetFlagsFromConfigFile sets the flags of cmd named by the keys of a .toml or
// .yaml file. Flags set on the command line keep their value, keys naming no
// flag of cmd are ignored.
func SetFlagsFromConfigFile(cmd *cobra.Command, filePath string) error {
	fileConfig := make(map[string]interface{})

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fileConfig)
	case ".toml":
		err = toml.Unmarshal(data, &fileConfig)
	default:
		return errors.New("config files only accepted are .yaml and .toml")
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for key, value := range fileConfig {
		f := flags.Lookup(key)
		if f == nil || f.Changed {
			continue
		}
		if reflect.ValueOf(value).Kind() == reflect.Slice {
			sliceInterface := value.([]interface{})
			s := make([]string, len(sliceInterface))
			for i, v := range sliceInterface {
				s[i] = fmt.Sprintf("%v", v)
			}
			if err := flags.Set(key, strings.Join(s, ",")); err != nil {
				return fmt.Errorf("failed setting %s flag with values=%s error=%w", key, s, err)
			}
			continue
		}
		if err := flags.Set(key, fmt.Sprintf("%v", value)); err != nil {
			return fmt.Errorf("failed setting %s flag with value=%v error=%w", key, value, err)
		}
	}
	return nil
}
