// Copyright 2026 The go-vyauma Authors
// This file is part of go-vyauma.
//
// go-vyauma is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-vyauma is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-vyauma. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/vyauma/go-vyauma/core/vm"
	"github.com/vyauma/go-vyauma/vol"
)

// vyvmConfig is the root of a vyvm TOML configuration file:
//
//	[VM]
//	MaxStackSize = 1024
//	MaxLocals = 256
//	MaxCallDepth = 256
//
//	[Policy]
//	Allow = [1, 2, 42]
//	AuditPath = "audit.db"
type vyvmConfig struct {
	VM     vm.Config
	Policy vol.PolicyConfig
}

// These settings ensure that TOML keys use the same names as Go struct
// fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// defaultConfig returns the built-in limits with an empty policy.
func defaultConfig() *vyvmConfig {
	return &vyvmConfig{VM: vm.DefaultConfig()}
}

// resolveConfig loads the --config file when given, otherwise the defaults.
func resolveConfig(ctx *cli.Context) (*vyvmConfig, error) {
	cfg := defaultConfig()
	if !ctx.IsSet(configFileFlag.Name) {
		return cfg, nil
	}

	f, err := os.Open(ctx.String(configFileFlag.Name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", f.Name(), err)
	}
	if cfg.VM.MaxStackSize <= 0 || cfg.VM.MaxLocals <= 0 || cfg.VM.MaxCallDepth <= 0 {
		return nil, fmt.Errorf("%s: VM limits must be positive", f.Name())
	}
	return cfg, nil
}
