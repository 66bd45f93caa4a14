// Copyright 2026 The drivefuse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is drivefuse's CLI: a cobra root command with login, logout,
// list, and mount subcommands, config loaded from TOML via viper and bound
// to persistent flags the same two-legged way the teacher's cmd/root.go
// loads cfg.Config.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/drivefuse/drivefuse/cfg"
)

var (
	cfgFile string
	bindErr error

	// Config is the process-wide configuration, populated by initConfig
	// once flags and an optional config file have both been parsed.
	Config cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "drivefuse",
	Short: "Mount a Google Drive account as a local filesystem",
	Long: `drivefuse is a FUSE adapter that mounts a Google Drive account as a
POSIX filesystem: authorize once with "login", then "mount" a session at a
local directory.`,
}

// Execute runs the root command, the sole entry point main.go calls.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "path to a drivefuse TOML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetConfigType("toml")

	// Flag names are kebab-case; the TOML keys and mapstructure tags are
	// snake_case, so each flag is bound under its snake_case key.
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
			bindErr = err
		}
	})

	path := cfgFile
	if path == "" {
		if home, err := os.UserConfigDir(); err == nil {
			candidate := filepath.Join(home, "drivefuse", "config.toml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			bindErr = fmt.Errorf("reading config file %q: %w", path, err)
			return
		}
	}

	Config = cfg.Default()
	if err := viper.Unmarshal(&Config); err != nil {
		bindErr = fmt.Errorf("unmarshaling config: %w", err)
	}
}

// checkBindErr is called at the top of every subcommand's RunE, mirroring
// the teacher's rootCmd.RunE guard against a deferred bind/parse failure
// that cobra's own flag parsing can't surface directly.
func checkBindErr() error {
	return bindErr
}
