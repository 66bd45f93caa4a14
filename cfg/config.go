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

// Package cfg holds drivefuse's configuration surface: exactly the option
// set spec.md §6 names, loaded from TOML via spf13/viper and bound to CLI
// flags via spf13/pflag, the same two-legged loading scheme (BindFlags +
// viper.Unmarshal) the teacher's cfg.BindFlags/cmd/root.go use for their
// own (much larger) flag set.
package cfg

import (
	"time"

	"github.com/spf13/pflag"
)

// Config is unmarshaled directly from viper, one field per spec.md §6
// option. Field names are the TitleCase form of the option's snake_case
// TOML/flag name, the same mapping mapstructure (a teacher dependency
// already) performs by default.
type Config struct {
	Debug                       bool          `mapstructure:"debug"`
	MountCheck                  bool          `mapstructure:"mount_check"`
	CacheMaxSeconds             time.Duration `mapstructure:"cache_max_seconds"`
	CacheMaxItems               int           `mapstructure:"cache_max_items"`
	CacheStatfsSeconds          time.Duration `mapstructure:"cache_statfs_seconds"`
	SyncInterval                time.Duration `mapstructure:"sync_interval"`
	MountOptions                []string      `mapstructure:"mount_options"`
	AuthorizeUsingCode          bool          `mapstructure:"authorize_using_code"`
	RenameIdenticalFiles        bool          `mapstructure:"rename_identical_files"`
	AddExtensionsToSpecialFiles bool          `mapstructure:"add_extensions_to_special_files"`
	SkipTrash                   bool          `mapstructure:"skip_trash"`
	ClientSecret                string        `mapstructure:"client_secret"`

	LogSeverity string `mapstructure:"log_severity"`
	LogFormat   string `mapstructure:"log_format"`
	LogFilePath string `mapstructure:"log_file"`
}

// Default returns the configuration drivefuse ships with before any TOML
// file or flag is applied, mirroring the teacher's cfg.DefaultConfig-style
// zero-value-isn't-enough defaults (e.g. MountCheck is on unless turned
// off).
func Default() Config {
	return Config{
		MountCheck:         true,
		CacheMaxSeconds:    10 * time.Second,
		CacheMaxItems:      1000,
		CacheStatfsSeconds: 30 * time.Second,
		SyncInterval:       30 * time.Second,
		LogSeverity:        "INFO",
		LogFormat:          "text",
	}
}

// BindFlags registers every spec.md §6 option as a persistent flag on fs,
// the same shape as the teacher's cfg.BindFlags(*pflag.FlagSet) — callers
// still need viper.BindPFlag per flag and a subsequent viper.Unmarshal,
// exactly as cmd/root.go does for the teacher's own config.
func BindFlags(fs *pflag.FlagSet) error {
	d := Default()

	fs.Bool("debug", d.Debug, "enable verbose debug logging")
	fs.Bool("mount-check", d.MountCheck, "pre-flight mount a no-op filesystem before the real mount")
	fs.Duration("cache-max-seconds", d.CacheMaxSeconds, "TTL for cached file content")
	fs.Int("cache-max-items", d.CacheMaxItems, "maximum number of cached content entries")
	fs.Duration("cache-statfs-seconds", d.CacheStatfsSeconds, "TTL for the cached statfs quota")
	fs.Duration("sync-interval", d.SyncInterval, "minimum time between sync() polls")
	fs.StringSlice("mount-options", nil, "comma-separated list of FUSE mount options")
	fs.Bool("authorize-using-code", false, "use the out-of-band authorization-code OAuth flow instead of a local redirect")
	fs.Bool("rename-identical-files", false, "append a disambiguating suffix to same-named siblings")
	fs.Bool("add-extensions-to-special-files", false, "append an office extension to Google-native document names")
	fs.Bool("skip-trash", false, "delete permanently instead of moving to Drive's trash")
	fs.String("client-secret", "", "path to an OAuth client secret JSON file")
	fs.String("log-severity", d.LogSeverity, "TRACE, DEBUG, INFO, WARNING, ERROR, or OFF")
	fs.String("log-format", d.LogFormat, "text or json")
	fs.String("log-file", "", "path to a log file; empty means stderr")

	return nil
}
