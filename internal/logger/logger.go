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

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the subset of spec.md §6's option set the logger consumes.
type Config struct {
	Severity string // one of TRACE/DEBUG/INFO/WARNING/ERROR/OFF
	Format   string // "text" or "json"
	FilePath string // empty means stderr
}

var (
	programLevel  = new(slog.LevelVar)
	defaultWriter io.Writer = os.Stderr
	defaultLogger           = slog.New(newHandler(defaultWriter, programLevel, "", "text"))
	defaultFormat           = "text"
	defaultFile   io.Closer
)

// Init installs the process-wide default logger per Config, returning the
// *slog.Logger so callers that want one (the FUSE Adapter, the Drive
// Facade) can thread it through explicitly instead of relying on the
// package-level convenience functions.
func Init(cfg Config) (*slog.Logger, error) {
	programLevel.Set(levelFromSeverity(cfg.Severity))
	defaultFormat = cfg.Format
	if defaultFormat == "" {
		defaultFormat = "text"
	}

	w := io.Writer(os.Stderr)
	if cfg.FilePath != "" {
		if defaultFile != nil {
			defaultFile.Close()
		}
		f := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		defaultFile = f
		w = f
	}
	defaultWriter = w
	defaultLogger = slog.New(newHandler(w, programLevel, "", defaultFormat))
	return defaultLogger, nil
}

// Default returns the process-wide logger installed by the most recent
// Init call (or the stderr/text default if Init was never called).
func Default() *slog.Logger { return defaultLogger }

func Tracef(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, args...))
}
func Debugf(format string, args ...any) { defaultLogger.Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { defaultLogger.Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { defaultLogger.Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { defaultLogger.Error(fmt.Sprintf(format, args...)) }
