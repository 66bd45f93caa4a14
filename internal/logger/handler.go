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
	"sync"
)

// textJSONHandler is a minimal slog.Handler producing either:
//
//	time="Mon Jan  2 15:04:05 2006" severity=INFO message="prefix: text"
//
// or, in JSON format:
//
//	{"timestamp":{"seconds":1234,"nanos":5678},"severity":"INFO","message":"prefix: text"}
//
// matching the shape the teacher's own handler produces (confirmed by
// internal/logger/logger_test.go's regexps, the only surviving source for
// that package in the retrieval pack).
type textJSONHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  *slog.LevelVar
	prefix string
	format string // "text" or "json"
}

func newHandler(w io.Writer, level *slog.LevelVar, prefix, format string) *textJSONHandler {
	return &textJSONHandler{mu: &sync.Mutex{}, w: w, level: level, prefix: prefix, format: format}
}

func (h *textJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *textJSONHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := h.prefix + r.Message
	severity := severityName(r.Level)

	var line string
	if h.format == "json" {
		line = fmt.Sprintf(
			`{"timestamp":{"seconds":%d,"nanos":%d},"severity":%q,"message":%q}`+"\n",
			r.Time.Unix(), r.Time.Nanosecond(), severity, msg,
		)
	} else {
		line = fmt.Sprintf("time=%q severity=%s message=%q\n", r.Time.Format("Mon Jan  2 15:04:05 2006"), severity, msg)
	}
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *textJSONHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *textJSONHandler) WithGroup(_ string) slog.Handler      { return h }
