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
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fetchOutput(format, severity string, fn func()) string {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(levelFromSeverity(severity))
	defaultLogger = slog.New(newHandler(&buf, lvl, "", format))
	fn()
	return buf.String()
}

func TestTextFormat_RespectsLevelFiltering(t *testing.T) {
	out := fetchOutput("text", SeverityWarning, func() { Infof("hidden") })
	assert.Empty(t, out)

	out = fetchOutput("text", SeverityWarning, func() { Warnf("shown") })
	assert.Regexp(t, regexp.MustCompile(`severity=WARNING message="shown"`), out)
}

func TestJSONFormat_ProducesExpectedShape(t *testing.T) {
	out := fetchOutput("json", SeverityInfo, func() { Infof("hello %s", "world") })
	assert.Regexp(t, regexp.MustCompile(`"severity":"INFO","message":"hello world"`), out)
}

func TestTraceIsBelowDebug(t *testing.T) {
	out := fetchOutput("text", SeverityTrace, func() { Tracef("deepest") })
	assert.Regexp(t, regexp.MustCompile(`severity=TRACE`), out)

	out = fetchOutput("text", SeverityDebug, func() { Tracef("deepest") })
	assert.Empty(t, out, "TRACE should be filtered out once the level is DEBUG")
}

func TestSeverityOff_SuppressesEverything(t *testing.T) {
	out := fetchOutput("text", SeverityOff, func() { Errorf("should not print") })
	assert.Empty(t, out)
}

func TestLevelFromSeverity_UnknownDefaultsToInfo(t *testing.T) {
	assert.Equal(t, LevelInfo, levelFromSeverity("not-a-real-level"))
}
