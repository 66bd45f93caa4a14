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

package cfg

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MountCheckIsOnByDefault(t *testing.T) {
	d := Default()
	assert.True(t, d.MountCheck)
	assert.Equal(t, 30*time.Second, d.SyncInterval)
	assert.Equal(t, "INFO", d.LogSeverity)
}

func TestBindFlags_RegistersEverySpecOption(t *testing.T) {
	fs := pflag.NewFlagSet("drivefuse", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))

	for _, name := range []string{
		"debug", "mount-check", "cache-max-seconds", "cache-max-items",
		"cache-statfs-seconds", "sync-interval", "mount-options",
		"authorize-using-code", "rename-identical-files",
		"add-extensions-to-special-files", "skip-trash", "client-secret",
	} {
		assert.NotNil(t, fs.Lookup(name), "missing flag %q", name)
	}
}
