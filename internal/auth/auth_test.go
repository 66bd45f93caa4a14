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

package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func withTempConfigHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func TestSaveLoadToken_RoundTrips(t *testing.T) {
	withTempConfigHome(t)
	tok := &oauth2.Token{AccessToken: "abc", RefreshToken: "xyz", Expiry: time.Now().Add(time.Hour)}

	require.NoError(t, SaveToken("work", tok))

	got, err := LoadToken("work")
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
}

func TestSaveToken_FilePermissionsAreOwnerOnly(t *testing.T) {
	withTempConfigHome(t)
	require.NoError(t, SaveToken("work", &oauth2.Token{AccessToken: "abc"}))

	dir, err := ConfigDir()
	require.NoError(t, err)
	info, err := os.Stat(dir + "/work.token")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadToken_MissingSessionErrors(t *testing.T) {
	withTempConfigHome(t)
	_, err := LoadToken("nope")
	assert.Error(t, err)
}

func TestRemoveToken_ThenListSessions(t *testing.T) {
	withTempConfigHome(t)
	require.NoError(t, SaveToken("a", &oauth2.Token{AccessToken: "1"}))
	require.NoError(t, SaveToken("b", &oauth2.Token{AccessToken: "2"}))

	sessions, err := ListSessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, sessions)

	require.NoError(t, RemoveToken("a"))
	sessions, err = ListSessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, sessions)
}

func TestRemoveToken_MissingSessionIsNotAnError(t *testing.T) {
	withTempConfigHome(t)
	assert.NoError(t, RemoveToken("never-existed"))
}
