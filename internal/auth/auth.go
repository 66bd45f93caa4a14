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

// Package auth stores and retrieves the OAuth2 token for a named drivefuse
// session, one JSON file per session under $XDG_CONFIG_HOME/drivefuse, per
// spec.md §6's OAuth token storage collaborator. Thin by design: the heavy
// lifting (the authorization code exchange) belongs to golang.org/x/oauth2,
// which the teacher already depends on for its own GCS credentials.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const dirName = "drivefuse"

// ConfigDir returns $XDG_CONFIG_HOME/drivefuse, falling back to
// ~/.config/drivefuse when XDG_CONFIG_HOME is unset, the same fallback
// os.UserConfigDir() itself implements on Linux.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("auth: resolving config dir: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

func tokenPath(session string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, session+".token"), nil
}

// SaveToken writes tok as the stored credential for session, creating the
// config directory if needed and restricting the file to 0600 since it
// carries a live refresh token.
func SaveToken(session string, tok *oauth2.Token) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("auth: creating config dir: %w", err)
	}
	path, err := tokenPath(session)
	if err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("auth: marshaling token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("auth: writing token file: %w", err)
	}
	return nil
}

// LoadToken reads back the credential SaveToken stored for session.
func LoadToken(session string) (*oauth2.Token, error) {
	path, err := tokenPath(session)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("auth: unmarshaling token: %w", err)
	}
	return &tok, nil
}

// RemoveToken deletes the stored credential for session (the "logout"
// subcommand's implementation).
func RemoveToken(session string) error {
	path, err := tokenPath(session)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("auth: removing token file: %w", err)
	}
	return nil
}

// ListSessions returns the names of every session with a stored token.
func ListSessions() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: listing config dir: %w", err)
	}
	var sessions []string
	for _, e := range entries {
		name := e.Name()
		const suffix = ".token"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			sessions = append(sessions, name[:len(name)-len(suffix)])
		}
	}
	return sessions, nil
}
