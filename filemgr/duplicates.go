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

package filemgr

import (
	"fmt"
	"strings"
)

// dupDisplayName formats a duplicate-suffixed name the way spec.md §8's
// worked example renders it to the kernel: "note 2", not "note (2)".
func dupDisplayName(name string, suffix int) string {
	ext := ""
	base := name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		base, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s %d%s", base, suffix, ext)
}

// recomputeDuplicates re-derives the DupSuffix of every live child of h.
// Siblings sharing a Name are walked in tree order (insertion order,
// modulo removals): the first keeps DupSuffix 0, the second gets 2, the
// third 3, and so on. This makes the assignment entirely a function of
// the current children list rather than of history, so creating a second
// "a.txt" always yields exactly one suffixed entry, and deleting back down
// to a single "a.txt" always clears its suffix — matching the worked
// example in spec.md §8 without needing to remember past suffix values.
// With RenameIdenticalFiles off it does nothing and every DupSuffix stays 0.
func (m *Manager) recomputeDuplicates(h handle) {
	if !m.opts.RenameIdenticalFiles {
		return
	}
	n := m.tree.node(h)
	if n == nil {
		return
	}
	seen := make(map[string]int, len(n.children))
	for _, c := range n.children {
		cn := m.tree.node(c)
		if cn == nil {
			continue
		}
		idx := seen[cn.file.Name]
		seen[cn.file.Name] = idx + 1
		if idx == 0 {
			cn.file.DupSuffix = 0
		} else {
			cn.file.DupSuffix = idx + 1
		}
	}
}

// specialExtensions maps a Google-native Drive mime type to the office
// extension drivefuse appends to its name so local tools can open it, per
// spec.md §4.1's "special file" handling and the add_extensions_to_special_files
// option.
var specialExtensions = map[string]string{
	"application/vnd.google-apps.document":     "#.odt",
	"application/vnd.google-apps.spreadsheet":  "#.ods",
	"application/vnd.google-apps.presentation": "#.odp",
	"application/vnd.google-apps.drawing":      "#.odg",
	"application/vnd.google-apps.form":         "#.html",
	"application/vnd.google-apps.site":         "#.site",
}

// displayNameFor computes the local name the Manager should store for a
// File built from a remote descriptor: the raw Drive name, plus a special
// extension when the object is a Google-native type and the option is on.
// Idempotent: obj.Name is always the raw Drive name with no suffix, so
// repeated application (e.g. on every sync overwrite) never double-appends.
func displayNameFor(obj *RemoteObject, addSpecialExtensions bool) string {
	if !addSpecialExtensions {
		return obj.Name
	}
	if ext, ok := specialExtensions[obj.MimeType]; ok {
		return obj.Name + ext
	}
	return obj.Name
}
