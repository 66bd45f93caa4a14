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

package drive

import (
	"context"
	"fmt"
	"sync"
)

// changeCursor holds Drive's opaque "start page token" for Changes.List.
// It lives only for the process's lifetime: spec.md's Non-goals exclude
// persisting any state across restarts, so a fresh Facade always seeds
// the cursor from Changes.GetStartPageToken on first use.
type changeCursor struct {
	mu    sync.Mutex
	token string
}

func (f *Facade) loadCursor(ctx context.Context) (string, error) {
	f.cursorOnce.Do(func() {
		if err := f.wait(ctx); err != nil {
			f.cursorErr = err
			return
		}
		resp, err := f.svc.Changes.GetStartPageToken().Context(ctx).Do()
		if err != nil {
			f.cursorErr = fmt.Errorf("drive: Changes.GetStartPageToken: %w", err)
			return
		}
		f.cursor.token = resp.StartPageToken
	})
	if f.cursorErr != nil {
		return "", f.cursorErr
	}
	f.cursor.mu.Lock()
	defer f.cursor.mu.Unlock()
	return f.cursor.token, nil
}

func (f *Facade) saveCursor(token string) {
	f.cursor.mu.Lock()
	defer f.cursor.mu.Unlock()
	f.cursor.token = token
}
