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
	"bytes"
	"sync"
)

// pendingRegion is the coalesced byte range buffered for one remote id
// between writes and the next flush. Grounded on gcsproxy.MutableContent's
// dirtyThreshold/WriteAt bookkeeping: writes accumulate in memory and are
// only pushed to the backing store on an explicit flush.
type pendingRegion struct {
	data []byte
}

func (r *pendingRegion) reader() *bytes.Reader { return bytes.NewReader(r.data) }

// pendingWriteSet buffers uncommitted writes per remote id, coalescing
// overlapping or sequential writes into one contiguous buffer the way
// spec.md's expanded Drive Facade module calls for.
type pendingWriteSet struct {
	mu      sync.Mutex
	regions map[string]*pendingRegion
}

func newPendingWriteSet() *pendingWriteSet {
	return &pendingWriteSet{regions: make(map[string]*pendingRegion)}
}

func (p *pendingWriteSet) write(id string, offset int64, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.regions[id]
	if !ok {
		r = &pendingRegion{}
		p.regions[id] = r
	}
	end := int(offset) + len(data)
	if end > len(r.data) {
		grown := make([]byte, end)
		copy(grown, r.data)
		r.data = grown
	}
	copy(r.data[offset:], data)
}

// take removes and returns the pending region for id, if any, so Flush can
// push it without holding the lock during the network call.
func (p *pendingWriteSet) take(id string) (*pendingRegion, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.regions[id]
	if ok {
		delete(p.regions, id)
	}
	return r, ok
}

// restore puts a region back after a failed flush attempt, so the buffered
// bytes are not lost and a later flush can retry.
func (p *pendingWriteSet) restore(id string, r *pendingRegion) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.regions[id]; ok {
		// A newer write arrived while the failed flush was in flight;
		// keep the newer one, it already covers everything r did if the
		// caller writes monotonically, which drivefuse's Write path does.
		_ = existing
		return
	}
	p.regions[id] = r
}

func (p *pendingWriteSet) drop(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regions, id)
}
