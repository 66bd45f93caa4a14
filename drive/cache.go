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
	"container/list"
	"sync"
	"time"
)

// contentCache is a bounded, TTL-expiring cache of whole-file downloads,
// keyed by remote id. Grounded on gcsproxy.MutableContent's split between
// an immutable "initial content" and a dirtied overlay: here the overlay
// is the pendingWriteSet (pending_writes.go) and this cache only ever
// holds the clean, last-read-from-Drive bytes, evalidated on every write
// that successfully flushes.
type contentCache struct {
	mu       sync.Mutex
	maxItems int
	ttl      time.Duration

	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

type cacheEntry struct {
	id        string
	data      []byte
	expiresAt time.Time
}

func newContentCache(maxItems int, ttl time.Duration) *contentCache {
	if maxItems <= 0 {
		maxItems = 64
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &contentCache{
		maxItems: maxItems,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *contentCache) get(id string, offset int64, size int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, id)
		return nil, false
	}
	c.order.MoveToFront(el)
	return sliceWindow(entry.data, offset, size), true
}

func (c *contentCache) put(id string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		c.order.Remove(el)
	}
	entry := &cacheEntry{id: id, data: data, expiresAt: time.Now().Add(c.ttl)}
	el := c.order.PushFront(entry)
	c.entries[id] = el
	for c.order.Len() > c.maxItems {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
	}
}

func (c *contentCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		c.order.Remove(el)
		delete(c.entries, id)
	}
}

// statfsCache holds the last About.Get storage quota result for
// cache_statfs_seconds, mirroring the teacher's dedicated statfs cache.
type statfsCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	expiresAt time.Time
	used      uint64
	total     uint64
}

func newStatfsCache(ttl time.Duration) *statfsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &statfsCache{ttl: ttl}
}

func (s *statfsCache) get() (used, total uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Now().After(s.expiresAt) {
		return 0, 0, false
	}
	return s.used, s.total, true
}

func (s *statfsCache) put(used, total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used, s.total = used, total
	s.expiresAt = time.Now().Add(s.ttl)
}
