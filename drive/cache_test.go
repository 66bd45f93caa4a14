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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentCache_GetMissThenHit(t *testing.T) {
	c := newContentCache(4, time.Minute)
	_, ok := c.get("a", 0, 10)
	assert.False(t, ok)

	c.put("a", []byte("hello world"))
	data, ok := c.get("a", 0, 5)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
}

func TestContentCache_ExpiresAfterTTL(t *testing.T) {
	c := newContentCache(4, time.Millisecond)
	c.put("a", []byte("hello"))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.get("a", 0, 5)
	assert.False(t, ok)
}

func TestContentCache_EvictsOldestBeyondCapacity(t *testing.T) {
	c := newContentCache(2, time.Minute)
	c.put("a", []byte("a"))
	c.put("b", []byte("b"))
	c.put("c", []byte("c"))

	_, ok := c.get("a", 0, 1)
	assert.False(t, ok, "a should have been evicted")
	_, ok = c.get("c", 0, 1)
	assert.True(t, ok)
}

func TestContentCache_InvalidateRemoves(t *testing.T) {
	c := newContentCache(4, time.Minute)
	c.put("a", []byte("hello"))
	c.invalidate("a")
	_, ok := c.get("a", 0, 5)
	assert.False(t, ok)
}

func TestPendingWriteSet_CoalescesSequentialWrites(t *testing.T) {
	p := newPendingWriteSet()
	p.write("id", 0, []byte("hello "))
	p.write("id", 6, []byte("world"))

	r, ok := p.take("id")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(r.data))

	_, ok = p.take("id")
	assert.False(t, ok, "take should drain the region")
}

func TestPendingWriteSet_OverlappingWritePatchesInPlace(t *testing.T) {
	p := newPendingWriteSet()
	p.write("id", 0, []byte("xxxxx"))
	p.write("id", 1, []byte("bc"))

	r, _ := p.take("id")
	assert.Equal(t, "xbcxx", string(r.data))
}

func TestSliceWindow_ClampsToBounds(t *testing.T) {
	data := []byte("0123456789")
	assert.Equal(t, []byte("234"), sliceWindow(data, 2, 3))
	assert.Equal(t, []byte("89"), sliceWindow(data, 8, 10))
	assert.Nil(t, sliceWindow(data, 20, 5))
	assert.Nil(t, sliceWindow(data, -1, 5))
}

func TestStatfsCache_ExpiresAfterTTL(t *testing.T) {
	s := newStatfsCache(time.Millisecond)
	s.put(10, 100)
	used, total, ok := s.get()
	require.True(t, ok)
	assert.Equal(t, uint64(10), used)
	assert.Equal(t, uint64(100), total)

	time.Sleep(5 * time.Millisecond)
	_, _, ok = s.get()
	assert.False(t, ok)
}
