// Copyright 2019 Dolthub, Inc.
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

// Package sizecache implements a byte-budgeted LRU cache, used by the
// repository coordinator to avoid re-fetching the same pack object when a
// single read_data call walks consecutive chunk refs into it.
package sizecache

import (
	"container/list"
	"sync"
)

// ExpireCallback is invoked, with the cache's lock held, whenever an entry is
// evicted to make room for a new one; it must not call back into the cache.
type ExpireCallback func(key interface{})

// SizeCache is an LRU cache bounded by total byte size of its values rather
// than by entry count. The backing list's Value is always the cache key, so
// Front()/Back() are directly inspectable by callers and tests.
type SizeCache struct {
	mu        sync.Mutex
	totalSize uint64
	maxSize   uint64
	lru       *list.List
	cache     map[interface{}]*record
	onExpire  ExpireCallback
}

type record struct {
	el    *list.Element
	size  uint64
	value interface{}
}

// New returns a SizeCache that evicts least-recently-used entries once the
// sum of added sizes would exceed maxSize.
func New(maxSize uint64) *SizeCache {
	return NewWithExpireCallback(maxSize, nil)
}

// NewWithExpireCallback is like New, but invokes cb with the key of every
// entry evicted to make room, and of every value too large to be retained.
// Drop and Purge do not invoke cb.
func NewWithExpireCallback(maxSize uint64, cb ExpireCallback) *SizeCache {
	return &SizeCache{
		maxSize:  maxSize,
		lru:      list.New(),
		cache:    map[interface{}]*record{},
		onExpire: cb,
	}
}

// Add inserts key -> value, recording its size for budget accounting. A
// value whose size alone exceeds maxSize is never retained. Adding an
// already-present key refreshes its LRU position.
func (c *SizeCache) Add(key interface{}, size uint64, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)

	if size > c.maxSize {
		c.expire(key)
		return
	}

	for c.totalSize+size > c.maxSize && c.lru.Len() > 0 {
		oldest := c.lru.Front()
		oldKey := oldest.Value
		c.lru.Remove(oldest)
		old := c.cache[oldKey]
		delete(c.cache, oldKey)
		c.totalSize -= old.size
		c.expire(oldKey)
	}

	el := c.lru.PushBack(key)
	c.cache[key] = &record{el: el, size: size, value: value}
	c.totalSize += size
}

func (c *SizeCache) removeLocked(key interface{}) {
	rec, ok := c.cache[key]
	if !ok {
		return
	}
	c.lru.Remove(rec.el)
	delete(c.cache, key)
	c.totalSize -= rec.size
}

func (c *SizeCache) expire(key interface{}) {
	if c.onExpire != nil {
		c.onExpire(key)
	}
}

// Get returns the value for key, promoting it to most-recently-used.
func (c *SizeCache) Get(key interface{}) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToBack(rec.el)
	return rec.value, true
}

// Drop removes key from the cache, if present, without invoking the expire
// callback.
func (c *SizeCache) Drop(key interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
}

// Purge empties the cache.
func (c *SizeCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	c.cache = map[interface{}]*record{}
	c.totalSize = 0
}
