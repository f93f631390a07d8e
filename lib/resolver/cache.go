// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"sync"

	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// cacheEntry is one canonical key's slot. mu is held across backend
// open and close. Lock order: an entry's mu before the cache's mu;
// the cache's mu is never held while waiting for an entry.
type cacheEntry struct {
	mu         sync.Mutex
	fileSystem vfs.FileSystem // guarded by mu; nil when not open
	references int            // guarded by mu

	pins int // guarded by cache.mu; callers holding or waiting for mu
}

type cache struct {
	mu      sync.Mutex
	entries map[pathspec.Key]*cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[pathspec.Key]*cacheEntry)}
}

// lock pins the entry for key, creating it if needed, and returns it
// locked. The pin keeps the entry in the table while the caller waits
// for its lock.
func (c *cache) lock(key pathspec.Key) *cacheEntry {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	entry.pins++
	c.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// lockExisting is lock without creation. It returns nil when key has
// no entry.
func (c *cache) lockExisting(key pathspec.Key) *cacheEntry {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	entry.pins++
	c.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// unlock drops the caller's pin and unlocks the entry. An entry with
// no open FileSystem and no other pins is removed from the table.
func (c *cache) unlock(key pathspec.Key, entry *cacheEntry) {
	empty := entry.fileSystem == nil

	c.mu.Lock()
	entry.pins--
	if entry.pins == 0 && empty {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	entry.mu.Unlock()
}

// len returns the number of entries, including ones mid-open.
func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
