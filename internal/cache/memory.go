package cache

import (
	"bytes"
	"context"
	"sync"
)

var _ FeaturedCache = (*MemoryCache)(nil)

// MemoryCache is a process-local FeaturedCache.
type MemoryCache struct {
	mu       sync.RWMutex
	snapshot []byte
	present  bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.present {
		return nil, ErrCacheMiss
	}
	return bytes.Clone(c.snapshot), nil
}

func (c *MemoryCache) Set(_ context.Context, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = bytes.Clone(snapshot)
	if c.snapshot == nil {
		c.snapshot = []byte{}
	}
	c.present = true
	return nil
}
