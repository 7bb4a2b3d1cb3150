// Package modelcache holds a time-windowed copy of the remote model list.
// The TTL and the invalidation operation are explicit so autocomplete
// handlers never hide staleness behind ambient package state.
package modelcache

import (
	"context"
	"sync"
	"time"

	"github.com/lunateq/mnemo/llm"
)

type Cache struct {
	Client llm.Client
	TTL    time.Duration

	mu        sync.Mutex
	models    []string
	fetchedAt time.Time
}

func New(client llm.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{Client: client, TTL: ttl}
}

// Models returns the cached list, refreshing it from the client when the
// TTL has lapsed. A failed refresh falls back to the stale copy when one
// exists.
func (c *Cache) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil && time.Since(c.fetchedAt) < c.TTL {
		return append([]string(nil), c.models...), nil
	}

	fresh, err := c.Client.ListModels(ctx)
	if err != nil {
		if c.models != nil {
			return append([]string(nil), c.models...), nil
		}
		return nil, err
	}
	c.models = fresh
	c.fetchedAt = time.Now()
	return append([]string(nil), c.models...), nil
}

// Invalidate drops the cached list; the next Models call refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = nil
	c.fetchedAt = time.Time{}
}
