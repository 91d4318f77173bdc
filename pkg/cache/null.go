package cache

import (
	"context"
	"time"
)

// NullCache is the cache behind --no-cache and cache.backend = "none".
// Every lookup misses, so the pipeline always rescans, and stored
// snapshots are dropped. Clearing it succeeds since there is nothing to
// remove.
type NullCache struct{}

// NewNullCache returns a cache that keeps no snapshots.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Clear(context.Context) error                              { return nil }
func (NullCache) Close() error                                             { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
