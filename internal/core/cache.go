// Package core defines the ports between balancedesk services and their backing stores.
package core

import (
	"context"
	"time"
)

// CacheRepository is the TTL key/value store the job store is built on.
// A ttl of zero means the key never expires. Missing and expired keys read
// as (nil, nil).
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete reports whether a live key was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// SetIfNotExists writes only when key is absent and reports whether it wrote.
	// It is atomic with respect to other writers of the same backend.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Health(ctx context.Context) error
}

// Sweeper is implemented by cache backends that need an explicit janitor pass
// to drop expired entries. Redis expires keys itself and does not implement it.
type Sweeper interface {
	Sweep(now time.Time) int
}
