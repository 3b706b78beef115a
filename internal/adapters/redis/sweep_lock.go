// Package redis provides Redis-backed adapters for balancedesk.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/target/balancedesk/internal/service"
)

// SweepLocker implements service.SweepLocker with a redislock lease.
type SweepLocker struct {
	client *redislock.Client
}

var _ service.SweepLocker = (*SweepLocker)(nil)

// NewSweepLocker creates a SweepLocker over client.
func NewSweepLocker(client redis.UniversalClient) *SweepLocker {
	return &SweepLocker{client: redislock.New(client)}
}

// Obtain takes the lock once, without retrying. A lock held elsewhere yields service.ErrLockHeld.
func (l *SweepLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, service.ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}, nil
}
