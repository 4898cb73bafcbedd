package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/bsm/redislock"
    "github.com/redis/go-redis/v9"
)

// UnlockFunc releases a lock obtained from SeatLocker.  It must be called
// exactly once, typically via defer.
type UnlockFunc func(ctx context.Context) error

// SeatLocker is a leased mutual-exclusion primitive shared by every server
// instance through Redis.  Each lock carries a random token, so a release
// only deletes the key while it still belongs to the caller, and a TTL, so
// a crashed holder cannot block a seat forever.
type SeatLocker struct {
    client *redislock.Client
}

// NewSeatLocker builds a locker on top of the shared Redis client.
func NewSeatLocker(rdb *redis.Client) *SeatLocker {
    return &SeatLocker{client: redislock.New(rdb)}
}

// TryLock makes a single attempt to obtain key for ttl.  It never waits:
// when the key is held elsewhere it returns ErrLockNotObtained.
func (l *SeatLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
    lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: redislock.NoRetry()})
    if errors.Is(err, redislock.ErrNotObtained) {
        return nil, ErrLockNotObtained
    }
    if err != nil {
        return nil, fmt.Errorf("obtain %s: %w", key, err)
    }
    return func(ctx context.Context) error {
        if err := lock.Release(ctx); err != nil {
            // ErrLockNotHeld means the lease ran out before release
            return fmt.Errorf("release %s: %w", key, err)
        }
        return nil
    }, nil
}
