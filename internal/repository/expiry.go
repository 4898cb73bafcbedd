package repository

import (
    "context"
    "fmt"

    "github.com/redis/go-redis/v9"
)

// ExpiredKey is one key-expiration notification.
type ExpiredKey struct {
    Channel string
    Key     string
}

// ExpiryFeed turns Redis expired-key events into a channel of ExpiredKey.
// Redis delivers them over pub/sub: best-effort, at most once, with no
// replay for subscribers that were disconnected at the time.
type ExpiryFeed struct {
    rdb *redis.Client
    db  int
}

// NewExpiryFeed builds a feed for the database the client is connected to.
func NewExpiryFeed(rdb *redis.Client) *ExpiryFeed {
    return &ExpiryFeed{rdb: rdb, db: rdb.Options().DB}
}

// Channel is the keyevent channel expired-key notifications arrive on.
func (f *ExpiryFeed) Channel() string {
    return fmt.Sprintf("__keyevent@%d__:expired", f.db)
}

// EnableNotifications asks the server to publish expired-key events.
// Managed Redis offerings often reject CONFIG; callers treat the error as
// a warning and rely on server-side configuration plus the sweeper.
func (f *ExpiryFeed) EnableNotifications(ctx context.Context) error {
    return f.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
}

// Subscribe starts listening and returns a channel that is closed when ctx
// is cancelled.  The subscription is confirmed before Subscribe returns, so
// expirations after that point are observed as long as the connection
// stays up.
func (f *ExpiryFeed) Subscribe(ctx context.Context) (<-chan ExpiredKey, error) {
    ps := f.rdb.PSubscribe(ctx, f.Channel())
    if _, err := ps.Receive(ctx); err != nil {
        _ = ps.Close()
        return nil, fmt.Errorf("psubscribe %s: %w", f.Channel(), err)
    }
    out := make(chan ExpiredKey, 256)
    go func() {
        defer close(out)
        defer func() { _ = ps.Close() }()
        msgs := ps.Channel()
        for {
            select {
            case <-ctx.Done():
                return
            case m, ok := <-msgs:
                if !ok {
                    return
                }
                select {
                case out <- ExpiredKey{Channel: m.Channel, Key: m.Payload}:
                case <-ctx.Done():
                    return
                }
            }
        }
    }()
    return out, nil
}
