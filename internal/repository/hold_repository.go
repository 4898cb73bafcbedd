package repository

import (
    "context"
    "errors"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-seat-reservation/internal/model"
)

// HoldRepo provides access to leases, seat claims, per-user hold indexes
// and per-event reserved sets.  Multi-key mutations run inside MULTI/EXEC
// so each either fully applies or not at all.
type HoldRepo struct {
    rdb *redis.Client
}

// NewHoldRepo returns a new HoldRepo bound to the provided client.
func NewHoldRepo(rdb *redis.Client) *HoldRepo { return &HoldRepo{rdb: rdb} }

// SeatSnapshot is a single-round-trip read of everything that decides a
// seat's state for one caller.
type SeatSnapshot struct {
    LeaseHolder string // value of hold:{e}:{u}:{s}; empty when the caller has no lease
    Claimant    string // value of claim:{e}:{s}; empty when nobody holds the seat
    Reserved    bool   // seat is in event:{e}:reserved
}

// Create adds the seat to the user's hold index and writes the lease and
// claim keys with the lease TTL.
func (r *HoldRepo) Create(ctx context.Context, l model.Lease) error {
    _, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        pipe.SAdd(ctx, HoldIndexKey(l.UserID, l.EventID), l.SeatID)
        pipe.Set(ctx, LeaseKey(l.EventID, l.UserID, l.SeatID), l.UserID, l.TTL)
        pipe.Set(ctx, ClaimKey(l.EventID, l.SeatID), l.UserID, l.TTL)
        return nil
    })
    return err
}

// Snapshot reads the caller's lease, the seat claim and reserved membership
// in one pipeline.
func (r *HoldRepo) Snapshot(ctx context.Context, eventID, userID, seatID string) (SeatSnapshot, error) {
    var lease, claim *redis.StringCmd
    var reserved *redis.BoolCmd
    _, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
        lease = pipe.Get(ctx, LeaseKey(eventID, userID, seatID))
        claim = pipe.Get(ctx, ClaimKey(eventID, seatID))
        reserved = pipe.SIsMember(ctx, eventReservedKey(eventID), seatID)
        return nil
    })
    // a pipeline reports the first failing command; redis.Nil from a GET is expected
    if err != nil && !errors.Is(err, redis.Nil) {
        return SeatSnapshot{}, err
    }
    var snap SeatSnapshot
    if snap.LeaseHolder, err = optionalString(lease); err != nil {
        return SeatSnapshot{}, err
    }
    if snap.Claimant, err = optionalString(claim); err != nil {
        return SeatSnapshot{}, err
    }
    if snap.Reserved, err = reserved.Result(); err != nil {
        return SeatSnapshot{}, err
    }
    return snap, nil
}

// Refresh resets the TTL of the lease and the claim.  It reports false when
// the lease no longer exists.  The hold index is not touched.
func (r *HoldRepo) Refresh(ctx context.Context, l model.Lease) (bool, error) {
    var lease *redis.BoolCmd
    _, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        lease = pipe.Expire(ctx, LeaseKey(l.EventID, l.UserID, l.SeatID), l.TTL)
        pipe.Expire(ctx, ClaimKey(l.EventID, l.SeatID), l.TTL)
        return nil
    })
    if err != nil {
        return false, err
    }
    return lease.Val(), nil
}

// Commit moves a held seat into the reserved set.  The claim is deleted
// only when releaseClaim is set, i.e. when it still names the committing
// user.
func (r *HoldRepo) Commit(ctx context.Context, eventID, userID, seatID string, releaseClaim bool) error {
    _, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        pipe.SAdd(ctx, eventReservedKey(eventID), seatID)
        pipe.SRem(ctx, HoldIndexKey(userID, eventID), seatID)
        pipe.Del(ctx, LeaseKey(eventID, userID, seatID))
        if releaseClaim {
            pipe.Del(ctx, ClaimKey(eventID, seatID))
        }
        return nil
    })
    return err
}

// UserHolds returns the user's hold index for an event.
func (r *HoldRepo) UserHolds(ctx context.Context, userID, eventID string) ([]string, error) {
    return r.rdb.SMembers(ctx, HoldIndexKey(userID, eventID)).Result()
}

// Reserved returns the event's reserved seat ids.
func (r *HoldRepo) Reserved(ctx context.Context, eventID string) ([]string, error) {
    return r.rdb.SMembers(ctx, eventReservedKey(eventID)).Result()
}

// ClaimedSeats returns which of seatIDs currently have a live claim, using
// one pipelined EXISTS per seat.
func (r *HoldRepo) ClaimedSeats(ctx context.Context, eventID string, seatIDs []string) (map[string]bool, error) {
    claimed := make(map[string]bool, len(seatIDs))
    if len(seatIDs) == 0 {
        return claimed, nil
    }
    cmds := make([]*redis.IntCmd, len(seatIDs))
    _, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
        for i, sid := range seatIDs {
            cmds[i] = pipe.Exists(ctx, ClaimKey(eventID, sid))
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    for i, sid := range seatIDs {
        if cmds[i].Val() > 0 {
            claimed[sid] = true
        }
    }
    return claimed, nil
}

// removeIfExpired drops a seat from a hold index only while its lease is
// gone.  Checking and removing in one script keeps a hold that was
// re-created after the expiry from being dropped from the index.
var removeIfExpired = redis.NewScript(`
    if redis.call('EXISTS', KEYS[2]) == 1 then
        return 0
    end
    return redis.call('SREM', KEYS[1], ARGV[1])
`)

// RemoveIfExpired removes seatID from the user's hold index when the
// corresponding lease no longer exists, and reports whether an entry was
// removed.
func (r *HoldRepo) RemoveIfExpired(ctx context.Context, userID, eventID, seatID string) (bool, error) {
    keys := []string{HoldIndexKey(userID, eventID), LeaseKey(eventID, userID, seatID)}
    n, err := removeIfExpired.Run(ctx, r.rdb, keys, seatID).Int64()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ScanHoldIndexes calls fn for every hold index key, SCANning in batches so
// large keyspaces do not block the server.  fn errors abort the scan.
func (r *HoldRepo) ScanHoldIndexes(ctx context.Context, fn func(idx model.HoldIndex) error) error {
    iter := r.rdb.Scan(ctx, 0, holdIndexMatch, 200).Iterator()
    for iter.Next(ctx) {
        userID, eventID, ok := ParseHoldIndexKey(iter.Val())
        if !ok {
            continue
        }
        if err := fn(model.HoldIndex{UserID: userID, EventID: eventID}); err != nil {
            return err
        }
    }
    return iter.Err()
}

func optionalString(cmd *redis.StringCmd) (string, error) {
    v, err := cmd.Result()
    if errors.Is(err, redis.Nil) {
        return "", nil
    }
    return v, err
}
