package repository

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-seat-reservation/internal/model"
)

// EventRepo stores the event catalog: the `events` ordered set, one info
// hash per event and the ordered seat list.  Seats are written once at
// creation and never modified.
type EventRepo struct {
    rdb *redis.Client
}

// NewEventRepo returns a new EventRepo bound to the provided client.
func NewEventRepo(rdb *redis.Client) *EventRepo { return &EventRepo{rdb: rdb} }

// Create writes the event hash, registers the event in the `events` set
// scored by its creation time, and adds seats seatId-1..N scored 1..N.  All
// three writes happen in one MULTI/EXEC so a half-created event is never
// visible.
func (r *EventRepo) Create(ctx context.Context, ev model.Event) error {
    seats := make([]redis.Z, 0, ev.TotalSeats)
    for i := 1; i <= ev.TotalSeats; i++ {
        seats = append(seats, redis.Z{Score: float64(i), Member: SeatID(i)})
    }
    _, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        pipe.HSet(ctx, eventInfoKey(ev.ID), encodeEvent(ev))
        pipe.ZAdd(ctx, eventsKey, redis.Z{Score: float64(ev.CreatedAt.UnixMilli()), Member: ev.ID})
        pipe.ZAdd(ctx, eventSeatsKey(ev.ID), seats...)
        return nil
    })
    return err
}

// GetByID loads one event.  The boolean is false when no info hash exists.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, bool, error) {
    m, err := r.rdb.HGetAll(ctx, eventInfoKey(id)).Result()
    if err != nil {
        return model.Event{}, false, err
    }
    if len(m) == 0 {
        return model.Event{}, false, nil
    }
    ev, err := decodeEvent(m)
    if err != nil {
        return model.Event{}, false, fmt.Errorf("event %s: %w", id, err)
    }
    return ev, true, nil
}

// List returns events in creation order.  limit <= 0 returns every event
// from offset onwards.  Ids whose info hash is missing or malformed are
// skipped so one damaged record cannot hide the rest of the catalog.
func (r *EventRepo) List(ctx context.Context, offset, limit int) ([]model.Event, error) {
    if offset < 0 {
        offset = 0
    }
    stop := int64(-1)
    if limit > 0 {
        stop = int64(offset + limit - 1)
    }
    ids, err := r.rdb.ZRange(ctx, eventsKey, int64(offset), stop).Result()
    if err != nil {
        return nil, err
    }
    if len(ids) == 0 {
        return []model.Event{}, nil
    }
    cmds := make([]*redis.MapStringStringCmd, len(ids))
    _, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
        for i, id := range ids {
            cmds[i] = pipe.HGetAll(ctx, eventInfoKey(id))
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    events := make([]model.Event, 0, len(ids))
    for _, cmd := range cmds {
        m := cmd.Val()
        if len(m) == 0 {
            continue
        }
        ev, err := decodeEvent(m)
        if err != nil {
            continue
        }
        events = append(events, ev)
    }
    return events, nil
}

// Seats returns the seat ids of an event ordered by creation sequence.  An
// unknown event yields an empty slice.
func (r *EventRepo) Seats(ctx context.Context, eventID string) ([]string, error) {
    return r.rdb.ZRange(ctx, eventSeatsKey(eventID), 0, -1).Result()
}

// SeatExists reports whether seatID belongs to the event's seat list.
func (r *EventRepo) SeatExists(ctx context.Context, eventID, seatID string) (bool, error) {
    err := r.rdb.ZScore(ctx, eventSeatsKey(eventID), seatID).Err()
    if errors.Is(err, redis.Nil) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func encodeEvent(ev model.Event) map[string]interface{} {
    return map[string]interface{}{
        "id":          ev.ID,
        "title":       ev.Title,
        "content":     ev.Content,
        "total_seats": strconv.Itoa(ev.TotalSeats),
        "created_at":  ev.CreatedAt.UTC().Format(time.RFC3339Nano),
    }
}

// decodeEvent is the only path from a stored hash to a model.Event.  Every
// field must be present; content may be empty but not absent.
func decodeEvent(m map[string]string) (model.Event, error) {
    for _, f := range []string{"id", "title", "content", "total_seats", "created_at"} {
        if _, ok := m[f]; !ok {
            return model.Event{}, fmt.Errorf("%w: missing field %q", ErrMalformedRecord, f)
        }
    }
    if m["id"] == "" {
        return model.Event{}, fmt.Errorf("%w: empty id", ErrMalformedRecord)
    }
    total, err := strconv.Atoi(m["total_seats"])
    if err != nil || total <= 0 {
        return model.Event{}, fmt.Errorf("%w: total_seats %q", ErrMalformedRecord, m["total_seats"])
    }
    created, err := time.Parse(time.RFC3339Nano, m["created_at"])
    if err != nil {
        return model.Event{}, fmt.Errorf("%w: created_at %q", ErrMalformedRecord, m["created_at"])
    }
    return model.Event{
        ID:         m["id"],
        Title:      m["title"],
        Content:    m["content"],
        TotalSeats: total,
        CreatedAt:  created.UTC(),
    }, nil
}
