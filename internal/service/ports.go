package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/repository"
)

// EventStore is the catalog capability surface; *repository.EventRepo
// implements it.
type EventStore interface {
	Create(ctx context.Context, ev model.Event) error
	GetByID(ctx context.Context, id string) (model.Event, bool, error)
	List(ctx context.Context, offset, limit int) ([]model.Event, error)
	Seats(ctx context.Context, eventID string) ([]string, error)
	SeatExists(ctx context.Context, eventID, seatID string) (bool, error)
}

// HoldStore covers leases, claims, hold indexes and reserved sets;
// *repository.HoldRepo implements it.
type HoldStore interface {
	Create(ctx context.Context, l model.Lease) error
	Snapshot(ctx context.Context, eventID, userID, seatID string) (repository.SeatSnapshot, error)
	Refresh(ctx context.Context, l model.Lease) (bool, error)
	Commit(ctx context.Context, eventID, userID, seatID string, releaseClaim bool) error
	UserHolds(ctx context.Context, userID, eventID string) ([]string, error)
	Reserved(ctx context.Context, eventID string) ([]string, error)
	ClaimedSeats(ctx context.Context, eventID string, seatIDs []string) (map[string]bool, error)
	RemoveIfExpired(ctx context.Context, userID, eventID, seatID string) (bool, error)
	ScanHoldIndexes(ctx context.Context, fn func(idx model.HoldIndex) error) error
}

// Locker is a non-blocking, leased distributed lock.  TryLock returns
// repository.ErrLockNotObtained when the key is already held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (repository.UnlockFunc, error)
}

// ExpirySource yields key-expiration notifications until ctx is done.
type ExpirySource interface {
	Subscribe(ctx context.Context) (<-chan repository.ExpiredKey, error)
}
