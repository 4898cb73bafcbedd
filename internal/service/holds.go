package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/obs"
	"github.com/iliyamo/event-seat-reservation/internal/repository"
)

// HoldConfig tunes hold and reservation behaviour.
type HoldConfig struct {
	HoldDuration    time.Duration // lease TTL
	MaxHoldsPerUser int           // per user, per event
	Strict          bool          // run createHold under the seat lock
	LockTTL         time.Duration // lease of the seat lock
}

// HoldManager creates and refreshes seat leases, answers availability
// queries and finalizes reservations.  All shared state lives in the
// store, so any number of HoldManagers may serve the same events.
type HoldManager struct {
	cfg     HoldConfig
	events  EventStore
	holds   HoldStore
	locker  Locker
	metrics *obs.Metrics
	log     hclog.Logger
}

// NewHoldManager wires a HoldManager.  A nil logger discards output.
func NewHoldManager(cfg HoldConfig, events EventStore, holds HoldStore, locker Locker, m *obs.Metrics, log hclog.Logger) *HoldManager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	return &HoldManager{cfg: cfg, events: events, holds: holds, locker: locker, metrics: m, log: log}
}

// CreateHold places a new lease on seatID for userID.  The existence,
// quota and availability checks run as separate round trips before the
// write; with Strict set they run inside the seat lock.
func (h *HoldManager) CreateHold(ctx context.Context, userID, eventID, seatID string) (err error) {
	defer h.observe("create_hold", time.Now())
	defer func() { h.metrics.HoldTotal.WithLabelValues(outcome(err)).Inc() }()

	if !h.cfg.Strict {
		return h.createHold(ctx, userID, eventID, seatID)
	}
	unlock, err := h.lock(ctx, eventID, seatID)
	if err != nil {
		return err
	}
	defer h.release(ctx, unlock, eventID, seatID)
	return h.createHold(ctx, userID, eventID, seatID)
}

func (h *HoldManager) createHold(ctx context.Context, userID, eventID, seatID string) error {
	exists, err := h.IsExistingSeat(ctx, eventID, seatID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: seat %s of event %s", ErrNotFound, seatID, eventID)
	}
	held, err := h.GetUserHolds(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if len(held) >= h.cfg.MaxHoldsPerUser {
		return fmt.Errorf("%w: %d of %d seats held", ErrQuotaExceeded, len(held), h.cfg.MaxHoldsPerUser)
	}
	snap, err := h.holds.Snapshot(ctx, eventID, userID, seatID)
	if err != nil {
		return storeErr("read seat", err)
	}
	if snap.Claimant != "" || snap.LeaseHolder != "" || snap.Reserved {
		return fmt.Errorf("%w: seat %s", ErrSeatUnavailable, seatID)
	}
	lease := model.Lease{EventID: eventID, UserID: userID, SeatID: seatID, TTL: h.cfg.HoldDuration}
	if err := h.holds.Create(ctx, lease); err != nil {
		return storeErr("create hold", err)
	}
	return nil
}

// RefreshHold resets the lease TTL to the full hold duration.  Only the
// current holder may refresh.
func (h *HoldManager) RefreshHold(ctx context.Context, userID, eventID, seatID string) (err error) {
	defer h.observe("refresh_hold", time.Now())
	defer func() { h.metrics.RefreshTotal.WithLabelValues(outcome(err)).Inc() }()

	holder, ok, err := h.GetHeldBy(ctx, eventID, userID, seatID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no hold on seat %s", ErrNotFound, seatID)
	}
	if holder != userID {
		return fmt.Errorf("%w: seat %s", ErrForbidden, seatID)
	}
	lease := model.Lease{EventID: eventID, UserID: userID, SeatID: seatID, TTL: h.cfg.HoldDuration}
	refreshed, err := h.holds.Refresh(ctx, lease)
	if err != nil {
		return storeErr("refresh hold", err)
	}
	if !refreshed {
		// expired between the read and the EXPIRE
		return fmt.Errorf("%w: no hold on seat %s", ErrNotFound, seatID)
	}
	return nil
}

// GetUserHolds returns the seats in the user's hold index for the event.
// Entries may briefly outlive their lease until the reconciler or the
// sweeper removes them.
func (h *HoldManager) GetUserHolds(ctx context.Context, userID, eventID string) ([]string, error) {
	seats, err := h.holds.UserHolds(ctx, userID, eventID)
	if err != nil {
		return nil, storeErr("user holds", err)
	}
	return seats, nil
}

// IsExistingSeat reports whether seatID belongs to the event's seat list.
func (h *HoldManager) IsExistingSeat(ctx context.Context, eventID, seatID string) (bool, error) {
	ok, err := h.events.SeatExists(ctx, eventID, seatID)
	if err != nil {
		return false, storeErr("seat exists", err)
	}
	return ok, nil
}

// GetHeldBy returns the user holding seatID.  The caller's own lease wins
// over the seat claim, so a holder always sees itself.  Reserved seats
// and seats without a live lease report false.
func (h *HoldManager) GetHeldBy(ctx context.Context, eventID, userID, seatID string) (string, bool, error) {
	snap, err := h.holds.Snapshot(ctx, eventID, userID, seatID)
	if err != nil {
		return "", false, storeErr("read seat", err)
	}
	holder, ok := heldBy(snap)
	return holder, ok, nil
}

func heldBy(snap repository.SeatSnapshot) (string, bool) {
	switch {
	case snap.Reserved:
		return "", false
	case snap.LeaseHolder != "":
		return snap.LeaseHolder, true
	case snap.Claimant != "":
		return snap.Claimant, true
	}
	return "", false
}

// GetAvailableSeats lists the event's seats that are neither reserved nor
// held by anyone, the caller included, in seat order.  The result is a
// point-in-time snapshot.
func (h *HoldManager) GetAvailableSeats(ctx context.Context, eventID, userID string) ([]string, error) {
	seats, err := h.events.Seats(ctx, eventID)
	if err != nil {
		return nil, storeErr("list seats", err)
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}
	reserved, err := h.holds.Reserved(ctx, eventID)
	if err != nil {
		return nil, storeErr("reserved seats", err)
	}
	taken := make(map[string]bool, len(reserved))
	for _, s := range reserved {
		taken[s] = true
	}
	open := make([]string, 0, len(seats))
	for _, s := range seats {
		if !taken[s] {
			open = append(open, s)
		}
	}
	claimed, err := h.holds.ClaimedSeats(ctx, eventID, open)
	if err != nil {
		return nil, storeErr("claimed seats", err)
	}
	available := open[:0]
	for _, s := range open {
		if !claimed[s] {
			available = append(available, s)
		}
	}
	return available, nil
}

func (h *HoldManager) lock(ctx context.Context, eventID, seatID string) (repository.UnlockFunc, error) {
	unlock, err := h.locker.TryLock(ctx, repository.SeatLockKey(eventID, seatID), h.cfg.LockTTL)
	if errors.Is(err, repository.ErrLockNotObtained) {
		return nil, fmt.Errorf("%w: seat %s", ErrConflict, seatID)
	}
	if err != nil {
		return nil, storeErr("lock seat", err)
	}
	return unlock, nil
}

// release runs on every path out of a locked section.  It outlives the
// request context so a cancelled caller still frees the lock.
func (h *HoldManager) release(ctx context.Context, unlock repository.UnlockFunc, eventID, seatID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := unlock(rctx); err != nil {
		h.metrics.LockReleaseErr.Inc()
		h.log.Warn("seat lock release failed", "event_id", eventID, "seat_id", seatID, "error", err)
	}
}

func (h *HoldManager) observe(op string, start time.Time) {
	h.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// outcome is the metric label for an operation result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ErrSeatUnavailable):
		return "unavailable"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}
