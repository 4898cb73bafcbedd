package service

import (
	"context"
	"fmt"
	"time"
)

// ReserveSeat converts the caller's hold on seatID into a permanent
// reservation.  The seat lock is tried once; a concurrent attempt gets
// ErrConflict instead of waiting.  The holder is re-read inside the lock,
// so at most one caller ever reserves a seat.
func (h *HoldManager) ReserveSeat(ctx context.Context, userID, eventID, seatID string) (err error) {
	defer h.observe("reserve_seat", time.Now())
	defer func() { h.metrics.ReserveTotal.WithLabelValues(outcome(err)).Inc() }()

	unlock, err := h.lock(ctx, eventID, seatID)
	if err != nil {
		return err
	}
	defer h.release(ctx, unlock, eventID, seatID)

	snap, err := h.holds.Snapshot(ctx, eventID, userID, seatID)
	if err != nil {
		return storeErr("read seat", err)
	}
	holder, ok := heldBy(snap)
	if !ok {
		return fmt.Errorf("%w: seat can not be found in hold", ErrNotFound)
	}
	if holder != userID {
		return fmt.Errorf("%w: seat %s", ErrForbidden, seatID)
	}
	if err := h.holds.Commit(ctx, eventID, userID, seatID, snap.Claimant == userID); err != nil {
		return storeErr("commit reservation", err)
	}
	return nil
}
