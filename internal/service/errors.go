// Package service implements seat holds and reservations: the event
// catalog, the hold manager and availability query, the lock-guarded
// reservation finalizer, and the background expiry reconciler and index
// sweeper.  Every operation returns one of the sentinel errors below (or
// nil); callers map them onto their own surface with errors.Is.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the event, seat or active lease does not exist.
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded: the user already holds the maximum seats for the event.
	ErrQuotaExceeded = errors.New("hold quota exceeded")
	// ErrSeatUnavailable: the seat is held by someone or already reserved.
	ErrSeatUnavailable = errors.New("seat unavailable")
	// ErrForbidden: the caller is not the current holder of the seat.
	ErrForbidden = errors.New("seat held by another user")
	// ErrConflict: a concurrent attempt holds the seat lock.
	ErrConflict = errors.New("seat locked by a concurrent request")
	// ErrInvalidInput: the request violates a catalog constraint.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStore: a store round trip or transaction failed.  Never retried here.
	ErrStore = errors.New("store error")
)

// storeErr wraps a store failure so it matches both ErrStore and the cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
