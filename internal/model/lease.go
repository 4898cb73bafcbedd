package model

import "time"

// Lease is a time-bounded claim by one user on one seat.  Its TTL is the
// configured hold duration; it is refreshed by its holder, deleted on
// reservation, or dies of natural expiry.
type Lease struct {
    EventID string
    UserID  string
    SeatID  string
    TTL     time.Duration
}

// HoldIndex identifies the set of seat ids a user currently holds for an
// event.  The set itself carries no TTL.
type HoldIndex struct {
    UserID  string
    EventID string
}
