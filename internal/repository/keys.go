package repository

import (
    "fmt"
    "strings"
)

// Redis key schema.  Every key the service touches is built here so the
// lease/index parsers below stay the exact inverse of the builders.
const (
    eventsKey      = "events"
    leasePrefix    = "hold:"
    userPrefix     = "user:"
    holdsSegment   = ":holds:"
    claimPrefix    = "claim:"
    lockPrefix     = "lock:"
    emailPrefix    = "email:"
    holdIndexMatch = "user:*:holds:*"
)

func eventInfoKey(eventID string) string     { return "event:" + eventID + ":info" }
func eventSeatsKey(eventID string) string    { return "event:" + eventID + ":seats" }
func eventReservedKey(eventID string) string { return "event:" + eventID + ":reserved" }

// LeaseKey is the TTL'd lease for (eventID, userID, seatID).  The holder is
// part of the key name so an expiry notification, which carries only the
// key, still identifies whose index to repair.
func LeaseKey(eventID, userID, seatID string) string {
    return leasePrefix + eventID + ":" + userID + ":" + seatID
}

// ClaimKey is the seat-level mirror of the lease.  It lets "is this seat
// held by anyone" be answered with a single GET.
func ClaimKey(eventID, seatID string) string { return claimPrefix + eventID + ":" + seatID }

// HoldIndexKey is the non-expiring set of seats a user holds for an event.
func HoldIndexKey(userID, eventID string) string { return userPrefix + userID + holdsSegment + eventID }

// SeatLockKey scopes the distributed reservation lock to one seat.
func SeatLockKey(eventID, seatID string) string { return lockPrefix + eventID + ":" + seatID }

func userKey(userID string) string { return userPrefix + userID }
func emailKey(email string) string { return emailPrefix + email }

// ParseLeaseKey splits hold:{eventId}:{userId}:{seatId}.  Ids never
// contain ':' (uuids and seatId-N), so exactly three non-empty parts are
// required; anything else is not a lease key.
func ParseLeaseKey(key string) (eventID, userID, seatID string, ok bool) {
    rest, found := strings.CutPrefix(key, leasePrefix)
    if !found {
        return "", "", "", false
    }
    parts := strings.Split(rest, ":")
    if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
        return "", "", "", false
    }
    return parts[0], parts[1], parts[2], true
}

// ParseHoldIndexKey splits user:{userId}:holds:{eventId}.
func ParseHoldIndexKey(key string) (userID, eventID string, ok bool) {
    rest, found := strings.CutPrefix(key, userPrefix)
    if !found {
        return "", "", false
    }
    userID, eventID, found = strings.Cut(rest, holdsSegment)
    if !found || userID == "" || eventID == "" || strings.Contains(userID, ":") || strings.Contains(eventID, ":") {
        return "", "", false
    }
    return userID, eventID, true
}

// SeatID returns the deterministic id of the n-th seat (1-based).
func SeatID(n int) string { return fmt.Sprintf("seatId-%d", n) }
