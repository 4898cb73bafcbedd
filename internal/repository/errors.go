// Package repository is the Redis store adapter.  It owns the key schema,
// the typed encoding of records at the store boundary, the distributed
// seat lock and the key-expiration feed.  It knows nothing about quotas
// or error kinds; those decisions belong to the service layer.
package repository

import "errors"

// ErrMalformedRecord is returned when a stored hash is missing required
// fields or carries values of the wrong shape.  Such records are rejected
// rather than partially trusted.
var ErrMalformedRecord = errors.New("malformed record")

// ErrLockNotObtained is returned by SeatLocker.TryLock when another caller
// currently holds the lock.  Callers translate it into a conflict.
var ErrLockNotObtained = errors.New("lock not obtained")

// ErrEmailExists is returned when a sign-up reuses a registered email.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user hash exists for an id or email.
var ErrUserNotFound = errors.New("user not found")
