package model

import "time"

// Event is the catalog record for a seated event.  It is immutable after
// creation; only its reserved-seat set changes afterwards.
//
// Fields:
//  ID         – opaque unique identifier (uuid v4).
//  Title      – display title, at most 255 characters.
//  Content    – free-form description.
//  TotalSeats – number of seats created for the event (10–1000).
//  CreatedAt  – creation timestamp (UTC).
//  Seats      – seat ids in creation order; only populated by CreateEvent.
type Event struct {
    ID         string    `json:"id"`
    Title      string    `json:"title"`
    Content    string    `json:"content"`
    TotalSeats int       `json:"total_seats"`
    CreatedAt  time.Time `json:"created_at"`
    Seats      []string  `json:"seats,omitempty"`
}

// Seat bounds enforced at event creation.
const (
    MinSeats      = 10
    MaxSeats      = 1000
    MaxTitleRunes = 255
)
