// Package queue publishes and consumes seat.reserved events over RabbitMQ.
package queue

// SeatReservedQueue is the durable queue reservation events travel on.
const SeatReservedQueue = "seat.reserved"

// SeatReservedEvent is published after a hold has been turned into a
// reservation.  It carries enough for downstream consumers to log or
// notify without reading the store.
type SeatReservedEvent struct {
    EventID    string `json:"event_id"`
    EventTitle string `json:"event_title,omitempty"`
    SeatID     string `json:"seat_id"`
    UserID     string `json:"user_id"`
    ReservedAt string `json:"reserved_at"`
}
