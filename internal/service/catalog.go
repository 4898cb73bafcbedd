package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/repository"
)

// CreateEventInput carries the fields a caller supplies for a new event.
type CreateEventInput struct {
	Title      string
	Content    string
	TotalSeats int
}

// Catalog owns event metadata and the static seat list of every event.
type Catalog struct {
	events EventStore
	newID  func() string
	now    func() time.Time
}

// NewCatalog returns a Catalog generating uuid v4 event ids.
func NewCatalog(events EventStore) *Catalog {
	return &Catalog{
		events: events,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates the input, then writes the event and its seats
// seatId-1..N in one transaction.  The returned event includes the seat
// list.
func (c *Catalog) CreateEvent(ctx context.Context, in CreateEventInput) (model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Event{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > model.MaxTitleRunes {
		return model.Event{}, fmt.Errorf("%w: title must contain at most %d characters", ErrInvalidInput, model.MaxTitleRunes)
	}
	if in.TotalSeats < model.MinSeats || in.TotalSeats > model.MaxSeats {
		return model.Event{}, fmt.Errorf("%w: total_seats must be between %d and %d", ErrInvalidInput, model.MinSeats, model.MaxSeats)
	}
	ev := model.Event{
		ID:         c.newID(),
		Title:      title,
		Content:    in.Content,
		TotalSeats: in.TotalSeats,
		CreatedAt:  c.now(),
	}
	if err := c.events.Create(ctx, ev); err != nil {
		return model.Event{}, storeErr("create event", err)
	}
	ev.Seats = make([]string, 0, ev.TotalSeats)
	for i := 1; i <= ev.TotalSeats; i++ {
		ev.Seats = append(ev.Seats, repository.SeatID(i))
	}
	return ev, nil
}

// GetEventByID returns the event or ErrNotFound.
func (c *Catalog) GetEventByID(ctx context.Context, id string) (model.Event, error) {
	ev, ok, err := c.events.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, storeErr("get event", err)
	}
	if !ok {
		return model.Event{}, fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	return ev, nil
}

// GetAllEvents lists events oldest first.  limit <= 0 lists everything
// from offset.
func (c *Catalog) GetAllEvents(ctx context.Context, offset, limit int) ([]model.Event, error) {
	events, err := c.events.List(ctx, offset, limit)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	return events, nil
}
