package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/hashicorp/go-hclog"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-seat-reservation/internal/middleware"
    "github.com/iliyamo/event-seat-reservation/internal/queue"
    "github.com/iliyamo/event-seat-reservation/internal/service"
)

// ReservationPublisher announces completed reservations.  A nil publisher
// disables announcements.
type ReservationPublisher interface {
    PublishSeatReserved(ctx context.Context, ev queue.SeatReservedEvent) error
}

// EventHandler serves the /v1/events routes.  Every route runs behind
// JWTAuth, so the caller id is always present.
type EventHandler struct {
    Catalog   *service.Catalog
    Holds     *service.HoldManager
    Publisher ReservationPublisher
    Log       hclog.Logger
    MaxHolds  int

    // Background runs work that outlives the request, such as publishing
    // seat.reserved.  Callers that drain work on shutdown replace it.
    Background func(func())
}

// NewEventHandler wires an EventHandler.  publisher may be nil.
func NewEventHandler(catalog *service.Catalog, holds *service.HoldManager, publisher ReservationPublisher, maxHolds int, log hclog.Logger) *EventHandler {
    if log == nil {
        log = hclog.NewNullLogger()
    }
    return &EventHandler{
        Catalog:    catalog,
        Holds:      holds,
        Publisher:  publisher,
        Log:        log,
        MaxHolds:   maxHolds,
        Background: func(f func()) { go f() },
    }
}

type createEventReq struct {
    Title      string `json:"title"`
    Content    string `json:"content"`
    TotalSeats int    `json:"total_seats"`
}

// maxPageSize caps an explicit limit query parameter.
const maxPageSize = 100

// List handles GET /v1/events.  Optional offset and limit query
// parameters page through events in creation order; without limit every
// event from offset on is returned.
func (h *EventHandler) List(c echo.Context) error {
    offset, err := queryInt(c, "offset")
    if err != nil || offset < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "offset must be a non-negative integer"})
    }
    limit, err := queryInt(c, "limit")
    if err != nil || limit < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "limit must be a non-negative integer"})
    }
    if limit > maxPageSize {
        limit = maxPageSize
    }
    events, err := h.Catalog.GetAllEvents(c.Request().Context(), offset, limit)
    if err != nil {
        return respondError(c, h.Log, "list events", err, "")
    }
    return c.JSON(http.StatusOK, events)
}

// Create handles POST /v1/events and returns the new event with its seats.
func (h *EventHandler) Create(c echo.Context) error {
    var req createEventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid request body"})
    }
    ev, err := h.Catalog.CreateEvent(c.Request().Context(), service.CreateEventInput{
        Title:      req.Title,
        Content:    req.Content,
        TotalSeats: req.TotalSeats,
    })
    if err != nil {
        return respondError(c, h.Log, "create event", err, invalidMsg(err))
    }
    return c.JSON(http.StatusCreated, ev)
}

// Get handles GET /v1/events/:eventId.
func (h *EventHandler) Get(c echo.Context) error {
    eventID := c.Param("eventId")
    if !validEventID(eventID) {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    ev, err := h.Catalog.GetEventByID(c.Request().Context(), eventID)
    if err != nil {
        return respondError(c, h.Log, "get event", err, fmt.Sprintf("Event %s not found.", eventID))
    }
    return c.JSON(http.StatusOK, ev)
}

// Seats handles GET /v1/events/:eventId/seats: the seats nobody holds or
// has reserved.
func (h *EventHandler) Seats(c echo.Context) error {
    eventID := c.Param("eventId")
    if !validEventID(eventID) {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    seats, err := h.Holds.GetAvailableSeats(c.Request().Context(), eventID, middleware.UserID(c))
    if err != nil {
        return respondError(c, h.Log, "available seats", err, fmt.Sprintf("Event %s not found.", eventID))
    }
    return c.JSON(http.StatusOK, seats)
}

// UserHolds handles GET /v1/events/:eventId/holds: the caller's holds.
func (h *EventHandler) UserHolds(c echo.Context) error {
    eventID := c.Param("eventId")
    if !validEventID(eventID) {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    seats, err := h.Holds.GetUserHolds(c.Request().Context(), middleware.UserID(c), eventID)
    if err != nil {
        return respondError(c, h.Log, "user holds", err, "")
    }
    return c.JSON(http.StatusOK, seats)
}

// Hold handles PUT /v1/events/:eventId/seats/:seatId/hold.
func (h *EventHandler) Hold(c echo.Context) error {
    eventID, seatID, ok := h.seatParams(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    userID := middleware.UserID(c)
    err := h.Holds.CreateHold(c.Request().Context(), userID, eventID, seatID)
    if err != nil {
        return respondError(c, h.Log, "hold seat", err, h.holdMsg(err, seatID))
    }
    return c.JSON(http.StatusCreated, echo.Map{"msg": fmt.Sprintf("Seat %s held for user %s.", seatID, userID)})
}

// Refresh handles PUT /v1/events/:eventId/seats/:seatId/refresh.
func (h *EventHandler) Refresh(c echo.Context) error {
    eventID, seatID, ok := h.seatParams(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    userID := middleware.UserID(c)
    if err := h.Holds.RefreshHold(c.Request().Context(), userID, eventID, seatID); err != nil {
        return respondError(c, h.Log, "refresh hold", err, h.holderMsg(err, seatID))
    }
    return c.JSON(http.StatusOK, echo.Map{"msg": fmt.Sprintf("Hold on seat %s refreshed.", seatID)})
}

// Reserve handles PUT /v1/events/:eventId/seats/:seatId/reserve.  A
// successful reservation is announced on the queue when a publisher is
// configured; publish failures never fail the request.
func (h *EventHandler) Reserve(c echo.Context) error {
    eventID, seatID, ok := h.seatParams(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "eventId must be a valid uuid"})
    }
    userID := middleware.UserID(c)
    ctx := c.Request().Context()
    if err := h.Holds.ReserveSeat(ctx, userID, eventID, seatID); err != nil {
        return respondError(c, h.Log, "reserve seat", err, h.holderMsg(err, seatID))
    }
    if h.Publisher != nil {
        ev := queue.SeatReservedEvent{
            EventID:    eventID,
            SeatID:     seatID,
            UserID:     userID,
            ReservedAt: time.Now().UTC().Format(time.RFC3339),
        }
        if meta, err := h.Catalog.GetEventByID(ctx, eventID); err == nil {
            ev.EventTitle = meta.Title
        }
        // The reservation is already committed; a failed publish is only logged.
        h.Background(func() {
            pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            if err := h.Publisher.PublishSeatReserved(pctx, ev); err != nil {
                h.Log.Warn("publish seat.reserved failed", "event_id", ev.EventID, "seat_id", ev.SeatID, "error", err)
            }
        })
    }
    return c.JSON(http.StatusCreated, echo.Map{"msg": fmt.Sprintf("Seat %s reserved for user %s.", seatID, userID)})
}

func (h *EventHandler) seatParams(c echo.Context) (eventID, seatID string, ok bool) {
    eventID, seatID = c.Param("eventId"), c.Param("seatId")
    return eventID, seatID, validEventID(eventID) && seatID != ""
}

func (h *EventHandler) holdMsg(err error, seatID string) string {
    switch statusFor(err) {
    case http.StatusNotFound:
        return fmt.Sprintf("Seat %s does not exist.", seatID)
    case http.StatusConflict:
        return fmt.Sprintf("Seat %s is being updated, try again.", seatID)
    }
    if errors.Is(err, service.ErrQuotaExceeded) {
        return fmt.Sprintf("User can hold a maximum of %d seats.", h.MaxHolds)
    }
    return fmt.Sprintf("Seat %s not available.", seatID)
}

func (h *EventHandler) holderMsg(err error, seatID string) string {
    switch statusFor(err) {
    case http.StatusNotFound:
        return fmt.Sprintf("Seat %s can not be found.", seatID)
    case http.StatusNotAcceptable:
        return "Seat is not held by the user."
    case http.StatusConflict:
        return fmt.Sprintf("Seat %s is being reserved, try again.", seatID)
    }
    return ""
}

func invalidMsg(err error) string {
    if statusFor(err) == http.StatusBadRequest {
        return err.Error()
    }
    return ""
}

func queryInt(c echo.Context, name string) (int, error) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, nil
    }
    return strconv.Atoi(v)
}
