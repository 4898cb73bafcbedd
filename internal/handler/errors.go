package handler

import (
    "errors"
    "net/http"

    "github.com/google/uuid"
    "github.com/hashicorp/go-hclog"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-seat-reservation/internal/service"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
    switch {
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, service.ErrQuotaExceeded),
        errors.Is(err, service.ErrSeatUnavailable),
        errors.Is(err, service.ErrInvalidInput):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrForbidden):
        return http.StatusNotAcceptable
    case errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    }
    return http.StatusInternalServerError
}

// respondError writes {"msg": ...} for err.  Store and unknown failures
// are logged and hidden behind a generic message.
func respondError(c echo.Context, log hclog.Logger, op string, err error, msg string) error {
    status := statusFor(err)
    if status == http.StatusInternalServerError {
        log.Error(op+" failed", "error", err, "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
        msg = "internal server error"
    }
    return c.JSON(status, echo.Map{"msg": msg})
}

// validEventID reports whether id is a canonical uuid.
func validEventID(id string) bool {
    _, err := uuid.Parse(id)
    return err == nil && len(id) == 36
}
