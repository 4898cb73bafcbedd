package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounded ping
    "net/http" // net/http provides status codes and response helpers
    "time"     // ping deadline

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a health-check endpoint used by load balancers and monitoring
// systems.  It answers 200 "ok" while the store responds and 503 otherwise.
// check may be nil, in which case the process being up is enough.
func Health(check func(ctx context.Context) error) echo.HandlerFunc {
    return func(c echo.Context) error {
        if check != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := check(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "store unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
