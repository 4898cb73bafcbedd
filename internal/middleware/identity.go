package middleware

import "github.com/labstack/echo/v4"

const userIDKey = "user_id"

// UserID returns the authenticated user id stored by JWTAuth, or "" when
// the request is anonymous.
func UserID(c echo.Context) string {
    if s, ok := c.Get(userIDKey).(string); ok {
        return s
    }
    return ""
}
