package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-seat-reservation/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication: the
// health check.  /metrics is mounted by main next to it.
func RegisterRoutes(e *echo.Echo, health func(ctx context.Context) error) {
	e.GET("/healthz", handler.Health(health))
}

// RegisterAuth registers the /v1/user routes.  Sign-in and login are open
// (sign-in is rate limited); reading and deleting the account require a
// valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/user")
	g.POST("/signin", a.SignIn, rateLimit)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)

	g.GET("", a.Me, auth)
	g.DELETE("", a.Delete, auth)
}

// RegisterEvents registers the /v1/events routes.  Every route requires a
// valid token.  Event creation is rate limited and the immutable event
// metadata is served through the response cache; availability is never
// cached.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, auth, rateLimit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/events", auth)
	g.GET("", h.List)
	g.POST("", h.Create, rateLimit)
	g.GET("/:eventId", h.Get, cache)
	g.GET("/:eventId/seats", h.Seats)
	g.GET("/:eventId/holds", h.UserHolds)
	g.PUT("/:eventId/seats/:seatId/hold", h.Hold)
	g.PUT("/:eventId/seats/:seatId/refresh", h.Refresh)
	g.PUT("/:eventId/seats/:seatId/reserve", h.Reserve)
}
