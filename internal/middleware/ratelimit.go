package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/hashicorp/go-hclog"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-seat-reservation/internal/config"
)

// windowScript counts a hit and starts the window on the first one.  It
// returns the hit count and the milliseconds left in the window.
var windowScript = redis.NewScript(`
    local hits = redis.call('INCR', KEYS[1])
    local ttl = redis.call('PTTL', KEYS[1])
    if hits == 1 or ttl < 0 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
        ttl = tonumber(ARGV[1])
    end
    return { hits, ttl }
`)

// NewRateLimiter limits each client IP to cfg.Limit requests per route in
// a fixed window kept in Redis, so every server instance shares one
// counter.  Responses carry the combined RateLimit and RateLimit-Policy
// headers.  Redis errors fail open.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log hclog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if log == nil {
        log = hclog.NewNullLogger()
    }
    windowSecs := int64(cfg.Window / time.Second)
    policy := fmt.Sprintf("%d;w=%d", cfg.Limit, windowSecs)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, c)
            vals, err := windowScript.Run(c.Request().Context(), rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
            if err != nil || len(vals) != 2 {
                log.Warn("rate limit check failed, allowing request", "key", key, "error", err)
                return next(c)
            }
            hits, ttlMs := vals[0], vals[1]

            remaining := int64(cfg.Limit) - hits
            if remaining < 0 {
                remaining = 0
            }
            reset := (ttlMs + 999) / 1000

            h := c.Response().Header()
            h.Set("RateLimit-Policy", policy)
            h.Set("RateLimit", fmt.Sprintf("limit=%d, remaining=%d, reset=%d", cfg.Limit, remaining, reset))
            if cfg.LegacyHeaders {
                h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
                h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
                h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(ttlMs)*time.Millisecond).Unix(), 10))
            }

            if hits > int64(cfg.Limit) {
                h.Set("Retry-After", strconv.FormatInt(reset, 10))
                log.Debug("rate limited", "key", key, "hits", hits)
                return c.JSON(http.StatusTooManyRequests, map[string]any{
                    "msg":         "too many requests, please try again later",
                    "retry_after": reset,
                })
            }
            return next(c)
        }
    }
}

func rateKey(prefix string, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return prefix + ":ip:" + ip + ":route:" + c.Request().Method + " " + c.Path()
}
