package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig configures the fixed-window limiter that protects the
// insert endpoints (event creation and user sign-in).
type RateLimitConfig struct {
    Enabled       bool
    Limit         int           // requests allowed per client IP and route in one window
    Window        time.Duration // window length; the counter resets when it ends
    LegacyHeaders bool          // also send X-RateLimit-* headers
    Prefix        string
}

// LoadRateLimitConfig defaults to 50 requests per five minutes per client
// IP and route.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:       envBool("RATE_LIMIT_ENABLED", true),
        Limit:         envInt("RATE_LIMIT", 50),
        Window:        time.Duration(envInt("RATE_WINDOW_MS", 5*60*1000)) * time.Millisecond,
        LegacyHeaders: envBool("RATE_LEGACY_HEADER", false),
        Prefix:        envStr("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Limit < 1 { cfg.Limit = 50 }
    if cfg.Window < time.Second { cfg.Window = 5 * time.Minute }
    return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
