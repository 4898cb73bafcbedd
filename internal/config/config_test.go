package config

import (
    "testing"
    "time"
)

func TestLoadDefaults(t *testing.T) {
    for _, k := range []string{"HOLD_DURATION", "MAX_HOLDS_PER_USER", "HOLD_STRICT", "RESERVE_LOCK_TTL", "HOLD_SWEEP_INTERVAL", "TOKEN_MAX_AGE"} {
        t.Setenv(k, "")
    }
    cfg := Load()
    if cfg.HoldDuration != 60*time.Second {
        t.Fatalf("hold duration = %v, want 60s", cfg.HoldDuration)
    }
    if cfg.MaxHoldsPerUser != 5 {
        t.Fatalf("max holds = %d, want 5", cfg.MaxHoldsPerUser)
    }
    if cfg.HoldStrict {
        t.Fatalf("strict holds should default to off")
    }
    if cfg.TokenMaxAge != 10*time.Minute {
        t.Fatalf("token max age = %v, want 10m", cfg.TokenMaxAge)
    }
    if cfg.SweepInterval != time.Minute {
        t.Fatalf("sweep interval = %v, want 1m", cfg.SweepInterval)
    }
}

func TestLoadOverrides(t *testing.T) {
    t.Setenv("HOLD_DURATION", "1")
    t.Setenv("MAX_HOLDS_PER_USER", "2")
    t.Setenv("HOLD_STRICT", "yes")
    t.Setenv("HOLD_SWEEP_INTERVAL", "0")
    t.Setenv("RESERVE_LOCK_TTL", "not-a-duration")
    cfg := Load()
    if cfg.HoldDuration != time.Second {
        t.Fatalf("hold duration = %v, want 1s", cfg.HoldDuration)
    }
    if cfg.MaxHoldsPerUser != 2 {
        t.Fatalf("max holds = %d, want 2", cfg.MaxHoldsPerUser)
    }
    if !cfg.HoldStrict {
        t.Fatalf("HOLD_STRICT=yes should enable strict holds")
    }
    if cfg.SweepInterval != 0 {
        t.Fatalf("sweep interval = %v, want disabled", cfg.SweepInterval)
    }
    if cfg.ReserveLockTTL != 5*time.Second {
        t.Fatalf("unparseable lock ttl should fall back to 5s, got %v", cfg.ReserveLockTTL)
    }
}

func TestLoadRedisConfigAddr(t *testing.T) {
    t.Setenv("REDIS_ADDR", "")
    t.Setenv("REDIS_HOST", "cache.internal")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "3")
    rc := LoadRedisConfig()
    if rc.Addr != "cache.internal:6380" || rc.DB != 3 {
        t.Fatalf("unexpected redis config: %+v", rc)
    }
    if !rc.ConfigureNotifications {
        t.Fatalf("notifications should be configured by default")
    }
}

func TestRateLimitWindow(t *testing.T) {
    t.Setenv("RATE_LIMIT", "20")
    t.Setenv("RATE_WINDOW_MS", "60000")
    rl := LoadRateLimitConfig()
    if rl.Limit != 20 || rl.Window != time.Minute {
        t.Fatalf("unexpected rate limit config: %+v", rl)
    }

    t.Setenv("RATE_LIMIT", "0")
    t.Setenv("RATE_WINDOW_MS", "")
    rl = LoadRateLimitConfig()
    if rl.Limit != 50 || rl.Window != 5*time.Minute {
        t.Fatalf("defaults not applied: %+v", rl)
    }
}
