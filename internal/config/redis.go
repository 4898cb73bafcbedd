package config

// This file defines the Redis client constructor for the application.  Redis
// is the single shared store: events, seats, leases, hold indexes and users
// live there, and it also backs the distributed reservation lock, rate
// limiting and response caching.  Unlike the cache and rate limiter, the
// core cannot degrade without it, so connection failures are returned to the
// caller instead of being swallowed.

import (
    "context"
    "crypto/tls"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig groups the connection parameters read from the environment.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
    // ConfigureNotifications asks the server to emit expired-key events
    // (notify-keyspace-events Ex) at start-up.
    ConfigureNotifications bool
}

// LoadRedisConfig reads the Redis connection settings.  Supported
// variables are:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_CONFIGURE_NOTIFICATIONS – default true
func LoadRedisConfig() RedisConfig {
    host := os.Getenv("REDIS_HOST")
    port := os.Getenv("REDIS_PORT")
    addr := os.Getenv("REDIS_ADDR")
    if host != "" && port != "" {
        addr = host + ":" + port
    } else if host != "" {
        addr = host + ":6379"
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    dbNum := 0
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            dbNum = n
        }
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:                   addr,
        Password:               os.Getenv("REDIS_PASSWORD"),
        DB:                     dbNum,
        TLS:                    strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
        ConfigureNotifications: envBool("REDIS_CONFIGURE_NOTIFICATIONS", true),
    }
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The caller owns the returned client and must Close it on
// shutdown.
func NewRedisClient(ctx context.Context, rc RedisConfig) (*redis.Client, error) {
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
    }
    return client, nil
}
