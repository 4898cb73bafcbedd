package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-seat-reservation/internal/config"
    "github.com/iliyamo/event-seat-reservation/internal/model"
    "github.com/iliyamo/event-seat-reservation/internal/repository"
    "github.com/iliyamo/event-seat-reservation/internal/utils"
)

type staticUsers map[string]bool

func (s staticUsers) GetByID(_ context.Context, id string) (model.User, error) {
    if !s[id] {
        return model.User{}, repository.ErrUserNotFound
    }
    return model.User{ID: id}, nil
}

type failingUsers struct{}

func (failingUsers) GetByID(context.Context, string) (model.User, error) {
    return model.User{}, errors.New("connection refused")
}

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func whoami(c echo.Context) error { return c.String(http.StatusOK, UserID(c)) }

func TestJWTAuthHeaderAndCookie(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth("secret", time.Minute, staticUsers{"u1": true}, nil))

    tok, err := utils.NewAccessToken("secret", "u1", time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }

    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
        t.Fatalf("header auth: %d %q", rec.Code, rec.Body)
    }
    if rec.Header().Get("Authorization") == "" || len(rec.Result().Cookies()) == 0 {
        t.Fatal("token not re-issued")
    }

    req = httptest.NewRequest(http.MethodGet, "/me", nil)
    req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tok.Token})
    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
        t.Fatalf("cookie auth: %d %q", rec.Code, rec.Body)
    }
}

func TestJWTAuthRejects(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth("secret", time.Minute, staticUsers{"u1": true}, nil))

    ghost, _ := utils.NewAccessToken("secret", "ghost", time.Minute)
    forged, _ := utils.NewAccessToken("other", "u1", time.Minute)
    for name, header := range map[string]string{
        "missing":      "",
        "not bearer":   "Basic abc",
        "unknown user": "Bearer " + ghost.Token,
        "wrong secret": "Bearer " + forged.Token,
    } {
        req := httptest.NewRequest(http.MethodGet, "/me", nil)
        if header != "" {
            req.Header.Set("Authorization", header)
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != http.StatusUnauthorized {
            t.Fatalf("%s: status %d", name, rec.Code)
        }
    }
}

func TestJWTAuthStoreFailureIsNotUnauthorized(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth("secret", time.Minute, failingUsers{}, nil))

    tok, _ := utils.NewAccessToken("secret", "u1", time.Minute)
    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status %d, want 500", rec.Code)
    }
    if len(rec.Result().Cookies()) != 0 {
        t.Fatal("session cookie touched on store failure")
    }
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.RateLimitConfig{Enabled: true, Limit: 2, Window: 5 * time.Minute, Prefix: "rl"}
    e := echo.New()
    e.POST("/v1/events", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewRateLimiter(cfg, rdb, nil))

    codes := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
        req.RemoteAddr = "10.0.0.1:1234"
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
        if got := rec.Header().Get("RateLimit-Policy"); got != "2;w=300" {
            t.Fatalf("policy header = %q", got)
        }
        if i == 0 && rec.Header().Get("RateLimit") != "limit=2, remaining=1, reset=300" {
            t.Fatalf("RateLimit header = %q", rec.Header().Get("RateLimit"))
        }
        if i == 2 && rec.Header().Get("Retry-After") != "300" {
            t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
        }
    }
    if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
        t.Fatalf("unexpected codes %v", codes)
    }

    // a different client has its own window
    req := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
    req.RemoteAddr = "10.0.0.2:1234"
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    if rec.Code != http.StatusCreated {
        t.Fatalf("second client: %d", rec.Code)
    }
}

func TestRedisCacheByPath(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{http.MethodGet: true},
        TTL:         time.Minute,
        KeyStrategy: "route_path",
        Prefix:      "cache",
    }
    calls := 0
    e := echo.New()
    e.GET("/v1/events/:eventId", func(c echo.Context) error {
        calls++
        c.SetCookie(&http.Cookie{Name: TokenCookie, Value: "per-user"})
        return c.String(http.StatusOK, c.Param("eventId"))
    }, NewRedisCache(cfg, rdb))

    get := func(path string) *httptest.ResponseRecorder {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
        return rec
    }

    if rec := get("/v1/events/a"); rec.Header().Get("X-Cache") != "MISS" || rec.Body.String() != "a" {
        t.Fatalf("first: %q %q", rec.Header().Get("X-Cache"), rec.Body)
    }
    rec := get("/v1/events/a")
    if rec.Header().Get("X-Cache") != "HIT" || rec.Body.String() != "a" {
        t.Fatalf("second: %q %q", rec.Header().Get("X-Cache"), rec.Body)
    }
    if len(rec.Result().Cookies()) != 0 {
        t.Fatal("cached response replayed a cookie")
    }
    if rec := get("/v1/events/b"); rec.Body.String() != "b" {
        t.Fatalf("different path served %q", rec.Body)
    }
    if calls != 2 {
        t.Fatalf("handler called %d times, want 2", calls)
    }
}
