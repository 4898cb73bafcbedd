package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // request-scoped lookups of the token's user
    "errors"   // distinguish a missing user from a store failure
    "net/http" // HTTP status codes and cookies
    "strings"  // string utilities for prefix checking and trimming
    "time"     // token lifetime

    "github.com/hashicorp/go-hclog" // store failures during the user check
    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/event-seat-reservation/internal/model"      // user record returned by the lookup
    "github.com/iliyamo/event-seat-reservation/internal/repository" // lookup error kinds
    "github.com/iliyamo/event-seat-reservation/internal/utils" // token parsing and issuing
)

// TokenCookie is the name of the cookie carrying the access token.
const TokenCookie = "JWToken"

// UserLookup resolves the subject of a token to a stored user.
type UserLookup interface {
    GetByID(ctx context.Context, id string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates the access token sent
// either as an `Authorization: Bearer` header or as the JWToken cookie.
// The token's subject must still name an existing user.  On success the
// user id is stored under "user_id" and a fresh token with the full
// lifetime is sent back in both places, so an active session never
// expires while it is in use.
func JWTAuth(secret string, ttl time.Duration, users UserLookup, log hclog.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = hclog.NewNullLogger()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "authentication required"})
            }
            sub, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid token"})
            }
            // Reject tokens that outlived their user (e.g. after DELETE /v1/user).
            // A store failure is not the client's fault and must not end the session.
            if _, err := users.GetByID(c.Request().Context(), sub); err != nil {
                if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrMalformedRecord) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid token"})
                }
                log.Error("user lookup failed", "user_id", sub, "error", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "internal server error"})
            }

            // Sliding session: re-issue before the handler writes the response.
            if tok, err := utils.NewAccessToken(secret, sub, ttl); err == nil {
                SetToken(c, tok)
            }
            c.Set(userIDKey, sub)
            return next(c)
        }
    }
}

// SetToken sends tok as the Authorization header and the JWToken cookie.
func SetToken(c echo.Context, tok utils.AccessToken) {
    c.Response().Header().Set("Authorization", "Bearer "+tok.Token)
    c.SetCookie(&http.Cookie{
        Name:     TokenCookie,
        Value:    tok.Token,
        Path:     "/",
        Expires:  tok.Exp,
        MaxAge:   int(time.Until(tok.Exp).Seconds()),
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
}

// ClearToken expires the JWToken cookie.
func ClearToken(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     TokenCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
    })
}

// bearerToken prefers the Authorization header and falls back to the cookie.
func bearerToken(c echo.Context) string {
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    if ck, err := c.Cookie(TokenCookie); err == nil {
        return ck.Value
    }
    return ""
}
