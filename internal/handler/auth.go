package handler

import (
    "context"  // bounded store calls
    "errors"   // errors.Is against repository sentinels
    "net/http" // HTTP status codes
    "strings"  // input normalisation
    "time"     // timeouts and response timestamps

    "github.com/hashicorp/go-hclog" // structured logging
    "github.com/labstack/echo/v4"   // Echo framework for HTTP routing

    "github.com/iliyamo/event-seat-reservation/internal/config"     // app configuration
    "github.com/iliyamo/event-seat-reservation/internal/middleware" // token cookie helpers and caller id
    "github.com/iliyamo/event-seat-reservation/internal/repository" // user store
    "github.com/iliyamo/event-seat-reservation/internal/utils"      // password checks and token issuing
)

// AuthHandler bundles dependencies for the /v1/user endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Log   hclog.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, log hclog.Logger) *AuthHandler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *credentialsReq) validate() string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return "a valid email is required"
	}
	if n := len(r.Password); n < 6 || n > 128 {
		return "password must be between 6 and 128 characters"
	}
	return ""
}

// SignIn: create a user.  The account is not logged in; call Login next.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			h.Log.Warn("sign-in with existing email", "email", req.Email)
			return c.JSON(http.StatusConflict, echo.Map{"msg": "email already exists"})
		}
		h.Log.Error("create user failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "create user failed"})
	}
	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
}

// Login: verify the password and issue a token as header and cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"msg": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid credentials"})
		}
		h.Log.Error("load user failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "invalid credentials"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.TokenSecret, u.ID, h.Cfg.TokenMaxAge)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "issue token failed"})
	}
	middleware.SetToken(c, tok)
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
}

// Logout: drop the token cookie.  Tokens already handed out stay valid
// until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearToken(c)
	return c.NoContent(http.StatusOK)
}

// Me: the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.Users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "unauthorized"})
		}
		h.Log.Error("load user failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "query failed"})
	}
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
}

// Delete: remove the authenticated user and log them out.  Holds and
// reservations are kept; leases expire on their own.
func (h *AuthHandler) Delete(c echo.Context) error {
	id := middleware.UserID(c)
	// the sliding token set by JWTAuth must not outlive the account
	c.Response().Header().Del("Authorization")
	c.Response().Header().Del(echo.HeaderSetCookie)
	middleware.ClearToken(c)

	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"msg": "user not found"})
		}
		h.Log.Error("delete user failed", "user_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"msg": "delete user failed"})
	}
	h.Log.Info("user deleted", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
