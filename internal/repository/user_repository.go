package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/utils"
)

// UserRepo stores accounts as `user:{id}` hashes plus an `email:{email}`
// lookup key.
type UserRepo struct{ rdb *redis.Client }

func NewUserRepo(rdb *redis.Client) *UserRepo { return &UserRepo{rdb: rdb} }

// Create hashes the password and inserts the user.  The email key is
// claimed with SETNX first so two concurrent sign-ups cannot both win.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	ok, err := r.rdb.SetNX(ctx, emailKey(email), u.ID, 0).Result()
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, ErrEmailExists
	}
	err = r.rdb.HSet(ctx, userKey(u.ID), map[string]interface{}{
		"id":         u.ID,
		"email":      u.Email,
		"password":   u.PasswordHash,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		_ = r.rdb.Del(ctx, emailKey(email)).Err()
		return model.User{}, err
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	m, err := r.rdb.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return model.User{}, err
	}
	if len(m) == 0 {
		return model.User{}, ErrUserNotFound
	}
	return decodeUser(m)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id, err := r.rdb.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the user hash and its email key.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, userKey(u.ID))
		pipe.Del(ctx, emailKey(u.Email))
		return nil
	})
	return err
}

func decodeUser(m map[string]string) (model.User, error) {
	for _, f := range []string{"id", "email", "password", "created_at"} {
		if m[f] == "" {
			return model.User{}, fmt.Errorf("%w: user missing %q", ErrMalformedRecord, f)
		}
	}
	created, err := time.Parse(time.RFC3339Nano, m["created_at"])
	if err != nil {
		return model.User{}, fmt.Errorf("%w: user created_at %q", ErrMalformedRecord, m["created_at"])
	}
	return model.User{
		ID:           m["id"],
		Email:        m["email"],
		PasswordHash: m["password"],
		CreatedAt:    created.UTC(),
	}, nil
}
