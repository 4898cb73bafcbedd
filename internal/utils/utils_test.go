package utils

import (
    "testing"
    "time"

    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", "user-1", time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    sub, err := ParseAccessToken("secret", tok.Token)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if sub != "user-1" {
        t.Fatalf("subject = %q, want user-1", sub)
    }
}

func TestAccessTokenRejectsWrongSecretAndExpiry(t *testing.T) {
    tok, err := NewAccessToken("secret", "user-1", time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, err := ParseAccessToken("other", tok.Token); err != ErrInvalidToken {
        t.Fatalf("wrong secret: got %v, want ErrInvalidToken", err)
    }
    expired, err := NewAccessToken("secret", "user-1", -time.Minute)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, err := ParseAccessToken("secret", expired.Token); err != ErrInvalidToken {
        t.Fatalf("expired: got %v, want ErrInvalidToken", err)
    }
}

func TestPasswordHash(t *testing.T) {
    h, err := HashPassword("secret1", bcrypt.MinCost)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    if !VerifyPassword(h, "secret1") {
        t.Fatalf("expected password to verify")
    }
    if VerifyPassword(h, "secret2") {
        t.Fatalf("wrong password verified")
    }
}
