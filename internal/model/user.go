package model

import "time"

// User represents an account as stored in the `user:{id}` hash.  The
// password field of the hash holds a bcrypt digest and is never returned
// to clients.
//
// Fields:
//  ID           – uuid v4 identifier, also the JWT subject.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           string    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    CreatedAt    time.Time `json:"created_at"`
}
