package domain

import (
	"errors"
	"time"
)

// User is the core user entity. The auth subsystem reads it during login and
// creates it on registration; profile content (posts, follows, votes) lives in
// other services.
type User struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.HashedPassword == "" {
		return errors.New("hashed password is required")
	}
	return nil
}
