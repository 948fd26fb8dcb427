package models

import "time"

// User is an account. HashedPassword never leaves the store layer in API
// responses (json:"-").
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCreate carries the fields accepted at registration. Password is the
// plain text; the store hashes it before persisting.
type UserCreate struct {
	Email    string
	Name     string
	Password string
}
