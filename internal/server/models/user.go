// Package models holds the persisted entities of the user service.
package models

import "time"

// User is an account. PasswordHash is an encoded Argon2id hash and never
// leaves the service.
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	DateJoined   time.Time
	LastLogin    *time.Time
}

// AuthToken is an opaque login token. A user holds at most one.
type AuthToken struct {
	Key     string
	UserID  string
	Created time.Time
}
