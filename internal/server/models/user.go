// Package models defines server-side data models persisted in the credential
// store.
package models

import (
	"time"

	"github.com/dmitrijs2005/campusauth/internal/server/rbac"
)

// User is an account record. PasswordHash holds the passwords.Hash encoding
// and is cleared on copies handed to sessions.
type User struct {
	ID           int64
	UserName     string
	Email        string
	Role         rbac.Role
	Active       bool
	LastLogin    *time.Time
	PasswordHash string
	CreatedAt    time.Time
}

// Snapshot returns a copy of u safe to keep outside the store: the password
// hash is dropped and LastLogin no longer aliases u's value.
func (u User) Snapshot() User {
	u.PasswordHash = ""
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
