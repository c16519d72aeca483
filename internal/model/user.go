// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// Tg is the external handle users log in with; it is UNIQUE across the
// table and is how other users address this account when granting roles.
// ID is our own xid so primary keys never depend on the handle.
//
// Accounts are never removed. DeleteAccount flips Active to false and the
// row stays so that calendars, events and reactions keep a valid owner.
type User struct {
	ID           string    `json:"id"`
	Tg           string    `json:"tg"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialised
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
