// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered marketplace account.
//
// Email is the login identifier and is unique case-insensitively — the
// database enforces that with a UNIQUE COLLATE NOCASE constraint, so two
// concurrent registrations of "Ana@x.com" and "ana@x.com" can never both
// succeed.
//
// PasswordHash is the bcrypt output and is the only credential material we
// ever store. The json:"-" tag keeps it out of every API response no matter
// which handler serializes the struct.
//
// PhotoPath points at the stored profile photo (e.g. "uploads/3f2a….jpg").
// It is empty for accounts registered without a photo.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhotoPath    string    `json:"photoPath,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch holds the fields an owner may change after registration.
// Nil means "leave unchanged". ID, Email and PasswordHash are immutable
// through this path.
type UserPatch struct {
	FullName  *string
	Nickname  *string
	PhotoPath *string
}
