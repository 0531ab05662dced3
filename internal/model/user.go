// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with struct tags
// telling encoding/json how to serialize them.
package model

import "time"

// RoleUser is the role every account gets at registration. Roles exist in the
// schema for future admin features; nothing in the service changes them yet.
const RoleUser = "user"

// User represents a registered account.
//
// Username and Email are both UNIQUE in the database. PasswordHash holds the
// bcrypt hash produced by auth.PasswordService — the raw password is never
// stored, and the hash is never serialized to JSON (note the `json:"-"` tag).
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Role         string    `json:"role"      db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
