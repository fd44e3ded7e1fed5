// Package auth implements registration, login and the current-user
// endpoint on top of the security pipeline.
package auth

import "time"

// User represents a user account row.
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
