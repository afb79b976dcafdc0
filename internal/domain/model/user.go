package model

import "time"

// Role distinguishes regular buyers from event staff.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account able to buy for an event.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Principal is the authenticated caller as resolved by the auth layer.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal may run staff operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
