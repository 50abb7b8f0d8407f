package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse permission group of a user.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a case-insensitive string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleGuest, RoleStaff, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// User represents an application user record as stored in the `users`
// table.  PasswordHash is a bcrypt digest and never leaves the server.
type User struct {
	ID           uint64    `json:"id"`        // users.id
	Name         string    `json:"name"`      // users.name
	Email        string    `json:"email"`     // users.email
	PasswordHash string    `json:"-"`         // users.password_hash
	Role         Role      `json:"role"`      // users.role
	CreatedAt    time.Time `json:"createdAt"` // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}
