package models

import (
	"time"
)

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

// IsValid reports whether r is a known role.
func (r RoleType) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Email     string    `json:"email" db:"email" example:"user@example.com"`
	Password  string    `json:"-" db:"password"` // bcrypt hash
	Name      string    `json:"name" db:"name" example:"Jane Doe"`
	Role      RoleType  `json:"role" db:"role" example:"USER"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`
}
