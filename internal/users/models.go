package users

import (
	"time"

	"github.com/google/uuid"
)

// StorageKey is the key the user registry is stored under.
const StorageKey = "users"

// Role classifies a registered user's access level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	RoleViewer  Role = "viewer"
)

// Roles lists every valid role, for validation and display.
var Roles = []Role{RoleAdmin, RoleOfficer, RoleViewer}

// User is a registered dashboard user.
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       Role      `json:"role"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Input is a validated user creation or update request.
type Input struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	Role       Role   `json:"role" validate:"required,oneof=admin officer viewer"`
}
