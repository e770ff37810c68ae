package domain

import (
	"errors"
	"time"
)

// Role is the closed set of authorization roles in the dashboard.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleConsultant, RoleClient, RoleContractor:
		return true
	}
	return false
}

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrTokenInvalid = errors.New("token invalid or expired")
var ErrResetRejected = errors.New("password reset rejected")
var ErrResetNotPending = errors.New("no password reset pending")
var ErrAuthUnavailable = errors.New("auth service unavailable")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidUser = errors.New("invalid user details")

// Identity is the client-facing snapshot of an authenticated principal.
// It is what the auth service returns from /auth/me and what the credential
// store persists between runs.
type Identity struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	FirstLogin     bool   `json:"first_login"`
	LinkedRecordID string `json:"linked_record_id,omitempty"`
}

// User is the server-side account record held by the auth service.
type User struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	FirstLogin     bool      `json:"first_login"`
	LinkedRecordID string    `json:"linked_record_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Identity projects the account record onto its client-facing snapshot.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		Role:           u.Role,
		FirstLogin:     u.FirstLogin,
		LinkedRecordID: u.LinkedRecordID,
	}
}
