package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role is the privilege level of a user.
type Role string

const (
	// RoleMember is the default role assigned at signup.
	RoleMember Role = "member"
	// RoleAdmin grants access to the admin panel and reports.
	RoleAdmin Role = "admin"
)

// ParseRole normalizes s (trim + lowercase) and validates it.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleMember, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Permissions  []string
	CreatedAt    time.Time
}

// Snapshot copies the public fields of u.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: slices.Clone(u.Permissions),
	}
}

// UserSnapshot is the copy of a user's public fields captured at login.
// It is not refreshed when the underlying user record changes.
type UserSnapshot struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// IsZero reports whether the snapshot holds no identity.
func (u UserSnapshot) IsZero() bool {
	return u.ID == ""
}

// Session represents an active user session.
type Session struct {
	Token     string       `json:"token"`
	User      UserSnapshot `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Expired reports whether the session lifetime has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserRepository defines the port for user persistence operations.
// Lookups return nil, nil when no user matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	List(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	// GetByToken returns nil, nil when the token is unknown or expired.
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
