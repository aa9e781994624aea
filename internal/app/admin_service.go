package app

import (
	"context"
	"strings"

	"portal/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// UserUpdate carries the editable fields of a user. Empty fields are left unchanged.
type UserUpdate struct {
	Email    string
	Password string
	Role     string
}

// UserAdminService backs the administrative user management pages.
type UserAdminService struct {
	users domain.UserRepository
}

// NewUserAdminService creates a new user administration service.
func NewUserAdminService(users domain.UserRepository) *UserAdminService {
	return &UserAdminService{users: users}
}

// Administrators returns every user holding the admin role.
func (s *UserAdminService) Administrators(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleAdmin)
}

// UserCount returns the number of registered users.
func (s *UserAdminService) UserCount(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

// Users returns every registered user.
func (s *UserAdminService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUser looks a user up by username.
func (s *UserAdminService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SetRole changes the role of the named user.
func (s *UserAdminService) SetRole(ctx context.Context, username, role string) (*domain.User, error) {
	return s.UpdateUser(ctx, username, UserUpdate{Role: role})
}

// UpdateUser applies the non-empty fields of upd to the named user.
// Sessions already issued for the user keep their old snapshot.
func (s *UserAdminService) UpdateUser(ctx context.Context, username string, upd UserUpdate) (*domain.User, error) {
	var role domain.Role
	if strings.TrimSpace(upd.Role) != "" {
		r, err := domain.ParseRole(upd.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	u, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if email := normalizeEmail(upd.Email); email != "" && email != u.Email {
		other, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != u.ID {
			return nil, domain.ErrDuplicateEmail
		}
		u.Email = email
	}

	if upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}

	if role != "" {
		u.Role = role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
