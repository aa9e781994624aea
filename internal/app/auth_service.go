// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portal/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is the lifetime of a session from issuance.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingFields indicates that a required signup or login field was empty.
	ErrMissingFields = errors.New("username, email and password are required")
	// ErrUsersExist indicates that the initial admin was already provisioned.
	ErrUsersExist = errors.New("users already exist")
)

// AuthService handles signup, authentication and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

// WithSessionTTL overrides the session lifetime. Non-positive values are ignored.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// SessionTTL returns the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Signup registers a new member account.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleMember,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates a user and creates a session holding a snapshot of
// the user's public fields.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// LoginWithIdentity creates a session for a user already authenticated by an
// external identity provider, provisioning a member account on first use.
func (s *AuthService) LoginWithIdentity(ctx context.Context, email, username string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.provision(ctx, email, username)
		if err != nil {
			return nil, err
		}
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) provision(ctx context.Context, email, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = email
	}
	if taken, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken != nil {
		username = email
	}

	// SSO accounts carry no password hash and cannot use the password login.
	u := &domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Role:      domain.RoleMember,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent first login for the same email.
		if existing, getErr := s.users.GetByEmail(ctx, email); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &domain.Session{
		Token:     token,
		User:      user.Snapshot(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession returns the live session for token. The user snapshot is
// returned as captured at login; it is not re-read from the user store.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// CreateInitialAdmin creates an admin account unless an admin already exists.
// A member already registered under email is promoted instead; its password
// is left unchanged.
func (s *AuthService) CreateInitialAdmin(ctx context.Context, username, email, password string) error {
	admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return ErrUsersExist
	}

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		u, err = s.Signup(ctx, username, email, password)
		if err != nil {
			return err
		}
	}
	u.Role = domain.RoleAdmin
	return s.users.Update(ctx, u)
}

// PurgeExpired deletes every expired session.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// RunCleanup purges expired sessions every interval until ctx is done.
func (s *AuthService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PurgeExpired(ctx); err != nil {
				slog.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
