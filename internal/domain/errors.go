package domain

import "errors"

var (
	// ErrNotFound indicates that the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail indicates that another user already owns the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername indicates that another user already owns the username.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrUnknownField indicates a counter field outside the known set.
	ErrUnknownField = errors.New("unknown counter field")
	// ErrInvalidRole indicates a role value outside the known set.
	ErrInvalidRole = errors.New("invalid role")
)
