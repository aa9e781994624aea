package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"portal/internal/domain"
)

const usersTable = "users"

var userColumns = []string{"id", "username", "email", "password_hash", "role", "permissions", "created_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u     domain.User
		role  string
		perms string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &perms, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	if perms != "" {
		if err := json.Unmarshal([]byte(perms), &u.Permissions); err != nil {
			return nil, fmt.Errorf("decoding permissions: %w", err)
		}
	}
	return &u, nil
}

func encodePermissions(p []string) (string, error) {
	if p == nil {
		p = []string{}
	}
	b, err := json.Marshal(p)
	return string(b), err
}

func (d *DB) getUser(ctx context.Context, where sq.Sqlizer) (*domain.User, error) {
	query, args, err := d.sb.Select(userColumns...).From(usersTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	u, err := scanUser(d.sql.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return d.getUser(ctx, sq.Eq{"id": id})
}

// GetByEmail retrieves a user by email. Emails are stored lowercased.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.getUser(ctx, sq.Eq{"email": strings.ToLower(email)})
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.getUser(ctx, sq.Eq{"username": username})
}

// Create inserts a new user.
func (d *DB) Create(ctx context.Context, u *domain.User) error {
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = d.now().UTC()
	}

	query, args, err := d.sb.Insert(usersTable).
		Columns(userColumns...).
		Values(u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, string(u.Role), perms, u.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert user query: %w", err)
	}

	if _, err := d.sql.ExecContext(ctx, query, args...); err != nil {
		return d.mapUnique(err)
	}
	return nil
}

// Update overwrites the mutable fields of the user with u.ID.
func (d *DB) Update(ctx context.Context, u *domain.User) error {
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return err
	}

	query, args, err := d.sb.Update(usersTable).
		SetMap(map[string]any{
			"username":      u.Username,
			"email":         strings.ToLower(u.Email),
			"password_hash": u.PasswordHash,
			"role":          string(u.Role),
			"permissions":   perms,
		}).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update user query: %w", err)
	}

	res, err := d.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return d.mapUnique(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns every user in creation order.
func (d *DB) List(ctx context.Context) ([]domain.User, error) {
	return d.listUsers(ctx, nil)
}

// ListByRole returns the users holding role in creation order.
func (d *DB) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return d.listUsers(ctx, sq.Eq{"role": string(role)})
}

func (d *DB) listUsers(ctx context.Context, where sq.Sqlizer) ([]domain.User, error) {
	qb := d.sb.Select(userColumns...).From(usersTable).OrderBy("created_at ASC", "username ASC")
	if where != nil {
		qb = qb.Where(where)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list users query: %w", err)
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	query, args, err := d.sb.Select("COUNT(*)").From(usersTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var count int
	err = d.sql.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
