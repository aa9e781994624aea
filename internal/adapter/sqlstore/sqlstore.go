// Package sqlstore implements the domain repositories on database/sql using
// squirrel-built statements. Dialect differences between PostgreSQL and
// SQLite are confined to Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"portal/internal/domain"
)

// Dialect describes the SQL flavour behind a DB.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// UniqueViolation reports whether err is a unique-constraint failure and
	// returns the constraint name or message naming the offending column.
	UniqueViolation func(err error) (detail string, ok bool)
}

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql     *sql.DB
	sb      sq.StatementBuilderType
	dialect Dialect
	now     func() time.Time
}

// Ensure interfaces are met.
var _ domain.CounterRepository = (*DB)(nil)
var _ domain.BestEffortCounterRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// New wraps an open, migrated database.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		sql:     db,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		dialect: dialect,
		now:     time.Now,
	}
}

// Dialect returns the name of the SQL dialect in use.
func (d *DB) Dialect() string {
	return d.dialect.Name
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// mapUnique translates a unique-constraint failure on users into a domain error.
func (d *DB) mapUnique(err error) error {
	if err == nil || d.dialect.UniqueViolation == nil {
		return err
	}
	detail, ok := d.dialect.UniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(detail, "email"):
		return domain.ErrDuplicateEmail
	case strings.Contains(detail, "username"):
		return domain.ErrDuplicateUsername
	}
	return fmt.Errorf("unique constraint: %w", err)
}
