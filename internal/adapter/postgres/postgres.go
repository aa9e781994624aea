// Package postgres opens the PostgreSQL-backed store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"portal/internal/adapter/sqlstore"
)

const uniqueViolation = pq.ErrorCode("23505")

// Dialect is the sqlstore dialect for PostgreSQL.
var Dialect = sqlstore.Dialect{
	Name:            "postgres",
	Placeholder:     sq.Dollar,
	UniqueViolation: uniqueDetail,
}

func uniqueDetail(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// Options tunes the connection pool. Zero values select the defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(ctx context.Context, connStr string, opts Options) (*sqlstore.DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(orDefault(opts.MaxOpenConns, 10))
	s.SetMaxIdleConns(orDefault(opts.MaxIdleConns, 5))
	if opts.ConnMaxLifetime > 0 {
		s.SetConnMaxLifetime(opts.ConnMaxLifetime)
	} else {
		s.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := Migrate(s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return sqlstore.New(s, Dialect), nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
