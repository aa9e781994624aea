// Package sqlite opens the SQLite-backed store, either a local file through
// modernc.org/sqlite or a remote libSQL (Turso) database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"portal/internal/adapter/sqlstore"
)

// Dialect is the sqlstore dialect for SQLite and libSQL.
var Dialect = sqlstore.Dialect{
	Name:            "sqlite",
	Placeholder:     sq.Question,
	UniqueViolation: uniqueDetail,
}

func uniqueDetail(err error) (string, bool) {
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return sqlErr.Error(), true
	}
	// libSQL reports constraint failures as plain errors.
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}

// DriverFor picks the database/sql driver for dsn.
func DriverFor(dsn string) string {
	if strings.Contains(dsn, "libsql://") || strings.Contains(dsn, "wss://") {
		return "libsql"
	}
	return "sqlite"
}

// Open connects to the database at dsn and creates the schema.
func Open(ctx context.Context, dsn string) (*sqlstore.DB, error) {
	driver := DriverFor(dsn)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// A single connection serializes writers and keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, Dialect), nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_counters (
			bucket DATETIME PRIMARY KEY,
			page_views INTEGER NOT NULL DEFAULT 0,
			button_clicks INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'admin')),
			permissions TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_snapshot TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
