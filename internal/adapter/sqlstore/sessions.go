package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"portal/internal/domain"
)

const sessionsTable = "sessions"

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a session together with its user snapshot.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	snapshot, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encoding user snapshot: %w", err)
	}

	query, args, err := r.db.sb.Insert(sessionsTable).
		Columns("token", "user_snapshot", "created_at", "expires_at").
		Values(s.Token, string(snapshot), s.CreatedAt.UTC(), s.ExpiresAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert session query: %w", err)
	}

	if _, err := r.db.sql.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetByToken retrieves an unexpired session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	query, args, err := r.db.sb.Select("token", "user_snapshot", "created_at", "expires_at").
		From(sessionsTable).
		Where(sq.Eq{"token": token}).
		Where(sq.Gt{"expires_at": r.db.now().UTC()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building session query: %w", err)
	}

	var (
		s        domain.Session
		snapshot string
	)
	err = r.db.sql.QueryRowContext(ctx, query, args...).Scan(&s.Token, &snapshot, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshot), &s.User); err != nil {
		return nil, fmt.Errorf("decoding user snapshot: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	query, args, err := r.db.sb.Delete(sessionsTable).Where(sq.Eq{"token": token}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete session query: %w", err)
	}
	_, err = r.db.sql.ExecContext(ctx, query, args...)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	query, args, err := r.db.sb.Delete(sessionsTable).
		Where(sq.LtOrEq{"expires_at": r.db.now().UTC()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building purge query: %w", err)
	}
	_, err = r.db.sql.ExecContext(ctx, query, args...)
	return err
}
