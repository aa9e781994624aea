// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"portal/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	counters map[int64]*domain.DailyCounter
	users    []*domain.User
	sessions map[string]*domain.Session
	now      func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		counters: make(map[int64]*domain.DailyCounter),
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.CounterRepository = (*DB)(nil)
var _ domain.BestEffortCounterRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

func counterKey(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// --- CounterRepository ---

// Increment adds delta to field in the bucket for day, creating it if needed.
func (db *DB) Increment(ctx context.Context, day time.Time, field domain.CounterField, delta int64) error {
	if !field.Valid() {
		return domain.ErrUnknownField
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	key := counterKey(day)
	c, ok := db.counters[key]
	if !ok {
		c = &domain.DailyCounter{Day: day.UTC()}
		db.counters[key] = c
	}
	c.Add(field, delta)
	return nil
}

// Series returns every bucket ordered by day.
func (db *DB) Series(ctx context.Context) ([]domain.DailyCounter, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.DailyCounter, 0, len(db.counters))
	for _, c := range db.counters {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b domain.DailyCounter) int {
		return a.Day.Compare(b.Day)
	})
	return out, nil
}

// --- BestEffortCounterRepository ---

// FindByTimestamp returns a copy of the bucket keyed exactly by ts.
func (db *DB) FindByTimestamp(ctx context.Context, ts time.Time) (*domain.DailyCounter, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.counters[counterKey(ts)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// Save overwrites the bucket keyed by c.Day.
func (db *DB) Save(ctx context.Context, c *domain.DailyCounter) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *c
	cp.Day = c.Day.UTC()
	db.counters[counterKey(c.Day)] = &cp
	return nil
}

// --- UserRepository ---

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Permissions = slices.Clone(u.Permissions)
	return &cp
}

func (db *DB) find(match func(*domain.User) bool) *domain.User {
	for _, u := range db.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.find(func(u *domain.User) bool { return u.ID == id }), nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.find(func(u *domain.User) bool { return u.Username == username }), nil
}

// Create stores a new user.
func (db *DB) Create(ctx context.Context, u *domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return domain.ErrDuplicateUsername
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now().UTC()
	}
	db.users = append(db.users, cloneUser(u))
	return nil
}

// Update replaces the stored user with the same ID.
func (db *DB) Update(ctx context.Context, u *domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := -1
	for i, existing := range db.users {
		if existing.ID == u.ID {
			idx = i
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
		if existing.Username == u.Username {
			return domain.ErrDuplicateUsername
		}
	}
	if idx == -1 {
		return domain.ErrNotFound
	}
	db.users[idx] = cloneUser(u)
	return nil
}

// List returns every user in creation order.
func (db *DB) List(ctx context.Context) ([]domain.User, error) {
	return db.list(func(*domain.User) bool { return true }), nil
}

// ListByRole returns the users holding role in creation order.
func (db *DB) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return db.list(func(u *domain.User) bool { return u.Role == role }), nil
}

func (db *DB) list(match func(*domain.User) bool) []domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		if match(u) {
			out = append(out, *cloneUser(u))
		}
	}
	return out
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := *s
	cp.User.Permissions = slices.Clone(s.User.Permissions)
	r.db.sessions[s.Token] = &cp
	return nil
}

// GetByToken retrieves a session by token. Expired sessions are dropped.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, nil
	}
	if s.Expired(r.db.now()) {
		delete(r.db.sessions, token)
		return nil, nil
	}
	cp := *s
	cp.User.Permissions = slices.Clone(s.User.Permissions)
	return &cp, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	for k, v := range r.db.sessions {
		if v.Expired(now) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
