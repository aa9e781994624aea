package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal/internal/domain"
)

var errUnique = errors.New("unique violation")

var testDialect = Dialect{
	Name:        "test",
	Placeholder: sq.Dollar,
	UniqueViolation: func(err error) (string, bool) {
		if errors.Is(err, errUnique) {
			return err.Error(), true
		}
		return "", false
	},
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := New(db, testDialect)
	store.now = func() time.Time { return testNow }
	return store, mock
}

func TestIncrement(t *testing.T) {
	store, mock := newMock(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO daily_counters .* ON CONFLICT \(bucket\) DO UPDATE SET page_views = daily_counters\.page_views \+ EXCLUDED\.page_views`).
		WithArgs(day, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Increment(context.Background(), day, domain.FieldPageViews, 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrement_ButtonClicks(t *testing.T) {
	store, mock := newMock(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`SET button_clicks = daily_counters\.button_clicks \+ EXCLUDED\.button_clicks`).
		WithArgs(day, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Increment(context.Background(), day, domain.FieldButtonClicks, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrement_UnknownField(t *testing.T) {
	store, mock := newMock(t)

	err := store.Increment(context.Background(), testNow, domain.CounterField("page_views; DROP TABLE users"), 1)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrement_ExecError(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("INSERT INTO daily_counters").WillReturnError(errors.New("connection reset"))

	err := store.Increment(context.Background(), testNow, domain.FieldPageViews, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incrementing page_views")
}

func TestSeries(t *testing.T) {
	store, mock := newMock(t)
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT bucket, page_views, button_clicks FROM daily_counters ORDER BY bucket ASC`).
		WillReturnRows(sqlmock.NewRows(counterColumns).
			AddRow(d1, int64(3), int64(1)).
			AddRow(d2, int64(5), int64(0)))

	series, err := store.Series(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.True(t, series[0].Day.Equal(d1))
	assert.Equal(t, int64(3), series[0].PageViews)
	assert.Equal(t, int64(1), series[0].ButtonClicks)
	assert.Equal(t, int64(5), series[1].PageViews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeries_Empty(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT .* FROM daily_counters").WillReturnRows(sqlmock.NewRows(counterColumns))

	series, err := store.Series(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestFindByTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 15, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`SELECT .* FROM daily_counters WHERE bucket = \$1`).
			WithArgs(ts).
			WillReturnRows(sqlmock.NewRows(counterColumns).AddRow(ts, int64(4), int64(0)))

		c, err := store.FindByTimestamp(context.Background(), ts)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, int64(4), c.PageViews)
	})

	t.Run("absent", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(`FROM daily_counters WHERE bucket = \$1`).
			WithArgs(ts).
			WillReturnError(sql.ErrNoRows)

		c, err := store.FindByTimestamp(context.Background(), ts)
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestSave(t *testing.T) {
	store, mock := newMock(t)
	ts := time.Date(2026, 3, 1, 10, 30, 15, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO daily_counters .* ON CONFLICT \(bucket\) DO UPDATE SET page_views = EXCLUDED\.page_views, button_clicks = EXCLUDED\.button_clicks`).
		WithArgs(ts, int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), &domain.DailyCounter{Day: ts, PageViews: 5, ButtonClicks: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	store, mock := newMock(t)
	u := &domain.User{ID: "u1", Username: "alice", Email: "Alice@X.io", PasswordHash: "h", Role: domain.RoleMember}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "alice", "alice@x.io", "h", "member", "[]", testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), u))
	assert.Equal(t, testNow, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Duplicate(t *testing.T) {
	tests := []struct {
		detail string
		want   error
	}{
		{"users_email_key", domain.ErrDuplicateEmail},
		{"UNIQUE constraint failed: users.username", domain.ErrDuplicateUsername},
	}
	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			store, mock := newMock(t)
			mock.ExpectExec("INSERT INTO users").
				WillReturnError(errors.Join(errUnique, errors.New(tt.detail)))

			err := store.Create(context.Background(), &domain.User{ID: "u1", Username: "a", Email: "a@x.io"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetByEmail(t *testing.T) {
	store, mock := newMock(t)
	perms, _ := json.Marshal([]string{"reports"})

	mock.ExpectQuery(`SELECT id, username, email, password_hash, role, permissions, created_at FROM users WHERE email = \$1`).
		WithArgs("a@x.io").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "alice", "a@x.io", "h", "admin", string(perms), testNow))

	u, err := store.GetByEmail(context.Background(), "A@x.io")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, []string{"reports"}, u.Permissions)
}

func TestGetByUsername_Missing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	u, err := store.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUpdateUser(t *testing.T) {
	store, mock := newMock(t)
	u := &domain.User{ID: "u1", Username: "bob", Email: "b@x.io", PasswordHash: "h2", Role: domain.RoleAdmin}

	// SetMap orders columns alphabetically.
	mock.ExpectExec(`UPDATE users SET email = \$1, password_hash = \$2, permissions = \$3, role = \$4, username = \$5 WHERE id = \$6`).
		WithArgs("b@x.io", "h2", "[]", "admin", "bob", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Update(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_NotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), &domain.User{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByRole(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`FROM users WHERE role = \$1 ORDER BY created_at ASC, username ASC`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u1", "alice", "a@x.io", "h", "admin", "[]", testNow).
			AddRow("u2", "root", "r@x.io", "h", "admin", "", testNow))

	users, err := store.ListByRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[1].Username)
}

func TestCount(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	store, mock := newMock(t)
	repo := NewSessionRepo(store)

	sess := &domain.Session{
		Token:     "tok",
		User:      domain.UserSnapshot{ID: "u1", Username: "alice", Role: domain.RoleMember},
		CreatedAt: testNow,
		ExpiresAt: testNow.Add(24 * time.Hour),
	}
	snapshot, err := json.Marshal(sess.User)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("tok", string(snapshot), sess.CreatedAt, sess.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), sess))

	mock.ExpectQuery(`FROM sessions WHERE token = \$1 AND expires_at > \$2`).
		WithArgs("tok", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_snapshot", "created_at", "expires_at"}).
			AddRow("tok", string(snapshot), sess.CreatedAt, sess.ExpiresAt))

	got, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.User, got.User)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByToken_Missing(t *testing.T) {
	store, mock := newMock(t)
	repo := NewSessionRepo(store)

	mock.ExpectQuery("FROM sessions").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	store, mock := newMock(t)
	repo := NewSessionRepo(store)

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(testNow).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.DeleteExpired(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
