package app

import (
	"context"
	"time"

	"portal/internal/domain"
)

type mockUserRepo struct {
	getByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	createFn        func(ctx context.Context, u *domain.User) error
	updateFn        func(ctx context.Context, u *domain.User) error
	listFn          func(ctx context.Context) ([]domain.User, error)
	listByRoleFn    func(ctx context.Context, role domain.Role) ([]domain.User, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if m.listByRoleFn != nil {
		return m.listByRoleFn(ctx, role)
	}
	return nil, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s *domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

type mockCounterRepo struct {
	incrementFn func(ctx context.Context, day time.Time, field domain.CounterField, delta int64) error
	seriesFn    func(ctx context.Context) ([]domain.DailyCounter, error)
}

func (m *mockCounterRepo) Increment(ctx context.Context, day time.Time, field domain.CounterField, delta int64) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, day, field, delta)
	}
	return nil
}

func (m *mockCounterRepo) Series(ctx context.Context) ([]domain.DailyCounter, error) {
	if m.seriesFn != nil {
		return m.seriesFn(ctx)
	}
	return nil, nil
}

type mockBestEffortRepo struct {
	findByTimestampFn func(ctx context.Context, ts time.Time) (*domain.DailyCounter, error)
	saveFn            func(ctx context.Context, c *domain.DailyCounter) error
}

func (m *mockBestEffortRepo) FindByTimestamp(ctx context.Context, ts time.Time) (*domain.DailyCounter, error) {
	if m.findByTimestampFn != nil {
		return m.findByTimestampFn(ctx, ts)
	}
	return nil, nil
}

func (m *mockBestEffortRepo) Save(ctx context.Context, c *domain.DailyCounter) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, c)
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
