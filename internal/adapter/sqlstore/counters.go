package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"portal/internal/domain"
)

const countersTable = "daily_counters"

var counterColumns = []string{"bucket", "page_views", "button_clicks"}

// Increment atomically adds delta to field in the bucket for day. The
// conflict clause makes the first write create the row and later writes
// add to it in a single statement.
func (d *DB) Increment(ctx context.Context, day time.Time, field domain.CounterField, delta int64) error {
	if !field.Valid() {
		return domain.ErrUnknownField
	}
	col := string(field)

	query, args, err := d.sb.Insert(countersTable).
		Columns("bucket", col).
		Values(day.UTC(), delta).
		Suffix(fmt.Sprintf("ON CONFLICT (bucket) DO UPDATE SET %[1]s = %[2]s.%[1]s + EXCLUDED.%[1]s", col, countersTable)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building increment query: %w", err)
	}

	if _, err := d.sql.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("incrementing %s: %w", col, err)
	}
	return nil
}

// Series returns every bucket ordered by day.
func (d *DB) Series(ctx context.Context) ([]domain.DailyCounter, error) {
	query, args, err := d.sb.Select(counterColumns...).
		From(countersTable).
		OrderBy("bucket ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building series query: %w", err)
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying counters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.DailyCounter{}
	for rows.Next() {
		var c domain.DailyCounter
		if err := rows.Scan(&c.Day, &c.PageViews, &c.ButtonClicks); err != nil {
			return nil, fmt.Errorf("scanning counter: %w", err)
		}
		c.Day = c.Day.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindByTimestamp returns the bucket keyed exactly by ts, or nil.
func (d *DB) FindByTimestamp(ctx context.Context, ts time.Time) (*domain.DailyCounter, error) {
	query, args, err := d.sb.Select(counterColumns...).
		From(countersTable).
		Where(sq.Eq{"bucket": ts.UTC()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building find query: %w", err)
	}

	var c domain.DailyCounter
	err = d.sql.QueryRowContext(ctx, query, args...).Scan(&c.Day, &c.PageViews, &c.ButtonClicks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding counter: %w", err)
	}
	c.Day = c.Day.UTC()
	return &c, nil
}

// Save writes c, replacing both counts of any bucket with the same key.
func (d *DB) Save(ctx context.Context, c *domain.DailyCounter) error {
	query, args, err := d.sb.Insert(countersTable).
		Columns(counterColumns...).
		Values(c.Day.UTC(), c.PageViews, c.ButtonClicks).
		Suffix("ON CONFLICT (bucket) DO UPDATE SET page_views = EXCLUDED.page_views, button_clicks = EXCLUDED.button_clicks").
		ToSql()
	if err != nil {
		return fmt.Errorf("building save query: %w", err)
	}

	if _, err := d.sql.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving counter: %w", err)
	}
	return nil
}
