// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// CounterField names one countable event on a DailyCounter.
type CounterField string

const (
	// FieldPageViews counts tracked requests.
	FieldPageViews CounterField = "page_views"
	// FieldButtonClicks counts click-tracking calls.
	FieldButtonClicks CounterField = "button_clicks"
)

// Valid reports whether f is a known counter field.
func (f CounterField) Valid() bool {
	return f == FieldPageViews || f == FieldButtonClicks
}

// DailyCounter is the aggregated event count for one bucket. Under the
// day-bucketed write path Day is UTC midnight; the best-effort path stores the
// exact timestamp it was keyed by.
type DailyCounter struct {
	Day          time.Time `json:"date"`
	PageViews    int64     `json:"pageViews"`
	ButtonClicks int64     `json:"buttonClicks"`
}

// Add adds delta to field. Unknown fields are ignored.
func (c *DailyCounter) Add(field CounterField, delta int64) {
	switch field {
	case FieldPageViews:
		c.PageViews += delta
	case FieldButtonClicks:
		c.ButtonClicks += delta
	}
}

// DayOf truncates t to its calendar day in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CounterRepository is the port for the day-bucketed counter store.
type CounterRepository interface {
	// Increment atomically adds delta to field on the record for day,
	// creating the record with delta if it does not exist yet.
	Increment(ctx context.Context, day time.Time, field CounterField, delta int64) error
	// Series returns every stored counter ordered ascending by day.
	Series(ctx context.Context) ([]DailyCounter, error)
}

// BestEffortCounterRepository is a non-atomic find-then-save path keyed by an
// exact timestamp. Concurrent callers using the same timestamp can lose
// updates; use CounterRepository.Increment where correctness matters.
type BestEffortCounterRepository interface {
	// FindByTimestamp returns nil, nil when no record has exactly this key.
	FindByTimestamp(ctx context.Context, ts time.Time) (*DailyCounter, error)
	// Save writes c, overwriting any record with the same key.
	Save(ctx context.Context, c *DailyCounter) error
}
