package app

import (
	"context"
	"time"

	"portal/internal/domain"
)

// Totals sums a series of counters.
type Totals struct {
	// Days counts distinct calendar days, so timestamp-keyed rows of one
	// day count once.
	Days         int
	PageViews    int64
	ButtonClicks int64
}

// Summarize totals series without reading the store again.
func Summarize(series []domain.DailyCounter) Totals {
	days := make(map[time.Time]struct{}, len(series))
	var t Totals
	for _, c := range series {
		days[domain.DayOf(c.Day)] = struct{}{}
		t.PageViews += c.PageViews
		t.ButtonClicks += c.ButtonClicks
	}
	t.Days = len(days)
	return t
}

// AnalyticsService reads aggregated traffic counters.
type AnalyticsService struct {
	counters domain.CounterRepository
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(counters domain.CounterRepository) *AnalyticsService {
	return &AnalyticsService{counters: counters}
}

// Series returns every recorded bucket in the ascending order the
// repository guarantees.
func (s *AnalyticsService) Series(ctx context.Context) ([]domain.DailyCounter, error) {
	series, err := s.counters.Series(ctx)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = []domain.DailyCounter{}
	}
	return series, nil
}
