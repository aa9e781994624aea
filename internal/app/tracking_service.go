package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portal/internal/domain"
)

// ManualMode selects how the manual page-view endpoint records hits.
type ManualMode string

const (
	// ManualModeTimestamp finds or creates a record keyed by the exact
	// request time and saves it back without atomicity.
	ManualModeTimestamp ManualMode = "timestamp"
	// ManualModeDay increments the day bucket atomically, like the
	// automatic tracker.
	ManualModeDay ManualMode = "day"
)

// ParseManualMode parses a manual tracking mode. The empty string selects
// ManualModeTimestamp.
func ParseManualMode(s string) (ManualMode, error) {
	switch m := ManualMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ManualModeTimestamp, nil
	case ManualModeTimestamp, ManualModeDay:
		return m, nil
	default:
		return "", fmt.Errorf("unknown manual tracking mode %q", s)
	}
}

// TrackingService records page views and button clicks.
type TrackingService struct {
	counters   domain.CounterRepository
	bestEffort domain.BestEffortCounterRepository
	mode       ManualMode
	now        func() time.Time
}

// NewTrackingService creates a new tracking service. bestEffort may be nil,
// in which case manual page views fall back to the atomic path.
func NewTrackingService(counters domain.CounterRepository, bestEffort domain.BestEffortCounterRepository) *TrackingService {
	return &TrackingService{
		counters:   counters,
		bestEffort: bestEffort,
		mode:       ManualModeTimestamp,
		now:        time.Now,
	}
}

// WithManualMode sets how RecordManualPageView stores hits.
func (s *TrackingService) WithManualMode(m ManualMode) *TrackingService {
	if m != "" {
		s.mode = m
	}
	return s
}

// RecordPageView adds one page view to today's bucket.
func (s *TrackingService) RecordPageView(ctx context.Context) error {
	return s.record(ctx, domain.FieldPageViews)
}

// RecordClick adds one button click to today's bucket.
func (s *TrackingService) RecordClick(ctx context.Context) error {
	return s.record(ctx, domain.FieldButtonClicks)
}

func (s *TrackingService) record(ctx context.Context, field domain.CounterField) error {
	day := domain.DayOf(s.now())
	if err := s.counters.Increment(ctx, day, field, 1); err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return nil
}

// RecordManualPageView records a page view through the manual endpoint.
// In timestamp mode concurrent calls may lose updates.
func (s *TrackingService) RecordManualPageView(ctx context.Context) error {
	if s.mode == ManualModeDay || s.bestEffort == nil {
		return s.RecordPageView(ctx)
	}

	ts := s.now().UTC()
	rec, err := s.bestEffort.FindByTimestamp(ctx, ts)
	if err != nil {
		return fmt.Errorf("find counter: %w", err)
	}
	if rec == nil {
		rec = &domain.DailyCounter{Day: ts}
	}
	rec.PageViews++

	if err := s.bestEffort.Save(ctx, rec); err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}
