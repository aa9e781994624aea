package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestStateTransitions(t *testing.T) {
	hc := NewChecker()
	if hc.State() != "starting" || hc.IsReady() {
		t.Fatalf("initial state = %q", hc.State())
	}
	hc.SetReady()
	if hc.State() != "ready" || !hc.IsReady() {
		t.Fatalf("after SetReady() = %q", hc.State())
	}
	hc.SetDraining()
	if hc.State() != "draining" || hc.IsReady() {
		t.Fatalf("after SetDraining() = %q", hc.State())
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewChecker()
	rec := httptest.NewRecorder()
	hc.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func readiness(t *testing.T, hc *Checker) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	hc.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*Checker)
		wantStatus int
		wantState  string
	}{
		{"starting", func(*Checker) {}, http.StatusServiceUnavailable, "starting"},
		{"ready", func(c *Checker) { c.SetReady() }, http.StatusOK, "ready"},
		{"draining", func(c *Checker) { c.SetReady(); c.SetDraining() }, http.StatusServiceUnavailable, "draining"},
		{"failing check", func(c *Checker) {
			c.AddCheck("database", func(context.Context) error { return errors.New("connection refused") })
			c.SetReady()
		}, http.StatusServiceUnavailable, "degraded"},
		{"passing check", func(c *Checker) {
			c.AddCheck("database", func(context.Context) error { return nil })
			c.SetReady()
		}, http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewChecker()
			tt.setup(hc)
			code, body := readiness(t, hc)
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			if body.Status != tt.wantState {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantState)
			}
		})
	}
}

func TestReadinessHandler_ReportsCheckResults(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck("database", func(context.Context) error { return nil })
	hc.AddCheck("sessions", func(context.Context) error { return errors.New("timeout") })
	hc.SetReady()

	_, body := readiness(t, hc)
	if body.Checks["database"] != "ok" || body.Checks["sessions"] != "timeout" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hc := NewChecker()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				hc.SetReady()
			} else {
				_ = hc.IsReady()
			}
		}()
	}
	wg.Wait()
}
