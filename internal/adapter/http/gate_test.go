package adapthttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portal/internal/domain"
)

func requestAs(role domain.Role) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if role == "" {
		return r
	}
	sess := &domain.Session{Token: "t", User: domain.UserSnapshot{ID: "u1", Username: "u", Role: role}}
	return r.WithContext(withSession(r.Context(), sess))
}

func okHandler() (http.Handler, *bool) {
	called := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}), called
}

func TestProtect(t *testing.T) {
	authed := Authenticated("/login")
	admin := RequireRole(domain.RoleAdmin)

	tests := []struct {
		name     string
		role     domain.Role
		guards   []Guard
		status   int
		location string
		reached  bool
	}{
		{name: "no guards", guards: nil, status: http.StatusOK, reached: true},
		{name: "anonymous redirected", guards: []Guard{authed}, status: http.StatusFound, location: "/login"},
		{name: "member authenticated", role: domain.RoleMember, guards: []Guard{authed}, status: http.StatusOK, reached: true},
		{name: "member denied admin", role: domain.RoleMember, guards: []Guard{authed, admin}, status: http.StatusForbidden},
		{name: "admin allowed", role: domain.RoleAdmin, guards: []Guard{authed, admin}, status: http.StatusOK, reached: true},
		{name: "anonymous stops at first guard", guards: []Guard{authed, admin}, status: http.StatusFound, location: "/login"},
		{name: "role guard alone denies anonymous", guards: []Guard{admin}, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, called := okHandler()
			w := httptest.NewRecorder()
			Protect(h, tt.guards...).ServeHTTP(w, requestAs(tt.role))

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Errorf("expected location %q, got %q", tt.location, got)
			}
			if *called != tt.reached {
				t.Errorf("handler reached = %v, want %v", *called, tt.reached)
			}
		})
	}
}

func TestProtect_DenyMessage(t *testing.T) {
	h, _ := okHandler()
	w := httptest.NewRecorder()
	Protect(h, RequireRole(domain.RoleAdmin)).ServeHTTP(w, requestAs(domain.RoleMember))

	if body := strings.TrimSpace(w.Body.String()); body != "Access denied" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestProtect_CustomGuard(t *testing.T) {
	teapot := func(*http.Request) Verdict { return Deny(http.StatusTeapot, "short and stout") }
	h, called := okHandler()
	w := httptest.NewRecorder()
	Protect(h, teapot).ServeHTTP(w, requestAs(domain.RoleAdmin))

	if w.Code != http.StatusTeapot || *called {
		t.Errorf("expected custom guard to stop the request, got %d", w.Code)
	}
}

func TestAuthenticated_EmptySnapshot(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(withSession(r.Context(), &domain.Session{Token: "t"}))

	if v := Authenticated("/login")(r); v.kind != verdictRedirect {
		t.Errorf("session without a user should redirect, got %+v", v)
	}
}
