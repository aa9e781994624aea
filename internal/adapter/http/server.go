// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"portal/internal/app"
	"portal/internal/domain"
	"portal/internal/health"
)

const defaultTrackingTimeout = 2 * time.Second

// Services groups the application services the server dispatches to.
type Services struct {
	Auth      *app.AuthService
	Admin     *app.UserAdminService
	Tracking  *app.TrackingService
	Analytics *app.AnalyticsService
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth      *app.AuthService
	admin     *app.UserAdminService
	tracking  *app.TrackingService
	analytics *app.AnalyticsService

	webDir          string
	cookie          CookieConfig
	oidc            *OIDCConfig
	health          *health.Checker
	logger          *slog.Logger
	trackingTimeout time.Duration
	views           *views
}

// Option configures a Server.
type Option func(*Server)

// WithWebDir serves static assets under /static/ from dir.
func WithWebDir(dir string) Option {
	return func(s *Server) { s.webDir = dir }
}

// WithCookie overrides the session cookie settings.
func WithCookie(c CookieConfig) Option {
	return func(s *Server) {
		if c.Name != "" {
			s.cookie.Name = c.Name
		}
		s.cookie.Secure = c.Secure
	}
}

// WithOIDC enables single sign-on.
func WithOIDC(cfg *OIDCConfig) Option {
	return func(s *Server) { s.oidc = cfg }
}

// WithHealth mounts the liveness and readiness probes of c.
func WithHealth(c *health.Checker) Option {
	return func(s *Server) { s.health = c }
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTrackingTimeout bounds how long the tracking middleware waits on the
// counter store.
func WithTrackingTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.trackingTimeout = d
		}
	}
}

// New creates a Server wired to the given application services.
func New(svc Services, opts ...Option) *Server {
	s := &Server{
		auth:            svc.Auth,
		admin:           svc.Admin,
		tracking:        svc.Tracking,
		analytics:       svc.Analytics,
		cookie:          CookieConfig{Name: "session"},
		health:          health.NewChecker(),
		logger:          slog.Default(),
		trackingTimeout: defaultTrackingTimeout,
		views:           mustParseViews(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	authed := Authenticated("/login")
	admin := RequireRole(domain.RoleAdmin)

	pages := http.NewServeMux()
	pages.HandleFunc("GET /login", s.handleLoginPage)
	pages.HandleFunc("GET /signup", s.handleSignupPage)
	pages.HandleFunc("GET /future", s.handleFuture)
	pages.HandleFunc("POST /signup", s.handleSignup)
	pages.HandleFunc("POST /login", s.handleLogin)
	pages.HandleFunc("POST /logout", s.handleLogout)
	pages.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	pages.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	pages.Handle("GET /{$}", Protect(http.HandlerFunc(s.handleHome), authed))
	pages.Handle("GET /assessment", Protect(http.HandlerFunc(s.handleAssessment), authed))
	pages.Handle("GET /courses", Protect(http.HandlerFunc(s.handleCourses), authed))

	pages.Handle("GET /admin", Protect(http.HandlerFunc(s.handleAdminHome), authed, admin))
	pages.Handle("GET /admin/users", Protect(http.HandlerFunc(s.handleAdminUsers), authed, admin))
	pages.Handle("GET /admin/users/update/{username}", Protect(http.HandlerFunc(s.handleEditUserPage), authed, admin))
	pages.Handle("POST /admin/users/update", Protect(http.HandlerFunc(s.handleSetRole), authed, admin))
	pages.Handle("POST /admin/users/update/{username}", Protect(http.HandlerFunc(s.handleUpdateUser), authed, admin))
	pages.Handle("GET /admin/reports", Protect(http.HandlerFunc(s.handleReports), authed, admin))
	pages.Handle("GET /api/analytics/page-views", Protect(http.HandlerFunc(s.handlePageViewsAPI), authed, admin))
	pages.Handle("GET /api/analytics/daily", Protect(http.HandlerFunc(s.handleDailyAPI), authed, admin))

	pages.HandleFunc("GET /page-view", s.handleManualPageView)
	pages.HandleFunc("POST /track-click", s.handleTrackClick)

	// Probes and static assets are not counted as page views.
	root := http.NewServeMux()
	root.Handle("GET /healthz", s.health.LivenessHandler())
	root.Handle("GET /readyz", s.health.ReadinessHandler())
	if s.webDir != "" {
		root.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.webDir))))
	}
	root.Handle("/", s.trackingMiddleware(s.sessionMiddleware(pages)))

	return s.requestIDMiddleware(s.loggingMiddleware(root))
}
