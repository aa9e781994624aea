package adapthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"portal/internal/app"
	"portal/internal/domain"
)

type contextKey string

const (
	sessionContextKey   contextKey = "session"
	requestIDContextKey contextKey = "request_id"
)

const requestIDHeader = "X-Request-Id"

// sessionFromContext returns the session attached by sessionMiddleware, or nil.
func sessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return s
}

// userFromContext returns the session's user snapshot, or nil when anonymous.
func userFromContext(r *http.Request) *domain.UserSnapshot {
	s := sessionFromContext(r.Context())
	if s == nil || s.User.IsZero() {
		return nil
	}
	return &s.User
}

func withSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requestIDMiddleware reuses an inbound X-Request-Id or generates one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestID(r.Context())),
		)
	})
}

// trackingMiddleware counts a page view for every request that reaches it.
// A storage failure is logged and the request proceeds.
func (s *Server) trackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.trackingTimeout)
		err := s.tracking.RecordPageView(ctx)
		cancel()
		if err != nil {
			s.logger.Warn("tracking: page view not recorded",
				"path", r.URL.Path,
				"request_id", requestID(r.Context()),
				"error", err,
			)
		}
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware attaches the live session named by the cookie, if any.
// Requests without a valid session proceed anonymously.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cookie.Name)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.auth.ValidateSession(r.Context(), cookie.Value)
		switch {
		case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired):
			s.clearSessionCookie(w)
		case err != nil:
			s.logger.Error("session lookup failed", "request_id", requestID(r.Context()), "error", err)
		default:
			r = r.WithContext(withSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.auth.SessionTTL().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		MaxAge:   -1,
	})
}
