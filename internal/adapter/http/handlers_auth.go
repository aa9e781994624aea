package adapthttp

import (
	"errors"
	"net/http"

	"portal/internal/app"
	"portal/internal/domain"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r, "username", "email", "password")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	_, err = s.auth.Signup(r.Context(), f["username"], f["email"], f["password"])
	switch {
	case errors.Is(err, app.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "Username, email and password are required.")
		return
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeMessage(w, http.StatusConflict, "User already exists with this email.")
		return
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeMessage(w, http.StatusConflict, "Username is already taken.")
		return
	case err != nil:
		s.logger.Error("signup failed", "request_id", requestID(r.Context()), "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r, "email", "password")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	sess, err := s.auth.Login(r.Context(), f["email"], f["password"])
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		s.logger.Error("login failed", "request_id", requestID(r.Context()), "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cookie.Name); err == nil && cookie.Value != "" {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("logout: session not deleted", "request_id", requestID(r.Context()), "error", err)
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
