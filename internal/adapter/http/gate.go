package adapthttp

import (
	"net/http"

	"portal/internal/domain"
)

type verdictKind int

const (
	verdictPass verdictKind = iota
	verdictRedirect
	verdictDeny
)

// Verdict is the outcome of a Guard.
type Verdict struct {
	kind     verdictKind
	location string
	status   int
	message  string
}

// Pass lets the request continue to the next guard.
var Pass = Verdict{}

// Redirect ends the request with a 302 to location.
func Redirect(location string) Verdict {
	return Verdict{kind: verdictRedirect, location: location}
}

// Deny ends the request with status and a plain-text message.
func Deny(status int, message string) Verdict {
	return Verdict{kind: verdictDeny, status: status, message: message}
}

// Guard inspects a request and decides whether it may proceed.
type Guard func(r *http.Request) Verdict

// Protect runs guards in order before h. The first verdict other than Pass
// is written and h is not called.
func Protect(h http.Handler, guards ...Guard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range guards {
			v := g(r)
			switch v.kind {
			case verdictPass:
				continue
			case verdictRedirect:
				http.Redirect(w, r, v.location, http.StatusFound)
			default:
				http.Error(w, v.message, v.status)
			}
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Authenticated passes requests carrying a session with a user and
// redirects everything else to loginPath.
func Authenticated(loginPath string) Guard {
	return func(r *http.Request) Verdict {
		if userFromContext(r) == nil {
			return Redirect(loginPath)
		}
		return Pass
	}
}

// RequireRole passes requests whose session user holds role. A missing
// session or user is denied rather than redirected.
func RequireRole(role domain.Role) Guard {
	return func(r *http.Request) Verdict {
		u := userFromContext(r)
		if u == nil || u.Role != role {
			return Deny(http.StatusForbidden, "Access denied")
		}
		return Pass
	}
}
