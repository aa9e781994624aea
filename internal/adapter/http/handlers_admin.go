package adapthttp

import (
	"errors"
	"net/http"

	"portal/internal/app"
	"portal/internal/domain"
)

type adminHome struct {
	Admins    []domain.User
	UserCount int
}

func (s *Server) handleAdminHome(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admin.Administrators(r.Context())
	if err != nil {
		s.logger.Error("list administrators", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error fetching administrators", http.StatusInternalServerError)
		return
	}
	count, err := s.admin.UserCount(r.Context())
	if err != nil {
		s.logger.Error("count users", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error fetching administrators", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "admin_home", "Administration", adminHome{Admins: admins, UserCount: count})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users(r.Context())
	if err != nil {
		s.logger.Error("list users", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error fetching users", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "admin_users", "Users", users)
}

func (s *Server) handleEditUserPage(w http.ResponseWriter, r *http.Request) {
	u, err := s.admin.GetUser(r.Context(), r.PathValue("username"))
	if errors.Is(err, app.ErrUserNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get user", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error fetching user", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "admin_user_edit", "Edit user", u)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r, "username", "role")
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	_, err = s.admin.SetRole(r.Context(), f["username"], f["role"])
	if !s.writeUpdateError(w, r, err) {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	}
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r, "email", "password", "role")
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	_, err = s.admin.UpdateUser(r.Context(), r.PathValue("username"), app.UserUpdate{
		Email:    f["email"],
		Password: f["password"],
		Role:     f["role"],
	})
	if !s.writeUpdateError(w, r, err) {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	}
}

// writeUpdateError writes the response for a failed user update and
// reports whether it did.
func (s *Server) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, app.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidRole):
		http.Error(w, "Invalid role", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDuplicateEmail):
		http.Error(w, "Email already in use", http.StatusConflict)
	default:
		s.logger.Error("update user", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error updating user", http.StatusInternalServerError)
	}
	return true
}
