package adapthttp

import "net/http"

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", "Home", nil)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Log in", nil)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", "Sign up", nil)
}

func (s *Server) handleFuture(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "future", "What's next", nil)
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "assessment", "Assessment", nil)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "courses", "Courses", nil)
}
