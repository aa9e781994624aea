package adapthttp

import "net/http"

func (s *Server) handleManualPageView(w http.ResponseWriter, r *http.Request) {
	if err := s.tracking.RecordManualPageView(r.Context()); err != nil {
		s.logger.Error("record page view", "request_id", requestID(r.Context()), "error", err)
		writeText(w, http.StatusInternalServerError, "Error recording page view")
		return
	}
	writeText(w, http.StatusOK, "Page viewed!")
}

func (s *Server) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	if err := s.tracking.RecordClick(r.Context()); err != nil {
		s.logger.Error("track click", "request_id", requestID(r.Context()), "error", err)
		writeText(w, http.StatusInternalServerError, "Error tracking click")
		return
	}
	writeText(w, http.StatusOK, "Click tracked")
}
