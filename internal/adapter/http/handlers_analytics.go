package adapthttp

import (
	"net/http"
	"time"

	"portal/internal/app"
	"portal/internal/domain"
)

type pageViewPoint struct {
	Date      time.Time `json:"date"`
	PageViews int64     `json:"pageViews"`
}

type report struct {
	Series []domain.DailyCounter
	Totals app.Totals
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	series, err := s.analytics.Series(r.Context())
	if err != nil {
		s.logger.Error("load analytics", "request_id", requestID(r.Context()), "error", err)
		http.Error(w, "Error fetching analytics data", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, "admin_reports", "Reports", report{Series: series, Totals: app.Summarize(series)})
}

func (s *Server) handlePageViewsAPI(w http.ResponseWriter, r *http.Request) {
	series, err := s.analytics.Series(r.Context())
	if err != nil {
		s.logger.Error("load analytics", "request_id", requestID(r.Context()), "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching analytics data")
		return
	}

	points := make([]pageViewPoint, 0, len(series))
	for _, c := range series {
		points = append(points, pageViewPoint{Date: c.Day, PageViews: c.PageViews})
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleDailyAPI(w http.ResponseWriter, r *http.Request) {
	series, err := s.analytics.Series(r.Context())
	if err != nil {
		s.logger.Error("load analytics", "request_id", requestID(r.Context()), "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching analytics data")
		return
	}
	writeJSON(w, http.StatusOK, series)
}
