package http

import (
	"net/http"
)

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	months := parseIntQuery(r, "months", 6)

	s.withCache(w, r, ownerID, func() (any, error) {
		return s.engine.MonthlyTrends(r.Context(), ownerID, months)
	})
}

func (s *Server) handleCategoryTrends(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	window, err := parseWindow(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "start and end must be YYYY-MM-DD dates")
		return
	}

	s.withCache(w, r, ownerID, func() (any, error) {
		return s.engine.CategoryTrends(r.Context(), ownerID, window.Start, window.End)
	})
}

// handleForecast returns the month-end spending projection, or 204 when
// the month is too young to project from.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	forecast, err := s.engine.Forecast(r.Context(), ownerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if forecast == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	window, err := parseWindow(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "start and end must be YYYY-MM-DD dates")
		return
	}

	s.withCache(w, r, ownerID, func() (any, error) {
		return s.engine.ComparePeriods(r.Context(), ownerID, window.Start, window.End)
	})
}
