package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type dashboardResponse struct {
	Summary   core.DashboardSummary       `json:"summary"`
	Breakdown []core.CategoryBreakdown    `json:"breakdown"`
	Recent    []storage.TransactionDetail `json:"recent"`
}

// handleDashboard combines summary, breakdown and recent activity in a
// single response. The three lookups are independent and run in parallel.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	filter := parseTimeFilter(r)

	s.withCache(w, r, ownerID, func() (any, error) {
		var resp dashboardResponse

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			summary, err := s.engine.Summary(ctx, ownerID, filter)
			if err != nil {
				return err
			}
			resp.Summary = summary
			return nil
		})
		g.Go(func() error {
			breakdown, err := s.engine.Breakdown(ctx, ownerID, filter)
			if err != nil {
				return err
			}
			resp.Breakdown = breakdown
			return nil
		})
		g.Go(func() error {
			recent, err := s.reader.RecentTransactions(ctx, ownerID, 10)
			if err != nil {
				return err
			}
			resp.Recent = recent
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	filter := parseTimeFilter(r)

	s.withCache(w, r, ownerID, func() (any, error) {
		return s.engine.Summary(r.Context(), ownerID, filter)
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	filter := parseTimeFilter(r)

	s.withCache(w, r, ownerID, func() (any, error) {
		return s.engine.Breakdown(r.Context(), ownerID, filter)
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	limit := parseIntQuery(r, "limit", 10)

	recent, err := s.reader.RecentTransactions(r.Context(), ownerID, limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recent)
}
