package http

import (
	"net/http"

	"bilancio/internal/core"
)

// handleListCategories returns the caller's categories plus the shared
// system set, ordered for display. An optional ?kind= query narrows the
// list to income or expense categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	categories, err := s.reader.QueryCategories(r.Context(), ownerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := core.Kind(raw)
		if err := kind.Validate(); err != nil {
			respondError(w, r, http.StatusBadRequest, "kind must be income or expense")
			return
		}
		filtered := make([]core.Category, 0, len(categories))
		for _, c := range categories {
			if c.Kind == kind {
				filtered = append(filtered, c)
			}
		}
		categories = filtered
	}

	respondJSON(w, http.StatusOK, categories)
}
