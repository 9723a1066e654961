package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError maps domain and storage errors to HTTP statuses.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "transaction not found")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidKind,
		core.ErrInvalidFilter,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrInvalidOwner,
		core.ErrInvalidRange,
		core.ErrInvalidMonths,
		core.ErrInvalidCategory,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// parseTimeFilter reads the ?filter= query parameter, defaulting to month.
func parseTimeFilter(r *http.Request) core.TimeFilter {
	raw := strings.TrimSpace(r.URL.Query().Get("filter"))
	if raw == "" {
		return core.FilterMonth
	}
	return core.TimeFilter(raw)
}

// parseWindow reads ?start= and ?end= as YYYY-MM-DD calendar dates.
func parseWindow(r *http.Request) (analytics.Window, error) {
	start, err := core.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return analytics.Window{}, err
	}
	end, err := core.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return analytics.Window{}, err
	}
	return analytics.Window{Start: start, End: end}, nil
}

func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	if raw := strings.TrimSpace(r.URL.Query().Get(key)); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultValue
}

func parsePathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

// withCache serves GET analytics responses from the per-owner response
// cache, computing and storing on miss. Keys share the owner prefix the
// ledger service invalidates on writes.
func (s *Server) withCache(w http.ResponseWriter, r *http.Request, ownerID int64, compute func() (any, error)) {
	key := services.OwnerCachePrefix(ownerID) + r.URL.Path + "?" + r.URL.Query().Encode()

	if body, ok := s.responseCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	payload, err := compute()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.responseCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
