package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type transactionRequest struct {
	CategoryID int64  `json:"category_id"`
	Amount     int64  `json:"amount"`
	Kind       string `json:"kind"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	Note       string `json:"note"`
}

func (req transactionRequest) toDomain(ownerID, id int64) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", req.Date, core.ErrInvalidDate)
	}

	return core.Transaction{
		ID:         id,
		OwnerID:    ownerID,
		CategoryID: req.CategoryID,
		Amount:     core.Money(req.Amount),
		Kind:       core.Kind(req.Kind),
		Date:       date,
		Name:       strings.TrimSpace(req.Name),
		Note:       strings.TrimSpace(req.Note),
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed JSON body")
		return
	}

	tx, err := req.toDomain(ownerID, 0)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	id, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	tx, err := s.reader.GetTransaction(r.Context(), ownerID, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	id, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed JSON body")
		return
	}

	tx, err := req.toDomain(ownerID, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), tx); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	id, err := parsePathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), ownerID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	page := parseIntQuery(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseIntQuery(r, "page_size", 20)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter, err := parseListFilter(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	result, err := s.reader.ListTransactions(r.Context(), ownerID, page, pageSize, filter)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func parseListFilter(r *http.Request) (storage.ListFilter, error) {
	var filter storage.ListFilter
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		start, err := core.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("parse start %q: %w", raw, core.ErrInvalidDate)
		}
		filter.StartDate = &start
	}
	if raw := strings.TrimSpace(q.Get("end")); raw != "" {
		end, err := core.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("parse end %q: %w", raw, core.ErrInvalidDate)
		}
		filter.EndDate = &end
	}
	if raw := strings.TrimSpace(q.Get("kind")); raw != "" {
		kind := core.Kind(raw)
		if err := kind.Validate(); err != nil {
			return filter, err
		}
		filter.Kind = &kind
	}
	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("parse category_id %q: %w", raw, core.ErrInvalidCategory)
		}
		filter.CategoryID = &categoryID
	}
	filter.Search = strings.TrimSpace(q.Get("q"))

	return filter, nil
}
