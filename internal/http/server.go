// Package http exposes the ledger and analytics engine as a JSON API.
// Callers are identified by the X-User-ID header; every route is scoped
// to that owner.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/analytics"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// TransactionReader is the read-side storage surface the handlers need
// beyond what the analytics engine already covers.
type TransactionReader interface {
	GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID int64, page, pageSize int, filter storage.ListFilter) (storage.ListResult, error)
	RecentTransactions(ctx context.Context, ownerID int64, limit int) ([]storage.TransactionDetail, error)
	QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
}

type Server struct {
	http.Server

	engine *analytics.Engine
	ledger *services.LedgerService
	reader TransactionReader
	logger *log.Logger

	rateLimiter *rateLimiter

	// Cached marshaled analytics responses, keyed by owner and query
	// shape. Ledger writes invalidate by owner prefix.
	responseCache *cache.LRUCache[[]byte]
	stopCleanup   func()
	shutdownOnce  sync.Once
}

type Options struct {
	Addr string
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. responseCache is shared with the ledger service, which
// invalidates it on writes; pass nil to run with a private default.
func NewServer(opts Options, engine *analytics.Engine, ledger *services.LedgerService, reader TransactionReader, responseCache *cache.LRUCache[[]byte], logger *log.Logger) *Server {
	if responseCache == nil {
		responseCache = cache.NewLRUCache[[]byte](256, 5*time.Minute)
	}

	s := &Server{
		engine:        engine,
		ledger:        ledger,
		reader:        reader,
		logger:        logger.WithComponent(log.ComponentHTTP),
		rateLimiter:   newRateLimiter(),
		responseCache: responseCache,
	}
	s.stopCleanup = s.responseCache.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(requestIDMiddleware)
	r.Use(securityHeaders)
	r.Use(s.logRequests)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireOwner)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/summary", s.handleSummary)
		r.Get("/dashboard/breakdown", s.handleBreakdown)
		r.Get("/dashboard/recent", s.handleRecent)

		r.Get("/reports/trends", s.handleMonthlyTrends)
		r.Get("/reports/categories", s.handleCategoryTrends)
		r.Get("/reports/forecast", s.handleForecast)
		r.Get("/reports/comparison", s.handleComparison)

		r.Get("/categories", s.handleListCategories)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.With(s.limitWrites).Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.With(s.limitWrites).Put("/{id}", s.handleUpdateTransaction)
			r.With(s.limitWrites).Delete("/{id}", s.handleDeleteTransaction)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops background routines before draining the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCleanup != nil {
			s.stopCleanup()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
