package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// fakeBackend implements analytics.Store, TransactionReader and
// services.LedgerStore over an in-memory slice.
type fakeBackend struct {
	categories   []core.Category
	transactions []core.Transaction
	nextID       int64
}

func (f *fakeBackend) QueryTransactions(ctx context.Context, ownerID int64, filter analytics.Filter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range f.transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if filter.Range != nil {
			if tx.Date.Before(filter.Range.Start) || tx.Date.After(filter.Range.End) {
				continue
			}
		}
		if filter.Kind != nil && tx.Kind != *filter.Kind {
			continue
		}
		if filter.CategoryID != nil && tx.CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeBackend) QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	return f.categories, nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	f.nextID++
	tx.ID = f.nextID
	f.transactions = append(f.transactions, tx)
	return tx, nil
}

func (f *fakeBackend) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.ID == id && tx.OwnerID == ownerID {
			return tx, nil
		}
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (f *fakeBackend) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	for i, existing := range f.transactions {
		if existing.ID == tx.ID && existing.OwnerID == tx.OwnerID {
			f.transactions[i] = tx
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeBackend) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	for i, tx := range f.transactions {
		if tx.ID == id && tx.OwnerID == ownerID {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeBackend) ListTransactions(ctx context.Context, ownerID int64, page, pageSize int, filter storage.ListFilter) (storage.ListResult, error) {
	var details []storage.TransactionDetail
	for _, tx := range f.transactions {
		if tx.OwnerID == ownerID {
			details = append(details, storage.TransactionDetail{Transaction: tx})
		}
	}
	return storage.ListResult{Transactions: details, TotalCount: len(details)}, nil
}

func (f *fakeBackend) RecentTransactions(ctx context.Context, ownerID int64, limit int) ([]storage.TransactionDetail, error) {
	result, err := f.ListTransactions(ctx, ownerID, 1, limit, storage.ListFilter{})
	if err != nil {
		return nil, err
	}
	if len(result.Transactions) > limit {
		result.Transactions = result.Transactions[:limit]
	}
	return result.Transactions, nil
}

func newTestServer(t *testing.T, backend *fakeBackend, now time.Time) *Server {
	t.Helper()

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	engine := analytics.NewEngineWithClock(backend, func() time.Time { return now })
	responseCache := cache.NewLRUCache[[]byte](64, time.Minute)
	ledger := services.NewLedgerService(backend, nil, responseCache)

	s := NewServer(Options{Addr: ":0"}, engine, ledger, backend, responseCache, logger)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func seededBackend() *fakeBackend {
	return &fakeBackend{
		categories: []core.Category{
			{ID: 1, Name: "Ăn uống", Kind: core.Expense, IsSystem: true},
			{ID: 2, Name: "Lương", Kind: core.Income, IsSystem: true},
		},
		transactions: []core.Transaction{
			{ID: 1, OwnerID: 7, CategoryID: 2, Amount: 20_000_000, Kind: core.Income, Date: core.NewDate(2024, 6, 1), Name: "salary"},
			{ID: 2, OwnerID: 7, CategoryID: 1, Amount: 5_000_000, Kind: core.Expense, Date: core.NewDate(2024, 6, 10), Name: "groceries"},
		},
		nextID: 2,
	}
}

func doRequest(s *Server, method, target string, body []byte, ownerID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if ownerID != "" {
		req.Header.Set("X-User-ID", ownerID)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_RequiresOwnerHeader(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	for _, target := range []string{
		"/api/v1/dashboard/summary",
		"/api/v1/transactions/",
		"/api/v1/reports/forecast",
	} {
		rec := doRequest(s, http.MethodGet, target, nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without owner header = %d, want 401", target, rec.Code)
		}
	}

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard/summary", nil, "not-a-number")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET with malformed owner header = %d, want 401", rec.Code)
	}
}

func TestServer_HealthEndpoints(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doRequest(s, http.MethodGet, target, nil, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", target, rec.Code)
		}
	}
}

func TestServer_Summary(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard/summary?filter=month", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET summary = %d, body %s", rec.Code, rec.Body.String())
	}

	var summary core.DashboardSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalIncome != 20_000_000 || summary.TotalExpense != 5_000_000 || summary.TotalBalance != 15_000_000 {
		t.Errorf("summary = %+v, want income 20M, expense 5M, balance 15M", summary)
	}
}

func TestServer_Summary_InvalidFilter(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard/summary?filter=decade", nil, "7")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET summary with bad filter = %d, want 400", rec.Code)
	}
}

func TestServer_Dashboard_CombinesSections(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET dashboard = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if resp.Summary.TotalBalance != 15_000_000 {
		t.Errorf("dashboard summary balance = %v, want 15M", resp.Summary.TotalBalance)
	}
	if len(resp.Breakdown) != 1 || resp.Breakdown[0].CategoryName != "Ăn uống" {
		t.Errorf("dashboard breakdown = %+v, want single food entry", resp.Breakdown)
	}
	if len(resp.Recent) != 2 {
		t.Errorf("dashboard recent rows = %d, want 2", len(resp.Recent))
	}
}

func TestServer_Forecast_NoContentEarlyInMonth(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/reports/forecast", nil, "7")
	if rec.Code != http.StatusNoContent {
		t.Errorf("GET forecast on day 2 = %d, want 204", rec.Code)
	}
}

func TestServer_Forecast_Available(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/reports/forecast", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET forecast = %d, want 200", rec.Code)
	}

	var forecast core.SpendingForecast
	if err := json.Unmarshal(rec.Body.Bytes(), &forecast); err != nil {
		t.Fatalf("decode forecast: %v", err)
	}
	if forecast.CurrentMonthSpent != 5_000_000 {
		t.Errorf("forecast spent = %v, want 5M", forecast.CurrentMonthSpent)
	}
}

func TestServer_Comparison_BadDates(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/reports/comparison?start=junk&end=2024-06-30", nil, "7")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET comparison with bad dates = %d, want 400", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/reports/comparison?start=2024-06-30&end=2024-06-01", nil, "7")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET comparison with inverted range = %d, want 400", rec.Code)
	}
}

func TestServer_TransactionLifecycle(t *testing.T) {
	backend := seededBackend()
	s := newTestServer(t, backend, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	body, _ := json.Marshal(transactionRequest{
		CategoryID: 1,
		Amount:     150_000,
		Kind:       "expense",
		Date:       "2024-06-12",
		Name:       "dinner",
	})

	rec := doRequest(s, http.MethodPost, "/api/v1/transactions/", body, "7")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST transaction = %d, body %s", rec.Code, rec.Body.String())
	}

	var created core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created transaction should have an ID")
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/transactions/3", nil, "7")
	if rec.Code != http.StatusOK {
		t.Errorf("GET created transaction = %d, want 200", rec.Code)
	}

	rec = doRequest(s, http.MethodDelete, "/api/v1/transactions/3", nil, "7")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE transaction = %d, want 204", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/transactions/3", nil, "7")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted transaction = %d, want 404", rec.Code)
	}
}

func TestServer_CreateTransaction_Invalid(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{`},
		{"bad date", `{"category_id":1,"amount":100,"kind":"expense","date":"12/06/2024","name":"x"}`},
		{"negative amount", `{"category_id":1,"amount":-5,"kind":"expense","date":"2024-06-12","name":"x"}`},
		{"kind mismatch", `{"category_id":2,"amount":100,"kind":"expense","date":"2024-06-12","name":"x"}`},
		{"unknown category", `{"category_id":99,"amount":100,"kind":"expense","date":"2024-06-12","name":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/v1/transactions/", []byte(tt.body), "7")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("POST %s = %d, want 400", tt.name, rec.Code)
			}
		})
	}
}

func TestServer_CacheInvalidatedByWrite(t *testing.T) {
	backend := seededBackend()
	s := newTestServer(t, backend, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard/summary", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("first summary = %d", rec.Code)
	}

	// Mutate underlying data without going through the service: a second
	// read must come from the cache and still show the old totals.
	backend.transactions = append(backend.transactions, core.Transaction{
		ID: 90, OwnerID: 7, CategoryID: 1, Amount: 1_000_000,
		Kind: core.Expense, Date: core.NewDate(2024, 6, 14), Name: "sneaky",
	})

	rec = doRequest(s, http.MethodGet, "/api/v1/dashboard/summary", nil, "7")
	var cached core.DashboardSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &cached); err != nil {
		t.Fatalf("decode cached summary: %v", err)
	}
	if cached.TotalExpense != 5_000_000 {
		t.Errorf("cached expense = %v, want stale 5M", cached.TotalExpense)
	}

	// A write through the API busts the owner's cache.
	body, _ := json.Marshal(transactionRequest{
		CategoryID: 1, Amount: 500_000, Kind: "expense", Date: "2024-06-13", Name: "coffee",
	})
	if rec := doRequest(s, http.MethodPost, "/api/v1/transactions/", body, "7"); rec.Code != http.StatusCreated {
		t.Fatalf("POST transaction = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/dashboard/summary", nil, "7")
	var fresh core.DashboardSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &fresh); err != nil {
		t.Fatalf("decode fresh summary: %v", err)
	}
	if fresh.TotalExpense != 6_500_000 {
		t.Errorf("post-write expense = %v, want 6.5M", fresh.TotalExpense)
	}
}

func TestServer_ListCategories(t *testing.T) {
	s := newTestServer(t, seededBackend(), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	rec := doRequest(s, http.MethodGet, "/api/v1/categories", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET categories = %d", rec.Code)
	}

	var categories []core.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("got %d categories, want 2", len(categories))
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/categories?kind=expense", nil, "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET categories?kind=expense = %d", rec.Code)
	}
	categories = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode filtered categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Kind != core.Expense {
		t.Errorf("filtered categories = %+v, want only the expense one", categories)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/categories?kind=transfer", nil, "7")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET categories?kind=transfer = %d, want 400", rec.Code)
	}
}
