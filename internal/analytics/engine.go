// Package analytics turns a raw transaction ledger into dashboard
// summaries, category breakdowns, month-over-month trends, a spending
// forecast, and period-over-period comparisons.
//
// Every operation is a pure, read-only computation over rows fetched from
// the ledger store. Empty ledgers produce zero sums and empty lists, never
// errors, and every ratio guards its denominator.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bilancio/internal/core"
)

// Engine computes all dashboard and report aggregates. It holds no state
// across calls and is safe for concurrent use.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates an engine on wall-clock time.
func NewEngine(store Store) *Engine {
	return NewEngineWithClock(store, time.Now)
}

// NewEngineWithClock creates an engine with an injected clock, so that
// date-boundary behavior (midnight, month-end, week-start) is
// deterministic under test.
func NewEngineWithClock(store Store, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

// Summary sums transaction amounts within the filter's window, split by
// kind. Both sums are zero for an empty ledger.
func (e *Engine) Summary(ctx context.Context, ownerID int64, filter core.TimeFilter) (core.DashboardSummary, error) {
	if err := filter.Validate(); err != nil {
		return core.DashboardSummary{}, err
	}

	window := ResolveRange(filter, e.now())
	return e.summarizeWindow(ctx, ownerID, window)
}

func (e *Engine) summarizeWindow(ctx context.Context, ownerID int64, window Window) (core.DashboardSummary, error) {
	txs, err := e.store.QueryTransactions(ctx, ownerID, Filter{Range: &window})
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("query transactions: %w", err)
	}

	var income, expense core.Money
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			income += tx.Amount
		case core.Expense:
			expense += tx.Amount
		}
	}

	return core.DashboardSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		TotalBalance: income - expense,
	}, nil
}

// Breakdown groups expense transactions by category over the filter's
// window. Categories with no matching transactions are omitted, not
// zero-filled; the list is empty for an empty window. Rows are sorted
// descending by total.
func (e *Engine) Breakdown(ctx context.Context, ownerID int64, filter core.TimeFilter) ([]core.CategoryBreakdown, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	window := ResolveRange(filter, e.now())
	totals, err := e.expenseTotalsByCategory(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return []core.CategoryBreakdown{}, nil
	}

	categories, err := e.categoriesByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var windowTotal core.Money
	for _, ct := range totals {
		windowTotal += ct.total
	}

	rows := make([]core.CategoryBreakdown, 0, len(totals))
	for _, ct := range totals {
		cat := categories[ct.categoryID]
		rows = append(rows, core.CategoryBreakdown{
			CategoryID:    ct.categoryID,
			CategoryName:  cat.Name,
			CategoryIcon:  cat.Icon,
			CategoryColor: cat.Color,
			Total:         ct.total,
			Percentage:    percentOf(ct.total, windowTotal),
			Count:         ct.count,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows, nil
}

// MonthlyTrends buckets all transactions from monthsBack months ago to now
// by calendar month, ordered chronologically. Months with no transactions
// are omitted (sparse buckets; chart callers zero-fill if they need to).
func (e *Engine) MonthlyTrends(ctx context.Context, ownerID int64, monthsBack int) ([]core.MonthlyTrend, error) {
	if monthsBack <= 0 {
		return nil, core.ErrInvalidMonths
	}

	now := e.now()
	window := Window{
		Start: core.DateOf(now.AddDate(0, -monthsBack, 0)),
		End:   core.DateOf(now),
	}

	txs, err := e.store.QueryTransactions(ctx, ownerID, Filter{Range: &window})
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	type bucketKey struct {
		year  int
		month time.Month
	}
	buckets := make(map[bucketKey]*core.MonthlyTrend)
	for _, tx := range txs {
		key := bucketKey{year: tx.Date.Year(), month: tx.Date.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &core.MonthlyTrend{
				Month: key.month.String()[:3],
				Year:  key.year,
			}
			buckets[key] = b
		}
		switch tx.Kind {
		case core.Income:
			b.TotalIncome += tx.Amount
		case core.Expense:
			b.TotalExpense += tx.Amount
		}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	trends := make([]core.MonthlyTrend, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		b.NetBalance = b.TotalIncome - b.TotalExpense
		trends = append(trends, *b)
	}
	return trends, nil
}

// categoryTotal is a per-category expense aggregate for one window.
type categoryTotal struct {
	categoryID int64
	total      core.Money
	count      int
}

// expenseTotalsByCategory fetches a window's expense rows and folds them
// into per-category totals, ordered by first appearance.
func (e *Engine) expenseTotalsByCategory(ctx context.Context, ownerID int64, window Window) ([]categoryTotal, error) {
	kind := core.Expense
	txs, err := e.store.QueryTransactions(ctx, ownerID, Filter{Range: &window, Kind: &kind})
	if err != nil {
		return nil, fmt.Errorf("query expense transactions: %w", err)
	}

	index := make(map[int64]int)
	totals := make([]categoryTotal, 0)
	for _, tx := range txs {
		i, ok := index[tx.CategoryID]
		if !ok {
			i = len(totals)
			index[tx.CategoryID] = i
			totals = append(totals, categoryTotal{categoryID: tx.CategoryID})
		}
		totals[i].total += tx.Amount
		totals[i].count++
	}
	return totals, nil
}

func (e *Engine) categoriesByID(ctx context.Context, ownerID int64) (map[int64]core.Category, error) {
	categories, err := e.store.QueryCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	byID := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID, nil
}

// percentOf returns part/whole*100, or 0 when the whole is zero. Division
// guards are a correctness requirement here, not an error path.
func percentOf(part, whole core.Money) float64 {
	if whole == 0 {
		return 0
	}
	return part.Float64() / whole.Float64() * 100
}

// percentChange returns the signed percent delta from previous to current,
// or 0 when there is no previous value to compare against.
func percentChange(current, previous core.Money) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous).Float64() / previous.Float64() * 100
}
