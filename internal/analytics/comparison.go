package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
)

// ComparePeriods compares whole-ledger totals for [start, end] against the
// comparable previous window. Change fields are signed percent deltas,
// guarded to zero when the previous value was zero. No classification
// labels are produced here; callers apply their own interpretation (a
// falling expense usually reads as good news despite the raw sign).
func (e *Engine) ComparePeriods(ctx context.Context, ownerID int64, start, end core.Date) (core.PeriodComparison, error) {
	window := Window{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return core.PeriodComparison{}, err
	}
	previous := PreviousWindow(window)

	var cur, prev core.DashboardSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = e.summarizeWindow(gctx, ownerID, window)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = e.summarizeWindow(gctx, ownerID, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.PeriodComparison{}, err
	}

	return core.PeriodComparison{
		CurrentIncome:   cur.TotalIncome,
		CurrentExpense:  cur.TotalExpense,
		CurrentBalance:  cur.TotalBalance,
		PreviousIncome:  prev.TotalIncome,
		PreviousExpense: prev.TotalExpense,
		PreviousBalance: prev.TotalBalance,
		IncomeChange:    percentChange(cur.TotalIncome, prev.TotalIncome),
		ExpenseChange:   percentChange(cur.TotalExpense, prev.TotalExpense),
		BalanceChange:   percentChange(cur.TotalBalance, prev.TotalBalance),
	}, nil
}
