package analytics

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
)

// trendThreshold is the percent-change band treated as stable. Only a
// change strictly beyond ±5% classifies as up or down.
const trendThreshold = 5.0

// CategoryTrends compares per-category expense totals for [start, end]
// against the comparable previous window and classifies each category's
// direction of change.
//
// A category with no prior spend is classified stable with a zero trend
// percentage: the guard avoids division by zero and misleadingly infinite
// growth rates. Categories present only in the previous period are absent
// from the result; the analysis answers how current spending is trending,
// not what disappeared.
func (e *Engine) CategoryTrends(ctx context.Context, ownerID int64, start, end core.Date) ([]core.CategoryAnalysis, error) {
	window := Window{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	previous := PreviousWindow(window)

	var (
		current    []categoryTotal
		prevTotals []categoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = e.expenseTotalsByCategory(gctx, ownerID, window)
		return err
	})
	g.Go(func() error {
		var err error
		prevTotals, err = e.expenseTotalsByCategory(gctx, ownerID, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(current) == 0 {
		return []core.CategoryAnalysis{}, nil
	}

	categories, err := e.categoriesByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	previousByCategory := make(map[int64]core.Money, len(prevTotals))
	for _, ct := range prevTotals {
		previousByCategory[ct.categoryID] = ct.total
	}

	var windowTotal core.Money
	for _, ct := range current {
		windowTotal += ct.total
	}

	rows := make([]core.CategoryAnalysis, 0, len(current))
	for _, ct := range current {
		change := percentChange(ct.total, previousByCategory[ct.categoryID])
		cat := categories[ct.categoryID]
		rows = append(rows, core.CategoryAnalysis{
			CategoryID:       ct.categoryID,
			CategoryName:     cat.Name,
			CategoryIcon:     cat.Icon,
			CategoryColor:    cat.Color,
			Total:            ct.total,
			Percentage:       percentOf(ct.total, windowTotal),
			TransactionCount: ct.count,
			Trend:            classifyTrend(change),
			TrendPercentage:  math.Abs(change),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	return rows, nil
}

func classifyTrend(changePercent float64) core.TrendDirection {
	switch {
	case changePercent > trendThreshold:
		return core.TrendUp
	case changePercent < -trendThreshold:
		return core.TrendDown
	default:
		return core.TrendStable
	}
}
