package analytics

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Forecast thresholds. Confidence reflects sample size only; no variance
// of daily spend, no seasonality, no day-of-week weighting.
const (
	forecastMinDays      = 3
	confidenceMediumDays = 10
	confidenceHighDays   = 20
)

// Forecast linearly extrapolates the current month's spending to
// month-end. It returns (nil, nil) when fewer than three days of the month
// have passed: an absent forecast is a valid outcome, not an error.
func (e *Engine) Forecast(ctx context.Context, ownerID int64) (*core.SpendingForecast, error) {
	now := e.now()
	daysPassed := now.Day()
	if daysPassed < forecastMinDays {
		return nil, nil
	}

	// Day zero of the next month is the last day of this one.
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()

	window := Window{
		Start: core.NewDate(now.Year(), int(now.Month()), 1),
		End:   core.DateOf(now),
	}
	summary, err := e.summarizeWindow(ctx, ownerID, window)
	if err != nil {
		return nil, err
	}

	dailyAverage := summary.TotalExpense.Float64() / float64(daysPassed)
	projected := dailyAverage * float64(daysInMonth)
	projectedBalance := summary.TotalIncome.Float64() - projected

	confidence := core.ConfidenceLow
	switch {
	case daysPassed >= confidenceHighDays:
		confidence = core.ConfidenceHigh
	case daysPassed >= confidenceMediumDays:
		confidence = core.ConfidenceMedium
	}

	return &core.SpendingForecast{
		CurrentMonthSpent:   summary.TotalExpense,
		DaysInMonth:         daysInMonth,
		DaysPassed:          daysPassed,
		DailyAverage:        dailyAverage,
		ProjectedEndOfMonth: projected,
		ProjectedBalance:    projectedBalance,
		Confidence:          confidence,
		Warning:             projectedBalance < 0,
	}, nil
}
