package analytics

import (
	"time"

	"bilancio/internal/core"
)

// Window is an inclusive [Start, End] calendar-date range.
type Window struct {
	Start core.Date
	End   core.Date
}

// Days returns the number of calendar days the window covers.
// An inclusive range always covers at least one day.
func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

// Validate rejects inverted ranges at the boundary instead of letting them
// silently produce empty aggregates.
func (w Window) Validate() error {
	if err := w.Start.Validate(); err != nil {
		return err
	}
	if err := w.End.Validate(); err != nil {
		return err
	}
	if w.End.Before(w.Start) {
		return core.ErrInvalidRange
	}
	return nil
}

// ResolveRange maps a coarse time filter to a concrete window anchored at
// now. The window always ends today; the start depends on the filter:
// beginning of today, the most recent Monday, the first of the month, or
// January 1. Total over the four filter values.
func ResolveRange(filter core.TimeFilter, now time.Time) Window {
	today := core.DateOf(now)

	switch filter {
	case core.FilterWeek:
		// ISO week, Monday first. On a Sunday the start is six days back.
		diff := int(now.Weekday()) - int(time.Monday)
		if diff < 0 {
			diff += 7
		}
		return Window{Start: today.AddDays(-diff), End: today}
	case core.FilterMonth:
		return Window{Start: core.NewDate(now.Year(), int(now.Month()), 1), End: today}
	case core.FilterYear:
		return Window{Start: core.NewDate(now.Year(), 1, 1), End: today}
	default: // day
		return Window{Start: today, End: today}
	}
}

// PreviousWindow derives the comparable previous window: identical
// day-count, ending exactly one day before the current window starts.
// No gap, no overlap. Trend analysis and period comparison share this
// single rule.
func PreviousWindow(w Window) Window {
	lengthDays := w.Start.DaysUntil(w.End)
	prevEnd := w.Start.AddDays(-1)
	return Window{Start: prevEnd.AddDays(-lengthDays), End: prevEnd}
}
