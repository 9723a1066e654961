package sheets

import (
	"context"

	"bilancio/internal/core"
)

// ReportWriter is the outbound port for exporting monthly reports to an
// external spreadsheet.
type ReportWriter interface {
	// WriteMonthlyReport replaces the report rows for one owner with the
	// given trend series.
	WriteMonthlyReport(ctx context.Context, ownerID int64, trends []core.MonthlyTrend) error
}
