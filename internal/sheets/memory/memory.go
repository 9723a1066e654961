// Package memory is an in-process ReportWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

type Writer struct {
	mu      sync.Mutex
	reports map[int64][]core.MonthlyTrend
	writes  int
}

var _ ports.ReportWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{reports: make(map[int64][]core.MonthlyTrend)}
}

func (w *Writer) WriteMonthlyReport(ctx context.Context, ownerID int64, trends []core.MonthlyTrend) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.reports[ownerID] = append([]core.MonthlyTrend(nil), trends...)
	w.writes++
	return nil
}

// Report returns the last exported series for an owner.
func (w *Writer) Report(ownerID int64) []core.MonthlyTrend {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reports[ownerID]
}

// Writes returns how many exports have been performed.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
