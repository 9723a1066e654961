// Package worker exports monthly reports to the configured spreadsheet,
// both on ledger change events and on a periodic schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/analytics"
	"bilancio/internal/sheets"
)

// debounceWindow suppresses repeat event-driven exports for an owner.
// Bursts of writes land in the first export or the next periodic pass.
const debounceWindow = 30 * time.Second

// OwnerLister enumerates owners that have ledger activity.
type OwnerLister interface {
	ActiveOwners(ctx context.Context) ([]int64, error)
}

// ReportWorker recomputes an owner's monthly trend series and pushes it
// through the report writer. Events give low-latency updates; the
// periodic pass catches anything missed while the broker was down.
type ReportWorker struct {
	engine     *analytics.Engine
	writer     sheets.ReportWriter
	owners     OwnerLister
	monthsBack int
	now        func() time.Time

	mu         sync.Mutex
	lastExport map[int64]time.Time
}

func NewReportWorker(engine *analytics.Engine, writer sheets.ReportWriter, owners OwnerLister, monthsBack int) *ReportWorker {
	if monthsBack < 1 {
		monthsBack = 6
	}
	return &ReportWorker{
		engine:     engine,
		writer:     writer,
		owners:     owners,
		monthsBack: monthsBack,
		now:        time.Now,
		lastExport: make(map[int64]time.Time),
	}
}

// HandleLedgerEvent re-exports the report of the owner named in the event.
// Events for an owner exported within the debounce window are acknowledged
// without re-exporting; the periodic pass converges whatever they carried.
func (w *ReportWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"transaction_id", event.TransactionID,
		"owner_id", event.OwnerID,
		"action", event.Action)

	if !w.claimExport(event.OwnerID) {
		slog.DebugContext(ctx, "Skipping export within debounce window",
			"owner_id", event.OwnerID)
		return nil
	}

	if err := w.exportOwner(ctx, event.OwnerID); err != nil {
		w.releaseExport(event.OwnerID)
		return fmt.Errorf("export report for owner %d: %w", event.OwnerID, err)
	}
	return nil
}

// claimExport records an export attempt for the owner unless one already
// happened within the debounce window.
func (w *ReportWorker) claimExport(ownerID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if last, ok := w.lastExport[ownerID]; ok && now.Sub(last) < debounceWindow {
		return false
	}
	w.lastExport[ownerID] = now
	return true
}

func (w *ReportWorker) releaseExport(ownerID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.lastExport, ownerID)
}

// RunPeriodic exports reports for every active owner on each tick until
// ctx is cancelled.
func (w *ReportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic report export", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic report export failed", "error", err)
			}
		}
	}
}

// ExportAll runs one export pass over every active owner. Per-owner
// failures are logged and skipped so one owner cannot block the rest.
func (w *ReportWorker) ExportAll(ctx context.Context) error {
	owners, err := w.owners.ActiveOwners(ctx)
	if err != nil {
		return fmt.Errorf("list active owners: %w", err)
	}

	exported := 0
	for _, ownerID := range owners {
		if err := w.exportOwner(ctx, ownerID); err != nil {
			slog.ErrorContext(ctx, "Failed to export owner report",
				"owner_id", ownerID,
				"error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Report export pass completed",
		"owners", len(owners),
		"exported", exported)
	return nil
}

func (w *ReportWorker) exportOwner(ctx context.Context, ownerID int64) error {
	trends, err := w.engine.MonthlyTrends(ctx, ownerID, w.monthsBack)
	if err != nil {
		return fmt.Errorf("compute monthly trends: %w", err)
	}

	if err := w.writer.WriteMonthlyReport(ctx, ownerID, trends); err != nil {
		return fmt.Errorf("write monthly report: %w", err)
	}
	return nil
}
