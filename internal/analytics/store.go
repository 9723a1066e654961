package analytics

import (
	"context"

	"bilancio/internal/core"
)

// Filter narrows a ledger read. Nil fields impose no constraint; the date
// range is inclusive on both ends.
type Filter struct {
	Range      *Window
	Kind       *core.Kind
	CategoryID *int64
}

// Store is the ledger read contract the engine computes over. Every
// aggregate independently fetches raw rows and computes in-process; store
// failures are fatal to that computation and propagate unmodified.
type Store interface {
	QueryTransactions(ctx context.Context, ownerID int64, filter Filter) ([]core.Transaction, error)
	QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
}
