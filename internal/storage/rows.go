package storage

import (
	"database/sql"
	"fmt"

	"bilancio/internal/core"
)

// transactionRow is the typed scan target for transaction reads. Raw
// database rows are mapped here, at the store boundary, and never travel
// further as loose values.
type transactionRow struct {
	ID         int64
	OwnerID    int64
	CategoryID int64
	Amount     int64
	Kind       string
	Date       string
	Name       string
	Note       string
}

func (r transactionRow) toDomain() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("malformed date %q in row %d: %w", r.Date, r.ID, err)
	}
	return core.Transaction{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		CategoryID: r.CategoryID,
		Amount:     core.Money(r.Amount),
		Kind:       core.Kind(r.Kind),
		Date:       date,
		Name:       r.Name,
		Note:       r.Note,
	}, nil
}

type categoryRow struct {
	ID           int64
	OwnerID      sql.NullInt64
	Name         string
	Icon         string
	Color        string
	Kind         string
	IsSystem     bool
	DisplayOrder int
}

func (r categoryRow) toDomain() core.Category {
	c := core.Category{
		ID:           r.ID,
		Name:         r.Name,
		Icon:         r.Icon,
		Color:        r.Color,
		Kind:         core.Kind(r.Kind),
		IsSystem:     r.IsSystem,
		DisplayOrder: r.DisplayOrder,
	}
	if r.OwnerID.Valid {
		owner := r.OwnerID.Int64
		c.OwnerID = &owner
	}
	return c
}

// TransactionDetail is a ledger row joined with its category metadata,
// used by the list and recent-transactions feeds.
type TransactionDetail struct {
	core.Transaction
	CategoryName  string `json:"categoryName"`
	CategoryIcon  string `json:"categoryIcon,omitempty"`
	CategoryColor string `json:"categoryColor,omitempty"`
}

// ListResult is one page of the filtered transaction list.
type ListResult struct {
	Transactions []TransactionDetail `json:"transactions"`
	TotalCount   int                 `json:"totalCount"`
	HasMore      bool                `json:"hasMore"`
}
