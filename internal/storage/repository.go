package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bilancio/internal/analytics"
	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an owner-scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

// SQLiteRepository is the ledger store. All filter construction is
// parameterized; user input never reaches a query as concatenated text.
type SQLiteRepository struct {
	db *sql.DB
}

var _ analytics.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// QueryTransactions implements analytics.Store. Absent filter fields
// impose no constraint; the date range is inclusive on both ends.
func (r *SQLiteRepository) QueryTransactions(ctx context.Context, ownerID int64, filter analytics.Filter) ([]core.Transaction, error) {
	query := `SELECT id, owner_id, category_id, amount, kind, date, name, note
		FROM transactions WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.Range != nil {
		query += ` AND date >= ? AND date <= ?`
		args = append(args, filter.Range.Start.String(), filter.Range.End.String())
	}
	if filter.Kind != nil {
		query += ` AND kind = ?`
		args = append(args, string(*filter.Kind))
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var row transactionRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.CategoryID, &row.Amount,
			&row.Kind, &row.Date, &row.Name, &row.Note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// QueryCategories implements analytics.Store: the owner's categories plus
// the system-wide defaults.
func (r *SQLiteRepository) QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, icon, color, kind, is_system, display_order
		FROM categories WHERE owner_id = ? OR owner_id IS NULL
		ORDER BY kind, display_order, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var row categoryRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.Name, &row.Icon,
			&row.Color, &row.Kind, &row.IsSystem, &row.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CreateTransaction inserts a validated transaction and returns it with
// its assigned ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, category_id, amount, kind, date, name, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.OwnerID, tx.CategoryID, int64(tx.Amount), string(tx.Kind), tx.Date.String(), tx.Name, tx.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"kind", tx.Kind,
		"amount", tx.Amount,
		"date", tx.Date.String())

	return tx, nil
}

// GetTransaction fetches one owner-scoped transaction.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	var row transactionRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, amount, kind, date, name, note
		FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID).
		Scan(&row.ID, &row.OwnerID, &row.CategoryID, &row.Amount,
			&row.Kind, &row.Date, &row.Name, &row.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return row.toDomain()
}

// UpdateTransaction rewrites an owner-scoped transaction in place.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		SET category_id = ?, amount = ?, kind = ?, date = ?, name = ?, note = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		tx.CategoryID, int64(tx.Amount), string(tx.Kind), tx.Date.String(), tx.Name, tx.Note,
		tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes an owner-scoped transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

// ListFilter narrows the paginated transaction list. Nil fields impose no
// constraint; Search matches name or note, case-insensitive.
type ListFilter struct {
	StartDate  *core.Date
	EndDate    *core.Date
	Kind       *core.Kind
	CategoryID *int64
	Search     string
}

// ListTransactions returns one newest-first page of the owner's ledger
// with category metadata joined in.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, page, limit int, filter ListFilter) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := []string{"t.owner_id = ?"}
	args := []any{ownerID}

	if filter.StartDate != nil {
		where = append(where, "t.date >= ?")
		args = append(args, filter.StartDate.String())
	}
	if filter.EndDate != nil {
		where = append(where, "t.date <= ?")
		args = append(args, filter.EndDate.String())
	}
	if filter.Kind != nil {
		where = append(where, "t.kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.CategoryID != nil {
		where = append(where, "t.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(LOWER(t.name) LIKE ? OR LOWER(t.note) LIKE ?)")
		pattern := "%" + strings.ToLower(s) + "%"
		args = append(args, pattern, pattern)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT t.id, t.owner_id, t.category_id, t.amount, t.kind, t.date, t.name, t.note,
			c.name, c.icon, c.color
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE ` + whereClause + `
		ORDER BY t.date DESC, t.id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	details, err := scanDetails(rows)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Transactions: details,
		TotalCount:   total,
		HasMore:      total > offset+limit,
	}, nil
}

// RecentTransactions returns the owner's newest rows for the dashboard feed.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, ownerID int64, limit int) ([]TransactionDetail, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.owner_id, t.category_id, t.amount, t.kind, t.date, t.name, t.note,
			c.name, c.icon, c.color
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.owner_id = ?
		ORDER BY t.date DESC, t.id DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	return scanDetails(rows)
}

// ActiveOwners returns every owner with at least one transaction.
func (r *SQLiteRepository) ActiveOwners(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM transactions ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("active owners: %w", err)
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, ownerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

func scanDetails(rows *sql.Rows) ([]TransactionDetail, error) {
	details := make([]TransactionDetail, 0)
	for rows.Next() {
		var (
			row               transactionRow
			name, icon, color string
		)
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.CategoryID, &row.Amount,
			&row.Kind, &row.Date, &row.Name, &row.Note, &name, &icon, &color); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		details = append(details, TransactionDetail{
			Transaction:   tx,
			CategoryName:  name,
			CategoryIcon:  icon,
			CategoryColor: color,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction details: %w", err)
	}
	return details, nil
}
