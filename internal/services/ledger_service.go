package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// LedgerStore is the storage surface the ledger service writes through.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id int64) error
	QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
}

// EventPublisher emits change notifications after a successful write.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, transactionID, ownerID int64, action string) error
}

// CacheInvalidator drops cached analytics for an owner after a write.
type CacheInvalidator interface {
	DeletePrefix(prefix string) int
}

// LedgerService orchestrates transaction writes: validation, the SQLite
// write, cache invalidation, and the async change event. The database is
// the source of truth; event publishing is best-effort and never fails
// the request.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
	cache     CacheInvalidator
}

func NewLedgerService(store LedgerStore, publisher EventPublisher, cache CacheInvalidator) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		cache:     cache,
	}
}

// CreateTransaction validates and saves a transaction, then publishes a
// created event.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidate(created.OwnerID)
	s.publish(ctx, created.ID, created.OwnerID, amqp.ActionCreated)

	return created, nil
}

// UpdateTransaction validates and replaces an existing transaction owned
// by tx.OwnerID.
func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, tx); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.invalidate(tx.OwnerID)
	s.publish(ctx, tx.ID, tx.OwnerID, amqp.ActionUpdated)

	return nil
}

// DeleteTransaction removes a transaction owned by ownerID.
func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidate(ownerID)
	s.publish(ctx, id, ownerID, amqp.ActionDeleted)

	return nil
}

// checkCategory rejects writes that reference a category the owner cannot
// see or whose kind disagrees with the transaction.
func (s *LedgerService) checkCategory(ctx context.Context, tx core.Transaction) error {
	categories, err := s.store.QueryCategories(ctx, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	for _, c := range categories {
		if c.ID != tx.CategoryID {
			continue
		}
		if c.Kind != tx.Kind {
			return fmt.Errorf("category %q is for %s entries: %w", c.Name, c.Kind, core.ErrInvalidCategory)
		}
		return nil
	}
	return fmt.Errorf("category %d not found for owner %d: %w", tx.CategoryID, tx.OwnerID, core.ErrInvalidCategory)
}

func (s *LedgerService) invalidate(ownerID int64) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(OwnerCachePrefix(ownerID))
}

func (s *LedgerService) publish(ctx context.Context, transactionID, ownerID int64, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, transactionID, ownerID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", transactionID,
			"owner_id", ownerID,
			"action", action,
			"error", err)
	}
}

// OwnerCachePrefix is the cache key prefix shared by every cached
// analytics response for an owner.
func OwnerCachePrefix(ownerID int64) string {
	return fmt.Sprintf("owner:%d:", ownerID)
}
