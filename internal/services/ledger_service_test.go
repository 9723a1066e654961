package services

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

type fakeStore struct {
	categories []core.Category
	created    []core.Transaction
	updated    []core.Transaction
	deleted    []int64
	nextID     int64
	failWrite  error
}

func (f *fakeStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if f.failWrite != nil {
		return core.Transaction{}, f.failWrite
	}
	f.nextID++
	tx.ID = f.nextID
	f.created = append(f.created, tx)
	return tx, nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return core.Transaction{}, errors.New("not implemented")
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.updated = append(f.updated, tx)
	return nil
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) QueryCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	return f.categories, nil
}

type fakePublisher struct {
	events []string
	fail   error
}

func (f *fakePublisher) PublishLedgerEvent(ctx context.Context, transactionID, ownerID int64, action string) error {
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, action)
	return nil
}

type fakeInvalidator struct {
	prefixes []string
}

func (f *fakeInvalidator) DeletePrefix(prefix string) int {
	f.prefixes = append(f.prefixes, prefix)
	return 1
}

func testStore() *fakeStore {
	return &fakeStore{
		categories: []core.Category{
			{ID: 1, Name: "Ăn uống", Kind: core.Expense},
			{ID: 2, Name: "Lương", Kind: core.Income},
		},
	}
}

func validTx() core.Transaction {
	return core.Transaction{
		OwnerID:    7,
		CategoryID: 1,
		Amount:     50_000,
		Kind:       core.Expense,
		Date:       core.NewDate(2024, 6, 10),
		Name:       "lunch",
	}
}

func TestLedgerService_CreateTransaction(t *testing.T) {
	store := testStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewLedgerService(store, publisher, invalidator)

	created, err := svc.CreateTransaction(context.Background(), validTx())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == 0 {
		t.Error("created transaction should carry the assigned ID")
	}
	if len(publisher.events) != 1 || publisher.events[0] != amqp.ActionCreated {
		t.Errorf("published events = %v, want [created]", publisher.events)
	}
	if len(invalidator.prefixes) != 1 || invalidator.prefixes[0] != "owner:7:" {
		t.Errorf("invalidated prefixes = %v, want [owner:7:]", invalidator.prefixes)
	}
}

func TestLedgerService_CreateTransaction_Invalid(t *testing.T) {
	svc := NewLedgerService(testStore(), &fakePublisher{}, &fakeInvalidator{})

	tests := []struct {
		name    string
		mutate  func(*core.Transaction)
		wantErr error
	}{
		{"negative amount", func(tx *core.Transaction) { tx.Amount = -1 }, core.ErrInvalidAmount},
		{"unknown category", func(tx *core.Transaction) { tx.CategoryID = 999 }, core.ErrInvalidCategory},
		{"kind mismatch", func(tx *core.Transaction) { tx.CategoryID = 2 }, core.ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)

			if _, err := svc.CreateTransaction(context.Background(), tx); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTransaction = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := testStore()
	publisher := &fakePublisher{fail: errors.New("broker down")}
	svc := NewLedgerService(store, publisher, &fakeInvalidator{})

	if _, err := svc.CreateTransaction(context.Background(), validTx()); err != nil {
		t.Fatalf("CreateTransaction should succeed despite publish failure, got %v", err)
	}
	if len(store.created) != 1 {
		t.Error("transaction should still be saved")
	}
}

func TestLedgerService_NilPublisherAndCache(t *testing.T) {
	svc := NewLedgerService(testStore(), nil, nil)

	if _, err := svc.CreateTransaction(context.Background(), validTx()); err != nil {
		t.Fatalf("CreateTransaction with nil publisher/cache: %v", err)
	}
}

func TestLedgerService_UpdateTransaction(t *testing.T) {
	store := testStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewLedgerService(store, publisher, invalidator)

	tx := validTx()
	tx.ID = 5
	if err := svc.UpdateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if len(store.updated) != 1 {
		t.Error("store should record the update")
	}
	if len(publisher.events) != 1 || publisher.events[0] != amqp.ActionUpdated {
		t.Errorf("published events = %v, want [updated]", publisher.events)
	}
}

func TestLedgerService_DeleteTransaction(t *testing.T) {
	store := testStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewLedgerService(store, publisher, invalidator)

	if err := svc.DeleteTransaction(context.Background(), 7, 42); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 42 {
		t.Errorf("deleted IDs = %v, want [42]", store.deleted)
	}
	if len(publisher.events) != 1 || publisher.events[0] != amqp.ActionDeleted {
		t.Errorf("published events = %v, want [deleted]", publisher.events)
	}
	if len(invalidator.prefixes) != 1 || invalidator.prefixes[0] != "owner:7:" {
		t.Errorf("invalidated prefixes = %v", invalidator.prefixes)
	}
}

func TestLedgerService_WriteFailureSkipsSideEffects(t *testing.T) {
	store := testStore()
	store.failWrite = errors.New("disk full")
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewLedgerService(store, publisher, invalidator)

	if _, err := svc.CreateTransaction(context.Background(), validTx()); err == nil {
		t.Fatal("CreateTransaction should propagate the write failure")
	}
	if len(publisher.events) != 0 {
		t.Error("no event should be published for a failed write")
	}
	if len(invalidator.prefixes) != 0 {
		t.Error("cache should not be invalidated for a failed write")
	}
}
