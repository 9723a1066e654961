package analytics

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
)

func TestEngine_ComparePeriods(t *testing.T) {
	// Current: June 8-14. Previous: June 1-7.
	store := &fakeStore{
		transactions: []core.Transaction{
			incomeOn(1, 9, 1_000_000, core.NewDate(2024, 6, 2)),
			expenseOn(1, 1, 400_000, core.NewDate(2024, 6, 5)),
			incomeOn(1, 9, 1_500_000, core.NewDate(2024, 6, 9)),
			expenseOn(1, 1, 300_000, core.NewDate(2024, 6, 12)),
		},
	}
	engine := NewEngineWithClock(store, fixedClock(2024, 6, 15))

	got, err := engine.ComparePeriods(context.Background(), 1, trendStart, trendEnd)
	if err != nil {
		t.Fatalf("ComparePeriods returned error: %v", err)
	}

	if got.CurrentIncome != 1_500_000 || got.PreviousIncome != 1_000_000 {
		t.Errorf("income = %d/%d, want 1500000/1000000", got.CurrentIncome, got.PreviousIncome)
	}
	if got.CurrentExpense != 300_000 || got.PreviousExpense != 400_000 {
		t.Errorf("expense = %d/%d, want 300000/400000", got.CurrentExpense, got.PreviousExpense)
	}
	if got.CurrentBalance != 1_200_000 || got.PreviousBalance != 600_000 {
		t.Errorf("balance = %d/%d, want 1200000/600000", got.CurrentBalance, got.PreviousBalance)
	}
	if got.IncomeChange != 50.0 {
		t.Errorf("IncomeChange = %f, want 50", got.IncomeChange)
	}
	if got.ExpenseChange != -25.0 {
		t.Errorf("ExpenseChange = %f, want -25", got.ExpenseChange)
	}
	if got.BalanceChange != 100.0 {
		t.Errorf("BalanceChange = %f, want 100", got.BalanceChange)
	}
}

func TestEngine_ComparePeriods_ZeroPreviousGuard(t *testing.T) {
	// Income appearing from nothing yields a guarded zero change, not an
	// error and not infinity.
	store := &fakeStore{
		transactions: []core.Transaction{
			incomeOn(1, 9, 1_000_000, core.NewDate(2024, 6, 10)),
		},
	}
	engine := NewEngineWithClock(store, fixedClock(2024, 6, 15))

	got, err := engine.ComparePeriods(context.Background(), 1, trendStart, trendEnd)
	if err != nil {
		t.Fatalf("ComparePeriods returned error: %v", err)
	}

	if got.CurrentIncome != 1_000_000 || got.PreviousIncome != 0 {
		t.Errorf("income = %d/%d, want 1000000/0", got.CurrentIncome, got.PreviousIncome)
	}
	if got.IncomeChange != 0 {
		t.Errorf("IncomeChange = %f, want 0 (guarded)", got.IncomeChange)
	}
	if got.ExpenseChange != 0 || got.BalanceChange != 0 {
		t.Errorf("changes = %f/%f, want 0/0", got.ExpenseChange, got.BalanceChange)
	}
}

func TestEngine_ComparePeriods_EmptyBothWindows(t *testing.T) {
	engine := NewEngineWithClock(&fakeStore{}, fixedClock(2024, 6, 15))

	got, err := engine.ComparePeriods(context.Background(), 1, trendStart, trendEnd)
	if err != nil {
		t.Fatalf("ComparePeriods returned error: %v", err)
	}
	if got != (core.PeriodComparison{}) {
		t.Errorf("empty comparison = %+v, want zero value", got)
	}
}

func TestEngine_ComparePeriods_InvertedRange(t *testing.T) {
	engine := NewEngineWithClock(&fakeStore{}, fixedClock(2024, 6, 15))

	_, err := engine.ComparePeriods(context.Background(), 1, trendEnd, trendStart)
	if !errors.Is(err, core.ErrInvalidRange) {
		t.Errorf("ComparePeriods(inverted) = %v, want ErrInvalidRange", err)
	}
}
