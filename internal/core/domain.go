package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind discriminates income from expense rows. The zero value is invalid.
	Kind string

	// Money is an amount in minor currency units. All ledger amounts are
	// non-negative; direction comes from the transaction Kind.
	Money int64

	// Date is a calendar date with no time-of-day. It is stored as UTC
	// midnight so that comparisons and day arithmetic stay exact.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID         int64
		OwnerID    int64
		CategoryID int64
		Amount     Money
		Kind       Kind
		Date       Date
		Name       string
		Note       string
	}

	Category struct {
		ID           int64
		OwnerID      *int64 // nil = system-wide default, shared by all users
		Name         string
		Icon         string
		Color        string
		Kind         Kind
		IsSystem     bool
		DisplayOrder int
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidFilter   = errors.New("invalid time filter")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidOwner    = errors.New("invalid owner id")
	ErrInvalidRange    = errors.New("invalid date range: end before start")
	ErrInvalidMonths   = errors.New("invalid months: must be positive")
	ErrInvalidCategory = errors.New("invalid category id")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

// Float64 returns the amount as a float for percentage and projection math.
// Keep stored amounts in Money; floats are for derived read models only.
func (m Money) Float64() float64 {
	return float64(m)
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as ISO 2006-01-02.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
// Negative when other precedes d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time) / (24 * time.Hour))
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (t Transaction) Validate() error {
	if t.OwnerID <= 0 {
		return ErrInvalidOwner
	}
	if t.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyCategory
	}
	return c.Kind.Validate()
}
