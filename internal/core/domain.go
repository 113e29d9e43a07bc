package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type (
	Category struct {
		ID          ID
		Name        string
		Description string
		Color       string // #RRGGBB
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Transaction amounts are signed: negative is an expense, positive is income.
	Transaction struct {
		ID          ID
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		CategoryID  ID // zero when uncategorized
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Budget is a monthly cap for one category. It has no date range and
	// always applies to the current month.
	Budget struct {
		ID         ID
		CategoryID ID
		Amount     decimal.Decimal
		Notes      string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrZeroAmount       = errors.New("amount cannot be zero")
	ErrNonPositive      = errors.New("budget amount must be positive")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidName      = errors.New("name must be at least 2 characters")
	ErrInvalidColor     = errors.New("color must be a hex color code like #1A2B3C")
	ErrMissingCategory  = errors.New("category is required")
	ErrUnknownCategory  = errors.New("category does not exist")
	ErrMissingDate      = errors.New("date cannot be zero")
	ErrDuplicateBudget  = errors.New("a budget for this category already exists")
	ErrCategoryInUse    = errors.New("category is referenced by transactions or budgets")
	ErrTooLong          = errors.New("value too long")
)

// IsValidation reports whether err is caused by bad user input rather than
// a storage or transport failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidID, ErrInvalidAmount, ErrZeroAmount, ErrNonPositive,
		ErrEmptyDescription, ErrInvalidName, ErrInvalidColor, ErrMissingCategory,
		ErrUnknownCategory, ErrMissingDate, ErrTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction moves money in.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Categorized reports whether the transaction references a category.
func (t Transaction) Categorized() bool {
	return !t.CategoryID.IsZero()
}

func (c Category) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(c.Name)) < 2 {
		return ErrInvalidName
	}
	if utf8.RuneCountInString(c.Name) > 100 {
		return fmt.Errorf("%w: name (max 100 characters)", ErrTooLong)
	}
	if !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(t.Description) > 200 {
		return fmt.Errorf("%w: description (max 200 characters)", ErrTooLong)
	}
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID.IsZero() {
		return ErrMissingCategory
	}
	if !b.Amount.IsPositive() {
		return ErrNonPositive
	}
	return nil
}

// Sign selects transactions by the sign of their amount.
type Sign int

const (
	AnySign Sign = iota
	ExpensesOnly
	IncomeOnly
)

// TransactionFilter narrows a transaction listing. Zero values mean
// "unbounded"; From and To are inclusive.
type TransactionFilter struct {
	From  time.Time
	To    time.Time
	Sign  Sign
	Limit int
}

// Match reports whether t passes the filter, ignoring Limit.
func (f TransactionFilter) Match(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	switch f.Sign {
	case ExpensesOnly:
		return t.IsExpense()
	case IncomeOnly:
		return t.IsIncome()
	}
	return true
}
