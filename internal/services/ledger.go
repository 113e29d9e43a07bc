package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher announces ledger mutations. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
	Close() error
}

// Ledger validates and persists categories, transactions and budgets, and
// publishes an event after every successful mutation.
type Ledger struct {
	repo      storage.Repository
	publisher Publisher
	now       func() time.Time
}

// NewLedger wires a ledger; publisher may be nil.
func NewLedger(repo storage.Repository, publisher Publisher) *Ledger {
	return &Ledger{repo: repo, publisher: publisher, now: time.Now}
}

type (
	CategoryInput struct {
		Name        string
		Description string
		Color       string
	}

	TransactionInput struct {
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		CategoryID  core.ID
		Notes       string
	}

	BudgetInput struct {
		CategoryID core.ID
		Amount     decimal.Decimal
		Notes      string
	}
)

// publish never fails the caller: the record is already stored.
func (l *Ledger) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if l.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping event", "type", event.Type())
		return
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type(),
			"id", event.ID,
			"error", err)
	}
}

// Categories

func (l *Ledger) Categories(ctx context.Context) ([]core.Category, error) {
	return l.repo.ListCategories(ctx)
}

func (l *Ledger) Category(ctx context.Context, id core.ID) (core.Category, error) {
	return l.repo.GetCategory(ctx, id)
}

func (in CategoryInput) apply(c *core.Category) {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	c.Color = strings.TrimSpace(in.Color)
}

func (l *Ledger) CreateCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	now := l.now()
	c := core.Category{ID: core.NewID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&c)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := l.repo.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	l.publish(ctx, amqp.NewCategoryEvent(amqp.ActionCreated, c))
	return c, nil
}

func (l *Ledger) UpdateCategory(ctx context.Context, id core.ID, in CategoryInput) (core.Category, error) {
	c, err := l.repo.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	in.apply(&c)
	c.UpdatedAt = l.now()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := l.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	l.publish(ctx, amqp.NewCategoryEvent(amqp.ActionUpdated, c))
	return c, nil
}

func (l *Ledger) DeleteCategory(ctx context.Context, id core.ID) error {
	if err := l.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	l.publish(ctx, amqp.NewCategoryEvent(amqp.ActionDeleted, core.Category{ID: id}))
	return nil
}

// requireCategory fails with core.ErrUnknownCategory when id names no
// stored category.
func (l *Ledger) requireCategory(ctx context.Context, id core.ID) error {
	_, err := l.repo.GetCategory(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %s", core.ErrUnknownCategory, id)
	}
	return err
}

// Transactions

func (l *Ledger) Transactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	return l.repo.ListTransactions(ctx, f)
}

func (l *Ledger) Transaction(ctx context.Context, id core.ID) (core.Transaction, error) {
	return l.repo.GetTransaction(ctx, id)
}

func (in TransactionInput) apply(t *core.Transaction) {
	t.Description = strings.TrimSpace(in.Description)
	t.Amount = in.Amount
	t.Date = in.Date
	t.CategoryID = in.CategoryID
	t.Notes = strings.TrimSpace(in.Notes)
}

func (l *Ledger) checkTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Categorized() {
		return l.requireCategory(ctx, t.CategoryID)
	}
	return nil
}

func (l *Ledger) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	now := l.now()
	t := core.Transaction{ID: core.NewID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&t)
	if err := l.checkTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	if err := l.repo.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	l.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, t))
	return t, nil
}

func (l *Ledger) UpdateTransaction(ctx context.Context, id core.ID, in TransactionInput) (core.Transaction, error) {
	t, err := l.repo.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	in.apply(&t)
	t.UpdatedAt = l.now()
	if err := l.checkTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	if err := l.repo.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	l.publish(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, t))
	return t, nil
}

func (l *Ledger) DeleteTransaction(ctx context.Context, id core.ID) error {
	if err := l.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	l.publish(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, core.Transaction{ID: id}))
	return nil
}

// Budgets

func (l *Ledger) Budgets(ctx context.Context) ([]core.Budget, error) {
	return l.repo.ListBudgets(ctx)
}

func (l *Ledger) Budget(ctx context.Context, id core.ID) (core.Budget, error) {
	return l.repo.GetBudget(ctx, id)
}

func (in BudgetInput) apply(b *core.Budget) {
	b.CategoryID = in.CategoryID
	b.Amount = in.Amount
	b.Notes = strings.TrimSpace(in.Notes)
}

func (l *Ledger) checkBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return l.requireCategory(ctx, b.CategoryID)
}

// CreateBudget relies on the store for the one-budget-per-category rule;
// a conflict surfaces as core.ErrDuplicateBudget.
func (l *Ledger) CreateBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	now := l.now()
	b := core.Budget{ID: core.NewID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&b)
	if err := l.checkBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	if err := l.repo.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	l.publish(ctx, amqp.NewBudgetEvent(amqp.ActionCreated, b))
	return b, nil
}

func (l *Ledger) UpdateBudget(ctx context.Context, id core.ID, in BudgetInput) (core.Budget, error) {
	b, err := l.repo.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	in.apply(&b)
	b.UpdatedAt = l.now()
	if err := l.checkBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	if err := l.repo.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	l.publish(ctx, amqp.NewBudgetEvent(amqp.ActionUpdated, b))
	return b, nil
}

func (l *Ledger) DeleteBudget(ctx context.Context, id core.ID) error {
	if err := l.repo.DeleteBudget(ctx, id); err != nil {
		return err
	}
	l.publish(ctx, amqp.NewBudgetEvent(amqp.ActionDeleted, core.Budget{ID: id}))
	return nil
}

// Ping reports whether the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.repo.Ping(ctx)
}

// Close closes both storage and AMQP connections.
func (l *Ledger) Close() error {
	var errs []error
	if l.repo != nil {
		if err := l.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if l.publisher != nil {
		if err := l.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
