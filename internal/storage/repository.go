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
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fintrack/internal/core"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	loc     *time.Location
}

type Option func(*SQLiteRepository)

// WithLocation sets the zone transaction dates are returned in. Dates are
// stored in UTC; without this option they come back in UTC.
func WithLocation(loc *time.Location) Option {
	return func(r *SQLiteRepository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
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

	repo := &SQLiteRepository{db: db, queries: New(db), loc: time.UTC}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// affected maps "no row touched" to core.ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// Categories

func categoryFromRow(row Category) (core.Category, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Category{}, err
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Color:       row.Color,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func categoryToRow(c core.Category) Category {
	return Category{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c, err := categoryFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", row.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id core.ID) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, notFound(err))
	}
	return categoryFromRow(row)
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	if err := r.queries.CreateCategory(ctx, categoryToRow(c)); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.DebugContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := affected(r.queries.UpdateCategory(ctx, categoryToRow(c))); err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory checks references and deletes inside one transaction so a
// concurrent insert cannot orphan the category between the two steps.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id core.ID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	refs, err := q.CountCategoryReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
	}
	if err := affected(q.DeleteCategory(ctx, id)); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

// Transactions

func transactionFromRow(row Transaction, loc *time.Location) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", row.Amount, err)
	}
	date, err := parseTime(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		Description: row.Description,
		Amount:      amount,
		Date:        date.In(loc),
		CategoryID:  row.CategoryID,
		Notes:       row.Notes,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func transactionToRow(t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Date:        formatTime(t.Date),
		CategoryID:  t.CategoryID,
		Notes:       t.Notes,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	arg := ListTransactionsParams{Sign: f.Sign, Limit: f.Limit}
	if !f.From.IsZero() {
		arg.From = formatTime(f.From)
	}
	if !f.To.IsZero() {
		arg.To = formatTime(f.To)
	}
	rows, err := r.queries.ListTransactions(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row, r.loc)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", row.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id core.ID) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, notFound(err))
	}
	return transactionFromRow(row, r.loc)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.queries.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"amount", t.Amount.String(),
		"date", t.Date.Format(time.DateOnly))
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := affected(r.queries.UpdateTransaction(ctx, transactionToRow(t))); err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id core.ID) error {
	if err := affected(r.queries.DeleteTransaction(ctx, id)); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Budgets

func budgetFromRow(row Budget) (core.Budget, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse amount %q: %w", row.Amount, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		ID:         row.ID,
		CategoryID: row.CategoryID,
		Amount:     amount,
		Notes:      row.Notes,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

func budgetToRow(b core.Budget) Budget {
	return Budget{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount.String(),
		Notes:      b.Notes,
		CreatedAt:  formatTime(b.CreatedAt),
		UpdatedAt:  formatTime(b.UpdatedAt),
	}
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := budgetFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", row.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id core.ID) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, notFound(err))
	}
	return budgetFromRow(row)
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	if err := r.queries.CreateBudget(ctx, budgetToRow(b)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create budget for category %s: %w", b.CategoryID, core.ErrDuplicateBudget)
		}
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	err := affected(r.queries.UpdateBudget(ctx, budgetToRow(b)))
	if isUniqueViolation(err) {
		err = core.ErrDuplicateBudget
	}
	if err != nil {
		return fmt.Errorf("update budget %s: %w", b.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id core.ID) error {
	if err := affected(r.queries.DeleteBudget(ctx, id)); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return nil
}
