package storage

import (
	"context"
	"database/sql"
	"strings"

	"fintrack/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns; timestamps and amounts are TEXT.
type (
	Category struct {
		ID          core.ID
		Name        string
		Description string
		Color       string
		CreatedAt   string
		UpdatedAt   string
	}

	Transaction struct {
		ID          core.ID
		Description string
		Amount      string
		Date        string
		CategoryID  core.ID
		Notes       string
		CreatedAt   string
		UpdatedAt   string
	}

	Budget struct {
		ID         core.ID
		CategoryID core.ID
		Amount     string
		Notes      string
		CreatedAt  string
		UpdatedAt  string
	}
)

const categoryColumns = `id, name, description, color, created_at, updated_at`

func scanCategory(row interface{ Scan(...interface{}) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id core.ID) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const createCategory = `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, c.ID, c.Name, c.Description, c.Color, c.CreatedAt, c.UpdatedAt)
	return err
}

const updateCategory = `UPDATE categories SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, c Category) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory, c.Name, c.Description, c.Color, c.UpdatedAt, c.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id core.ID) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countCategoryReferences = `
SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?1)
     + (SELECT COUNT(*) FROM budgets WHERE category_id = ?1)`

func (q *Queries) CountCategoryReferences(ctx context.Context, id core.ID) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategoryReferences, id).Scan(&n)
	return n, err
}

const transactionColumns = `id, description, amount, date, category_id, notes, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Description, &t.Amount, &t.Date, &t.CategoryID, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTransactionsParams holds the optional filters; empty strings and a
// zero limit are ignored.
type ListTransactionsParams struct {
	From  string
	To    string
	Sign  core.Sign
	Limit int
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	var (
		where []string
		args  []interface{}
	)
	if arg.From != "" {
		where = append(where, "date >= ?")
		args = append(args, arg.From)
	}
	if arg.To != "" {
		where = append(where, "date <= ?")
		args = append(args, arg.To)
	}
	switch arg.Sign {
	case core.ExpensesOnly:
		where = append(where, "CAST(amount AS REAL) < 0")
	case core.IncomeOnly:
		where = append(where, "CAST(amount AS REAL) > 0")
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + transactionColumns + ` FROM transactions`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY date DESC, created_at DESC")
	if arg.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id core.ID) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const createTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, t Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		t.ID, t.Description, t.Amount, t.Date, t.CategoryID, t.Notes, t.CreatedAt, t.UpdatedAt)
	return err
}

const updateTransaction = `
UPDATE transactions
SET description = ?, amount = ?, date = ?, category_id = ?, notes = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, t Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.Description, t.Amount, t.Date, t.CategoryID, t.Notes, t.UpdatedAt, t.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id core.ID) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const budgetColumns = `id, category_id, amount, notes, created_at, updated_at`

func scanBudget(row interface{ Scan(...interface{}) error }) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// rowid is assigned on insert and kept across updates.
const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets ORDER BY rowid`

func (q *Queries) ListBudgets(ctx context.Context) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id core.ID) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const createBudget = `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, b Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget, b.ID, b.CategoryID, b.Amount, b.Notes, b.CreatedAt, b.UpdatedAt)
	return err
}

const updateBudget = `UPDATE budgets SET category_id = ?, amount = ?, notes = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, b Budget) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget, b.CategoryID, b.Amount, b.Notes, b.UpdatedAt, b.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id core.ID) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
