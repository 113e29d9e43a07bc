package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

var stamp = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newSQLite(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func backends() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryStore() },
		"sqlite": newSQLite,
	}
}

func category(name string) core.Category {
	return core.Category{ID: core.NewID(), Name: name, Color: "#123456", CreatedAt: stamp, UpdatedAt: stamp}
}

func transaction(amount string, date time.Time, cat core.ID) core.Transaction {
	return core.Transaction{
		ID:          core.NewID(),
		Description: "item",
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		CategoryID:  cat,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
}

func TestCategoryCRUD(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			food, bills := category("food"), category("Bills")
			require.NoError(t, repo.CreateCategory(ctx, food))
			require.NoError(t, repo.CreateCategory(ctx, bills))

			list, err := repo.ListCategories(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Bills", list[0].Name)
			assert.Equal(t, "food", list[1].Name)

			food.Name = "Groceries"
			food.Color = "#ABCDEF"
			require.NoError(t, repo.UpdateCategory(ctx, food))
			got, err := repo.GetCategory(ctx, food.ID)
			require.NoError(t, err)
			assert.Equal(t, "Groceries", got.Name)
			assert.Equal(t, "#ABCDEF", got.Color)
			assert.True(t, got.CreatedAt.Equal(stamp))

			require.NoError(t, repo.DeleteCategory(ctx, bills.ID))
			_, err = repo.GetCategory(ctx, bills.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
			assert.ErrorIs(t, repo.DeleteCategory(ctx, bills.ID), core.ErrNotFound)
			assert.ErrorIs(t, repo.UpdateCategory(ctx, bills), core.ErrNotFound)
		})
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			byTx, byBudget := category("Food"), category("Rent")
			require.NoError(t, repo.CreateCategory(ctx, byTx))
			require.NoError(t, repo.CreateCategory(ctx, byBudget))

			tx := transaction("-10", stamp, byTx.ID)
			require.NoError(t, repo.CreateTransaction(ctx, tx))
			require.NoError(t, repo.CreateBudget(ctx, core.Budget{
				ID: core.NewID(), CategoryID: byBudget.ID, Amount: decimal.NewFromInt(500), CreatedAt: stamp, UpdatedAt: stamp,
			}))

			assert.ErrorIs(t, repo.DeleteCategory(ctx, byTx.ID), core.ErrCategoryInUse)
			assert.ErrorIs(t, repo.DeleteCategory(ctx, byBudget.ID), core.ErrCategoryInUse)

			require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
			assert.NoError(t, repo.DeleteCategory(ctx, byTx.ID))
		})
	}
}

func TestListTransactionsFilter(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			april := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
			may := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
			cat := core.NewID()
			for _, tx := range []core.Transaction{
				transaction("-12.50", march, cat),
				transaction("1500", april, core.ID{}),
				transaction("-40", april, cat),
				transaction("-7.25", may, core.ID{}),
			} {
				require.NoError(t, repo.CreateTransaction(ctx, tx))
			}

			all, err := repo.ListTransactions(ctx, core.TransactionFilter{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.True(t, all[0].Date.Equal(may))
			assert.True(t, all[3].Date.Equal(march))
			assert.True(t, all[3].Amount.Equal(decimal.RequireFromString("-12.5")))
			assert.Equal(t, cat, all[3].CategoryID)
			assert.True(t, all[0].CategoryID.IsZero())

			from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC)
			expenses, err := repo.ListTransactions(ctx, core.TransactionFilter{From: from, To: to, Sign: core.ExpensesOnly})
			require.NoError(t, err)
			require.Len(t, expenses, 1)
			assert.True(t, expenses[0].Amount.Equal(decimal.NewFromInt(-40)))

			income, err := repo.ListTransactions(ctx, core.TransactionFilter{Sign: core.IncomeOnly})
			require.NoError(t, err)
			require.Len(t, income, 1)

			limited, err := repo.ListTransactions(ctx, core.TransactionFilter{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestTransactionUpdateDelete(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			tx := transaction("-3", stamp, core.ID{})
			require.NoError(t, repo.CreateTransaction(ctx, tx))

			tx.Description = "coffee"
			tx.Amount = decimal.RequireFromString("-3.20")
			require.NoError(t, repo.UpdateTransaction(ctx, tx))

			got, err := repo.GetTransaction(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, "coffee", got.Description)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString("-3.2")))

			require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
			_, err = repo.GetTransaction(ctx, tx.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestBudgetUniquePerCategory(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			cat, other := core.NewID(), core.NewID()
			first := core.Budget{ID: core.NewID(), CategoryID: cat, Amount: decimal.NewFromInt(100), CreatedAt: stamp, UpdatedAt: stamp}
			require.NoError(t, repo.CreateBudget(ctx, first))

			dup := first
			dup.ID = core.NewID()
			assert.ErrorIs(t, repo.CreateBudget(ctx, dup), core.ErrDuplicateBudget)

			second := core.Budget{ID: core.NewID(), CategoryID: other, Amount: decimal.NewFromInt(50), CreatedAt: stamp, UpdatedAt: stamp}
			require.NoError(t, repo.CreateBudget(ctx, second))

			second.CategoryID = cat
			assert.ErrorIs(t, repo.UpdateBudget(ctx, second), core.ErrDuplicateBudget)

			budgets, err := repo.ListBudgets(ctx)
			require.NoError(t, err)
			require.Len(t, budgets, 2)
			assert.Equal(t, first.ID, budgets[0].ID)

			require.NoError(t, repo.DeleteBudget(ctx, first.ID))
			_, err = repo.GetBudget(ctx, first.ID)
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

// Budgets sharing a timestamp still list in the order they were created,
// identically on every backend.
func TestListBudgetsInsertionOrder(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			var want []core.ID
			for i := 0; i < 6; i++ {
				b := core.Budget{ID: core.NewID(), CategoryID: core.NewID(), Amount: decimal.NewFromInt(int64(10 * (i + 1))), CreatedAt: stamp, UpdatedAt: stamp}
				require.NoError(t, repo.CreateBudget(ctx, b))
				want = append(want, b.ID)
			}

			budgets, err := repo.ListBudgets(ctx)
			require.NoError(t, err)
			require.Len(t, budgets, 6)

			middle := budgets[2]
			middle.Amount = decimal.NewFromInt(999)
			middle.UpdatedAt = stamp.Add(time.Hour)
			require.NoError(t, repo.UpdateBudget(ctx, middle))

			budgets, err = repo.ListBudgets(ctx)
			require.NoError(t, err)
			got := make([]core.ID, 0, len(budgets))
			for _, b := range budgets {
				got = append(got, b.ID)
			}
			assert.Equal(t, want, got)
		})
	}
}

// Concurrent creates for one category must leave exactly one budget.
func TestBudgetUniqueUnderRace(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			cat := core.NewID()

			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				oks int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := repo.CreateBudget(ctx, core.Budget{
						ID: core.NewID(), CategoryID: cat, Amount: decimal.NewFromInt(10), CreatedAt: stamp, UpdatedAt: stamp,
					})
					if err == nil {
						mu.Lock()
						oks++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, oks)
			budgets, err := repo.ListBudgets(ctx)
			require.NoError(t, err)
			assert.Len(t, budgets, 1)
		})
	}
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	v, _, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
	v, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, RollbackMigrations(path, 1))
	v, _, err = MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
}
