package storage

import (
	"context"

	"fintrack/internal/core"
)

// Ports implemented by every storage backend.
type (
	// SnapshotReader loads the full collections the dashboards aggregate.
	SnapshotReader interface {
		// ListCategories returns every category sorted by name.
		ListCategories(ctx context.Context) ([]core.Category, error)
		// ListTransactions returns the matching transactions, newest first.
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
		// ListBudgets returns every budget in insertion order.
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	CategoryStore interface {
		GetCategory(ctx context.Context, id core.ID) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		// DeleteCategory fails with core.ErrCategoryInUse while any
		// transaction or budget references the category.
		DeleteCategory(ctx context.Context, id core.ID) error
	}

	TransactionStore interface {
		GetTransaction(ctx context.Context, id core.ID) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id core.ID) error
	}

	// BudgetStore keeps at most one budget per category; a second one fails
	// with core.ErrDuplicateBudget.
	BudgetStore interface {
		GetBudget(ctx context.Context, id core.ID) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id core.ID) error
	}

	Repository interface {
		SnapshotReader
		CategoryStore
		TransactionStore
		BudgetStore
		Ping(ctx context.Context) error
		Close() error
	}
)
