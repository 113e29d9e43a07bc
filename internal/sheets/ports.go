package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionWriter mirrors the ledger into a transactions tab keyed by
	// transaction ID.
	TransactionWriter interface {
		UpsertTransaction(ctx context.Context, row TransactionRow) error
		DeleteTransaction(ctx context.Context, id core.ID) error
		// ReplaceTransactions rewrites the whole tab.
		ReplaceTransactions(ctx context.Context, rows []TransactionRow) error
	}

	// BudgetWriter rewrites the budget status tab.
	BudgetWriter interface {
		WriteBudgets(ctx context.Context, rows []BudgetRow) error
	}

	Exporter interface {
		TransactionWriter
		BudgetWriter
	}
)
