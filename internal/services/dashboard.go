package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Snapshot is one consistent-enough read of the three collections.
type Snapshot struct {
	Categories   []core.Category
	Transactions []core.Transaction
	Budgets      []core.Budget
}

// LoadSnapshot reads the three collections concurrently.
func LoadSnapshot(ctx context.Context, r storage.SnapshotReader) (Snapshot, error) {
	var s Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.Categories, err = r.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		s.Transactions, err = r.ListTransactions(ctx, core.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		s.Budgets, err = r.ListBudgets(ctx)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Dashboard is every derived view the dashboard renders.
type Dashboard struct {
	Now            time.Time
	Summary        aggregate.Summary
	Monthly        []aggregate.MonthPoint
	Recent         []core.Transaction
	Breakdown      []aggregate.CategorySpend
	Top            []aggregate.CategorySpend
	BudgetActuals  []aggregate.BudgetActual
	BudgetStatuses []aggregate.BudgetStatus
	Alerts         []aggregate.BudgetAlert

	categories map[core.ID]core.Category
}

// BuildDashboard runs the aggregation engine over a snapshot.
func BuildDashboard(now time.Time, s Snapshot) Dashboard {
	d := Dashboard{
		Now:            now,
		Summary:        aggregate.Summarize(now, s.Transactions, s.Budgets),
		Monthly:        aggregate.MonthlyExpenses(now, s.Transactions, s.Budgets),
		Recent:         aggregate.RecentTransactions(s.Transactions, aggregate.RecentN),
		Breakdown:      aggregate.CategoryBreakdown(s.Categories, s.Transactions),
		Top:            aggregate.TopCategories(s.Categories, s.Transactions, aggregate.TopN),
		BudgetActuals:  aggregate.BudgetVsActual(now, s.Categories, s.Transactions, s.Budgets),
		BudgetStatuses: aggregate.BudgetStatuses(now, s.Categories, s.Transactions, s.Budgets),
		Alerts:         aggregate.BudgetAlerts(now, s.Categories, s.Transactions, s.Budgets),
		categories:     make(map[core.ID]core.Category, len(s.Categories)),
	}
	for _, c := range s.Categories {
		d.categories[c.ID] = c
	}
	return d
}

// CategoryOf resolves a transaction's category; ok is false when it is
// uncategorized or the category no longer exists.
func (d Dashboard) CategoryOf(id core.ID) (core.Category, bool) {
	c, ok := d.categories[id]
	return c, ok
}

// Dashboard loads fresh snapshots and recomputes every view.
func (l *Ledger) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	s, err := LoadSnapshot(ctx, l.repo)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(now, s), nil
}

// BudgetStatuses is the budgets page view: each budget with its current
// month spend and progress.
func (l *Ledger) BudgetStatuses(ctx context.Context, now time.Time) ([]aggregate.BudgetStatus, error) {
	s, err := LoadSnapshot(ctx, l.repo)
	if err != nil {
		return nil, err
	}
	return aggregate.BudgetStatuses(now, s.Categories, s.Transactions, s.Budgets), nil
}
