package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Source is the read side the worker needs from storage.
type Source interface {
	storage.SnapshotReader
	GetCategory(ctx context.Context, id core.ID) (core.Category, error)
}

// SyncWorker mirrors ledger events into a spreadsheet: transaction rows are
// upserted or deleted, and the budget status tab is recomputed from a fresh
// snapshot after every change that can move spend.
type SyncWorker struct {
	source   Source
	exporter sheets.Exporter
	names    cache.Cache[string]
	now      func() time.Time
}

type Option func(*SyncWorker)

// WithCategoryCache keeps category names between events. Category events
// evict the affected entry.
func WithCategoryCache(c cache.Cache[string]) Option {
	return func(w *SyncWorker) { w.names = c }
}

func NewSyncWorker(source Source, exporter sheets.Exporter, loc *time.Location, opts ...Option) *SyncWorker {
	if loc == nil {
		loc = time.Local
	}
	w := &SyncWorker{
		source:   source,
		exporter: exporter,
		now:      func() time.Time { return time.Now().In(loc) },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleEvent processes one ledger event. Returning an error requeues it.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event", "type", event.Type(), "id", event.ID)

	switch event.Entity {
	case amqp.EntityTransaction:
		if err := w.syncTransaction(ctx, event); err != nil {
			return err
		}
		return w.RefreshBudgets(ctx)
	case amqp.EntityBudget:
		return w.RefreshBudgets(ctx)
	case amqp.EntityCategory:
		if w.names != nil {
			w.names.Delete(event.ID.String())
		}
		if event.Action == amqp.ActionUpdated {
			// Renames show up in every transaction row.
			return w.FullSync(ctx)
		}
		return w.RefreshBudgets(ctx)
	default:
		return fmt.Errorf("unsupported entity %q", event.Entity)
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, event *amqp.LedgerEvent) error {
	if event.Action == amqp.ActionDeleted {
		if err := w.exporter.DeleteTransaction(ctx, event.ID); err != nil {
			return fmt.Errorf("delete transaction row: %w", err)
		}
		return nil
	}
	if event.Transaction == nil {
		return fmt.Errorf("event %s for %s has no transaction payload", event.Type(), event.ID)
	}

	t := *event.Transaction
	name, err := w.categoryName(ctx, t.CategoryID)
	if err != nil {
		return err
	}
	if err := w.exporter.UpsertTransaction(ctx, sheets.NewTransactionRow(t, name)); err != nil {
		return fmt.Errorf("upsert transaction row: %w", err)
	}
	slog.InfoContext(ctx, "Synced transaction", "id", t.ID, "amount", t.Amount.String())
	return nil
}

func (w *SyncWorker) categoryName(ctx context.Context, id core.ID) (string, error) {
	if id.IsZero() {
		return "", nil
	}
	if w.names != nil {
		if name, ok := w.names.Get(id.String()); ok {
			return name, nil
		}
	}
	c, err := w.source.GetCategory(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve category: %w", err)
	}
	if w.names != nil {
		w.names.Set(id.String(), c.Name)
	}
	return c.Name, nil
}

// RefreshBudgets rewrites the budget status tab for the current month.
func (w *SyncWorker) RefreshBudgets(ctx context.Context) error {
	s, err := services.LoadSnapshot(ctx, w.source)
	if err != nil {
		return err
	}
	return w.writeBudgets(ctx, s)
}

func (w *SyncWorker) writeBudgets(ctx context.Context, s services.Snapshot) error {
	statuses := aggregate.BudgetStatuses(w.now(), s.Categories, s.Transactions, s.Budgets)
	if err := w.exporter.WriteBudgets(ctx, sheets.NewBudgetRows(statuses)); err != nil {
		return fmt.Errorf("write budget statuses: %w", err)
	}
	return nil
}

// FullSync rewrites both tabs from storage. It covers events lost while the
// worker was down.
func (w *SyncWorker) FullSync(ctx context.Context) error {
	s, err := services.LoadSnapshot(ctx, w.source)
	if err != nil {
		return err
	}

	names := make(map[core.ID]string, len(s.Categories))
	if w.names != nil {
		w.names.Purge()
	}
	for _, c := range s.Categories {
		names[c.ID] = c.Name
		if w.names != nil {
			w.names.Set(c.ID.String(), c.Name)
		}
	}

	// Snapshots are newest first; the sheet reads oldest first.
	rows := make([]sheets.TransactionRow, 0, len(s.Transactions))
	for i := len(s.Transactions) - 1; i >= 0; i-- {
		t := s.Transactions[i]
		rows = append(rows, sheets.NewTransactionRow(t, names[t.CategoryID]))
	}
	if err := w.exporter.ReplaceTransactions(ctx, rows); err != nil {
		return fmt.Errorf("replace transaction rows: %w", err)
	}
	if err := w.writeBudgets(ctx, s); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Full sync completed",
		"transactions", len(rows),
		"budgets", len(s.Budgets))
	return nil
}

// RunPeriodicSync performs a full sync now and then every interval until
// ctx is done. Failed rounds are logged and retried on the next tick.
func (w *SyncWorker) RunPeriodicSync(ctx context.Context, interval time.Duration) {
	if err := w.FullSync(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync failed", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.FullSync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
