package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Sheet is an in-process Exporter. It keeps rows in insertion order the
// way a spreadsheet tab would.
type Sheet struct {
	mu           sync.Mutex
	transactions []sheets.TransactionRow
	budgets      []sheets.BudgetRow
}

var _ sheets.Exporter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) UpsertTransaction(_ context.Context, row sheets.TransactionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.transactions {
		if r.ID == row.ID {
			s.transactions[i] = row
			return nil
		}
	}
	s.transactions = append(s.transactions, row)
	return nil
}

func (s *Sheet) DeleteTransaction(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.transactions {
		if r.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Sheet) ReplaceTransactions(_ context.Context, rows []sheets.TransactionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]sheets.TransactionRow(nil), rows...)
	return nil
}

func (s *Sheet) WriteBudgets(_ context.Context, rows []sheets.BudgetRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets = append([]sheets.BudgetRow(nil), rows...)
	return nil
}

// Transactions returns a copy of the transactions tab.
func (s *Sheet) Transactions() []sheets.TransactionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.TransactionRow(nil), s.transactions...)
}

// Budgets returns a copy of the budget status tab.
func (s *Sheet) Budgets() []sheets.BudgetRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.BudgetRow(nil), s.budgets...)
}
