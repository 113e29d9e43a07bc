package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
)

// MemoryStore is a process-local Repository. Each check-then-write runs
// under one lock.
type MemoryStore struct {
	mu           sync.RWMutex
	categories   map[core.ID]core.Category
	transactions map[core.ID]core.Transaction
	budgets      map[core.ID]core.Budget
	budgetOrder  []core.ID
}

var _ Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories:   make(map[core.ID]core.Category),
		transactions: make(map[core.ID]core.Transaction),
		budgets:      make(map[core.ID]core.Budget),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }

func (s *MemoryStore) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id core.ID) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.categories[c.ID]; exists {
		return fmt.Errorf("create category: id %s already exists", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories[c.ID]
	if !ok {
		return fmt.Errorf("update category %s: %w", c.ID, core.ErrNotFound)
	}
	c.CreatedAt = old.CreatedAt
	s.categories[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
	}
	for _, t := range s.transactions {
		if t.CategoryID == id {
			return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
		}
	}
	for _, b := range s.budgets {
		if b.CategoryID == id {
			return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id core.ID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[t.ID]; exists {
		return fmt.Errorf("create transaction: id %s already exists", t.ID)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[t.ID]
	if !ok {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = old.CreatedAt
	s.transactions[t.ID] = t
	return nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

func (s *MemoryStore) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, 0, len(s.budgetOrder))
	for _, id := range s.budgetOrder {
		out = append(out, s.budgets[id])
	}
	return out, nil
}

func (s *MemoryStore) GetBudget(_ context.Context, id core.ID) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, core.ErrNotFound)
	}
	return b, nil
}

// budgetFor must be called with the lock held.
func (s *MemoryStore) budgetFor(category core.ID) (core.Budget, bool) {
	for _, b := range s.budgets {
		if b.CategoryID == category {
			return b, true
		}
	}
	return core.Budget{}, false
}

func (s *MemoryStore) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.budgetFor(b.CategoryID); dup {
		return fmt.Errorf("create budget for category %s: %w", b.CategoryID, core.ErrDuplicateBudget)
	}
	if _, exists := s.budgets[b.ID]; exists {
		return fmt.Errorf("create budget: id %s already exists", b.ID)
	}
	s.budgets[b.ID] = b
	s.budgetOrder = append(s.budgetOrder, b.ID)
	return nil
}

func (s *MemoryStore) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.ID]
	if !ok {
		return fmt.Errorf("update budget %s: %w", b.ID, core.ErrNotFound)
	}
	if other, dup := s.budgetFor(b.CategoryID); dup && other.ID != b.ID {
		return fmt.Errorf("update budget %s: %w", b.ID, core.ErrDuplicateBudget)
	}
	b.CreatedAt = old.CreatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *MemoryStore) DeleteBudget(_ context.Context, id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return fmt.Errorf("delete budget %s: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	for i, bid := range s.budgetOrder {
		if bid == id {
			s.budgetOrder = append(s.budgetOrder[:i], s.budgetOrder[i+1:]...)
			break
		}
	}
	return nil
}
