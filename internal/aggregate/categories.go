package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TopN is how many categories the dashboard ranks.
const TopN = 5

// CategorySpend is the signed net amount attributed to one category.
type CategorySpend struct {
	Category core.Category
	Amount   decimal.Decimal
}

// SpendByCategory sums, per category and in input order, the amounts of the
// transactions referencing it. Transactions referencing unknown categories
// are ignored. Callers narrow txs beforehand (date window, sign).
func SpendByCategory(cats []core.Category, txs []core.Transaction) []CategorySpend {
	sums := make(map[core.ID]decimal.Decimal, len(cats))
	for _, t := range txs {
		if !t.Categorized() {
			continue
		}
		sums[t.CategoryID] = sums[t.CategoryID].Add(t.Amount)
	}

	out := make([]CategorySpend, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategorySpend{Category: c, Amount: sums[c.ID]})
	}
	return out
}

// CategoryBreakdown is the expense spend per category with empty categories
// removed.
func CategoryBreakdown(cats []core.Category, txs []core.Transaction) []CategorySpend {
	all := SpendByCategory(cats, ExpensesOnly(txs))
	out := all[:0]
	for _, s := range all {
		if !s.Amount.IsZero() {
			out = append(out, s)
		}
	}
	return out
}

// TopCategories returns the n categories with the largest expense, largest
// first. Ties keep category order.
func TopCategories(cats []core.Category, txs []core.Transaction, n int) []CategorySpend {
	ranked := CategoryBreakdown(cats, txs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.LessThan(ranked[j].Amount)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
