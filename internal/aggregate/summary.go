package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RecentN is how many transactions the dashboard lists.
const RecentN = 5

// Summary holds the dashboard headline figures.
type Summary struct {
	Income                decimal.Decimal
	Expenses              decimal.Decimal
	Balance               decimal.Decimal
	TransactionCount      int
	CategorizedCount      int
	CategorizedPercentage int64
	CurrentMonthExpenses  decimal.Decimal
	TotalBudget           decimal.Decimal
	BudgetUsedPercentage  int64
}

func Summarize(now time.Time, txs []core.Transaction, budgets []core.Budget) Summary {
	s := Summary{
		Income:           decimal.Zero,
		Expenses:         decimal.Zero,
		Balance:          decimal.Zero,
		TransactionCount: len(txs),
	}
	for _, t := range txs {
		switch {
		case t.IsIncome():
			s.Income = s.Income.Add(t.Amount)
		case t.IsExpense():
			s.Expenses = s.Expenses.Add(t.Amount.Abs())
		}
		s.Balance = s.Balance.Add(t.Amount)
		if t.Categorized() {
			s.CategorizedCount++
		}
	}
	if s.TransactionCount > 0 {
		s.CategorizedPercentage = percent(decimal.NewFromInt(int64(s.CategorizedCount)), decimal.NewFromInt(int64(s.TransactionCount)))
	}

	start, end := MonthBounds(now)
	s.CurrentMonthExpenses = expenseMagnitude(txs, start, end)
	s.TotalBudget = TotalBudget(budgets)
	if s.TotalBudget.IsPositive() {
		s.BudgetUsedPercentage = percent(s.CurrentMonthExpenses, s.TotalBudget)
	}
	return s
}

func percent(part, whole decimal.Decimal) int64 {
	return part.Div(whole).Mul(hundred).Round(0).IntPart()
}

// RecentTransactions returns up to n transactions, newest first.
func RecentTransactions(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
