package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// SeriesLength is the number of months in the expense series.
const SeriesLength = 6

// MonthPoint is one bar of the monthly expense chart.
type MonthPoint struct {
	Label    string // short month name, e.g. "Jan"
	Year     int
	Month    time.Month
	Expenses decimal.Decimal
	// Budget is set on the current month only.
	Budget *decimal.Decimal
}

// MonthBounds returns the first and last instant of t's calendar month in
// t's location. Both bounds are inclusive.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// MonthlyExpenses returns the expense magnitude of each of the last six
// calendar months, oldest first, ending with now's month.
func MonthlyExpenses(now time.Time, txs []core.Transaction, budgets []core.Budget) []MonthPoint {
	current, _ := MonthBounds(now)
	points := make([]MonthPoint, 0, SeriesLength)

	for i := SeriesLength - 1; i >= 0; i-- {
		start, end := MonthBounds(current.AddDate(0, -i, 0))
		points = append(points, MonthPoint{
			Label:    start.Format("Jan"),
			Year:     start.Year(),
			Month:    start.Month(),
			Expenses: expenseMagnitude(txs, start, end),
		})
	}

	total := TotalBudget(budgets)
	points[len(points)-1].Budget = &total
	return points
}

// InMonth keeps the transactions dated inside now's calendar month.
func InMonth(txs []core.Transaction, now time.Time) []core.Transaction {
	start, end := MonthBounds(now)
	var out []core.Transaction
	for _, t := range txs {
		if within(t.Date, start, end) {
			out = append(out, t)
		}
	}
	return out
}

// ExpensesOnly keeps the transactions with a negative amount.
func ExpensesOnly(txs []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}

func expenseMagnitude(txs []core.Transaction, start, end time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.IsExpense() && within(t.Date, start, end) {
			sum = sum.Add(t.Amount.Abs())
		}
	}
	return sum
}

// TotalBudget sums every budget amount.
func TotalBudget(budgets []core.Budget) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range budgets {
		sum = sum.Add(b.Amount)
	}
	return sum
}
