package sheets

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

var (
	TransactionHeader = []string{"ID", "Date", "Description", "Amount", "Category", "Notes"}
	BudgetHeader      = []string{"Category", "Budget", "Spent", "Remaining", "Percent", "Status"}
)

// Uncategorized labels transactions without a resolvable category.
const Uncategorized = "Uncategorized"

type TransactionRow struct {
	ID          core.ID
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	Notes       string
}

// NewTransactionRow flattens a transaction; category is the resolved name.
func NewTransactionRow(t core.Transaction, category string) TransactionRow {
	if category == "" {
		category = Uncategorized
	}
	return TransactionRow{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    category,
		Notes:       t.Notes,
	}
}

// Values renders the row in TransactionHeader order.
func (r TransactionRow) Values() []string {
	return []string{
		r.ID.String(),
		r.Date.Format(time.DateOnly),
		r.Description,
		r.Amount.StringFixed(2),
		r.Category,
		r.Notes,
	}
}

// ParseTransactionRow reads back a row written by Values.
func ParseTransactionRow(cols []string) (TransactionRow, error) {
	if len(cols) < 4 {
		return TransactionRow{}, fmt.Errorf("short row: %d columns", len(cols))
	}
	id, err := core.ParseID(strings.TrimSpace(cols[0]))
	if err != nil {
		return TransactionRow{}, err
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(cols[1]))
	if err != nil {
		return TransactionRow{}, fmt.Errorf("parse date: %w", err)
	}
	amount, err := core.ParseAmount(cols[3])
	if err != nil {
		return TransactionRow{}, err
	}
	return TransactionRow{
		ID:          id,
		Date:        date,
		Description: strings.TrimSpace(cols[2]),
		Amount:      amount,
		Category:    strings.TrimSpace(safeGet(cols, 4)),
		Notes:       strings.TrimSpace(safeGet(cols, 5)),
	}, nil
}

type BudgetRow struct {
	Category  string
	Budget    decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Percent   int64
	Status    aggregate.Status
}

func NewBudgetRows(statuses []aggregate.BudgetStatus) []BudgetRow {
	rows := make([]BudgetRow, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, BudgetRow{
			Category:  s.Category,
			Budget:    s.Budget,
			Spent:     s.Actual,
			Remaining: s.Remaining,
			Percent:   s.Percent,
			Status:    s.Status,
		})
	}
	return rows
}

func (r BudgetRow) Values() []string {
	return []string{
		r.Category,
		r.Budget.StringFixed(2),
		r.Spent.StringFixed(2),
		r.Remaining.StringFixed(2),
		fmt.Sprintf("%d%%", r.Percent),
		string(r.Status),
	}
}

// ToStrings normalizes a Sheets API row.
func ToStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
