package http

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// JSON shapes for /api. Amounts are fixed two-decimal strings.

type categoryJSON struct {
	ID          core.ID   `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type transactionJSON struct {
	ID          core.ID `json:"id"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Date        string  `json:"date"`
	CategoryID  core.ID `json:"category_id,omitempty"`
	Category    string  `json:"category,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

type summaryJSON struct {
	Income                string `json:"income"`
	Expenses              string `json:"expenses"`
	Balance               string `json:"balance"`
	TransactionCount      int    `json:"transaction_count"`
	CategorizedCount      int    `json:"categorized_count"`
	CategorizedPercentage int64  `json:"categorized_percentage"`
	CurrentMonthExpenses  string `json:"current_month_expenses"`
	TotalBudget           string `json:"total_budget"`
	BudgetUsedPercentage  int64  `json:"budget_used_percentage"`
}

type monthJSON struct {
	Label    string  `json:"label"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Expenses string  `json:"expenses"`
	Budget   *string `json:"budget"`
}

type categorySpendJSON struct {
	CategoryID core.ID `json:"category_id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Amount     string  `json:"amount"`
}

type budgetJSON struct {
	BudgetID   core.ID `json:"budget_id"`
	CategoryID core.ID `json:"category_id"`
	Category   string  `json:"category"`
	Color      string  `json:"color"`
	Budget     string  `json:"budget"`
	Actual     string  `json:"actual"`
	Percent    *int64  `json:"percent,omitempty"`
	Remaining  *string `json:"remaining,omitempty"`
	Status     string  `json:"status,omitempty"`
}

type alertJSON struct {
	Category     string `json:"category"`
	Budget       string `json:"budget"`
	Actual       string `json:"actual"`
	PercentSpent string `json:"percent_spent"`
	Type         string `json:"type"`
}

type dashboardJSON struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	Summary        summaryJSON         `json:"summary"`
	Monthly        []monthJSON         `json:"monthly"`
	Recent         []transactionJSON   `json:"recent"`
	Breakdown      []categorySpendJSON `json:"breakdown"`
	Top            []categorySpendJSON `json:"top"`
	BudgetVsActual []budgetJSON        `json:"budget_vs_actual"`
	BudgetStatuses []budgetJSON        `json:"budget_statuses"`
	Alerts         []alertJSON         `json:"alerts"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func newSpendJSON(in []aggregate.CategorySpend) []categorySpendJSON {
	out := make([]categorySpendJSON, 0, len(in))
	for _, cs := range in {
		out = append(out, categorySpendJSON{
			CategoryID: cs.Category.ID,
			Name:       cs.Category.Name,
			Color:      cs.Category.Color,
			Amount:     money(cs.Amount),
		})
	}
	return out
}

func newBudgetActualJSON(ba aggregate.BudgetActual) budgetJSON {
	return budgetJSON{
		BudgetID:   ba.BudgetID,
		CategoryID: ba.CategoryID,
		Category:   ba.Category,
		Color:      ba.Color,
		Budget:     money(ba.Budget),
		Actual:     money(ba.Actual),
	}
}

func newDashboardJSON(d services.Dashboard) dashboardJSON {
	out := dashboardJSON{
		GeneratedAt: d.Now,
		Summary: summaryJSON{
			Income:                money(d.Summary.Income),
			Expenses:              money(d.Summary.Expenses),
			Balance:               money(d.Summary.Balance),
			TransactionCount:      d.Summary.TransactionCount,
			CategorizedCount:      d.Summary.CategorizedCount,
			CategorizedPercentage: d.Summary.CategorizedPercentage,
			CurrentMonthExpenses:  money(d.Summary.CurrentMonthExpenses),
			TotalBudget:           money(d.Summary.TotalBudget),
			BudgetUsedPercentage:  d.Summary.BudgetUsedPercentage,
		},
		Monthly:        make([]monthJSON, 0, len(d.Monthly)),
		Recent:         make([]transactionJSON, 0, len(d.Recent)),
		Breakdown:      newSpendJSON(d.Breakdown),
		Top:            newSpendJSON(d.Top),
		BudgetVsActual: make([]budgetJSON, 0, len(d.BudgetActuals)),
		BudgetStatuses: make([]budgetJSON, 0, len(d.BudgetStatuses)),
		Alerts:         make([]alertJSON, 0, len(d.Alerts)),
	}

	for _, m := range d.Monthly {
		mj := monthJSON{Label: m.Label, Year: m.Year, Month: int(m.Month), Expenses: money(m.Expenses)}
		if m.Budget != nil {
			b := money(*m.Budget)
			mj.Budget = &b
		}
		out.Monthly = append(out.Monthly, mj)
	}

	for _, t := range d.Recent {
		tj := transactionJSON{
			ID:          t.ID,
			Description: t.Description,
			Amount:      money(t.Amount),
			Date:        t.Date.Format(time.DateOnly),
			CategoryID:  t.CategoryID,
			Notes:       t.Notes,
		}
		if c, ok := d.CategoryOf(t.CategoryID); ok {
			tj.Category = c.Name
		}
		out.Recent = append(out.Recent, tj)
	}

	for _, ba := range d.BudgetActuals {
		out.BudgetVsActual = append(out.BudgetVsActual, newBudgetActualJSON(ba))
	}
	for _, bs := range d.BudgetStatuses {
		bj := newBudgetActualJSON(bs.BudgetActual)
		pct, rem := bs.Percent, money(bs.Remaining)
		bj.Percent, bj.Remaining, bj.Status = &pct, &rem, string(bs.Status)
		out.BudgetStatuses = append(out.BudgetStatuses, bj)
	}
	for _, a := range d.Alerts {
		out.Alerts = append(out.Alerts, alertJSON{
			Category:     a.Category,
			Budget:       money(a.Budget),
			Actual:       money(a.Actual),
			PercentSpent: a.PercentSpent.StringFixed(1),
			Type:         string(a.Type),
		})
	}
	return out
}
