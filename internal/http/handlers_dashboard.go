package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const (
	tabOverview  = "overview"
	tabAnalytics = "analytics"
	tabBudgets   = "budgets"
)

type monthBar struct {
	Label       string
	Expenses    decimal.Decimal
	Budget      *decimal.Decimal
	Width       int
	BudgetWidth int
}

type spendRow struct {
	Name   string
	Color  string
	Amount decimal.Decimal
	Width  int
}

type recentRow struct {
	Transaction core.Transaction
	Category    string
	Color       string
}

// trend compares this month's expenses with the previous month's.
type trend struct {
	Delta decimal.Decimal
	Up    bool
	Flat  bool
}

type dashboardView struct {
	Tab      string
	Summary  aggregate.Summary
	Trend    *trend
	Months   []monthBar
	Recent   []recentRow
	Spend    []spendRow
	Top      []spendRow
	Actuals  []aggregate.BudgetActual
	Statuses []aggregate.BudgetStatus
	Alerts   []aggregate.BudgetAlert
}

func spendRows(in []aggregate.CategorySpend) []spendRow {
	max := decimal.Zero
	for _, cs := range in {
		if a := cs.Amount.Abs(); a.GreaterThan(max) {
			max = a
		}
	}
	out := make([]spendRow, 0, len(in))
	for _, cs := range in {
		out = append(out, spendRow{
			Name:   cs.Category.Name,
			Color:  cs.Category.Color,
			Amount: cs.Amount,
			Width:  barWidth(cs.Amount.Abs(), max),
		})
	}
	return out
}

func monthBars(points []aggregate.MonthPoint) []monthBar {
	max := decimal.Zero
	for _, p := range points {
		max = decimal.Max(max, p.Expenses)
		if p.Budget != nil {
			max = decimal.Max(max, *p.Budget)
		}
	}
	out := make([]monthBar, 0, len(points))
	for _, p := range points {
		b := monthBar{Label: p.Label, Expenses: p.Expenses, Budget: p.Budget, Width: barWidth(p.Expenses, max)}
		if p.Budget != nil {
			b.BudgetWidth = barWidth(*p.Budget, max)
		}
		out = append(out, b)
	}
	return out
}

func monthTrend(points []aggregate.MonthPoint) *trend {
	if len(points) < 2 {
		return nil
	}
	cur, prev := points[len(points)-1].Expenses, points[len(points)-2].Expenses
	if prev.IsZero() {
		return nil
	}
	delta := cur.Sub(prev)
	return &trend{Delta: delta.Abs(), Up: delta.IsPositive(), Flat: delta.IsZero()}
}

func newDashboardView(tab string, d services.Dashboard) dashboardView {
	v := dashboardView{
		Tab:      tab,
		Summary:  d.Summary,
		Trend:    monthTrend(d.Monthly),
		Months:   monthBars(d.Monthly),
		Spend:    spendRows(d.Breakdown),
		Top:      spendRows(d.Top),
		Actuals:  d.BudgetActuals,
		Statuses: d.BudgetStatuses,
		Alerts:   d.Alerts,
	}
	for _, t := range d.Recent {
		row := recentRow{Transaction: t}
		if c, ok := d.CategoryOf(t.CategoryID); ok {
			row.Category, row.Color = c.Name, c.Color
		}
		v.Recent = append(v.Recent, row)
	}
	return v
}

// handleDashboard renders one of the overview, analytics or budgets tabs.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	switch tab {
	case tabOverview, tabAnalytics, tabBudgets:
	default:
		tab = tabOverview
	}

	d, err := s.dashboard(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", page{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   newDashboardView(tab, d),
	})
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardJSON(d))
}
