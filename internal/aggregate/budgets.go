package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Status grades a budget's rounded spend percentage.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// AlertType tells a near-cap budget from one already over it.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertOver    AlertType = "over"
)

// Status thresholds, in whole percent.
const (
	warningAbove  = 75
	criticalAbove = 90
)

// Alert thresholds, in raw percent.
var (
	alertWarningAt = decimal.NewFromInt(90)
	alertOverAt    = decimal.NewFromInt(100)
	hundred        = decimal.NewFromInt(100)
)

// BudgetActual pairs a budget with the current month's expense for its
// category.
type BudgetActual struct {
	BudgetID   core.ID
	CategoryID core.ID
	Category   string
	Color      string
	Budget     decimal.Decimal
	Actual     decimal.Decimal
}

// BudgetStatus is a BudgetActual with its progress for the budgets list.
type BudgetStatus struct {
	BudgetActual
	Percent   int64 // rounded, clamped to 100
	Remaining decimal.Decimal
	Status    Status
}

// BudgetAlert flags a budget whose raw spend reached an alert threshold.
type BudgetAlert struct {
	BudgetActual
	PercentSpent decimal.Decimal // raw, unclamped
	Type         AlertType
}

// BudgetVsActual emits one record per budget whose category exists, in
// budget order. Budgets pointing at missing categories are skipped.
func BudgetVsActual(now time.Time, cats []core.Category, txs []core.Transaction, budgets []core.Budget) []BudgetActual {
	byID := make(map[core.ID]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	spend := make(map[core.ID]decimal.Decimal)
	for _, t := range ExpensesOnly(InMonth(txs, now)) {
		if t.Categorized() {
			spend[t.CategoryID] = spend[t.CategoryID].Add(t.Amount.Abs())
		}
	}

	out := make([]BudgetActual, 0, len(budgets))
	for _, b := range budgets {
		c, ok := byID[b.CategoryID]
		if !ok {
			continue
		}
		out = append(out, BudgetActual{
			BudgetID:   b.ID,
			CategoryID: c.ID,
			Category:   c.Name,
			Color:      c.Color,
			Budget:     b.Amount,
			Actual:     spend[c.ID],
		})
	}
	return out
}

// PercentSpent is actual/budget*100. A non-positive budget yields zero.
func (ba BudgetActual) PercentSpent() decimal.Decimal {
	if !ba.Budget.IsPositive() {
		return decimal.Zero
	}
	return ba.Actual.Div(ba.Budget).Mul(hundred)
}

// BudgetStatuses grades every BudgetVsActual row: ok up to 75%, warning up
// to 90%, critical above.
func BudgetStatuses(now time.Time, cats []core.Category, txs []core.Transaction, budgets []core.Budget) []BudgetStatus {
	rows := BudgetVsActual(now, cats, txs, budgets)
	out := make([]BudgetStatus, 0, len(rows))
	for _, r := range rows {
		pct := decimal.Min(r.PercentSpent(), hundred).Round(0).IntPart()
		out = append(out, BudgetStatus{
			BudgetActual: r,
			Percent:      pct,
			Remaining:    r.Budget.Sub(r.Actual),
			Status:       classify(pct),
		})
	}
	return out
}

func classify(pct int64) Status {
	switch {
	case pct > criticalAbove:
		return StatusCritical
	case pct > warningAbove:
		return StatusWarning
	default:
		return StatusOK
	}
}

// BudgetAlerts reports budgets at or above 90% of their cap.
func BudgetAlerts(now time.Time, cats []core.Category, txs []core.Transaction, budgets []core.Budget) []BudgetAlert {
	out := []BudgetAlert{}
	for _, r := range BudgetVsActual(now, cats, txs, budgets) {
		p := r.PercentSpent()
		var kind AlertType
		switch {
		case p.GreaterThanOrEqual(alertOverAt):
			kind = AlertOver
		case p.GreaterThanOrEqual(alertWarningAt):
			kind = AlertWarning
		default:
			continue
		}
		out = append(out, BudgetAlert{BudgetActual: r, PercentSpent: p, Type: kind})
	}
	return out
}
