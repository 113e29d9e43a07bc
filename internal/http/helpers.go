package http

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

const (
	dateDisplay = "Jan 2, 2006"
	dateInput   = time.DateOnly
)

// barWidth scales v against max into a 0..100 CSS width, keeping non-zero
// values visible.
func barWidth(v, max decimal.Decimal) int {
	if !max.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	switch {
	case w < 2:
		return 2
	case w > 100:
		return 100
	}
	return w
}

func statusClass(s aggregate.Status) string {
	switch s {
	case aggregate.StatusCritical:
		return "danger"
	case aggregate.StatusWarning:
		return "warning"
	default:
		return "success"
	}
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"money": core.FormatMoney,
		"date": func(t time.Time) string {
			return t.In(loc).Format(dateDisplay)
		},
		"inputDate": func(t time.Time) string {
			return t.In(loc).Format(dateInput)
		},
		"statusClass": statusClass,
		"neg":         func(d decimal.Decimal) bool { return d.IsNegative() },
		"fixed":       func(d decimal.Decimal) string { return d.StringFixed(2) },
		"abs":         func(d decimal.Decimal) decimal.Decimal { return d.Abs() },
	}
}
