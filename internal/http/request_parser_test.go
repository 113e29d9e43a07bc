package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestParseTransactionFormSign(t *testing.T) {
	tests := []struct {
		kind   string
		amount string
		want   string
	}{
		{"expense", "10", "-10"},
		{"expense", "-10", "-10"},
		{"income", "-10", "10"},
		{"", "-10", "-10"},
		{"", "10", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.amount, func(t *testing.T) {
			in, err := parseTransactionForm(formRequest(url.Values{
				"description": {"x"}, "amount": {tt.amount}, "kind": {tt.kind}, "date": {"2025-01-31"},
			}), time.UTC)
			require.NoError(t, err)
			assert.True(t, in.Amount.Equal(decimal.RequireFromString(tt.want)), in.Amount.String())
		})
	}
}

func TestParseTransactionFormDateInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in, err := parseTransactionForm(formRequest(url.Values{"description": {"x"}, "amount": {"1"}, "date": {"2025-03-01"}}), loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), in.Date)

	_, err = parseTransactionForm(formRequest(url.Values{"description": {"x"}, "amount": {"1"}, "date": {"01/03/2025"}}), loc)
	assert.ErrorIs(t, err, core.ErrMissingDate)

	_, err = parseTransactionForm(formRequest(url.Values{"description": {"x"}, "amount": {"1"}, "category_id": {"nope"}}), loc)
	assert.ErrorIs(t, err, core.ErrInvalidID)
}

func TestParseBudgetForm(t *testing.T) {
	id := core.NewID()
	in, err := parseBudgetForm(formRequest(url.Values{"category_id": {id.String()}, "amount": {"99.999"}, "notes": {" monthly\x00 "}}))
	require.NoError(t, err)
	assert.Equal(t, id, in.CategoryID)
	assert.Equal(t, "100.00", in.Amount.StringFixed(2))
	assert.Equal(t, "monthly", in.Notes)
}

func TestParseListFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions?kind=income&month=2024-02", nil)
	f := parseListFilter(req, time.UTC)
	assert.Equal(t, core.IncomeOnly, f.Sign)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), f.To)

	f = parseListFilter(httptest.NewRequest(http.MethodGet, "/transactions?month=bad", nil), time.UTC)
	assert.Equal(t, core.AnySign, f.Sign)
	assert.True(t, f.From.IsZero())
}

func TestBarWidth(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	assert.Equal(t, 0, barWidth(decimal.Zero, hundred))
	assert.Equal(t, 0, barWidth(decimal.NewFromInt(5), decimal.Zero))
	assert.Equal(t, 2, barWidth(decimal.RequireFromString("0.5"), hundred))
	assert.Equal(t, 50, barWidth(decimal.NewFromInt(50), hundred))
	assert.Equal(t, 100, barWidth(decimal.NewFromInt(150), hundred))
}
