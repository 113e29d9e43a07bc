package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

func TestTransactionRowRoundTrip(t *testing.T) {
	tx := core.Transaction{
		ID:          core.NewID(),
		Description: "Train ticket",
		Amount:      decimal.RequireFromString("-12.5"),
		Date:        time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC),
		Notes:       "work trip",
	}
	row := NewTransactionRow(tx, "")
	assert.Equal(t, Uncategorized, row.Category)

	values := row.Values()
	assert.Equal(t, []string{tx.ID.String(), "2025-04-09", "Train ticket", "-12.50", Uncategorized, "work trip"}, values)

	parsed, err := ParseTransactionRow(values)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, parsed.ID)
	assert.True(t, parsed.Amount.Equal(tx.Amount))
	assert.True(t, parsed.Date.Equal(tx.Date))
}

func TestParseTransactionRowRejectsHeader(t *testing.T) {
	_, err := ParseTransactionRow(TransactionHeader)
	assert.Error(t, err)
	_, err = ParseTransactionRow([]string{"x"})
	assert.Error(t, err)
}

func TestBudgetRows(t *testing.T) {
	rows := NewBudgetRows([]aggregate.BudgetStatus{{
		BudgetActual: aggregate.BudgetActual{Category: "Food", Budget: decimal.NewFromInt(100), Actual: decimal.NewFromInt(120)},
		Percent:      100,
		Remaining:    decimal.NewFromInt(-20),
		Status:       aggregate.StatusCritical,
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Food", "100.00", "120.00", "-20.00", "100%", "critical"}, rows[0].Values())
}
