package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

var errBadForm = errors.New("malformed form")

// Transaction forms carry an unsigned amount and a kind.
const (
	kindExpense = "expense"
	kindIncome  = "income"
)

// pathID treats a malformed {id} like an unknown one.
func pathID(r *http.Request) (core.ID, error) {
	raw := chi.URLParam(r, "id")
	id, err := core.ParseID(raw)
	if err != nil {
		return core.ID{}, fmt.Errorf("%w: %q", core.ErrNotFound, raw)
	}
	return id, nil
}

// optionalID parses a form id; blank means none.
func optionalID(v string) (core.ID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.ID{}, nil
	}
	return core.ParseID(v)
}

func parseCategoryForm(r *http.Request) (services.CategoryInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.CategoryInput{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	return services.CategoryInput{
		Name:        sanitizeInput(r.PostForm.Get("name")),
		Description: sanitizeInput(r.PostForm.Get("description")),
		Color:       strings.TrimSpace(r.PostForm.Get("color")),
	}, nil
}

// parseTransactionForm reads a transaction; dates are calendar days in loc.
// A kind of "expense" or "income" forces the amount's sign, otherwise the
// entered sign is kept.
func parseTransactionForm(r *http.Request, loc *time.Location) (services.TransactionInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.TransactionInput{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	f := r.PostForm

	amount, err := core.ParseAmount(f.Get("amount"))
	if err != nil {
		return services.TransactionInput{}, err
	}
	switch strings.TrimSpace(f.Get("kind")) {
	case kindExpense:
		amount = amount.Abs().Neg()
	case kindIncome:
		amount = amount.Abs()
	}

	var date time.Time
	if v := strings.TrimSpace(f.Get("date")); v != "" {
		date, err = time.ParseInLocation(dateInput, v, loc)
		if err != nil {
			return services.TransactionInput{}, fmt.Errorf("%w: %q", core.ErrMissingDate, v)
		}
	}

	categoryID, err := optionalID(f.Get("category_id"))
	if err != nil {
		return services.TransactionInput{}, err
	}

	return services.TransactionInput{
		Description: sanitizeInput(f.Get("description")),
		Amount:      amount,
		Date:        date,
		CategoryID:  categoryID,
		Notes:       sanitizeInput(f.Get("notes")),
	}, nil
}

func parseBudgetForm(r *http.Request) (services.BudgetInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.BudgetInput{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	f := r.PostForm

	amount, err := core.ParseAmount(f.Get("amount"))
	if err != nil {
		return services.BudgetInput{}, err
	}
	categoryID, err := optionalID(f.Get("category_id"))
	if err != nil {
		return services.BudgetInput{}, err
	}
	return services.BudgetInput{
		CategoryID: categoryID,
		Amount:     amount,
		Notes:      sanitizeInput(f.Get("notes")),
	}, nil
}

// parseListFilter reads ?kind=expense|income and ?month=YYYY-MM.
func parseListFilter(r *http.Request, loc *time.Location) core.TransactionFilter {
	q := r.URL.Query()
	var f core.TransactionFilter
	switch q.Get("kind") {
	case kindExpense:
		f.Sign = core.ExpensesOnly
	case kindIncome:
		f.Sign = core.IncomeOnly
	}
	if m, err := time.ParseInLocation("2006-01", q.Get("month"), loc); err == nil {
		f.From = m
		f.To = m.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}
	return f
}
