package http

import (
	"context"
	"encoding/json"
	"io"
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
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) (*Server, *services.Ledger) {
	t.Helper()
	ledger := services.NewLedger(storage.NewMemoryStore(), nil)
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: io.Discard})
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	srv := NewServer(":0", ledger, opts)
	srv.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ledger
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeDashboard(t *testing.T, rec *httptest.ResponseRecorder) dashboardJSON {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var d dashboardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func seedCategory(t *testing.T, l *services.Ledger, name, color string) core.Category {
	t.Helper()
	c, err := l.CreateCategory(context.Background(), services.CategoryInput{Name: name, Color: color})
	require.NoError(t, err)
	return c
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(t, srv, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Checks["storage"])
	assert.Equal(t, "ok", body.Checks["templates"])
}

func TestPagesRender(t *testing.T) {
	srv, l := newTestServer(t, Options{})
	food := seedCategory(t, l, "Food", "#ff0000")
	_, err := l.CreateTransaction(context.Background(), services.TransactionInput{
		Description: "Groceries", Amount: decimal.NewFromInt(-40), Date: fixedNow, CategoryID: food.ID,
	})
	require.NoError(t, err)
	_, err = l.CreateBudget(context.Background(), services.BudgetInput{CategoryID: food.ID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	for _, path := range []string{
		"/",
		"/dashboard",
		"/dashboard?tab=analytics",
		"/dashboard?tab=budgets",
		"/dashboard?tab=bogus",
		"/transactions",
		"/transactions?kind=expense&month=2025-06",
		"/transactions/new",
		"/categories",
		"/categories/new",
		"/budgets",
		"/budgets/new",
	} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}

	rec := get(t, srv, "/dashboard")
	assert.Contains(t, rec.Body.String(), "Groceries")
	assert.Contains(t, rec.Body.String(), "-$40.00")

	rec = get(t, srv, "/budgets")
	assert.Contains(t, rec.Body.String(), "$40.00 of $100.00")
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := get(t, srv, "/static/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}

func TestCategoryFlow(t *testing.T) {
	srv, l := newTestServer(t, Options{})

	rec := post(t, srv, "/categories", url.Values{"name": {"Transport"}, "color": {"#00ff00"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/categories?flash="))

	rec = post(t, srv, "/categories", url.Values{"name": {"food"}, "color": {"#ff0000"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = post(t, srv, "/categories", url.Values{"name": {"Bad"}, "color": {"red"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "hex color")
	assert.Contains(t, rec.Body.String(), `value="Bad"`)

	rec = get(t, srv, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []categoryJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "food", cats[0].Name)
	assert.Equal(t, "Transport", cats[1].Name)

	id := cats[1].ID
	rec = get(t, srv, "/categories/"+id.String()+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Transport"`)

	rec = post(t, srv, "/categories/"+id.String(), url.Values{"name": {"Travel"}, "color": {"#00ff00"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c, err := l.Category(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Travel", c.Name)

	_, err = l.CreateTransaction(context.Background(), services.TransactionInput{
		Description: "Train", Amount: decimal.NewFromInt(-5), Date: fixedNow, CategoryID: id,
	})
	require.NoError(t, err)
	rec = post(t, srv, "/categories/"+id.String()+"/delete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(t, srv, "/categories/"+cats[0].ID.String()+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/categories/not-a-uuid/edit").Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/categories/"+core.NewID().String()+"/edit").Code)
}

func TestTransactionFlow(t *testing.T) {
	srv, l := newTestServer(t, Options{})
	food := seedCategory(t, l, "Food", "#ff0000")
	ctx := context.Background()

	rec := post(t, srv, "/transactions", url.Values{
		"description": {"Lunch"},
		"amount":      {"12,50"},
		"kind":        {"expense"},
		"date":        {"2025-06-10"},
		"category_id": {food.ID.String()},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	txs, err := l.Transactions(ctx, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-12.50")))
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, food.ID, txs[0].CategoryID)

	rec = post(t, srv, "/transactions", url.Values{"description": {"Salary"}, "amount": {"abc"}, "kind": {"income"}, "date": {"2025-06-01"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(t, srv, "/transactions", url.Values{
		"description": {"Ghost"}, "amount": {"1"}, "kind": {"expense"}, "date": {"2025-06-01"},
		"category_id": {core.NewID().String()},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	id := txs[0].ID.String()
	rec = get(t, srv, "/transactions/"+id+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="12.50"`)

	rec = post(t, srv, "/transactions/"+id, url.Values{
		"description": {"Lunch out"}, "amount": {"20"}, "kind": {"income"}, "date": {"2025-06-11"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	updated, err := l.Transaction(ctx, txs[0].ID)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(20)))
	assert.True(t, updated.CategoryID.IsZero())

	rec = post(t, srv, "/transactions/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post(t, srv, "/transactions/"+id+"/delete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBudgetFlow(t *testing.T) {
	srv, l := newTestServer(t, Options{})
	food := seedCategory(t, l, "Food", "#ff0000")

	form := url.Values{"category_id": {food.ID.String()}, "amount": {"300"}}
	rec := post(t, srv, "/budgets", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = post(t, srv, "/budgets", form)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = post(t, srv, "/budgets", url.Values{"category_id": {food.ID.String()}, "amount": {"-1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post(t, srv, "/budgets", url.Values{"amount": {"10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	budgets, err := l.Budgets(context.Background())
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	id := budgets[0].ID.String()

	rec = post(t, srv, "/budgets/"+id, url.Values{"category_id": {food.ID.String()}, "amount": {"250"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = post(t, srv, "/budgets/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAPIDashboard(t *testing.T) {
	srv, l := newTestServer(t, Options{})
	ctx := context.Background()
	food := seedCategory(t, l, "Food", "#ff0000")
	rent := seedCategory(t, l, "Rent", "#0000ff")

	for _, in := range []services.TransactionInput{
		{Description: "Groceries", Amount: decimal.NewFromInt(-95), Date: fixedNow, CategoryID: food.ID},
		{Description: "Rent", Amount: decimal.NewFromInt(-800), Date: fixedNow.AddDate(0, -1, 0), CategoryID: rent.ID},
		{Description: "Salary", Amount: decimal.NewFromInt(2000), Date: fixedNow},
	} {
		_, err := l.CreateTransaction(ctx, in)
		require.NoError(t, err)
	}
	_, err := l.CreateBudget(ctx, services.BudgetInput{CategoryID: food.ID, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	rec := get(t, srv, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var d dashboardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))

	assert.Equal(t, "2000.00", d.Summary.Income)
	assert.Equal(t, "895.00", d.Summary.Expenses)
	assert.Equal(t, "1105.00", d.Summary.Balance)
	assert.Equal(t, "95.00", d.Summary.CurrentMonthExpenses)
	assert.Equal(t, int64(95), d.Summary.BudgetUsedPercentage)

	require.Len(t, d.Monthly, 6)
	last := d.Monthly[5]
	assert.Equal(t, "Jun", last.Label)
	assert.Equal(t, "95.00", last.Expenses)
	require.NotNil(t, last.Budget)
	assert.Equal(t, "100.00", *last.Budget)
	assert.Nil(t, d.Monthly[4].Budget)
	assert.Equal(t, "800.00", d.Monthly[4].Expenses)

	require.Len(t, d.Top, 2)
	assert.Equal(t, "Rent", d.Top[0].Name)

	require.Len(t, d.BudgetStatuses, 1)
	assert.Equal(t, "critical", d.BudgetStatuses[0].Status)
	require.Len(t, d.Alerts, 1)
	assert.Equal(t, "warning", d.Alerts[0].Type)
	assert.Len(t, d.Recent, 3)
}

func TestDashboardReflectsWritesImmediately(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	before := decodeDashboard(t, get(t, srv, "/api/dashboard"))
	assert.Zero(t, before.Summary.TransactionCount)

	rec := post(t, srv, "/transactions", url.Values{
		"description": {"Coffee"},
		"amount":      {"4.50"},
		"kind":        {"expense"},
		"date":        {srv.currentTime().Format("2006-01-02")},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	after := decodeDashboard(t, get(t, srv, "/api/dashboard"))
	assert.Equal(t, 1, after.Summary.TransactionCount)
	assert.Equal(t, "4.50", after.Summary.CurrentMonthExpenses)
}

func TestPostRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitPerMinute: 1})

	rec := post(t, srv, "/categories", url.Values{"name": {"Food"}, "color": {"#ff0000"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = post(t, srv, "/categories", url.Values{"name": {"Fun"}, "color": {"#ff0000"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, get(t, srv, "/categories").Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrDuplicateBudget, http.StatusConflict},
		{core.ErrCategoryInUse, http.StatusConflict},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{errBadForm, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
