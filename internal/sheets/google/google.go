package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Config selects the spreadsheet, its tabs and the service account.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	BudgetsSheet      string
	// One of CredentialsJSON or CredentialsFile is required.
	CredentialsJSON string
	CredentialsFile string
}

func (c Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		errs = append(errs, "missing spreadsheet id")
	}
	if strings.TrimSpace(c.TransactionsSheet) == "" {
		errs = append(errs, "missing transactions sheet name")
	}
	if strings.TrimSpace(c.BudgetsSheet) == "" {
		errs = append(errs, "missing budgets sheet name")
	}
	if c.CredentialsJSON == "" && c.CredentialsFile == "" {
		errs = append(errs, "missing service account credentials")
	}
	if len(errs) > 0 {
		return fmt.Errorf("sheets config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Client exports ledger data to Google Sheets.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	budgetsSheet      string
}

var _ ports.Exporter = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		budgetsSheet:      cfg.BudgetsSheet,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// newSheetsService authenticates with service account credentials on top of
// a pooled HTTP transport.
func newSheetsService(ctx context.Context, credentialsJSON []byte) (*gsheet.Service, error) {
	creds, err := oauthgoogle.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	base := newHTTPClientWithPooling()
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(authCtx, creds.TokenSource)
	httpClient.Timeout = base.Timeout

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account", "project", creds.ProjectID)
	return gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
}

func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) ready() error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	return nil
}

// findRow returns the 1-based row holding id in column A, or 0.
func (c *Client) findRow(ctx context.Context, id core.ID) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return rowIndex(resp.Values, id.String()), nil
}

func rowIndex(values [][]interface{}, id string) int {
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func toValues(rows ...[]string) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		cells := make([]interface{}, len(r))
		for i, v := range r {
			cells[i] = v
		}
		out = append(out, cells)
	}
	return out
}

func (c *Client) UpsertTransaction(ctx context.Context, row ports.TransactionRow) error {
	if err := c.ready(); err != nil {
		return err
	}
	n, err := c.findRow(ctx, row.ID)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: toValues(row.Values())}
	if n > 0 {
		rng := fmt.Sprintf("%s!A%d:F%d", c.transactionsSheet, n, n)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:F", c.transactionsSheet)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.transactionsSheet, err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.ID) error {
	if err := c.ready(); err != nil {
		return err
	}
	n, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		slog.DebugContext(ctx, "Transaction row already absent", "id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx, c.transactionsSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(n - 1),
			EndIndex:   int64(n),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", n, c.transactionsSheet, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", title)
}

// rewrite clears a tab and writes header plus rows from A1.
func (c *Client) rewrite(ctx context.Context, sheet string, rows [][]string) error {
	if err := c.ready(); err != nil {
		return err
	}
	clearRng := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}
	rng := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: toValues(rows...)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) ReplaceTransactions(ctx context.Context, rows []ports.TransactionRow) error {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, ports.TransactionHeader)
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return c.rewrite(ctx, c.transactionsSheet, out)
}

func (c *Client) WriteBudgets(ctx context.Context, rows []ports.BudgetRow) error {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, ports.BudgetHeader)
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return c.rewrite(ctx, c.budgetsSheet, out)
}
