package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "finboard/internal/log"
	ports "finboard/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Transactions"); the row's year is prefixed.
	sheetBase string
	logger    *applog.Logger
}

var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.LedgerReader        = (*Client)(nil)
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	// Options are appended after the credentials. Tests point the client at a
	// fake endpoint with them.
	Options []goption.ClientOption
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}

	opts, err := credentialOptions(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(opts, cfg.Options...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets client ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", base)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetBase: base, logger: logger}, nil
}

// credentialOptions prefers inline JSON over a file. When neither is set the
// caller is expected to supply auth through cfg.Options.
func credentialOptions(cfg Config) ([]goption.ClientOption, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []goption.ClientOption{
			goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return []goption.ClientOption{
			goption.WithCredentialsJSON(data),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	case len(cfg.Options) > 0:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Export appends r to the sheet of the year it was recorded in.
func (c *Client) Export(ctx context.Context, r ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if r.ID == "" {
		return "", errors.New("ledger row without transaction ID")
	}

	sheet := yearPrefixedName(c.sheetBase, r.RecordedAt.Year())
	rng := fmt.Sprintf("%s!A:H", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{r.Values()}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Ledger row appended",
		applog.FieldEntityID, r.ID,
		applog.FieldOperation, r.Op,
		"sheets_ref", ref)
	return ref, nil
}

// Rows reads back the current year's ledger.
func (c *Client) Rows(ctx context.Context) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, time.Now().Year())
	rng := fmt.Sprintf("%s!A:H", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRows(resp.Values)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
