package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"splitsmart/internal/log"
	"splitsmart/internal/notify"
	"splitsmart/internal/report"
	ports "splitsmart/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultActivitySheet = "Activity"
	// Sheet titles are limited to 100 characters.
	maxSheetTitle = 100
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	ActivitySheet      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	activitySheet string
	logger        *log.Logger
}

var (
	_ ports.ReportExporter   = (*Client)(nil)
	_ ports.ActivityRecorder = (*Client)(nil)
)

// New creates a Sheets client authenticated with service account
// credentials. Inline JSON wins over the file path; with neither set the
// standard GOOGLE_APPLICATION_CREDENTIALS variable is consulted.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.ActivitySheet, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, activitySheet string, logger *log.Logger) *Client {
	if strings.TrimSpace(activitySheet) == "" {
		activitySheet = DefaultActivitySheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		activitySheet: activitySheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentialsJSON(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportReport writes the report into a sheet named after its file name,
// creating the sheet when missing and replacing any previous content.
func (c *Client) ExportReport(ctx context.Context, r report.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := sheetTitle(r.FileName)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	all := quoteSheet(title) + "!A:B"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", all, err)
	}

	rows := toValues(r.Rows())
	ref := fmt.Sprintf("%s!A1:B%d", quoteSheet(title), len(rows))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}

	c.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		"sheet", title,
		"rows", len(rows))
	return ref, nil
}

// RecordActivity appends a row describing a delivered notification.
func (c *Client) RecordActivity(ctx context.Context, n notify.Notification) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row := []any{
		n.CreatedAt.UTC().Format(time.RFC3339),
		n.TripName,
		string(n.Kind),
		"",
		"",
		n.Actor,
		len(n.To),
	}
	if n.Expense != nil {
		row[3] = n.Expense.Title
		row[4] = n.Expense.Amount.String()
	}

	rng := quoteSheet(c.activitySheet) + "!A:G"
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append activity to %s: %w", c.activitySheet, err)
	}
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", "sheet", title)
	return nil
}

func sheetTitle(name string) string {
	if len(name) > maxSheetTitle {
		return name[:maxSheetTitle]
	}
	return name
}

// quoteSheet quotes a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
