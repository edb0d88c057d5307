package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"splitsmart/internal/core"
	"splitsmart/internal/log"
	"splitsmart/internal/notify"
	"splitsmart/internal/report"
)

// fakeSheets emulates the subset of the Sheets REST API used by Client.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared []string
	written map[string][][]any
	calls   []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.calls = append(f.calls, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/sheet-1"):
		ss := gsheet.Spreadsheet{SpreadsheetId: "sheet-1"}
		for _, t := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: t}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, q := range req.Requests {
			if q.AddSheet != nil {
				f.added = append(f.added, q.AddSheet.Properties.Title)
				f.titles = append(f.titles, q.AddSheet.Properties.Title)
			}
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, rangeOf(path, ":clear"))
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.record(rangeOf(path, ":append"), r.Body)
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.record(rangeOf(path, ""), r.Body)
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func (f *fakeSheets) record(rng string, body io.Reader) {
	var vr gsheet.ValueRange
	_ = json.NewDecoder(body).Decode(&vr)
	if f.written == nil {
		f.written = make(map[string][][]any)
	}
	f.written[rng] = append(f.written[rng], vr.Values...)
}

func rangeOf(path, suffix string) string {
	i := strings.Index(path, "/values/")
	return strings.TrimSuffix(path[i+len("/values/"):], suffix)
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	logger := log.New(log.Config{Format: log.FormatText, Output: io.Discard})
	return NewWithService(svc, "sheet-1", "", logger)
}

func sampleReport() report.Report {
	trip := core.Trip{
		ID:   "t1",
		Name: "Alps",
		Members: []core.Member{
			{ID: "a", Name: "Alice", Email: "alice@example.com", IsAdmin: true},
		},
	}
	return report.Build(trip, nil, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), "USD")
}

func TestExportReportCreatesSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Activity"}}
	c := newTestClient(t, fake)
	r := sampleReport()

	ref, err := c.ExportReport(context.Background(), r)
	if err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	rows := r.Rows()
	want := "'alps_expense_report'!A1:B" + strconv.Itoa(len(rows))
	if ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}
	if len(fake.added) != 1 || fake.added[0] != "alps_expense_report" {
		t.Errorf("expected sheet to be created, added = %v", fake.added)
	}
	if len(fake.cleared) != 1 || fake.cleared[0] != "'alps_expense_report'!A:B" {
		t.Errorf("expected previous content to be cleared, got %v", fake.cleared)
	}
	got := fake.written[want]
	if len(got) != len(rows) {
		t.Fatalf("wrote %d rows, want %d", len(got), len(rows))
	}
	if got[0][0] != "Trip Expense Report" {
		t.Errorf("first cell = %v", got[0][0])
	}
}

func TestExportReportReusesExistingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"alps_expense_report"}}
	c := newTestClient(t, fake)

	if _, err := c.ExportReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	if len(fake.added) != 0 {
		t.Errorf("existing sheet should be reused, added = %v", fake.added)
	}
}

func TestRecordActivity(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	n := notify.Notification{
		Kind:      notify.KindExpenseAdded,
		To:        []string{"b@example.com", "c@example.com"},
		TripName:  "Alps",
		Actor:     "Alice",
		Expense:   &notify.ExpenseDetails{Title: "Dinner", Amount: core.Cents(4550)},
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}

	if err := c.RecordActivity(context.Background(), n); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	rows := fake.written["'Activity'!A:G"]
	if len(rows) != 1 {
		t.Fatalf("expected one appended row, got %v", fake.written)
	}
	want := []any{"2024-03-05T10:00:00Z", "Alps", "expense_added", "Dinner", "45.50", "Alice", float64(2)}
	for i, v := range want {
		if rows[0][i] != v {
			t.Errorf("cell %d = %#v, want %#v", i, rows[0][i], v)
		}
	}
}

func TestNilServiceErrors(t *testing.T) {
	c := &Client{}
	if _, err := c.ExportReport(context.Background(), sampleReport()); err == nil {
		t.Error("expected error without service")
	}
	if err := c.RecordActivity(context.Background(), notify.Notification{}); err == nil {
		t.Error("expected error without service")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.New(log.DefaultConfig()))
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentialsJSON(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	got, err := credentialsJSON(Config{ServiceAccountJSON: `{"type":"service_account"}`, ServiceAccountFile: "/nope"})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline JSON should win: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = credentialsJSON(Config{ServiceAccountFile: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}

	if _, err := credentialsJSON(Config{}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's trip"); got != "'Bob''s trip'" {
		t.Errorf("quoteSheet = %q", got)
	}
	long := strings.Repeat("x", 120)
	if got := sheetTitle(long); len(got) != maxSheetTitle {
		t.Errorf("sheetTitle length = %d", len(got))
	}
}
