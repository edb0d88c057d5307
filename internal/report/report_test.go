package report

import (
	"testing"
	"time"

	"splitsmart/internal/core"
	"splitsmart/internal/ledger"
)

var generatedAt = time.Date(2024, 3, 5, 15, 4, 5, 0, time.UTC)

func sampleTrip() core.Trip {
	return core.Trip{
		ID:        "t1",
		Name:      "Alps 2024!",
		StartDate: core.NewDate(2024, 3, 1),
		EndDate:   core.NewDate(2024, 3, 4),
		Members: []core.Member{
			{ID: "a", Name: "Alice", Email: "alice@example.com", IsAdmin: true},
			{ID: "b", Name: "Bob", Email: "bob@example.com"},
			{ID: "c", Name: "Carol", Email: "carol@example.com"},
		},
		Expenses: []core.Expense{
			{
				ID: "e1", Title: "Dinner", Amount: core.Cents(9000), PaidBy: "a",
				SplitAmong: []string{"a", "b", "c"}, Category: core.CategoryFood,
				Date: core.NewDate(2024, 3, 1), Description: "Fondue",
			},
			{
				ID: "e2", Title: "Taxi", Amount: core.Cents(3000), PaidBy: "b",
				SplitAmong: []string{"a", "b"}, Category: core.CategoryTransportation,
				Date: core.NewDate(2024, 3, 2),
			},
		},
		TotalAmount: core.Cents(12000),
		CreatedBy:   "a",
	}
}

func buildSample(t *testing.T) Report {
	t.Helper()
	trip := sampleTrip()
	balances, err := ledger.ComputeBalances(trip)
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	return Build(trip, balances, generatedAt, "USD")
}

func section(t *testing.T, r Report, title string) Section {
	t.Helper()
	for _, s := range r.Sections {
		if s.Title == title {
			return s
		}
	}
	t.Fatalf("section %q not found", title)
	return Section{}
}

func equalLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want string
	}{
		{"Alps 2024!", KindTripReport, "alps_2024__expense_report"},
		{"Beach", KindExpenseList, "beach_expenses"},
		{"a-b.c", KindTripReport, "a_b_c_expense_report"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name, tt.kind); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.name, tt.kind, got, tt.want)
		}
	}
}

func TestBuildTripReport(t *testing.T) {
	r := buildSample(t)

	if r.Title != "Trip Expense Report" || r.Subtitle != "Alps 2024!" {
		t.Fatalf("unexpected heading %q / %q", r.Title, r.Subtitle)
	}
	if r.FileName != "alps_2024__expense_report" {
		t.Errorf("FileName = %q", r.FileName)
	}
	equalLines(t, r.Summary, []string{
		"Description: No description",
		"Duration: Mar 1, 2024 - Mar 4, 2024",
		"Total Amount: $120.00",
		"Members: 3",
	})
	equalLines(t, section(t, r, "Trip Members").Lines, []string{
		"1. Alice (alice@example.com) - Admin",
		"2. Bob (bob@example.com)",
		"3. Carol (carol@example.com)",
	})
	equalLines(t, section(t, r, "Member Balances").Lines, []string{
		"Alice: Gets back $45.00",
		"Bob: Owes $15.00",
		"Carol: Owes $30.00",
	})

	details := section(t, r, "Expense Details")
	if len(details.Items) != 2 {
		t.Fatalf("expected 2 expense items, got %d", len(details.Items))
	}
	if details.Items[0].Heading != "1. Dinner" {
		t.Errorf("heading = %q", details.Items[0].Heading)
	}
	equalLines(t, details.Items[0].Lines, []string{
		"Amount: $90.00",
		"Category: Food",
		"Date: Mar 1, 2024",
		"Paid by: Alice",
		"Split among: Alice, Bob, Carol",
		"Description: Fondue",
	})
	if n := len(details.Items[1].Lines); n != 5 {
		t.Errorf("expense without description should have 5 lines, got %d", n)
	}

	equalLines(t, section(t, r, "Trip Summary").Lines, []string{
		"Total Expenses: 2",
		"Total Amount: $120.00",
		"Average per Expense: $60.00",
		"Average per Person: $40.00",
	})
	equalLines(t, section(t, r, "Spending by Category").Lines, []string{
		"Food: $90.00 (75.0%)",
		"Transportation: $30.00 (25.0%)",
	})
	equalLines(t, r.Footer, []string{
		"Generated on Mar 5, 2024 at 3:04:05 PM",
		"Powered by SplitSmart",
	})
}

func TestBuildTripReportWithoutExpenses(t *testing.T) {
	trip := sampleTrip()
	trip.Expenses = nil
	trip.TotalAmount = core.Money{}
	trip.StartDate, trip.EndDate = core.Date{}, core.Date{}
	balances, err := ledger.ComputeBalances(trip)
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}

	r := Build(trip, balances, generatedAt, "USD")

	equalLines(t, section(t, r, "Expense Details").Lines, []string{"No expenses recorded for this trip."})
	equalLines(t, section(t, r, "Member Balances").Lines, []string{
		"Alice: Settled",
		"Bob: Settled",
		"Carol: Settled",
	})
	if r.Summary[1] != "Duration: Not set" {
		t.Errorf("duration = %q", r.Summary[1])
	}
	for _, s := range r.Sections {
		if s.Title == "Spending by Category" {
			t.Fatal("category section should be omitted when there are no expenses")
		}
	}
}

func TestBuildTripReportUnknownPayer(t *testing.T) {
	trip := sampleTrip()
	trip.Expenses[1].PaidBy = "gone"
	trip.Expenses[1].SplitAmong = []string{"a", "gone"}

	r := Build(trip, ledger.Balances{}, generatedAt, "USD")
	lines := section(t, r, "Expense Details").Items[1].Lines
	if lines[3] != "Paid by: Unknown" {
		t.Errorf("paid by = %q", lines[3])
	}
	if lines[4] != "Split among: Alice, Unknown" {
		t.Errorf("split among = %q", lines[4])
	}
}

func TestBuildExpenseList(t *testing.T) {
	trip := sampleTrip()
	r := BuildExpenseList(trip, trip.Expenses, generatedAt, "EUR")

	if r.Title != "Expense List" || r.Subtitle != "Trip: Alps 2024!" {
		t.Fatalf("unexpected heading %q / %q", r.Title, r.Subtitle)
	}
	if r.FileName != "alps_2024__expenses" {
		t.Errorf("FileName = %q", r.FileName)
	}
	items := r.Sections[0].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	equalLines(t, items[0].Lines, []string{"€90.00 - Food - Mar 1, 2024", "Description: Fondue"})
	equalLines(t, r.Footer, []string{"Generated on Mar 5, 2024"})

	empty := BuildExpenseList(trip, nil, generatedAt, "USD")
	equalLines(t, empty.Sections[0].Lines, []string{"No expenses recorded for this trip."})
}

func TestRows(t *testing.T) {
	r := buildSample(t)
	rows := r.Rows()

	if rows[0][0] != "Trip Expense Report" || rows[1][0] != "Alps 2024!" {
		t.Fatalf("unexpected first rows: %q", rows[:2])
	}
	last := rows[len(rows)-1]
	if last[0] != "Powered by SplitSmart" {
		t.Errorf("last row = %q", last)
	}
	var found bool
	for _, row := range rows {
		if len(row) == 2 && row[1] == "Paid by: Bob" {
			found = true
		}
	}
	if !found {
		t.Error("expense detail lines should be indented into the second column")
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindTripReport, false},
		{"report", KindTripReport, false},
		{" expenses ", KindExpenseList, false},
		{"summary", "", true},
		{"Expenses", "", true},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
