// Package report turns a trip into an ordered, presentation-neutral document
// and renders it as markdown, HTML or styled terminal text.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"splitsmart/internal/core"
	"splitsmart/internal/ledger"
)

type Kind string

const (
	KindTripReport  Kind = "report"
	KindExpenseList Kind = "expenses"
)

// ParseKind maps a kind name to a Kind. An empty name selects the trip report.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case "":
		return KindTripReport, nil
	case KindTripReport, KindExpenseList:
		return k, nil
	default:
		return "", fmt.Errorf("unknown report kind %q", s)
	}
}

// Item is a numbered entry with its own detail lines, such as one expense.
type Item struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines,omitempty"`
	Items []Item   `json:"items,omitempty"`
}

type Report struct {
	Kind     Kind      `json:"kind"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Summary  []string  `json:"summary,omitempty"`
	Sections []Section `json:"sections"`
	Footer   []string  `json:"footer"`
	FileName string    `json:"fileName"`
}

const (
	noDescription = "No description"
	noExpenses    = "No expenses recorded for this trip."
	poweredBy     = "Powered by SplitSmart"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName derives the download name (without extension) from the trip
// name: every non-alphanumeric character becomes "_" and the result is
// lower-cased before the kind suffix is added.
func FileName(tripName string, kind Kind) string {
	base := strings.ToLower(unsafeFileChars.ReplaceAllString(tripName, "_"))
	if kind == KindExpenseList {
		return base + "_expenses"
	}
	return base + "_expense_report"
}

type formatter struct {
	currency string
}

func (f formatter) money(m core.Money) string { return m.Format(f.currency) }

// Build extracts the full trip report. balances must come from
// ledger.ComputeBalances for the same trip.
func Build(trip core.Trip, balances ledger.Balances, now time.Time, currency string) Report {
	f := formatter{currency: currency}
	stats := ledger.Summary(trip)

	description := trip.Description
	if strings.TrimSpace(description) == "" {
		description = noDescription
	}

	r := Report{
		Kind:     KindTripReport,
		Title:    "Trip Expense Report",
		Subtitle: trip.Name,
		Summary: []string{
			"Description: " + description,
			"Duration: " + duration(trip),
			"Total Amount: " + f.money(trip.TotalAmount),
			fmt.Sprintf("Members: %d", len(trip.Members)),
		},
		FileName: FileName(trip.Name, KindTripReport),
	}

	members := Section{Title: "Trip Members"}
	for i, m := range trip.Members {
		line := fmt.Sprintf("%d. %s (%s)", i+1, m.Name, m.Email)
		if m.IsAdmin {
			line += " - Admin"
		}
		members.Lines = append(members.Lines, line)
	}

	balanceSection := Section{Title: "Member Balances"}
	for _, m := range trip.Members {
		balanceSection.Lines = append(balanceSection.Lines, m.Name+": "+f.balance(balances[m.ID]))
	}

	expenses := Section{Title: "Expense Details"}
	if len(trip.Expenses) == 0 {
		expenses.Lines = []string{noExpenses}
	}
	for i, e := range trip.Expenses {
		names := make([]string, len(e.SplitAmong))
		for j, id := range e.SplitAmong {
			names[j] = trip.MemberName(id)
		}
		item := Item{
			Heading: fmt.Sprintf("%d. %s", i+1, e.Title),
			Lines: []string{
				"Amount: " + f.money(e.Amount),
				"Category: " + e.CategoryName(),
				"Date: " + e.Date.Display(),
				"Paid by: " + trip.MemberName(e.PaidBy),
				"Split among: " + strings.Join(names, ", "),
			},
		}
		if e.Description != "" {
			item.Lines = append(item.Lines, "Description: "+e.Description)
		}
		expenses.Items = append(expenses.Items, item)
	}

	summary := Section{
		Title: "Trip Summary",
		Lines: []string{
			fmt.Sprintf("Total Expenses: %d", stats.ExpenseCount),
			"Total Amount: " + f.money(trip.TotalAmount),
			"Average per Expense: " + f.money(stats.AveragePerExpense),
			"Average per Person: " + f.money(stats.AveragePerPerson),
		},
	}

	r.Sections = []Section{members, balanceSection, expenses, summary}

	if len(trip.Expenses) > 0 {
		categories := Section{Title: "Spending by Category"}
		for _, s := range ledger.ByCategory(trip) {
			categories.Lines = append(categories.Lines,
				fmt.Sprintf("%s: %s (%s%%)", s.Label, f.money(s.Amount), s.Percent.StringFixed(1)))
		}
		r.Sections = append(r.Sections, categories)
	}

	r.Footer = []string{
		fmt.Sprintf("Generated on %s at %s", now.Format("Jan 2, 2006"), now.Format("3:04:05 PM")),
		poweredBy,
	}
	return r
}

// BuildExpenseList extracts the short expense listing for the given
// expenses, which may be a filtered subset of the trip's.
func BuildExpenseList(trip core.Trip, expenses []core.Expense, now time.Time, currency string) Report {
	f := formatter{currency: currency}
	r := Report{
		Kind:     KindExpenseList,
		Title:    "Expense List",
		Subtitle: "Trip: " + trip.Name,
		FileName: FileName(trip.Name, KindExpenseList),
	}

	list := Section{Title: "Expenses"}
	if len(expenses) == 0 {
		list.Lines = []string{noExpenses}
	}
	for i, e := range expenses {
		item := Item{
			Heading: fmt.Sprintf("%d. %s", i+1, e.Title),
			Lines:   []string{fmt.Sprintf("%s - %s - %s", f.money(e.Amount), e.CategoryName(), e.Date.Display())},
		}
		if e.Description != "" {
			item.Lines = append(item.Lines, "Description: "+e.Description)
		}
		list.Items = append(list.Items, item)
	}
	r.Sections = []Section{list}
	r.Footer = []string{"Generated on " + now.Format("Jan 2, 2006")}
	return r
}

func (f formatter) balance(m core.Money) string {
	switch ledger.Status(m) {
	case ledger.StatusSettled:
		return ledger.StatusSettled
	case ledger.StatusGetsBack:
		return ledger.StatusGetsBack + " " + f.money(m)
	default:
		return ledger.StatusOwes + " " + f.money(m.Abs())
	}
}

func duration(t core.Trip) string {
	if t.StartDate.IsZero() && t.EndDate.IsZero() {
		return "Not set"
	}
	return t.StartDate.Display() + " - " + t.EndDate.Display()
}

// Rows flattens the report into spreadsheet rows, one cell per row, with
// blank rows between blocks.
func (r Report) Rows() [][]string {
	rows := [][]string{{r.Title}, {r.Subtitle}}
	for _, l := range r.Summary {
		rows = append(rows, []string{l})
	}
	for _, s := range r.Sections {
		rows = append(rows, []string{}, []string{s.Title})
		for _, l := range s.Lines {
			rows = append(rows, []string{l})
		}
		for _, it := range s.Items {
			rows = append(rows, []string{it.Heading})
			for _, l := range it.Lines {
				rows = append(rows, []string{"", l})
			}
		}
	}
	rows = append(rows, []string{})
	for _, l := range r.Footer {
		rows = append(rows, []string{l})
	}
	return rows
}
