package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"splitsmart/internal/core"
)

// Share is an amount and its percentage of the trip total.
type Share struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Amount  core.Money      `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// DailyTotal is the amount spent on one calendar day.
type DailyTotal struct {
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// Stats summarises a trip.
type Stats struct {
	ExpenseCount      int        `json:"expenseCount"`
	MemberCount       int        `json:"memberCount"`
	CategoryCount     int        `json:"categoryCount"`
	Total             core.Money `json:"total"`
	AveragePerExpense core.Money `json:"averagePerExpense"`
	AveragePerPerson  core.Money `json:"averagePerPerson"`
}

// Percent returns part/total*100. A zero total yields zero.
func Percent(part, total core.Money) decimal.Decimal {
	if total.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total.Cents), 4)
}

// ByCategory groups spending per category, largest first. Ties are ordered
// by category name. Expenses without a category count as Other.
func ByCategory(trip core.Trip) []Share {
	totals := make(map[string]core.Money)
	for _, e := range trip.Expenses {
		cat := e.CategoryName()
		totals[cat] = totals[cat].Add(e.Amount)
	}

	total := trip.SumExpenses()
	shares := make([]Share, 0, len(totals))
	for cat, amount := range totals {
		shares = append(shares, Share{Key: cat, Label: cat, Amount: amount, Percent: Percent(amount, total)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Key < shares[j].Key
	})
	return shares
}

// ByPayer returns how much each member paid, in member order. Members who
// paid nothing are included with a zero amount.
func ByPayer(trip core.Trip) []Share {
	paid := make(map[string]core.Money, len(trip.Members))
	for _, e := range trip.Expenses {
		paid[e.PaidBy] = paid[e.PaidBy].Add(e.Amount)
	}

	total := trip.SumExpenses()
	shares := make([]Share, len(trip.Members))
	for i, m := range trip.Members {
		shares[i] = Share{Key: m.ID, Label: m.Name, Amount: paid[m.ID], Percent: Percent(paid[m.ID], total)}
	}
	return shares
}

// ByDay returns spending per calendar day in ascending date order.
func ByDay(trip core.Trip) []DailyTotal {
	index := make(map[string]int)
	var days []DailyTotal
	for _, e := range trip.Expenses {
		key := e.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DailyTotal{Date: e.Date})
		}
		days[i].Amount = days[i].Amount.Add(e.Amount)
		days[i].Count++
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date.Time) })
	return days
}

// Summary computes trip level statistics. Averages are rounded half-up to
// the cent and are zero when there is nothing to divide.
func Summary(trip core.Trip) Stats {
	total := trip.SumExpenses()
	categories := make(map[string]bool)
	for _, e := range trip.Expenses {
		categories[e.CategoryName()] = true
	}
	s := Stats{
		ExpenseCount:  len(trip.Expenses),
		MemberCount:   len(trip.Members),
		CategoryCount: len(categories),
		Total:         total,
	}
	if s.ExpenseCount > 0 {
		s.AveragePerExpense = total.DivRound(s.ExpenseCount)
	}
	if s.MemberCount > 0 {
		s.AveragePerPerson = total.DivRound(s.MemberCount)
	}
	return s
}
