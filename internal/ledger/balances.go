// Package ledger derives balances, analytics and settle-up transfers from a
// trip's expenses. Every function is pure: results are recomputed from the
// trip on each call and nothing is cached.
package ledger

import (
	"fmt"

	"splitsmart/internal/core"
)

// Balances maps member id to net position. Positive means the member is
// owed money, negative means the member owes money.
type Balances map[string]core.Money

// Portion is one participant's share of an expense.
type Portion struct {
	MemberID string
	Amount   core.Money
}

// Status labels used when presenting a balance.
const (
	StatusSettled  = "Settled"
	StatusGetsBack = "Gets back"
	StatusOwes     = "Owes"
)

// ComputeBalances returns the net position of every trip member.
//
// Algorithm:
// - every member starts at zero
// - the payer of an expense is credited with the full amount
// - each participant is debited with their portion (see Split)
//
// Portions always add up to the expense amount, so the balances of a trip
// sum to exactly zero. The result does not depend on expense order.
func ComputeBalances(trip core.Trip) (Balances, error) {
	balances := make(Balances, len(trip.Members))
	for _, m := range trip.Members {
		balances[m.ID] = core.Money{}
	}

	for _, e := range trip.Expenses {
		if err := trip.CheckReferences(e); err != nil {
			return nil, fmt.Errorf("expense %q: %w", e.ID, err)
		}
		portions, err := Split(e)
		if err != nil {
			return nil, fmt.Errorf("expense %q: %w", e.ID, err)
		}
		balances[e.PaidBy] = balances[e.PaidBy].Add(e.Amount)
		for _, p := range portions {
			balances[p.MemberID] = balances[p.MemberID].Sub(p.Amount)
		}
	}
	return balances, nil
}

// Split divides an expense among its participants, in SplitAmong order.
//
// Equal split: every participant owes amount/k cents and the remaining
// amount%k cents go one each to the first participants.
//
// Custom split: each participant owes their entry in Shares (missing entries
// owe nothing). A residual of at most one cent, allowed by
// ValidateCustomSplit, is absorbed by the first participant.
func Split(e core.Expense) ([]Portion, error) {
	k := len(e.SplitAmong)
	if k == 0 {
		return nil, &core.ValidationError{Field: "splitAmong", Err: core.ErrEmptySplit}
	}

	portions := make([]Portion, k)
	if e.Shares != nil {
		if err := ValidateCustomSplit(e.Amount, e.SplitAmong, e.Shares); err != nil {
			return nil, err
		}
		var sum core.Money
		for i, id := range e.SplitAmong {
			portions[i] = Portion{MemberID: id, Amount: e.Shares[id]}
			sum = sum.Add(e.Shares[id])
		}
		portions[0].Amount = portions[0].Amount.Add(e.Amount.Sub(sum))
		return portions, nil
	}

	base := e.Amount.Cents / int64(k)
	remainder := e.Amount.Cents % int64(k)
	for i, id := range e.SplitAmong {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		portions[i] = Portion{MemberID: id, Amount: core.Cents(cents)}
	}
	return portions, nil
}

// ValidateCustomSplit accepts shares that add up to the amount within one
// cent, reference only split participants and are not negative.
func ValidateCustomSplit(amount core.Money, splitAmong []string, shares map[string]core.Money) error {
	inSplit := make(map[string]bool, len(splitAmong))
	for _, id := range splitAmong {
		inSplit[id] = true
	}

	var sum core.Money
	for id, share := range shares {
		if !inSplit[id] {
			return &core.ValidationError{Field: "shares", Err: fmt.Errorf("%w: %s", core.ErrShareNotInSplit, id)}
		}
		if share.Cents < 0 {
			return &core.ValidationError{Field: "shares", Err: core.ErrNegativeAmount}
		}
		sum = sum.Add(share)
	}
	if diff := amount.Sub(sum).Abs(); diff.Cents > 1 {
		return &core.ValidationError{
			Field: "shares",
			Err:   fmt.Errorf("%w: shares total %s, amount %s", core.ErrSplitMismatch, sum, amount),
		}
	}
	return nil
}

// IsSettled reports whether a balance rounds to zero at cent precision.
func IsSettled(m core.Money) bool {
	return m.Cents == 0
}

// Status returns the presentation label for a balance.
func Status(m core.Money) string {
	switch {
	case IsSettled(m):
		return StatusSettled
	case m.Cents > 0:
		return StatusGetsBack
	default:
		return StatusOwes
	}
}

// Sum returns the sum of all balances. It is zero for any valid trip.
func (b Balances) Sum() core.Money {
	var total core.Money
	for _, m := range b {
		total = total.Add(m)
	}
	return total
}

// MemberBalance is a balance labelled with its member for presentation.
type MemberBalance struct {
	MemberID string     `json:"memberId"`
	Name     string     `json:"name"`
	Balance  core.Money `json:"balance"`
	Status   string     `json:"status"`
}

// MemberBalances lists balances in trip member order.
func MemberBalances(trip core.Trip, balances Balances) []MemberBalance {
	out := make([]MemberBalance, len(trip.Members))
	for i, m := range trip.Members {
		b := balances[m.ID]
		out[i] = MemberBalance{MemberID: m.ID, Name: m.Name, Balance: b, Status: Status(b)}
	}
	return out
}
