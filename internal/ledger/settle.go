package ledger

import (
	"sort"

	"splitsmart/internal/core"
)

// Transfer is one suggested payment that moves balances toward zero.
type Transfer struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Amount core.Money `json:"amount"`
}

// Settlements suggests transfers that settle every balance.
//
// Greedy matching: debtors and creditors are each sorted by amount, largest
// first, with member order breaking ties. The largest debtor pays the
// largest creditor the smaller of the two amounts until both lists are
// exhausted. Because balances sum to zero, every member ends settled.
func Settlements(balances Balances, memberOrder []string) []Transfer {
	type position struct {
		id    string
		cents int64
		rank  int
	}

	rank := make(map[string]int, len(memberOrder))
	for i, id := range memberOrder {
		rank[id] = i
	}

	var debtors, creditors []position
	for id, m := range balances {
		r, ok := rank[id]
		if !ok {
			r = len(memberOrder)
		}
		switch {
		case m.Cents < 0:
			debtors = append(debtors, position{id: id, cents: -m.Cents, rank: r})
		case m.Cents > 0:
			creditors = append(creditors, position{id: id, cents: m.Cents, rank: r})
		}
	}
	byAmount := func(ps []position) func(i, j int) bool {
		return func(i, j int) bool {
			if ps[i].cents != ps[j].cents {
				return ps[i].cents > ps[j].cents
			}
			if ps[i].rank != ps[j].rank {
				return ps[i].rank < ps[j].rank
			}
			return ps[i].id < ps[j].id
		}
	}
	sort.Slice(debtors, byAmount(debtors))
	sort.Slice(creditors, byAmount(creditors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].cents
		if creditors[j].cents < amount {
			amount = creditors[j].cents
		}
		transfers = append(transfers, Transfer{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: core.Cents(amount),
		})
		debtors[i].cents -= amount
		creditors[j].cents -= amount
		if debtors[i].cents == 0 {
			i++
		}
		if creditors[j].cents == 0 {
			j++
		}
	}
	return transfers
}
