// Package notify builds the emails sent to trip members after a change and
// dispatches them without blocking the mutation that caused them.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"splitsmart/internal/core"
)

type Kind string

const (
	KindExpenseAdded   Kind = "expense_added"
	KindExpenseUpdated Kind = "expense_updated"
	KindExpenseDeleted Kind = "expense_deleted"
	KindTripInvite     Kind = "trip_invite"
)

// ExpenseDetails is the expense summary carried by expense notifications.
type ExpenseDetails struct {
	Title    string     `json:"title"`
	Amount   core.Money `json:"amount"`
	PaidBy   string     `json:"paidBy"`
	Category string     `json:"category"`
	Date     core.Date  `json:"date"`
}

// Notification is one email addressed to one or more recipients.
type Notification struct {
	Kind       Kind            `json:"kind"`
	To         []string        `json:"to"`
	Subject    string          `json:"subject"`
	Message    string          `json:"message"`
	TripID     string          `json:"tripId"`
	TripName   string          `json:"tripName"`
	Actor      string          `json:"actor"`
	Expense    *ExpenseDetails `json:"expense,omitempty"`
	InviteLink string          `json:"inviteLink,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Notifier delivers a notification. Implementations may be slow or fail;
// callers go through a Dispatcher so neither affects trip state.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Recipients returns the emails of every member except the actor. Members
// without an email are skipped.
func Recipients(trip core.Trip, actorID string) []string {
	var to []string
	for _, m := range trip.Members {
		if m.ID == actorID || strings.TrimSpace(m.Email) == "" {
			continue
		}
		to = append(to, m.Email)
	}
	return to
}

func details(trip core.Trip, e core.Expense) *ExpenseDetails {
	return &ExpenseDetails{
		Title:    e.Title,
		Amount:   e.Amount,
		PaidBy:   trip.MemberName(e.PaidBy),
		Category: e.Category,
		Date:     e.Date,
	}
}

// ExpenseAdded builds the notification for a new expense.
func ExpenseAdded(trip core.Trip, e core.Expense, actorID string, now time.Time) Notification {
	actor := trip.MemberName(actorID)
	return Notification{
		Kind:    KindExpenseAdded,
		To:      Recipients(trip, actorID),
		Subject: fmt.Sprintf("New expense added to %s", trip.Name),
		Message: fmt.Sprintf("%s added a new expense \"%s\" for %s to your trip \"%s\".",
			actor, e.Title, e.Amount.Display(), trip.Name),
		TripID:    trip.ID,
		TripName:  trip.Name,
		Actor:     actor,
		Expense:   details(trip, e),
		CreatedAt: now,
	}
}

// ExpenseUpdated builds the notification for an edited expense.
func ExpenseUpdated(trip core.Trip, e core.Expense, actorID string, now time.Time) Notification {
	actor := trip.MemberName(actorID)
	return Notification{
		Kind:      KindExpenseUpdated,
		To:        Recipients(trip, actorID),
		Subject:   fmt.Sprintf("Expense updated in %s", trip.Name),
		Message:   fmt.Sprintf("%s updated the expense \"%s\" in your trip \"%s\".", actor, e.Title, trip.Name),
		TripID:    trip.ID,
		TripName:  trip.Name,
		Actor:     actor,
		Expense:   details(trip, e),
		CreatedAt: now,
	}
}

// ExpenseDeleted builds the notification for a removed expense.
func ExpenseDeleted(trip core.Trip, title, actorID string, now time.Time) Notification {
	actor := trip.MemberName(actorID)
	return Notification{
		Kind:      KindExpenseDeleted,
		To:        Recipients(trip, actorID),
		Subject:   fmt.Sprintf("Expense deleted from %s", trip.Name),
		Message:   fmt.Sprintf("%s deleted the expense \"%s\" from your trip \"%s\".", actor, title, trip.Name),
		TripID:    trip.ID,
		TripName:  trip.Name,
		Actor:     actor,
		CreatedAt: now,
	}
}

// TripInvite builds the invitation sent to a newly added member.
func TripInvite(trip core.Trip, invitee core.Member, actorID, link string, now time.Time) Notification {
	actor := trip.MemberName(actorID)
	return Notification{
		Kind:    KindTripInvite,
		To:      []string{invitee.Email},
		Subject: fmt.Sprintf("You're invited to join %s", trip.Name),
		Message: fmt.Sprintf("%s has invited you to join the trip \"%s\". Click the link to join: %s",
			actor, trip.Name, link),
		TripID:     trip.ID,
		TripName:   trip.Name,
		Actor:      actor,
		InviteLink: link,
		CreatedAt:  now,
	}
}
