package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Expense categories offered by the expense form. Any other non-empty
// string is accepted as a free-form category.
const (
	CategoryFood           = "Food"
	CategoryAccommodation  = "Accommodation"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryShopping       = "Shopping"
	CategoryActivities     = "Activities"
	CategoryUtilities      = "Utilities"
	CategoryOther          = "Other"
)

// Categories lists the standard categories in display order.
var Categories = []string{
	CategoryFood,
	CategoryAccommodation,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryActivities,
	CategoryUtilities,
	CategoryOther,
}

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Member struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"isAdmin"`
	}

	Expense struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Amount     Money    `json:"amount"`
		PaidBy     string   `json:"paidBy"`
		SplitAmong []string `json:"splitAmong"`
		// Shares holds explicit per-participant amounts for a custom split.
		// Nil means the amount is split equally.
		Shares      map[string]Money `json:"shares,omitempty"`
		Category    string           `json:"category"`
		Date        Date             `json:"date"`
		Description string           `json:"description,omitempty"`
	}

	Trip struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		StartDate   Date      `json:"startDate"`
		EndDate     Date      `json:"endDate"`
		Members     []Member  `json:"members"`
		Expenses    []Expense `json:"expenses"`
		TotalAmount Money     `json:"totalAmount"`
		CreatedBy   string    `json:"createdBy"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// State is the whole persisted ledger: every trip plus the active selection.
	State struct {
		Trips         []Trip `json:"trips"`
		CurrentTripID string `json:"currentTripId,omitempty"`
	}
)

var (
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrAmountTooLarge   = errors.New("amount too large")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyID          = errors.New("empty id")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrEmptyPayer       = errors.New("empty payer")
	ErrEmptySplit       = errors.New("expense must be split among at least one member")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrDuplicateEmail   = errors.New("duplicate email")
	ErrSplitMismatch    = errors.New("custom split does not add up to the expense amount")
	ErrShareNotInSplit  = errors.New("share assigned to a member outside the split")
	ErrDateRange        = errors.New("end date must not be before start date")
	ErrDescriptionLong  = errors.New("description too long (max 500 characters)")
	ErrTitleTooLong     = errors.New("title too long (max 200 characters)")
	ErrMissingCreator   = errors.New("trip creator must be one of its members")
	ErrConflict         = errors.New("already exists")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Display returns the date in the long form used by reports, e.g. "Mar 4, 2024".
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Stored trips may carry full timestamps; keep only the calendar day.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return &ValidationError{Field: "member.id", Err: ErrEmptyID}
	}
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "member.name", Err: ErrEmptyName}
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return &ValidationError{Field: "member.email", Err: ErrInvalidEmail}
	}
	return nil
}

// Validate checks the fields of an expense that do not depend on the trip.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return &ValidationError{Field: "id", Err: ErrEmptyID}
	}
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if len(e.Title) > 200 {
		return &ValidationError{Field: "title", Err: ErrTitleTooLong}
	}
	if len(e.Description) > 500 {
		return &ValidationError{Field: "description", Err: ErrDescriptionLong}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if strings.TrimSpace(e.PaidBy) == "" {
		return &ValidationError{Field: "paidBy", Err: ErrEmptyPayer}
	}
	if len(e.SplitAmong) == 0 {
		return &ValidationError{Field: "splitAmong", Err: ErrEmptySplit}
	}
	seen := make(map[string]bool, len(e.SplitAmong))
	for _, id := range e.SplitAmong {
		if seen[id] {
			return &ValidationError{Field: "splitAmong", Err: fmt.Errorf("%w: %s", ErrDuplicateID, id)}
		}
		seen[id] = true
	}
	for id, share := range e.Shares {
		if !seen[id] {
			return &ValidationError{Field: "shares", Err: fmt.Errorf("%w: %s", ErrShareNotInSplit, id)}
		}
		if share.Cents < 0 {
			return &ValidationError{Field: "shares", Err: ErrNegativeAmount}
		}
		if share.Cents > MaxCents {
			return &ValidationError{Field: "shares", Err: ErrAmountTooLarge}
		}
	}
	return nil
}

// Validate checks trip details and member list consistency.
func (t Trip) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Err: ErrEmptyID}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if len(t.Description) > 500 {
		return &ValidationError{Field: "description", Err: ErrDescriptionLong}
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate.Time) {
		return &ValidationError{Field: "endDate", Err: ErrDateRange}
	}
	ids := make(map[string]bool, len(t.Members))
	emails := make(map[string]bool, len(t.Members))
	for _, m := range t.Members {
		if err := m.Validate(); err != nil {
			return err
		}
		if ids[m.ID] {
			return &ValidationError{Field: "members", Err: fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)}
		}
		ids[m.ID] = true
		if m.Email != "" {
			key := strings.ToLower(m.Email)
			if emails[key] {
				return &ValidationError{Field: "members", Err: fmt.Errorf("%w: %s", ErrDuplicateEmail, m.Email)}
			}
			emails[key] = true
		}
	}
	return nil
}

// CheckReferences reports a ReferenceError when the expense names a payer or
// participant that is not a member of the trip.
func (t Trip) CheckReferences(e Expense) error {
	if _, ok := t.Member(e.PaidBy); !ok {
		return &ReferenceError{Field: "paidBy", ID: e.PaidBy}
	}
	for _, id := range e.SplitAmong {
		if _, ok := t.Member(id); !ok {
			return &ReferenceError{Field: "splitAmong", ID: id}
		}
	}
	return nil
}

// Member returns the member with the given id.
func (t Trip) Member(id string) (Member, bool) {
	for _, m := range t.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// CategoryName returns the expense category, with an empty category
// reported as Other.
func (e Expense) CategoryName() string {
	if strings.TrimSpace(e.Category) == "" {
		return CategoryOther
	}
	return e.Category
}

// MemberName returns the member's name or "Unknown".
func (t Trip) MemberName(id string) string {
	if m, ok := t.Member(id); ok {
		return m.Name
	}
	return "Unknown"
}

// MemberIDs returns member ids in trip order.
func (t Trip) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// ExpenseIndex returns the position of the expense with the given id, or -1.
func (t Trip) ExpenseIndex(id string) int {
	for i, e := range t.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// SumExpenses returns the sum of all expense amounts.
func (t Trip) SumExpenses() Money {
	var total Money
	for _, e := range t.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Clone returns a deep copy so callers cannot alias store-owned slices and maps.
func (t Trip) Clone() Trip {
	c := t
	c.Members = append([]Member(nil), t.Members...)
	c.Expenses = make([]Expense, len(t.Expenses))
	for i, e := range t.Expenses {
		c.Expenses[i] = e.Clone()
	}
	return c
}

// Clone returns a deep copy of the expense.
func (e Expense) Clone() Expense {
	c := e
	c.SplitAmong = append([]string(nil), e.SplitAmong...)
	if e.Shares != nil {
		c.Shares = make(map[string]Money, len(e.Shares))
		for k, v := range e.Shares {
			c.Shares[k] = v
		}
	}
	return c
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := State{CurrentTripID: s.CurrentTripID, Trips: make([]Trip, len(s.Trips))}
	for i, t := range s.Trips {
		c.Trips[i] = t.Clone()
	}
	return c
}
