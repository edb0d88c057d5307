// Package store owns the collection of trips and applies every mutation
// atomically. Each method validates before writing, so a failed call leaves
// the state unchanged. Trips returned to callers are deep copies.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"splitsmart/internal/core"
	"splitsmart/internal/ledger"
)

type Store struct {
	mu      sync.Mutex
	trips   []core.Trip
	current string
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the generator used for missing ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now, newID: core.NewID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TripDetails is a partial update of a trip's descriptive fields. Nil
// fields are left untouched.
type TripDetails struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *core.Date `json:"startDate,omitempty"`
	EndDate     *core.Date `json:"endDate,omitempty"`
}

// CreateTrip adds a new trip. The creator must appear in the member list
// and becomes its only admin. Members without an id get "member-<index>".
// The trip starts with no expenses and a zero total.
func (s *Store) CreateTrip(t core.Trip) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t = t.Clone()
	if strings.TrimSpace(t.ID) == "" {
		t.ID = s.newID()
	}
	if s.indexOf(t.ID) >= 0 {
		return core.Trip{}, &core.ConflictError{Kind: "trip", ID: t.ID}
	}
	for i := range t.Members {
		if strings.TrimSpace(t.Members[i].ID) == "" {
			t.Members[i].ID = fmt.Sprintf("member-%d", i)
		}
		t.Members[i].IsAdmin = t.Members[i].ID == t.CreatedBy
	}
	if _, ok := t.Member(t.CreatedBy); !ok {
		return core.Trip{}, &core.ValidationError{Field: "createdBy", Err: core.ErrMissingCreator}
	}
	if err := t.Validate(); err != nil {
		return core.Trip{}, err
	}
	t.Expenses = []core.Expense{}
	t.TotalAmount = core.Money{}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	s.trips = append(s.trips, t)
	return t.Clone(), nil
}

// AddMember appends an invited member to a trip. Invitees need an email and
// are never admins.
func (s *Store) AddMember(tripID string, m core.Member) (core.Trip, core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, core.Member{}, err
	}
	if strings.TrimSpace(m.Email) == "" {
		return core.Trip{}, core.Member{}, &core.ValidationError{Field: "member.email", Err: core.ErrInvalidEmail}
	}
	if strings.TrimSpace(m.ID) == "" {
		m.ID = s.newID()
	}
	m.IsAdmin = false

	next := s.trips[i].Clone()
	next.Members = append(next.Members, m)
	if err := next.Validate(); err != nil {
		return core.Trip{}, core.Member{}, err
	}
	s.trips[i] = next
	return next.Clone(), m, nil
}

// UpdateTripDetails changes name, description or dates. Members and
// expenses are not affected.
func (s *Store) UpdateTripDetails(tripID string, d TripDetails) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, err
	}
	next := s.trips[i].Clone()
	if d.Name != nil {
		next.Name = *d.Name
	}
	if d.Description != nil {
		next.Description = *d.Description
	}
	if d.StartDate != nil {
		next.StartDate = *d.StartDate
	}
	if d.EndDate != nil {
		next.EndDate = *d.EndDate
	}
	if err := next.Validate(); err != nil {
		return core.Trip{}, err
	}
	s.trips[i] = next
	return next.Clone(), nil
}

// AddExpense validates and appends an expense, then advances the trip
// total by its amount.
func (s *Store) AddExpense(tripID string, e core.Expense) (core.Trip, core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, core.Expense{}, err
	}
	e = e.Clone()
	if strings.TrimSpace(e.ID) == "" {
		e.ID = s.newID()
	}
	if s.trips[i].ExpenseIndex(e.ID) >= 0 {
		return core.Trip{}, core.Expense{}, &core.ConflictError{Kind: "expense", ID: e.ID}
	}
	if err := checkExpense(s.trips[i], &e); err != nil {
		return core.Trip{}, core.Expense{}, err
	}

	next := s.trips[i].Clone()
	next.Expenses = append(next.Expenses, e)
	next.TotalAmount = s.trips[i].TotalAmount.Add(e.Amount)
	s.trips[i] = next
	return next.Clone(), e.Clone(), nil
}

// UpdateExpense replaces the expense with the same id and recomputes the
// trip total over the full list.
func (s *Store) UpdateExpense(tripID string, e core.Expense) (core.Trip, core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, core.Expense{}, err
	}
	j := s.trips[i].ExpenseIndex(e.ID)
	if j < 0 {
		return core.Trip{}, core.Expense{}, &core.NotFoundError{Kind: "expense", ID: e.ID}
	}
	e = e.Clone()
	if err := checkExpense(s.trips[i], &e); err != nil {
		return core.Trip{}, core.Expense{}, err
	}

	next := s.trips[i].Clone()
	next.Expenses[j] = e
	next.TotalAmount = next.SumExpenses()
	s.trips[i] = next
	return next.Clone(), e.Clone(), nil
}

// DeleteExpense removes an expense and recomputes the trip total. It
// returns the removed expense.
func (s *Store) DeleteExpense(tripID, expenseID string) (core.Trip, core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, core.Expense{}, err
	}
	j := s.trips[i].ExpenseIndex(expenseID)
	if j < 0 {
		return core.Trip{}, core.Expense{}, &core.NotFoundError{Kind: "expense", ID: expenseID}
	}

	next := s.trips[i].Clone()
	removed := next.Expenses[j]
	next.Expenses = append(next.Expenses[:j], next.Expenses[j+1:]...)
	next.TotalAmount = next.SumExpenses()
	s.trips[i] = next
	return next.Clone(), removed, nil
}

// DeleteTrip removes a trip and clears the current selection if it
// pointed at it.
func (s *Store) DeleteTrip(tripID string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, err
	}
	removed := s.trips[i]
	s.trips = append(s.trips[:i], s.trips[i+1:]...)
	if s.current == tripID {
		s.current = ""
	}
	return removed, nil
}

// SetCurrent selects the active trip.
func (s *Store) SetCurrent(tripID string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, err
	}
	s.current = tripID
	return s.trips[i].Clone(), nil
}

// Current returns the active trip, if any.
func (s *Store) Current() (core.Trip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return core.Trip{}, false
	}
	i := s.indexOf(s.current)
	if i < 0 {
		return core.Trip{}, false
	}
	return s.trips[i].Clone(), true
}

func (s *Store) Trip(tripID string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(tripID)
	if err != nil {
		return core.Trip{}, err
	}
	return s.trips[i].Clone(), nil
}

func (s *Store) Trips() []core.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Trip, len(s.trips))
	for i, t := range s.trips {
		out[i] = t.Clone()
	}
	return out
}

// TripsByUser returns trips the user created or belongs to.
func (s *Store) TripsByUser(userID string) []core.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Trip
	for _, t := range s.trips {
		if _, member := t.Member(userID); member || t.CreatedBy == userID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Snapshot returns a copy of the whole state for persistence.
func (s *Store) Snapshot() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return core.State{Trips: s.trips, CurrentTripID: s.current}.Clone()
}

// Restore replaces the whole state. Trip totals are recomputed from the
// expense lists so a hand-edited snapshot cannot break them.
func (s *Store) Restore(st core.State) {
	st = st.Clone()
	for i := range st.Trips {
		if st.Trips[i].Expenses == nil {
			st.Trips[i].Expenses = []core.Expense{}
		}
		st.Trips[i].TotalAmount = st.Trips[i].SumExpenses()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = st.Trips
	s.current = st.CurrentTripID
	if s.indexOf(s.current) < 0 {
		s.current = ""
	}
}

func checkExpense(t core.Trip, e *core.Expense) error {
	if strings.TrimSpace(e.Category) == "" {
		e.Category = core.CategoryOther
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := t.CheckReferences(*e); err != nil {
		return err
	}
	if e.Shares != nil {
		if err := ledger.ValidateCustomSplit(e.Amount, e.SplitAmong, e.Shares); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) find(tripID string) (int, error) {
	if i := s.indexOf(tripID); i >= 0 {
		return i, nil
	}
	return -1, &core.NotFoundError{Kind: "trip", ID: tripID}
}

func (s *Store) indexOf(tripID string) int {
	for i, t := range s.trips {
		if t.ID == tripID {
			return i
		}
	}
	return -1
}
