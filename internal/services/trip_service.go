package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"splitsmart/internal/core"
	"splitsmart/internal/ledger"
	"splitsmart/internal/log"
	"splitsmart/internal/metrics"
	"splitsmart/internal/notify"
	"splitsmart/internal/report"
	"splitsmart/internal/storage"
	"splitsmart/internal/store"
)

// Options tunes a TripService. Zero values are replaced by defaults.
type Options struct {
	// InviteLink builds the join link sent with trip invitations.
	InviteLink func(tripID string) string
	Now        func() time.Time
	Currency   string
}

// TripService orchestrates trip operations across the in-memory store, the
// snapshot repository and the notification dispatcher. Every mutation is
// applied to the store, then the whole state is saved, then members are
// notified in the background.
type TripService struct {
	store      *store.Store
	snapshots  storage.Snapshotter
	dispatcher *notify.Dispatcher
	logger     *log.Logger
	structured *log.StructuredLogger
	metrics    *metrics.Metrics
	opts       Options

	mu sync.Mutex
}

// Analytics is the read model behind the trip dashboard.
type Analytics struct {
	Stats      ledger.Stats           `json:"stats"`
	Balances   []ledger.MemberBalance `json:"balances"`
	ByCategory []ledger.Share         `json:"byCategory"`
	ByPayer    []ledger.Share         `json:"byPayer"`
	ByDay      []ledger.DailyTotal    `json:"byDay"`
}

func NewTripService(st *store.Store, snapshots storage.Snapshotter, dispatcher *notify.Dispatcher, logger *log.Logger, m *metrics.Metrics, opts Options) *TripService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.InviteLink == nil {
		opts.InviteLink = func(string) string { return "" }
	}
	if opts.Currency == "" {
		opts.Currency = core.DefaultCurrency
	}
	logger = logger.WithComponent(log.ComponentTrip)
	return &TripService{
		store:      st,
		snapshots:  snapshots,
		dispatcher: dispatcher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		metrics:    m,
		opts:       opts,
	}
}

// Load restores the persisted snapshot into the store.
func (s *TripService) Load(ctx context.Context) error {
	if s.snapshots == nil {
		s.logger.WarnContext(ctx, "Snapshot repository not available, starting empty")
		return nil
	}
	st, err := s.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.store.Restore(st)
	s.metrics.SetTrips(len(st.Trips))
	s.logger.InfoContext(ctx, "Snapshot restored",
		log.FieldOperation, log.OpLoad,
		"trips", len(st.Trips))
	return nil
}

func (s *TripService) CreateTrip(ctx context.Context, t core.Trip) (core.Trip, error) {
	var trip core.Trip
	err := s.mutate(ctx, log.OpCreate, func() (err error) {
		trip, err = s.store.CreateTrip(t)
		return err
	})
	if err != nil {
		return core.Trip{}, err
	}
	s.logger.InfoContext(ctx, "Trip created",
		log.FieldTripID, trip.ID,
		log.FieldTripName, trip.Name,
		"members", len(trip.Members))
	return trip, nil
}

// InviteMember adds a member and sends them the trip invitation.
func (s *TripService) InviteMember(ctx context.Context, tripID, actorID string, m core.Member) (core.Trip, core.Member, error) {
	var trip core.Trip
	var member core.Member
	err := s.mutate(ctx, log.OpInvite, func() (err error) {
		trip, member, err = s.store.AddMember(tripID, m)
		return err
	})
	if err != nil {
		return core.Trip{}, core.Member{}, err
	}
	s.logger.InfoContext(ctx, "Member invited",
		log.FieldTripID, trip.ID,
		log.FieldMemberID, member.ID)
	s.notify(notify.TripInvite(trip, member, actorID, s.opts.InviteLink(trip.ID), s.opts.Now()))
	return trip, member, nil
}

func (s *TripService) UpdateTrip(ctx context.Context, tripID string, d store.TripDetails) (core.Trip, error) {
	var trip core.Trip
	err := s.mutate(ctx, log.OpUpdate, func() (err error) {
		trip, err = s.store.UpdateTripDetails(tripID, d)
		return err
	})
	if err != nil {
		return core.Trip{}, err
	}
	return trip, nil
}

// DeleteTrip removes a trip and clears the current selection if needed.
func (s *TripService) DeleteTrip(ctx context.Context, tripID string) (core.Trip, error) {
	var trip core.Trip
	err := s.mutate(ctx, log.OpDelete, func() (err error) {
		trip, err = s.store.DeleteTrip(tripID)
		return err
	})
	if err != nil {
		return core.Trip{}, err
	}
	s.logger.InfoContext(ctx, "Trip deleted", log.FieldTripID, trip.ID, log.FieldTripName, trip.Name)
	return trip, nil
}

func (s *TripService) AddExpense(ctx context.Context, tripID, actorID string, e core.Expense) (core.Trip, core.Expense, error) {
	var trip core.Trip
	var added core.Expense
	err := s.mutate(ctx, log.OpCreate, func() (err error) {
		trip, added, err = s.store.AddExpense(tripID, e)
		return err
	})
	if err != nil {
		return core.Trip{}, core.Expense{}, err
	}
	s.logExpense(ctx, log.OpCreate, trip, added)
	s.notify(notify.ExpenseAdded(trip, added, actorID, s.opts.Now()))
	return trip, added, nil
}

func (s *TripService) UpdateExpense(ctx context.Context, tripID, actorID string, e core.Expense) (core.Trip, core.Expense, error) {
	var trip core.Trip
	var updated core.Expense
	err := s.mutate(ctx, log.OpUpdate, func() (err error) {
		trip, updated, err = s.store.UpdateExpense(tripID, e)
		return err
	})
	if err != nil {
		return core.Trip{}, core.Expense{}, err
	}
	s.logExpense(ctx, log.OpUpdate, trip, updated)
	s.notify(notify.ExpenseUpdated(trip, updated, actorID, s.opts.Now()))
	return trip, updated, nil
}

func (s *TripService) DeleteExpense(ctx context.Context, tripID, actorID, expenseID string) (core.Trip, error) {
	var trip core.Trip
	var removed core.Expense
	err := s.mutate(ctx, log.OpDelete, func() (err error) {
		trip, removed, err = s.store.DeleteExpense(tripID, expenseID)
		return err
	})
	if err != nil {
		return core.Trip{}, err
	}
	s.logExpense(ctx, log.OpDelete, trip, removed)
	s.notify(notify.ExpenseDeleted(trip, removed.Title, actorID, s.opts.Now()))
	return trip, nil
}

// SelectTrip makes the trip the current one. The selection is persisted.
func (s *TripService) SelectTrip(ctx context.Context, tripID string) (core.Trip, error) {
	var trip core.Trip
	err := s.mutate(ctx, log.OpSelect, func() (err error) {
		trip, err = s.store.SetCurrent(tripID)
		return err
	})
	if err != nil {
		return core.Trip{}, err
	}
	return trip, nil
}

func (s *TripService) CurrentTrip() (core.Trip, bool) {
	return s.store.Current()
}

func (s *TripService) Trip(tripID string) (core.Trip, error) {
	return s.store.Trip(tripID)
}

func (s *TripService) Trips() []core.Trip {
	return s.store.Trips()
}

func (s *TripService) TripsByUser(userID string) []core.Trip {
	return s.store.TripsByUser(userID)
}

// Balances returns every member's balance in member order.
func (s *TripService) Balances(tripID string) ([]ledger.MemberBalance, error) {
	trip, balances, err := s.tripBalances(tripID)
	if err != nil {
		return nil, err
	}
	return ledger.MemberBalances(trip, balances), nil
}

// Settlements suggests the transfers that settle the trip.
func (s *TripService) Settlements(tripID string) ([]ledger.Transfer, error) {
	trip, balances, err := s.tripBalances(tripID)
	if err != nil {
		return nil, err
	}
	return ledger.Settlements(balances, trip.MemberIDs()), nil
}

func (s *TripService) Analytics(tripID string) (Analytics, error) {
	trip, balances, err := s.tripBalances(tripID)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		Stats:      ledger.Summary(trip),
		Balances:   ledger.MemberBalances(trip, balances),
		ByCategory: ledger.ByCategory(trip),
		ByPayer:    ledger.ByPayer(trip),
		ByDay:      ledger.ByDay(trip),
	}, nil
}

// Report builds the requested report for a trip.
func (s *TripService) Report(tripID string, kind report.Kind) (report.Report, error) {
	trip, balances, err := s.tripBalances(tripID)
	if err != nil {
		return report.Report{}, err
	}
	now := s.opts.Now()
	if kind == report.KindExpenseList {
		return report.BuildExpenseList(trip, trip.Expenses, now, s.opts.Currency), nil
	}
	return report.Build(trip, balances, now, s.opts.Currency), nil
}

// Close waits for pending notifications until ctx is done, then closes the
// snapshot repository.
func (s *TripService) Close(ctx context.Context) error {
	var errs []error

	if s.dispatcher != nil {
		if err := s.dispatcher.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher: %w", err))
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			errs = append(errs, fmt.Errorf("snapshots: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close trip service: %w", errors.Join(errs...))
	}
	return nil
}

func (s *TripService) tripBalances(tripID string) (core.Trip, ledger.Balances, error) {
	trip, err := s.store.Trip(tripID)
	if err != nil {
		return core.Trip{}, nil, err
	}
	balances, err := ledger.ComputeBalances(trip)
	if err != nil {
		return core.Trip{}, nil, fmt.Errorf("compute balances: %w", err)
	}
	return trip, balances, nil
}

// mutate applies fn to the store and persists the new state. When the save
// fails the store is restored to the state before fn, so an error always
// means nothing changed and no notification is due. Mutations are serialized
// under mu so the restore cannot discard a concurrent mutation, and snapshots
// land in mutation order.
func (s *TripService) mutate(ctx context.Context, op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.store.Snapshot()
	err := fn()
	if err == nil {
		if err = s.save(ctx); err != nil {
			s.store.Restore(before)
			s.logger.WarnContext(ctx, "Mutation rolled back after failed save", log.FieldOperation, op)
		}
	}
	s.metrics.Mutation(op, err)
	return err
}

func (s *TripService) save(ctx context.Context) error {
	if s.snapshots == nil {
		s.logger.WarnContext(ctx, "Snapshot repository not available, skipping save")
		return nil
	}

	st := s.store.Snapshot()
	err := s.snapshots.Save(ctx, st)
	s.metrics.SnapshotSaved(err)
	if err != nil {
		s.structured.LogError(ctx, "Failed to save snapshot", err, log.ComponentStorage, log.OpSave, nil)
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.metrics.SetTrips(len(st.Trips))
	return nil
}

func (s *TripService) notify(n notify.Notification) {
	if s.dispatcher == nil {
		s.logger.Warn("Notification dispatcher not available, skipping notification",
			log.FieldNotification, string(n.Kind))
		return
	}
	s.dispatcher.Dispatch(n)
}

func (s *TripService) logExpense(ctx context.Context, op string, trip core.Trip, e core.Expense) {
	s.structured.LogExpenseMutation(ctx, op, trip.ID, trip.Name, trip.TotalAmount.Cents,
		e.ID, e.Title, e.Amount.Cents, e.Category)
}
