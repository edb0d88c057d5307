package storage

import (
	"context"
	"path/filepath"
	"testing"

	"splitsmart/internal/core"
)

func sampleState() core.State {
	return core.State{
		CurrentTripID: "t1",
		Trips: []core.Trip{{
			ID:          "t1",
			Name:        "Kyoto",
			Description: "Spring",
			StartDate:   core.NewDate(2024, 4, 1),
			EndDate:     core.NewDate(2024, 4, 8),
			CreatedBy:   "a",
			Members: []core.Member{
				{ID: "a", Name: "Aki", Email: "a@example.com", IsAdmin: true},
				{ID: "b", Name: "Ben", Email: "b@example.com"},
			},
			Expenses: []core.Expense{{
				ID:         "e1",
				Title:      "Ramen",
				Amount:     core.Cents(2450),
				PaidBy:     "a",
				SplitAmong: []string{"a", "b"},
				Shares:     map[string]core.Money{"a": core.Cents(1000), "b": core.Cents(1450)},
				Category:   core.CategoryFood,
				Date:       core.NewDate(2024, 4, 2),
			}},
			TotalAmount: core.Cents(2450),
		}},
	}
}

func assertSameState(t *testing.T, got, want core.State) {
	t.Helper()
	if got.CurrentTripID != want.CurrentTripID || len(got.Trips) != len(want.Trips) {
		t.Fatalf("state mismatch: %+v vs %+v", got, want)
	}
	g, w := got.Trips[0], want.Trips[0]
	if g.Name != w.Name || g.TotalAmount != w.TotalAmount || !g.StartDate.Equal(w.StartDate.Time) {
		t.Fatalf("trip mismatch: %+v vs %+v", g, w)
	}
	if len(g.Expenses) != 1 || g.Expenses[0].Shares["b"].Cents != 1450 || g.Expenses[0].Amount.Cents != 2450 {
		t.Fatalf("expense mismatch: %+v", g.Expenses)
	}
	if len(g.Members) != 2 || !g.Members[0].IsAdmin {
		t.Fatalf("members mismatch: %+v", g.Members)
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "splitsmart.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	empty, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty.Trips) != 0 {
		t.Fatalf("expected no trips, got %d", len(empty.Trips))
	}

	if err := repo.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, sampleState()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if v, err := repo.Version(ctx); err != nil || v != 2 {
		t.Fatalf("expected version 2, got %d (err=%v)", v, err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, got, sampleState())
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "splitsmart.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if err := repo.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, got, sampleState())
}

func TestSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "schema.db")
	v, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected schema version 1, got %d", v)
	}
}

func TestMemorySnapshotter(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySnapshotter()
	st, err := m.Load(ctx)
	if err != nil || len(st.Trips) != 0 {
		t.Fatalf("expected empty state, got %+v (err=%v)", st, err)
	}
	if err := m.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameState(t, got, sampleState())
	if m.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", m.Saves())
	}
}
