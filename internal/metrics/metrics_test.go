package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Mutation("create", nil)
	m.Mutation("create", nil)
	m.Mutation("create", errors.New("bad"))
	m.Notification("expense_added", OutcomeError)
	m.SetTrips(3)

	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("create", OutcomeOK)); got != 2 {
		t.Fatalf("expected 2 ok mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("create", OutcomeError)); got != 1 {
		t.Fatalf("expected 1 failed mutation, got %v", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("expense_added", OutcomeError)); got != 1 {
		t.Fatalf("expected 1 failed notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.Trips); got != 3 {
		t.Fatalf("expected trips gauge 3, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Mutation("create", nil)
	m.SnapshotSaved(nil)
	m.Notification("x", OutcomeOK)
	m.Delivery(nil)
	m.HTTPRequest("GET", "/", 200, time.Millisecond)
	m.SetTrips(1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.HTTPRequest("GET", "/trips", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `splitsmart_http_requests_total{code="200",method="GET",route="/trips"} 1`) {
		t.Fatalf("metric not exposed:\n%s", body)
	}
}
