package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Verification(OutcomeIssued)
	m.Verification(OutcomeIssued)
	m.Verification(OutcomeVerified)
	m.Room(RoomCreated)
	m.ImportRows("inserted", 3)
	m.ImportRows("skipped", 0)
	m.RoleRestore("restored", 2)
	m.Purged(5)

	if got := testutil.ToFloat64(m.verifications.WithLabelValues(OutcomeIssued)); got != 2 {
		t.Errorf("issued: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.verifications.WithLabelValues(OutcomeVerified)); got != 1 {
		t.Errorf("verified: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rooms.WithLabelValues(RoomCreated)); got != 1 {
		t.Errorf("rooms created: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.importRows.WithLabelValues("inserted")); got != 3 {
		t.Errorf("import inserted: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.roleRestores.WithLabelValues("restored")); got != 2 {
		t.Errorf("restored: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.purged); got != 5 {
		t.Errorf("purged: got %v, want 5", got)
	}
}

func TestObserveJob_CountsErrors(t *testing.T) {
	m := New()
	m.ObserveJob("drift", time.Second, nil)
	m.ObserveJob("drift", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("drift")); got != 1 {
		t.Errorf("job errors: got %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Verification(OutcomeIssued)
	m.Room(RoomDeleted)
	m.ImportRows("inserted", 1)
	m.RoleRestore("failed", 1)
	m.Purged(1)
	m.ObserveJob("x", time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler: got %d", rec.Code)
	}
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.Verification(OutcomeExpired)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `clanverify_verifications_total{outcome="expired"} 1`) {
		t.Error("expected verification counter in output")
	}
}
