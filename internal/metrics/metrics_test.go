package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Oracle("match", OutcomeSuccess)
	m.Oracle("match", OutcomeFallback)
	m.Oracle("match", OutcomeFallback)
	m.Provider(OutcomeError)
	m.SignalMissing("resume")
	m.Recomputed()
	m.Deduplicated(3)
	m.Deduplicated(0)
	m.Persisted(OutcomeSuccess)

	if got := testutil.ToFloat64(m.OracleCalls.WithLabelValues("match", OutcomeFallback)); got != 2 {
		t.Fatalf("expected 2 fallbacks, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderQueries.WithLabelValues(OutcomeError)); got != 1 {
		t.Fatalf("expected 1 provider error, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExternalDeduped); got != 3 {
		t.Fatalf("expected 3 duplicates, got %v", got)
	}
	if got := testutil.ToFloat64(m.Recomputes); got != 1 {
		t.Fatalf("expected 1 recompute, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Oracle("match", OutcomeSuccess)
	m.Provider(OutcomeSuccess)
	m.SignalMissing("social")
	m.Recomputed()
	m.Deduplicated(1)
	m.Persisted(OutcomeError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Recomputed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "placement_engine_career_recomputes_total 1") {
		t.Fatalf("expected recompute counter in output, got:\n%s", rec.Body.String())
	}
}
