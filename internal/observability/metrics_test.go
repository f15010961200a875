package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveUnit(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveUnit("weekly_stats", "SUCCESS", 120, 2*time.Second)
	m.ObserveUnit("weekly_stats", "SUCCESS", 80, time.Second)
	m.ObserveUnit("pbp_data", "FAILED", 0, time.Second)

	if got := testutil.ToFloat64(m.units.WithLabelValues("weekly_stats", "SUCCESS")); got != 2 {
		t.Fatalf("expected 2 successful units, got=%v", got)
	}
	if got := testutil.ToFloat64(m.rows.WithLabelValues("weekly_stats")); got != 200 {
		t.Fatalf("expected 200 rows, got=%v", got)
	}
	if got := testutil.ToFloat64(m.units.WithLabelValues("pbp_data", "FAILED")); got != 1 {
		t.Fatalf("expected 1 failed unit, got=%v", got)
	}
	if got := testutil.CollectAndCount(m.rows); got != 1 {
		t.Fatalf("failed units must not create row series, got=%d series", got)
	}
}

func TestMetrics_Push(t *testing.T) {
	t.Parallel()

	var (
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics()
	m.ObserveUnit("teams", "SUCCESS", 32, time.Second)

	if err := m.Push(context.Background(), server.URL, "nfl_ingest"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if method != http.MethodPut || path != "/metrics/job/nfl_ingest" {
		t.Fatalf("unexpected push request %s %s", method, path)
	}
	if !strings.Contains(body, "nfl_ingest_units_total") {
		t.Fatalf("expected units counter in pushed body")
	}
}

func TestMetrics_PushWithoutURLIsNoop(t *testing.T) {
	t.Parallel()

	if err := NewMetrics().Push(context.Background(), "", "nfl_ingest"); err != nil {
		t.Fatalf("expected no-op, got=%v", err)
	}
}
