package nflverse

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/platform/resilience"
	"github.com/riskibarqy/nfl-analytics/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*ClientConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ClientConfig{
		HTTPClient:   srv.Client(),
		BaseURL:      srv.URL,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func gzipBytes(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestDefaultCatalog_CoversEveryProviderDataset(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()
	for _, name := range append([]dataset.Name{dataset.Teams, dataset.Players, dataset.Schedules}, dataset.SeasonalNames...) {
		if _, ok := catalog[name]; !ok {
			t.Fatalf("catalog missing dataset %s", name)
		}
	}
	if got := catalog[dataset.PlayByPlay].Resolve(2023); got != "pbp/play_by_play_2023.parquet" {
		t.Fatalf("unexpected pbp path: %s", got)
	}
}

func TestLoadCatalog_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := LoadCatalog(strings.NewReader("datasets:\n  teams:\n    path: teams.json\n    format: json\n"))
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestFetch_DecodesGzipCSVWithInferredTypes(t *testing.T) {
	t.Parallel()

	body := gzipBytes(t, "player_id,season,week,passing_yards,is_starter,team\n"+
		"00-1,2023,1,250.5,TRUE,KC\n"+
		"00-2,2023,1,NA,FALSE,\n")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player_stats/player_stats_2023.csv.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}), nil)

	batch, err := client.Fetch(context.Background(), dataset.WeeklyStats, 2023)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("expected 2 rows, got=%d", batch.Len())
	}

	wantTypes := map[string]string{
		"player_id":     "object",
		"season":        "int64",
		"week":          "int64",
		"passing_yards": "float64",
		"is_starter":    "bool",
		"team":          "object",
	}
	for _, col := range batch.Columns {
		if wantTypes[col.Name] != col.DType {
			t.Fatalf("column %s dtype=%s, want %s", col.Name, col.DType, wantTypes[col.Name])
		}
	}
	if got := batch.Rows[0]["season"]; got != int64(2023) {
		t.Fatalf("expected season int64 2023, got=%#v", got)
	}
	if _, ok := batch.Rows[1]["passing_yards"]; ok {
		t.Fatalf("expected NA passing_yards to be null")
	}
	if _, ok := batch.Rows[1]["team"]; ok {
		t.Fatalf("expected empty team to be null")
	}
	if got := batch.Rows[1]["is_starter"]; got != false {
		t.Fatalf("expected is_starter=false, got=%#v", got)
	}
}

func TestFetch_FiltersAllSeasonAssetBySeasonColumn(t *testing.T) {
	t.Parallel()

	body := gzipBytes(t, "game_id,season,week\n2022_01_KC_ARI,2022,1\n2023_01_DET_KC,2023,1\n2023_02_KC_JAX,2023,2\n")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}), nil)

	batch, err := client.Fetch(context.Background(), dataset.Schedules, 2023)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("expected 2 rows for 2023, got=%d", batch.Len())
	}
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("team_abbr,team_name\nKC,Kansas City Chiefs\n"))
	}), nil)

	batch, err := client.Fetch(context.Background(), dataset.Teams, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Len() != 1 {
		t.Fatalf("expected 1 row, got=%d", batch.Len())
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got=%d", calls.Load())
	}
}

func TestFetch_MissingSeasonIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}), nil)

	_, err := client.Fetch(context.Background(), dataset.Rosters, 1990)
	if err == nil {
		t.Fatalf("expected error for missing asset")
	}
	if !strings.Contains(err.Error(), "roster_1990.csv") {
		t.Fatalf("expected error to name the asset, got=%v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got=%d", calls.Load())
	}
}

func TestFetch_SeasonalDatasetRequiresSeason(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.NotFoundHandler(), nil)
	_, err := client.Fetch(context.Background(), dataset.Injuries, 0)
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
}

func TestFetch_MemoizesAssetPerURL(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("team_abbr\nKC\n"))
	}), nil)

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), dataset.Teams, 0); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one download, got=%d", calls.Load())
	}
}

func TestFetch_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	if _, err := client.Fetch(context.Background(), dataset.Teams, 0); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	_, err := client.Fetch(context.Background(), dataset.Teams, 0)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got=%v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected the open circuit to skip the request, calls=%d", calls.Load())
	}
}

type injuryRow struct {
	Season     int64   `parquet:"season"`
	Week       int32   `parquet:"week"`
	Team       string  `parquet:"team"`
	FullName   *string `parquet:"full_name,optional"`
	Practice   bool    `parquet:"practice"`
	SnapsShare float64 `parquet:"snaps_share"`
}

func TestFetch_DecodesParquet(t *testing.T) {
	t.Parallel()

	name := "Travis Kelce"
	var buf bytes.Buffer
	err := parquet.Write(&buf, []injuryRow{
		{Season: 2023, Week: 3, Team: "KC", FullName: &name, Practice: true, SnapsShare: 0.75},
		{Season: 2023, Week: 4, Team: "KC", FullName: nil, Practice: false, SnapsShare: 0.5},
	})
	if err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	body := buf.Bytes()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}), nil)

	batch, err := client.Fetch(context.Background(), dataset.Injuries, 2023)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Len() != 2 {
		t.Fatalf("expected 2 rows, got=%d", batch.Len())
	}

	dtypes := make(map[string]string, len(batch.Columns))
	for _, col := range batch.Columns {
		dtypes[col.Name] = col.DType
	}
	if dtypes["week"] != "int64" || dtypes["snaps_share"] != "float64" || dtypes["practice"] != "bool" || dtypes["team"] != "object" {
		t.Fatalf("unexpected dtypes: %#v", dtypes)
	}
	if got := batch.Rows[0]["full_name"]; got != "Travis Kelce" {
		t.Fatalf("expected full_name, got=%#v", got)
	}
	if _, ok := batch.Rows[1]["full_name"]; ok {
		t.Fatalf("expected null full_name to be absent")
	}
	if got := batch.Rows[1]["week"]; got != int64(4) {
		t.Fatalf("expected week int64 4, got=%#v", got)
	}
}
