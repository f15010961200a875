package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/domain/ecr"
	"github.com/riskibarqy/nfl-analytics/internal/domain/quality"
	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"github.com/riskibarqy/nfl-analytics/internal/platform/typeresolver"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newTestTableRepository(t *testing.T, db *sqlx.DB, opts ...TableOption) *TableRepository {
	t.Helper()

	resolver, err := typeresolver.Default(logging.NewNop())
	if err != nil {
		t.Fatalf("load resolver: %v", err)
	}
	return NewTableRepository(db, resolver, NewSchemaRegistry(db), logging.NewNop(), opts...)
}

func weeklyBatch(season int64, weeks ...int64) dataset.Batch {
	batch := dataset.Batch{Columns: []dataset.Column{
		{Name: "player_id", DType: "object"},
		{Name: "season", DType: "int64"},
		{Name: "week", DType: "int64"},
		{Name: "receiving_yards", DType: "float64"},
	}}
	for _, week := range weeks {
		for i := 0; i < 3; i++ {
			batch.Rows = append(batch.Rows, dataset.Row{
				"player_id":       fmt.Sprintf("00-00%d", i),
				"season":          season,
				"week":            week,
				"receiving_yards": float64(10 * i),
			})
		}
	}
	return batch
}

func countWhere(t *testing.T, db *sqlx.DB, query string, args ...any) int64 {
	t.Helper()

	var n int64
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestTableRepository_ReplaceByPartitionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)
	policy := dataset.WeeklyStats.Policy()

	for i := 0; i < 2; i++ {
		n, err := repo.Insert(ctx, weeklyBatch(2023, 1, 2), "weekly_stats", policy)
		if err != nil {
			t.Fatalf("insert run %d: %v", i, err)
		}
		if n != 6 {
			t.Fatalf("expected 6 rows inserted, got %d", n)
		}
	}

	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats"); got != 6 {
		t.Fatalf("expected 6 rows after re-ingest, got %d", got)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE created_at IS NULL OR updated_at IS NULL"); got != 0 {
		t.Fatalf("metadata columns must be populated, got %d null rows", got)
	}
}

func TestTableRepository_PartitionIsolation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)
	policy := dataset.ReplaceByPartition("season")

	if _, err := repo.Insert(ctx, weeklyBatch(2022, 1, 2, 3), "seasonal_like", policy); err != nil {
		t.Fatalf("insert 2022: %v", err)
	}
	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1), "seasonal_like", policy); err != nil {
		t.Fatalf("insert 2023: %v", err)
	}
	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1, 2), "seasonal_like", policy); err != nil {
		t.Fatalf("re-insert 2023: %v", err)
	}

	if got := countWhere(t, db, "SELECT COUNT(*) FROM seasonal_like WHERE season = $1", 2022); got != 9 {
		t.Fatalf("expected 2022 rows untouched (9), got %d", got)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM seasonal_like WHERE season = $1", 2023); got != 6 {
		t.Fatalf("expected 2023 replaced with 6 rows, got %d", got)
	}
}

func TestTableRepository_WeekPartitionOnlyReplacesThatWeek(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)
	policy := dataset.WeeklyStats.Policy()

	if _, err := repo.Insert(ctx, weeklyBatch(2024, 1, 2, 3), "weekly_stats", policy); err != nil {
		t.Fatalf("insert season: %v", err)
	}
	week2 := weeklyBatch(2024, 2)
	week2.Rows = week2.Rows[:1]
	if _, err := repo.Insert(ctx, week2, "weekly_stats", policy); err != nil {
		t.Fatalf("insert week: %v", err)
	}

	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE week = 2"); got != 1 {
		t.Fatalf("expected week 2 replaced by 1 row, got %d", got)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE week <> 2"); got != 6 {
		t.Fatalf("expected other weeks untouched, got %d", got)
	}
}

func TestTableRepository_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	teams := func(abbrs ...string) dataset.Batch {
		b := dataset.Batch{Columns: []dataset.Column{{Name: "team_abbr", DType: "object"}}}
		for _, a := range abbrs {
			b.Rows = append(b.Rows, dataset.Row{"team_abbr": a})
		}
		return b
	}

	if _, err := repo.Insert(ctx, teams("KC", "BUF", "SF"), "teams", dataset.ReplaceAll()); err != nil {
		t.Fatalf("insert teams: %v", err)
	}
	if _, err := repo.Insert(ctx, teams("KC", "BUF"), "teams", dataset.ReplaceAll()); err != nil {
		t.Fatalf("replace teams: %v", err)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM teams"); got != 2 {
		t.Fatalf("expected 2 teams after replace, got %d", got)
	}
}

func TestTableRepository_RenamesReservedColumns(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	batch := dataset.Batch{
		Columns: []dataset.Column{
			{Name: "season", DType: "int64"},
			{Name: "desc", DType: "object"},
			{Name: "order", DType: "int64"},
		},
		Rows: []dataset.Row{{"season": int64(2023), "desc": "(15:00) P.Mahomes pass short right", "order": int64(1)}},
	}
	if _, err := repo.Insert(ctx, batch, "pbp_data", dataset.PlayByPlay.Policy()); err != nil {
		t.Fatalf("insert pbp: %v", err)
	}

	var desc string
	if err := db.Get(&desc, "SELECT play_description FROM pbp_data"); err != nil {
		t.Fatalf("select renamed column: %v", err)
	}
	if desc != "(15:00) P.Mahomes pass short right" {
		t.Fatalf("unexpected play_description: %q", desc)
	}

	inspect := NewInspectRepository(db)
	cols, err := inspect.Describe(ctx, "pbp_data")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	want := []string{"season", "play_description", "play_order", "created_at", "updated_at"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("unexpected columns: %v", names)
	}
}

func TestTableRepository_SchemaConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1), "weekly_stats", dataset.WeeklyStats.Policy()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	drifted := weeklyBatch(2023, 2).WithColumn("target_share", "float64")
	_, err := repo.Insert(ctx, drifted, "weekly_stats", dataset.WeeklyStats.Policy())

	var conflict *dataset.SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected schema conflict, got %v", err)
	}
	if len(conflict.Unexpected) != 1 || conflict.Unexpected[0] != "target_share" {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats"); got != 3 {
		t.Fatalf("rejected batch must not touch stored rows, got %d", got)
	}
}

func TestTableRepository_StoredTypeWins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1), "weekly_stats", dataset.WeeklyStats.Policy()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	text := dataset.Batch{
		Columns: []dataset.Column{
			{Name: "player_id", DType: "object"},
			{Name: "season", DType: "object"},
			{Name: "week", DType: "object"},
			{Name: "receiving_yards", DType: "object"},
		},
		Rows: []dataset.Row{{"player_id": "00-009", "season": "2023", "week": "1", "receiving_yards": "n/a"}},
	}
	if _, err := repo.Insert(ctx, text, "weekly_stats", dataset.WeeklyStats.Policy()); err != nil {
		t.Fatalf("insert text batch: %v", err)
	}

	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE season = 2023 AND week = 1"); got != 1 {
		t.Fatalf("expected week replaced by the coerced row, got %d", got)
	}
	if got := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE receiving_yards IS NULL"); got != 1 {
		t.Fatalf("expected unparsable real stored as null, got %d", got)
	}
}

func TestTableRepository_EmptyBatchIsNoop(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	n, err := repo.Insert(ctx, dataset.Batch{Columns: []dataset.Column{{Name: "season", DType: "int64"}}}, "injuries", dataset.Injuries.Policy())
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
	exists, err := repo.TableExists(ctx, "injuries")
	if err != nil {
		t.Fatalf("table exists: %v", err)
	}
	if exists {
		t.Fatalf("empty batch must not create the table")
	}
}

func TestTableRepository_ChunksInsertsAndDropsTable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db, WithBatchRows(2))

	n, err := repo.Insert(ctx, weeklyBatch(2023, 1, 2, 3), "weekly_stats", dataset.Append())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 9 || countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats") != 9 {
		t.Fatalf("expected all 9 rows across chunks, got %d", n)
	}

	if err := repo.DropTable(ctx, "weekly_stats"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1).WithColumn("targets", "int64"), "weekly_stats", dataset.Append()); err != nil {
		t.Fatalf("insert after drop must recreate schema, got %v", err)
	}
}

func TestTableRepository_EnsureIndexes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1), "weekly_stats", dataset.WeeklyStats.Policy()); err != nil {
		t.Fatalf("insert: %v", err)
	}
	applied, err := repo.EnsureIndexes(ctx)
	if err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected only idx_weekly_player_season_week to apply, got %d", applied)
	}
}

func TestRefreshLogRepository_MonotonicUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRefreshLogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	const writers = 16
	ids := make([]int64, writers)
	errCh := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.Append(ctx, refreshlog.Entry{
				TableName:        "weekly_stats",
				Season:           2023,
				SeasonType:       refreshlog.SeasonTypeAll,
				Status:           refreshlog.StatusSuccess,
				RecordsProcessed: i,
			})
			if err != nil {
				errCh <- err
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("append: %v", err)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != int64(i+1) {
			t.Fatalf("expected gap-free ids 1..%d, got %v", writers, ids)
		}
	}
}

func TestRefreshLogRepository_LastSuccess(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRefreshLogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	base := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	week := 2
	msg := "failed to extract weekly stats data: timeout"
	entries := []refreshlog.Entry{
		{TableName: "weekly_stats", Season: 2024, SeasonType: "ALL", Status: refreshlog.StatusSuccess, RefreshDate: base},
		{TableName: "weekly_stats", Season: 2024, Week: &week, SeasonType: "REG", Status: refreshlog.StatusSuccess, RefreshDate: base.Add(time.Hour)},
		{TableName: "weekly_stats", Season: 2024, SeasonType: "ALL", Status: refreshlog.StatusFailed, ErrorMessage: &msg, RefreshDate: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		if _, err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	last, ok, err := repo.LastSuccess(ctx, "weekly_stats", 2024, nil)
	if err != nil || !ok {
		t.Fatalf("last success: ok=%v err=%v", ok, err)
	}
	if !last.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected latest success across weeks, got %v", last)
	}

	other := 5
	if _, ok, err := repo.LastSuccess(ctx, "weekly_stats", 2024, &other); err != nil || ok {
		t.Fatalf("expected no success for week 5, ok=%v err=%v", ok, err)
	}

	recent, err := repo.ListRecent(ctx, "weekly_stats", 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Status != refreshlog.StatusFailed || recent[0].ErrorMessage == nil || *recent[0].ErrorMessage != msg {
		t.Fatalf("unexpected recent entries: %+v", recent)
	}
	if recent[1].Week == nil || *recent[1].Week != 2 {
		t.Fatalf("expected week to round-trip, got %+v", recent[1])
	}
}

func TestRefreshLogRepository_RejectsInvalidStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewRefreshLogRepository(db)
	_, err := repo.Append(context.Background(), refreshlog.Entry{TableName: "teams", SeasonType: "ALL", Status: "DONE"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestInspectRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)
	inspect := NewInspectRepository(db)

	batch := weeklyBatch(2022, 1)
	batch.Rows = append(batch.Rows, weeklyBatch(2023, 1).Rows...)
	if _, err := repo.Insert(ctx, batch, "weekly_stats", dataset.Append()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tables, err := inspect.ListTables(ctx)
	if err != nil || len(tables) != 1 || tables[0] != "weekly_stats" {
		t.Fatalf("unexpected tables %v err=%v", tables, err)
	}
	seasons, err := inspect.DistinctSeasons(ctx, "weekly_stats")
	if err != nil || fmt.Sprint(seasons) != "[2022 2023]" {
		t.Fatalf("unexpected seasons %v err=%v", seasons, err)
	}
	nulls, err := inspect.CountNulls(ctx, "weekly_stats", "receiving_yards")
	if err != nil || nulls != 0 {
		t.Fatalf("unexpected null count %d err=%v", nulls, err)
	}
	dups, err := inspect.CountDuplicates(ctx, "weekly_stats")
	if err != nil || dups != 0 {
		t.Fatalf("unexpected duplicates %d err=%v", dups, err)
	}

	res, err := inspect.Query(ctx, "SELECT season, COUNT(*) AS n FROM weekly_stats GROUP BY season ORDER BY season")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if fmt.Sprint(res.Columns) != "[season n]" || len(res.Rows) != 2 {
		t.Fatalf("unexpected query result: %+v", res)
	}
}

func TestInspectRepository_QueryRefusesWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)
	inspect := NewInspectRepository(db)

	if _, err := repo.Insert(ctx, weeklyBatch(2023, 1, 2), "weekly_stats", dataset.Append()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for _, sql := range []string{
		"DELETE FROM weekly_stats",
		"DROP TABLE weekly_stats",
		"UPDATE weekly_stats SET week = 0",
		"WITH gone AS (SELECT 1) DELETE FROM weekly_stats",
		"SELECT 1; DELETE FROM weekly_stats",
	} {
		if _, err := inspect.Query(ctx, sql); !errors.Is(err, quality.ErrNotReadOnly) {
			t.Fatalf("expected %q to be refused, got %v", sql, err)
		}
	}

	if n := countWhere(t, db, "SELECT COUNT(*) FROM weekly_stats WHERE week > 0"); n != 6 {
		t.Fatalf("expected weekly_stats untouched with 6 rows, got=%d", n)
	}
}

func TestInspectRepository_VerifyECR(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := newTestTableRepository(t, db)

	avg := 1.4
	records := []ecr.RankingRecord{
		{Year: 2019, BeforePreseason: true, PlayerName: "Saquon Barkley", Position: "RB1", Rank: 1, AvgRank: &avg},
		{Year: 2019, PlayerName: "Christian McCaffrey", Position: "", Rank: 2},
		{Year: 2020, PlayerName: "Michael Thomas", Position: "WR1", Rank: 3},
	}
	if _, err := repo.Insert(ctx, ecr.ToBatch(records), "raw_ecr_rankings", dataset.RawECR.Policy()); err != nil {
		t.Fatalf("insert ecr: %v", err)
	}

	got, err := NewInspectRepository(db).VerifyECR(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.TotalRecords != 3 || len(got.YearCoverage) != 2 {
		t.Fatalf("unexpected verification: %+v", got)
	}
	if got.YearCoverage[0].BeforePreseasonRecords != 1 || got.YearCoverage[0].AfterPreseasonRecords != 1 {
		t.Fatalf("unexpected 2019 coverage: %+v", got.YearCoverage[0])
	}
	if got.Missing.Positions != 1 || got.Missing.AvgRanks != 2 || got.Missing.Ranks != 0 {
		t.Fatalf("unexpected missing data: %+v", got.Missing)
	}
	if got.Quality.MinYear != 2019 || got.Quality.MaxYear != 2020 || got.Quality.YearsWithPrePreseason != 1 || got.Quality.YearsWithPreseason != 2 {
		t.Fatalf("unexpected data quality: %+v", got.Quality)
	}
}
