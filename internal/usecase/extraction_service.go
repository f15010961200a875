package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/domain/fantasy"
	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	"github.com/riskibarqy/nfl-analytics/internal/platform/id"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

const (
	UnitStatusSuccess = "success"
	UnitStatusFailed  = "failed"

	defaultExtractionWorkers = 4
	maxExtractionWorkers     = 64
)

// IngestMetrics receives one observation per finished ingestion unit.
type IngestMetrics interface {
	ObserveUnit(table, status string, rows int, elapsed time.Duration)
}

type ExtractInput struct {
	Seasons []int `validate:"required,min=1,dive,gte=1999,lte=2100"`
	Workers int   `validate:"gte=0,lte=64"`
}

type ExtractionResult struct {
	RunID        string         `json:"run_id"`
	Tables       map[string]int `json:"tables"`
	Units        []UnitResult   `json:"units"`
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
	WorkerCount  int            `json:"worker_count"`
}

type UnitResult struct {
	Table      string `json:"table"`
	Seasons    []int  `json:"seasons,omitempty"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type ExtractionConfig struct {
	DefaultWorkers int
}

type extractionUnit struct {
	name    dataset.Name
	seasons []int
}

// ExtractionService fans dataset units out over a bounded worker pool and
// materializes each one independently.
type ExtractionService struct {
	provider dataset.Provider
	store    dataset.Repository
	ledger   *RefreshLedger
	metrics  IngestMetrics
	ids      id.Generator
	logger   *logging.Logger
	validate *validator.Validate
	workers  int
	newPool  func(size int) (*ants.Pool, error)
}

func NewExtractionService(
	provider dataset.Provider,
	store dataset.Repository,
	ledger *RefreshLedger,
	metrics IngestMetrics,
	ids id.Generator,
	logger *logging.Logger,
	cfg ExtractionConfig,
) *ExtractionService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	workers := cfg.DefaultWorkers
	if workers <= 0 {
		workers = defaultExtractionWorkers
	}
	return &ExtractionService{
		provider: provider,
		store:    store,
		ledger:   ledger,
		metrics:  metrics,
		ids:      ids,
		logger:   logger,
		validate: validator.New(),
		workers:  workers,
		newPool:  newWorkerPool,
	}
}

// ExtractAll loads teams, players and schedules once plus every seasonal
// dataset for each requested season.
func (s *ExtractionService) ExtractAll(ctx context.Context, input ExtractInput) (ExtractionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExtractionService.ExtractAll")
	defer span.End()

	if err := s.validate.StructCtx(ctx, input); err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}
	seasons := uniqueSorted(input.Seasons)

	units := []extractionUnit{
		{name: dataset.Teams},
		{name: dataset.Players},
		{name: dataset.Schedules, seasons: seasons},
	}
	for _, season := range seasons {
		for _, name := range dataset.SeasonalNames {
			units = append(units, extractionUnit{name: name, seasons: []int{season}})
		}
	}

	result, err := s.run(ctx, units, input.Workers)
	if err != nil {
		return result, err
	}
	if result.SuccessCount == 0 {
		return result, fmt.Errorf("%w: %d units failed", ErrNoUnitsSucceeded, result.FailedCount)
	}
	return result, nil
}

// RefreshSeason re-ingests the selected seasonal datasets for one season.
// Requested datasets that fail report zero records.
func (s *ExtractionService) RefreshSeason(ctx context.Context, season int, dataTypes []string) (map[string]int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExtractionService.RefreshSeason")
	defer span.End()

	if err := s.validate.VarCtx(ctx, season, "gte=1999,lte=2100"); err != nil {
		return nil, fmt.Errorf("%w: invalid season %d: %v", ErrInvalidInput, season, err)
	}
	names, err := parseSeasonalTypes(dataTypes)
	if err != nil {
		return nil, err
	}

	units := make([]extractionUnit, 0, len(names))
	for _, name := range names {
		units = append(units, extractionUnit{name: name, seasons: []int{season}})
	}

	result, err := s.run(ctx, units, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(names))
	for _, name := range names {
		out[name.Table()] = result.Tables[name.Table()]
	}
	if result.SuccessCount == 0 {
		return out, fmt.Errorf("%w: season %d", ErrNoUnitsSucceeded, season)
	}
	return out, nil
}

// RefreshWeek replaces a single week of weekly stats.
func (s *ExtractionService) RefreshWeek(ctx context.Context, season, week int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExtractionService.RefreshWeek")
	defer span.End()

	if err := s.validate.VarCtx(ctx, season, "gte=1999,lte=2100"); err != nil {
		return 0, fmt.Errorf("%w: invalid season %d: %v", ErrInvalidInput, season, err)
	}
	if err := s.validate.VarCtx(ctx, week, "gte=1,lte=22"); err != nil {
		return 0, fmt.Errorf("%w: invalid week %d: %v", ErrInvalidInput, week, err)
	}

	start := time.Now()
	table := dataset.WeeklyStats.Table()
	records, err := s.refreshWeek(ctx, season, week)
	if err != nil {
		s.observe(table, UnitStatusFailed, 0, time.Since(start))
		s.ledger.Log(ctx, LedgerEntry{
			Table:      table,
			Season:     season,
			Week:       &week,
			SeasonType: refreshlog.SeasonTypeRegular,
			Status:     refreshlog.StatusFailed,
			Err:        fmt.Errorf("failed to refresh week %d data for season %d: %w", week, season, err),
		})
		return 0, fmt.Errorf("refresh week %d of season %d: %w", week, season, err)
	}
	if records == 0 {
		return 0, nil
	}

	s.observe(table, UnitStatusSuccess, records, time.Since(start))
	s.ledger.Log(ctx, LedgerEntry{
		Table:      table,
		Season:     season,
		Week:       &week,
		SeasonType: refreshlog.SeasonTypeRegular,
		Status:     refreshlog.StatusSuccess,
		Records:    records,
	})
	return records, nil
}

func (s *ExtractionService) refreshWeek(ctx context.Context, season, week int) (int, error) {
	batch, err := s.provider.Fetch(ctx, dataset.WeeklyStats, season)
	if err != nil {
		return 0, err
	}
	batch = batch.Filter(func(row dataset.Row) bool {
		return intValue(row["week"]) == week
	})
	if batch.IsEmpty() {
		s.logger.WarnContext(ctx, "no weekly rows for requested week", "season", season, "week", week)
		return 0, nil
	}

	batch = fantasy.Enrich(batch)
	return s.store.Insert(ctx, batch, dataset.WeeklyStats.Table(), dataset.ReplaceByPartition("season", "week"))
}

func (s *ExtractionService) run(ctx context.Context, units []extractionUnit, requestedWorkers int) (ExtractionResult, error) {
	runID, err := s.ids.NewID()
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create run id: %w", err)
	}
	logger := s.logger.With("run_id", runID)

	workerCount := normalizeExtractionWorkerCount(requestedWorkers, s.workers, len(units))
	result := ExtractionResult{
		RunID:       runID,
		Tables:      make(map[string]int),
		Units:       make([]UnitResult, 0, len(units)),
		WorkerCount: workerCount,
	}
	if len(units) == 0 {
		return result, nil
	}

	logger.InfoContext(ctx, "extraction run started", "units", len(units), "workers", workerCount)

	results := make(chan UnitResult, len(units))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := s.newPool(workerCount)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, unit := range units {
		unit := unit
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := UnitResult{
				Table:   unit.name.Table(),
				Seasons: unit.seasons,
			}

			records, unitErr := s.runUnit(ctx, unit)
			row.DurationMs = time.Since(start).Milliseconds()
			if unitErr != nil {
				row.Status = UnitStatusFailed
				row.Message = unitErr.Error()
				failedCount.Add(1)
				logger.ErrorContext(ctx, "extraction unit failed", "table", row.Table, "seasons", unit.seasons, "error", unitErr)
			} else {
				row.Status = UnitStatusSuccess
				row.Records = records
				successCount.Add(1)
				logger.InfoContext(ctx, "extraction unit finished", "table", row.Table, "seasons", unit.seasons, "records", records)
			}
			s.observe(row.Table, row.Status, row.Records, time.Since(start))

			results <- row
		}); err != nil {
			workers.Done()
			// Units already running still write ledger rows; let them land first.
			workers.Wait()
			return ExtractionResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Units = append(result.Units, row)
		if row.Status == UnitStatusSuccess {
			result.Tables[row.Table] += row.Records
		}
	}

	sort.SliceStable(result.Units, func(i, j int) bool {
		if result.Units[i].Table != result.Units[j].Table {
			return result.Units[i].Table < result.Units[j].Table
		}
		return firstSeason(result.Units[i].Seasons) < firstSeason(result.Units[j].Seasons)
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	logger.InfoContext(ctx, "extraction run finished",
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"tables", result.Tables,
	)
	return result, nil
}

// runUnit fetches, enriches and stores one unit, then writes its ledger
// entries. Seasonless datasets are logged against season 0.
func (s *ExtractionService) runUnit(ctx context.Context, unit extractionUnit) (int, error) {
	records, err := s.materialize(ctx, unit)

	ledgerSeasons := unit.seasons
	if len(ledgerSeasons) == 0 {
		ledgerSeasons = []int{0}
	}

	if err != nil {
		err = fmt.Errorf("failed to extract %s data: %w", unit.name.Label(), err)
		for _, season := range ledgerSeasons {
			s.ledger.Log(ctx, LedgerEntry{
				Table:      unit.name.Table(),
				Season:     season,
				SeasonType: refreshlog.SeasonTypeAll,
				Status:     refreshlog.StatusFailed,
				Err:        err,
			})
		}
		return 0, err
	}

	for _, season := range ledgerSeasons {
		s.ledger.Log(ctx, LedgerEntry{
			Table:      unit.name.Table(),
			Season:     season,
			SeasonType: refreshlog.SeasonTypeAll,
			Status:     refreshlog.StatusSuccess,
			Records:    records,
		})
	}
	return records, nil
}

func (s *ExtractionService) materialize(ctx context.Context, unit extractionUnit) (int, error) {
	var batch dataset.Batch
	if len(unit.seasons) == 0 {
		fetched, err := s.provider.Fetch(ctx, unit.name, 0)
		if err != nil {
			return 0, err
		}
		batch = fetched
	} else {
		parts := make([]dataset.Batch, 0, len(unit.seasons))
		for _, season := range unit.seasons {
			fetched, err := s.provider.Fetch(ctx, unit.name, season)
			if err != nil {
				return 0, fmt.Errorf("season %d: %w", season, err)
			}
			parts = append(parts, fetched)
		}
		batch = mergeBatches(parts)
	}

	if unit.name == dataset.WeeklyStats || unit.name == dataset.SeasonalStats {
		batch = fantasy.Enrich(batch)
	}
	return s.store.Insert(ctx, batch, unit.name.Table(), unit.name.Policy())
}

func (s *ExtractionService) observe(table, status string, rows int, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveUnit(table, status, rows, elapsed)
}

// mergeBatches unions rows; columns keep first-seen order.
func newWorkerPool(size int) (*ants.Pool, error) {
	return ants.NewPool(size)
}

func mergeBatches(parts []dataset.Batch) dataset.Batch {
	if len(parts) == 1 {
		return parts[0]
	}
	var out dataset.Batch
	for _, part := range parts {
		for _, col := range part.Columns {
			out = out.WithColumn(col.Name, col.DType)
		}
		out.Rows = append(out.Rows, part.Rows...)
	}
	return out
}

func parseSeasonalTypes(raw []string) ([]dataset.Name, error) {
	if len(raw) == 0 {
		return append([]dataset.Name(nil), dataset.SeasonalNames...), nil
	}
	seen := make(map[dataset.Name]struct{}, len(raw))
	out := make([]dataset.Name, 0, len(raw))
	for _, item := range raw {
		name, err := dataset.ParseName(strings.TrimSpace(item))
		if err != nil || !isSeasonalName(name) {
			return nil, fmt.Errorf("%w: unsupported data type %q", ErrInvalidInput, item)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func isSeasonalName(name dataset.Name) bool {
	for _, n := range dataset.SeasonalNames {
		if n == name {
			return true
		}
	}
	return false
}

func normalizeExtractionWorkerCount(requested, fallback, unitCount int) int {
	if unitCount <= 0 {
		return 1
	}
	value := requested
	if value <= 0 {
		value = fallback
	}
	if value <= 0 {
		value = 1
	}
	if value > maxExtractionWorkers {
		value = maxExtractionWorkers
	}
	if value > unitCount {
		value = unitCount
	}
	return value
}

func uniqueSorted(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func firstSeason(seasons []int) int {
	if len(seasons) == 0 {
		return 0
	}
	return seasons[0]
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var out int
		if _, err := fmt.Sscan(strings.TrimSpace(n), &out); err == nil {
			return out
		}
	}
	return -1
}
