package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/domain/ecr"
	"github.com/riskibarqy/nfl-analytics/internal/domain/quality"
	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultECRDataDir  = "data/raw_ecr"
	defaultECRFileGlob = "FantasyPros_*.xl*"
)

type ECRConfig struct {
	DataDir           string
	FileGlob          string
	ParseWorkers      int
	HeaderRepairYears []int
}

type ECRNormalizeResult struct {
	Records        []ecr.RankingRecord
	ProcessedFiles int
	FailedFiles    int
}

type ECRRefreshResult struct {
	TotalRecords   int              `json:"total_records"`
	ProcessedFiles int              `json:"processed_files"`
	FailedFiles    int              `json:"failed_files"`
	Verification   ecr.Verification `json:"verification"`
}

type ecrFileOutcome struct {
	path    string
	records []ecr.RankingRecord
	err     error
}

// ECRService turns FantasyPros ranking exports into the raw_ecr_rankings table.
type ECRService struct {
	cfg     ECRConfig
	reader  ecr.FrameReader
	store   dataset.Repository
	inspect quality.Repository
	ledger  *RefreshLedger
	metrics IngestMetrics
	logger  *logging.Logger
	repair  map[int]struct{}
}

func NewECRService(
	cfg ECRConfig,
	reader ecr.FrameReader,
	store dataset.Repository,
	inspect quality.Repository,
	ledger *RefreshLedger,
	metrics IngestMetrics,
	logger *logging.Logger,
) *ECRService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultECRDataDir
	}
	if cfg.FileGlob == "" {
		cfg.FileGlob = defaultECRFileGlob
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.HeaderRepairYears == nil {
		cfg.HeaderRepairYears = []int{2017}
	}

	repair := make(map[int]struct{}, len(cfg.HeaderRepairYears))
	for _, year := range cfg.HeaderRepairYears {
		repair[year] = struct{}{}
	}

	return &ECRService{
		cfg:     cfg,
		reader:  reader,
		store:   store,
		inspect: inspect,
		ledger:  ledger,
		metrics: metrics,
		logger:  logger,
		repair:  repair,
	}
}

// Normalize parses the files concurrently and unions their records in path
// order. It fails only when no file produced data.
func (s *ECRService) Normalize(ctx context.Context, paths []string) (ECRNormalizeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ECRService.Normalize")
	defer span.End()

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	p := pool.NewWithResults[ecrFileOutcome]().WithMaxGoroutines(s.cfg.ParseWorkers)
	for _, path := range sorted {
		path := path
		p.Go(func() ecrFileOutcome {
			if err := ctx.Err(); err != nil {
				return ecrFileOutcome{path: path, err: err}
			}
			records, err := s.processFile(path)
			return ecrFileOutcome{path: path, records: records, err: err}
		})
	}
	outcomes := p.Wait()
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	var result ECRNormalizeResult
	for _, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			result.FailedFiles++
			s.logger.ErrorContext(ctx, "ecr file failed", "file", outcome.path, "error", outcome.err)
		case len(outcome.records) == 0:
			result.FailedFiles++
			s.logger.WarnContext(ctx, "no data extracted from ecr file", "file", outcome.path)
		default:
			result.ProcessedFiles++
			result.Records = append(result.Records, outcome.records...)
			s.logger.InfoContext(ctx, "ecr file processed", "file", outcome.path, "records", len(outcome.records))
		}
	}

	if len(result.Records) == 0 {
		return result, fmt.Errorf("%w: %d files failed", ecr.ErrNoData, result.FailedFiles)
	}
	return result, nil
}

func (s *ECRService) processFile(path string) ([]ecr.RankingRecord, error) {
	meta, err := ecr.ParseFileMetadata(path)
	if err != nil {
		return nil, err
	}

	frame, err := s.reader.ReadFrame(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if _, ok := s.repair[meta.Year]; ok {
		frame = ecr.RepairHeader(frame)
	}
	return ecr.Normalize(frame, meta), nil
}

// Refresh rebuilds raw_ecr_rankings from every export in the data directory.
func (s *ECRService) Refresh(ctx context.Context) (ECRRefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ECRService.Refresh")
	defer span.End()

	start := time.Now()
	table := dataset.RawECR.Table()

	paths, err := filepath.Glob(filepath.Join(s.cfg.DataDir, s.cfg.FileGlob))
	if err != nil {
		return ECRRefreshResult{}, fmt.Errorf("%w: invalid ecr file pattern: %v", ErrInvalidInput, err)
	}
	if len(paths) == 0 {
		return ECRRefreshResult{}, fmt.Errorf("%w: no ecr files in %s", ErrNotFound, s.cfg.DataDir)
	}
	s.logger.InfoContext(ctx, "ecr refresh started", "files", len(paths), "dir", s.cfg.DataDir)

	normalized, err := s.Normalize(ctx, paths)
	if err != nil {
		s.fail(ctx, table, err, time.Since(start))
		return ECRRefreshResult{ProcessedFiles: normalized.ProcessedFiles, FailedFiles: normalized.FailedFiles}, err
	}

	records, err := s.replace(ctx, normalized.Records)
	if err != nil {
		s.fail(ctx, table, err, time.Since(start))
		return ECRRefreshResult{}, err
	}

	s.ledger.Log(ctx, LedgerEntry{
		Table:      table,
		Season:     0,
		SeasonType: refreshlog.SeasonTypeAll,
		Status:     refreshlog.StatusSuccess,
		Records:    records,
	})
	if s.metrics != nil {
		s.metrics.ObserveUnit(table, UnitStatusSuccess, records, time.Since(start))
	}

	verification, err := s.Verify(ctx)
	if err != nil {
		return ECRRefreshResult{}, err
	}

	result := ECRRefreshResult{
		TotalRecords:   len(normalized.Records),
		ProcessedFiles: normalized.ProcessedFiles,
		FailedFiles:    normalized.FailedFiles,
		Verification:   verification,
	}
	s.logger.InfoContext(ctx, "ecr refresh completed",
		"total_records", result.TotalRecords,
		"processed_files", result.ProcessedFiles,
		"failed_files", result.FailedFiles,
	)
	return result, nil
}

func (s *ECRService) replace(ctx context.Context, records []ecr.RankingRecord) (int, error) {
	table := dataset.RawECR.Table()
	if err := s.store.DropTable(ctx, table); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	n, err := s.store.Insert(ctx, ecr.ToBatch(records), table, dataset.RawECR.Policy())
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return n, nil
}

func (s *ECRService) fail(ctx context.Context, table string, err error, elapsed time.Duration) {
	s.ledger.Log(ctx, LedgerEntry{
		Table:      table,
		Season:     0,
		SeasonType: refreshlog.SeasonTypeAll,
		Status:     refreshlog.StatusFailed,
		Err:        fmt.Errorf("failed to extract %s data: %w", dataset.RawECR.Label(), err),
	})
	if s.metrics != nil {
		s.metrics.ObserveUnit(table, UnitStatusFailed, 0, elapsed)
	}
}

// Verify summarizes year coverage, gaps and spread of the stored rankings.
func (s *ECRService) Verify(ctx context.Context) (ecr.Verification, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ECRService.Verify")
	defer span.End()

	verification, err := s.inspect.VerifyECR(ctx)
	if err != nil {
		return ecr.Verification{}, fmt.Errorf("verify ecr data: %w", err)
	}
	return verification, nil
}
