package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/domain/quality"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

var (
	duplicateCheckedTables = map[string]struct{}{
		dataset.Teams.Table():     {},
		dataset.Players.Table():   {},
		dataset.Schedules.Table(): {},
	}
	seasonCoverageTables = []string{
		dataset.WeeklyStats.Table(),
		dataset.SeasonalStats.Table(),
		dataset.PlayByPlay.Table(),
		dataset.Schedules.Table(),
	}
)

type QualityService struct {
	repo   quality.Repository
	logger *logging.Logger
}

func NewQualityService(repo quality.Repository, logger *logging.Logger) *QualityService {
	if logger == nil {
		logger = logging.Default()
	}
	return &QualityService{repo: repo, logger: logger}
}

// ValidateTable reports row and column counts plus null rates of numeric columns.
func (s *QualityService) ValidateTable(ctx context.Context, table string) (quality.TableReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QualityService.ValidateTable")
	defer span.End()

	columns, err := s.Describe(ctx, table)
	if err != nil {
		return quality.TableReport{}, err
	}

	rows, err := s.repo.CountRows(ctx, table)
	if err != nil {
		return quality.TableReport{}, fmt.Errorf("count rows of %s: %w", table, err)
	}

	report := quality.TableReport{
		Table:       table,
		ColumnCount: len(columns),
		RowCount:    rows,
		Nulls:       make([]quality.NullStat, 0, len(columns)),
	}
	for _, col := range columns {
		if col.Name == "created_at" || col.Name == "updated_at" {
			continue
		}
		switch dataset.FromSQLType(col.DataType) {
		case dataset.TypeInteger, dataset.TypeReal:
		default:
			continue
		}

		nulls, err := s.repo.CountNulls(ctx, table, col.Name)
		if err != nil {
			return quality.TableReport{}, fmt.Errorf("count nulls of %s.%s: %w", table, col.Name, err)
		}
		stat := quality.NullStat{Column: col.Name, NullCount: nulls}
		if rows > 0 {
			stat.NullPct = float64(nulls) / float64(rows) * 100
		}
		report.Nulls = append(report.Nulls, stat)
	}

	if _, ok := duplicateCheckedTables[table]; ok {
		dupes, err := s.repo.CountDuplicates(ctx, table)
		if err != nil {
			s.logger.WarnContext(ctx, "duplicate check failed", "table", table, "error", err)
		} else {
			report.Duplicates = &dupes
		}
	}
	return report, nil
}

// DatabaseStats lists tables with their record counts and season coverage.
func (s *QualityService) DatabaseStats(ctx context.Context) (quality.DatabaseStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QualityService.DatabaseStats")
	defer span.End()

	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return quality.DatabaseStats{}, fmt.Errorf("list tables: %w", err)
	}

	stats := quality.DatabaseStats{
		Tables:         tables,
		RecordCounts:   make(map[string]int64, len(tables)),
		SeasonCoverage: make(map[string][]int),
	}
	present := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		present[table] = struct{}{}
		count, err := s.repo.CountRows(ctx, table)
		if err != nil {
			s.logger.WarnContext(ctx, "count rows failed", "table", table, "error", err)
		}
		stats.RecordCounts[table] = count
	}

	for _, table := range seasonCoverageTables {
		if _, ok := present[table]; !ok {
			continue
		}
		seasons, err := s.repo.DistinctSeasons(ctx, table)
		if err != nil {
			s.logger.WarnContext(ctx, "season coverage failed", "table", table, "error", err)
			seasons = []int{}
		}
		stats.SeasonCoverage[table] = seasons
	}
	return stats, nil
}

func (s *QualityService) Describe(ctx context.Context, table string) ([]quality.ColumnInfo, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidInput)
	}

	columns, err := s.repo.Describe(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s", ErrNotFound, table)
	}
	return columns, nil
}

func (s *QualityService) ListTables(ctx context.Context) ([]string, error) {
	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Query runs an ad-hoc read-only SQL statement. Writes and DDL are refused.
func (s *QualityService) Query(ctx context.Context, sql string) (quality.QueryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QualityService.Query")
	defer span.End()

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return quality.QueryResult{}, fmt.Errorf("%w: query is empty", ErrInvalidInput)
	}
	if err := quality.CheckReadOnly(sql); err != nil {
		return quality.QueryResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	result, err := s.repo.Query(ctx, sql)
	if err != nil {
		return quality.QueryResult{}, fmt.Errorf("run query: %w", err)
	}
	return result, nil
}

// HighNullColumns returns the columns whose null rate is above thresholdPct,
// worst first.
func HighNullColumns(report quality.TableReport, thresholdPct float64) []quality.NullStat {
	out := make([]quality.NullStat, 0)
	for _, stat := range report.Nulls {
		if stat.NullPct > thresholdPct {
			out = append(out, stat)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NullPct > out[j].NullPct })
	return out
}
