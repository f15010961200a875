package warehouse

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-analytics/internal/domain/ecr"
	"github.com/riskibarqy/nfl-analytics/internal/domain/quality"
	qb "github.com/riskibarqy/nfl-analytics/internal/platform/querybuilder"
)

// InspectRepository serves read-only catalog and data quality queries.
type InspectRepository struct {
	db *sqlx.DB
}

func NewInspectRepository(db *sqlx.DB) *InspectRepository {
	return &InspectRepository{db: db}
}

func (r *InspectRepository) ListTables(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("table_name").
		From("information_schema.tables").
		Where(qb.Expr("table_schema = current_schema()")).
		OrderBy("table_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tables query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list tables")
	}
	return out, nil
}

func (r *InspectRepository) Describe(ctx context.Context, table string) ([]quality.ColumnInfo, error) {
	query, args, err := qb.Select("column_name", "data_type").
		From("information_schema.columns").
		Where(
			qb.Expr("table_schema = current_schema()"),
			qb.Eq("table_name", table),
		).
		OrderBy("ordinal_position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build describe query: %w", err)
	}

	var rows []catalogColumn
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "describe %s", table)
	}
	out := make([]quality.ColumnInfo, 0, len(rows))
	for _, c := range rows {
		out = append(out, quality.ColumnInfo{Name: c.Name, DataType: c.DataType})
	}
	return out, nil
}

func (r *InspectRepository) CountRows(ctx context.Context, table string) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").From(qb.QuoteIdent(table)).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, crerr.Wrapf(err, "count rows in %s", table)
	}
	return n, nil
}

func (r *InspectRepository) CountNulls(ctx context.Context, table, column string) (int64, error) {
	query, args, err := qb.Select("COUNT(*)").
		From(qb.QuoteIdent(table)).
		Where(qb.IsNull(qb.QuoteIdent(column))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build null count query: %w", err)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, crerr.Wrapf(err, "count nulls in %s.%s", table, column)
	}
	return n, nil
}

// CountDuplicates reports how many rows are exact copies of another row.
func (r *InspectRepository) CountDuplicates(ctx context.Context, table string) (int64, error) {
	t := qb.QuoteIdent(table)
	query := "SELECT (SELECT COUNT(*) FROM " + t + ") - (SELECT COUNT(*) FROM (SELECT DISTINCT * FROM " + t + ") d)"
	var n int64
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, crerr.Wrapf(err, "count duplicates in %s", table)
	}
	return n, nil
}

func (r *InspectRepository) DistinctSeasons(ctx context.Context, table string) ([]int, error) {
	query, args, err := qb.Select("DISTINCT season").
		From(qb.QuoteIdent(table)).
		Where(qb.Expr("season IS NOT NULL")).
		OrderBy("season").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build distinct seasons query: %w", err)
	}
	var out []int
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "list seasons in %s", table)
	}
	return out, nil
}

// Query runs one read-only statement and returns its rows keyed by column.
func (r *InspectRepository) Query(ctx context.Context, sqlText string) (quality.QueryResult, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return quality.QueryResult{}, fmt.Errorf("query is required")
	}

	if err := quality.CheckReadOnly(sqlText); err != nil {
		return quality.QueryResult{}, err
	}

	// Rolled back unconditionally so nothing the statement touches is kept.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return quality.QueryResult{}, crerr.Wrap(err, "begin query transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryxContext(ctx, sqlText)
	if err != nil {
		return quality.QueryResult{}, crerr.Wrap(err, "execute query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return quality.QueryResult{}, crerr.Wrap(err, "read query columns")
	}
	out := quality.QueryResult{Columns: cols}
	for rows.Next() {
		record := make(map[string]any, len(cols))
		if err := rows.MapScan(record); err != nil {
			return quality.QueryResult{}, crerr.Wrap(err, "scan query row")
		}
		for k, v := range record {
			if b, ok := v.([]byte); ok {
				record[k] = string(b)
			}
		}
		out.Rows = append(out.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return quality.QueryResult{}, crerr.Wrap(err, "iterate query rows")
	}
	return out, nil
}

const (
	ecrYearCoverageQuery = `SELECT CAST(year AS BIGINT) AS year,
	CAST(COUNT(*) AS BIGINT) AS total_records,
	CAST(SUM(CASE WHEN before_preseason THEN 1 ELSE 0 END) AS BIGINT) AS before_preseason_records,
	CAST(SUM(CASE WHEN before_preseason THEN 0 ELSE 1 END) AS BIGINT) AS after_preseason_records
FROM raw_ecr_rankings GROUP BY year ORDER BY year`

	ecrMissingDataQuery = `SELECT
	CAST(COALESCE(SUM(CASE WHEN player_name IS NULL OR player_name = '' THEN 1 ELSE 0 END), 0) AS BIGINT) AS missing_player_names,
	CAST(COALESCE(SUM(CASE WHEN position IS NULL OR position = '' THEN 1 ELSE 0 END), 0) AS BIGINT) AS missing_positions,
	CAST(COALESCE(SUM(CASE WHEN rank IS NULL THEN 1 ELSE 0 END), 0) AS BIGINT) AS missing_ranks,
	CAST(COALESCE(SUM(CASE WHEN avg_rank IS NULL THEN 1 ELSE 0 END), 0) AS BIGINT) AS missing_avg_ranks
FROM raw_ecr_rankings`

	ecrDataQualityQuery = `SELECT
	CAST(COALESCE(MIN(year), 0) AS BIGINT) AS min_year,
	CAST(COALESCE(MAX(year), 0) AS BIGINT) AS max_year,
	CAST(COUNT(DISTINCT year) AS BIGINT) AS unique_years,
	CAST(COUNT(DISTINCT CASE WHEN before_preseason THEN year END) AS BIGINT) AS years_with_prepreseason,
	CAST(COUNT(DISTINCT CASE WHEN NOT before_preseason THEN year END) AS BIGINT) AS years_with_preseason
FROM raw_ecr_rankings`
)

func (r *InspectRepository) VerifyECR(ctx context.Context) (ecr.Verification, error) {
	var out ecr.Verification
	total, err := r.CountRows(ctx, "raw_ecr_rankings")
	if err != nil {
		return ecr.Verification{}, err
	}
	out.TotalRecords = total

	if err := r.db.SelectContext(ctx, &out.YearCoverage, ecrYearCoverageQuery); err != nil {
		return ecr.Verification{}, crerr.Wrap(err, "query ecr year coverage")
	}
	if err := r.db.GetContext(ctx, &out.Missing, ecrMissingDataQuery); err != nil {
		return ecr.Verification{}, crerr.Wrap(err, "query ecr missing data")
	}
	if err := r.db.GetContext(ctx, &out.Quality, ecrDataQualityQuery); err != nil {
		return ecr.Verification{}, crerr.Wrap(err, "query ecr data quality")
	}
	return out, nil
}
