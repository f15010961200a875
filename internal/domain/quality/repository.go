package quality

import (
	"context"

	"github.com/riskibarqy/nfl-analytics/internal/domain/ecr"
)

// Repository describes read-only inspection needs from use cases.
type Repository interface {
	ListTables(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, table string) ([]ColumnInfo, error)
	CountRows(ctx context.Context, table string) (int64, error)
	CountNulls(ctx context.Context, table, column string) (int64, error)
	CountDuplicates(ctx context.Context, table string) (int64, error)
	DistinctSeasons(ctx context.Context, table string) ([]int, error)
	Query(ctx context.Context, sql string) (QueryResult, error)
	VerifyECR(ctx context.Context) (ecr.Verification, error)
}
