package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	qb "github.com/riskibarqy/nfl-analytics/internal/platform/querybuilder"
)

type RefreshLogRepository struct {
	db *sqlx.DB

	// idMu makes MAX(id)+1 allocation and the insert atomic across goroutines.
	idMu sync.Mutex
	now  func() time.Time
}

func NewRefreshLogRepository(db *sqlx.DB) *RefreshLogRepository {
	return &RefreshLogRepository{db: db, now: time.Now}
}

func (r *RefreshLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, refreshLogDDL); err != nil {
		return crerr.Wrap(err, "create data_refresh_log")
	}
	return nil
}

func (r *RefreshLogRepository) Append(ctx context.Context, entry refreshlog.Entry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, fmt.Errorf("validate refresh log entry: %w", err)
	}
	if entry.RefreshDate.IsZero() {
		entry.RefreshDate = r.now()
	}

	r.idMu.Lock()
	defer r.idMu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, crerr.Wrap(err, "begin tx append refresh log")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	nextQuery, nextArgs, err := qb.Select("COALESCE(MAX(id), 0) + 1").From(refreshLogTable).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build next refresh log id query: %w", err)
	}
	var id int64
	if err := tx.GetContext(ctx, &id, nextQuery, nextArgs...); err != nil {
		return 0, crerr.Wrap(err, "allocate refresh log id")
	}

	insertQuery, insertArgs, err := qb.InsertModel(refreshLogTable, newRefreshLogInsertModel(id, entry), "")
	if err != nil {
		return 0, fmt.Errorf("build insert refresh log query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return 0, crerr.Wrapf(err, "insert refresh log %d", id)
	}
	if err := tx.Commit(); err != nil {
		return 0, crerr.Wrap(err, "commit append refresh log tx")
	}
	return id, nil
}

func (r *RefreshLogRepository) LastSuccess(ctx context.Context, table string, season int, week *int) (*time.Time, bool, error) {
	conds := []qb.Condition{
		qb.Eq("table_name", table),
		qb.Eq("season", int64(season)),
		qb.EqLiteral("status", string(refreshlog.StatusSuccess)),
	}
	if week != nil {
		conds = append(conds, qb.Eq("week", int64(*week)))
	}
	query, args, err := qb.Select("MAX(refresh_date)").From(refreshLogTable).Where(conds...).ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build last success query: %w", err)
	}

	var last sql.NullTime
	if err := r.db.GetContext(ctx, &last, query, args...); err != nil {
		return nil, false, crerr.Wrapf(err, "query last success for %s", table)
	}
	if !last.Valid {
		return nil, false, nil
	}
	ts := last.Time
	return &ts, true, nil
}

func (r *RefreshLogRepository) ListRecent(ctx context.Context, table string, limit int) ([]refreshlog.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	builder := qb.Select(
		"id", "table_name", "season", "week", "season_type",
		"refresh_date", "status", "error_message", "records_processed",
	).From(refreshLogTable)
	if table != "" {
		builder.Where(qb.Eq("table_name", table))
	}
	query, args, err := builder.OrderBy("id DESC").Limit(limit).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list refresh log query: %w", err)
	}

	var rows []refreshLogTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list refresh log")
	}
	out := make([]refreshlog.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
