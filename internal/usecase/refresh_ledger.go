package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

const defaultHistoryLimit = 20

// LedgerEntry is one refresh attempt to be recorded.
type LedgerEntry struct {
	Table      string
	Season     int
	Week       *int
	SeasonType string
	Status     refreshlog.Status
	Err        error
	Records    int
}

// RefreshLedger appends refresh outcomes and answers freshness queries.
type RefreshLedger struct {
	repo   refreshlog.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewRefreshLedger(repo refreshlog.Repository, logger *logging.Logger) *RefreshLedger {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshLedger{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Log records the entry. Storage failures are logged and swallowed so an
// audit gap never aborts an ingestion unit.
func (l *RefreshLedger) Log(ctx context.Context, in LedgerEntry) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshLedger.Log")
	defer span.End()

	seasonType := strings.TrimSpace(in.SeasonType)
	if seasonType == "" {
		seasonType = refreshlog.SeasonTypeRegular
	}

	entry := refreshlog.Entry{
		TableName:        in.Table,
		Season:           in.Season,
		Week:             in.Week,
		SeasonType:       seasonType,
		RefreshDate:      l.now().UTC(),
		Status:           in.Status,
		RecordsProcessed: in.Records,
	}
	if in.Err != nil {
		msg := in.Err.Error()
		entry.ErrorMessage = &msg
	}

	id, err := l.repo.Append(ctx, entry)
	if err != nil {
		l.logger.ErrorContext(ctx, "append refresh log entry failed",
			"table", in.Table,
			"season", in.Season,
			"status", in.Status,
			"error", err,
		)
		return
	}

	l.logger.DebugContext(ctx, "refresh log entry appended",
		"id", id,
		"table", in.Table,
		"season", in.Season,
		"status", in.Status,
		"records", in.Records,
	)
}

// LastSuccess returns the newest successful refresh time, or nil when the
// table was never refreshed for that season (and week).
func (l *RefreshLedger) LastSuccess(ctx context.Context, table string, season int, week *int) (*time.Time, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshLedger.LastSuccess")
	defer span.End()

	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidInput)
	}

	at, ok, err := l.repo.LastSuccess(ctx, table, season, week)
	if err != nil {
		return nil, fmt.Errorf("query last refresh for %s: %w", table, err)
	}
	if !ok {
		return nil, nil
	}
	return at, nil
}

func (l *RefreshLedger) History(ctx context.Context, table string, limit int) ([]refreshlog.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshLedger.History")
	defer span.End()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := l.repo.ListRecent(ctx, strings.TrimSpace(table), limit)
	if err != nil {
		return nil, fmt.Errorf("list refresh history: %w", err)
	}
	return entries, nil
}
