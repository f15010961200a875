package refreshlog

import (
	"context"
	"time"
)

// Repository describes ledger persistence needs from use cases.
type Repository interface {
	Append(ctx context.Context, entry Entry) (int64, error)
	LastSuccess(ctx context.Context, table string, season int, week *int) (*time.Time, bool, error)
	ListRecent(ctx context.Context, table string, limit int) ([]Entry, error)
}
