package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
	refreshlogmock "github.com/riskibarqy/nfl-analytics/internal/mocks/domain/refreshlog"
	"github.com/stretchr/testify/mock"
)

func TestRefreshLedger_Log_SwallowsRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := refreshlogmock.NewRepository(t)
	ledger := NewRefreshLedger(repo, nil)
	fixed := time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	repo.
		On("Append", mock.Anything, mock.MatchedBy(func(e refreshlog.Entry) bool {
			return e.TableName == "pbp_data" &&
				e.Status == refreshlog.StatusFailed &&
				e.ErrorMessage != nil && *e.ErrorMessage == "boom" &&
				e.RefreshDate.Equal(fixed) &&
				e.SeasonType == refreshlog.SeasonTypeRegular
		})).
		Return(int64(0), errors.New("database is locked")).
		Once()

	ledger.Log(context.Background(), LedgerEntry{
		Table:  "pbp_data",
		Season: 2023,
		Status: refreshlog.StatusFailed,
		Err:    errors.New("boom"),
	})
}

func TestRefreshLedger_LastSuccess(t *testing.T) {
	t.Parallel()

	repo := refreshlogmock.NewRepository(t)
	ledger := NewRefreshLedger(repo, nil)
	at := time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)
	week := 1

	repo.On("LastSuccess", mock.Anything, "weekly_stats", 2024, &week).Return(&at, true, nil).Once()
	repo.On("LastSuccess", mock.Anything, "weekly_stats", 2023, (*int)(nil)).Return(nil, false, nil).Once()

	got, err := ledger.LastSuccess(context.Background(), "weekly_stats", 2024, &week)
	if err != nil {
		t.Fatalf("last success: %v", err)
	}
	if got == nil || !got.Equal(at) {
		t.Fatalf("unexpected last success: %v", got)
	}

	got, err = ledger.LastSuccess(context.Background(), "weekly_stats", 2023, nil)
	if err != nil {
		t.Fatalf("last success: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no refresh, got=%v", got)
	}

	if _, err := ledger.LastSuccess(context.Background(), " ", 2023, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
}

func TestRefreshLedger_History_DefaultsLimit(t *testing.T) {
	t.Parallel()

	repo := refreshlogmock.NewRepository(t)
	ledger := NewRefreshLedger(repo, nil)
	repo.On("ListRecent", mock.Anything, "teams", 20).Return([]refreshlog.Entry{{ID: 3}, {ID: 2}}, nil).Once()

	entries, err := ledger.History(context.Background(), "teams", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 3 {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}
