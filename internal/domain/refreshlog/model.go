package refreshlog

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusInProgress Status = "IN_PROGRESS"
)

const (
	SeasonTypeAll     = "ALL"
	SeasonTypeRegular = "REG"
)

// Entry is one append-only ledger row describing a refresh attempt.
type Entry struct {
	ID               int64
	TableName        string
	Season           int
	Week             *int
	SeasonType       string
	RefreshDate      time.Time
	Status           Status
	ErrorMessage     *string
	RecordsProcessed int
}

func (e Entry) Validate() error {
	if e.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if e.SeasonType == "" {
		return fmt.Errorf("season type is required")
	}
	switch e.Status {
	case StatusSuccess, StatusFailed, StatusInProgress:
	default:
		return fmt.Errorf("invalid refresh status %q", e.Status)
	}
	if e.RecordsProcessed < 0 {
		return fmt.Errorf("records processed must be >= 0")
	}
	return nil
}
