package warehouse

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/refreshlog"
)

const refreshLogTable = "data_refresh_log"

const refreshLogDDL = `CREATE TABLE IF NOT EXISTS data_refresh_log (
	id BIGINT PRIMARY KEY,
	table_name TEXT NOT NULL,
	season INTEGER NOT NULL,
	week INTEGER,
	season_type TEXT NOT NULL,
	refresh_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	status TEXT NOT NULL CHECK (status IN ('SUCCESS', 'FAILED', 'IN_PROGRESS')),
	error_message TEXT,
	records_processed INTEGER DEFAULT 0
)`

// refreshLogInsertModel binds nullable columns as untyped nil so every driver sees NULL.
type refreshLogInsertModel struct {
	ID               int64     `db:"id"`
	TableName        string    `db:"table_name"`
	Season           int64     `db:"season"`
	Week             any       `db:"week"`
	SeasonType       string    `db:"season_type"`
	RefreshDate      time.Time `db:"refresh_date"`
	Status           string    `db:"status"`
	ErrorMessage     any       `db:"error_message"`
	RecordsProcessed int64     `db:"records_processed"`
}

func newRefreshLogInsertModel(id int64, e refreshlog.Entry) refreshLogInsertModel {
	m := refreshLogInsertModel{
		ID:               id,
		TableName:        e.TableName,
		Season:           int64(e.Season),
		SeasonType:       e.SeasonType,
		RefreshDate:      e.RefreshDate.UTC(),
		Status:           string(e.Status),
		RecordsProcessed: int64(e.RecordsProcessed),
	}
	if e.Week != nil {
		m.Week = int64(*e.Week)
	}
	if e.ErrorMessage != nil {
		m.ErrorMessage = *e.ErrorMessage
	}
	return m
}

type refreshLogTableModel struct {
	ID               int64          `db:"id"`
	TableName        string         `db:"table_name"`
	Season           int64          `db:"season"`
	Week             sql.NullInt64  `db:"week"`
	SeasonType       string         `db:"season_type"`
	RefreshDate      sql.NullTime   `db:"refresh_date"`
	Status           string         `db:"status"`
	ErrorMessage     sql.NullString `db:"error_message"`
	RecordsProcessed sql.NullInt64  `db:"records_processed"`
}

func (m refreshLogTableModel) toDomain() refreshlog.Entry {
	e := refreshlog.Entry{
		ID:               m.ID,
		TableName:        m.TableName,
		Season:           int(m.Season),
		SeasonType:       m.SeasonType,
		Status:           refreshlog.Status(m.Status),
		RecordsProcessed: int(m.RecordsProcessed.Int64),
	}
	if m.Week.Valid {
		week := int(m.Week.Int64)
		e.Week = &week
	}
	if m.RefreshDate.Valid {
		e.RefreshDate = m.RefreshDate.Time
	}
	if m.ErrorMessage.Valid {
		msg := m.ErrorMessage.String
		e.ErrorMessage = &msg
	}
	return e
}
