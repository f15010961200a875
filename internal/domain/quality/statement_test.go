package quality

import (
	"errors"
	"testing"
)

func TestCheckReadOnly(t *testing.T) {
	allowed := []string{
		"SELECT season, COUNT(*) FROM weekly_stats GROUP BY season",
		"select * from fantasypros_ecr;",
		"WITH top AS (SELECT * FROM weekly_stats ORDER BY fantasy_points_ppr DESC LIMIT 10) SELECT * FROM top",
		"DESCRIBE weekly_stats",
		"SHOW TABLES",
		"SELECT 'DROP TABLE teams' AS note -- delete later",
		"SELECT \"update\" FROM /* insert */ play_by_play",
	}
	for _, sql := range allowed {
		if err := CheckReadOnly(sql); err != nil {
			t.Fatalf("expected %q to be allowed, got %v", sql, err)
		}
	}

	refused := []string{
		"",
		"   ;  ",
		"DELETE FROM teams",
		"DROP TABLE data_refresh_log",
		"insert into teams values (1)",
		"UPDATE weekly_stats SET week = 0",
		"WITH gone AS (SELECT 1) DELETE FROM teams",
		"SELECT * INTO backup FROM teams",
		"SELECT 1; DROP TABLE teams",
		"COPY teams TO 'teams.csv'",
		"ATTACH 'other.duckdb'",
		"PRAGMA enable_profiling",
	}
	for _, sql := range refused {
		if err := CheckReadOnly(sql); !errors.Is(err, ErrNotReadOnly) {
			t.Fatalf("expected %q to be refused, got %v", sql, err)
		}
	}
}
