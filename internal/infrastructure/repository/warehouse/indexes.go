package warehouse

import (
	"context"
	"strings"

	crerr "github.com/cockroachdb/errors"
	qb "github.com/riskibarqy/nfl-analytics/internal/platform/querybuilder"
)

type indexDef struct {
	name    string
	table   string
	columns []string
}

var analyticsIndexes = []indexDef{
	{name: "idx_pbp_game_id", table: "pbp_data", columns: []string{"game_id"}},
	{name: "idx_pbp_season_week", table: "pbp_data", columns: []string{"season", "week"}},
	{name: "idx_pbp_season_type", table: "pbp_data", columns: []string{"season_type"}},
	{name: "idx_pbp_posteam", table: "pbp_data", columns: []string{"posteam"}},
	{name: "idx_pbp_defteam", table: "pbp_data", columns: []string{"defteam"}},
	{name: "idx_pbp_play_type", table: "pbp_data", columns: []string{"play_type"}},
	{name: "idx_pbp_down", table: "pbp_data", columns: []string{"down"}},
	{name: "idx_pbp_qtr", table: "pbp_data", columns: []string{"qtr"}},
	{name: "idx_pbp_game_date", table: "pbp_data", columns: []string{"game_date"}},

	{name: "idx_weekly_player_season_week", table: "weekly_stats", columns: []string{"player_id", "season", "week"}},
	{name: "idx_weekly_season_type", table: "weekly_stats", columns: []string{"season_type"}},
	{name: "idx_weekly_position", table: "weekly_stats", columns: []string{"position"}},
	{name: "idx_weekly_recent_team", table: "weekly_stats", columns: []string{"recent_team"}},
	{name: "idx_weekly_opponent_team", table: "weekly_stats", columns: []string{"opponent_team"}},
	{name: "idx_weekly_fantasy_points", table: "weekly_stats", columns: []string{"fantasy_points"}},

	{name: "idx_seasonal_player_season", table: "seasonal_stats", columns: []string{"player_id", "season"}},
	{name: "idx_seasonal_season_type", table: "seasonal_stats", columns: []string{"season_type"}},
	{name: "idx_seasonal_position", table: "seasonal_stats", columns: []string{"position"}},
	{name: "idx_seasonal_recent_team", table: "seasonal_stats", columns: []string{"recent_team"}},
	{name: "idx_seasonal_fantasy_points", table: "seasonal_stats", columns: []string{"fantasy_points"}},

	{name: "idx_schedules_season_week", table: "schedules", columns: []string{"season", "week"}},
	{name: "idx_schedules_gameday", table: "schedules", columns: []string{"gameday"}},
	{name: "idx_schedules_teams", table: "schedules", columns: []string{"home_team", "away_team"}},
	{name: "idx_schedules_season_type", table: "schedules", columns: []string{"season_type"}},

	{name: "idx_rosters_player_season_week", table: "rosters", columns: []string{"player_id", "season", "week"}},
	{name: "idx_rosters_team", table: "rosters", columns: []string{"team"}},
	{name: "idx_rosters_position", table: "rosters", columns: []string{"position"}},
	{name: "idx_rosters_status", table: "rosters", columns: []string{"status"}},

	{name: "idx_players_position", table: "players", columns: []string{"position"}},
	{name: "idx_players_team", table: "players", columns: []string{"team"}},
	{name: "idx_players_status", table: "players", columns: []string{"status"}},
	{name: "idx_players_college", table: "players", columns: []string{"college"}},
	{name: "idx_players_entry_year", table: "players", columns: []string{"entry_year"}},

	{name: "idx_teams_conf_division", table: "teams", columns: []string{"team_conf", "team_division"}},

	{name: "idx_injuries_player_season_week", table: "injuries", columns: []string{"player_id", "season", "week"}},
	{name: "idx_injuries_report_date", table: "injuries", columns: []string{"report_date"}},
	{name: "idx_injuries_report_status", table: "injuries", columns: []string{"report_status"}},

	{name: "idx_refresh_log_table_season_week", table: "data_refresh_log", columns: []string{"table_name", "season", "week"}},
	{name: "idx_refresh_log_status", table: "data_refresh_log", columns: []string{"status"}},
	{name: "idx_refresh_log_refresh_date", table: "data_refresh_log", columns: []string{"refresh_date"}},
}

func (d indexDef) sql() string {
	return "CREATE INDEX IF NOT EXISTS " + qb.QuoteIdent(d.name) +
		" ON " + qb.QuoteIdent(d.table) +
		" (" + strings.Join(qb.QuoteIdents(d.columns), ", ") + ")"
}

// EnsureIndexes creates the analytics indexes whose table and columns exist, returning how many were applied.
func (r *TableRepository) EnsureIndexes(ctx context.Context) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	applied := 0
	for _, idx := range analyticsIndexes {
		desc, found, err := r.registry.Lookup(ctx, idx.table)
		if err != nil {
			return applied, err
		}
		if !found {
			r.logger.DebugContext(ctx, "skip index, table missing", "index", idx.name, "table", idx.table)
			continue
		}
		complete := true
		for _, c := range idx.columns {
			if _, ok := desc.Column(c); !ok {
				complete = false
				break
			}
		}
		if !complete {
			r.logger.DebugContext(ctx, "skip index, column missing", "index", idx.name, "table", idx.table)
			continue
		}
		if _, err := r.db.ExecContext(ctx, idx.sql()); err != nil {
			return applied, crerr.Wrapf(err, "create index %s", idx.name)
		}
		applied++
	}
	return applied, nil
}
