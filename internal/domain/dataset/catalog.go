package dataset

import "fmt"

// Name identifies an upstream dataset; it doubles as the destination table name.
type Name string

const (
	Teams         Name = "teams"
	Players       Name = "players"
	Schedules     Name = "schedules"
	PlayByPlay    Name = "pbp_data"
	WeeklyStats   Name = "weekly_stats"
	SeasonalStats Name = "seasonal_stats"
	Rosters       Name = "rosters"
	Injuries      Name = "injuries"
	RawECR        Name = "raw_ecr_rankings"
)

// SeasonalNames are fetched once per requested season.
var SeasonalNames = []Name{PlayByPlay, WeeklyStats, SeasonalStats, Rosters, Injuries}

func (n Name) Table() string {
	return string(n)
}

// Label is the human name used in ledger error messages.
func (n Name) Label() string {
	switch n {
	case PlayByPlay:
		return "play-by-play"
	case WeeklyStats:
		return "weekly stats"
	case SeasonalStats:
		return "seasonal stats"
	case RawECR:
		return "raw ECR"
	default:
		return string(n)
	}
}

// Seasonal reports whether the dataset is partitioned by season upstream.
func (n Name) Seasonal() bool {
	return n != Teams && n != Players && n != RawECR
}

// Policy is the conflict policy the dataset is materialized with.
func (n Name) Policy() ConflictPolicy {
	switch n {
	case Teams, Players, RawECR:
		return ReplaceAll()
	case WeeklyStats:
		return ReplaceByPartition("season", "week")
	default:
		return ReplaceByPartition("season")
	}
}

func ParseName(raw string) (Name, error) {
	for _, n := range []Name{Teams, Players, Schedules, PlayByPlay, WeeklyStats, SeasonalStats, Rosters, Injuries, RawECR} {
		if string(n) == raw {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown dataset %q", raw)
}
