package fantasy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
)

type System string

const (
	SystemStandard System = "std"
	SystemHalfPPR  System = "half_ppr"
	SystemFullPPR  System = "full_ppr"
)

// Rules maps a stat column to its per-unit point multiplier.
type Rules map[string]float64

func baseRules(receptions float64) Rules {
	return Rules{
		"passing_yards":         0.04,
		"passing_tds":           4,
		"interceptions":         -2,
		"rushing_yards":         0.1,
		"rushing_tds":           6,
		"receptions":            receptions,
		"receiving_yards":       0.1,
		"receiving_tds":         6,
		"fumbles_lost":          -2,
		"two_point_conversions": 2,
	}
}

// ScoringSystems holds the published coefficients per system.
var ScoringSystems = map[System]Rules{
	SystemStandard: baseRules(0),
	SystemHalfPPR:  baseRules(0.5),
	SystemFullPPR:  baseRules(1),
}

func ParseSystem(raw string) (System, error) {
	s := System(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := ScoringSystems[s]; !ok {
		return "", fmt.Errorf("unknown scoring system %q", raw)
	}
	return s, nil
}

func (s System) Column() string {
	return "fantasy_points_" + string(s)
}

// Systems returns the scoring systems in a stable order.
func Systems() []System {
	out := make([]System, 0, len(ScoringSystems))
	for s := range ScoringSystems {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Points scores one stat line; unknown systems fall back to standard.
func Points(stats map[string]float64, system System) float64 {
	rules, ok := ScoringSystems[system]
	if !ok {
		rules = ScoringSystems[SystemStandard]
	}
	total := 0.0
	for stat, multiplier := range rules {
		total += stats[stat] * multiplier
	}
	return round2(total)
}

// Enrich adds one fantasy_points_<system> column per scoring system to the batch.
func Enrich(batch dataset.Batch) dataset.Batch {
	out := batch
	for _, system := range Systems() {
		out = out.WithColumn(system.Column(), "float64")
	}
	rows := make([]dataset.Row, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		stats := make(map[string]float64, len(ScoringSystems[SystemStandard]))
		for stat := range ScoringSystems[SystemStandard] {
			stats[stat] = numeric(row[stat])
		}
		enriched := make(dataset.Row, len(row)+len(ScoringSystems))
		for k, v := range row {
			enriched[k] = v
		}
		for _, system := range Systems() {
			enriched[system.Column()] = Points(stats, system)
		}
		rows = append(rows, enriched)
	}
	out.Rows = rows
	return out
}

func numeric(v any) float64 {
	var f float64
	switch n := v.(type) {
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case float64:
		f = n
	case float32:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
