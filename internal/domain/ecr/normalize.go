package ecr

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern         = regexp.MustCompile(`(\d{4})`)
	parenTeamPattern    = regexp.MustCompile(`^(.+?)\s*\(([A-Z]{2,4})\)$`)
	trailingTeamPattern = regexp.MustCompile(`^(.+?)\s+([A-Z]{2,4})$`)
)

var columnSynonyms = map[string]string{
	"player name":    "player_name",
	"overall (team)": "player_name",
	"player":         "player_name",
	"player (team)":  "player_name",

	"pos":      "position",
	"position": "position",

	"rk":   "rank",
	"rank": "rank",

	"best":      "best_rank",
	"best rank": "best_rank",

	"worst":      "worst_rank",
	"worst rank": "worst_rank",

	"avg.":     "avg_rank",
	"avg":      "avg_rank",
	"average":  "avg_rank",
	"ave rank": "avg_rank",

	"std.dev":            "stddev_rank",
	"std dev":            "stddev_rank",
	"stddev":             "stddev_rank",
	"standard deviation": "stddev_rank",

	"adp": "adp",

	"ecr vs. adp": "vs_adp",
	"vs. adp":     "vs_adp",
	"vs adp":      "vs_adp",
	"versus adp":  "vs_adp",
}

// ParseFileMetadata reads the season year and the pre-preseason flag from an export's file name.
func ParseFileMetadata(path string) (FileMetadata, error) {
	name := filepath.Base(path)
	match := yearPattern.FindStringSubmatch(name)
	if match == nil {
		return FileMetadata{}, fmt.Errorf("%w: %s", ErrNoYear, name)
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return FileMetadata{}, fmt.Errorf("%w: %s", ErrNoYear, name)
	}
	return FileMetadata{
		FileName:        name,
		Year:            year,
		BeforePreseason: strings.Contains(strings.ToLower(name), "prepreseason"),
	}, nil
}

// NormalizeColumn lower-cases and trims a header cell, then maps known synonyms.
func NormalizeColumn(raw string) string {
	col := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := columnSynonyms[col]; ok {
		return mapped
	}
	return col
}

// ExtractPlayerName strips a trailing team code, either "(SF)" or " SF", from a player cell.
func ExtractPlayerName(raw string) string {
	value := strings.TrimSpace(raw)
	if m := parenTeamPattern.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := trailingTeamPattern.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(m[1])
	}
	return value
}

// DeriveADP applies adp = rank - vs_adp; it returns nil when vs_adp is unknown.
func DeriveADP(rank float64, vsADP *float64) *float64 {
	if vsADP == nil || math.IsNaN(rank) {
		return nil
	}
	adp := rank - *vsADP
	return &adp
}

// RepairHeader re-anchors the header of exports whose real header sits below a blank row.
// It only applies when there are more than five data rows and the first one is blank.
func RepairHeader(frame Frame) Frame {
	if len(frame.Rows) <= 5 || !blankRow(frame.Rows[0]) {
		return frame
	}
	for i := 0; i < 5; i++ {
		if rowMentionsRank(frame.Rows[i]) {
			return Frame{Header: frame.Rows[i], Rows: frame.Rows[i+1:]}
		}
	}
	return Frame{Header: frame.Rows[1], Rows: frame.Rows[2:]}
}

// Normalize turns a raw frame into ranking records for the given file metadata.
func Normalize(frame Frame, meta FileMetadata) []RankingRecord {
	index := make(map[string]int, len(frame.Header))
	for i, h := range frame.Header {
		col := NormalizeColumn(h)
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	cell := func(row []string, col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return "", ok
		}
		return row[i], true
	}
	number := func(row []string, col string) *float64 {
		raw, _ := cell(row, col)
		return parseNumber(raw)
	}

	_, hasADP := index["adp"]
	out := make([]RankingRecord, 0, len(frame.Rows))
	for i, row := range frame.Rows {
		rawName, _ := cell(row, "player_name")
		name := ExtractPlayerName(rawName)
		if name == "" || name == "nan" {
			continue
		}

		position, _ := cell(row, "position")
		rec := RankingRecord{
			Year:            meta.Year,
			BeforePreseason: meta.BeforePreseason,
			PlayerName:      name,
			Position:        strings.TrimSpace(position),
			Rank:            float64(i + 1),
			BestRank:        number(row, "best_rank"),
			WorstRank:       number(row, "worst_rank"),
			AvgRank:         number(row, "avg_rank"),
			StddevRank:      number(row, "stddev_rank"),
			VsADP:           number(row, "vs_adp"),
		}
		if rank := number(row, "rank"); rank != nil {
			rec.Rank = *rank
		}
		if hasADP {
			rec.ADP = number(row, "adp")
		}
		if rec.ADP == nil {
			rec.ADP = DeriveADP(rec.Rank, rec.VsADP)
		}
		out = append(out, rec)
	}
	return out
}

func parseNumber(raw string) *float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowMentionsRank(row []string) bool {
	for _, c := range row {
		if strings.Contains(c, "Rank") || strings.Contains(c, "RK") {
			return true
		}
	}
	return false
}
