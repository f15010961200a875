package ecr

import (
	"errors"
	"testing"
)

func TestParseFileMetadata(t *testing.T) {
	meta, err := ParseFileMetadata("data/raw_ecr/FantasyPros_2019_PrePreseason_Overall_Rankings.xlsx")
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if meta.Year != 2019 || !meta.BeforePreseason {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	meta, err = ParseFileMetadata("FantasyPros_2020_Preseason_Overall_Rankings.xls")
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if meta.Year != 2020 || meta.BeforePreseason {
		t.Fatalf("unexpected metadata: %+v", meta)
	}

	if _, err := ParseFileMetadata("FantasyPros_Overall.xlsx"); !errors.Is(err, ErrNoYear) {
		t.Fatalf("expected ErrNoYear, got %v", err)
	}
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		" Player Name ":  "player_name",
		"Overall (Team)": "player_name",
		"POS":            "position",
		"RK":             "rank",
		"Ave Rank":       "avg_rank",
		"Std.Dev":        "stddev_rank",
		"ECR VS. ADP":    "vs_adp",
		"Bye":            "bye",
	}
	for raw, want := range tests {
		if got := NormalizeColumn(raw); got != want {
			t.Fatalf("NormalizeColumn(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestExtractPlayerName(t *testing.T) {
	tests := map[string]string{
		"Christian McCaffrey (SF)": "Christian McCaffrey",
		"Christian McCaffrey CAR":  "Christian McCaffrey",
		"  Travis Kelce  ":         "Travis Kelce",
		"Baltimore Ravens":         "Baltimore Ravens",
		"Justin Jefferson(MIN)":    "Justin Jefferson",
		"":                         "",
	}
	for raw, want := range tests {
		if got := ExtractPlayerName(raw); got != want {
			t.Fatalf("ExtractPlayerName(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestNormalizeDerivesADPAndDefaultsRank(t *testing.T) {
	frame := Frame{
		Header: []string{"RK", "Player Name", "POS", "ECR VS. ADP"},
		Rows: [][]string{
			{"1", "Christian McCaffrey (SF)", "RB1", "2"},
			{"", "Tyreek Hill MIA", "WR1", "-1.5"},
			{"3", "nan", "WR2", "0"},
			{"4", "Ja'Marr Chase (CIN)", "", "n/a"},
		},
	}

	got := Normalize(frame, FileMetadata{Year: 2023})
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	first := got[0]
	if first.PlayerName != "Christian McCaffrey" || first.Position != "RB1" || first.Rank != 1 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.ADP == nil || *first.ADP != -1 {
		t.Fatalf("expected adp = rank - vs_adp = -1, got %v", first.ADP)
	}

	second := got[1]
	if second.Rank != 2 {
		t.Fatalf("expected rank to default to row position 2, got %v", second.Rank)
	}
	if second.ADP == nil || *second.ADP != 3.5 {
		t.Fatalf("expected adp 3.5, got %v", second.ADP)
	}

	third := got[2]
	if third.ADP != nil || third.VsADP != nil {
		t.Fatalf("expected null adp for non-numeric vs_adp, got %+v", third)
	}
	if third.Position != "" {
		t.Fatalf("expected empty position, got %q", third.Position)
	}
}

func TestNormalizeKeepsExplicitADP(t *testing.T) {
	frame := Frame{
		Header: []string{"Rank", "Player", "ADP", "vs ADP"},
		Rows: [][]string{
			{"5", "Josh Allen (BUF)", "7.0", "-2"},
			{"6", "Jalen Hurts (PHI)", "", "1"},
		},
	}

	got := Normalize(frame, FileMetadata{Year: 2022, BeforePreseason: true})
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ADP == nil || *got[0].ADP != 7 {
		t.Fatalf("expected explicit adp 7, got %v", got[0].ADP)
	}
	if got[1].ADP == nil || *got[1].ADP != 5 {
		t.Fatalf("expected derived adp 5, got %v", got[1].ADP)
	}
	if !got[0].BeforePreseason || got[0].Year != 2022 {
		t.Fatalf("metadata not propagated: %+v", got[0])
	}
}

func TestNormalizeWithoutPlayerColumnDropsEverything(t *testing.T) {
	frame := Frame{Header: []string{"Rank", "Team"}, Rows: [][]string{{"1", "SF"}}}
	if got := Normalize(frame, FileMetadata{Year: 2021}); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestRepairHeader(t *testing.T) {
	rows := [][]string{
		{"", "", ""},
		{"2017 Draft Cheat Sheet", "", ""},
		{"Rank", "Player (Team)", "Pos"},
		{"1", "Todd Gurley (LAR)", "RB1"},
		{"2", "Le'Veon Bell (PIT)", "RB2"},
		{"3", "David Johnson (ARI)", "RB3"},
	}
	got := RepairHeader(Frame{Header: []string{"Unnamed: 0", "", ""}, Rows: rows})
	if got.Header[0] != "Rank" || len(got.Rows) != 3 || got.Rows[0][1] != "Todd Gurley (LAR)" {
		t.Fatalf("unexpected repaired frame: %+v", got)
	}

	noRank := [][]string{
		{"", ""},
		{"#", "Player"},
		{"1", "A"},
		{"2", "B"},
		{"3", "C"},
		{"4", "D"},
	}
	got = RepairHeader(Frame{Header: []string{"x", "y"}, Rows: noRank})
	if got.Header[1] != "Player" || len(got.Rows) != 4 {
		t.Fatalf("expected fallback to row 1 as header, got %+v", got)
	}

	short := Frame{Header: []string{"Rank"}, Rows: [][]string{{""}, {"1"}}}
	if got := RepairHeader(short); len(got.Rows) != 2 || got.Header[0] != "Rank" {
		t.Fatalf("short frame must be left untouched, got %+v", got)
	}
}

func TestToBatch(t *testing.T) {
	adp := 4.5
	batch := ToBatch([]RankingRecord{{Year: 2024, PlayerName: "Bijan Robinson", Rank: 3, ADP: &adp}})
	if batch.Len() != 1 || len(batch.Columns) != 11 {
		t.Fatalf("unexpected batch shape: %d rows %d columns", batch.Len(), len(batch.Columns))
	}
	row := batch.Rows[0]
	if row["year"] != int64(2024) || row["adp"] != 4.5 || row["vs_adp"] != nil {
		t.Fatalf("unexpected row: %+v", row)
	}
}
