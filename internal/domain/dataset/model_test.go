package dataset

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestTableDescriptorDiff(t *testing.T) {
	desc := TableDescriptor{
		Name: "weekly_stats",
		Columns: []ColumnSpec{
			{Name: "season", Type: TypeInteger},
			{Name: "week", Type: TypeInteger},
			{Name: "player_id", Type: TypeText},
		},
	}

	missing, unexpected := desc.Diff([]string{"season", "player_id", "team"})
	if !reflect.DeepEqual(missing, []string{"week"}) {
		t.Fatalf("unexpected missing columns: %v", missing)
	}
	if !reflect.DeepEqual(unexpected, []string{"team"}) {
		t.Fatalf("unexpected extra columns: %v", unexpected)
	}

	missing, unexpected = desc.Diff([]string{"week", "season", "player_id"})
	if len(missing) != 0 || len(unexpected) != 0 {
		t.Fatalf("expected matching column sets regardless of order, got %v %v", missing, unexpected)
	}
}

func TestSchemaConflictErrorAs(t *testing.T) {
	var err error = fmt.Errorf("insert: %w", &SchemaConflictError{Table: "teams", Missing: []string{"team_abbr"}})

	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected schema conflict error, got %v", err)
	}
	if conflict.Table != "teams" {
		t.Fatalf("unexpected table: %s", conflict.Table)
	}
	if got := conflict.Error(); got != "schema conflict on table teams: missing [team_abbr]" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestNamePolicy(t *testing.T) {
	tests := []struct {
		name Name
		want ConflictPolicy
	}{
		{name: Teams, want: ReplaceAll()},
		{name: Players, want: ReplaceAll()},
		{name: WeeklyStats, want: ReplaceByPartition("season", "week")},
		{name: PlayByPlay, want: ReplaceByPartition("season")},
		{name: Schedules, want: ReplaceByPartition("season")},
		{name: Injuries, want: ReplaceByPartition("season")},
	}

	for _, tc := range tests {
		if got := tc.name.Policy(); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestParseCanonicalType(t *testing.T) {
	got, err := ParseCanonicalType(" real ")
	if err != nil || got != TypeReal {
		t.Fatalf("expected REAL, got %q err=%v", got, err)
	}
	if _, err := ParseCanonicalType("DECIMAL"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if TypeReal.SQL() != "DOUBLE PRECISION" || FromSQLType("DOUBLE") != TypeReal {
		t.Fatalf("unexpected REAL mapping")
	}
	if FromSQLType("VARCHAR") != TypeText {
		t.Fatalf("expected VARCHAR to map to TEXT")
	}
}

func TestBatchFilterAndWithColumn(t *testing.T) {
	batch := Batch{
		Columns: []Column{{Name: "week", DType: "int64"}},
		Rows:    []Row{{"week": int64(1)}, {"week": int64(2)}},
	}

	filtered := batch.Filter(func(r Row) bool { return r["week"] == int64(2) })
	if filtered.Len() != 1 {
		t.Fatalf("expected one row, got %d", filtered.Len())
	}

	extended := batch.WithColumn("fantasy_points_std", "float64")
	if !extended.HasColumn("fantasy_points_std") || batch.HasColumn("fantasy_points_std") {
		t.Fatalf("WithColumn must not mutate the source batch")
	}
}
