package typeresolver

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

func TestDefaultRulesResolve(t *testing.T) {
	r, err := Default(logging.NewNop())
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}

	tests := []struct {
		column string
		dtype  string
		want   dataset.CanonicalType
	}{
		{column: "season", dtype: "float64", want: dataset.TypeInteger},
		{column: "game_date", dtype: "object", want: dataset.TypeDate},
		{column: "play_description", dtype: "int64", want: dataset.TypeText},
		{column: "unknown_metric", dtype: "float32", want: dataset.TypeReal},
		{column: "unknown_flag", dtype: "boolean", want: dataset.TypeBoolean},
		{column: "unknown_ts", dtype: "datetime64[ns]", want: dataset.TypeTimestamp},
		{column: "unknown_cat", dtype: "category", want: dataset.TypeText},
		{column: "Season", dtype: "object", want: dataset.TypeText},
	}
	for _, tc := range tests {
		if got := r.Resolve(tc.column, tc.dtype); got != tc.want {
			t.Fatalf("Resolve(%s, %s): expected %s, got %s", tc.column, tc.dtype, tc.want, got)
		}
	}
}

func TestLoadRulesRejectsUnknownType(t *testing.T) {
	_, err := LoadRules(strings.NewReader("columns:\n  foo: DECIMAL\n"))
	if err == nil {
		t.Fatalf("expected error for unknown canonical type")
	}
}

func TestResolveBatchRenamesReservedWords(t *testing.T) {
	rules, err := LoadRules(strings.NewReader("dtypes:\n  int64: INTEGER\ncolumns:\n  play_description: TEXT\n"))
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	r := New(rules, logging.NewNop())

	specs := r.ResolveBatch(dataset.Batch{Columns: []dataset.Column{
		{Name: "desc", DType: "int64"},
		{Name: "order", DType: "int64"},
		{Name: "time", DType: "object"},
		{Name: "date", DType: "object"},
	}})
	want := []dataset.ColumnSpec{
		{Name: "play_description", Type: dataset.TypeText},
		{Name: "play_order", Type: dataset.TypeInteger},
		{Name: "game_time", Type: dataset.TypeText},
		{Name: "game_date_field", Type: dataset.TypeText},
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Fatalf("column %d: expected %+v, got %+v", i, want[i], specs[i])
		}
	}
}

func TestCoerceBoolean(t *testing.T) {
	r := New(Rules{}, logging.NewNop())
	for _, in := range []any{"Y", "1", "true", "YES", true, int64(1)} {
		if got := r.Coerce(in, dataset.TypeBoolean); got != true {
			t.Fatalf("Coerce(%v): expected true, got %v", in, got)
		}
	}
	for _, in := range []any{"n", "0", "false", "No", false, int64(0)} {
		if got := r.Coerce(in, dataset.TypeBoolean); got != false {
			t.Fatalf("Coerce(%v): expected false, got %v", in, got)
		}
	}
	for _, in := range []any{"", "nan", "none", "maybe", int64(2), nil} {
		if got := r.Coerce(in, dataset.TypeBoolean); got != nil {
			t.Fatalf("Coerce(%v): expected null, got %v", in, got)
		}
	}
}

func TestCoerceNullRoundTrip(t *testing.T) {
	r := New(Rules{}, logging.NewNop())
	for _, target := range []dataset.CanonicalType{
		dataset.TypeInteger, dataset.TypeReal, dataset.TypeDate, dataset.TypeTime,
		dataset.TypeTimestamp, dataset.TypeBoolean, dataset.TypeText,
	} {
		if got := r.Coerce(nil, target); got != nil {
			t.Fatalf("%s: expected null to stay null, got %v", target, got)
		}
	}
}

func TestCoerceScalars(t *testing.T) {
	r := New(Rules{}, logging.NewNop())

	if got := r.Coerce("12", dataset.TypeInteger); got != int64(12) {
		t.Fatalf("expected 12, got %v", got)
	}
	if got := r.Coerce(3.0, dataset.TypeInteger); got != int64(3) {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := r.Coerce(3.5, dataset.TypeInteger); got != nil {
		t.Fatalf("expected fractional float to be rejected, got %v", got)
	}
	if got := r.Coerce("abc", dataset.TypeReal); got != nil {
		t.Fatalf("expected null for unparsable real, got %v", got)
	}
	if got := r.Coerce(int64(7), dataset.TypeReal); got != 7.0 {
		t.Fatalf("expected 7.0, got %v", got)
	}
	if got := r.Coerce("13:05", dataset.TypeTime); got != "13:05:00" {
		t.Fatalf("expected 13:05:00, got %v", got)
	}
	if got := r.Coerce("1:05PM", dataset.TypeTime); got != "13:05:00" {
		t.Fatalf("expected 13:05:00, got %v", got)
	}

	date, _ := r.Coerce("2023-09-10T20:20:00Z", dataset.TypeDate).(time.Time)
	if !date.Equal(time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", date)
	}
	ts, _ := r.Coerce("2023-09-10 20:20:00", dataset.TypeTimestamp).(time.Time)
	if !ts.Equal(time.Date(2023, 9, 10, 20, 20, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", ts)
	}
	if got := r.Coerce("Week 1", dataset.TypeDate); got != nil {
		t.Fatalf("expected null for unparsable date, got %v", got)
	}
}

func TestCoerceTextCollapsesNullTokens(t *testing.T) {
	r := New(Rules{}, logging.NewNop())
	for _, in := range []any{"", "nan", "None"} {
		if got := r.Coerce(in, dataset.TypeText); got != nil {
			t.Fatalf("Coerce(%q): expected null, got %v", in, got)
		}
	}
	if got := r.Coerce("NaN", dataset.TypeText); got != "NaN" {
		t.Fatalf("only the exact tokens collapse, got %v", got)
	}
	if got := r.Coerce(int64(42), dataset.TypeText); got != "42" {
		t.Fatalf("expected stringified integer, got %v", got)
	}
}
