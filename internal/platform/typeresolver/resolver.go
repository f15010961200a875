package typeresolver

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

var reservedRenames = map[string]string{
	"desc":  "play_description",
	"order": "play_order",
	"time":  "game_time",
	"date":  "game_date_field",
}

// Rules is the column override table plus the native dtype fallback.
type Rules struct {
	Columns map[string]dataset.CanonicalType
	DTypes  map[string]dataset.CanonicalType
}

func LoadRules(r io.Reader) (Rules, error) {
	var raw struct {
		Columns map[string]string `yaml:"columns"`
		DTypes  map[string]string `yaml:"dtypes"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return Rules{}, fmt.Errorf("decode type rules: %w", err)
	}

	rules := Rules{
		Columns: make(map[string]dataset.CanonicalType, len(raw.Columns)),
		DTypes:  make(map[string]dataset.CanonicalType, len(raw.DTypes)),
	}
	for col, v := range raw.Columns {
		t, err := dataset.ParseCanonicalType(v)
		if err != nil {
			return Rules{}, fmt.Errorf("column %s: %w", col, err)
		}
		rules.Columns[col] = t
	}
	for dtype, v := range raw.DTypes {
		t, err := dataset.ParseCanonicalType(v)
		if err != nil {
			return Rules{}, fmt.Errorf("dtype %s: %w", dtype, err)
		}
		rules.DTypes[dtype] = t
	}
	return rules, nil
}

type Resolver struct {
	rules  Rules
	logger *logging.Logger
}

func New(rules Rules, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{rules: rules, logger: logger}
}

// Default builds a resolver over the embedded nflverse rules.
func Default(logger *logging.Logger) (*Resolver, error) {
	rules, err := LoadRules(bytes.NewReader(defaultRules))
	if err != nil {
		return nil, err
	}
	return New(rules, logger), nil
}

// RenameReserved maps column names that collide with SQL keywords.
func RenameReserved(column string) string {
	if renamed, ok := reservedRenames[column]; ok {
		return renamed
	}
	return column
}

// Resolve picks the canonical type for a column: name override, then dtype, then TEXT.
func (r *Resolver) Resolve(column, dtype string) dataset.CanonicalType {
	if t, ok := r.rules.Columns[column]; ok {
		return t
	}
	if t, ok := r.rules.DTypes[dtype]; ok {
		return t
	}
	return dataset.TypeText
}

// ResolveBatch renames reserved columns and resolves each one in order.
func (r *Resolver) ResolveBatch(batch dataset.Batch) []dataset.ColumnSpec {
	out := make([]dataset.ColumnSpec, 0, len(batch.Columns))
	for _, c := range batch.Columns {
		name := RenameReserved(c.Name)
		out = append(out, dataset.ColumnSpec{Name: name, Type: r.Resolve(name, c.DType)})
	}
	return out
}

// Coerce converts value to the Go representation of target, or nil when it cannot.
func (r *Resolver) Coerce(value any, target dataset.CanonicalType) any {
	if value == nil {
		return nil
	}
	out := coerce(value, target)
	if out == nil && !isBlank(value) {
		r.logger.Debug("coerced value to null", "target", string(target), "value", fmt.Sprint(value))
	}
	return out
}

func coerce(value any, target dataset.CanonicalType) any {
	switch target {
	case dataset.TypeInteger:
		return toInteger(value)
	case dataset.TypeReal:
		return toReal(value)
	case dataset.TypeBoolean:
		return toBoolean(value)
	case dataset.TypeDate:
		ts, ok := toTime(value)
		if !ok {
			return nil
		}
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case dataset.TypeTimestamp:
		ts, ok := toTime(value)
		if !ok {
			return nil
		}
		return ts
	case dataset.TypeTime:
		return toClock(value)
	default:
		return toText(value)
	}
}

func isBlank(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

func toInteger(value any) any {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case float64:
		return integralFloat(v)
	case float32:
		return integralFloat(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return integralFloat(f)
		}
	}
	return nil
}

func integralFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	return int64(f)
}

func toReal(value any) any {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func toBoolean(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return boolFromInt(v)
	case int:
		return boolFromInt(int64(v))
	case float64:
		if v == 0 || v == 1 {
			return v == 1
		}
		return nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n":
			return false
		}
	}
	return nil
}

func boolFromInt(v int64) any {
	switch v {
	case 1:
		return true
	case 0:
		return false
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04:05PM", "3:04PM", "3:04 PM"}

func toClock(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format("15:04:05")
	case string:
		s := strings.ToUpper(strings.TrimSpace(v))
		for _, layout := range clockLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.Format("15:04:05")
			}
		}
	}
	return nil
}

// toText stringifies value; "nan", "None" and "" collapse to null.
func toText(value any) any {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case time.Time:
		s = v.Format(time.RFC3339)
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	switch s {
	case "", "nan", "None":
		return nil
	}
	return s
}
