package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// CanonicalType is the storage type every ingested column is resolved to.
type CanonicalType string

const (
	TypeInteger   CanonicalType = "INTEGER"
	TypeReal      CanonicalType = "REAL"
	TypeDate      CanonicalType = "DATE"
	TypeTime      CanonicalType = "TIME"
	TypeTimestamp CanonicalType = "TIMESTAMP"
	TypeBoolean   CanonicalType = "BOOLEAN"
	TypeText      CanonicalType = "TEXT"
)

var sqlTypes = map[CanonicalType]string{
	TypeInteger:   "BIGINT",
	TypeReal:      "DOUBLE PRECISION",
	TypeDate:      "DATE",
	TypeTime:      "TIME",
	TypeTimestamp: "TIMESTAMP",
	TypeBoolean:   "BOOLEAN",
	TypeText:      "TEXT",
}

func ParseCanonicalType(raw string) (CanonicalType, error) {
	t := CanonicalType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := sqlTypes[t]; !ok {
		return "", fmt.Errorf("unknown canonical type %q", raw)
	}
	return t, nil
}

// SQL renders the DDL type, shared by DuckDB and Postgres.
func (t CanonicalType) SQL() string {
	if v, ok := sqlTypes[t]; ok {
		return v
	}
	return sqlTypes[TypeText]
}

// FromSQLType maps a catalog data_type back to its canonical type.
func FromSQLType(dataType string) CanonicalType {
	switch strings.ToUpper(strings.TrimSpace(dataType)) {
	case "BIGINT", "INTEGER", "INT", "INT4", "INT8", "SMALLINT", "HUGEINT", "TINYINT":
		return TypeInteger
	case "DOUBLE", "DOUBLE PRECISION", "REAL", "FLOAT", "FLOAT8", "FLOAT4", "NUMERIC", "DECIMAL":
		return TypeReal
	case "DATE":
		return TypeDate
	case "TIME", "TIME WITHOUT TIME ZONE":
		return TypeTime
	case "TIMESTAMP", "TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ":
		return TypeTimestamp
	case "BOOLEAN", "BOOL":
		return TypeBoolean
	default:
		return TypeText
	}
}

// Column is a batch column with the native dtype reported by its source.
type Column struct {
	Name  string
	DType string
}

// Row holds values keyed by column name; a missing key is null.
type Row map[string]any

// Batch is one ingestion unit's worth of rows for a single table.
type Batch struct {
	Columns []Column
	Rows    []Row
}

func (b Batch) Len() int {
	return len(b.Rows)
}

func (b Batch) IsEmpty() bool {
	return len(b.Rows) == 0
}

func (b Batch) ColumnNames() []string {
	out := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		out = append(out, c.Name)
	}
	return out
}

func (b Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// WithColumn appends a column definition if it is not already present.
func (b Batch) WithColumn(name, dtype string) Batch {
	if b.HasColumn(name) {
		return b
	}
	cols := make([]Column, len(b.Columns), len(b.Columns)+1)
	copy(cols, b.Columns)
	b.Columns = append(cols, Column{Name: name, DType: dtype})
	return b
}

// Filter keeps the rows accepted by keep; columns are shared.
func (b Batch) Filter(keep func(Row) bool) Batch {
	out := Batch{Columns: b.Columns, Rows: make([]Row, 0, len(b.Rows))}
	for _, row := range b.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

type ColumnSpec struct {
	Name string
	Type CanonicalType
}

// TableDescriptor is the stored shape of a table, fixed at first insert.
type TableDescriptor struct {
	Name       string
	Columns    []ColumnSpec
	PrimaryKey []string
	Exists     bool
}

func (d TableDescriptor) Column(name string) (ColumnSpec, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

func (d TableDescriptor) ColumnNames() []string {
	out := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		out = append(out, c.Name)
	}
	return out
}

// Diff reports the descriptor columns absent from names and the names the descriptor does not know.
func (d TableDescriptor) Diff(names []string) (missing, unexpected []string) {
	incoming := make(map[string]struct{}, len(names))
	for _, n := range names {
		incoming[n] = struct{}{}
	}
	stored := make(map[string]struct{}, len(d.Columns))
	for _, c := range d.Columns {
		stored[c.Name] = struct{}{}
		if _, ok := incoming[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	for _, n := range names {
		if _, ok := stored[n]; !ok {
			unexpected = append(unexpected, n)
		}
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	return missing, unexpected
}
