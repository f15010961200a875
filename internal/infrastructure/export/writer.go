package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
	"github.com/riskibarqy/nfl-analytics/internal/domain/quality"
)

// Write saves the result to path, picking the format from its extension:
// .csv, .parquet, anything else is JSON records.
func Write(path string, result quality.QueryResult) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return crerr.Wrapf(mkErr, "create output dir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return crerr.Wrapf(err, "create output %s", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = crerr.Wrapf(closeErr, "close output %s", path)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV(f, result)
	case ".parquet":
		return WriteParquet(f, result)
	default:
		return WriteJSON(f, result)
	}
}

func WriteCSV(w io.Writer, result quality.QueryResult) error {
	out := csv.NewWriter(w)
	if err := out.Write(result.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			record[i] = formatCell(row[col])
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	out.Flush()
	return out.Error()
}

// WriteJSON writes an array of records with keys in column order.
func WriteJSON(w io.Writer, result quality.QueryResult) error {
	buf := bufio.NewWriter(w)
	buf.WriteString("[")
	for i, row := range result.Rows {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, col := range result.Columns {
			if j > 0 {
				buf.WriteString(", ")
			}
			key, err := sonic.Marshal(col)
			if err != nil {
				return fmt.Errorf("encode column name %s: %w", col, err)
			}
			value, err := sonic.Marshal(jsonValue(row[col]))
			if err != nil {
				return fmt.Errorf("encode %s: %w", col, err)
			}
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(value)
		}
		buf.WriteString("}")
	}
	if len(result.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	return buf.Flush()
}

type parquetField struct {
	name  string
	kind  string
	index int
}

// WriteParquet writes every column as optional, typed from its first non-null value.
func WriteParquet(w io.Writer, result quality.QueryResult) error {
	group := make(parquet.Group, len(result.Columns))
	kinds := make(map[string]string, len(result.Columns))
	for _, col := range result.Columns {
		kind := inferKind(result.Rows, col)
		kinds[col] = kind
		group[col] = parquet.Optional(parquetNode(kind))
	}
	schema := parquet.NewSchema("query_result", group)

	fields := make([]parquetField, 0, len(result.Columns))
	for _, col := range result.Columns {
		leaf, ok := schema.Lookup(col)
		if !ok {
			return fmt.Errorf("parquet column %s missing from schema", col)
		}
		fields = append(fields, parquetField{name: col, kind: kinds[col], index: leaf.ColumnIndex})
	}

	writer := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, 0, len(result.Rows))
	for _, data := range result.Rows {
		row := make(parquet.Row, len(fields))
		for _, field := range fields {
			value, ok := parquetValue(field.kind, data[field.name])
			if !ok {
				row[field.index] = parquet.Value{}.Level(0, 0, field.index)
				continue
			}
			row[field.index] = value.Level(0, 1, field.index)
		}
		rows = append(rows, row)
	}
	if _, err := writer.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// Table prints an aligned console table.
func Table(w io.Writer, result quality.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	cells := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			cells[i] = formatCell(row[col])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
	return err
}

const (
	kindInt    = "int"
	kindFloat  = "float"
	kindBool   = "bool"
	kindTime   = "time"
	kindString = "string"
)

func inferKind(rows []map[string]any, col string) string {
	for _, row := range rows {
		switch row[col].(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			return kindInt
		case float32, float64:
			return kindFloat
		case bool:
			return kindBool
		case time.Time:
			return kindTime
		default:
			return kindString
		}
	}
	return kindString
}

func parquetNode(kind string) parquet.Node {
	switch kind {
	case kindInt:
		return parquet.Int(64)
	case kindFloat:
		return parquet.Leaf(parquet.DoubleType)
	case kindBool:
		return parquet.Leaf(parquet.BooleanType)
	case kindTime:
		return parquet.Timestamp(parquet.Microsecond)
	default:
		return parquet.String()
	}
}

func parquetValue(kind string, v any) (parquet.Value, bool) {
	if v == nil {
		return parquet.Value{}, false
	}
	switch kind {
	case kindInt:
		n, ok := toInt64(v)
		return parquet.Int64Value(n), ok
	case kindFloat:
		f, ok := toFloat64(v)
		return parquet.DoubleValue(f), ok
	case kindBool:
		b, ok := v.(bool)
		return parquet.BooleanValue(b), ok
	case kindTime:
		t, ok := v.(time.Time)
		return parquet.Int64Value(t.UnixMicro()), ok
	default:
		return parquet.ByteArrayValue([]byte(formatCell(v))), true
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	}
	return v
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
