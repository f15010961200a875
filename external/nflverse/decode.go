package nflverse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
)

const (
	dtypeInt64    = "int64"
	dtypeFloat64  = "float64"
	dtypeBool     = "bool"
	dtypeObject   = "object"
	dtypeDatetime = "datetime64[ns]"
)

func decode(raw []byte, format Format) (dataset.Batch, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(bytes.NewReader(raw))
	case FormatCSVGzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return dataset.Batch{}, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		return decodeCSV(zr)
	case FormatParquet:
		return decodeParquet(raw)
	default:
		return dataset.Batch{}, fmt.Errorf("unsupported asset format %q", format)
	}
}

func decodeCSV(r io.Reader) (dataset.Batch, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return dataset.Batch{}, nil
	}
	if err != nil {
		return dataset.Batch{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return dataset.Batch{}, fmt.Errorf("read csv records: %w", err)
	}

	batch := dataset.Batch{
		Columns: make([]dataset.Column, len(header)),
		Rows:    make([]dataset.Row, len(records)),
	}
	for i := range batch.Rows {
		batch.Rows[i] = make(dataset.Row, len(header))
	}

	cells := make([]string, len(records))
	for col, name := range header {
		for i, record := range records {
			if col < len(record) {
				cells[i] = record[col]
			} else {
				cells[i] = ""
			}
		}
		dtype, convert := inferColumn(cells)
		batch.Columns[col] = dataset.Column{Name: name, DType: dtype}
		for i, cell := range cells {
			if value := convert(cell); value != nil {
				batch.Rows[i][name] = value
			}
		}
	}
	return batch, nil
}

func missing(cell string) bool {
	cell = strings.TrimSpace(cell)
	return cell == "" || cell == "NA"
}

// inferColumn picks the narrowest dtype every non-missing cell satisfies.
func inferColumn(cells []string) (string, func(string) any) {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, cell := range cells {
		if missing(cell) {
			continue
		}
		seen = true
		cell = strings.TrimSpace(cell)
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseCSVBool(cell); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			break
		}
	}

	switch {
	case !seen:
		return dtypeObject, func(string) any { return nil }
	case isInt:
		return dtypeInt64, func(cell string) any {
			if missing(cell) {
				return nil
			}
			v, _ := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
			return v
		}
	case isFloat:
		return dtypeFloat64, func(cell string) any {
			if missing(cell) {
				return nil
			}
			v, _ := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			return v
		}
	case isBool:
		return dtypeBool, func(cell string) any {
			if missing(cell) {
				return nil
			}
			v, _ := parseCSVBool(strings.TrimSpace(cell))
			return v
		}
	default:
		return dtypeObject, func(cell string) any {
			if missing(cell) {
				return nil
			}
			return cell
		}
	}
}

func parseCSVBool(cell string) (bool, bool) {
	switch cell {
	case "TRUE", "True", "true":
		return true, true
	case "FALSE", "False", "false":
		return false, true
	}
	return false, false
}

type parquetColumn struct {
	name    string
	dtype   string
	convert func(parquet.Value) any
}

func decodeParquet(raw []byte) (dataset.Batch, error) {
	file, err := parquet.OpenFile(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return dataset.Batch{}, fmt.Errorf("open parquet asset: %w", err)
	}

	leaves := file.Schema().Columns()
	columns := make([]parquetColumn, len(leaves))
	batch := dataset.Batch{Columns: make([]dataset.Column, 0, len(leaves))}
	for i, path := range leaves {
		leaf, ok := file.Schema().Lookup(path...)
		if !ok {
			return dataset.Batch{}, fmt.Errorf("parquet column %v not found in schema", path)
		}
		col := parquetColumnFor(strings.Join(path, "."), leaf.Node.Type())
		columns[i] = col
		batch.Columns = append(batch.Columns, dataset.Column{Name: col.name, DType: col.dtype})
	}

	reader := parquet.NewReader(file)
	defer reader.Close()

	buf := make([]parquet.Row, 256)
	for {
		n, readErr := reader.ReadRows(buf)
		for _, values := range buf[:n] {
			row := make(dataset.Row, len(columns))
			for _, value := range values {
				idx := value.Column()
				if idx < 0 || idx >= len(columns) || value.IsNull() {
					continue
				}
				if v := columns[idx].convert(value); v != nil {
					row[columns[idx].name] = v
				}
			}
			batch.Rows = append(batch.Rows, row)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return dataset.Batch{}, fmt.Errorf("read parquet rows: %w", readErr)
		}
	}
	return batch, nil
}

func parquetColumnFor(name string, typ parquet.Type) parquetColumn {
	if logical := typ.LogicalType(); logical != nil {
		switch {
		case logical.Date != nil:
			return parquetColumn{name: name, dtype: dtypeDatetime, convert: func(v parquet.Value) any {
				return time.Unix(int64(v.Int32())*86400, 0).UTC()
			}}
		case logical.Timestamp != nil:
			unit := time.Microsecond
			switch {
			case logical.Timestamp.Unit.Millis != nil:
				unit = time.Millisecond
			case logical.Timestamp.Unit.Nanos != nil:
				unit = time.Nanosecond
			}
			return parquetColumn{name: name, dtype: dtypeDatetime, convert: func(v parquet.Value) any {
				return time.Unix(0, v.Int64()*int64(unit)).UTC()
			}}
		}
	}

	switch typ.Kind() {
	case parquet.Boolean:
		return parquetColumn{name: name, dtype: dtypeBool, convert: func(v parquet.Value) any { return v.Boolean() }}
	case parquet.Int32:
		return parquetColumn{name: name, dtype: dtypeInt64, convert: func(v parquet.Value) any { return int64(v.Int32()) }}
	case parquet.Int64:
		return parquetColumn{name: name, dtype: dtypeInt64, convert: func(v parquet.Value) any { return v.Int64() }}
	case parquet.Float:
		return parquetColumn{name: name, dtype: dtypeFloat64, convert: func(v parquet.Value) any { return float64(v.Float()) }}
	case parquet.Double:
		return parquetColumn{name: name, dtype: dtypeFloat64, convert: func(v parquet.Value) any { return v.Double() }}
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return parquetColumn{name: name, dtype: dtypeObject, convert: func(v parquet.Value) any { return string(v.ByteArray()) }}
	default:
		return parquetColumn{name: name, dtype: dtypeObject, convert: func(v parquet.Value) any { return v.String() }}
	}
}
