package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row INSERT from the `db` tags of a struct, for
// fixed-shape tables such as data_refresh_log. Column names are quoted so
// tags like "status" or "week" are safe on DuckDB and Postgres alike.
// Dynamic-width stat tables go through InsertInto directly.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	fields, err := taggedFields(model)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, len(fields))
	vals := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = QuoteIdent(f.column)
		vals[i] = f.value
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

type taggedField struct {
	column string
	value  any
}

func taggedFields(model any) ([]taggedField, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("insert model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("insert model must be a struct, got %s", v.Kind())
	}

	t := v.Type()
	out := make([]taggedField, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		out = append(out, taggedField{column: name, value: v.Field(i).Interface()})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert model %s has no db columns", t.Name())
	}
	return out, nil
}
