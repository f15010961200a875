package dataset

import (
	"fmt"
	"strings"
)

// SchemaConflictError is returned when a batch does not match the stored column set.
type SchemaConflictError struct {
	Table      string
	Missing    []string
	Unexpected []string
}

func (e *SchemaConflictError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing ["+strings.Join(e.Missing, ", ")+"]")
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected ["+strings.Join(e.Unexpected, ", ")+"]")
	}
	return fmt.Sprintf("schema conflict on table %s: %s", e.Table, strings.Join(parts, ", "))
}
