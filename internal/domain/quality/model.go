package quality

// ColumnInfo is one stored column as reported by the catalog.
type ColumnInfo struct {
	Name     string
	DataType string
}

type NullStat struct {
	Column    string
	NullCount int64
	NullPct   float64
}

// TableReport summarizes completeness of a single table.
type TableReport struct {
	Table       string
	ColumnCount int
	RowCount    int64
	Nulls       []NullStat
	Duplicates  *int64
}

type DatabaseStats struct {
	Tables         []string
	RecordCounts   map[string]int64
	SeasonCoverage map[string][]int
}

// QueryResult is an ad-hoc query's output with column order preserved.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}
