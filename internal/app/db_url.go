package app

import (
	"net/url"
	"path/filepath"
	"strings"
)

const (
	driverDuckDB   = "duckdb"
	driverPostgres = "postgres"
)

// storeDriver picks the sql driver for a database target: postgres URLs and
// key=value DSNs go to lib/pq, anything else is a DuckDB file path.
func storeDriver(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return driverPostgres
	}
	if strings.Contains(trimmed, "dbname=") && strings.Contains(trimmed, " ") {
		return driverPostgres
	}
	return driverDuckDB
}

// duckDBPath maps the in-memory aliases to the empty DSN the driver expects.
func duckDBPath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == ":memory:" {
		return ""
	}
	return trimmed
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if storeDriver(trimmed) == driverDuckDB {
		if trimmed == "" || trimmed == ":memory:" {
			return "memory"
		}
		base := filepath.Base(trimmed)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
