package app

import (
	"regexp"
	"strconv"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)

	// Matches the placeholder tuples of a multi-row insert: ($1, $2), ($3, $4), ...
	valueTuplesRegex = regexp.MustCompile(`VALUES (\(\$\d+(?:, \$\d+)*\))(?:, \(\$\d+(?:, \$\d+)*\))+`)
)

// formatDBQueryForTrace flattens a statement for span attributes. Chunked stat
// inserts carry thousands of placeholder tuples, so those collapse to the first
// tuple plus a row count before the length cap applies.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = valueTuplesRegex.ReplaceAllStringFunc(normalized, func(match string) string {
		first := valueTuplesRegex.FindStringSubmatch(match)[1]
		rows := strings.Count(match, "(")
		return "VALUES " + first + " /* " + strconv.Itoa(rows) + " rows */"
	})
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
