package quality

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrNotReadOnly = errors.New("only read-only statements are allowed")

var readOnlyLeads = map[string]struct{}{
	"SELECT":    {},
	"WITH":      {},
	"DESCRIBE":  {},
	"SHOW":      {},
	"SUMMARIZE": {},
	"VALUES":    {},
}

// Keywords that modify data or schema, or reach outside the store. A WITH
// statement may end in one of these on both engines.
var writeKeywords = keywordSet(`
	INSERT UPDATE DELETE MERGE UPSERT
	CREATE DROP ALTER TRUNCATE RENAME
	COPY ATTACH DETACH INSTALL LOAD
	EXPORT IMPORT PRAGMA SET RESET
	CALL CHECKPOINT VACUUM GRANT REVOKE
	INTO
`)

func keywordSet(list string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		out[w] = struct{}{}
	}
	return out
}

// CheckReadOnly accepts a single SELECT-like statement and rejects anything
// that could write. Quoted text and comments are ignored when scanning.
func CheckReadOnly(sqlText string) error {
	words, statements := scanStatement(sqlText)
	if len(words) == 0 {
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if statements > 1 {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	if _, ok := readOnlyLeads[words[0]]; !ok {
		return fmt.Errorf("%w: %s", ErrNotReadOnly, words[0])
	}
	for _, w := range words[1:] {
		if _, bad := writeKeywords[w]; bad {
			return fmt.Errorf("%w: %s", ErrNotReadOnly, w)
		}
	}
	return nil
}

// scanStatement returns the upper-cased bare words of sqlText and the number
// of non-empty statements separated by semicolons.
func scanStatement(sqlText string) ([]string, int) {
	var (
		words      []string
		word       strings.Builder
		statements int
		pending    bool
	)
	flush := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToUpper(word.String()))
			word.Reset()
		}
	}

	runes := []rune(sqlText)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' || r == '"':
			flush()
			pending = true
			for i++; i < len(runes); i++ {
				if runes[i] == r {
					if i+1 < len(runes) && runes[i+1] == r {
						i++
						continue
					}
					break
				}
			}
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			flush()
			for i += 2; i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/'); i++ {
			}
			i++
		case r == ';':
			flush()
			if pending {
				statements++
				pending = false
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word.WriteRune(r)
			pending = true
		default:
			flush()
			if !unicode.IsSpace(r) {
				pending = true
			}
		}
	}
	flush()
	if pending {
		statements++
	}
	return words, statements
}
