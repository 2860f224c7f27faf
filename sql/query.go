package sql

import (
	"regexp"
	"strings"
)

// Regex patterns for query sanitization.
var (
	// stringLiteralRegex matches single-quoted strings, handling escaped quotes.
	// Example matches: 'hello', 'it\'s', 'foo''bar'
	stringLiteralRegex = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)

	// numericLiteralRegex matches numeric literals (integers and floats).
	numericLiteralRegex = regexp.MustCompile(`\b\d+\.?\d*\b`)

	// hexLiteralRegex matches hex literals such as 0xDEADBEEF.
	hexLiteralRegex = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)

	// leadingNoiseRegex matches comments and opening parentheses in front
	// of the first keyword.
	leadingNoiseRegex = regexp.MustCompile(`^(?:\s+|--[^\n]*\n?|/\*.*?\*/|\()+`)
)

// spanName returns the span name for query: its operation, or "SQL" when
// none can be found. Span names must not be empty.
//
//	spanName("SELECT * FROM users") // "SELECT"
//	spanName("")                    // "SQL"
func spanName(query string) string {
	if op := extractOperation(query); op != "" {
		return op
	}
	return "SQL"
}

// extractOperation returns the upper-cased leading keyword of query,
// skipping comments and opening parentheses.
//
//	extractOperation("insert into users")          // "INSERT"
//	extractOperation("/* hint */ (select 1)")      // "SELECT"
//	extractOperation("")                           // ""
func extractOperation(query string) string {
	query = leadingNoiseRegex.ReplaceAllString(query, "")
	end := strings.IndexFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if end == -1 {
		end = len(query)
	}
	return strings.ToUpper(query[:end])
}

// DefaultQuerySanitizer replaces literal values with placeholders so that
// they do not end up in span attributes.
//
//   - String literals: 'john' → '?'
//   - Numeric literals: 123, 45.67 → ?
//   - Hex literals: 0xDEADBEEF → ?
//
// Example:
//
//	DefaultQuerySanitizer("SELECT * FROM users WHERE name = 'john' AND id = 123")
//	// "SELECT * FROM users WHERE name = '?' AND id = ?"
//
// Statement logging is not sanitized; it prints the SQL as sent.
func DefaultQuerySanitizer(query string) string {
	query = stringLiteralRegex.ReplaceAllString(query, "'?'")
	query = hexLiteralRegex.ReplaceAllString(query, "?")
	return numericLiteralRegex.ReplaceAllString(query, "?")
}

// Operation returns the upper-cased leading keyword of query, such as
// "SELECT", or "" when there is none.
func Operation(query string) string {
	return extractOperation(query)
}
