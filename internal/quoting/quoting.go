// Package quoting provides shared identifier quoting and string escaping.
package quoting

import "strings"

// DoubleQuote quotes a SQL identifier using double quotes (PostgreSQL, SQLite, ANSI SQL).
// Internal double quotes are escaped by doubling them.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backtick quotes a SQL identifier using backticks (MySQL).
// Internal backticks are escaped by doubling them.
func Backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Bracket quotes a SQL identifier using square brackets (Access, SQL Server).
// A closing bracket is escaped by doubling it.
func Bracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// IfNeeded returns a quoting function that leaves plain identifiers bare
// and applies quote to everything else. "*" is never quoted.
func IfNeeded(quote func(string) string) func(string) string {
	return func(s string) string {
		if s == "*" || !NeedsQuoting(s) {
			return s
		}
		return quote(s)
	}
}

// Dotted applies quote to every segment of a dotted name.
func Dotted(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// NeedsQuoting reports whether an identifier must be quoted: it is empty,
// is not made of ASCII letters, digits and underscores starting with a
// letter or underscore, or is a reserved word.
func NeedsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}
	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}
	return reserved[strings.ToUpper(name)]
}

var reserved = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "ASC": true, "BETWEEN": true, "BY": true,
	"CASE": true, "CAST": true, "CHECK": true, "CONSTRAINT": true, "CREATE": true,
	"CROSS": true, "DEFAULT": true, "DELETE": true, "DESC": true, "DISTINCT": true,
	"DROP": true, "ELSE": true, "END": true, "EXCEPT": true, "EXISTS": true,
	"FALSE": true, "FOREIGN": true, "FROM": true, "FULL": true, "GROUP": true,
	"HAVING": true, "IN": true, "INNER": true, "INSERT": true, "INTERSECT": true,
	"INTO": true, "IS": true, "JOIN": true, "KEY": true, "LEFT": true, "LIKE": true,
	"LIMIT": true, "NATURAL": true, "NOT": true, "NULL": true, "OFFSET": true,
	"ON": true, "OR": true, "ORDER": true, "OUTER": true, "PRIMARY": true,
	"REFERENCES": true, "RIGHT": true, "SELECT": true, "SET": true, "TABLE": true,
	"THEN": true, "TOP": true, "TRUE": true, "UNION": true, "UNIQUE": true,
	"UPDATE": true, "USING": true, "VALUES": true, "WHEN": true, "WHERE": true,
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// EscapeString escapes a string literal the standard SQL way, by doubling
// single quotes. Backslashes are ordinary characters.
//
// SECURITY: This escaping is intended for non-parameterized mode only.
// Prefer parameterized rendering (visitors.WithParams()) for user input.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EscapeMySQLString escapes a string literal for MySQL, where the
// backslash is an escape character inside literals.
func EscapeMySQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}
