// Package subst replaces $name and ${name} placeholders with symbol values.
//
// Rules:
//   - a name starts with an ASCII letter or underscore followed by letters,
//     digits or underscores
//   - "$$" produces a single "$", so nginx variables are written as $$host
//   - any other "$" is an invalid placeholder
//   - a name without a symbol is an error, never an empty string
//
// Errors carry the 1-based line and column of the offending "$" so template
// loaders can point at the exact spot in a file.
package subst

import (
	"fmt"
	"strings"
)

// MissingSymbolError reports a placeholder that has no value.
type MissingSymbolError struct {
	Name   string
	Line   int
	Column int
}

func (e *MissingSymbolError) Error() string {
	return fmt.Sprintf("missing symbol: '%s'", e.Name)
}

// InvalidPlaceholderError reports a "$" that starts no valid placeholder.
type InvalidPlaceholderError struct {
	Line   int
	Column int
}

func (e *InvalidPlaceholderError) Error() string {
	return fmt.Sprintf("invalid placeholder in string: line %d, col %d", e.Line, e.Column)
}

// placeholder is one "$..." occurrence found by scan.
type placeholder struct {
	start, end int // byte range in the text including "$" and braces
	name       string
	escaped    bool
	invalid    bool
}

// Substitute returns text with every placeholder replaced by its symbol.
func Substitute(text string, symbols map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	last := 0
	for _, p := range scan(text) {
		out.WriteString(text[last:p.start])
		last = p.end
		switch {
		case p.escaped:
			out.WriteByte('$')
		case p.invalid:
			line, col := position(text, p.start)
			return "", &InvalidPlaceholderError{Line: line, Column: col}
		default:
			value, ok := symbols[p.name]
			if !ok {
				line, col := position(text, p.start)
				return "", &MissingSymbolError{Name: p.name, Line: line, Column: col}
			}
			out.WriteString(value)
		}
	}
	out.WriteString(text[last:])
	return out.String(), nil
}

// Identifiers returns the distinct symbol names text refers to, in order of
// first appearance. Escapes and invalid placeholders are ignored.
func Identifiers(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, p := range scan(text) {
		if p.escaped || p.invalid || seen[p.name] {
			continue
		}
		seen[p.name] = true
		names = append(names, p.name)
	}
	return names
}

// IsIdentifier reports whether name can be used as a placeholder name.
func IsIdentifier(name string) bool {
	return name != "" && identifierLength(name) == len(name)
}

func scan(text string) []placeholder {
	var result []placeholder
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		rest := text[i+1:]
		switch {
		case strings.HasPrefix(rest, "$"):
			result = append(result, placeholder{start: i, end: i + 2, escaped: true})
			i++
		case strings.HasPrefix(rest, "{"):
			n := identifierLength(rest[1:])
			if n == 0 || len(rest) < n+2 || rest[n+1] != '}' {
				result = append(result, placeholder{start: i, end: i + 1, invalid: true})
				continue
			}
			result = append(result, placeholder{start: i, end: i + n + 3, name: rest[1 : n+1]})
			i += n + 2
		default:
			n := identifierLength(rest)
			if n == 0 {
				result = append(result, placeholder{start: i, end: i + 1, invalid: true})
				continue
			}
			result = append(result, placeholder{start: i, end: i + n + 1, name: rest[:n]})
			i += n
		}
	}
	return result
}

// identifierLength returns the length of the identifier at the start of s.
func identifierLength(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return i
		}
	}
	return len(s)
}

// position converts a byte offset into a 1-based line and column.
func position(text string, offset int) (int, int) {
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}
