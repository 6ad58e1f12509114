// Package search implements keyword and vector indexes for snippet search.
package search

import (
	"strings"
	"unicode"
)

// SplitIdentifier breaks a source identifier into its words: snake_case,
// kebab-case, and CamelCase boundaries all split, and acronym runs stay
// together (parseHTTPResponse -> parse, HTTP, Response).
func SplitIdentifier(identifier string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(identifier)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == '/':
			flush()
		case unicode.IsUpper(r):
			if i > 0 && unicode.IsLower(runes[i-1]) {
				flush()
			} else if i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				// End of an acronym run followed by a word.
				flush()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return words
}

// ExpandIdentifiers rewrites code into a keyword-friendly passage: every
// identifier is kept and followed by its split words, so a query for
// "http response" matches parseHTTPResponse. Punctuation becomes spaces.
func ExpandIdentifiers(code string) string {
	var out strings.Builder
	var ident strings.Builder

	emit := func() {
		if ident.Len() == 0 {
			return
		}
		word := ident.String()
		ident.Reset()
		out.WriteString(word)
		parts := SplitIdentifier(word)
		if len(parts) > 1 {
			for _, part := range parts {
				out.WriteByte(' ')
				out.WriteString(part)
			}
		}
	}

	for _, r := range code {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			ident.WriteRune(r)
			continue
		}
		emit()
		out.WriteByte(' ')
	}
	emit()

	return strings.Join(strings.Fields(out.String()), " ")
}
