// Package shell splits, joins and escapes command-line words using the
// quoting rules of the driver's variable tables.
//
// The rules are deliberately small: words are separated by unquoted blanks
// (space, tab, newline), a double quote toggles quoting, and a backslash
// makes the next character literal. Single quotes have no special meaning.
package shell

import (
	"errors"
	"strings"
)

// Sentinel errors.
var (
	ErrUnterminatedQuote  = errors.New("unterminated quote")
	ErrUnterminatedEscape = errors.New("unterminated \\ escape sequence")
)

func isBlank(c byte) bool { return c == ' ' || c == '\t' || c == '\n' }

// Split splits s into words, honoring double quotes and backslash escapes.
//
//	Split(`cmd -arg1 -arg2="a b c"`) // ["cmd" "-arg1" "-arg2=a b c"]
//
// A pair of quotes with nothing between them yields an empty word.
func Split(s string) ([]string, error) {
	var (
		out     []string
		buf     strings.Builder
		inQuote bool
		inWord  bool
	)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inWord = true
			inQuote = !inQuote

		case isBlank(c) && !inQuote:
			if inWord {
				out = append(out, buf.String())
				buf.Reset()
			}

			inWord = false

		case c == '\\':
			if i+1 >= len(s) {
				return nil, ErrUnterminatedEscape
			}

			i++
			inWord = true

			buf.WriteByte(s[i])

		default:
			inWord = true

			buf.WriteByte(c)
		}
	}

	if inQuote {
		return nil, ErrUnterminatedQuote
	}

	if inWord {
		out = append(out, buf.String())
	}

	return out, nil
}

// Escape escapes s so that [Split] recovers it as a single word.
// Backslashes and double quotes are backslash-escaped, and the result is
// wrapped in double quotes if it contains a blank. The empty string becomes
// an empty pair of quotes.
func Escape(s string) string {
	if s == "" {
		return `""`
	}

	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)

	if strings.ContainsAny(s, " \t\n") {
		s = `"` + s + `"`
	}

	return s
}

// Unescape removes quoting and escapes from s, producing its literal text.
// Unlike [Split], unquoted blanks are preserved, so a string holding several
// words is unescaped as a whole.
func Unescape(s string) (string, error) {
	var (
		buf     strings.Builder
		inQuote bool
	)

	buf.Grow(len(s))

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			inQuote = !inQuote

		case '\\':
			if i+1 >= len(s) {
				return "", ErrUnterminatedEscape
			}

			i++

			buf.WriteByte(s[i])

		default:
			buf.WriteByte(c)
		}
	}

	if inQuote {
		return "", ErrUnterminatedQuote
	}

	return buf.String(), nil
}

// Join escapes each argument and joins them with single spaces.
//
//	Join([]string{"a", "b", "c d e"}) // `a b "c d e"`
func Join(args []string) string {
	escaped := make([]string, len(args))
	for i, a := range args {
		escaped[i] = Escape(a)
	}

	return strings.Join(escaped, " ")
}
