package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// builtinParams lists the argument names of the builtin host functions. A
// name prefixed with "..." accepts any number of arguments.
var builtinParams = map[string][]string{
	"os":        nil,
	"arch":      nil,
	"goos":      nil,
	"goarch":    nil,
	"hostname":  nil,
	"user":      nil,
	"shell":     nil,
	"cwd":       nil,
	"env":       {"name", "default"},
	"basedir":   {"name"},
	"abs":       {"path"},
	"join":      {"...elem"},
	"rel":       {"base", "target"},
	"exists":    {"path"},
	"isdir":     {"path"},
	"isfile":    {"path"},
	"issymlink": {"path"},
	"prefix":    {"list", "...item"},
	"prefixif":  {"list", "...item"},
	"expr":      {"expression"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the host function call enclosing the cursor.
type functionCall struct {
	name     string // function name after "@"
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool   // true if the cursor is past the name's ":" separator
}

// detectFunctionCall finds the innermost unclosed "${@" block before cursor.
// Arguments are the ":"-separated fields following the function name, and
// colons inside nested blocks are not counted.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))
	prefix := input[:cursor]

	// Walk backward to the innermost unclosed "${".
	depth := 0
	open := -1

	for i := len(prefix) - 1; i > 0 && open < 0; i-- {
		switch {
		case prefix[i] == '}':
			depth++
		case prefix[i] == '{' && prefix[i-1] == '$':
			if depth == 0 {
				open = i + 1
			} else {
				depth--
			}
		}
	}

	if open < 0 || open >= len(prefix) || prefix[open] != '@' {
		return functionCall{}
	}

	body := prefix[open+1:]

	name, args, ok := strings.Cut(body, ":")
	if !ok {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i := 0; i < len(args); i++ {
		switch {
		case strings.HasPrefix(args[i:], "${"):
			depth++
			i++
		case args[i] == '}':
			depth--
		case args[i] == ':' && depth == 0:
			argIndex++
		}
	}

	return functionCall{
		name:     strings.TrimSpace(name),
		argIndex: argIndex,
		inCall:   true,
	}
}

// getSignature returns the parameter list of a builtin function.
func getSignature(name string) (params []string, ok bool) {
	params, ok = builtinParams[name]

	return params, ok
}

// renderSignatureHint renders "@name:param:..." with the parameter under the
// cursor highlighted. A variadic parameter stays highlighted for every
// argument at or beyond its position.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render("@" + name))

	if len(params) == 0 {
		b.WriteString(signatureStyle.Render("  (no arguments)"))

		return b.String()
	}

	for i, param := range params {
		b.WriteString(signatureStyle.Render(":"))

		variadic := strings.HasPrefix(param, "...")
		if (variadic && argIndex >= i) || (!variadic && argIndex == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	return b.String()
}
