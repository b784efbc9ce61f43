package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/denv/lang"
)

var (
	diagTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	diagSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	diagCaretStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	diagHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Diagnostic renders an evaluation error for a terminal: a title line, the
// offending source with carets under the span, and an optional hint line.
// Errors that carry no span render as their message alone.
func Diagnostic(err error) string {
	var (
		title, hint string
		span        lang.Span
	)

	var (
		parseErr *lang.ParseError
		hostErr  *lang.HostLookupError
		cycleErr *lang.CyclicReferenceError
	)

	switch {
	case errors.As(err, &parseErr):
		title = parseErr.Reason.Error()
		if parseErr.Detail != "" {
			title += ": " + parseErr.Detail
		}

		if len(parseErr.Suggestions) > 0 {
			hint = "did you mean " + strings.Join(parseErr.Suggestions, ", ") + "?"
		}

		span = parseErr.Span

	case errors.As(err, &hostErr):
		title = "unknown function " + hostErr.Name
		span = hostErr.Span

	case errors.As(err, &cycleErr):
		title = "cyclic variable reference"
		hint = strings.Join(cycleErr.Chain, " -> ")
		span = cycleErr.Span

	default:
		return diagTitleStyle.Render("error: "+err.Error()) + "\n"
	}

	source, carets, _ := strings.Cut(span.Snippet(), "\n")

	var b strings.Builder

	b.WriteString(diagTitleStyle.Render("error: " + title))
	b.WriteByte('\n')
	b.WriteString(diagSourceStyle.Render(source))
	b.WriteByte('\n')
	b.WriteString(diagCaretStyle.Render(carets))
	b.WriteByte('\n')

	if hint != "" {
		b.WriteString(diagHintStyle.Render("  " + hint))
		b.WriteByte('\n')
	}

	return b.String()
}
