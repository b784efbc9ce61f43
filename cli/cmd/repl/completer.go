package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/denv/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "set", "unset", "push", "pop", "edit", "clear", "quit",
}

// isWordBoundary reports whether r delimits a completion word. Boundaries
// are whitespace and the punctuation of the ${...} syntax. Hyphens, dots and
// underscores are part of variable names.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t',
		'$', '{', '}', '%', '@', ':',
		'?', '!', '#', '=', '&', '|':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, right after "${", start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// wordContext classifies what kind of name is expected at wordStart.
type wordContext int

const (
	contextText     wordContext = iota // literal text outside any block
	contextVariable                    // a variable name: after "${", "%", "!", "#", "&&", "||" or "? "
	contextFunction                    // a host function name: after "${@"
)

// classifyWord inspects the text before wordStart to decide which candidates
// apply. Only the innermost open ${...} block matters.
func classifyWord(input string, wordStart int) wordContext {
	prefix := input[:wordStart]

	if strings.HasSuffix(prefix, "${@") {
		return contextFunction
	}

	depth := 0

	for i := len(prefix) - 1; i > 0; i-- {
		switch {
		case prefix[i] == '}':
			depth++
		case prefix[i] == '{' && prefix[i-1] == '$':
			if depth == 0 {
				return contextVariable
			}

			depth--
		}
	}

	return contextText
}

// candidatesFor returns the completion candidates for a word context.
func candidatesFor(store *lang.Store, wc wordContext) []string {
	switch wc {
	case contextFunction:
		return store.Funcs().Names()
	case contextVariable:
		return store.Names()
	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. An empty word right after "${" or "${@" lists every candidate so
// the user can browse them; elsewhere an empty word yields no matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsAny(input[:wordStart], " \t") {
			return nil, nil, wordStart, wordEnd
		}

		return fuzzy.Find(word, ctrlCommands), ctrlCommands, wordStart, wordEnd
	}

	candidates = candidatesFor(m.store, classifyWord(input, wordStart))
	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if !strings.HasSuffix(input[:wordStart], "{") &&
			!strings.HasSuffix(input[:wordStart], "@") {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// formatPreview returns a one-line preview of a raw binding.
func formatPreview(raw string) string {
	const limit = 40

	raw = strings.ReplaceAll(raw, "\n", `\n`)
	if len(raw) > limit {
		return raw[:limit-3] + "..."
	}

	return raw
}
