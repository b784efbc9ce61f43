package lang

import "github.com/sahilm/fuzzy"

// maxSuggestions limits the names offered for an undefined variable.
const maxSuggestions = 3

// suggest returns up to [maxSuggestions] of names that fuzzy-match name,
// best match first.
func suggest(name string, names []string) []string {
	if name == "" || len(names) == 0 {
		return nil
	}

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return nil
	}

	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches[:min(len(matches), maxSuggestions)] {
		out = append(out, m.Str)
	}

	return out
}
