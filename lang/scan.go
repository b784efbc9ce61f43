package lang

import "strings"

// FindFirst returns the marker whose first occurrence in s at or after pos
// has the smallest index, along with that index.
//
// When several markers occur at the same index, the one listed first wins.
// If no marker occurs, FindFirst returns the empty marker and len(s).
// Empty markers are ignored.
func FindFirst(s string, pos int, markers ...string) (marker string, index int) {
	index = len(s)
	if pos >= len(s) {
		return "", index
	}

	rest := s[pos:]

	for _, m := range markers {
		if m == "" {
			continue
		}

		// only the prefix that could still beat the current best is searched
		end := min(len(rest), index-pos+len(m)-1)
		if end < len(m) {
			continue
		}

		if i := strings.Index(rest[:end], m); i >= 0 && pos+i < index {
			marker, index = m, pos+i
		}
	}

	return marker, index
}

// terminators returns the marker list formed by head followed by the
// inherited terminators. The result never aliases inherited.
func terminators(inherited []string, head ...string) []string {
	out := make([]string, 0, len(head)+len(inherited))
	out = append(out, head...)

	return append(out, inherited...)
}
