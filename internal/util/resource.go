package util

// ResourceID derives the filesystem- and URL-safe identifier for a display
// title: ASCII letters are lowered, whitespace becomes an underscore, and
// every other character (digits, punctuation, non-ASCII) is dropped.
//
// The mapping is deliberately lossy, so two distinct titles can resolve to the
// same identifier ("Part 1" and "Part " both become "part_"). Callers that
// key files or lookups on the result must treat a collision as a first-class
// case, not an invariant violation.
func ResourceID(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = append(out, '_')
		}
	}
	return string(out)
}
