package expand

import "strings"

// isQuotable reports whether s can be embedded in single quotes
// without escaping (no control characters).
func isQuotable(s string) bool {
	return !strings.ContainsAny(s, "\n\t\r\b\x1b")
}

// EscapeVariable renders a variable value list for display. A single
// element containing a space is single-quoted; multiple elements are
// joined with double spaces; elements that cannot be quoted are
// backslash-escaped instead.
func EscapeVariable(values []string) string {
	var b strings.Builder
	switch len(values) {
	case 0:
		// An empty list expands to nothing.
	case 1:
		el := values[0]
		if strings.ContainsRune(el, ' ') && isQuotable(el) {
			b.WriteByte('\'')
			b.WriteString(el)
			b.WriteByte('\'')
		} else {
			b.WriteString(escapeSpecial(el))
		}
	default:
		for j, el := range values {
			if j > 0 {
				b.WriteString("  ")
			}
			if isQuotable(el) {
				b.WriteByte('\'')
				b.WriteString(el)
				b.WriteByte('\'')
			} else {
				b.WriteString(escapeSpecial(el))
			}
		}
	}
	return b.String()
}
