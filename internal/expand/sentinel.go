package expand

import "strings"

// Sentinel runes mark expansion operators inside intermediate strings.
// They live in the Unicode private use area, outside the range of any
// legal input character, and never survive into final output.
const (
	// VarExpand marks an unquoted $.
	VarExpand rune = '\uF500'
	// VarExpandSingle marks a $ that appeared inside double quotes; its
	// expansion joins the value list with spaces instead of producing a
	// cartesian product.
	VarExpandSingle rune = '\uF501'
	// VarExpandEmpty records that an expansion at this position produced
	// an empty value, so chained expansions can tell "empty" from
	// "absent".
	VarExpandEmpty rune = '\uF502'
	// InternalSep is a soft boundary between spliced tokens, stripped
	// before the wildcard stage.
	InternalSep rune = '\uF503'
	// ProcessExpand marks a leading %.
	ProcessExpand rune = '\uF504'
	// HomeDirectory marks a leading ~.
	HomeDirectory rune = '\uF505'

	BraceBegin rune = '\uF506'
	BraceEnd   rune = '\uF507'
	BraceSep   rune = '\uF508'

	AnyChar            rune = '\uF509'
	AnyString          rune = '\uF50A'
	AnyStringRecursive rune = '\uF50B'
)

// Characters which make a string unclean if they are the first
// character of the string.
const uncleanFirst = "~%"

// Characters which make a string unclean in any position.
const unclean = "$*?\\\"'({})"

// isClean reports whether the argument contains no tokens that need
// expansion. Clean strings pass through ExpandString and ExpandOne
// unchanged, which skips a lot of allocation for the common case.
func isClean(in string) bool {
	if in == "" {
		return true
	}
	if strings.ContainsRune(uncleanFirst, []rune(in)[0]) {
		return false
	}
	return !strings.ContainsAny(in, unclean)
}

// removeInternalSeparator strips every InternalSep. If conv is set the
// wildcard sentinels are also rewritten back to their literal character
// equivalents, which implements SkipWildcards.
func removeInternalSeparator(s string, conv bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case InternalSep:
		case AnyChar:
			if conv {
				b.WriteRune('?')
			} else {
				b.WriteRune(r)
			}
		case AnyString, AnyStringRecursive:
			if conv {
				b.WriteRune('*')
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// hasWildcard reports whether any wildcard sentinel remains in s.
func hasWildcard(s string) bool {
	return strings.ContainsRune(s, AnyChar) ||
		strings.ContainsRune(s, AnyString) ||
		strings.ContainsRune(s, AnyStringRecursive)
}

// isSentinel reports whether r is one of the private sentinel runes.
func isSentinel(r rune) bool {
	return r >= VarExpand && r <= AnyStringRecursive
}
