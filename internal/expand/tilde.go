package expand

import (
	"os/user"
	"path/filepath"
	"strings"
)

// homeDirectoryName extracts the user name following a leading tilde
// marker (sentinel or literal '~'). The returned tailIdx is the index
// of the first character after the name (the slash, or end of string).
// An empty name means the invoking user.
func homeDirectoryName(input string) (name string, tailIdx int) {
	in := []rune(input)
	tailIdx = len(in)
	if slash := strings.IndexRune(input, '/'); slash >= 0 {
		tailIdx = len([]rune(input[:slash]))
	}
	return string(in[1:tailIdx]), tailIdx
}

// expandHomeDirectory resolves a leading HomeDirectory sentinel. An
// empty user name reads HOME; when HOME is unset or empty the whole
// string expands to "". A named user goes through the OS password-file
// lookup. The resolved home is canonicalized; if the user lookup or the
// canonicalization fails, the sentinel is restored to a literal '~' and
// the string is otherwise untouched.
func (e *Expander) expandHomeDirectory(input string) string {
	in := []rune(input)
	if len(in) == 0 || in[0] != HomeDirectory {
		return input
	}

	username, tailIdx := homeDirectoryName(input)

	var home string
	var haveHome bool
	if username == "" {
		// The invoking user's home directory.
		if values, ok := e.Env.Get("HOME"); ok && len(values) > 0 && values[0] != "" {
			home = values[0]
			haveHome = true
		} else {
			return ""
		}
		tailIdx = 1
	} else {
		if u, err := user.Lookup(username); err == nil && u.HomeDir != "" {
			home = u.HomeDir
			haveHome = true
		}
	}

	if haveHome {
		if real, err := filepath.EvalSymlinks(home); err == nil {
			return real + string(in[tailIdx:])
		}
	}

	// Lookup failed; restore the literal tilde.
	restored := append([]rune(nil), in...)
	restored[0] = '~'
	return string(restored)
}

// ExpandTilde rewrites a single leading '~' into sentinel form and
// resolves it in place.
func (e *Expander) ExpandTilde(input string) string {
	if input != "" && strings.HasPrefix(input, "~") {
		in := []rune(input)
		in[0] = HomeDirectory
		return e.expandHomeDirectory(string(in))
	}
	return input
}

// unexpandTildes rewrites the expanded home prefix back to ~ in
// completion candidates when the user's original token started with a
// tilde. Only candidates that replace their token are touched.
func (e *Expander) unexpandTildes(input string, completions []Completion) {
	if input == "" || !strings.HasPrefix(input, "~") {
		return
	}

	// Empty completion lists are common; bail before the lookups below.
	hasCandidate := false
	for i := range completions {
		if completions[i].Flags&ReplacesToken != 0 {
			hasCandidate = true
			break
		}
	}
	if !hasCandidate {
		return
	}

	name, _ := homeDirectoryName(input)
	usernameWithTilde := "~" + name
	home := e.ExpandTilde(usernameWithTilde)
	if home == "" || strings.HasPrefix(home, "~") {
		return
	}

	for i := range completions {
		c := &completions[i]
		if c.Flags&ReplacesToken != 0 && strings.HasPrefix(c.Completion, home) {
			c.Completion = usernameWithTilde + strings.TrimPrefix(c.Completion, home)
			// The tilde is literal now; the renderer must not escape it.
			c.Flags |= DontEscapeTildes
		}
	}
}

// ReplaceHomeDirectoryWithTilde is the display-time inverse: absolute
// paths under the user's home are rewritten with a leading ~/.
func (e *Expander) ReplaceHomeDirectoryWithTilde(str string) string {
	if !strings.HasPrefix(str, "/") {
		return str
	}
	home := e.ExpandTilde("~")
	if home == "" || strings.HasPrefix(home, "~") {
		return str
	}
	if !strings.HasSuffix(home, "/") {
		home += "/"
	}
	if strings.HasPrefix(str, home) {
		return "~/" + strings.TrimPrefix(str, home)
	}
	return str
}
