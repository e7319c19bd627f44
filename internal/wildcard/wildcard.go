// Package wildcard resolves sentinel-form wildcard patterns against
// the filesystem. It implements the expansion engine's Matcher
// interface: positive means matches were appended, zero means none,
// negative means the walk was cancelled.
package wildcard

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/brainless/GoFish/internal/expand"
)

// FSMatcher walks the real filesystem.
type FSMatcher struct{}

// New creates a filesystem matcher.
func New() *FSMatcher {
	return &FSMatcher{}
}

// Expand resolves pattern (in sentinel form) rooted at workingDir and
// appends the matches to out. Matched paths keep the typed prefix
// structure: wildcards are replaced by actual names but the result is
// not absolutized.
func (m *FSMatcher) Expand(ctx context.Context, pattern, workingDir string, flags expand.Flags, out *[]Completion) int {
	w := &walker{
		ctx:        ctx,
		completion: flags&expand.ForCompletions != 0,
		out:        out,
	}

	dir := workingDir
	typed := ""
	p := pattern
	if strings.HasPrefix(p, "/") {
		dir = "/"
		typed = "/"
		p = strings.TrimLeft(p, "/")
	}

	segments := splitSegments(p)
	if len(segments) == 0 {
		return 0
	}

	w.walk(dir, typed, segments)
	if w.cancelled {
		return -1
	}
	if w.matched == 0 {
		return 0
	}
	return w.matched
}

// Completion aliases the engine's completion record so the package can
// be used without importing expand at every call site.
type Completion = expand.Completion

// walker carries the walk state.
type walker struct {
	ctx        context.Context
	completion bool
	out        *[]Completion
	matched    int
	cancelled  bool
}

// splitSegments splits a slash-separated pattern into rune segments,
// dropping empty segments from doubled slashes.
func splitSegments(pattern string) [][]rune {
	var segments [][]rune
	for _, part := range strings.Split(pattern, "/") {
		if part == "" {
			continue
		}
		segments = append(segments, []rune(part))
	}
	return segments
}

// hasWildcardSeg reports whether the segment contains a wildcard
// sentinel or a well-formed [...] character class.
func hasWildcardSeg(seg []rune) bool {
	for i, r := range seg {
		if r == expand.AnyChar || r == expand.AnyString || r == expand.AnyStringRecursive {
			return true
		}
		if r == '[' {
			if _, ok, _ := matchClass(seg[i:], nil); ok {
				return true
			}
		}
	}
	return false
}

// walk matches segments against the tree under dir. typed is the
// already-resolved prefix in the shape the user typed it.
func (w *walker) walk(dir, typed string, segments [][]rune) {
	if w.cancelled {
		return
	}
	if err := w.ctx.Err(); err != nil {
		w.cancelled = true
		return
	}

	seg := segments[0]
	rest := segments[1:]

	// Literal segments (including . and ..) descend directly; this also
	// lets explicit dotfile names through.
	if !hasWildcardSeg(seg) {
		name := string(seg)
		next := filepath.Join(dir, name)
		info, err := os.Stat(next)
		if err != nil {
			return
		}
		typedNext := joinTyped(typed, name)
		if len(rest) == 0 {
			w.emit(typedNext, info.IsDir())
			return
		}
		if info.IsDir() {
			w.walk(next, typedNext, rest)
		}
		return
	}

	recursive := false
	for _, r := range seg {
		if r == expand.AnyStringRecursive {
			recursive = true
			break
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if w.cancelled {
			return
		}
		name := entry.Name()
		// Wildcards do not match hidden files unless the pattern names
		// the leading dot.
		if strings.HasPrefix(name, ".") && (len(seg) == 0 || seg[0] != '.') {
			continue
		}

		if matchSegment(seg, []rune(name)) {
			typedNext := joinTyped(typed, name)
			if len(rest) == 0 {
				w.emit(typedNext, entry.IsDir())
			} else if entry.IsDir() {
				w.walk(filepath.Join(dir, name), typedNext, rest)
			}
		}

		// A recursive segment may also consume this directory and apply
		// again below it.
		if recursive && entry.IsDir() {
			w.walk(filepath.Join(dir, name), joinTyped(typed, name), segments)
		}
	}
}

// emit records a match.
func (w *walker) emit(path string, isDir bool) {
	w.matched++
	c := Completion{Completion: path}
	if w.completion {
		c.Flags = expand.ReplacesToken
		if isDir {
			c.Completion += "/"
		}
	}
	*w.out = append(*w.out, c)
}

// joinTyped appends a path component to the typed prefix without
// cleaning it, so ./x and ../x keep their shape.
func joinTyped(typed, name string) string {
	if typed == "" {
		return name
	}
	if strings.HasSuffix(typed, "/") {
		return typed + name
	}
	return typed + "/" + name
}

// matchSegment matches a single pattern segment against a name.
// AnyChar matches one rune, AnyString and AnyStringRecursive any run
// of runes within the segment, and [a-z] / [^a-z] character classes
// are supported. An unterminated class is treated literally.
func matchSegment(p, s []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}

	switch p[0] {
	case expand.AnyString, expand.AnyStringRecursive:
		for i := 0; i <= len(s); i++ {
			if matchSegment(p[1:], s[i:]) {
				return true
			}
		}
		return false
	case expand.AnyChar:
		if len(s) == 0 {
			return false
		}
		return matchSegment(p[1:], s[1:])
	case '[':
		rest, ok, matches := matchClass(p, s)
		if !ok {
			break
		}
		if !matches {
			return false
		}
		return matchSegment(rest, s[1:])
	}

	if len(s) == 0 || p[0] != s[0] {
		return false
	}
	return matchSegment(p[1:], s[1:])
}

// matchClass evaluates a [...] class at the start of p against the
// first rune of s. Returns the remaining pattern after the class, a
// flag for whether the class was well formed, and the match result.
func matchClass(p, s []rune) (rest []rune, ok, matches bool) {
	end := 1
	if end < len(p) && (p[end] == '^' || p[end] == '!') {
		end++
	}
	// A ']' right after the (possibly negated) opening is literal.
	if end < len(p) && p[end] == ']' {
		end++
	}
	for end < len(p) && p[end] != ']' {
		end++
	}
	if end >= len(p) {
		return nil, false, false
	}
	if len(s) == 0 {
		return p[end+1:], true, false
	}

	body := p[1:end]
	negate := false
	if len(body) > 0 && (body[0] == '^' || body[0] == '!') {
		negate = true
		body = body[1:]
	}

	c := s[0]
	in := false
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			if c >= body[i] && c <= body[i+2] {
				in = true
			}
			i += 2
		} else if body[i] == c {
			in = true
		}
	}
	return p[end+1:], true, in != negate
}
