package expand

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"
)

// effectiveWorkingDirs computes the directories a relative pattern is
// rooted at. The default is the current working directory; under
// SpecialForCD the CDPATH entries apply, under SpecialForCommand the
// PATH entries, unless the pattern pins itself to the current
// directory (absolute, ./, ../, or a slash under command lookup).
func (e *Expander) effectiveWorkingDirs(pathToExpand string, flags Flags) []string {
	workingDir := e.workingDir()

	forCD := flags&SpecialForCD != 0
	forCommand := flags&SpecialForCommand != 0
	if !forCD && !forCommand {
		// Common case.
		return []string{workingDir}
	}

	if strings.HasPrefix(pathToExpand, "/") ||
		strings.HasPrefix(pathToExpand, "./") ||
		strings.HasPrefix(pathToExpand, "../") ||
		(forCommand && strings.ContainsRune(pathToExpand, '/')) {
		return []string{workingDir}
	}

	// An empty CDPATH is treated as '.', while an empty PATH stays
	// empty (no commands can be found). An empty element in either is
	// treated as '.' for consistency with POSIX shells.
	name := "PATH"
	if forCD {
		name = "CDPATH"
	}
	paths, ok := e.Env.Get(name)
	if !ok || len(paths) == 0 || (len(paths) == 1 && paths[0] == "") {
		if forCD {
			paths = []string{"."}
		} else {
			paths = nil
		}
	}

	var dirs []string
	for _, p := range paths {
		if p == "" {
			p = "."
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(workingDir, p)
		}
		dirs = append(dirs, p)
	}
	return dirs
}

// stageWildcards is the final pipeline stage: it strips internal
// separators and resolves remaining wildcard sentinels against the
// filesystem.
func (e *Expander) stageWildcards(ctx context.Context, c Completion, out *[]Completion, flags Flags, errs *ErrorList) Status {
	_ = errs
	pathToExpand := removeInternalSeparator(c.Completion, flags&SkipWildcards != 0)
	wildcardPresent := hasWildcard(pathToExpand)

	if wildcardPresent && flags&ExecutablesOnly != 0 {
		// Executable lookup dislikes wildcards; leave them unexpanded
		// and emit nothing.
		return OK
	}

	if !wildcardPresent {
		// Nothing to match; no filesystem probing required in either
		// mode. The input's description and flags survive, so process
		// completions from the previous stage pass through intact.
		*out = append(*out, Completion{
			Completion:  pathToExpand,
			Description: c.Description,
			Flags:       c.Flags,
		})
		return OK
	}

	if e.Matcher == nil {
		return WildcardNoMatch
	}

	result := WildcardNoMatch
	var expanded []Completion
	for _, wd := range e.effectiveWorkingDirs(pathToExpand, flags) {
		res := e.Matcher.Expand(ctx, pathToExpand, wd, flags, &expanded)
		if res > 0 {
			// Something matched, so overall we matched.
			result = WildcardMatch
		} else if res < 0 {
			// Cancellation.
			result = Error
			break
		}
	}

	sortNaturally(expanded)
	*out = append(*out, expanded...)
	return result
}

// naturalLess is a case-insensitive comparison that orders digit runs
// by numeric value, so file10 sorts after file9.
func naturalLess(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			ai, an := readDigits(ar, i)
			bi, bn := readDigits(br, j)
			if an != bn {
				return an < bn
			}
			i, j = ai, bi
			continue
		}
		ca := unicode.ToLower(ar[i])
		cb := unicode.ToLower(br[j])
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(ar)-i < len(br)-j
}

// readDigits consumes a digit run starting at pos and returns the
// position after it and its numeric value.
func readDigits(in []rune, pos int) (next int, value int64) {
	for pos < len(in) && unicode.IsDigit(in[pos]) {
		value = value*10 + int64(in[pos]-'0')
		pos++
	}
	return pos, value
}
