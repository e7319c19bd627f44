// Package expand implements the string-expansion engine of the shell.
// Given a single raw argument word it produces the ordered list of
// final argument strings, applying command substitution, variable
// expansion with slicing, brace expansion, tilde expansion, process and
// job reference expansion, and filesystem wildcard expansion, in that
// order. The same engine produces completion candidates while the user
// is typing.
package expand

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/brainless/GoFish/internal/history"
	"github.com/brainless/GoFish/internal/jobs"
	"github.com/brainless/GoFish/internal/mainthread"
	"github.com/brainless/GoFish/internal/proc"
)

// Flags controls a single expansion call.
type Flags uint

const (
	// ForCompletions produces completion candidates instead of final
	// arguments: parsing is permissive, descriptions are filled in, and
	// several hard errors are softened.
	ForCompletions Flags = 1 << iota
	// SkipCmdSubst forbids command substitutions; the expansion fails if
	// one is present.
	SkipCmdSubst
	// SkipVariables leaves $ literal.
	SkipVariables
	// SkipWildcards converts wildcard sentinels back to literal
	// characters instead of matching the filesystem.
	SkipWildcards
	// SkipHomeDirectories leaves ~ literal.
	SkipHomeDirectories
	// SkipJobs keeps %-expansion away from the job table; only OS
	// processes are scanned.
	SkipJobs
	// ExecutablesOnly disables wildcard matching entirely; executable
	// lookup is handled by a different subsystem that dislikes wildcards.
	ExecutablesOnly
	// SpecialForCD resolves non-absolute patterns against CDPATH, with
	// an empty entry treated as the current directory.
	SpecialForCD
	// SpecialForCommand resolves non-absolute patterns against PATH
	// unless the pattern contains a slash.
	SpecialForCommand
	// NoDescriptions suppresses completion descriptions.
	NoDescriptions
)

// Status is the overall result of an expansion.
type Status int

const (
	OK Status = iota
	Error
	WildcardMatch
	WildcardNoMatch
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Error:
		return "error"
	case WildcardMatch:
		return "wildcard-match"
	case WildcardNoMatch:
		return "wildcard-no-match"
	default:
		return "unknown"
	}
}

// ErrReadTooMuch is returned by a Subshell whose output exceeded the
// implementation-defined size cap and was discarded.
var ErrReadTooMuch = errors.New("subshell output truncated")

// Subshell runs a command-substitution source string and returns its
// output lines. A long-running substitution should honor ctx.
type Subshell interface {
	Exec(ctx context.Context, source string) ([]string, error)
}

// Matcher resolves a wildcard pattern (in sentinel form) against the
// filesystem rooted at workingDir. Positive means at least one match
// was appended to out, zero means no match, negative means the walk was
// cancelled.
type Matcher interface {
	Expand(ctx context.Context, pattern, workingDir string, flags Flags, out *[]Completion) int
}

// EnvGetter is the read side of the variable store.
type EnvGetter interface {
	Get(name string) ([]string, bool)
}

// Expander bundles the engine's collaborators. The zero value is not
// usable; construct with New and set optional collaborators as needed.
type Expander struct {
	// Env is the variable store. Required.
	Env EnvGetter
	// Subshell runs command substitutions. Without one, any command
	// substitution fails.
	Subshell Subshell
	// Matcher resolves wildcard patterns. Without one, wildcard inputs
	// report no match.
	Matcher Matcher
	// History backs $history expansion. Reads are marshalled through
	// Main; without both, $history behaves as a missing variable.
	History history.Provider
	// Jobs is the shell job table for %-expansion. Access is marshalled
	// through Main; without both, the job table is not consulted.
	Jobs *jobs.Table
	// Procs lists the user's OS processes for %-expansion. Optional.
	Procs proc.Source
	// Main marshals job-table and history access onto the main thread.
	// A nil handle gives the reduced off-main-thread behavior.
	Main *mainthread.Dispatcher
	// WorkingDir is the directory wildcard patterns are rooted at.
	// Defaults to the process working directory at each call.
	WorkingDir string
	// SelfPid overrides os.Getpid for %self expansion. Used by tests.
	SelfPid int
}

// New creates an Expander with the given variable store.
func New(envStore EnvGetter) *Expander {
	return &Expander{Env: envStore}
}

// stage is one rewrite pass: it consumes an intermediate completion
// and appends its outputs. A returned Error halts the pipeline. The
// wildcard stage keeps the description and flags of an input it passes
// through unchanged, which lets process-expansion candidates survive
// it; the earlier stages emit bare completion strings.
type stage func(ctx context.Context, input Completion, out *[]Completion, flags Flags, errs *ErrorList) Status

// ExpandString runs the full pipeline on input and appends the results
// to out. The return status is OK, Error, WildcardMatch or
// WildcardNoMatch; errors are accumulated into errs (which may be nil).
func (e *Expander) ExpandString(ctx context.Context, input string, out *[]Completion, flags Flags, errs *ErrorList) Status {
	// Early out. If we're not completing and there's no magic in the
	// input, we're done.
	if flags&ForCompletions == 0 && isClean(input) {
		appendCompletion(out, input)
		return OK
	}

	stages := []stage{
		e.stageCmdSubst,
		e.stageVariables,
		e.stageBraces,
		e.stageHomeAndProcess,
		e.stageWildcards,
	}

	completions := []Completion{{Completion: input}}
	var outputStorage []Completion

	total := OK
	for _, st := range stages {
		if total == Error {
			break
		}
		for _, c := range completions {
			if total == Error {
				break
			}
			result := st(ctx, c, &outputStorage, flags, errs)
			// A no-match from one batch element must not demote a match
			// recorded by an earlier one.
			if !(result == WildcardNoMatch && total == WildcardMatch) {
				total = result
			}
		}
		completions, outputStorage = outputStorage, completions[:0]
	}

	if total != Error {
		if flags&SkipHomeDirectories == 0 {
			e.unexpandTildes(input, completions)
		}
		*out = append(*out, completions...)
	}
	return total
}

// ExpandOne expands input to at most one argument. It succeeds only
// when exactly one result is produced, and returns that result.
func (e *Expander) ExpandOne(ctx context.Context, input string, flags Flags, errs *ErrorList) (string, bool) {
	if flags&ForCompletions == 0 && isClean(input) {
		return input, true
	}

	var completions []Completion
	status := e.ExpandString(ctx, input, &completions, flags|NoDescriptions, errs)
	if status != Error && len(completions) == 1 {
		return completions[0].Completion, true
	}
	return input, false
}

// workingDir returns the directory wildcard patterns resolve against.
func (e *Expander) workingDir() string {
	if e.WorkingDir != "" {
		return e.WorkingDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// selfPid returns the shell's own pid for %self.
func (e *Expander) selfPid() int {
	if e.SelfPid != 0 {
		return e.SelfPid
	}
	return os.Getpid()
}

// sortNaturally orders completions with the case-insensitive,
// numerically aware comparator used for wildcard results.
func sortNaturally(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		return naturalLess(completions[i].Completion, completions[j].Completion)
	})
}
