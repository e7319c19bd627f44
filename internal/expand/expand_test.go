package expand_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainless/GoFish/internal/env"
	"github.com/brainless/GoFish/internal/expand"
	"github.com/brainless/GoFish/internal/jobs"
	"github.com/brainless/GoFish/internal/mainthread"
	"github.com/brainless/GoFish/internal/proc"
)

// fakeSubshell returns canned output lines per source string.
type fakeSubshell struct {
	outputs map[string][]string
	err     error
}

func (f *fakeSubshell) Exec(ctx context.Context, source string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs[source], nil
}

// fakeProcs is a static process source.
type fakeProcs struct {
	procs []proc.Process
}

func (f *fakeProcs) Processes() ([]proc.Process, error) {
	return f.procs, nil
}

func newTestExpander(vars map[string][]string) (*expand.Expander, *env.MapStore) {
	store := env.NewMapStore()
	for name, values := range vars {
		store.Set(name, values...)
	}
	return expand.New(store), store
}

func expandAll(t *testing.T, e *expand.Expander, input string, flags expand.Flags) ([]string, expand.Status) {
	t.Helper()
	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), input, &completions, flags, &errs)
	return expand.Strings(completions), status
}

func TestCleanFastPath(t *testing.T) {
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, "plain-word", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"plain-word"}, out)
}

func TestVariableSimple(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"PATH": {"/bin", "/usr/bin"}})
	out, status := expandAll(t, e, "$PATH", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"/bin", "/usr/bin"}, out)
}

func TestVariableMissingExpandsToNothing(t *testing.T) {
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, "$missing", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestVariableCartesianProduct(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{
		"a": {"1", "2"},
		"b": {"x", "y"},
	})
	out, status := expandAll(t, e, "$a$b", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"1x", "1y", "2x", "2y"}, out)
}

func TestVariableQuotedJoin(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"1", "2", "3"}})
	out, status := expandAll(t, e, `"pre $a post"`, 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"pre 1 2 3 post"}, out)
}

func TestVariableChainedDollar(t *testing.T) {
	// $$name where name holds X and X is unset expands to the empty
	// list, not an error.
	e, _ := newTestExpander(map[string][]string{"name": {"X"}})
	out, status := expandAll(t, e, "$$name", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestVariableChainedDollarSet(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{
		"name": {"X"},
		"X":    {"deep"},
	})
	out, status := expandAll(t, e, "$$name", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"deep"}, out)
}

func TestVariableEmptyNameIsError(t *testing.T) {
	e, _ := newTestExpander(nil)
	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "$", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	require.NotEmpty(t, errs.Errors())
	assert.Equal(t, expand.ErrorSyntax, errs.Errors()[0].Kind)
}

func TestVariableQuotedMissing(t *testing.T) {
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, `"$missing"`, 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{""}, out)
}

func TestSkipVariables(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"1"}})
	out, status := expandAll(t, e, "$a", expand.SkipVariables)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"$a"}, out)
}

func TestSliceSelection(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"x", "y", "z"}})

	tests := []struct {
		input string
		want  []string
	}{
		{"$a[1]", []string{"x"}},
		{"$a[-1]", []string{"z"}},
		{"$a[-2..-1]", []string{"y", "z"}},
		{"$a[2..1]", []string{"y", "x"}},
		{"$a[1 3]", []string{"x", "z"}},
	}
	for _, tt := range tests {
		out, status := expandAll(t, e, tt.input, 0)
		assert.Equal(t, expand.OK, status, tt.input)
		assert.Equal(t, tt.want, out, tt.input)
	}
}

func TestSliceOutOfRange(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"x", "y"}})

	tests := []struct {
		input string
		want  []string
	}{
		{"$a[5]", nil},
		{"$a[5..6]", nil},
		{"$a[1..9]", []string{"x", "y"}},
	}
	for _, tt := range tests {
		out, status := expandAll(t, e, tt.input, 0)
		assert.Equal(t, expand.OK, status, tt.input)
		if tt.want == nil {
			assert.Empty(t, out, tt.input)
		} else {
			assert.Equal(t, tt.want, out, tt.input)
		}
	}
}

func TestSliceOnMissingVariable(t *testing.T) {
	// A missing variable behaves as though it has one value, so
	// $missing[1] is not a syntax error.
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, "$missing[1]", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestSliceBadIndexIsError(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"x"}})
	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "$a[bogus]", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	assert.False(t, errs.Empty())
}

func TestBraceExpansion(t *testing.T) {
	e, _ := newTestExpander(nil)

	tests := []struct {
		input string
		want  []string
	}{
		{"a{b,c}d", []string{"abd", "acd"}},
		{"{a,b}{c,d}", []string{"ac", "ad", "bc", "bd"}},
		{"a{}b", []string{"a{}b"}},
		{"{a,b}{1,2}", []string{"a1", "a2", "b1", "b2"}},
	}
	for _, tt := range tests {
		out, status := expandAll(t, e, tt.input, 0)
		assert.Equal(t, expand.OK, status, tt.input)
		assert.Equal(t, tt.want, out, tt.input)
	}
}

func TestBraceNested(t *testing.T) {
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, "a{b,{c,d}}e", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"abe", "ace", "ade"}, out)
}

func TestBraceUnterminated(t *testing.T) {
	e, _ := newTestExpander(nil)

	// Execution mode: syntax error.
	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "a{b,c", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	assert.False(t, errs.Empty())

	// Completion mode: auto-closed.
	out, status := expandAll(t, e, "a{b,c", expand.ForCompletions)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"ab", "ac"}, out)
}

func TestBraceVariableInteraction(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"x": {"1", "2"}})
	// Each variable-expanded string brace-expands separately, so the
	// literal alternative appears once per value of $x.
	out, status := expandAll(t, e, "{$x,z}", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"1", "z", "2", "z"}, out)
}

func TestCmdSubstProduct(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{outputs: map[string][]string{
		"ls": {"one", "two"},
	}}

	out, status := expandAll(t, e, "pre(ls)suf", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"preonesuf", "pretwosuf"}, out)
}

func TestCmdSubstPlain(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{outputs: map[string][]string{
		"printf '%s\\n' one two": {"one", "two"},
	}}

	out, status := expandAll(t, e, "(printf '%s\\n' one two)", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"one", "two"}, out)
}

func TestCmdSubstSlice(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{outputs: map[string][]string{
		"seq": {"1", "2", "3"},
	}}

	out, status := expandAll(t, e, "(seq)[3 1]", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"3", "1"}, out)

	out, status = expandAll(t, e, "(seq)[9]", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestCmdSubstMismatchedParen(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{}

	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "a)b", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	assert.False(t, errs.Empty())
}

func TestCmdSubstTruncation(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{err: expand.ErrReadTooMuch}

	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "(big)", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	require.NotEmpty(t, errs.Errors())
	assert.Equal(t, expand.ErrorCmdSubst, errs.Errors()[0].Kind)
}

func TestCmdSubstErrorsAreDeduplicated(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Subshell = &fakeSubshell{err: errors.New("boom")}

	var errs expand.ErrorList
	var completions []expand.Completion
	e.ExpandString(context.Background(), "(x)", &completions, 0, &errs)
	e.ExpandString(context.Background(), "(y)", &completions, 0, &errs)
	assert.Len(t, errs.Errors(), 1)
}

func TestSkipCmdSubst(t *testing.T) {
	e, _ := newTestExpander(nil)

	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "(ls)", &completions, expand.SkipCmdSubst, &errs)
	assert.Equal(t, expand.Error, status)

	completions = nil
	status = e.ExpandString(context.Background(), "safe", &completions, expand.SkipCmdSubst, &errs)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"safe"}, expand.Strings(completions))
}

func TestTildeExpansion(t *testing.T) {
	home := t.TempDir()
	realHome, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)

	e, _ := newTestExpander(map[string][]string{"HOME": {home}})
	out, status := expandAll(t, e, "~", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{realHome}, out)

	out, status = expandAll(t, e, "~/sub", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{realHome + "/sub"}, out)
}

func TestTildeUnknownUserUnchanged(t *testing.T) {
	e, _ := newTestExpander(nil)
	out, status := expandAll(t, e, "~nosuchuser-xyzzy/x", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"~nosuchuser-xyzzy/x"}, out)
}

func TestTildeSkipped(t *testing.T) {
	home := t.TempDir()
	e, _ := newTestExpander(map[string][]string{"HOME": {home}})
	out, status := expandAll(t, e, "~", expand.SkipHomeDirectories)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"~"}, out)
}

func TestUnexpandTildes(t *testing.T) {
	home := t.TempDir()
	realHome, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(home, "file.txt"), []byte("x"), 0644))

	e, _ := newTestExpander(map[string][]string{"HOME": {home}})
	e.Matcher = &prefixMatcher{root: realHome}

	var completions []expand.Completion
	status := e.ExpandString(context.Background(), "~/f*", &completions, expand.ForCompletions, nil)
	assert.NotEqual(t, expand.Error, status)
	require.NotEmpty(t, completions)
	for _, c := range completions {
		assert.True(t, len(c.Completion) > 0)
		assert.Equal(t, byte('~'), c.Completion[0])
		assert.NotZero(t, c.Flags&expand.DontEscapeTildes)
	}
}

// prefixMatcher emits one ReplacesToken match under its root for any
// pattern.
type prefixMatcher struct {
	root string
}

func (m *prefixMatcher) Expand(ctx context.Context, pattern, workingDir string, flags expand.Flags, out *[]expand.Completion) int {
	*out = append(*out, expand.Completion{
		Completion: m.root + "/file.txt",
		Flags:      expand.ReplacesToken,
	})
	return 1
}

func TestProcessSelf(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.SelfPid = 4242

	out, status := expandAll(t, e, "%self", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"4242"}, out)
}

func TestProcessLastWithoutBackgroundJob(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Jobs = jobs.NewTable()
	d := mainthread.New()
	go d.Run()
	defer d.Close()
	e.Main = d

	out, status := expandAll(t, e, "%last", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestProcessJobExpansion(t *testing.T) {
	table := jobs.NewTable()
	d := mainthread.New()
	go d.Run()
	defer d.Close()

	job := table.Add(&jobs.Job{
		Pgid:       555,
		Command:    "sleep 100",
		Background: true,
		Processes:  []jobs.Process{{Pid: 556, ActualCmd: "/bin/sleep"}},
	})

	e, _ := newTestExpander(nil)
	e.Jobs = table
	e.Main = d

	// Numeric job id.
	out, status := expandAll(t, e, "%"+strconv.Itoa(job.ID), 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"555"}, out)

	// %last now answers with the backgrounded pgid.
	out, status = expandAll(t, e, "%last", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"555"}, out)

	// Prefix match against the job command.
	out, status = expandAll(t, e, "%sle", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"555"}, out)
}

func TestProcessNoMatchIsError(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Procs = &fakeProcs{}

	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "%doesnotexist", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
	assert.False(t, errs.Empty())
}

func TestProcessCompletionCandidates(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.Procs = &fakeProcs{procs: []proc.Process{
		{Pid: 10, Cmd: "/usr/bin/vim"},
	}}

	var completions []expand.Completion
	status := e.ExpandString(context.Background(), "%vi", &completions, expand.ForCompletions, nil)
	assert.Equal(t, expand.OK, status)
	require.NotEmpty(t, completions)
	assert.Equal(t, "m", completions[0].Completion)
	assert.Equal(t, "Process", completions[0].Description)
}

func TestProcessOffMainThreadSkipsJobs(t *testing.T) {
	// Without a dispatcher the job table must not be consulted; with no
	// process source either, execution-mode expansion fails cleanly.
	table := jobs.NewTable()
	table.Add(&jobs.Job{Pgid: 7, Command: "editor", Background: true})

	e, _ := newTestExpander(nil)
	e.Jobs = table

	var completions []expand.Completion
	var errs expand.ErrorList
	status := e.ExpandString(context.Background(), "%editor", &completions, 0, &errs)
	assert.Equal(t, expand.Error, status)
}

func TestHistoryOffMainThreadIsMissing(t *testing.T) {
	e, _ := newTestExpander(nil)
	e.History = &fakeHistory{items: []string{"latest", "older"}}
	// No dispatcher: $history behaves as a missing variable.
	out, status := expandAll(t, e, "$history", 0)
	assert.Equal(t, expand.OK, status)
	assert.Empty(t, out)
}

func TestHistoryExpansion(t *testing.T) {
	d := mainthread.New()
	go d.Run()
	defer d.Close()

	e, _ := newTestExpander(nil)
	e.History = &fakeHistory{items: []string{"latest", "older", "oldest"}}
	e.Main = d

	out, status := expandAll(t, e, "$history", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"latest", "older", "oldest"}, out)

	out, status = expandAll(t, e, "$history[2]", 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"older"}, out)
}

// fakeHistory is an in-memory history provider, index 1 most recent.
type fakeHistory struct {
	items []string
}

func (h *fakeHistory) Size() int { return len(h.items) }

func (h *fakeHistory) ItemsAtIndexes(indexes []int) map[int]string {
	out := make(map[int]string)
	for _, idx := range indexes {
		if idx >= 1 && idx <= len(h.items) {
			out[idx] = h.items[idx-1]
		}
	}
	return out
}

func (h *fakeHistory) GetAll() []string { return h.items }

func TestNoSentinelLeakage(t *testing.T) {
	home := t.TempDir()
	e, _ := newTestExpander(map[string][]string{
		"HOME": {home},
		"a":    {"1", "2"},
	})
	e.Subshell = &fakeSubshell{outputs: map[string][]string{"c": {"out"}}}
	e.SelfPid = 99

	inputs := []string{
		"plain", "$a", `"$a"`, "a{b,c}d", "~", "%self", "(c)x", "$a{p,q}", "a\\*b",
	}
	flagSets := []expand.Flags{
		0, expand.ForCompletions, expand.SkipWildcards,
		expand.SkipVariables | expand.SkipHomeDirectories,
	}
	for _, input := range inputs {
		for _, flags := range flagSets {
			var completions []expand.Completion
			e.ExpandString(context.Background(), input, &completions, flags, nil)
			for _, c := range completions {
				for _, r := range c.Completion {
					assert.False(t, r >= expand.VarExpand && r <= expand.AnyStringRecursive,
						"sentinel %U leaked from input %q flags %v", r, input, flags)
				}
			}
		}
	}
}

func TestExpandOne(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{
		"single": {"only"},
		"multi":  {"a", "b"},
	})

	out, ok := e.ExpandOne(context.Background(), "$single", 0, nil)
	assert.True(t, ok)
	assert.Equal(t, "only", out)

	_, ok = e.ExpandOne(context.Background(), "$multi", 0, nil)
	assert.False(t, ok)

	out, ok = e.ExpandOne(context.Background(), "clean", 0, nil)
	assert.True(t, ok)
	assert.Equal(t, "clean", out)
}

func TestEscapedCharactersStayLiteral(t *testing.T) {
	e, _ := newTestExpander(map[string][]string{"a": {"1"}})

	out, status := expandAll(t, e, `\$a`, 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"$a"}, out)

	out, status = expandAll(t, e, `'$a'`, 0)
	assert.Equal(t, expand.OK, status)
	assert.Equal(t, []string{"$a"}, out)
}
