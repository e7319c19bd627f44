package tui

import (
	"strings"

	"github.com/brainless/GoFish/internal/expand"
)

// engineCompleter implements readline.AutoCompleter on top of the
// expansion engine in completion mode.
type engineCompleter struct {
	shell *Shell
}

// Do produces completion candidates for the word at the cursor.
func (c *engineCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])

	word := ""
	if !strings.HasSuffix(lineStr, " ") {
		fields := strings.Fields(lineStr)
		if len(fields) > 0 {
			word = fields[len(fields)-1]
		}
	}

	candidates := c.shell.completeWord(word)
	for _, cand := range candidates {
		if cand.Flags&expand.ReplacesToken != 0 {
			newLine = append(newLine, []rune(cand.Completion))
		} else {
			newLine = append(newLine, []rune(word+cand.Completion))
		}
	}
	return newLine, len([]rune(word))
}

// completeWord asks the engine for candidates. Plain words probe the
// filesystem by appending a wildcard; words already carrying expansion
// operators are completed as typed.
func (s *Shell) completeWord(word string) []expand.Completion {
	probe := word
	if !strings.ContainsAny(word, "*?{$(") {
		probe = word + "*"
	}

	var completions []expand.Completion
	status := s.expander.ExpandString(s.ctx, probe, &completions,
		expand.ForCompletions|expand.SkipCmdSubst, nil)
	if status == expand.Error {
		return nil
	}
	return completions
}
