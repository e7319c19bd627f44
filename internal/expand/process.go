package expand

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brainless/GoFish/internal/jobs"
	"github.com/brainless/GoFish/internal/log"
)

// Completion descriptions for process expansion.
const (
	descSelf         = "Shell process"
	descLast         = "Last background job"
	descJob          = "Job"
	descJobVal       = "Job: %s"
	descChildProcess = "Child process"
	descProcess      = "Process"
)

const (
	selfWord = "self"
	lastWord = "last"
)

// isNumeric reports whether s is non-empty and entirely ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// matchPid tests whether pattern matches the command line cmd, either
// as a prefix of the whole command or of its basename. The returned
// offset is where the match starts within cmd, so completion can
// append the unmatched remainder. An empty pattern matches at the
// basename so that completing against a bare % does not offer a pile
// of paths.
func matchPid(cmd, pattern string) (offset int, ok bool) {
	if pattern != "" && strings.HasPrefix(cmd, pattern) {
		return 0, true
	}

	base := filepath.Base(cmd)
	if strings.HasPrefix(base, pattern) {
		return len(cmd) - len(base), true
	}
	return 0, false
}

// findJob searches the job table for the given body. It must run on
// the main thread. Returns true to stop the search (the body was
// conclusively handled), false to let the caller fall through to the
// process scan.
func (e *Expander) findJob(body string, flags Flags, out *[]Completion) bool {
	found := false

	// A bare '%' in execution mode expands to the last job
	// backgrounded; we don't try the other match methods for it. In
	// completion mode all job ids are wanted instead, so the numeric
	// branch below handles the empty body.
	if body == "" && flags&ForCompletions == 0 {
		e.Jobs.Foreach(func(j *jobs.Job) bool {
			if !j.CommandIsEmpty() && j.Background {
				appendCompletion(out, strconv.Itoa(j.Pgid))
				return false
			}
			return true
		})
		return true
	} else if isNumeric(body) || (body == "" && flags&ForCompletions != 0) {
		// A numeric job string, like '%2'. Stop here either way so a
		// random process name cannot be matched by someone who is just
		// trying to use job control.
		if flags&ForCompletions != 0 {
			e.Jobs.Foreach(func(j *jobs.Job) bool {
				if j.CommandIsEmpty() {
					return true
				}
				jid := strconv.Itoa(j.ID)
				if strings.HasPrefix(jid, body) {
					appendCompletionDesc(out, jid[len(body):],
						descriptionf(flags, descJobVal, j.Command), 0)
				}
				return true
			})
		} else {
			jid, err := strconv.Atoi(body)
			if err == nil && jid > 0 {
				if j := e.Jobs.Get(jid); j != nil && !j.CommandIsEmpty() {
					appendCompletion(out, strconv.Itoa(j.Pgid))
				}
			}
		}
		return true
	}

	// Prefix match against the command strings of all jobs.
	e.Jobs.Foreach(func(j *jobs.Job) bool {
		if j.CommandIsEmpty() {
			return true
		}
		if offset, ok := matchPid(j.Command, body); ok {
			if flags&ForCompletions != 0 {
				appendCompletionDesc(out, j.Command[offset+len(body):],
					descriptionf(flags, descJob), 0)
			} else {
				appendCompletion(out, strconv.Itoa(j.Pgid))
				found = true
			}
		}
		return true
	})
	if found {
		return true
	}

	// Then against the command lines of the jobs' own processes.
	e.Jobs.Foreach(func(j *jobs.Job) bool {
		if j.CommandIsEmpty() {
			return true
		}
		for _, p := range j.Processes {
			if p.ActualCmd == "" {
				continue
			}
			if offset, ok := matchPid(p.ActualCmd, body); ok {
				if flags&ForCompletions != 0 {
					appendCompletionDesc(out, p.ActualCmd[offset+len(body):],
						descriptionf(flags, descChildProcess), 0)
				} else {
					appendCompletion(out, strconv.Itoa(p.Pid))
					found = true
				}
			}
		}
		return true
	})

	return found
}

// findProcess searches jobs first (on the main thread), then all of
// the user's OS processes.
func (e *Expander) findProcess(ctx context.Context, body string, flags Flags, out *[]Completion) {
	if flags&SkipJobs == 0 && e.Jobs != nil && e.Main != nil {
		found := false
		e.Main.Perform(func() {
			found = e.findJob(body, flags, out)
		})
		if found {
			return
		}
	}

	if e.Procs == nil {
		return
	}
	procs, err := e.Procs.Processes()
	if err != nil {
		log.Logger.Debugf("Process listing failed: %v", err)
		return
	}
	for _, p := range procs {
		if ctx.Err() != nil {
			return
		}
		if offset, ok := matchPid(p.Cmd, body); ok {
			if flags&ForCompletions != 0 {
				appendCompletionDesc(out, p.Cmd[offset+len(body):],
					descriptionf(flags, descProcess), 0)
			} else {
				appendCompletion(out, strconv.Itoa(p.Pid))
			}
		}
	}
}

// expandProcess handles %-expansion for a single intermediate string.
func (e *Expander) expandProcess(ctx context.Context, instrWithSep string, flags Flags, out *[]Completion, errs *ErrorList) bool {
	// The string still carries internal separators at this point; strip
	// them before deciding anything.
	if !strings.ContainsRune(instrWithSep, InternalSep) &&
		!strings.ContainsRune(instrWithSep, ProcessExpand) {
		appendCompletion(out, instrWithSep)
		return true
	}

	instr := removeInternalSeparator(instrWithSep, false)
	in := []rune(instr)
	if len(in) == 0 || in[0] != ProcessExpand {
		appendCompletion(out, instr)
		return true
	}

	body := string(in[1:])

	if flags&ForCompletions != 0 {
		if strings.HasPrefix(selfWord, body) {
			appendCompletionDesc(out, selfWord[len(body):], descriptionf(flags, descSelf), 0)
		} else if strings.HasPrefix(lastWord, body) {
			appendCompletionDesc(out, lastWord[len(body):], descriptionf(flags, descLast), 0)
		}
	} else {
		if body == selfWord {
			appendCompletion(out, strconv.Itoa(e.selfPid()))
			return true
		}
		if body == lastWord {
			if e.Jobs != nil {
				if pgid := e.lastBackgroundPgid(); pgid > 0 {
					appendCompletion(out, strconv.Itoa(pgid))
				}
			}
			return true
		}
	}

	prevCount := len(*out)
	e.findProcess(ctx, body, flags, out)

	if len(*out) == prevCount && flags&ForCompletions == 0 {
		// We failed to find anything.
		errs.appendSyntax(1, "Could not expand process specification '%s'", body)
		return false
	}
	return true
}

// lastBackgroundPgid reads the last-backgrounded pgid on the main
// thread when a dispatcher is available.
func (e *Expander) lastBackgroundPgid() int {
	pgid := 0
	if e.Main != nil {
		e.Main.Perform(func() {
			pgid = e.Jobs.LastBackgroundPgid()
		})
	}
	return pgid
}

// descriptionf formats a completion description, honoring
// NoDescriptions.
func descriptionf(flags Flags, format string, args ...interface{}) string {
	if flags&NoDescriptions != 0 {
		return ""
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// stageHomeAndProcess applies tilde resolution, then %-expansion.
func (e *Expander) stageHomeAndProcess(ctx context.Context, c Completion, out *[]Completion, flags Flags, errs *ErrorList) Status {
	next := c.Completion
	if flags&SkipHomeDirectories == 0 {
		next = e.expandHomeDirectory(next)
	} else if strings.HasPrefix(next, string(HomeDirectory)) {
		// Leave ~ literal; the sentinel must not survive the pipeline.
		next = "~" + strings.TrimPrefix(next, string(HomeDirectory))
	}

	if flags&ForCompletions != 0 {
		if strings.HasPrefix(next, string(ProcessExpand)) {
			e.expandProcess(ctx, next, flags, out, nil)
			return OK
		}
		appendCompletion(out, next)
		return OK
	}
	if !e.expandProcess(ctx, next, flags, out, errs) {
		return Error
	}
	return OK
}
