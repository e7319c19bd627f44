package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brainless/GoFish/internal/env"
	"github.com/brainless/GoFish/internal/expand"
	"github.com/brainless/GoFish/internal/jobs"
)

// runBuiltin dispatches shell builtins. Returns handled=false when the
// command is not a builtin.
func (s *Shell) runBuiltin(words []string) (handled bool, err error) {
	switch words[0] {
	case "help":
		return true, s.showHelp()
	case "exit", "quit":
		return true, fmt.Errorf("exit")
	case "cd":
		return true, s.builtinCd(words[1:])
	case "jobs":
		return true, s.builtinJobs()
	case "set":
		return true, s.builtinSet(words[1:])
	case "abbr":
		return true, s.builtinAbbr(words[1:])
	default:
		return false, nil
	}
}

// showHelp displays available builtins.
func (s *Shell) showHelp() error {
	fmt.Println("Available commands:")
	fmt.Println("  help                     Show this help message")
	fmt.Println("  cd [dir]                 Change directory (CDPATH aware)")
	fmt.Println("  set [name [value...]]    Show or set variables")
	fmt.Println("  abbr [word expansion]    Show or define abbreviations")
	fmt.Println("  jobs                     List background jobs")
	fmt.Println("  exit                     Exit the shell")
	fmt.Println()
	fmt.Println("Words support $var, (cmd), {a,b}, ~, %job and wildcards.")
	return nil
}

// builtinCd changes directory, resolving the argument against CDPATH.
func (s *Shell) builtinCd(args []string) error {
	target := ""
	if len(args) == 0 {
		target = env.First(s.store, "HOME")
		if target == "" {
			return fmt.Errorf("cd: HOME not set")
		}
	} else {
		var errs expand.ErrorList
		expanded, ok := s.expander.ExpandOne(s.ctx, args[0], expand.SpecialForCD, &errs)
		if !ok {
			return fmt.Errorf("cd: could not expand '%s'", args[0])
		}
		target = expanded
		if !filepath.IsAbs(target) && !strings.HasPrefix(target, "./") && !strings.HasPrefix(target, "../") {
			cdpath, ok := s.store.Get("CDPATH")
			if !ok || len(cdpath) == 0 {
				cdpath = []string{"."}
			}
			for _, dir := range cdpath {
				if dir == "" {
					dir = "."
				}
				if info, err := os.Stat(filepath.Join(dir, target)); err == nil && info.IsDir() {
					target = filepath.Join(dir, target)
					break
				}
			}
		}
	}

	if err := os.Chdir(target); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	if wd, err := os.Getwd(); err == nil {
		s.store.Set("PWD", wd)
	}
	return nil
}

// builtinJobs lists the job table.
func (s *Shell) builtinJobs() error {
	width := terminalWidth()
	count := 0
	s.main.Perform(func() {
		s.jobTable.Foreach(func(j *jobs.Job) bool {
			line := fmt.Sprintf("[%d] %d %s", j.ID, j.Pgid, j.Command)
			if len(line) > width {
				line = line[:width]
			}
			fmt.Println(line)
			count++
			return true
		})
	})
	if count == 0 {
		fmt.Println("No background jobs")
	}
	return nil
}

// builtinSet shows or updates variables. With no arguments it lists
// every variable with its display-escaped value.
func (s *Shell) builtinSet(args []string) error {
	switch len(args) {
	case 0:
		for _, name := range s.store.Names() {
			values, _ := s.store.Get(name)
			fmt.Printf("%s %s\n", name, expand.EscapeVariable(values))
		}
		return nil
	case 1:
		if strings.HasPrefix(args[0], "-e") {
			return fmt.Errorf("set: -e requires a variable name")
		}
		s.store.Set(args[0])
		return nil
	default:
		if args[0] == "-e" {
			s.store.Erase(args[1])
			return nil
		}
		s.store.Set(args[0], args[1:]...)
		return nil
	}
}

// builtinAbbr shows or defines abbreviations. Definitions are stored
// as _fish_abbr_ variables, which feed the cache through the store's
// change notifications.
func (s *Shell) builtinAbbr(args []string) error {
	switch len(args) {
	case 0:
		for _, name := range s.store.Names() {
			if !strings.HasPrefix(name, expand.AbbrVarPrefix) {
				continue
			}
			values, _ := s.store.Get(name)
			fmt.Printf("%s -> %s\n", name, strings.Join(values, " "))
		}
		return nil
	case 1:
		return fmt.Errorf("abbr: expected a word and an expansion")
	default:
		varname := expand.AbbrVarPrefix + expand.EncodeVarName(args[0])
		s.store.Set(varname, strings.Join(args[1:], " "))
		return nil
	}
}
