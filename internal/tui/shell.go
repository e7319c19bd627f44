// Package tui implements the interactive shell: a readline loop whose
// words are run through the expansion engine, with tab completion
// served by the same engine in completion mode.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/brainless/GoFish/internal/config"
	"github.com/brainless/GoFish/internal/env"
	"github.com/brainless/GoFish/internal/expand"
	"github.com/brainless/GoFish/internal/history"
	"github.com/brainless/GoFish/internal/jobs"
	"github.com/brainless/GoFish/internal/log"
	"github.com/brainless/GoFish/internal/mainthread"
	"github.com/brainless/GoFish/internal/proc"
	"github.com/brainless/GoFish/internal/wildcard"
)

// Shell is the interactive shell instance.
type Shell struct {
	ctx      context.Context
	cancel   context.CancelFunc
	store    *env.MapStore
	expander *expand.Expander
	jobTable *jobs.Table
	abbrs    *expand.Abbreviations
	hist     *history.Store
	main     *mainthread.Dispatcher
	readline *readline.Instance
	prompt   string
}

// NewShell creates a shell wired to the real environment, history
// database, job table and filesystem.
func NewShell() (*Shell, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store := env.NewFromEnviron()
	table := jobs.NewTable()
	dispatcher := mainthread.New()

	hist, err := history.Open(config.AppConfig.StoragePath)
	if err != nil {
		log.Logger.Warnf("Failed to open history store: %v", err)
		hist = nil
	}

	shell := &Shell{
		ctx:      ctx,
		cancel:   cancel,
		store:    store,
		jobTable: table,
		hist:     hist,
		main:     dispatcher,
		prompt:   "gofish> ",
	}

	expander := expand.New(store)
	expander.Matcher = wildcard.New()
	expander.Jobs = table
	expander.Procs = proc.NewSource()
	expander.Main = dispatcher
	if hist != nil {
		expander.History = hist
	}
	expander.Subshell = &shellSubshell{shell: shell}
	shell.expander = expander

	shell.abbrs = expand.NewAbbreviations(store)
	store.Watch(func(op env.Op, name string) {
		shell.abbrs.Update(op, name)
	})

	if err := shell.initReadline(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return shell, nil
}

// initReadline sets up the readline instance with completion and
// persistent line history.
func (s *Shell) initReadline() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            s.prompt,
		HistoryFile:       historyFilePath(),
		AutoComplete:      &engineCompleter{shell: s},
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	s.readline = rl
	return nil
}

func historyFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".gofish_history"
	}
	return homeDir + "/.gofish_history"
}

// Run services the main-thread dispatcher on the calling goroutine and
// the input loop on a second one. It returns when the user exits.
func (s *Shell) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Logger.Info("Received shutdown signal, stopping gracefully...")
		s.cancel()
		s.readline.Close()
	}()

	if isInteractive() {
		fmt.Println("GoFish interactive shell")
		fmt.Println("Type 'help' for available commands or 'exit' to quit")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.inputLoop()
	}()

	// The job table and history store are only touched from here.
	go func() {
		<-done
		s.main.Close()
	}()
	s.main.Run()

	return s.shutdown()
}

// inputLoop reads and executes lines until EOF or exit.
func (s *Shell) inputLoop() {
	for {
		line, err := s.readline.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || s.ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Logger.Errorf("Read error: %v", err)
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if s.hist != nil {
			s.main.Perform(func() {
				if err := s.hist.Add(input); err != nil {
					log.Logger.Warnf("Failed to record history: %v", err)
				}
			})
		}

		if err := s.executeLine(input); err != nil {
			if err.Error() == "exit" {
				return
			}
			fmt.Fprintf(os.Stderr, "gofish: %v\n", err)
		}
	}
}

// executeLine expands and runs a single command line.
func (s *Shell) executeLine(input string) error {
	words := strings.Fields(input)
	if len(words) == 0 {
		return nil
	}

	// Abbreviations apply to the command position only.
	if value, ok := s.abbrs.Expand(words[0]); ok {
		words = append(strings.Fields(value), words[1:]...)
	}

	background := false
	if words[len(words)-1] == "&" {
		background = true
		words = words[:len(words)-1]
		if len(words) == 0 {
			return nil
		}
	}

	if handled, err := s.runBuiltin(words); handled {
		return err
	}

	argv, err := s.expandWords(words)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return nil
	}
	return s.runExternal(argv, background)
}

// expandWords runs each word through the engine. The command word uses
// the command search path rules.
func (s *Shell) expandWords(words []string) ([]string, error) {
	var argv []string
	for i, word := range words {
		flags := expand.Flags(0)
		if i == 0 {
			flags |= expand.SpecialForCommand
		}

		var completions []expand.Completion
		var errs expand.ErrorList
		status := s.expander.ExpandString(s.ctx, word, &completions, flags, &errs)
		switch status {
		case expand.Error:
			for _, e := range errs.Errors() {
				fmt.Fprintf(os.Stderr, "gofish: %s\n", e.Text)
			}
			return nil, fmt.Errorf("could not expand '%s'", word)
		case expand.WildcardNoMatch:
			return nil, fmt.Errorf("no matches for wildcard '%s'", word)
		}
		argv = append(argv, expand.Strings(completions)...)
	}
	return argv, nil
}

// runExternal starts an external command, optionally in the
// background. Background jobs get their own process group and are
// registered in the job table.
func (s *Shell) runExternal(argv []string, background bool) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("unknown command: %s", argv[0])
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if !background {
		return cmd.Run()
	}

	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	var job *jobs.Job
	ok := s.main.Perform(func() {
		job = s.jobTable.Add(&jobs.Job{
			Pgid:       cmd.Process.Pid,
			Command:    strings.Join(argv, " "),
			Background: true,
			Processes: []jobs.Process{
				{Pid: cmd.Process.Pid, ActualCmd: path},
			},
		})
	})
	if !ok {
		// Dispatcher already shut down; the process keeps running but
		// is not tracked.
		return nil
	}
	fmt.Printf("[%d] %d\n", job.ID, cmd.Process.Pid)

	go func() {
		_ = cmd.Wait()
		s.main.Perform(func() {
			if err := s.jobTable.Remove(job.ID); err != nil {
				log.Logger.Debugf("Background job cleanup: %v", err)
			}
		})
	}()
	return nil
}

// shutdown releases resources.
func (s *Shell) shutdown() error {
	fmt.Println("\nGoodbye!")
	s.cancel()
	if s.hist != nil {
		if err := s.hist.Close(); err != nil {
			log.Logger.Warnf("Error closing history store: %v", err)
		}
	}
	return s.readline.Close()
}
