package tui

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/brainless/GoFish/internal/expand"
)

// subshellOutputCap bounds how much command-substitution output is
// retained. Exceeding it reports truncation to the engine.
const subshellOutputCap = 10 * 1024 * 1024

// shellSubshell runs command-substitution sources for the engine by
// expanding and executing them like an ordinary command line, with
// stdout captured.
type shellSubshell struct {
	shell *Shell
}

// Exec implements expand.Subshell.
func (ss *shellSubshell) Exec(ctx context.Context, source string) ([]string, error) {
	words := strings.Fields(source)
	if len(words) == 0 {
		return nil, nil
	}

	argv, err := ss.shell.expandWords(words)
	if err != nil {
		return nil, fmt.Errorf("substitution failed: %w", err)
	}
	if len(argv) == 0 {
		return nil, nil
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("unknown command: %s", argv[0])
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Stdout = &buf
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A failing command still substitutes its output; only
		// execution errors are reported.
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("substitution failed: %w", err)
		}
	}

	if buf.Len() > subshellOutputCap {
		return nil, expand.ErrReadTooMuch
	}

	lines := strings.Split(buf.String(), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
