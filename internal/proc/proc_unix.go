//go:build !darwin && !windows

package proc

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// procSource walks the /proc pseudo-filesystem. Only numeric entries
// owned by the current uid are considered; the command is the first
// NUL-separated token of the cmdline file.
type procSource struct {
	root string
}

func newPlatformSource() Source {
	return &procSource{root: "/proc"}
}

func (s *procSource) Processes() ([]Process, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	uid := os.Getuid()
	var out []Process
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		stat, ok := info.Sys().(*syscall.Stat_t)
		if !ok || int(stat.Uid) != uid {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.root, entry.Name(), "cmdline"))
		if err != nil || len(data) == 0 {
			continue
		}
		cmd := string(data)
		if nul := bytes.IndexByte(data, 0); nul >= 0 {
			cmd = string(data[:nul])
		}
		if cmd == "" {
			continue
		}
		out = append(out, Process{Pid: pid, Cmd: cmd})
	}
	return out, nil
}
