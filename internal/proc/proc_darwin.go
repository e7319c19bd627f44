//go:build darwin

package proc

import (
	"bytes"
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"
)

// sysctlSource lists processes through the BSD sysctl interface.
type sysctlSource struct{}

func newPlatformSource() Source {
	return &sysctlSource{}
}

func (s *sysctlSource) Processes() ([]Process, error) {
	procs, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, err
	}

	uid := uint32(os.Getuid())
	var out []Process
	for i := range procs {
		kp := &procs[i]
		if kp.Eproc.Ucred.Uid != uid {
			continue
		}
		pid := int(kp.Proc.P_pid)
		cmd := nameForPid(pid)
		if cmd == "" {
			continue
		}
		out = append(out, Process{Pid: pid, Cmd: cmd})
	}
	return out, nil
}

// nameForPid reads the process arguments via KERN_PROCARGS2. The buffer
// starts with the argument count followed by the executable path.
func nameForPid(pid int) string {
	raw, err := unix.SysctlRaw("kern.procargs2", pid)
	if err != nil || len(raw) <= 4 {
		return ""
	}

	_ = binary.LittleEndian.Uint32(raw[:4])
	rest := raw[4:]
	if nul := bytes.IndexByte(rest, 0); nul >= 0 {
		rest = rest[:nul]
	}
	return string(rest)
}
