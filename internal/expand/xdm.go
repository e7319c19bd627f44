package expand

// FishXDMLoginHack is a narrow compatibility shim for xdm-style login
// scripts. If cmds is exactly one entry equal to `exec "${@}"` or
// `exec "$@"`, it is replaced with `exec` followed by the shell's own
// arguments single-quote-escaped. Reports whether a replacement was
// made.
func FishXDMLoginHack(cmds []string, argv []string) bool {
	if len(cmds) != 1 {
		return false
	}

	cmd := cmds[0]
	if cmd != `exec "${@}"` && cmd != `exec "$@"` {
		return false
	}

	newCmd := "exec"
	for _, arg := range argv {
		newCmd += " " + escapeSingleQuoted(arg)
	}
	cmds[0] = newCmd
	return true
}
