package expand

import "context"

// locateCmdSubst finds the first non-nested balanced pair of
// substitution parentheses in in, skipping quoted and backslash-escaped
// characters. Returns 1 with the paren positions on success, 0 when no
// substitution is present, and -1 on mismatched parentheses. When
// acceptIncomplete is set an unterminated open paren counts as found.
func locateCmdSubst(in []rune, acceptIncomplete bool) (begin, end, ret int) {
	const (
		modeUnquoted = iota
		modeSingle
		modeDouble
	)
	mode := modeUnquoted
	depth := 0
	begin = -1

	for i := 0; i < len(in); i++ {
		c := in[i]
		if c == '\\' {
			i++
			continue
		}
		switch mode {
		case modeSingle:
			if c == '\'' {
				mode = modeUnquoted
			}
		case modeDouble:
			if c == '"' {
				mode = modeUnquoted
			}
		default:
			switch c {
			case '\'':
				mode = modeSingle
			case '"':
				mode = modeDouble
			case '(':
				if depth == 0 {
					begin = i
				}
				depth++
			case ')':
				depth--
				if depth < 0 {
					return -1, -1, -1
				}
				if depth == 0 {
					return begin, i, 1
				}
			}
		}
	}

	if depth > 0 {
		if acceptIncomplete {
			return begin, len(in), 1
		}
		return -1, -1, -1
	}
	return -1, -1, 0
}

// expandCmdSubst locates the first command substitution, runs it, and
// assembles the cartesian product of the substituted lines with the
// recursively expanded tail. Every spliced line is escaped for literal
// embedding and bracketed by InternalSep so adjacent tokens are not
// re-parsed as a single identifier.
func (e *Expander) expandCmdSubst(ctx context.Context, input string, out *[]Completion, errs *ErrorList) bool {
	in := []rune(input)

	parenBegin, parenEnd, ret := locateCmdSubst(in, false)
	switch ret {
	case -1:
		errs.appendSyntax(SourceLocationUnknown, "Mismatched parenthesis")
		return false
	case 0:
		appendCompletion(out, input)
		return true
	}

	subcmd := string(in[parenBegin+1 : parenEnd])
	if e.Subshell == nil {
		errs.appendCmdsub(SourceLocationUnknown, "Command substitutions not supported")
		return false
	}
	subRes, err := e.Subshell.Exec(ctx, subcmd)
	if err != nil {
		if err == ErrReadTooMuch {
			errs.appendCmdsub(parenBegin,
				"Too much data emitted by command substitution so it was discarded")
		} else {
			errs.appendCmdsub(SourceLocationUnknown,
				"Unknown error while evaluating command substitution")
		}
		return false
	}

	tailBegin := parenEnd + 1
	if tailBegin < len(in) && in[tailBegin] == '[' {
		sliceIdx, sliceEnd, badPos := parseSlice(in[tailBegin:], len(subRes))
		if badPos != 0 {
			errs.appendSyntax(tailBegin+badPos, "Invalid index value")
			return false
		}

		var sliced []string
		for _, idx := range sliceIdx {
			if idx < 1 || idx > len(subRes) {
				continue
			}
			sliced = append(sliced, subRes[idx-1])
		}
		subRes = sliced
		tailBegin += sliceEnd
	}

	// Recursively expand any remaining command substitutions in the
	// tail, then combine with the current substitution's output.
	var tailExpand []Completion
	if !e.expandCmdSubst(ctx, string(in[tailBegin:]), &tailExpand, errs) {
		return false
	}

	prefix := string(in[:parenBegin])
	for _, subItem := range subRes {
		escaped := escapeSpecial(subItem)
		for _, tailItem := range tailExpand {
			whole := prefix +
				string(InternalSep) + escaped + string(InternalSep) +
				tailItem.Completion
			appendCompletion(out, whole)
		}
	}
	return true
}

// stageCmdSubst is the first pipeline stage.
func (e *Expander) stageCmdSubst(ctx context.Context, c Completion, out *[]Completion, flags Flags, errs *ErrorList) Status {
	input := c.Completion
	if flags&SkipCmdSubst != 0 {
		if _, _, ret := locateCmdSubst([]rune(input), true); ret == 0 {
			appendCompletion(out, input)
			return OK
		}
		errs.appendCmdsub(SourceLocationUnknown, "Command substitutions not allowed")
		return Error
	}
	if !e.expandCmdSubst(ctx, input, out, errs) {
		return Error
	}
	return OK
}
