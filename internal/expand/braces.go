package expand

import "context"

// expandBraces scans for the first non-nested balanced brace pair and
// emits prefix·alternative·suffix for each top-level alternative,
// recursing on every result. In completion mode an unterminated brace
// is auto-closed by appending a closing brace at end of input.
func (e *Expander) expandBraces(ctx context.Context, instr string, flags Flags, out *[]Completion, errs *ErrorList) Status {
	in := []rune(instr)

	syntaxError := false
	braceCount := 0
	braceBegin, braceEnd := -1, -1

	// Locate the first non-nested brace pair.
	for pos := 0; pos < len(in) && !syntaxError; pos++ {
		switch in[pos] {
		case BraceBegin:
			if braceCount == 0 && braceBegin < 0 {
				braceBegin = pos
			}
			braceCount++
		case BraceEnd:
			braceCount--
			if braceCount < 0 {
				syntaxError = true
			} else if braceCount == 0 && braceEnd < 0 {
				braceEnd = pos
			}
		}
	}

	if braceCount > 0 {
		if flags&ForCompletions == 0 {
			syntaxError = true
		} else {
			// The user hasn't typed an end brace yet; make one up at the
			// end of the input and expand that.
			mod := append(append([]rune(nil), in...), BraceEnd)
			return e.expandBraces(ctx, string(mod), flags, out, errs)
		}
	}

	// An empty brace pair is rewritten to the literal characters so
	// that e.g. `find -exec {}` passes through unchanged.
	if braceBegin >= 0 && braceBegin+1 == braceEnd {
		newIn := append([]rune(nil), in...)
		newIn[braceBegin] = '{'
		newIn[braceEnd] = '}'
		return e.expandBraces(ctx, string(newIn), flags, out, errs)
	}

	if syntaxError {
		errs.appendSyntax(SourceLocationUnknown, "Mismatched braces")
		return Error
	}

	if braceBegin < 0 {
		appendCompletion(out, instr)
		return OK
	}

	prefix := in[:braceBegin]
	suffix := in[braceEnd+1:]

	itemBegin := braceBegin + 1
	depth := 0
	for pos := braceBegin + 1; pos <= braceEnd; pos++ {
		if depth == 0 && (in[pos] == BraceSep || pos == braceEnd) {
			var whole []rune
			whole = append(whole, prefix...)
			whole = append(whole, in[itemBegin:pos]...)
			whole = append(whole, suffix...)
			if st := e.expandBraces(ctx, string(whole), flags, out, errs); st == Error {
				return st
			}
			itemBegin = pos + 1
			if pos == braceEnd {
				break
			}
		}
		if in[pos] == BraceBegin {
			depth++
		}
		if in[pos] == BraceEnd {
			depth--
		}
	}
	return OK
}

// stageBraces is the third pipeline stage.
func (e *Expander) stageBraces(ctx context.Context, c Completion, out *[]Completion, flags Flags, errs *ErrorList) Status {
	return e.expandBraces(ctx, c.Completion, flags, out, errs)
}
