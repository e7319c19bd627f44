package expand

import (
	"context"
	"strings"
)

// validVarNameRune reports whether r may appear in a variable name.
func validVarNameRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// historyVarName is the distinguished variable backed by the history
// store instead of the environment.
const historyVarName = "history"

// lookupVariable resolves a variable name against the environment, or
// against the history store for the distinguished name. The history
// store is only consulted when a main-thread dispatcher is available;
// without one, $history behaves as a missing variable.
func (e *Expander) lookupVariable(name string) (values []string, isHistory, found bool) {
	if name == historyVarName {
		if e.History == nil || e.Main == nil {
			return nil, true, false
		}
		return nil, true, true
	}
	if name == string(VarExpandEmpty) {
		return nil, false, false
	}
	values, ok := e.Env.Get(name)
	return values, false, ok
}

// historyAll fetches the whole history on the main thread.
func (e *Expander) historyAll() []string {
	var items []string
	e.Main.Perform(func() {
		items = e.History.GetAll()
	})
	return items
}

// historySize fetches the history length on the main thread.
func (e *Expander) historySize() int {
	var n int
	e.Main.Perform(func() {
		n = e.History.Size()
	})
	return n
}

// historyAtIndexes fetches selected history items on the main thread,
// preserving the order of idxList and dropping absent entries.
func (e *Expander) historyAtIndexes(idxList []int) []string {
	var itemMap map[int]string
	e.Main.Perform(func() {
		itemMap = e.History.ItemsAtIndexes(idxList)
	})
	var out []string
	for _, idx := range idxList {
		if item, ok := itemMap[idx]; ok {
			out = append(out, item)
		}
	}
	return out
}

// expandVariables processes variable markers right to left, starting
// just before lastIdx. For each marker it substitutes the value list
// (sliced if a bracket follows the name) and recurses at the marker
// position; unquoted markers produce a cartesian product, quoted
// markers join the list with spaces. Recursion terminates because each
// call strictly decreases the position of the rightmost unprocessed
// marker.
func (e *Expander) expandVariables(instr string, out *[]Completion, lastIdx int, errs *ErrorList) bool {
	in := []rune(instr)
	insize := len(in)

	if lastIdx > insize {
		lastIdx = insize
	}
	if lastIdx == 0 {
		appendCompletion(out, instr)
		return true
	}

	// Locate the last VarExpand or VarExpandSingle before lastIdx.
	isSingle := false
	varexpIdx := -1
	for i := lastIdx - 1; i >= 0; i-- {
		if in[i] == VarExpand || in[i] == VarExpandSingle {
			isSingle = in[i] == VarExpandSingle
			varexpIdx = i
			break
		}
	}
	if varexpIdx < 0 {
		// No variable expand char, we're done.
		appendCompletion(out, instr)
		return true
	}

	// Read the variable name.
	nameStart := varexpIdx + 1
	nameStop := nameStart
	for nameStop < insize {
		nc := in[nameStop]
		if nc == VarExpandEmpty {
			nameStop++
			break
		}
		if !validVarNameRune(nc) {
			break
		}
		nameStop++
	}
	nameLen := nameStop - nameStart

	if nameLen == 0 {
		errs.appendSyntax(varexpIdx, "Expected a variable name after this $")
		return false
	}

	varName := string(in[nameStart:nameStop])
	values, isHistory, found := e.lookupVariable(varName)

	// Parse out any following slice.
	nameAndSliceStop := nameStop
	allValues := true
	var idxList []int
	if nameStop < insize && in[nameStop] == '[' {
		allValues = false
		// If a variable is missing, behave as though it has one value,
		// so that $var[1] always works.
		effectiveCount := 1
		if found {
			if isHistory {
				effectiveCount = e.historySize()
			} else {
				effectiveCount = len(values)
			}
		}
		var sliceEnd, badPos int
		idxList, sliceEnd, badPos = parseSlice(in[nameStop:], effectiveCount)
		if badPos != 0 {
			errs.appendSyntax(nameStop+badPos, "Invalid index value")
			return false
		}
		nameAndSliceStop = nameStop + sliceEnd
	}

	if !found {
		// Expanding a non-existent variable.
		if !isSingle {
			// Normal expansions of missing variables successfully expand
			// to nothing.
			return true
		}
		// Expansion to a single argument: drop the variable name and
		// slice. When the marker directly follows another quoted $
		// marker, VarExpandEmpty takes its place so that marker still
		// sees that a variable was here and it was empty.
		var res strings.Builder
		res.WriteString(string(in[:varexpIdx]))
		if varexpIdx > 0 && in[varexpIdx-1] == VarExpandSingle {
			res.WriteRune(VarExpandEmpty)
		}
		res.WriteString(string(in[nameAndSliceStop:]))
		return e.expandVariables(res.String(), out, varexpIdx, errs)
	}

	// Collect the (possibly sliced) value list.
	var items []string
	if allValues {
		if isHistory {
			items = e.historyAll()
		} else {
			items = values
		}
	} else {
		if isHistory {
			items = e.historyAtIndexes(idxList)
		} else {
			for _, idx := range idxList {
				// Negative indexes were normalized at parse time, so
				// idx < 1 is definitely out of bounds. We are 1-based.
				if idx >= 1 && idx <= len(values) {
					items = append(items, values[idx-1])
				}
			}
		}
	}

	if isSingle {
		var res strings.Builder
		res.WriteString(string(in[:varexpIdx]))
		if varexpIdx > 0 {
			if in[varexpIdx-1] != VarExpandSingle {
				res.WriteRune(InternalSep)
			} else if len(items) == 0 || items[0] == "" {
				// First expansion is empty, but we need to recursively
				// expand.
				res.WriteRune(VarExpandEmpty)
			}
		}
		res.WriteString(strings.Join(items, " "))
		res.WriteString(string(in[nameAndSliceStop:]))
		return e.expandVariables(res.String(), out, varexpIdx, errs)
	}

	// Normal cartesian-product expansion. The recursion expands the
	// part left of this marker, so its results are collected per item
	// and interleaved to keep the leftmost expansion varying slowest.
	blocks := make([][]Completion, 0, len(items))
	for _, item := range items {
		if varexpIdx == 0 && nameAndSliceStop == insize {
			blocks = append(blocks, []Completion{{Completion: item}})
			continue
		}
		var next strings.Builder
		next.WriteString(string(in[:varexpIdx]))
		if varexpIdx > 0 {
			if in[varexpIdx-1] != VarExpand {
				next.WriteRune(InternalSep)
			} else if item == "" {
				next.WriteRune(VarExpandEmpty)
			}
		}
		next.WriteString(item)
		next.WriteString(string(in[nameAndSliceStop:]))

		var block []Completion
		if !e.expandVariables(next.String(), &block, varexpIdx, errs) {
			return false
		}
		blocks = append(blocks, block)
	}
	for k := 0; ; k++ {
		emitted := false
		for _, block := range blocks {
			if k < len(block) {
				*out = append(*out, block[k])
				emitted = true
			}
		}
		if !emitted {
			return true
		}
	}
}

// stageVariables unescapes the input into sentinel form and runs the
// variable pass, or leaves $ literal under SkipVariables.
func (e *Expander) stageVariables(ctx context.Context, c Completion, out *[]Completion, flags Flags, errs *ErrorList) Status {
	_ = ctx
	// Incomplete strings are accepted here: completion expands words the
	// user is still typing.
	next := unescapeSpecial(c.Completion)

	if flags&SkipVariables != 0 {
		var b strings.Builder
		for _, r := range next {
			if r == VarExpand || r == VarExpandSingle {
				b.WriteRune('$')
			} else {
				b.WriteRune(r)
			}
		}
		appendCompletion(out, b.String())
		return OK
	}

	if !e.expandVariables(next, out, len([]rune(next)), errs) {
		return Error
	}
	return OK
}
