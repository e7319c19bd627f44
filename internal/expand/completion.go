package expand

// CompletionFlags is a bitset of per-completion behaviors.
type CompletionFlags uint

const (
	// ReplacesToken means the completion replaces the whole token being
	// completed instead of appending to it.
	ReplacesToken CompletionFlags = 1 << iota
	// DontEscapeTildes marks a leading tilde as literal so the renderer
	// does not escape it.
	DontEscapeTildes
)

// Completion is the unit of engine output. For non-completion use only
// the Completion field matters.
type Completion struct {
	Completion  string
	Description string
	Flags       CompletionFlags
}

// appendCompletion appends a bare completion string.
func appendCompletion(out *[]Completion, completion string) {
	*out = append(*out, Completion{Completion: completion})
}

// appendCompletionDesc appends a completion with a description and flags.
func appendCompletionDesc(out *[]Completion, completion, description string, flags CompletionFlags) {
	*out = append(*out, Completion{
		Completion:  completion,
		Description: description,
		Flags:       flags,
	})
}

// Strings extracts the completion strings from a completion list.
func Strings(completions []Completion) []string {
	out := make([]string, len(completions))
	for i, c := range completions {
		out[i] = c.Completion
	}
	return out
}
