package expand

import (
	"strconv"
	"strings"
	"sync"

	"github.com/brainless/GoFish/internal/env"
	"github.com/brainless/GoFish/internal/log"
)

// AbbrVarPrefix is the environment-variable prefix that carries
// abbreviation definitions.
const AbbrVarPrefix = "_fish_abbr_"

// Abbreviations is a word-to-expansion cache fed by variable change
// notifications. It lives for the duration of a shell session.
type Abbreviations struct {
	mu  sync.RWMutex
	m   map[string]string
	env env.Store
}

// NewAbbreviations creates an abbreviation cache backed by the given
// store, pre-populated from any abbreviation variables already set.
func NewAbbreviations(store env.Store) *Abbreviations {
	a := &Abbreviations{
		m:   make(map[string]string),
		env: store,
	}
	for _, name := range store.Names() {
		if strings.HasPrefix(name, AbbrVarPrefix) {
			a.Update(env.OpSet, name)
		}
	}
	return a
}

// Update handles a (SET|ERASE, varname) notification for an
// abbreviation variable. Other variables are ignored.
func (a *Abbreviations) Update(op env.Op, varname string) {
	if !strings.HasPrefix(varname, AbbrVarPrefix) {
		return
	}
	word, ok := decodeVarName(varname[len(AbbrVarPrefix):])
	if !ok {
		log.Logger.Warnf("Abbreviation var '%s' is not correctly encoded, ignoring it", varname)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.m, word)
	if op != env.OpErase {
		if values, found := a.env.Get(varname); found && len(values) > 0 && values[0] != "" {
			a.m[word] = strings.Join(values, " ")
		}
	}
}

// Expand returns the expansion for word, if one is defined.
func (a *Abbreviations) Expand(word string) (string, bool) {
	if word == "" {
		return "", false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	value, ok := a.m[word]
	return value, ok
}

// decodeVarName reverses the variable-name encoding: "__" decodes to a
// literal underscore and "_XX_" (hex) to the byte it names; everything
// else passes through.
func decodeVarName(encoded string) (string, bool) {
	var b strings.Builder
	in := []rune(encoded)
	for i := 0; i < len(in); i++ {
		if in[i] != '_' {
			b.WriteRune(in[i])
			continue
		}
		if i+1 < len(in) && in[i+1] == '_' {
			b.WriteByte('_')
			i++
			continue
		}
		end := i + 1
		for end < len(in) && in[end] != '_' {
			end++
		}
		if end >= len(in) || end == i+1 {
			return "", false
		}
		code, err := strconv.ParseUint(string(in[i+1:end]), 16, 32)
		if err != nil {
			return "", false
		}
		b.WriteRune(rune(code))
		i = end
	}
	return b.String(), true
}

// EncodeVarName is the forward encoding used when storing an
// abbreviation under its variable name: characters other than
// [A-Za-z0-9] are written as "_XX_" and the underscore doubles.
func EncodeVarName(word string) string {
	var b strings.Builder
	for _, r := range word {
		switch {
		case r == '_':
			b.WriteString("__")
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteString("_" + strconv.FormatUint(uint64(r), 16) + "_")
		}
	}
	return b.String()
}
