package expand

import "unicode"

// parseSlice parses an array slicing specification starting at in[0],
// which must be '['. Indexes are 1-based; negative indexes are
// normalized against size at parse time. A range a..b expands to every
// integer between its endpoints in the implied direction; when both
// endpoints exceed size the range contributes nothing, otherwise each
// endpoint is clamped to size.
//
// Returns the collected indexes, the position just past the closing
// ']', and a bad-token position. A bad position of 0 means success (0
// can never be bad because the string starts with '[').
func parseSlice(in []rune, size int) (idx []int, end int, badPos int) {
	pos := 1 // skip past the opening square bracket

	for {
		for pos < len(in) && (unicode.IsSpace(in[pos]) || in[pos] == InternalSep) {
			pos++
		}
		if pos >= len(in) {
			return nil, 0, pos
		}
		if in[pos] == ']' {
			pos++
			break
		}

		tmp, next, ok := parseLong(in, pos)
		if !ok {
			return nil, 0, pos
		}
		i1 := tmp
		if tmp <= -1 {
			i1 = size + tmp + 1
		}
		pos = next
		for pos < len(in) && in[pos] == InternalSep {
			pos++
		}

		if pos+1 < len(in) && in[pos] == '.' && in[pos+1] == '.' {
			pos += 2
			for pos < len(in) && in[pos] == InternalSep {
				pos++
			}

			tmp1, next, ok := parseLong(in, pos)
			if !ok {
				return nil, 0, pos
			}
			pos = next

			i2 := tmp1
			if tmp1 <= -1 {
				i2 = size + tmp1 + 1
			}
			// Clamp to the array size, but only when doing a range, and
			// only when just one endpoint is too high.
			if i1 > size && i2 > size {
				continue
			}
			if i1 > size {
				i1 = size
			}
			if i2 > size {
				i2 = size
			}
			direction := 1
			if i2 < i1 {
				direction = -1
			}
			for j := i1; j*direction <= i2*direction; j += direction {
				idx = append(idx, j)
			}
			continue
		}

		idx = append(idx, i1)
	}

	return idx, pos, 0
}

// parseLong reads a signed decimal integer at in[pos]. Returns the
// value, the position after the number, and whether any digits were
// consumed.
func parseLong(in []rune, pos int) (value, next int, ok bool) {
	i := pos
	neg := false
	if i < len(in) && (in[i] == '-' || in[i] == '+') {
		neg = in[i] == '-'
		i++
	}
	start := i
	for i < len(in) && in[i] >= '0' && in[i] <= '9' {
		value = value*10 + int(in[i]-'0')
		i++
	}
	if i == start {
		return 0, pos, false
	}
	if neg {
		value = -value
	}
	return value, i, true
}
