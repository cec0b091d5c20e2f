package scan

import (
	"unicode/utf8"

	"github.com/lore-lang/lore/pkg/core"
)

// namedEscapes are the caret escapes spelled out in parentheses.
var namedEscapes = map[string]rune{
	"null": 0x00,
	"back": 0x08,
	"tab":  0x09,
	"line": 0x0a,
	"page": 0x0c,
	"esc":  0x1b,
	"del":  0x7f,
}

// decodeEscape decodes one caret escape starting at src[i], where
// src[i] == '^'. It returns the decoded rune and the index just past
// the escape, or ok == false when the escape is malformed.
func decodeEscape(src []byte, i int) (r rune, next int, ok bool) {
	i++ // past the caret
	if i >= len(src) {
		return 0, i, false
	}
	b := src[i]
	switch {
	case b == '/':
		return '\n', i + 1, true
	case b == '-':
		return '\t', i + 1, true
	case b == '^':
		return '^', i + 1, true
	case b == '"':
		return '"', i + 1, true
	case b == '{':
		return '{', i + 1, true
	case b == '}':
		return '}', i + 1, true
	case b == '@':
		return 0, i + 1, true
	case b == '~':
		return 0x7f, i + 1, true
	case b >= 'A' && b <= 'Z':
		return rune(b - 'A' + 1), i + 1, true
	case b >= 'a' && b <= 'z':
		return rune(b - 'a' + 1), i + 1, true
	case b == '(':
		j := i + 1
		for j < len(src) && src[j] != ')' && src[j] != '\n' {
			j++
		}
		if j >= len(src) || src[j] != ')' {
			return 0, j, false
		}
		body := string(src[i+1 : j])
		if r, found := namedEscapes[body]; found {
			return r, j + 1, true
		}
		// Hex code point, one to six digits.
		if len(body) == 0 || len(body) > 6 {
			return 0, j, false
		}
		var code rune
		for k := 0; k < len(body); k++ {
			d := hexDigit(body[k])
			if d < 0 {
				return 0, j, false
			}
			code = code<<4 | rune(d)
		}
		if code > utf8.MaxRune {
			return 0, j, false
		}
		return code, j + 1, true
	}
	return 0, i, false
}

func hexDigit(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

// appendDecoded decodes the source bytes of a quoted string body,
// resolving caret escapes, and appends the runes to out. The body
// excludes its surrounding quotes or braces.
func appendDecoded(out []rune, body []byte) ([]rune, bool) {
	i := 0
	for i < len(body) {
		b := body[i]
		if b == '^' {
			r, next, ok := decodeEscape(body, i)
			if !ok {
				return out, false
			}
			out = append(out, r)
			i = next
			continue
		}
		if b < utf8.RuneSelf {
			out = append(out, rune(b))
			i++
			continue
		}
		r, size := utf8.DecodeRune(body[i:])
		if r == utf8.RuneError && size == 1 {
			return out, false
		}
		out = append(out, r)
		i += size
	}
	return out, true
}

// decodeString builds a runes series from a string token body.
func decodeString(body []byte) (*core.Series, bool) {
	runes, ok := appendDecoded(nil, body)
	if !ok {
		return nil, false
	}
	s := core.MakeSeries(len(runes), core.ClassRunes, 0)
	s.SetRunes(runes)
	return s, true
}
