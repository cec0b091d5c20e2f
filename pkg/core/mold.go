package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Mold renders a value as loadable text. Form renders for display: the
// same except strings lose their delimiters and words their decorations.

// Mold returns the molded text of v.
func Mold(v *Cell) string {
	var sb strings.Builder
	moldInto(&sb, v, true)
	return sb.String()
}

// Form returns the display text of v.
func Form(v *Cell) string {
	var sb strings.Builder
	moldInto(&sb, v, false)
	return sb.String()
}

func moldInto(sb *strings.Builder, v *Cell, mold bool) {
	switch v.kind {
	case KindTrash:
		sb.WriteString("~trash~")
	case KindVoid:
		sb.WriteString("")
	case KindBlank:
		sb.WriteByte('_')
	case KindBar:
		sb.WriteByte('|')
	case KindLitBar:
		sb.WriteString("'|")
	case KindLogic:
		if v.Logic() {
			sb.WriteString("#[true]")
		} else {
			sb.WriteString("#[false]")
		}
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.n, 10))
	case KindDecimal:
		sb.WriteString(moldDecimal(v.f))
	case KindPercent:
		sb.WriteString(trimFloat(v.f * 100))
		sb.WriteByte('%')
	case KindMoney:
		sb.WriteString(MoneyText(v.n))
	case KindChar:
		sb.WriteString(`#"`)
		moldEscaped(sb, []rune{rune(v.n)}, '"')
		sb.WriteByte('"')
	case KindPair:
		sb.WriteString(trimFloat(PairX(v)))
		sb.WriteByte('x')
		sb.WriteString(trimFloat(PairY(v)))
	case KindTuple:
		bs := TupleBytes(v)
		for i, b := range bs {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(strconv.Itoa(int(b)))
		}
	case KindTime:
		sb.WriteString(moldTime(v))
	case KindDate:
		sb.WriteString(moldDate(v))
	case KindWord:
		sb.WriteString(v.spelling.Text())
	case KindSetWord:
		sb.WriteString(v.spelling.Text())
		sb.WriteByte(':')
	case KindGetWord:
		sb.WriteByte(':')
		sb.WriteString(v.spelling.Text())
	case KindLitWord:
		sb.WriteByte('\'')
		sb.WriteString(v.spelling.Text())
	case KindRefinement:
		sb.WriteByte('/')
		sb.WriteString(v.spelling.Text())
	case KindIssue:
		sb.WriteByte('#')
		sb.WriteString(v.spelling.Text())
	case KindString:
		moldString(sb, v.ser.runes[v.idx:], mold)
	case KindFile:
		sb.WriteByte('%')
		sb.WriteString(string(v.ser.runes[v.idx:]))
	case KindEmail, KindURL:
		sb.WriteString(string(v.ser.runes[v.idx:]))
	case KindTag:
		sb.WriteByte('<')
		sb.WriteString(string(v.ser.runes[v.idx:]))
		sb.WriteByte('>')
	case KindBinary:
		sb.WriteString("#{")
		sb.WriteString(strings.ToUpper(fmt.Sprintf("%x", v.ser.bytes[v.idx:])))
		sb.WriteByte('}')
	case KindBitset:
		moldBitset(sb, v.ser)
	case KindBlock:
		sb.WriteByte('[')
		moldArrayInto(sb, v.ser, v.idx, mold)
		sb.WriteByte(']')
	case KindGroup:
		sb.WriteByte('(')
		moldArrayInto(sb, v.ser, v.idx, mold)
		sb.WriteByte(')')
	case KindPath, KindSetPath, KindGetPath, KindLitPath:
		moldPath(sb, v, mold)
	case KindTypeset:
		sb.WriteString("#[typeset!]")
	case KindFunction:
		name := "anonymous"
		if fn := v.Func(); fn != nil && fn.name != nil {
			name = fn.name.Text()
		}
		sb.WriteString("#[function! ")
		sb.WriteString(name)
		sb.WriteByte(']')
	case KindObject, KindFrame, KindError:
		moldContext(sb, v, mold)
	default:
		sb.WriteString("#[" + v.kind.Name() + "!]")
	}
}

// moldDecimal always keeps a decimal point so the scanner classifies the
// text as a decimal again.
func moldDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// trimFloat renders a float minimally (pair components, percents).
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func moldTime(v *Cell) string {
	neg, h, m, s, nano := TimeParts(v)
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	fmt.Fprintf(&sb, "%d:%02d:%02d", h, m, s)
	if nano != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", nano), "0")
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	return sb.String()
}

func moldDate(v *Cell) string {
	y := v.n >> 16
	mo := (v.n >> 8) & 0xff
	d := v.n & 0xff
	return fmt.Sprintf("%d-%s-%d", d, monthNames[mo-1][:3], y)
}

// monthNames are the full month names used by date scan and mold.
var monthNames = []string{
	"January", "February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December",
}

// MonthNames returns the full month names, January first.
func MonthNames() []string { return monthNames }

func moldString(sb *strings.Builder, rs []rune, mold bool) {
	if !mold {
		sb.WriteString(string(rs))
		return
	}
	multiline := false
	for _, r := range rs {
		if r == '\n' || r == '"' {
			multiline = true
			break
		}
	}
	if multiline {
		sb.WriteByte('{')
		moldEscaped(sb, rs, '{')
		sb.WriteByte('}')
	} else {
		sb.WriteByte('"')
		moldEscaped(sb, rs, '"')
		sb.WriteByte('"')
	}
}

// moldEscaped writes runes with caret escapes. delim tells which quoting
// form is in effect: inside braces, newlines stay literal.
func moldEscaped(sb *strings.Builder, rs []rune, delim rune) {
	depth := 0
	for _, r := range rs {
		switch {
		case r == '^':
			sb.WriteString("^^")
		case r == '\n' && delim == '{':
			sb.WriteByte('\n')
		case r == '\n':
			sb.WriteString("^/")
		case r == '\t':
			sb.WriteString("^-")
		case r == '"' && delim == '"':
			sb.WriteString("^\"")
		case r == '{' && delim == '{':
			depth++
			sb.WriteByte('{')
		case r == '}' && delim == '{':
			if depth > 0 {
				depth--
				sb.WriteByte('}')
			} else {
				sb.WriteString("^}")
			}
		case r < 0x20:
			fmt.Fprintf(sb, "^(%02X)", r)
		default:
			sb.WriteRune(r)
		}
	}
}

func moldBitset(sb *strings.Builder, s *Series) {
	hex := strings.ToUpper(fmt.Sprintf("%x", s.bytes))
	if s.Negated() {
		sb.WriteString("#[bitset! [not #{" + hex + "}]]")
	} else {
		sb.WriteString("#[bitset! #{" + hex + "}]")
	}
}

func moldArrayInto(sb *strings.Builder, arr *Series, idx int, mold bool) {
	for i := idx; i < arr.Len(); i++ {
		if i > idx {
			if arr.At(i).HasFlag(FlagNewline) {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		moldInto(sb, arr.At(i), mold)
	}
}

func moldPath(sb *strings.Builder, v *Cell, mold bool) {
	switch v.kind {
	case KindGetPath:
		sb.WriteByte(':')
	case KindLitPath:
		sb.WriteByte('\'')
	}
	arr := v.ser
	for i := v.idx; i < arr.Len(); i++ {
		if i > v.idx {
			sb.WriteByte('/')
		}
		el := arr.At(i)
		if el.kind == KindBlank {
			continue
		}
		moldInto(sb, el, mold)
	}
	if v.kind == KindSetPath {
		sb.WriteByte(':')
	}
}

func moldContext(sb *strings.Builder, v *Cell, mold bool) {
	ctx := &Context{varlist: v.ser}
	sb.WriteString("make " + v.kind.Name() + "! [")
	if ctx.Inaccessible() {
		sb.WriteString("...unavailable...]")
		return
	}
	first := true
	for i := 1; i <= ctx.Len(); i++ {
		key := ctx.Key(i)
		if key.HasFlag(FlagHidden) || key.spelling == nil {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(key.spelling.Text())
		sb.WriteString(": ")
		moldInto(sb, ctx.Var(i), mold)
	}
	sb.WriteByte(']')
}
