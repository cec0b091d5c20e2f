package scan

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/lore-lang/lore/pkg/core"
)

// badWordFlags mark specials that never appear inside a word.
const badWordFlags = flags(1<<spDollar | 1<<spComma | 1<<spPound | 1<<spBackslash | 1<<spPercent)

// classifyAlpha resolves a prescanned token that starts with a word
// character (or a sign with no digits) into its final token kind.
func classifyAlpha(text []byte, fl flags, line int, sc *scanner) (token, error) {
	if len(text) == 0 {
		return token{}, sc.syntaxError(core.ErrSyntax, "")
	}
	if fl&specialFlag(spAt) != 0 {
		if bytes.Count(text, []byte("@")) != 1 || text[0] == '@' || text[len(text)-1] == '@' {
			return token{}, sc.syntaxError(core.ErrSyntax, string(text))
		}
		return token{kind: tokenEmail, text: text, fl: fl, line: line}, nil
	}
	if fl&specialFlag(spColon) != 0 {
		if text[len(text)-1] == ':' && bytes.IndexByte(text[:len(text)-1], ':') < 0 {
			// scheme:// continues into a URL; otherwise a set-word.
			if sc.peek() == '/' && sc.peekAt(1) == '/' {
				return sc.urlToken(text, fl, line), nil
			}
			return token{kind: tokenSetWord, text: text[:len(text)-1], fl: fl, line: line}, nil
		}
		// A colon mid-token is the mailto:address form.
		if i := bytes.IndexByte(text, ':'); i > 0 && i < len(text)-1 {
			return token{kind: tokenURL, text: text, fl: fl, line: line}, nil
		}
		return token{}, sc.syntaxError(core.ErrSyntax, string(text))
	}
	if fl&badWordFlags != 0 {
		return token{}, sc.syntaxError(core.ErrSyntax, string(text))
	}
	return token{kind: tokenWord, text: text, fl: fl, line: line}, nil
}

// classifyNumeric resolves a prescanned token that contains digits. The
// fingerprint picks the family; the parser for that family validates.
func classifyNumeric(text []byte, fl flags, line int, sc *scanner) (token, error) {
	kind := tokenInteger
	switch {
	case fl&specialFlag(spDollar) != 0:
		kind = tokenMoney
	case text[len(text)-1] == '%':
		kind = tokenPercent
	case fl&specialFlag(spColon) != 0:
		kind = tokenTime
	case fl&specialFlag(spAt) != 0:
		return classifyAlpha(text, fl, line, sc)
	case hasPairX(text):
		kind = tokenPair
	case hasExponent(text):
		kind = tokenDecimal
	case innerMinus(text):
		kind = tokenDate
	case bytes.Count(text, []byte(".")) >= 2:
		kind = tokenTuple
	case fl&specialFlag(spPeriod) != 0 || fl&specialFlag(spComma) != 0:
		kind = tokenDecimal
	case fl&flagWord != 0 || fl&flagUTF8 != 0:
		// A leading digit with letters and no numeric shape is not a word.
		return token{}, sc.syntaxError(core.ErrSyntax, string(text))
	}
	return token{kind: kind, text: text, fl: fl, line: line}, nil
}

// hasPairX reports an 'x' with a digit on the left, the 1x2 shape.
func hasPairX(text []byte) bool {
	for i := 1; i < len(text)-1; i++ {
		if (text[i] == 'x' || text[i] == 'X') && text[i-1] >= '0' && text[i-1] <= '9' {
			return true
		}
	}
	return false
}

// innerMinus reports a '-' past the leading sign position, the date shape.
func innerMinus(text []byte) bool {
	return bytes.IndexByte(text[1:], '-') >= 0
}

func hasExponent(text []byte) bool {
	for i := 1; i < len(text)-1; i++ {
		if text[i] == 'e' || text[i] == 'E' {
			n := text[i+1]
			if n == '+' || n == '-' || (n >= '0' && n <= '9') {
				return true
			}
		}
	}
	return false
}

// stripTicks removes the tick thousands separators numbers may carry.
func stripTicks(text []byte) string {
	if bytes.IndexByte(text, '\'') < 0 {
		return string(text)
	}
	return strings.ReplaceAll(string(text), "'", "")
}

func parseInteger(text []byte) (int64, bool) {
	n, err := strconv.ParseInt(stripTicks(text), 10, 64)
	return n, err == nil
}

func parseDecimal(text []byte) (float64, bool) {
	s := strings.ReplaceAll(stripTicks(text), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parsePercent(text []byte) (float64, bool) {
	f, ok := parseDecimal(text[:len(text)-1])
	return f / 100, ok
}

// parseMoney handles $1.50 and -$1.50, returning the fixed-point amount.
func parseMoney(text []byte) (int64, bool) {
	neg := false
	if len(text) > 0 && (text[0] == '-' || text[0] == '+') {
		neg = text[0] == '-'
		text = text[1:]
	}
	if len(text) == 0 || text[0] != '$' {
		return 0, false
	}
	body := stripTicks(text[1:])
	if body == "" {
		return 0, false
	}
	whole, frac := body, ""
	if i := strings.IndexAny(body, ".,"); i >= 0 {
		whole, frac = body[:i], body[i+1:]
		if strings.IndexAny(frac, ".,") >= 0 {
			return 0, false
		}
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	amount := w * 10_000
	if len(frac) > 4 {
		frac = frac[:4]
	}
	for len(frac) < 4 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, false
	}
	amount += f
	if neg {
		amount = -amount
	}
	return amount, true
}

func parsePair(text []byte) (x, y float64, ok bool) {
	s := strings.ToLower(string(text))
	i := strings.IndexByte(s, 'x')
	if i <= 0 || i == len(s)-1 {
		return 0, 0, false
	}
	x, err1 := strconv.ParseFloat(s[:i], 64)
	y, err2 := strconv.ParseFloat(s[i+1:], 64)
	return x, y, err1 == nil && err2 == nil
}

func parseTuple(text []byte) ([]byte, bool) {
	fields := strings.Split(string(text), ".")
	if len(fields) < 3 || len(fields) > core.MaxTupleLen {
		return nil, false
	}
	out := make([]byte, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return nil, false
		}
		out[i] = byte(n)
	}
	return out, true
}

func parseTime(text []byte) (neg bool, h, m int64, s float64, ok bool) {
	body := string(text)
	if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}
	fields := strings.Split(body, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return false, 0, 0, 0, false
	}
	var err error
	if h, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return false, 0, 0, 0, false
	}
	if m, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return false, 0, 0, 0, false
	}
	if len(fields) == 3 {
		if s, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return false, 0, 0, 0, false
		}
	}
	if m < 0 || m > 59 || s < 0 || s >= 60 {
		return false, 0, 0, 0, false
	}
	return neg, h, m, s, true
}

// parseDate accepts d-mon-y and y-mo-d, with month as number or name.
func parseDate(text []byte) (year, month, day int, ok bool) {
	fields := strings.Split(string(text), "-")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	a, err1 := strconv.Atoi(fields[0])
	c, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	month = monthNumber(fields[1])
	if month == 0 {
		return 0, 0, 0, false
	}
	if a > 31 {
		year, day = a, c
	} else {
		day, year = a, c
	}
	if !core.ValidDate(year, month, day) {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

func monthNumber(field string) int {
	if n, err := strconv.Atoi(field); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	if len(field) < 3 {
		return 0
	}
	low := strings.ToLower(field)
	for i, name := range core.MonthNames() {
		if strings.HasPrefix(strings.ToLower(name), low) {
			return i + 1
		}
	}
	return 0
}

// parseBinary decodes the hex body of #{...}, ignoring interior spacing.
func parseBinary(body []byte) ([]byte, bool) {
	var out []byte
	hi := -1
	for _, b := range body {
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			continue
		default:
			d := hexDigit(b)
			if d < 0 {
				return nil, false
			}
			if hi < 0 {
				hi = d
			} else {
				out = append(out, byte(hi<<4|d))
				hi = -1
			}
		}
	}
	if hi >= 0 {
		return nil, false
	}
	return out, true
}

// parseChar decodes the body of #"...", which must hold exactly one
// character after escape resolution.
func parseChar(body []byte) (rune, bool) {
	runes, ok := appendDecoded(nil, body)
	if !ok || len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}
