package scan

import "github.com/lore-lang/lore/pkg/core"

type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenNewline
	tokenBlockOpen
	tokenBlockClose
	tokenGroupOpen
	tokenGroupClose
	tokenConstructOpen // #[
	tokenSlash

	tokenWord
	tokenSetWord
	tokenGetWord
	tokenLitWord
	tokenIssue
	tokenBlank
	tokenBar
	tokenLitBar

	tokenInteger
	tokenDecimal
	tokenPercent
	tokenMoney
	tokenChar
	tokenPair
	tokenTuple
	tokenTime
	tokenDate

	tokenString
	tokenBinary
	tokenFile
	tokenEmail
	tokenURL
	tokenTag
)

// token carries the classified kind plus the source span. For quoted
// forms (strings, chars, binaries) the span excludes the delimiters.
type token struct {
	kind tokenKind
	text []byte
	fl   flags
	line int // line the token started on
}

// prescan runs from the current position to the next delimiter,
// fingerprinting every byte on the way. It never allocates and never
// backtracks; classification happens afterward from the fingerprint.
func (sc *scanner) prescan() ([]byte, flags) {
	start := sc.pos
	var fl flags
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		e := classTable[b]
		switch e.class {
		case classDelimit:
			return sc.src[start:sc.pos], fl
		case classSpecial:
			fl |= specialFlag(e.sub)
		case classWord:
			fl |= flagWord
		case classNumber:
			fl |= flagDigit
		case classUTF8:
			fl |= flagUTF8
		case classIllegal:
			return sc.src[start:sc.pos], fl
		}
		sc.pos++
	}
	return sc.src[start:sc.pos], fl
}

func (sc *scanner) peek() byte {
	if sc.pos < len(sc.src) {
		return sc.src[sc.pos]
	}
	return 0
}

func (sc *scanner) peekAt(off int) byte {
	if sc.pos+off < len(sc.src) {
		return sc.src[sc.pos+off]
	}
	return 0
}

// urlToken extends a scheme: prefix through the // and the rest of the
// address. Slashes do not delimit inside a URL. text must be the token
// slice prescan just produced, ending at sc.pos.
func (sc *scanner) urlToken(text []byte, fl flags, line int) token {
	start := sc.pos - len(text)
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		if b != '/' && !isWordish(b) {
			break
		}
		sc.pos++
	}
	return token{kind: tokenURL, text: sc.src[start:sc.pos], fl: fl, line: line}
}

func (sc *scanner) bumpLine() {
	sc.line++
	sc.lineHead = sc.pos
}

// next locates and classifies one token. Whitespace and comments are
// consumed silently; newlines come back as tokens so the assembler can
// set newline markers on the values that follow them.
func (sc *scanner) next() (token, error) {
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		e := classTable[b]
		if e.class == classDelimit {
			switch e.sub {
			case subSpace, subReturn:
				sc.pos++
				continue
			case subLine:
				sc.pos++
				sc.bumpLine()
				return token{kind: tokenNewline, line: sc.line}, nil
			case subSemicolon:
				for sc.pos < len(sc.src) && sc.src[sc.pos] != '\n' {
					sc.pos++
				}
				continue
			}
		}
		break
	}
	if sc.pos >= len(sc.src) {
		return token{kind: tokenEOF, line: sc.line}, nil
	}

	startLine := sc.line
	b := sc.src[sc.pos]
	e := classTable[b]

	switch e.class {
	case classDelimit:
		switch e.sub {
		case subBlockOpen:
			sc.pos++
			return token{kind: tokenBlockOpen, line: startLine}, nil
		case subBlockClose:
			sc.pos++
			return token{kind: tokenBlockClose, line: startLine}, nil
		case subGroupOpen:
			sc.pos++
			return token{kind: tokenGroupOpen, line: startLine}, nil
		case subGroupClose:
			sc.pos++
			return token{kind: tokenGroupClose, line: startLine}, nil
		case subSlash:
			sc.pos++
			return token{kind: tokenSlash, line: startLine}, nil
		case subQuote:
			sc.pos++ // "
			body, err := sc.scanQuotedBody('"')
			if err != nil {
				return token{}, err
			}
			return token{kind: tokenString, text: body, line: startLine}, nil
		case subBraceOpen:
			body, err := sc.scanBracedBody()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokenString, text: body, line: startLine}, nil
		case subBraceClose:
			return token{}, sc.syntaxError(core.ErrExtra, "}")
		case subEnd:
			sc.pos = len(sc.src)
			return token{kind: tokenEOF, line: startLine}, nil
		}

	case classSpecial:
		switch e.sub {
		case spPound:
			return sc.scanPound(startLine)
		case spTick:
			sc.pos++
			if sc.peek() == '|' && !isWordish(sc.peekAt(1)) {
				sc.pos++
				return token{kind: tokenLitBar, line: startLine}, nil
			}
			text, fl := sc.prescan()
			if len(text) == 0 {
				return token{}, sc.syntaxError(core.ErrSyntax, "'")
			}
			if text[len(text)-1] == ':' {
				return token{}, sc.syntaxError(core.ErrSyntax, "'"+string(text))
			}
			return token{kind: tokenLitWord, text: text, fl: fl, line: startLine}, nil
		case spColon:
			sc.pos++
			text, fl := sc.prescan()
			if len(text) == 0 || classTable[text[0]].class == classNumber {
				return token{}, sc.syntaxError(core.ErrSyntax, ":"+string(text))
			}
			return token{kind: tokenGetWord, text: text, fl: fl, line: startLine}, nil
		case spPercent:
			return sc.scanFileToken(startLine)
		case spDollar:
			text, fl := sc.prescan()
			return token{kind: tokenMoney, text: text, fl: fl, line: startLine}, nil
		case spBlank:
			if !isWordish(sc.peekAt(1)) {
				sc.pos++
				return token{kind: tokenBlank, line: startLine}, nil
			}
			text, fl := sc.prescan()
			return classifyAlpha(text, fl, startLine, sc)
		case spBar:
			if !isWordish(sc.peekAt(1)) {
				sc.pos++
				return token{kind: tokenBar, line: startLine}, nil
			}
			text, fl := sc.prescan()
			return classifyAlpha(text, fl, startLine, sc)
		case spLesser:
			return sc.scanAngle(startLine)
		case spGreater:
			text, fl := sc.prescan()
			return classifyAlpha(text, fl, startLine, sc)
		case spPlus, spMinus, spPeriod, spComma:
			text, fl := sc.prescan()
			if fl&flagDigit == 0 {
				return classifyAlpha(text, fl, startLine, sc)
			}
			return classifyNumeric(text, fl, startLine, sc)
		default:
			return token{}, sc.syntaxError(core.ErrSyntax, string(b))
		}

	case classNumber:
		text, fl := sc.prescan()
		return classifyNumeric(text, fl, startLine, sc)

	case classWord, classUTF8:
		text, fl := sc.prescan()
		return classifyAlpha(text, fl, startLine, sc)
	}
	return token{}, sc.syntaxError(core.ErrSyntax, string(b))
}

// scanPound handles every token introduced by '#': chars, binaries,
// construct syntax, and issues.
func (sc *scanner) scanPound(startLine int) (token, error) {
	switch sc.peekAt(1) {
	case '"':
		sc.pos += 2
		body, err := sc.scanQuotedBody('"')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokenChar, text: body, line: startLine}, nil
	case '{':
		sc.pos += 2
		return sc.scanBinaryBody(startLine)
	case '[':
		sc.pos += 2
		return token{kind: tokenConstructOpen, line: startLine}, nil
	}
	sc.pos++
	text, fl := sc.prescan()
	if len(text) == 0 {
		return token{}, sc.syntaxError(core.ErrSyntax, "#")
	}
	return token{kind: tokenIssue, text: text, fl: fl, line: startLine}, nil
}

// scanQuotedBody consumes a quote-delimited body with the opening quote
// already consumed. Escapes are skipped, not decoded; newlines inside
// quoted strings are illegal.
func (sc *scanner) scanQuotedBody(closer byte) ([]byte, error) {
	start := sc.pos
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		switch b {
		case closer:
			body := sc.src[start:sc.pos]
			sc.pos++
			return body, nil
		case '\n':
			return nil, sc.syntaxError(core.ErrMissing, string(closer))
		case '^':
			_, next, ok := decodeEscape(sc.src, sc.pos)
			if !ok {
				return nil, sc.syntaxError(core.ErrSyntax, "^")
			}
			sc.pos = next
		default:
			sc.pos++
		}
	}
	return nil, sc.syntaxError(core.ErrMissing, string(closer))
}

// scanBracedBody consumes a brace-delimited body with the opening brace
// not yet consumed. Braces nest; newlines are allowed and counted.
func (sc *scanner) scanBracedBody() ([]byte, error) {
	openLine := sc.line
	sc.pos++ // {
	start := sc.pos
	depth := 1
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		switch b {
		case '{':
			depth++
			sc.pos++
		case '}':
			depth--
			if depth == 0 {
				body := sc.src[start:sc.pos]
				sc.pos++
				return body, nil
			}
			sc.pos++
		case '\n':
			sc.pos++
			sc.bumpLine()
		case '^':
			_, next, ok := decodeEscape(sc.src, sc.pos)
			if !ok {
				return nil, sc.syntaxError(core.ErrSyntax, "^")
			}
			sc.pos = next
		default:
			sc.pos++
		}
	}
	return nil, sc.missingError("}", openLine)
}

// scanBinaryBody consumes the hex body of #{...}. Whitespace and
// newlines are allowed between digits.
func (sc *scanner) scanBinaryBody(startLine int) (token, error) {
	start := sc.pos
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		if b == '}' {
			body := sc.src[start:sc.pos]
			sc.pos++
			return token{kind: tokenBinary, text: body, line: startLine}, nil
		}
		if b == '\n' {
			sc.bumpLine()
		}
		sc.pos++
	}
	return token{}, sc.missingError("}", startLine)
}

// scanFileToken handles %file forms, both bare and quoted, plus the
// bare '%' word.
func (sc *scanner) scanFileToken(startLine int) (token, error) {
	if sc.peekAt(1) == '"' {
		sc.pos += 2
		body, err := sc.scanQuotedBody('"')
		if err != nil {
			return token{}, err
		}
		return token{kind: tokenFile, text: body, line: startLine}, nil
	}
	sc.pos++
	start := sc.pos
	// Bare file names may contain slashes, which delimit everything else.
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		if b == '/' || isWordish(b) {
			sc.pos++
			continue
		}
		break
	}
	if sc.pos == start {
		return token{kind: tokenWord, text: []byte("%"), line: startLine}, nil
	}
	return token{kind: tokenFile, text: sc.src[start:sc.pos], line: startLine}, nil
}

// scanAngle decides between the comparison words and tags.
func (sc *scanner) scanAngle(startLine int) (token, error) {
	// <=, <>, <<, and bare < are words, anything else opens a tag.
	n := sc.peekAt(1)
	if n == '=' || n == '>' || n == '<' {
		text, fl := sc.prescan()
		return token{kind: tokenWord, text: text, fl: fl, line: startLine}, nil
	}
	if !isWordish(n) {
		sc.pos++
		return token{kind: tokenWord, text: []byte("<"), line: startLine}, nil
	}
	sc.pos++
	start := sc.pos
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		if b == '>' {
			body := sc.src[start:sc.pos]
			sc.pos++
			return token{kind: tokenTag, text: body, line: startLine}, nil
		}
		if b == '\n' {
			break
		}
		sc.pos++
	}
	return token{}, sc.missingError(">", startLine)
}
