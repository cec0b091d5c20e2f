// Package scan implements the lexical scanner: source text in, a tree of
// bound-or-unbound cells out. Scanning is a prescan that fingerprints the
// token's content, a tokenizer that classifies from the fingerprint in
// constant time, and an assembler that builds arrays, recursing for
// nested blocks, paths, and construct syntax.
package scan

// class is the lexical class of one byte.
type class uint8

const (
	// classDelimit bytes end a token: whitespace, brackets, quotes.
	classDelimit class = iota
	// classSpecial bytes are legal inside tokens but pick the token type:
	// their subclass bit lands in the prescan fingerprint.
	classSpecial
	// classWord bytes form words.
	classWord
	// classNumber bytes are ASCII digits.
	classNumber
	// classUTF8 bytes are multi-byte sequence units; whole sequences are
	// treated as word characters.
	classUTF8
	// classIllegal bytes never appear outside strings.
	classIllegal
)

// Delimiter subclasses.
const (
	subSpace = iota
	subLine        // \n
	subReturn      // \r
	subBlockOpen   // [
	subBlockClose  // ]
	subGroupOpen   // (
	subGroupClose  // )
	subQuote       // "
	subBraceOpen   // {
	subBraceClose  // }
	subSemicolon   // ;
	subSlash       // /
	subEnd         // NUL
)

// Special subclasses. Each one owns a bit in the prescan fingerprint.
const (
	spAt = iota // @
	spPercent   // %
	spColon     // :
	spTick      // '
	spLesser    // <
	spGreater   // >
	spPlus      // +
	spMinus     // -
	spBlank     // _
	spPound     // #
	spDollar    // $
	spPeriod    // .
	spComma     // ,
	spBar       // |
	spCaret     // ^
	spBackslash // \

	numSpecials
)

// flags is the prescan fingerprint: one bit per special subclass seen,
// plus markers for word bytes and digits.
type flags uint32

const (
	flagWord  flags = 1 << 28
	flagDigit flags = 1 << 29
	flagUTF8  flags = 1 << 30
)

func specialFlag(sub uint8) flags { return 1 << sub }

// entry packs a byte's (class, subvalue) pair.
type entry struct {
	class class
	sub   uint8
}

// classTable maps each of the 256 byte values to its lexical entry,
// driving every downstream decision in O(1) per byte.
var classTable = buildClassTable()

func buildClassTable() [256]entry {
	var t [256]entry
	for i := range t {
		t[i] = entry{classIllegal, 0}
	}
	set := func(b byte, c class, sub uint8) { t[b] = entry{c, sub} }

	set(0, classDelimit, subEnd)
	set(' ', classDelimit, subSpace)
	set('\t', classDelimit, subSpace)
	set('\n', classDelimit, subLine)
	set('\r', classDelimit, subReturn)
	set('[', classDelimit, subBlockOpen)
	set(']', classDelimit, subBlockClose)
	set('(', classDelimit, subGroupOpen)
	set(')', classDelimit, subGroupClose)
	set('"', classDelimit, subQuote)
	set('{', classDelimit, subBraceOpen)
	set('}', classDelimit, subBraceClose)
	set(';', classDelimit, subSemicolon)
	set('/', classDelimit, subSlash)

	set('@', classSpecial, spAt)
	set('%', classSpecial, spPercent)
	set(':', classSpecial, spColon)
	set('\'', classSpecial, spTick)
	set('<', classSpecial, spLesser)
	set('>', classSpecial, spGreater)
	set('+', classSpecial, spPlus)
	set('-', classSpecial, spMinus)
	set('_', classSpecial, spBlank)
	set('#', classSpecial, spPound)
	set('$', classSpecial, spDollar)
	set('.', classSpecial, spPeriod)
	set(',', classSpecial, spComma)
	set('|', classSpecial, spBar)
	set('^', classSpecial, spCaret)
	set('\\', classSpecial, spBackslash)

	for b := byte('0'); b <= '9'; b++ {
		set(b, classNumber, b-'0')
	}
	for b := byte('a'); b <= 'z'; b++ {
		set(b, classWord, 0)
	}
	for b := byte('A'); b <= 'Z'; b++ {
		set(b, classWord, 0)
	}
	for _, b := range []byte{'!', '&', '*', '=', '?', '~', '`'} {
		set(b, classWord, 0)
	}
	for i := 0x80; i <= 0xff; i++ {
		t[i] = entry{classUTF8, 0}
	}
	return t
}

// isWordish reports whether a byte can continue a word token.
func isWordish(b byte) bool {
	switch classTable[b].class {
	case classWord, classNumber, classUTF8:
		return true
	case classSpecial:
		// Slash and colon terminate words; the other specials embed.
		switch classTable[b].sub {
		case spTick, spComma:
			return false
		}
		return true
	}
	return false
}
