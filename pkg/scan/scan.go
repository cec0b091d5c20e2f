package scan

import (
	"bytes"
	"strings"

	"github.com/lore-lang/lore/pkg/core"
)

// scanner carries the state of one scan: the full source, the cursor,
// and line bookkeeping for error reporting and array stamping.
type scanner struct {
	src      []byte
	pos      int
	line     int
	lineHead int
	file     *core.Spelling
	relax    bool

	// newlinePending is set when a newline was seen since the last
	// value; the next value gets the newline marker.
	newlinePending bool
}

func newScanner(src []byte, file string, line int) (*scanner, error) {
	sc := &scanner{src: src, line: line}
	if line <= 0 {
		sc.line = 1
	}
	if file != "" {
		sc.file = core.Intern(file)
	}
	if err := sc.skipBOM(); err != nil {
		return nil, err
	}
	return sc, nil
}

// skipBOM consumes a UTF-8 byte order mark and rejects UTF-16 ones,
// which mark a source encoding the scanner does not read.
func (sc *scanner) skipBOM() error {
	if bytes.HasPrefix(sc.src, []byte{0xef, 0xbb, 0xbf}) {
		sc.pos = 3
		sc.lineHead = 3
		return nil
	}
	if bytes.HasPrefix(sc.src, []byte{0xff, 0xfe}) || bytes.HasPrefix(sc.src, []byte{0xfe, 0xff}) {
		return sc.syntaxError(core.ErrSyntax, "UTF-16 byte order mark")
	}
	return nil
}

func (sc *scanner) fileName() string {
	if sc.file == nil {
		return ""
	}
	return sc.file.Text()
}

// nearText is the source line under the cursor, trimmed for display.
func (sc *scanner) nearText() string {
	end := sc.lineHead
	for end < len(sc.src) && sc.src[end] != '\n' {
		end++
	}
	text := strings.TrimSpace(string(sc.src[sc.lineHead:end]))
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	return text
}

func (sc *scanner) syntaxError(kind core.ErrKind, arg string, more ...string) error {
	args := append([]string{arg}, more...)
	return core.NewError(kind, args...).At(sc.fileName(), sc.line, sc.nearText())
}

// missingError reports an unclosed opener at the line the opener
// appeared on, not the line the scan ran out.
func (sc *scanner) missingError(closer string, openLine int) error {
	return core.NewError(core.ErrMissing, closer).At(sc.fileName(), openLine, sc.nearText())
}

// scanArray assembles one array. closer is ']' or ')' for nested
// arrays and 0 at top level; openLine is the line of the opener.
// A partially built array is released when its scan fails.
func (sc *scanner) scanArray(closer byte, openLine int) (arr *core.Series, err error) {
	arr = core.MakeArray(4)
	arr.SetSource(sc.file, openLine)
	built := arr
	defer func() {
		if err != nil {
			core.FreeArrayDeep(built)
			arr = nil
		}
	}()
	for {
		before := sc.pos
		tok, err := sc.next()
		if err == nil {
			switch tok.kind {
			case tokenEOF:
				if closer != 0 {
					return nil, sc.missingError(string(closer), openLine)
				}
				return arr, nil
			case tokenNewline:
				sc.newlinePending = true
				continue
			case tokenBlockClose:
				switch closer {
				case ']':
					return arr, nil
				case ')':
					return nil, sc.syntaxError(core.ErrMismatch, "(", "]")
				default:
					return nil, sc.syntaxError(core.ErrExtra, "]")
				}
			case tokenGroupClose:
				switch closer {
				case ')':
					return arr, nil
				case ']':
					return nil, sc.syntaxError(core.ErrMismatch, "[", ")")
				default:
					return nil, sc.syntaxError(core.ErrExtra, ")")
				}
			}
			var v core.Cell
			err = sc.tokenValue(&v, tok)
			if err == nil {
				if sc.newlinePending {
					v.SetFlag(core.FlagNewline)
					sc.newlinePending = false
				}
				if appendErr := arr.Append(v); appendErr != nil {
					return nil, appendErr
				}
				continue
			}
		}
		// Error path: in relax mode most token errors become inline
		// error values so the rest of the source still scans.
		coreErr, isCore := err.(*core.Error)
		if !sc.relax || !isCore ||
			(coreErr.Kind != core.ErrSyntax && coreErr.Kind != core.ErrMalconstruct) {
			return nil, err
		}
		var ev core.Cell
		core.ErrorValue(&ev, coreErr)
		if sc.newlinePending {
			ev.SetFlag(core.FlagNewline)
			sc.newlinePending = false
		}
		if appendErr := arr.Append(ev); appendErr != nil {
			return nil, appendErr
		}
		sc.resync(before)
	}
}

// resync skips past the offending token so relax mode makes progress.
func (sc *scanner) resync(before int) {
	if sc.pos == before {
		sc.pos++
	}
	for sc.pos < len(sc.src) {
		b := sc.src[sc.pos]
		if classTable[b].class == classDelimit && classTable[b].sub != subSlash {
			return
		}
		sc.pos++
	}
}

// tokenValue converts one located token into a cell, recursing for
// nested arrays, paths, and constructs.
func (sc *scanner) tokenValue(out *core.Cell, tok token) error {
	switch tok.kind {
	case tokenBlockOpen:
		sub, err := sc.scanArray(']', tok.line)
		if err != nil {
			return err
		}
		core.InitSeries(out, core.KindBlock, sub, 0)
		return nil
	case tokenGroupOpen:
		sub, err := sc.scanArray(')', tok.line)
		if err != nil {
			return err
		}
		core.InitSeries(out, core.KindGroup, sub, 0)
		return nil
	case tokenConstructOpen:
		return sc.scanConstruct(out, tok.line)
	case tokenSlash:
		return sc.slashValue(out, tok)

	case tokenWord:
		core.InitWord(out, core.KindWord, core.Intern(string(tok.text)))
		return sc.maybePath(out, core.KindPath, tok.line)
	case tokenSetWord:
		core.InitWord(out, core.KindSetWord, core.Intern(string(tok.text)))
		return nil
	case tokenGetWord:
		core.InitWord(out, core.KindWord, core.Intern(string(tok.text)))
		if sc.peek() == '/' {
			return sc.maybePath(out, core.KindGetPath, tok.line)
		}
		core.InitWord(out, core.KindGetWord, core.Intern(string(tok.text)))
		return nil
	case tokenLitWord:
		core.InitWord(out, core.KindWord, core.Intern(string(tok.text)))
		if sc.peek() == '/' {
			return sc.maybePath(out, core.KindLitPath, tok.line)
		}
		core.InitWord(out, core.KindLitWord, core.Intern(string(tok.text)))
		return nil
	case tokenIssue:
		core.InitWord(out, core.KindIssue, core.Intern(string(tok.text)))
		return nil
	case tokenBlank:
		core.InitBlank(out)
		return nil
	case tokenBar:
		core.InitBar(out)
		return nil
	case tokenLitBar:
		core.InitLitBar(out)
		return nil

	case tokenInteger:
		n, ok := parseInteger(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitInteger(out, n)
		return sc.maybePath(out, core.KindPath, tok.line)
	case tokenDecimal:
		f, ok := parseDecimal(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitDecimal(out, f)
		return nil
	case tokenPercent:
		f, ok := parsePercent(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitPercent(out, f)
		return nil
	case tokenMoney:
		amount, ok := parseMoney(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitMoney(out, amount)
		return nil
	case tokenChar:
		r, ok := parseChar(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, "#\""+string(tok.text)+"\"")
		}
		core.InitChar(out, r)
		return nil
	case tokenPair:
		x, y, ok := parsePair(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitPair(out, x, y)
		return nil
	case tokenTuple:
		bs, ok := parseTuple(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		return core.InitTuple(out, bs)
	case tokenTime:
		neg, h, m, s, ok := parseTime(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitTimeParts(out, neg, h, m, s)
		return nil
	case tokenDate:
		y, mo, d, ok := parseDate(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitDate(out, y, mo, d)
		return nil

	case tokenString:
		s, ok := decodeString(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitString(out, s)
		return nil
	case tokenBinary:
		bs, ok := parseBinary(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, "#{"+string(tok.text)+"}")
		}
		bin := core.MakeSeries(len(bs), core.ClassBytes, 0)
		bin.SetBytes(bs)
		core.InitSeries(out, core.KindBinary, bin, 0)
		return nil
	case tokenFile:
		s, ok := decodeString(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, "%"+string(tok.text))
		}
		core.InitSeries(out, core.KindFile, s, 0)
		return nil
	case tokenEmail:
		s, ok := decodeString(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitSeries(out, core.KindEmail, s, 0)
		return nil
	case tokenURL:
		s, ok := decodeString(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, string(tok.text))
		}
		core.InitSeries(out, core.KindURL, s, 0)
		return nil
	case tokenTag:
		s, ok := decodeString(tok.text)
		if !ok {
			return sc.syntaxError(core.ErrSyntax, "<"+string(tok.text)+">")
		}
		core.InitSeries(out, core.KindTag, s, 0)
		return nil
	}
	return sc.syntaxError(core.ErrSyntax, string(tok.text))
}

// slashValue handles a '/' in value position: a refinement when a word
// follows without space, the division word otherwise.
func (sc *scanner) slashValue(out *core.Cell, tok token) error {
	b := sc.peek()
	if isWordish(b) && classTable[b].class != classNumber {
		text, _ := sc.prescan()
		core.InitWord(out, core.KindRefinement, core.Intern(string(text)))
		return nil
	}
	core.InitWord(out, core.KindWord, core.Intern("/"))
	return nil
}

// maybePath continues a head value into a path when a '/' is adjacent.
func (sc *scanner) maybePath(head *core.Cell, kind core.Kind, line int) error {
	if sc.peek() != '/' {
		return nil
	}
	arr := core.MakeArray(2)
	arr.SetSource(sc.file, line)
	if err := arr.Append(*head); err != nil {
		return err
	}
	for sc.peek() == '/' {
		sc.pos++
		var seg core.Cell
		terminal, err := sc.scanPathSegment(&seg, &kind)
		if err != nil {
			return err
		}
		if err := arr.Append(seg); err != nil {
			return err
		}
		if terminal {
			break
		}
	}
	core.InitSeries(head, kind, arr, 0)
	return nil
}

// scanPathSegment scans one segment after a '/'. A set-word segment
// turns the whole path into a set-path and ends it.
func (sc *scanner) scanPathSegment(out *core.Cell, kind *core.Kind) (terminal bool, err error) {
	b := sc.peek()
	switch {
	case b == '/' || b == 0 || classTable[b].class == classDelimit && classTable[b].sub != subGroupOpen:
		// Empty slot, as in a//b or a trailing a/.
		core.InitBlank(out)
		return false, nil
	case b == '(':
		sc.pos++
		sub, err := sc.scanArray(')', sc.line)
		if err != nil {
			return false, err
		}
		core.InitSeries(out, core.KindGroup, sub, 0)
		return false, nil
	case classTable[b].class == classNumber:
		text, fl := sc.prescan()
		tok, err := classifyNumeric(text, fl, sc.line, sc)
		if err != nil {
			return false, err
		}
		if tok.kind != tokenInteger {
			return false, sc.syntaxError(core.ErrSyntax, string(text))
		}
		n, ok := parseInteger(tok.text)
		if !ok {
			return false, sc.syntaxError(core.ErrSyntax, string(text))
		}
		core.InitInteger(out, n)
		return false, nil
	default:
		text, fl := sc.prescan()
		tok, err := classifyAlpha(text, fl, sc.line, sc)
		if err != nil {
			return false, err
		}
		switch tok.kind {
		case tokenWord:
			core.InitWord(out, core.KindWord, core.Intern(string(tok.text)))
			return false, nil
		case tokenSetWord:
			if *kind != core.KindPath {
				return false, sc.syntaxError(core.ErrSyntax, string(text))
			}
			core.InitWord(out, core.KindWord, core.Intern(string(tok.text)))
			*kind = core.KindSetPath
			return true, nil
		}
		return false, sc.syntaxError(core.ErrSyntax, string(text))
	}
}

// scanConstruct scans the #[...] construct syntax. The inner array is
// guarded from recycling and shallow-bound into lib before the
// constructor dispatch reads it.
func (sc *scanner) scanConstruct(out *core.Cell, openLine int) error {
	arr, err := sc.scanArray(']', openLine)
	if err != nil {
		return err
	}
	release := core.GuardSeries(arr)
	defer release()
	if err := core.Bind(arr, core.Lib(), false, false); err != nil {
		return err
	}
	if err := sc.buildConstruct(out, arr); err != nil {
		return err
	}
	return nil
}

func (sc *scanner) buildConstruct(out *core.Cell, arr *core.Series) error {
	malformed := func() error {
		var block core.Cell
		core.InitBlock(&block, arr)
		return sc.syntaxError(core.ErrMalconstruct, "#["+core.Mold(&block)[1:])
	}
	if arr.Len() == 0 {
		return malformed()
	}
	head := arr.At(0)
	if head.Kind() != core.KindWord {
		return malformed()
	}
	name := head.Spelling().Canon().Text()
	if arr.Len() == 1 {
		switch name {
		case "true", "on", "yes":
			core.InitLogic(out, true)
			return nil
		case "false", "off", "no":
			core.InitLogic(out, false)
			return nil
		case "none":
			core.InitBlank(out)
			return nil
		case "unset":
			core.InitVoid(out)
			return nil
		}
		return malformed()
	}
	if !strings.HasSuffix(name, "!") || arr.Len() != 2 {
		return malformed()
	}
	arg := arr.At(1)
	switch name[:len(name)-1] {
	case "logic":
		switch {
		case arg.Kind() == core.KindInteger:
			core.InitLogic(out, arg.Int() != 0)
			return nil
		case arg.Kind() == core.KindWord && arg.Spelling().Canon().Text() == "true":
			core.InitLogic(out, true)
			return nil
		case arg.Kind() == core.KindWord && arg.Spelling().Canon().Text() == "false":
			core.InitLogic(out, false)
			return nil
		}
		return malformed()
	case "bitset":
		if err := core.MakeBitsetValue(out, arg); err != nil {
			return malformed()
		}
		return nil
	case "block":
		if arg.Kind() != core.KindBlock {
			return malformed()
		}
		*out = *arg
		return nil
	}
	return malformed()
}

func init() {
	// The load native reaches the scanner through this hook.
	core.ScanSource = Scan
}

// Load scans a whole source and binds it for top-level evaluation:
// shallowly into lib, then into the user context with new set-words
// collected there.
func Load(src []byte, file string) (*core.Series, error) {
	arr, err := Scan(src, file)
	if err != nil {
		return nil, err
	}
	if err := core.BindUser(arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// Scan reads a whole source into one array, stamping it with the file
// name and managing the result for recycling.
func Scan(src []byte, file string) (*core.Series, error) {
	sc, err := newScanner(src, file, 1)
	if err != nil {
		return nil, err
	}
	arr, err := sc.scanArray(0, 1)
	if err != nil {
		return nil, err
	}
	core.ManageArrayDeep(arr)
	return arr, nil
}

// ScanRelax reads a whole source, converting recoverable token errors
// into inline error values so one bad token does not hide the rest.
// The collected errors come back alongside the array.
func ScanRelax(src []byte, file string) (*core.Series, []*core.Error) {
	sc, err := newScanner(src, file, 1)
	if err != nil {
		coreErr, ok := err.(*core.Error)
		if !ok {
			coreErr = core.NewError(core.ErrSyntax, err.Error())
		}
		return core.MakeArray(0), []*core.Error{coreErr}
	}
	sc.relax = true
	arr, err := sc.scanArray(0, 1)
	var errs []*core.Error
	if err != nil {
		coreErr, ok := err.(*core.Error)
		if !ok {
			coreErr = core.NewError(core.ErrSyntax, err.Error())
		}
		errs = append(errs, coreErr)
		if arr == nil {
			arr = core.MakeArray(0)
		}
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.At(i).Kind() == core.KindError {
			errs = append(errs, errorOfValue(arr.At(i)))
		}
	}
	core.ManageArrayDeep(arr)
	return arr, errs
}

// errorOfValue rebuilds a Go-side error from an inline error value.
func errorOfValue(v *core.Cell) *core.Error {
	ctx := v.Context()
	e := &core.Error{Kind: core.ErrSyntax}
	if i := ctx.Find(core.Intern("id")); i > 0 {
		if w := ctx.Var(i); w.Kind() == core.KindWord {
			e.Kind = core.ErrKind(w.Spelling().Text())
		}
	}
	if i := ctx.Find(core.Intern("near")); i > 0 {
		if s := ctx.Var(i); s.Kind() == core.KindString {
			e.Near = string(s.Series().Runes())
		}
	}
	if i := ctx.Find(core.Intern("line")); i > 0 {
		if n := ctx.Var(i); n.Kind() == core.KindInteger {
			e.Line = int(n.Int())
		}
	}
	return e
}

// Transcode scans the next value from src and returns it in a fresh
// one-element array along with the unscanned remainder. An empty
// result array means src held only whitespace and comments.
func Transcode(src []byte, file string, line int) (*core.Series, []byte, error) {
	sc, err := newScanner(src, file, line)
	if err != nil {
		return nil, src, err
	}
	arr := core.MakeArray(1)
	arr.SetSource(sc.file, sc.line)
	for {
		tok, err := sc.next()
		if err != nil {
			return nil, src[sc.pos:], err
		}
		switch tok.kind {
		case tokenEOF:
			core.ManageArrayDeep(arr)
			return arr, nil, nil
		case tokenNewline:
			continue
		case tokenBlockClose, tokenGroupClose:
			return nil, src[sc.pos:], sc.syntaxError(core.ErrExtra, closerText(tok.kind))
		}
		var v core.Cell
		if err := sc.tokenValue(&v, tok); err != nil {
			return nil, src[sc.pos:], err
		}
		if appendErr := arr.Append(v); appendErr != nil {
			return nil, src[sc.pos:], appendErr
		}
		core.ManageArrayDeep(arr)
		return arr, src[sc.pos:], nil
	}
}

func closerText(kind tokenKind) string {
	if kind == tokenGroupClose {
		return ")"
	}
	return "]"
}
