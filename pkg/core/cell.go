package core

// Flags is the per-cell flag field of the header. The meaning of the high
// bits depends on the kind.
type Flags uint16

const (
	// FlagNewline records that a line break preceded this cell in source.
	FlagNewline Flags = 1 << iota
	// FlagEnfixed marks a function value that takes its first argument
	// from the left. Copies preserve it.
	FlagEnfixed
	// FlagProtected write-locks an individual cell (context keys and
	// variables).
	FlagProtected
	// FlagHidden hides a context key from reflection and binding.
	FlagHidden
	// FlagUnbindable forbids binding through this key.
	FlagUnbindable
	// FlagLookback marks a key whose argument is gathered from the left.
	FlagLookback
	// flagEnd marks the end sentinel pseudo-cell.
	flagEnd
	// FlagRelax marks a scanner-produced error cell in recovery mode.
	FlagRelax
)

// bindKind discriminates the four bind states of a bindable cell.
type bindKind uint8

const (
	bindUnbound bindKind = iota
	bindSpecific
	bindRelative
	bindDirect
)

// Binding locates the home of a bindable cell's value. The zero Binding is
// unbound. A specific binding names a context by its varlist; a relative
// binding names a function by its paramlist and needs a specifier frame to
// resolve; a direct binding points straight at a live frame and is only
// legal for words whose lifetime is bounded by that frame's.
type Binding struct {
	kind      bindKind
	ctx       *Context
	paramlist *Series
	frame     *Frame
}

// UnboundBinding is the zero binding.
var UnboundBinding = Binding{}

// SpecificBinding makes a binding to a context's variables.
func SpecificBinding(c *Context) Binding { return Binding{kind: bindSpecific, ctx: c} }

// RelativeBinding makes a binding to a function's paramlist.
func RelativeBinding(paramlist *Series) Binding {
	return Binding{kind: bindRelative, paramlist: paramlist}
}

// DirectBinding makes a binding straight to a live frame.
func DirectBinding(f *Frame) Binding { return Binding{kind: bindDirect, frame: f} }

// IsUnbound reports whether the binding has no lookup target.
func (b Binding) IsUnbound() bool { return b.kind == bindUnbound }

// IsRelative reports whether the binding needs a specifier to resolve.
func (b Binding) IsRelative() bool { return b.kind == bindRelative }

// Context returns the bound context for a specific binding, or nil.
func (b Binding) Context() *Context {
	if b.kind == bindSpecific {
		return b.ctx
	}
	return nil
}

// Specifier is the caller-supplied resolution context for reading cells
// that may contain relative bindings. The zero Specifier is SPECIFIED: the
// cells being read are already specific.
type Specifier struct {
	frame *Frame
	ctx   *Context
}

// Specified is the specifier for cells known to be specific already.
var Specified = Specifier{}

// FrameSpecifier resolves relative cells against a live frame.
func FrameSpecifier(f *Frame) Specifier { return Specifier{frame: f} }

// ContextSpecifier resolves relative cells against a reified frame context.
func ContextSpecifier(c *Context) Specifier { return Specifier{ctx: c} }

// IsSpecified reports whether the specifier is the SPECIFIED sentinel.
func (sp Specifier) IsSpecified() bool { return sp.frame == nil && sp.ctx == nil }

// Frame returns the specifier's frame, reaching through a frame context.
func (sp Specifier) Frame() *Frame {
	if sp.frame != nil {
		return sp.frame
	}
	if sp.ctx != nil {
		return sp.ctx.varlist.frame
	}
	return nil
}

// Tuple is the inline payload of a tuple cell: up to 11 bytes.
type Tuple struct {
	N int8
	B [11]byte
}

// Cell is the uniform 4-word value slot: a header (kind and flags), an
// optional binding, and a payload. Which payload fields are meaningful
// depends on the kind:
//
//	n        integer, char, logic (0/1), time (nanoseconds), money
//	         (fixed-point amount), date (packed), typeset (kind bitmask)
//	f        decimal, percent
//	ser,idx  any-series position; pair (pairing); any-context (varlist);
//	         function (paramlist)
//	spelling any-word; also the symbol of a typeset key
//	tuple    tuple bytes, inline
type Cell struct {
	kind  Kind
	flags Flags

	binding Binding

	n        int64
	f        float64
	ser      *Series
	idx      int
	spelling *Spelling
	tuple    Tuple
}

// endCell is the process-wide end sentinel. Its header sets the end flag
// but carries no kind; APIs hand out its address so "no value" needs no
// nil checks.
var endCell = Cell{flags: flagEnd}

// End returns the process-wide end sentinel.
func End() *Cell { return &endCell }

// IsEnd reports whether c is the end sentinel (or tail-of-input marker).
func IsEnd(c *Cell) bool { return c == nil || c.flags&flagEnd != 0 }

// Kind returns the cell's datatype tag.
func (c *Cell) Kind() Kind { return c.kind }

// Flags returns the cell's flag byte.
func (c *Cell) Flags() Flags { return c.flags }

// HasFlag reports whether all bits of f are set on the cell.
func (c *Cell) HasFlag(f Flags) bool { return c.flags&f == f }

// SetFlag sets the given flag bits.
func (c *Cell) SetFlag(f Flags) { c.flags |= f }

// ClearFlag clears the given flag bits.
func (c *Cell) ClearFlag(f Flags) { c.flags &^= f }

// Binding returns the cell's binding. Meaningless unless Bindable(kind).
func (c *Cell) Binding() Binding { return c.binding }

// SetBinding overwrites the cell's binding.
func (c *Cell) SetBinding(b Binding) { c.binding = b }

// Payload accessors. Callers are responsible for checking the kind first;
// the accessors do not.

// Int returns the integer payload.
func (c *Cell) Int() int64 { return c.n }

// Dec returns the decimal payload.
func (c *Cell) Dec() float64 { return c.f }

// Char returns the codepoint payload of a char cell.
func (c *Cell) Char() rune { return rune(c.n) }

// Logic returns the truth payload of a logic cell.
func (c *Cell) Logic() bool { return c.n != 0 }

// Series returns the series payload.
func (c *Cell) Series() *Series { return c.ser }

// Index returns the series position payload.
func (c *Cell) Index() int { return c.idx }

// SetIndex updates the series position payload.
func (c *Cell) SetIndex(i int) { c.idx = i }

// Spelling returns the interned spelling of an any-word or typeset cell.
func (c *Cell) Spelling() *Spelling { return c.spelling }

// TupleData returns the inline tuple payload.
func (c *Cell) TupleData() Tuple { return c.tuple }

// Nanoseconds returns the time payload.
func (c *Cell) Nanoseconds() int64 { return c.n }

// Truthy reports the conditional truth of the cell: everything is truthy
// except logic false, blank, and void.
func (c *Cell) Truthy() bool {
	switch c.kind {
	case KindLogic:
		return c.n != 0
	case KindBlank, KindVoid, KindTrash:
		return false
	}
	return true
}

// Initializers. Each resets the whole cell; stale payload fields from a
// previous occupant must not leak through.

// InitTrash makes c an unreadable cell.
func InitTrash(c *Cell) { *c = Cell{kind: KindTrash} }

// InitVoid makes c a void cell.
func InitVoid(c *Cell) { *c = Cell{kind: KindVoid} }

// InitBlank makes c a blank cell.
func InitBlank(c *Cell) { *c = Cell{kind: KindBlank} }

// InitBar makes c an expression barrier.
func InitBar(c *Cell) { *c = Cell{kind: KindBar} }

// InitLitBar makes c a lit-bar.
func InitLitBar(c *Cell) { *c = Cell{kind: KindLitBar} }

// InitLogic makes c a logic cell.
func InitLogic(c *Cell, v bool) {
	*c = Cell{kind: KindLogic}
	if v {
		c.n = 1
	}
}

// InitInteger makes c an integer cell.
func InitInteger(c *Cell, v int64) { *c = Cell{kind: KindInteger, n: v} }

// InitDecimal makes c a decimal cell.
func InitDecimal(c *Cell, v float64) { *c = Cell{kind: KindDecimal, f: v} }

// InitPercent makes c a percent cell; v is the scaled value (1% = 0.01).
func InitPercent(c *Cell, v float64) { *c = Cell{kind: KindPercent, f: v} }

// InitChar makes c a char cell.
func InitChar(c *Cell, r rune) { *c = Cell{kind: KindChar, n: int64(r)} }

// InitWord makes c an unbound word cell of the given kind.
func InitWord(c *Cell, kind Kind, sp *Spelling) {
	*c = Cell{kind: kind, spelling: sp}
}

// InitBoundWord makes c a word cell bound to index i of binding b.
func InitBoundWord(c *Cell, kind Kind, sp *Spelling, b Binding, i int) {
	*c = Cell{kind: kind, spelling: sp, binding: b, idx: i}
}

// InitSeries makes c a series cell of the given kind at position idx.
func InitSeries(c *Cell, kind Kind, s *Series, idx int) {
	*c = Cell{kind: kind, ser: s, idx: idx}
}

// InitString makes c a string cell at the head of s.
func InitString(c *Cell, s *Series) { InitSeries(c, KindString, s, 0) }

// InitBlock makes c a block cell at the head of s.
func InitBlock(c *Cell, s *Series) { InitSeries(c, KindBlock, s, 0) }

// InitTypeset makes c a typeset cell with the given kind bitmask and an
// optional symbol (context keys carry one; the root typeset does not).
func InitTypeset(c *Cell, bits int64, sp *Spelling) {
	*c = Cell{kind: KindTypeset, n: bits, spelling: sp}
}

// InitContext makes c an any-context cell for ctx.
func InitContext(c *Cell, kind Kind, ctx *Context) {
	*c = Cell{kind: kind, ser: ctx.varlist, binding: SpecificBinding(ctx)}
}

// InitFunction makes c a function cell. The binding slot carries the
// "return from" or derived-context identity; the archetype leaves it
// unbound.
func InitFunction(c *Cell, fn *Function, b Binding) {
	*c = Cell{kind: KindFunction, ser: fn.paramlist, binding: b}
}

// Func returns the function a function cell names.
func (c *Cell) Func() *Function { return c.ser.fun }

// Context returns the context an any-context cell names.
func (c *Cell) Context() *Context { return &Context{varlist: c.ser} }

// SameFunction reports whether two cells are the same function: shared
// paramlist and the same binding. Two returns share a paramlist but differ
// by the frame they return from.
func SameFunction(a, b *Cell) bool {
	return a.kind == KindFunction && b.kind == KindFunction &&
		a.ser == b.ser && a.binding == b.binding
}

// MoveValue copies src into dst as a unit: header, binding, payload. The
// enfix flag travels with the value. src must be specific; use
// Derelativize when it may not be.
func MoveValue(dst, src *Cell) {
	newline := dst.flags & FlagNewline
	*dst = *src
	dst.flags = (src.flags &^ FlagNewline) | newline
}

// Derelativize copies src into dst, resolving any relative binding against
// the given specifier. This is the single choke point where relative cells
// become specific; every copy out of an array goes through it.
func Derelativize(dst, src *Cell, sp Specifier) error {
	MoveValue(dst, src)
	if !Bindable(src.kind) {
		return nil
	}
	switch src.binding.kind {
	case bindUnbound:
		dst.binding = UnboundBinding
	case bindRelative:
		f := sp.Frame()
		if f == nil {
			return newError(ErrNoRelative, src.describe())
		}
		if f.Underlying() != src.binding.paramlist {
			return newError(ErrNoRelative, src.describe())
		}
		dst.binding = SpecificBinding(f.Reify())
	case bindSpecific:
		if sp.IsSpecified() {
			return nil
		}
		// The specifier's frame may carry a derived context that
		// overrides the stored binding.
		if f := sp.Frame(); f != nil {
			if over := f.binding.Context(); over != nil &&
				overrides(over, src.binding.ctx) {
				dst.binding = SpecificBinding(over)
			}
		}
	case bindDirect:
		// Already as resolved as it gets; legality is the binder's
		// problem.
	}
	return nil
}

// describe renders a short name for a cell in error arguments.
func (c *Cell) describe() string {
	if c.spelling != nil {
		return c.spelling.Text()
	}
	return c.kind.Name()
}
