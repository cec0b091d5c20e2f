package core

import "fmt"

// SeriesFlags is the header bit field of a series node.
type SeriesFlags uint16

const (
	// seriesManaged means the collector owns the node's lifetime.
	seriesManaged SeriesFlags = 1 << iota
	// seriesMarked is the collector's reachability bit, only meaningful
	// during a Recycle.
	seriesMarked
	// seriesFree marks a swept node. Touching a free node is a bug.
	seriesFree
	// SeriesProtected is a toggleable write lock.
	SeriesProtected
	// SeriesFrozen is a permanent write lock.
	SeriesFrozen
	// SeriesHold is a stack-scoped lock set by iteration and cleared on
	// unwind.
	SeriesHold
	// SeriesFixedSize forbids reallocation, guaranteeing pointer stability
	// for callers that cache element addresses.
	SeriesFixedSize
	// seriesBlack is the user-visible coloring bit; its meaning is relative
	// to the process-wide polarity (see Blacken/IsBlack).
	seriesBlack
	// seriesSharedKeylist marks a keylist used by more than one context.
	// Expansion must copy it first.
	seriesSharedKeylist
	// seriesNegatedBitset marks a bitset binary whose membership sense is
	// inverted.
	seriesNegatedBitset
	// seriesInaccessible marks a frame varlist whose stack storage is gone.
	seriesInaccessible
	// seriesParamlist marks the keylist of a function frame. Paramlists are
	// excluded from the derived-context ancestor walk.
	seriesParamlist
)

// Layout tells which of the three storage shapes a series node uses.
type Layout uint8

const (
	// LayoutDynamic stores elements in a separately allocated buffer.
	LayoutDynamic Layout = iota
	// LayoutSingular embeds a single cell in the node itself.
	LayoutSingular
	// LayoutPairing is two adjacent cells with no independent header; the
	// handed-out reference is the second cell, the key is the first.
	LayoutPairing
)

// Class tells what a series node's elements are.
type Class uint8

const (
	// ClassArray elements are cells.
	ClassArray Class = iota
	// ClassBytes elements are bytes (binaries, bitsets).
	ClassBytes
	// ClassRunes elements are codepoints (strings, files, urls, tags).
	ClassRunes
)

// Series is the one node type underlying every aggregate in the system:
// arrays, strings, binaries, bitsets, context varlists and keylists,
// function paramlists and bodies. A series is identified by its address.
type Series struct {
	flags  SeriesFlags
	layout Layout
	class  Class

	// Content. Exactly one of cells/bytes/runes is in use, per class.
	// bias is the number of elements dropped from the front without
	// moving the buffer.
	cells []Cell
	bytes []byte
	runes []rune
	bias  int

	// The link/misc slots. Which fields are meaningful depends on what
	// the series is used for.
	keylist  *Series   // varlist: the context's keylist
	frame    *Frame    // varlist: the live frame, while on the stack
	ancestor *Series   // keylist: parent keylist; self when underived
	file     *Spelling // array built by the scanner: source file name
	line     int       // array built by the scanner: source line
	fun      *Function // paramlist: the function it describes
}

// polarity is the process-wide sense of the black coloring bit. Flipping it
// clears every series' color in O(1).
var polarity bool

// MakeSeries allocates an unmanaged dynamic series of the given class with
// room for capacity elements.
func MakeSeries(capacity int, class Class, flags SeriesFlags) *Series {
	s := allocSeries()
	s.flags = flags
	s.layout = LayoutDynamic
	s.class = class
	switch class {
	case ClassArray:
		s.cells = make([]Cell, 0, capacity)
	case ClassBytes:
		s.bytes = make([]byte, 0, capacity)
	case ClassRunes:
		s.runes = make([]rune, 0, capacity)
	}
	return s
}

// MakeArray allocates an unmanaged dynamic array.
func MakeArray(capacity int) *Series { return MakeSeries(capacity, ClassArray, 0) }

// MakeSingular allocates a singular-layout array holding exactly the given
// cell. Its capacity can never grow past one without relayout.
func MakeSingular(v Cell) *Series {
	s := allocSeries()
	s.layout = LayoutSingular
	s.class = ClassArray
	s.cells = make([]Cell, 1, 1)
	s.cells[0] = v
	return s
}

// MakePairing allocates a pairing: two adjacent cells. The first cell is the
// key, the second the value handed out to callers.
func MakePairing(key, val Cell) *Series {
	s := allocSeries()
	s.layout = LayoutPairing
	s.class = ClassArray
	s.cells = []Cell{key, val}
	return s
}

// Len returns the number of live elements.
func (s *Series) Len() int {
	s.check()
	switch s.class {
	case ClassArray:
		return len(s.cells)
	case ClassBytes:
		return len(s.bytes)
	default:
		return len(s.runes)
	}
}

// Cap returns the element capacity, net of bias.
func (s *Series) Cap() int {
	switch s.class {
	case ClassArray:
		return cap(s.cells) - s.bias
	case ClassBytes:
		return cap(s.bytes) - s.bias
	default:
		return cap(s.runes) - s.bias
	}
}

// Bias returns the number of elements dropped from the buffer head.
func (s *Series) Bias() int { return s.bias }

// Layout returns the storage shape of the node.
func (s *Series) Layout() Layout { return s.layout }

// Class returns the element class of the node.
func (s *Series) Class() Class { return s.class }

// At returns the cell at index i of an array series.
func (s *Series) At(i int) *Cell {
	s.check()
	return &s.cells[i]
}

// Head returns the cell slice of an array series.
func (s *Series) Head() []Cell {
	s.check()
	return s.cells
}

// Bytes returns the byte content of a bytes series.
func (s *Series) Bytes() []byte {
	s.check()
	return s.bytes
}

// Runes returns the rune content of a runes series.
func (s *Series) Runes() []rune {
	s.check()
	return s.runes
}

// SetRunes replaces the content of a runes series.
func (s *Series) SetRunes(rs []rune) {
	s.check()
	s.runes = rs
}

// SetBytes replaces the content of a bytes series.
func (s *Series) SetBytes(bs []byte) {
	s.check()
	s.bytes = bs
}

func (s *Series) check() {
	if s.flags&seriesFree != 0 {
		panic("core: use of freed series")
	}
}

// writable returns nil if s accepts writes, or the error forbidding them.
func (s *Series) writable() error {
	if s.flags&(SeriesFrozen|SeriesProtected|SeriesHold) != 0 {
		return newError(ErrReadOnly)
	}
	return nil
}

// Append adds cells at the tail of an array series, expanding as needed.
func (s *Series) Append(vs ...Cell) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.ensure(len(vs)); err != nil {
		return err
	}
	s.cells = append(s.cells, vs...)
	return nil
}

// AppendBytes adds bytes at the tail of a bytes series.
func (s *Series) AppendBytes(bs ...byte) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.bytes = append(s.bytes, bs...)
	return nil
}

// ensure grows capacity for delta more elements, honoring SeriesFixedSize
// and converting singular layouts to dynamic on first growth.
func (s *Series) ensure(delta int) error {
	if s.Len()+delta <= s.Cap() {
		return nil
	}
	if s.flags&SeriesFixedSize != 0 {
		return newError(ErrReadOnly)
	}
	// Doubling policy; relayout singular to dynamic.
	newCap := s.Cap() * 2
	if newCap < s.Len()+delta {
		newCap = s.Len() + delta
	}
	if newCap < 8 {
		newCap = 8
	}
	switch s.class {
	case ClassArray:
		buf := make([]Cell, len(s.cells), newCap)
		copy(buf, s.cells)
		s.cells = buf
	case ClassBytes:
		buf := make([]byte, len(s.bytes), newCap)
		copy(buf, s.bytes)
		s.bytes = buf
	case ClassRunes:
		buf := make([]rune, len(s.runes), newCap)
		copy(buf, s.runes)
		s.runes = buf
	}
	s.layout = LayoutDynamic
	s.bias = 0
	return nil
}

// ExpandSeries opens a gap of delta elements at index at, shifting the tail
// up. New elements are trash cells (or zero bytes/runes).
func ExpandSeries(s *Series, at, delta int) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.ensure(delta); err != nil {
		return err
	}
	switch s.class {
	case ClassArray:
		s.cells = append(s.cells, make([]Cell, delta)...)
		copy(s.cells[at+delta:], s.cells[at:])
		for i := at; i < at+delta; i++ {
			s.cells[i] = Cell{}
		}
	case ClassBytes:
		s.bytes = append(s.bytes, make([]byte, delta)...)
		copy(s.bytes[at+delta:], s.bytes[at:])
		for i := at; i < at+delta; i++ {
			s.bytes[i] = 0
		}
	case ClassRunes:
		s.runes = append(s.runes, make([]rune, delta)...)
		copy(s.runes[at+delta:], s.runes[at:])
		for i := at; i < at+delta; i++ {
			s.runes[i] = 0
		}
	}
	return nil
}

// ExtendSeries grows the series by delta elements at the tail.
func ExtendSeries(s *Series, delta int) error {
	return ExpandSeries(s, s.Len(), delta)
}

// RemoveSeries deletes count elements starting at index at.
func RemoveSeries(s *Series, at, count int) error {
	if err := s.writable(); err != nil {
		return err
	}
	switch s.class {
	case ClassArray:
		s.cells = append(s.cells[:at], s.cells[at+count:]...)
	case ClassBytes:
		s.bytes = append(s.bytes[:at], s.bytes[at+count:]...)
	case ClassRunes:
		s.runes = append(s.runes[:at], s.runes[at+count:]...)
	}
	return nil
}

// Protect sets or clears the toggleable write lock.
func (s *Series) Protect(on bool) {
	if on {
		s.flags |= SeriesProtected
	} else {
		s.flags &^= SeriesProtected
	}
}

// Freeze permanently locks the series. There is no thaw.
func (s *Series) Freeze() { s.flags |= SeriesFrozen }

// Frozen reports whether the series is permanently locked.
func (s *Series) Frozen() bool { return s.flags&SeriesFrozen != 0 }

// Protected reports whether writes are currently forbidden.
func (s *Series) Protected() bool {
	return s.flags&(SeriesProtected|SeriesFrozen|SeriesHold) != 0
}

// Hold sets the stack-scoped lock; the returned func releases it and is
// meant for defer.
func (s *Series) Hold() func() {
	had := s.flags&SeriesHold != 0
	s.flags |= SeriesHold
	return func() {
		if !had {
			s.flags &^= SeriesHold
		}
	}
}

// Blacken colors the series black under the current polarity.
func (s *Series) Blacken() {
	if polarity {
		s.flags &^= seriesBlack
	} else {
		s.flags |= seriesBlack
	}
}

// Unblacken colors the series white under the current polarity.
func (s *Series) Unblacken() {
	if polarity {
		s.flags |= seriesBlack
	} else {
		s.flags &^= seriesBlack
	}
}

// IsBlack reports the series' color under the current polarity.
func (s *Series) IsBlack() bool {
	return (s.flags&seriesBlack != 0) != polarity
}

// FlipColoring turns every black series white in O(1) by inverting the
// process-wide polarity. Callers must only flip when all series are the
// same color, which walkers guarantee by un-blackening on the way out or by
// flipping immediately after a full walk.
func FlipColoring() { polarity = !polarity }

// SharedKeylist reports whether the keylist is shared between contexts.
func (s *Series) SharedKeylist() bool { return s.flags&seriesSharedKeylist != 0 }

// Inaccessible reports whether a frame varlist's storage has gone away.
func (s *Series) Inaccessible() bool { return s.flags&seriesInaccessible != 0 }

// SetSource stamps an array with the file and line the scanner built it
// from, for error reporting.
func (s *Series) SetSource(file *Spelling, line int) {
	s.file = file
	s.line = line
}

// SourceFile returns the file an array was scanned from, or nil.
func (s *Series) SourceFile() *Spelling { return s.file }

// SourceLine returns the line an array was scanned from, or zero.
func (s *Series) SourceLine() int { return s.line }

func (s *Series) String() string {
	return fmt.Sprintf("series(%p len=%d)", s, s.Len())
}
