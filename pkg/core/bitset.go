package core

// A bitset is a binary series holding one bit per codepoint, plus a
// negation flag on the series: a negated bitset reports membership for
// everything its bits do not contain.

// InitBitset makes c a bitset cell over the given bytes series.
func InitBitset(c *Cell, s *Series) { *c = Cell{kind: KindBitset, ser: s} }

// MakeBitset allocates a bitset sized for codepoints up to top.
func MakeBitset(top rune) *Series {
	return MakeSeries(int(top)/8+1, ClassBytes, 0)
}

// Negated reports the membership sense of the bitset.
func (s *Series) Negated() bool { return s.flags&seriesNegatedBitset != 0 }

// BitsetSet writes bit r of the bitset.
func BitsetSet(s *Series, r rune, on bool) error {
	if err := s.writable(); err != nil {
		return err
	}
	i := int(r)
	byteAt := i / 8
	for len(s.bytes) <= byteAt {
		s.bytes = append(s.bytes, 0)
	}
	mask := byte(1) << (7 - i%8)
	if on {
		s.bytes[byteAt] |= mask
	} else {
		s.bytes[byteAt] &^= mask
	}
	return nil
}

// BitsetSetRange writes the inclusive range [lo, hi].
func BitsetSetRange(s *Series, lo, hi rune, on bool) error {
	for r := lo; r <= hi; r++ {
		if err := BitsetSet(s, r, on); err != nil {
			return err
		}
	}
	return nil
}

// bitRaw reads bit r without the negation sense.
func bitRaw(s *Series, r rune) bool {
	i := int(r)
	byteAt := i / 8
	if byteAt >= len(s.bytes) {
		return false
	}
	return s.bytes[byteAt]&(byte(1)<<(7-i%8)) != 0
}

// BitsetTest reports membership of r, honoring negation.
func BitsetTest(s *Series, r rune) bool {
	return bitRaw(s, r) != s.Negated()
}

// BitsetComplement copies the bitset and toggles its negation flag.
func BitsetComplement(s *Series) *Series {
	out := MakeSeries(len(s.bytes), ClassBytes, 0)
	out.bytes = append(out.bytes, s.bytes...)
	out.flags |= s.flags & seriesNegatedBitset
	out.flags ^= seriesNegatedBitset
	return out
}

// bitsetPickCell implements PICK: true/false membership.
func bitsetPickCell(out, v *Cell, sel *Cell) error {
	r, err := bitsetKey(sel)
	if err != nil {
		return err
	}
	InitLogic(out, BitsetTest(v.ser, r))
	return nil
}

// bitsetPokeCell implements POKE: set or clear membership with a logic.
func bitsetPokeCell(v *Cell, sel *Cell, val *Cell) error {
	r, err := bitsetKey(sel)
	if err != nil {
		return err
	}
	if val.kind != KindLogic {
		return newError(ErrInvalidArg, val.kind.Name())
	}
	on := val.Logic()
	if v.ser.Negated() {
		on = !on
	}
	return BitsetSet(v.ser, r, on)
}

// BitsetFind implements FIND: the found char, or blank when absent.
func BitsetFind(out, v *Cell, sel *Cell) error {
	r, err := bitsetKey(sel)
	if err != nil {
		return err
	}
	if BitsetTest(v.ser, r) {
		InitLogic(out, true)
	} else {
		InitBlank(out)
	}
	return nil
}

func bitsetKey(sel *Cell) (rune, error) {
	switch sel.kind {
	case KindChar:
		return rune(sel.n), nil
	case KindInteger:
		if sel.n < 0 {
			return 0, newError(ErrOutOfRange, "bitset index")
		}
		return rune(sel.n), nil
	}
	return 0, newError(ErrInvalidArg, sel.kind.Name())
}

// AppendBitset inserts one membership spec: a char, integer, or string
// (every char of it). Bits are set raw; the negation flag flips how they
// read, not how they write.
func AppendBitset(s *Series, v *Cell) error {
	const on = true
	switch v.kind {
	case KindChar, KindInteger:
		r, err := bitsetKey(v)
		if err != nil {
			return err
		}
		return BitsetSet(s, r, on)
	case KindString:
		for _, r := range v.ser.runes {
			if err := BitsetSet(s, r, on); err != nil {
				return err
			}
		}
		return nil
	}
	return newError(ErrInvalidArg, v.kind.Name())
}

// MakeCharset builds a bitset from a spec block: chars, strings, integers,
// ranges written [a - b], and a leading NOT word negating the whole set.
func MakeCharset(spec *Series) (*Series, error) {
	s := MakeBitset(127)
	i := 0
	if spec.Len() > 0 {
		v := spec.At(0)
		if v.kind == KindWord && SameWord(v.spelling, Intern("not")) {
			s.flags |= seriesNegatedBitset
			i = 1
		}
	}
	for ; i < spec.Len(); i++ {
		v := spec.At(i)
		// Range: value - value.
		if i+2 < spec.Len() {
			dash := spec.At(i + 1)
			if dash.kind == KindWord && dash.spelling.Text() == "-" {
				lo, err := bitsetKey(v)
				if err != nil {
					return nil, err
				}
				hi, err := bitsetKey(spec.At(i + 2))
				if err != nil {
					return nil, err
				}
				if hi < lo {
					return nil, newError(ErrPastEnd)
				}
				if err := BitsetSetRange(s, lo, hi, true); err != nil {
					return nil, err
				}
				i += 2
				continue
			}
		}
		sv := *v
		sv.flags &^= FlagNewline
		if err := AppendBitset(s, &sv); err != nil {
			return nil, err
		}
	}
	return s, nil
}
