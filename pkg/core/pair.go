package core

// A pair is two decimals held in an allocated pairing: two adjacent cells
// whose second cell is the handed-out reference. The pair cell's series
// payload points at the pairing.

// InitPair makes c a pair cell backed by a fresh pairing.
func InitPair(c *Cell, x, y float64) {
	var xc, yc Cell
	InitDecimal(&xc, x)
	InitDecimal(&yc, y)
	p := MakePairing(xc, yc)
	*c = Cell{kind: KindPair, ser: p}
}

// PairX returns the first component.
func PairX(c *Cell) float64 { return c.ser.cells[0].f }

// PairY returns the second component.
func PairY(c *Cell) float64 { return c.ser.cells[1].f }

// SetPairX writes the first component.
func SetPairX(c *Cell, v float64) { c.ser.cells[0].f = v }

// SetPairY writes the second component.
func SetPairY(c *Cell, v float64) { c.ser.cells[1].f = v }

// pairPick accepts the words x/y or the integers 1/2.
func pairPick(out, v *Cell, sel *Cell) error {
	var x bool
	switch {
	case sel.kind == KindInteger && sel.n == 1:
		x = true
	case sel.kind == KindInteger && sel.n == 2:
		x = false
	case AnyWord(sel.kind) && SameWord(sel.spelling, Intern("x")):
		x = true
	case AnyWord(sel.kind) && SameWord(sel.spelling, Intern("y")):
		x = false
	default:
		return newError(ErrInvalidArg, sel.describe())
	}
	if x {
		InitDecimal(out, PairX(v))
	} else {
		InitDecimal(out, PairY(v))
	}
	return nil
}

// pairMath applies op componentwise, allocating a fresh pairing.
func pairMath(out, a, b *Cell, op func(x, y float64) (float64, error)) error {
	x, err := op(PairX(a), PairX(b))
	if err != nil {
		return err
	}
	y, err := op(PairY(a), PairY(b))
	if err != nil {
		return err
	}
	InitPair(out, x, y)
	return nil
}

// PairAdd adds componentwise.
func PairAdd(out, a, b *Cell) error {
	return pairMath(out, a, b, func(x, y float64) (float64, error) { return x + y, nil })
}

// PairSubtract subtracts componentwise.
func PairSubtract(out, a, b *Cell) error {
	return pairMath(out, a, b, func(x, y float64) (float64, error) { return x - y, nil })
}

// PairMultiply multiplies componentwise.
func PairMultiply(out, a, b *Cell) error {
	return pairMath(out, a, b, func(x, y float64) (float64, error) { return x * y, nil })
}

// PairScale multiplies both components by a scalar.
func PairScale(out, a *Cell, s float64) error {
	InitPair(out, PairX(a)*s, PairY(a)*s)
	return nil
}
