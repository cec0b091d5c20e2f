package core

// MaxTupleLen is the number of bytes a tuple stores inline in the cell.
const MaxTupleLen = 11

// InitTuple makes c a tuple cell from up to MaxTupleLen bytes.
func InitTuple(c *Cell, bytes []byte) error {
	if len(bytes) > MaxTupleLen {
		return newError(ErrOutOfRange, "tuple too long")
	}
	*c = Cell{kind: KindTuple}
	c.tuple.N = int8(len(bytes))
	copy(c.tuple.B[:], bytes)
	return nil
}

// TupleBytes returns the live bytes of a tuple cell.
func TupleBytes(c *Cell) []byte { return c.tuple.B[:c.tuple.N] }

// satByte clamps v into a byte.
func satByte(v int64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// tupleMath applies op componentwise over the longer of the two tuples,
// treating missing components as zero, saturating each result to [0,255].
func tupleMath(out, a, b *Cell, op func(x, y int64) (int64, error)) error {
	n := a.tuple.N
	if b.tuple.N > n {
		n = b.tuple.N
	}
	var r Tuple
	r.N = n
	for i := int8(0); i < n; i++ {
		x, y := int64(a.tuple.B[i]), int64(b.tuple.B[i])
		v, err := op(x, y)
		if err != nil {
			return err
		}
		r.B[i] = satByte(v)
	}
	*out = Cell{kind: KindTuple, tuple: r}
	return nil
}

// TupleAdd adds componentwise with saturation.
func TupleAdd(out, a, b *Cell) error {
	return tupleMath(out, a, b, func(x, y int64) (int64, error) { return x + y, nil })
}

// TupleSubtract subtracts componentwise with saturation.
func TupleSubtract(out, a, b *Cell) error {
	return tupleMath(out, a, b, func(x, y int64) (int64, error) { return x - y, nil })
}

// TupleMultiply multiplies componentwise with saturation.
func TupleMultiply(out, a, b *Cell) error {
	return tupleMath(out, a, b, func(x, y int64) (int64, error) { return x * y, nil })
}

// TupleDivide divides componentwise; division by a zero component fails.
func TupleDivide(out, a, b *Cell) error {
	return tupleMath(out, a, b, func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, newError(ErrZeroDivide)
		}
		return x / y, nil
	})
}

// tuplePick returns the 1-based component, or blank past the end.
func tuplePick(out, v *Cell, sel *Cell) error {
	if sel.kind != KindInteger {
		return newError(ErrInvalidArg, sel.describe())
	}
	i := int(sel.n)
	if i < 1 || i > int(v.tuple.N) {
		InitBlank(out)
		return nil
	}
	b := v.tuple.B[i-1]
	InitInteger(out, int64(b))
	return nil
}

// tuplePoke writes a component. Poking a blank shrinks the tuple to end
// just before that component.
func tuplePoke(v *Cell, sel *Cell, val *Cell) error {
	if sel.kind != KindInteger {
		return newError(ErrInvalidArg, sel.describe())
	}
	i := int(sel.n)
	if i < 1 || i > MaxTupleLen {
		return newError(ErrOutOfRange, "tuple index")
	}
	if val.kind == KindBlank {
		if int8(i) <= v.tuple.N {
			v.tuple.N = int8(i - 1)
		}
		return nil
	}
	if val.kind != KindInteger {
		return newError(ErrInvalidArg, val.kind.Name())
	}
	for int(v.tuple.N) < i {
		v.tuple.B[v.tuple.N] = 0
		v.tuple.N++
	}
	v.tuple.B[i-1] = satByte(val.n)
	return nil
}
