package core

// Arithmetic dispatch over the numeric-ish kinds. Each operation picks an
// implementation from the kind pair; incompatible pairs fail with a
// math-args error rather than coercing surprising results.

// MathAdd dispatches ADD.
func MathAdd(out, a, b *Cell) error {
	switch a.kind {
	case KindInteger:
		switch b.kind {
		case KindInteger:
			InitInteger(out, a.n+b.n)
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, float64(a.n)+b.f)
			return nil
		case KindMoney:
			InitMoney(out, a.n*moneyScale+b.n)
			return nil
		}
	case KindDecimal, KindPercent:
		switch b.kind {
		case KindInteger:
			InitDecimal(out, a.f+float64(b.n))
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, a.f+b.f)
			return nil
		}
	case KindMoney:
		switch b.kind {
		case KindMoney:
			return MoneyAdd(out, a, b)
		case KindInteger:
			InitMoney(out, a.n+b.n*moneyScale)
			return nil
		}
	case KindTuple:
		if b.kind == KindTuple {
			return TupleAdd(out, a, b)
		}
		if b.kind == KindInteger {
			bc := broadcastTuple(a, b.n)
			return TupleAdd(out, a, &bc)
		}
	case KindTime:
		if b.kind == KindTime {
			return TimeAdd(out, a, b)
		}
	case KindPair:
		if b.kind == KindPair {
			return PairAdd(out, a, b)
		}
	case KindChar:
		if b.kind == KindInteger {
			InitChar(out, rune(a.n+b.n))
			return nil
		}
	}
	return newError(ErrMathArgs, a.kind.Name()+" + "+b.kind.Name())
}

// MathSubtract dispatches SUBTRACT.
func MathSubtract(out, a, b *Cell) error {
	switch a.kind {
	case KindInteger:
		switch b.kind {
		case KindInteger:
			InitInteger(out, a.n-b.n)
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, float64(a.n)-b.f)
			return nil
		}
	case KindDecimal, KindPercent:
		switch b.kind {
		case KindInteger:
			InitDecimal(out, a.f-float64(b.n))
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, a.f-b.f)
			return nil
		}
	case KindMoney:
		switch b.kind {
		case KindMoney:
			return MoneySubtract(out, a, b)
		case KindInteger:
			InitMoney(out, a.n-b.n*moneyScale)
			return nil
		}
	case KindTuple:
		if b.kind == KindTuple {
			return TupleSubtract(out, a, b)
		}
		if b.kind == KindInteger {
			bc := broadcastTuple(a, b.n)
			return TupleSubtract(out, a, &bc)
		}
	case KindTime:
		if b.kind == KindTime {
			return TimeSubtract(out, a, b)
		}
	case KindPair:
		if b.kind == KindPair {
			return PairSubtract(out, a, b)
		}
	case KindChar:
		if b.kind == KindInteger {
			InitChar(out, rune(a.n-b.n))
			return nil
		}
		if b.kind == KindChar {
			InitInteger(out, a.n-b.n)
			return nil
		}
	}
	return newError(ErrMathArgs, a.kind.Name()+" - "+b.kind.Name())
}

// MathMultiply dispatches MULTIPLY.
func MathMultiply(out, a, b *Cell) error {
	switch a.kind {
	case KindInteger:
		switch b.kind {
		case KindInteger:
			InitInteger(out, a.n*b.n)
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, float64(a.n)*b.f)
			return nil
		case KindMoney, KindTime, KindPair:
			return MathMultiply(out, b, a)
		}
	case KindDecimal, KindPercent:
		switch b.kind {
		case KindInteger:
			InitDecimal(out, a.f*float64(b.n))
			return nil
		case KindDecimal, KindPercent:
			InitDecimal(out, a.f*b.f)
			return nil
		case KindMoney, KindTime, KindPair:
			return MathMultiply(out, b, a)
		}
	case KindMoney:
		return MoneyMultiply(out, a, b)
	case KindTuple:
		if b.kind == KindTuple {
			return TupleMultiply(out, a, b)
		}
	case KindTime:
		switch b.kind {
		case KindInteger:
			return TimeScale(out, a, float64(b.n))
		case KindDecimal, KindPercent:
			return TimeScale(out, a, b.f)
		}
	case KindPair:
		switch b.kind {
		case KindPair:
			return PairMultiply(out, a, b)
		case KindInteger:
			return PairScale(out, a, float64(b.n))
		case KindDecimal, KindPercent:
			return PairScale(out, a, b.f)
		}
	}
	return newError(ErrMathArgs, a.kind.Name()+" * "+b.kind.Name())
}

// MathDivide dispatches DIVIDE.
func MathDivide(out, a, b *Cell) error {
	switch a.kind {
	case KindInteger:
		switch b.kind {
		case KindInteger:
			if b.n == 0 {
				return newError(ErrZeroDivide)
			}
			if a.n%b.n == 0 {
				InitInteger(out, a.n/b.n)
			} else {
				InitDecimal(out, float64(a.n)/float64(b.n))
			}
			return nil
		case KindDecimal, KindPercent:
			if b.f == 0 {
				return newError(ErrZeroDivide)
			}
			InitDecimal(out, float64(a.n)/b.f)
			return nil
		}
	case KindDecimal, KindPercent:
		switch b.kind {
		case KindInteger:
			if b.n == 0 {
				return newError(ErrZeroDivide)
			}
			InitDecimal(out, a.f/float64(b.n))
			return nil
		case KindDecimal, KindPercent:
			if b.f == 0 {
				return newError(ErrZeroDivide)
			}
			InitDecimal(out, a.f/b.f)
			return nil
		}
	case KindMoney:
		return MoneyDivide(out, a, b)
	case KindTuple:
		if b.kind == KindTuple {
			return TupleDivide(out, a, b)
		}
	case KindTime:
		return TimeDivide(out, a, b)
	case KindPair:
		switch b.kind {
		case KindInteger:
			if b.n == 0 {
				return newError(ErrZeroDivide)
			}
			return PairScale(out, a, 1/float64(b.n))
		case KindDecimal, KindPercent:
			if b.f == 0 {
				return newError(ErrZeroDivide)
			}
			return PairScale(out, a, 1/b.f)
		}
	}
	return newError(ErrMathArgs, a.kind.Name()+" / "+b.kind.Name())
}

// broadcastTuple makes a tuple of a's length with every component v.
func broadcastTuple(a *Cell, v int64) Cell {
	var c Cell
	c.kind = KindTuple
	c.tuple.N = a.tuple.N
	sat := satByte(v)
	for i := int8(0); i < a.tuple.N; i++ {
		c.tuple.B[i] = sat
	}
	return c
}
