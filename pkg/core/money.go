package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is decimal fixed-point: an int64 count of 1/10000ths. Four
// fractional digits keep currency math exact where binary floating point
// drifts.

// moneyScale is the subunit count per whole unit.
const moneyScale = 10_000

// InitMoney makes c a money cell from a subunit amount.
func InitMoney(c *Cell, amount int64) { *c = Cell{kind: KindMoney, n: amount} }

// MoneyFromParts builds the subunit amount from text pieces: the integral
// digits and up to four fractional digits.
func MoneyFromParts(negative bool, whole string, frac string) (int64, error) {
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, newError(ErrOutOfRange, whole)
	}
	for len(frac) < 4 {
		frac += "0"
	}
	if len(frac) > 4 {
		frac = frac[:4]
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, newError(ErrOutOfRange, frac)
	}
	amount := w*moneyScale + f
	if negative {
		amount = -amount
	}
	return amount, nil
}

// MoneyText renders the amount the way the scanner accepts it: $ sign,
// minus first, fraction trimmed to the digits needed (minimum two).
func MoneyText(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	whole := amount / moneyScale
	frac := amount % moneyScale
	s := fmt.Sprintf("%d.%04d", whole, frac)
	// Trim trailing zeros but keep two fraction digits.
	for strings.HasSuffix(s, "0") && !strings.HasSuffix(s, ".00") {
		trimmed := s[:len(s)-1]
		if len(trimmed)-strings.IndexByte(trimmed, '.') <= 2 {
			break
		}
		s = trimmed
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// MoneyAdd adds two money amounts.
func MoneyAdd(out, a, b *Cell) error {
	InitMoney(out, a.n+b.n)
	return nil
}

// MoneySubtract subtracts two money amounts.
func MoneySubtract(out, a, b *Cell) error {
	InitMoney(out, a.n-b.n)
	return nil
}

// MoneyMultiply scales money by an integer or decimal.
func MoneyMultiply(out, a, b *Cell) error {
	switch b.kind {
	case KindInteger:
		InitMoney(out, a.n*b.n)
	case KindDecimal, KindPercent:
		InitMoney(out, int64(float64(a.n)*b.f))
	case KindMoney:
		return newError(ErrMathArgs, "money * money")
	default:
		return newError(ErrMathArgs, b.kind.Name())
	}
	return nil
}

// MoneyDivide divides money by a scalar, or by money giving a decimal.
func MoneyDivide(out, a, b *Cell) error {
	switch b.kind {
	case KindInteger:
		if b.n == 0 {
			return newError(ErrZeroDivide)
		}
		InitMoney(out, a.n/b.n)
	case KindDecimal, KindPercent:
		if b.f == 0 {
			return newError(ErrZeroDivide)
		}
		InitMoney(out, int64(float64(a.n)/b.f))
	case KindMoney:
		if b.n == 0 {
			return newError(ErrZeroDivide)
		}
		InitDecimal(out, float64(a.n)/float64(b.n))
	default:
		return newError(ErrMathArgs, b.kind.Name())
	}
	return nil
}

// RoundMode selects a rounding rule for RoundMoney.
type RoundMode uint8

const (
	// RoundHalfEven is banker's rounding, the default.
	RoundHalfEven RoundMode = iota
	// RoundDown truncates toward zero.
	RoundDown
	// RoundHalfDown rounds half-cases toward zero.
	RoundHalfDown
	// RoundFloor rounds toward negative infinity.
	RoundFloor
	// RoundCeiling rounds toward positive infinity.
	RoundCeiling
	// RoundHalfCeiling rounds half-cases toward positive infinity.
	RoundHalfCeiling
)

// RoundMoney rounds a money amount to a multiple of to (in subunits; to
// of one whole unit is moneyScale). Mode picks the tie/directional rule.
func RoundMoney(out, a *Cell, mode RoundMode, to int64) error {
	if to <= 0 {
		return newError(ErrInvalidArg, "round scale")
	}
	q, r := a.n/to, a.n%to
	if r == 0 {
		InitMoney(out, q*to)
		return nil
	}
	neg := r < 0
	abs := r
	if neg {
		abs = -abs
	}
	twice := 2 * abs
	var bump bool
	switch mode {
	case RoundDown:
		bump = false
	case RoundFloor:
		bump = neg
	case RoundCeiling:
		bump = !neg
	case RoundHalfDown:
		bump = twice > to
	case RoundHalfCeiling:
		if neg {
			bump = twice > to
		} else {
			bump = twice >= to
		}
	default: // RoundHalfEven
		if twice > to {
			bump = true
		} else if twice == to {
			bump = q%2 != 0
		}
	}
	if bump {
		if neg {
			q--
		} else {
			q++
		}
	}
	InitMoney(out, q*to)
	return nil
}
