package core

import "math"

// Times are signed 64-bit nanosecond counts. Addition and subtraction
// saturate at the representable extremes instead of wrapping.

// MaxTime is the largest representable time payload.
const MaxTime = int64(math.MaxInt64)

// MinTime is the smallest representable time payload.
const MinTime = int64(math.MinInt64)

const nanosPerSecond = 1_000_000_000

// InitTime makes c a time cell of the given nanosecond count.
func InitTime(c *Cell, nanos int64) { *c = Cell{kind: KindTime, n: nanos} }

// InitTimeParts makes c a time cell from hours, minutes, seconds, nanos.
// sign applies to the whole quantity.
func InitTimeParts(c *Cell, negative bool, h, m int64, s float64) {
	nanos := (h*3600+m*60)*nanosPerSecond + int64(s*nanosPerSecond)
	if negative {
		nanos = -nanos
	}
	InitTime(c, nanos)
}

// satAddTime adds with saturation to [MinTime, MaxTime].
func satAddTime(a, b int64) int64 {
	sum := a + b
	if a > 0 && b > 0 && sum < 0 {
		return MaxTime
	}
	if a < 0 && b < 0 && sum >= 0 {
		return MinTime
	}
	return sum
}

// TimeAdd adds two times, saturating.
func TimeAdd(out, a, b *Cell) error {
	InitTime(out, satAddTime(a.n, b.n))
	return nil
}

// TimeSubtract subtracts two times, saturating.
func TimeSubtract(out, a, b *Cell) error {
	if b.n == MinTime {
		InitTime(out, satAddTime(a.n, MaxTime))
		return nil
	}
	InitTime(out, satAddTime(a.n, -b.n))
	return nil
}

// TimeScale multiplies a time by an integer or decimal factor.
func TimeScale(out, a *Cell, factor float64) error {
	v := float64(a.n) * factor
	switch {
	case v > float64(MaxTime):
		InitTime(out, MaxTime)
	case v < float64(MinTime):
		InitTime(out, MinTime)
	default:
		InitTime(out, int64(v))
	}
	return nil
}

// TimeDivide divides a time by a scalar, or by another time — the latter
// yields a plain decimal ratio.
func TimeDivide(out, a, b *Cell) error {
	switch b.kind {
	case KindTime:
		if b.n == 0 {
			return newError(ErrZeroDivide)
		}
		InitDecimal(out, float64(a.n)/float64(b.n))
		return nil
	case KindInteger:
		if b.n == 0 {
			return newError(ErrZeroDivide)
		}
		InitTime(out, a.n/b.n)
		return nil
	case KindDecimal, KindPercent:
		if b.f == 0 {
			return newError(ErrZeroDivide)
		}
		return TimeScale(out, a, 1/b.f)
	}
	return newError(ErrMathArgs, b.kind.Name())
}

// TimeParts decomposes a time into hour, minute, second, nano components.
func TimeParts(c *Cell) (negative bool, h, m, s int64, nano int64) {
	n := c.n
	if n < 0 {
		negative = true
		n = -n
	}
	nano = n % nanosPerSecond
	n /= nanosPerSecond
	s = n % 60
	n /= 60
	m = n % 60
	h = n / 60
	return
}
