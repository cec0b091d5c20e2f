package core

import (
	"errors"
	"testing"

	"github.com/lore-lang/lore/pkg/tt"
)

var Args = tt.Args

// mathText runs a math dispatcher and renders the product, or the error
// kind prefixed with "error:".
func mathText(op func(out, a, b *Cell) error) func(a, b Cell) string {
	return func(a, b Cell) string {
		var out Cell
		if err := op(&out, &a, &b); err != nil {
			var e *Error
			if errors.As(err, &e) {
				return "error: " + string(e.Kind)
			}
			return "error: " + err.Error()
		}
		return Mold(&out)
	}
}

func intC(n int64) Cell {
	var c Cell
	InitInteger(&c, n)
	return c
}

func decC(v float64) Cell {
	var c Cell
	InitDecimal(&c, v)
	return c
}

func moneyC(subunits int64) Cell {
	var c Cell
	InitMoney(&c, subunits)
	return c
}

func tupleC(bs ...byte) Cell {
	var c Cell
	if err := InitTuple(&c, bs); err != nil {
		panic(err)
	}
	return c
}

func timeC(h, m, s int64) Cell {
	var c Cell
	InitTimeParts(&c, false, h, m, float64(s))
	return c
}

func TestMathAdd(t *testing.T) {
	tt.Test(t, tt.Fn("MathAdd", mathText(MathAdd)), tt.Table{
		Args(intC(1), intC(2)).Rets("3"),
		Args(intC(1), decC(2.5)).Rets("3.5"),
		Args(decC(1.5), intC(1)).Rets("2.5"),
		Args(moneyC(12500), moneyC(25000)).Rets("$3.75"),
		Args(moneyC(12500), intC(2)).Rets("$3.25"),
		Args(intC(2), moneyC(12500)).Rets("$3.25"),
		Args(charCell('a'), intC(1)).Rets(`#"b"`),
		Args(timeC(10, 30, 0), timeC(0, 45, 0)).Rets("11:15:00"),
		// Tuple components clamp at the byte extremes.
		Args(tupleC(200, 200, 200), tupleC(100, 100, 100)).Rets("255.255.255"),
		Args(tupleC(1, 2, 3), tupleC(250, 250, 250)).Rets("251.252.253"),
		Args(tupleC(10, 20, 30), intC(5)).Rets("15.25.35"),
		Args(charCell('a'), charCell('b')).Rets("error: math-args"),
		Args(intC(1), timeC(1, 0, 0)).Rets("error: math-args"),
	})
}

func TestMathSubtract(t *testing.T) {
	tt.Test(t, tt.Fn("MathSubtract", mathText(MathSubtract)), tt.Table{
		Args(intC(5), intC(3)).Rets("2"),
		Args(intC(5), decC(0.5)).Rets("4.5"),
		Args(moneyC(37500), moneyC(12500)).Rets("$2.50"),
		Args(moneyC(12500), moneyC(25000)).Rets("-$1.25"),
		Args(charCell('c'), charCell('a')).Rets("2"),
		Args(charCell('c'), intC(2)).Rets(`#"a"`),
		// Tuples saturate at zero instead of going negative.
		Args(tupleC(10, 20, 30), tupleC(20, 5, 40)).Rets("0.15.0"),
		Args(timeC(11, 15, 0), timeC(0, 45, 0)).Rets("10:30:00"),
	})
}

func TestMathMultiply(t *testing.T) {
	tt.Test(t, tt.Fn("MathMultiply", mathText(MathMultiply)), tt.Table{
		Args(intC(6), intC(7)).Rets("42"),
		Args(intC(4), decC(0.5)).Rets("2.0"),
		Args(moneyC(12500), intC(2)).Rets("$2.50"),
		Args(intC(2), moneyC(12500)).Rets("$2.50"),
		Args(timeC(1, 30, 0), intC(2)).Rets("3:00:00"),
		Args(intC(2), timeC(1, 30, 0)).Rets("3:00:00"),
		Args(tupleC(2, 3, 4), tupleC(2, 2, 2)).Rets("4.6.8"),
		Args(moneyC(10000), moneyC(10000)).Rets("error: math-args"),
	})
}

func TestMathDivide(t *testing.T) {
	tt.Test(t, tt.Fn("MathDivide", mathText(MathDivide)), tt.Table{
		Args(intC(6), intC(2)).Rets("3"),
		// An inexact quotient falls over to decimal.
		Args(intC(7), intC(2)).Rets("3.5"),
		Args(decC(1.0), decC(4.0)).Rets("0.25"),
		Args(moneyC(25000), intC(2)).Rets("$1.25"),
		Args(moneyC(25000), moneyC(12500)).Rets("2.0"),
		Args(tupleC(8, 8, 8), tupleC(2, 2, 2)).Rets("4.4.4"),
		Args(timeC(3, 0, 0), timeC(1, 30, 0)).Rets("2.0"),
		Args(intC(1), intC(0)).Rets("error: zero-divide"),
		Args(decC(1.0), decC(0.0)).Rets("error: zero-divide"),
		Args(moneyC(10000), intC(0)).Rets("error: zero-divide"),
	})
}

func TestTimeSaturation(t *testing.T) {
	var huge Cell
	InitTime(&huge, MaxTime-5)
	var out Cell
	if err := TimeAdd(&out, &huge, &huge); err != nil {
		t.Fatal(err)
	}
	if out.Nanoseconds() != MaxTime {
		t.Errorf("time add overflow = %d, want saturation at MaxTime", out.Nanoseconds())
	}
	var lo Cell
	InitTime(&lo, MinTime+5)
	if err := TimeSubtract(&out, &lo, &huge); err != nil {
		t.Fatal(err)
	}
	if out.Nanoseconds() != MinTime {
		t.Errorf("time subtract underflow = %d, want saturation at MinTime", out.Nanoseconds())
	}
}

func TestTupleLengthMismatch(t *testing.T) {
	// The shorter tuple reads as zero past its end.
	a := tupleC(1, 2, 3, 4)
	b := tupleC(10, 10)
	var out Cell
	if err := TupleAdd(&out, &a, &b); err != nil {
		t.Fatal(err)
	}
	if got := Mold(&out); got != "11.12.3.4" {
		t.Errorf("mixed-length add = %s, want 11.12.3.4", got)
	}
}
