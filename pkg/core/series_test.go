package core

import (
	"errors"
	"testing"
)

func isErrKind(err error, kind ErrKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

func intCell(v int64) Cell {
	var c Cell
	InitInteger(&c, v)
	return c
}

func TestSeriesLenCap(t *testing.T) {
	s := MakeArray(4)
	defer FreeSeries(s)
	if s.Len() != 0 {
		t.Errorf("fresh array Len = %d, want 0", s.Len())
	}
	if s.Cap() < 4 {
		t.Errorf("fresh array Cap = %d, want at least 4", s.Cap())
	}
	if err := s.Append(intCell(1), intCell(2)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("Len after append = %d, want 2", s.Len())
	}
	if s.At(1).Int() != 2 {
		t.Errorf("At(1) = %d, want 2", s.At(1).Int())
	}
}

func TestSeriesGrows(t *testing.T) {
	s := MakeArray(0)
	defer FreeSeries(s)
	for i := int64(0); i < 100; i++ {
		if err := s.Append(intCell(i)); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 100 {
		t.Errorf("Len = %d, want 100", s.Len())
	}
	if s.At(99).Int() != 99 {
		t.Errorf("At(99) = %d, want 99", s.At(99).Int())
	}
}

func TestSingularRelayout(t *testing.T) {
	s := MakeSingular(intCell(7))
	defer FreeSeries(s)
	if s.Layout() != LayoutSingular || s.Len() != 1 {
		t.Fatalf("singular layout/len = %v/%d", s.Layout(), s.Len())
	}
	if err := s.Append(intCell(8)); err != nil {
		t.Fatal(err)
	}
	if s.Layout() != LayoutDynamic {
		t.Errorf("growth did not relayout singular to dynamic")
	}
	if s.Len() != 2 || s.At(0).Int() != 7 || s.At(1).Int() != 8 {
		t.Errorf("content lost in relayout")
	}
}

func TestFixedSizeSeries(t *testing.T) {
	s := MakeSeries(1, ClassArray, SeriesFixedSize)
	defer FreeSeries(s)
	if err := s.Append(intCell(1)); err != nil {
		t.Fatal(err)
	}
	err := s.Append(intCell(2))
	if !isErrKind(err, ErrReadOnly) {
		t.Errorf("append past fixed capacity = %v, want read-only error", err)
	}
}

func TestProtectAndFreeze(t *testing.T) {
	s := MakeArray(1)
	defer FreeSeries(s)
	s.Protect(true)
	if err := s.Append(intCell(1)); !isErrKind(err, ErrReadOnly) {
		t.Errorf("append to protected = %v, want read-only error", err)
	}
	s.Protect(false)
	if err := s.Append(intCell(1)); err != nil {
		t.Errorf("append after unprotect = %v, want nil", err)
	}

	s.Freeze()
	if !s.Frozen() {
		t.Errorf("Frozen() = false after Freeze")
	}
	s.Protect(false) // no thaw
	if err := s.Append(intCell(2)); !isErrKind(err, ErrReadOnly) {
		t.Errorf("append to frozen = %v, want read-only error", err)
	}
}

func TestHoldRelease(t *testing.T) {
	s := MakeArray(1)
	defer FreeSeries(s)
	release := s.Hold()
	if err := s.Append(intCell(1)); !isErrKind(err, ErrReadOnly) {
		t.Errorf("append under hold = %v, want read-only error", err)
	}
	// A nested hold's release must not clear the outer one.
	inner := s.Hold()
	inner()
	if err := s.Append(intCell(1)); !isErrKind(err, ErrReadOnly) {
		t.Errorf("append after inner release = %v, want read-only error", err)
	}
	release()
	if err := s.Append(intCell(1)); err != nil {
		t.Errorf("append after release = %v, want nil", err)
	}
}

func TestExpandAndRemove(t *testing.T) {
	s := MakeArray(4)
	defer FreeSeries(s)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.Append(intCell(1), intCell(2), intCell(3)))
	must(ExpandSeries(s, 1, 2))
	if s.Len() != 5 {
		t.Fatalf("Len after expand = %d, want 5", s.Len())
	}
	if s.At(0).Int() != 1 || s.At(3).Int() != 2 || s.At(4).Int() != 3 {
		t.Errorf("expand shifted the tail wrong: %s %s %s",
			Mold(s.At(0)), Mold(s.At(3)), Mold(s.At(4)))
	}
	must(RemoveSeries(s, 1, 2))
	if s.Len() != 3 || s.At(1).Int() != 2 {
		t.Errorf("remove left %d elements, second = %s", s.Len(), Mold(s.At(1)))
	}
}

func TestColoring(t *testing.T) {
	a := MakeArray(0)
	b := MakeArray(0)
	defer FreeSeries(a)
	defer FreeSeries(b)
	if a.IsBlack() || b.IsBlack() {
		t.Fatalf("fresh series is black")
	}
	a.Blacken()
	if !a.IsBlack() {
		t.Errorf("Blacken did not color the series")
	}
	if b.IsBlack() {
		t.Errorf("coloring leaked to another series")
	}
	a.Unblacken()
	if a.IsBlack() {
		t.Errorf("Unblacken did not clear the color")
	}

	a.Blacken()
	b.Blacken()
	FlipColoring()
	if a.IsBlack() || b.IsBlack() {
		t.Errorf("FlipColoring did not whiten all series")
	}
	c := MakeArray(0)
	defer FreeSeries(c)
	if c.IsBlack() {
		t.Errorf("fresh series reads black after a polarity flip")
	}
	FlipColoring()
}

func TestFreeSeriesDetection(t *testing.T) {
	s := MakeArray(0)
	FreeSeries(s)
	defer func() {
		if recover() == nil {
			t.Errorf("use of a freed series did not panic")
		}
	}()
	s.Len()
}
