package core

import (
	"errors"
	"testing"
)

func TestErrorMessageTemplates(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(ErrSyntax, "integer", "1a"), "invalid integer -- 1a"},
		{newError(ErrReadOnly), "series is read-only"},
		{newError(ErrStackOverflow), "stack overflow"},
		{newError(ErrZeroDivide), "attempt to divide by zero"},
		{newError(ErrNotBound, "frob"), "frob word is not bound to a context"},
	}
	for _, test := range tests {
		if got := test.err.Message(); got != test.want {
			t.Errorf("%s: message %q, want %q", test.err.Kind, got, test.want)
		}
	}
}

func TestErrorPosition(t *testing.T) {
	e := newError(ErrSyntax, "integer", "1a").At("script.lore", 3, "x: 1a")
	if got, want := e.Error(), `invalid integer -- 1a (script.lore:3) near "x: 1a"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	e = newError(ErrReadOnly)
	if got, want := e.Error(), "series is read-only"; got != want {
		t.Errorf("positionless Error() = %q, want %q", got, want)
	}
}

func TestErrorIsByKind(t *testing.T) {
	err := newError(ErrSyntax, "integer", "1a")
	if !errors.Is(err, &Error{Kind: ErrSyntax}) {
		t.Errorf("kind-only target did not match")
	}
	if errors.Is(err, &Error{Kind: ErrMissing}) {
		t.Errorf("wrong kind matched")
	}
	// With args the match must be exact.
	if !errors.Is(err, &Error{Kind: ErrSyntax, Args: []string{"integer", "1a"}}) {
		t.Errorf("exact-args target did not match")
	}
	if errors.Is(err, &Error{Kind: ErrSyntax, Args: []string{"decimal", "1a"}}) {
		t.Errorf("mismatched args matched")
	}
}

func TestErrorValueFields(t *testing.T) {
	var cell Cell
	ErrorValue(&cell, newError(ErrZeroDivide).At("", 12, "divide 1 0"))
	if cell.Kind() != KindError {
		t.Fatalf("reified kind = %v, want error", cell.Kind())
	}
	ctx := cell.Context()
	field := func(name string) *Cell {
		t.Helper()
		i := ctx.Find(Intern(name))
		if i == 0 {
			t.Fatalf("error object lacks %s", name)
		}
		return ctx.Var(i)
	}
	if id := field("id"); !SameWord(id.Spelling(), Intern("zero-divide")) {
		t.Errorf("id = %s", Mold(id))
	}
	if msg := field("message"); string(msg.Series().Runes()) != "attempt to divide by zero" {
		t.Errorf("message = %s", Mold(msg))
	}
	if near := field("near"); string(near.Series().Runes()) != "divide 1 0" {
		t.Errorf("near = %s", Mold(near))
	}
	if line := field("line"); line.Int() != 12 {
		t.Errorf("line = %d, want 12", line.Int())
	}
}

func TestTrapRebalances(t *testing.T) {
	dsDepth := DS.Depth()
	csDepth := CS.Depth()
	err := Trap(func() error {
		if _, err := DS.Push(); err != nil {
			return err
		}
		if _, err := CS.Push(4); err != nil {
			return err
		}
		return newError(ErrOutOfRange, "boom")
	})
	if !isErrKind(err, ErrOutOfRange) {
		t.Fatalf("Trap returned %v", err)
	}
	if DS.Depth() != dsDepth {
		t.Errorf("data stack depth %d after trap, want %d", DS.Depth(), dsDepth)
	}
	if CS.Depth() != csDepth {
		t.Errorf("chunk stack depth %d after trap, want %d", CS.Depth(), csDepth)
	}
}

func TestTrapSuccessKeepsStacks(t *testing.T) {
	dsDepth := DS.Depth()
	err := Trap(func() error {
		_, err := DS.Push()
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	// A clean return leaves pushed values in place for the caller.
	if DS.Depth() != dsDepth+1 {
		t.Errorf("data stack depth %d, want %d", DS.Depth(), dsDepth+1)
	}
	DS.Drop(1)
}

func TestHaltUnwindsThroughHaltableTrap(t *testing.T) {
	var reached bool
	err := Trap(func() error {
		inner := TrapHaltable(func() error { return ErrHalt })
		// Unreachable: the halt panics past this point.
		reached = true
		return inner
	})
	if reached {
		t.Errorf("halt did not bypass the haltable trap")
	}
	if !errors.Is(err, ErrHalt) {
		t.Errorf("outer trap returned %v, want halt", err)
	}
}

func TestTrapHaltableReturnsOrdinaryErrors(t *testing.T) {
	err := TrapHaltable(func() error { return newError(ErrPastEnd) })
	if !isErrKind(err, ErrPastEnd) {
		t.Errorf("TrapHaltable returned %v", err)
	}
}
