package core

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrKind names a category of core error. The catalog in errors.yaml maps
// each kind to its message template.
type ErrKind string

const (
	ErrSyntax        ErrKind = "syntax"
	ErrMissing       ErrKind = "missing"
	ErrMismatch      ErrKind = "mismatch"
	ErrExtra         ErrKind = "extra"
	ErrBadMake       ErrKind = "bad-make"
	ErrMalconstruct  ErrKind = "malconstruct"
	ErrNotBound      ErrKind = "not-bound"
	ErrNoRelative    ErrKind = "no-relative"
	ErrProtectedWord ErrKind = "protected-word"
	ErrProtectedKey  ErrKind = "protected-key"
	ErrReadOnly      ErrKind = "read-only"
	ErrOutOfRange    ErrKind = "out-of-range"
	ErrMathArgs      ErrKind = "math-args"
	ErrZeroDivide    ErrKind = "zero-divide"
	ErrStackOverflow ErrKind = "stack-overflow"
	ErrPastEnd       ErrKind = "past-end"
	ErrNoValue       ErrKind = "no-value"
	ErrInvalidArg    ErrKind = "invalid-arg"
	ErrExpectArg     ErrKind = "expect-arg"
	ErrNoResume      ErrKind = "no-resume"
)

//go:embed errors.yaml
var catalogSource []byte

var catalog = func() map[ErrKind]string {
	var m map[ErrKind]string
	if err := yaml.Unmarshal(catalogSource, &m); err != nil {
		panic("core: bad error catalog: " + err.Error())
	}
	return m
}()

// Error is the error value raised by the core. Near carries the source line
// text around the failure when the raiser had one; it is a computed string,
// not a reference into the source.
type Error struct {
	Kind ErrKind
	Args []string

	File string
	Line int
	Near string
}

// newError makes an error of the given kind with positional arguments.
func newError(kind ErrKind, args ...string) *Error {
	return &Error{Kind: kind, Args: args}
}

// NewError makes an error of the given kind with positional arguments. It
// is the exported constructor for collaborators outside the core.
func NewError(kind ErrKind, args ...string) *Error { return newError(kind, args...) }

// At attaches source position information and returns the error.
func (e *Error) At(file string, line int, near string) *Error {
	e.File = file
	e.Line = line
	e.Near = near
	return e
}

// Message expands the catalog template with the error's arguments.
func (e *Error) Message() string {
	tmpl, ok := catalog[e.Kind]
	if !ok {
		tmpl = string(e.Kind)
	}
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '%' && i+1 < len(tmpl) && tmpl[i+1] >= '1' && tmpl[i+1] <= '9' {
			n := int(tmpl[i+1] - '1')
			if n < len(e.Args) {
				sb.WriteString(e.Args[n])
			}
			i++
			continue
		}
		sb.WriteByte(tmpl[i])
	}
	return sb.String()
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message()
	if e.Line > 0 {
		pos := "line " + strconv.Itoa(e.Line)
		if e.File != "" {
			pos = e.File + ":" + strconv.Itoa(e.Line)
		}
		if e.Near != "" {
			return fmt.Sprintf("%s (%s) near %q", msg, pos, e.Near)
		}
		return fmt.Sprintf("%s (%s)", msg, pos)
	}
	return msg
}

// ErrorValue reifies a Go-side error into an error object cell with the
// fields id, message, near, and line, so scripts can pick it apart.
func ErrorValue(out *Cell, e *Error) {
	ctx := AllocContext(KindError, 4)
	set := func(name string, init func(*Cell)) {
		v, err := AppendContext(ctx, Intern(name))
		if err != nil {
			panic(err)
		}
		init(v)
	}
	set("id", func(v *Cell) { InitWord(v, KindWord, Intern(string(e.Kind))) })
	set("message", func(v *Cell) { InitString(v, runesSeries(e.Message())) })
	set("near", func(v *Cell) {
		if e.Near == "" {
			InitBlank(v)
			return
		}
		InitString(v, runesSeries(e.Near))
	})
	set("line", func(v *Cell) { InitInteger(v, int64(e.Line)) })
	InitContext(out, KindError, ctx)
}

func runesSeries(text string) *Series {
	s := MakeSeries(len(text), ClassRunes, 0)
	s.SetRunes([]rune(text))
	return s
}

// Is supports errors.Is matching on the kind: errors.Is(err, &Error{Kind:
// ErrSyntax}) matches any syntax error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (len(t.Args) == 0 || equalArgs(t.Args, e.Args))
	}
	return false
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ErrHalt is the cancellation signal. It unwinds through haltable traps and
// is only intercepted by an unhaltable one.
var ErrHalt = errors.New(catalog["halt"])

// haltFlag is the process-wide cancellation request, set by the signal
// layer and polled by the evaluator at function call boundaries.
var haltFlag bool

// RequestHalt sets the cancellation flag. Safe to call from a signal
// handler goroutine: the flag is a single word and the evaluator only polls
// it, never clears it concurrently.
func RequestHalt() { haltFlag = true }

// ClearHalt resets the cancellation flag.
func ClearHalt() { haltFlag = false }

// checkHalt converts a pending halt request into ErrHalt.
func checkHalt() error {
	if haltFlag {
		haltFlag = false
		return ErrHalt
	}
	return nil
}

// Trap runs f and intercepts every error including a propagating halt. It
// is the "unhaltable" trap: nothing unwinds past it. The data stack and
// chunk stack are rebalanced to their depths at entry.
func Trap(f func() error) (err error) {
	dsDepth := DS.Depth()
	csDepth := CS.Depth()
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(haltSignal)
			if !ok {
				panic(r)
			}
			err = h.err
		}
		if err != nil {
			DS.Truncate(dsDepth)
			CS.Truncate(csDepth)
		}
	}()
	return f()
}

// TrapHaltable runs f and intercepts ordinary errors, but lets a halt
// continue unwinding to the nearest unhaltable trap. Breakpoint loops use
// this so a halt inside a breakpoint propagates out rather than being
// absorbed.
func TrapHaltable(f func() error) error {
	dsDepth := DS.Depth()
	csDepth := CS.Depth()
	err := f()
	if err != nil {
		DS.Truncate(dsDepth)
		CS.Truncate(csDepth)
	}
	if errors.Is(err, ErrHalt) {
		// Bypass every ordinary handler between here and the nearest
		// unhaltable trap.
		panic(haltSignal{err})
	}
	return err
}

type haltSignal struct{ err error }
