package core

// The breakpoint core. A breakpoint suspends evaluation by running a
// host-registered hook in a loop; only a well-formed "resume instruction"
// lets execution continue. The instruction is a 3-element group:
//
//	0: mode — blank (use the default), false (return the payload as the
//	   value), true (evaluate the payload block)
//	1: payload — value or block
//	2: target — the FRAME! to unwind to
//
// An instruction addressed past an intermediate breakpoint is re-thrown so
// the breakpoint nearest the target converts it into a function-exit throw
// named by the target frame. That is what lets resume/at simulate a return
// from any frame currently on the stack.

// BreakpointHook is the host side of a breakpoint: typically a console
// loop. It returns a resume instruction group, or a void cell to fall
// through to the default. Errors it returns are trapped and the hook is
// retried; only halt gets through.
type BreakpointHook func(top *Frame, interrupted bool) (Cell, error)

var breakpointHook BreakpointHook

// SetBreakpointHook registers the host hook. Nil restores the default
// behavior of breakpoints being no-ops.
func SetBreakpointHook(h BreakpointHook) { breakpointHook = h }

// resumeThrow carries a resume instruction outward between breakpoints.
type resumeThrow struct{ instr Cell }

// IsResume reports whether err carries a resume instruction. A hook uses
// it to tell an outbound resume apart from an ordinary evaluation error.
func IsResume(err error) bool {
	_, ok := err.(*resumeThrow)
	return ok
}

func (*resumeThrow) Error() string { return "resume instruction with no breakpoint to handle it" }

// MakeResumeInstruction assembles the 3-element instruction group.
func MakeResumeInstruction(mode, payload, target *Cell) Cell {
	g := MakeArray(3)
	g.cells = append(g.cells, *mode, *payload, *target)
	var c Cell
	InitSeries(&c, KindGroup, g, 0)
	return c
}

// DoBreakpointThrows runs the breakpoint protocol for the breakpoint
// native's frame f. interrupted tells the hook whether this was a signal
// rather than a source-level breakpoint. With doDefault, the default value
// is a block to evaluate; otherwise it is returned as-is when the
// instruction says "use default".
func DoBreakpointThrows(f *Frame, out *Cell, interrupted bool, defaultValue *Cell, doDefault bool) error {
	if breakpointHook == nil {
		return useDefault(f, out, defaultValue, doDefault)
	}
	for {
		var instr Cell
		InitVoid(&instr)
		err := TrapHaltable(func() error {
			var e error
			instr, e = breakpointHook(f, interrupted)
			return e
		})
		if rt, ok := err.(*resumeThrow); ok {
			// An inner breakpoint forwarded an instruction outward.
			instr = rt.instr
			err = nil
		}
		if err != nil {
			// Trapped hook error: report is the host's business; the
			// sandbox retries so only a resume instruction exits.
			interrupted = false
			continue
		}
		if instr.kind == KindVoid {
			return useDefault(f, out, defaultValue, doDefault)
		}
		if instr.kind != KindGroup || instr.ser.Len() != 3 {
			return newError(ErrMalconstruct, "resume instruction")
		}
		mode := instr.ser.At(0)
		payload := instr.ser.At(1)
		target := instr.ser.At(2)

		targetFrame, err := frameOfCell(target)
		if err != nil {
			return err
		}
		if targetFrame == f {
			// Addressed to this breakpoint.
			switch mode.kind {
			case KindBlank:
				return useDefault(f, out, defaultValue, doDefault)
			case KindLogic:
				if mode.Logic() {
					return DoArray(out, payload.ser, 0, Specified)
				}
				MoveValue(out, payload)
				return nil
			default:
				return newError(ErrMalconstruct, "resume mode")
			}
		}
		if !targetFrame.Live() {
			return newError(ErrNoResume)
		}
		// Another breakpoint between here and the target is closer to
		// it; send the instruction out for that one to convert.
		if enclosingBreakpointBefore(f, targetFrame) {
			return &resumeThrow{instr: instr}
		}
		// This breakpoint is the last sandbox boundary: convert into a
		// function-exit throw named by the target frame. A true mode
		// defers evaluation of the payload until the throw is caught,
		// after the sandbox has been left.
		t := &Throw{Target: targetFrame, Evaluate: mode.kind == KindLogic && mode.Logic()}
		MoveValue(&t.Value, payload)
		return t
	}
}

func useDefault(f *Frame, out *Cell, defaultValue *Cell, doDefault bool) error {
	if defaultValue == nil {
		InitVoid(out)
		return nil
	}
	if doDefault {
		return DoArray(out, defaultValue.ser, 0, Specified)
	}
	MoveValue(out, defaultValue)
	return nil
}

// frameOfCell extracts the live frame a FRAME! cell names.
func frameOfCell(c *Cell) (*Frame, error) {
	if c.kind != KindFrame || c.ser == nil {
		return nil, newError(ErrInvalidArg, c.kind.Name())
	}
	if f := c.ser.frame; f != nil {
		return f, nil
	}
	return nil, newError(ErrNoResume)
}

// enclosingBreakpointBefore reports whether a breakpoint frame lies
// strictly between frame f and the outward target.
func enclosingBreakpointBefore(f, target *Frame) bool {
	for g := f.prior; g != nil && g != target; g = g.prior {
		if g.fun != nil && g.fun.isBreakpoint {
			return true
		}
	}
	return false
}
