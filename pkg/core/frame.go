package core

// Frame is the live activation of a function call. Its argument cells live
// on the chunk stack; Reify promotes the frame to a heap context so that
// FRAME! values can outlive bit-for-bit argument addresses being legal.
type Frame struct {
	fun *Function
	// binding is the frame's own binding: the derived context carried by
	// the function value that was invoked, or the "return from" identity.
	binding Binding
	// facade is the paramlist in effect for this activation. It differs
	// from the user-visible paramlist when the function is specialized or
	// adapted.
	facade *Series
	// args are the chunk-stack cells, one per facade key.
	args []Cell
	// out receives the call's product.
	out *Cell
	// varlist is non-nil once the frame has been reified.
	varlist *Series
	prior   *Frame
	label   *Spelling
	// nativeHold forbids user code from mutating the args.
	nativeHold bool
	// markTick guards the collector's frame walk against cycles through
	// direct bindings back into the frame's own args.
	markTick int
}

// topFrame is the innermost live frame.
var topFrame *Frame

// TopFrame returns the innermost live frame, or nil outside any call.
func TopFrame() *Frame { return topFrame }

// PushFrame activates fn with argument cells drawn from the chunk stack.
// The cells start out void. binding is the binding slot of the function
// value being invoked (a derived context for hijacked methods).
func PushFrame(fn *Function, binding Binding, out *Cell, label *Spelling) (*Frame, error) {
	facade := fn.Facade()
	args, err := CS.Push(facade.Len() - 1)
	if err != nil {
		return nil, err
	}
	for i := range args {
		InitVoid(&args[i])
	}
	f := &Frame{
		fun:     fn,
		binding: binding,
		facade:  facade,
		args:    args,
		out:     out,
		prior:   topFrame,
		label:   label,
	}
	topFrame = f
	return f, nil
}

// DropFrame deactivates the frame. A reified varlist loses its stack
// storage and becomes inaccessible.
func DropFrame(f *Frame) {
	if topFrame != f {
		panic("core: frame drop out of order")
	}
	topFrame = f.prior
	if f.varlist != nil {
		f.varlist.frame = nil
		f.varlist.keylist = f.facade
		f.varlist.flags |= seriesInaccessible
	}
	CS.Drop(f.args)
	f.args = nil
}

// Fun returns the callee.
func (f *Frame) Fun() *Function { return f.fun }

// Label returns the word the call was made through, or nil.
func (f *Frame) Label() *Spelling { return f.label }

// Prior returns the next frame outward.
func (f *Frame) Prior() *Frame { return f.prior }

// Binding returns the frame's binding slot.
func (f *Frame) Binding() Binding { return f.binding }

// Out returns the frame's output cell.
func (f *Frame) Out() *Cell { return f.out }

// NumArgs returns the number of argument cells.
func (f *Frame) NumArgs() int { return len(f.args) }

// Arg returns the 1-based argument cell.
func (f *Frame) Arg(i int) *Cell { return &f.args[i-1] }

// Key returns the 1-based typeset key of the facade.
func (f *Frame) Key(i int) *Cell { return f.facade.At(i) }

// Underlying returns the paramlist that relative bindings in the callee's
// body refer to.
func (f *Frame) Underlying() *Series { return f.fun.Underlying() }

// Live reports whether the frame is still on the stack.
func (f *Frame) Live() bool {
	for g := topFrame; g != nil; g = g.prior {
		if g == f {
			return true
		}
	}
	return false
}

// Reify gives the frame a heap context identity. The varlist holds only
// the archetype; while the frame is live the variables stay on the chunk
// stack and the varlist's keysource is the frame itself.
func (f *Frame) Reify() *Context {
	if f.varlist != nil {
		return &Context{varlist: f.varlist}
	}
	c := &Context{}
	var archetype Cell
	archetype.kind = KindFrame
	f.varlist = MakeSingular(archetype)
	f.varlist.frame = f
	c.varlist = f.varlist
	InitContext(&f.varlist.cells[0], KindFrame, c)
	return c
}

// Context returns the frame's context, reifying on first use.
func (f *Frame) Context() *Context { return f.Reify() }
