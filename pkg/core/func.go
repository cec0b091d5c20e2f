package core

// Dispatcher is the implementation callback of a function body holder.
// It reads arguments from the frame and writes the product to f.Out().
type Dispatcher func(f *Frame) error

// Function describes a callable. Its identity is the paramlist series:
// element 0 is the function archetype, elements 1..N are typeset keys for
// the parameters. Values of the function share the paramlist and differ
// only by the binding carried in their cells.
type Function struct {
	paramlist *Series
	// body is the body array for interpreted functions; nil for natives.
	body       *Series
	dispatcher Dispatcher
	// exemplar is the specialization frame, or nil.
	exemplar *Context
	// facade is the paramlist pushed for call frames; differs from the
	// user-visible paramlist for specializations and adaptations.
	facade *Series
	name   *Spelling
	// isBreakpoint marks the breakpoint native for the resume protocol's
	// sandbox-boundary walk.
	isBreakpoint bool
}

// MarkBreakpoint flags fn as a breakpoint sandbox boundary.
func (fn *Function) MarkBreakpoint() { fn.isBreakpoint = true }

// Paramlist returns the function's identity series.
func (fn *Function) Paramlist() *Series { return fn.paramlist }

// Body returns the body array, or nil for a native.
func (fn *Function) Body() *Series { return fn.body }

// Facade returns the paramlist used when pushing a call frame.
func (fn *Function) Facade() *Series {
	if fn.facade != nil {
		return fn.facade
	}
	return fn.paramlist
}

// Underlying returns the paramlist that relative bindings in the body name.
func (fn *Function) Underlying() *Series { return fn.Facade() }

// Name returns the spelling the function was created under, or nil.
func (fn *Function) Name() *Spelling { return fn.name }

// NumParams returns the number of parameters.
func (fn *Function) NumParams() int { return fn.Facade().Len() - 1 }

// makeParamlist builds a paramlist from parameter spellings. Refinement
// parameters carry the lookback-free refinement convention: the key kind
// stays typeset, with the refinement recorded in the key's flags by the
// caller when needed.
func makeParamlist(params []paramSpec) *Series {
	pl := MakeArray(len(params) + 1)
	pl.flags |= seriesParamlist
	var archetype Cell
	archetype.kind = KindFunction
	pl.cells = append(pl.cells, archetype)
	for _, p := range params {
		var key Cell
		InitTypeset(&key, allTypes, p.name)
		key.flags |= p.flags
		pl.cells = append(pl.cells, key)
	}
	pl.ancestor = pl
	return pl
}

// paramSpec is one parameter in a function spec.
type paramSpec struct {
	name       *Spelling
	flags      Flags
	refinement bool
	quoted     bool
}

// MakeNative makes a native function with the given parameter names.
func MakeNative(name string, params []string, d Dispatcher) *Function {
	specs := make([]paramSpec, len(params))
	for i, p := range params {
		specs[i] = parseParamName(p)
	}
	fn := &Function{
		paramlist:  makeParamlist(specs),
		dispatcher: d,
		name:       Intern(name),
	}
	fn.paramlist.fun = fn
	InitFunction(&fn.paramlist.cells[0], fn, UnboundBinding)
	return fn
}

func parseParamName(p string) paramSpec {
	var s paramSpec
	if len(p) > 0 && p[0] == '/' {
		s.refinement = true
		p = p[1:]
	}
	if len(p) > 0 && p[0] == '\'' {
		s.quoted = true
		p = p[1:]
	}
	s.name = Intern(p)
	if s.refinement {
		s.flags |= paramRefinement
	}
	if s.quoted {
		s.flags |= paramQuoted
	}
	return s
}

const (
	// paramRefinement marks a /refinement key in a paramlist.
	paramRefinement Flags = 1 << 8
	// paramQuoted marks a parameter taken literally, unevaluated.
	paramQuoted Flags = 1 << 9
)

// MakeFunction builds an interpreted function from a spec array of words
// and refinements and a body array. The body is deep-copied and its words
// that name parameters are bound relative to the paramlist; everything
// else keeps whatever binding it had.
func MakeFunction(spec *Series, body *Series, name *Spelling) (*Function, error) {
	var params []paramSpec
	for i := 0; i < spec.Len(); i++ {
		v := spec.At(i)
		switch v.kind {
		case KindWord:
			params = append(params, paramSpec{name: v.spelling})
		case KindLitWord:
			params = append(params, paramSpec{name: v.spelling, flags: paramQuoted, quoted: true})
		case KindRefinement:
			params = append(params, paramSpec{name: v.spelling, flags: paramRefinement, refinement: true})
		case KindString, KindBlock:
			// Doc strings and type blocks are tolerated and skipped.
		default:
			return nil, newError(ErrInvalidArg, v.describe())
		}
	}
	fn := &Function{
		paramlist: makeParamlist(params),
		name:      name,
	}
	fn.paramlist.fun = fn
	InitFunction(&fn.paramlist.cells[0], fn, UnboundBinding)

	fn.body = copyArrayDeep(body)
	relativizeBody(fn.body, fn.paramlist)
	fn.dispatcher = interpretedDispatcher
	return fn, nil
}

// interpretedDispatcher runs a user function's body with the frame as the
// specifier for the body's relative words.
func interpretedDispatcher(f *Frame) error {
	return DoArray(f.out, f.fun.body, 0, FrameSpecifier(f))
}

// copyArrayDeep copies an array and, recursively, the arrays inside it.
func copyArrayDeep(src *Series) *Series {
	dst := MakeArray(src.Len())
	dst.cells = append(dst.cells, src.cells...)
	for i := range dst.cells {
		v := &dst.cells[i]
		if AnyArray(v.kind) && v.ser != nil {
			v.ser = copyArrayDeep(v.ser)
		}
	}
	dst.file = src.file
	dst.line = src.line
	return dst
}

// relativizeBody walks an array and rebinds words that name parameters of
// paramlist to a relative binding. Nested arrays inherit the relativity:
// their binding slot is set to the paramlist as well so Derelativize knows
// they need a specifier.
func relativizeBody(arr *Series, paramlist *Series) {
	binder := NewBinder()
	defer binder.Release()
	for i := 1; i < paramlist.Len(); i++ {
		binder.Add(paramlist.At(i).spelling, i)
	}
	relativizeWalk(arr, paramlist, binder)
}

func relativizeWalk(arr *Series, paramlist *Series, binder *Binder) {
	for i := 0; i < arr.Len(); i++ {
		v := arr.At(i)
		switch {
		case AnyWord(v.kind):
			if idx, ok := binder.Get(v.spelling); ok {
				v.binding = RelativeBinding(paramlist)
				v.idx = idx
			}
		case AnyArray(v.kind):
			v.binding = RelativeBinding(paramlist)
			relativizeWalk(v.ser, paramlist, binder)
		}
	}
}
