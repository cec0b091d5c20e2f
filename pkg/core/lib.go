package core

// The lib context: natives and the user context layered over it. Scanned
// user code is bound first shallowly to lib, then to the user context with
// new set-words collected there, the way a console session expects.

var (
	libContext  *Context
	userContext *Context

	// ScanSource is installed by the scanner package so the load and
	// transcode natives can reach it without a package cycle.
	ScanSource func(src []byte, file string) (*Series, error)
)

// Lib returns the library context, starting the runtime up on first use.
func Lib() *Context {
	if libContext == nil {
		Startup()
	}
	return libContext
}

// User returns the user context.
func User() *Context {
	if userContext == nil {
		Startup()
	}
	return userContext
}

// Startup builds the root contexts and installs the natives. Idempotent.
func Startup() {
	if libContext != nil {
		return
	}
	libContext = AllocContext(KindObject, 64)
	AddRootContext(libContext)
	installNatives(libContext)

	userContext = AllocContext(KindObject, 64)
	AddRootContext(userContext)
}

// Shutdown drops the root contexts so tests can restart cold.
func Shutdown() {
	libContext = nil
	userContext = nil
	rootContexts = nil
	topFrame = nil
	DS = NewDataStack()
	CS = NewChunkStack()
}

// BindUser binds an array for top-level evaluation: shallow lib bind
// deep, then the user context with new set-words collected.
func BindUser(arr *Series) error {
	if err := Bind(arr, Lib(), true, false); err != nil {
		return err
	}
	return Bind(arr, User(), true, true)
}

func addNative(ctx *Context, name string, params []string, d Dispatcher) *Function {
	fn := MakeNative(name, params, d)
	cell, err := AppendContext(ctx, Intern(name))
	if err != nil {
		panic("core: " + err.Error())
	}
	InitFunction(cell, fn, UnboundBinding)
	return fn
}

func installNatives(lib *Context) {
	addNative(lib, "add", []string{"value1", "value2"}, func(f *Frame) error {
		return MathAdd(f.Out(), f.Arg(1), f.Arg(2))
	})
	addNative(lib, "subtract", []string{"value1", "value2"}, func(f *Frame) error {
		return MathSubtract(f.Out(), f.Arg(1), f.Arg(2))
	})
	addNative(lib, "multiply", []string{"value1", "value2"}, func(f *Frame) error {
		return MathMultiply(f.Out(), f.Arg(1), f.Arg(2))
	})
	addNative(lib, "divide", []string{"value1", "value2"}, func(f *Frame) error {
		return MathDivide(f.Out(), f.Arg(1), f.Arg(2))
	})
	// Operator spellings alias the arithmetic natives.
	alias := func(op, name string) {
		cell, err := AppendContext(lib, Intern(op))
		if err != nil {
			panic("core: " + err.Error())
		}
		src := lib.Var(lib.Find(Intern(name)))
		MoveValue(cell, src)
	}
	alias("+", "add")
	alias("-", "subtract")
	alias("*", "multiply")

	// Datatype names evaluate to themselves so make can dispatch on them.
	for _, name := range []string{"object!", "bitset!", "block!", "logic!"} {
		cell, err := AppendContext(lib, Intern(name))
		if err != nil {
			panic("core: " + err.Error())
		}
		InitWord(cell, KindWord, Intern(name))
	}

	addNative(lib, "func", []string{"spec", "body"}, nativeFunc)
	addNative(lib, "make", []string{"type", "spec"}, nativeMake)
	addNative(lib, "do", []string{"source"}, nativeDo)
	addNative(lib, "if", []string{"condition", "branch"}, nativeIf)
	addNative(lib, "either", []string{"condition", "true-branch", "false-branch"}, nativeEither)
	addNative(lib, "charset", []string{"spec"}, nativeCharset)
	addNative(lib, "complement", []string{"value"}, nativeComplement)
	addNative(lib, "find", []string{"series", "value"}, nativeFind)
	addNative(lib, "pick", []string{"series", "index"}, nativePick)
	addNative(lib, "poke", []string{"series", "index", "value"}, nativePoke)
	addNative(lib, "append", []string{"series", "value"}, nativeAppend)
	addNative(lib, "insert", []string{"series", "value"}, nativeInsert)
	addNative(lib, "mold", []string{"value"}, func(f *Frame) error {
		s := MakeSeries(0, ClassRunes, 0)
		s.runes = []rune(Mold(f.Arg(1)))
		InitString(f.Out(), s)
		return nil
	})
	addNative(lib, "form", []string{"value"}, func(f *Frame) error {
		s := MakeSeries(0, ClassRunes, 0)
		s.runes = []rune(Form(f.Arg(1)))
		InitString(f.Out(), s)
		return nil
	})
	addNative(lib, "protect", []string{"value"}, func(f *Frame) error {
		defer EndWalk()
		ProtectValue(f.Arg(1), true)
		MoveValue(f.Out(), f.Arg(1))
		return nil
	})
	addNative(lib, "unprotect", []string{"value"}, func(f *Frame) error {
		defer EndWalk()
		ProtectValue(f.Arg(1), false)
		MoveValue(f.Out(), f.Arg(1))
		return nil
	})
	addNative(lib, "freeze", []string{"value"}, func(f *Frame) error {
		defer EndWalk()
		FreezeValueDeep(f.Arg(1))
		MoveValue(f.Out(), f.Arg(1))
		return nil
	})
	addNative(lib, "round", []string{"value", "/to", "scale", "/even", "/down", "/half-down", "/floor", "/ceiling", "/half-ceiling"}, nativeRound)

	bp := addNative(lib, "breakpoint", nil, nativeBreakpoint)
	bp.MarkBreakpoint()
	addNative(lib, "pause", []string{"default"}, nativePause)
	addNative(lib, "resume", []string{"/with", "value", "/do", "code", "/at", "target"}, nativeResume)
	addNative(lib, "recycle", nil, func(f *Frame) error {
		InitInteger(f.Out(), int64(Recycle()))
		return nil
	})
	addNative(lib, "load", []string{"source"}, nativeLoad)
}

// nativeLoad scans a string into a block, bound for top-level use.
func nativeLoad(f *Frame) error {
	src := f.Arg(1)
	if src.kind != KindString || ScanSource == nil {
		return newError(ErrInvalidArg, src.kind.Name())
	}
	arr, err := ScanSource([]byte(string(src.ser.runes)), "")
	if err != nil {
		return err
	}
	if err := BindUser(arr); err != nil {
		return err
	}
	InitBlock(f.Out(), arr)
	return nil
}

func nativeFunc(f *Frame) error {
	spec, body := f.Arg(1), f.Arg(2)
	if spec.kind != KindBlock || body.kind != KindBlock {
		return newError(ErrInvalidArg, spec.kind.Name())
	}
	fn, err := MakeFunction(spec.ser, body.ser, nil)
	if err != nil {
		return err
	}
	InitFunction(f.Out(), fn, UnboundBinding)
	return nil
}

// nativeMake: make object! [...], make parent-object [...], make
// bitset! spec.
func nativeMake(f *Frame) error {
	typ, spec := f.Arg(1), f.Arg(2)
	switch {
	case typ.kind == KindObject:
		parent := &Context{varlist: typ.ser}
		return makeObject(f.Out(), spec, parent)
	case AnyWord(typ.kind) && SameWord(typ.spelling, Intern("object!")):
		return makeObject(f.Out(), spec, nil)
	case AnyWord(typ.kind) && SameWord(typ.spelling, Intern("bitset!")):
		return MakeBitsetValue(f.Out(), spec)
	}
	return newError(ErrBadMake, typ.describe(), spec.kind.Name())
}

func makeObject(out *Cell, spec *Cell, parent *Context) error {
	if spec.kind != KindBlock {
		return newError(ErrBadMake, "object!", spec.kind.Name())
	}
	ctx, err := MakeSelfishContextDetect(KindObject, spec.ser.cells, parent)
	if err != nil {
		return err
	}
	if err := Bind(spec.ser, ctx, true, false); err != nil {
		return err
	}
	var product Cell
	if err := DoArray(&product, spec.ser, 0, Specified); err != nil {
		return err
	}
	InitContext(out, KindObject, ctx)
	return nil
}

// MakeBitsetValue builds a bitset from a spec block, binary, char, or
// string; the scanner's construct dispatcher also lands here.
func MakeBitsetValue(out *Cell, spec *Cell) error {
	switch spec.kind {
	case KindBlock:
		s, err := MakeCharset(spec.ser)
		if err != nil {
			return err
		}
		InitBitset(out, s)
		return nil
	case KindBinary:
		s := MakeSeries(len(spec.ser.bytes), ClassBytes, 0)
		s.bytes = append(s.bytes, spec.ser.bytes...)
		InitBitset(out, s)
		return nil
	case KindChar, KindString:
		s := MakeBitset(127)
		if err := AppendBitset(s, spec); err != nil {
			return err
		}
		InitBitset(out, s)
		return nil
	}
	return newError(ErrBadMake, "bitset!", spec.kind.Name())
}

func nativeDo(f *Frame) error {
	src := f.Arg(1)
	if src.kind != KindBlock {
		MoveValue(f.Out(), src)
		return nil
	}
	return DoArray(f.Out(), src.ser, src.idx, Specified)
}

func nativeIf(f *Frame) error {
	if !f.Arg(1).Truthy() {
		InitBlank(f.Out())
		return nil
	}
	branch := f.Arg(2)
	if branch.kind == KindBlock {
		return DoArray(f.Out(), branch.ser, branch.idx, Specified)
	}
	MoveValue(f.Out(), branch)
	return nil
}

func nativeEither(f *Frame) error {
	branch := f.Arg(2)
	if !f.Arg(1).Truthy() {
		branch = f.Arg(3)
	}
	if branch.kind == KindBlock {
		return DoArray(f.Out(), branch.ser, branch.idx, Specified)
	}
	MoveValue(f.Out(), branch)
	return nil
}

func nativeCharset(f *Frame) error {
	spec := f.Arg(1)
	if spec.kind != KindBlock && spec.kind != KindString {
		return newError(ErrInvalidArg, spec.kind.Name())
	}
	return MakeBitsetValue(f.Out(), spec)
}

func nativeComplement(f *Frame) error {
	v := f.Arg(1)
	switch v.kind {
	case KindBitset:
		InitBitset(f.Out(), BitsetComplement(v.ser))
		return nil
	case KindLogic:
		InitLogic(f.Out(), !v.Logic())
		return nil
	case KindInteger:
		InitInteger(f.Out(), ^v.n)
		return nil
	}
	return newError(ErrInvalidArg, v.kind.Name())
}

func nativeFind(f *Frame) error {
	s, v := f.Arg(1), f.Arg(2)
	switch s.kind {
	case KindBitset:
		return BitsetFind(f.Out(), s, v)
	case KindBlock, KindGroup:
		for i := s.idx; i < s.ser.Len(); i++ {
			if equalCells(s.ser.At(i), v) {
				InitSeries(f.Out(), s.kind, s.ser, i)
				return nil
			}
		}
		InitBlank(f.Out())
		return nil
	}
	return newError(ErrInvalidArg, s.kind.Name())
}

func nativePick(f *Frame) error {
	return pickInto(f.Out(), f.Arg(1), f.Arg(2), Specified)
}

func nativePoke(f *Frame) error {
	if err := pokeCell(f.Arg(1), f.Arg(2), f.Arg(3), Specified); err != nil {
		return err
	}
	MoveValue(f.Out(), f.Arg(3))
	return nil
}

func nativeAppend(f *Frame) error {
	s, v := f.Arg(1), f.Arg(2)
	switch s.kind {
	case KindBitset:
		if err := AppendBitset(s.ser, v); err != nil {
			return err
		}
	case KindBlock, KindGroup:
		if err := s.ser.Append(*v); err != nil {
			return err
		}
	case KindString:
		if err := s.ser.writable(); err != nil {
			return err
		}
		s.ser.runes = append(s.ser.runes, []rune(Form(v))...)
	default:
		return newError(ErrInvalidArg, s.kind.Name())
	}
	MoveValue(f.Out(), s)
	return nil
}

func nativeInsert(f *Frame) error {
	s, v := f.Arg(1), f.Arg(2)
	switch s.kind {
	case KindBitset:
		if err := AppendBitset(s.ser, v); err != nil {
			return err
		}
	case KindBlock, KindGroup:
		if err := ExpandSeries(s.ser, s.idx, 1); err != nil {
			return err
		}
		MoveValue(s.ser.At(s.idx), v)
	default:
		return newError(ErrInvalidArg, s.kind.Name())
	}
	MoveValue(f.Out(), s)
	return nil
}

func nativeRound(f *Frame) error {
	v := f.Arg(1)
	if v.kind != KindMoney {
		return newError(ErrInvalidArg, v.kind.Name())
	}
	to := int64(moneyScale)
	if f.Arg(2).Logic() && f.Arg(3).kind == KindMoney {
		to = f.Arg(3).n
	}
	mode := RoundHalfEven
	switch {
	case f.Arg(5).kind == KindLogic && f.Arg(5).Logic():
		mode = RoundDown
	case f.Arg(6).kind == KindLogic && f.Arg(6).Logic():
		mode = RoundHalfDown
	case f.Arg(7).kind == KindLogic && f.Arg(7).Logic():
		mode = RoundFloor
	case f.Arg(8).kind == KindLogic && f.Arg(8).Logic():
		mode = RoundCeiling
	case f.Arg(9).kind == KindLogic && f.Arg(9).Logic():
		mode = RoundHalfCeiling
	}
	return RoundMoney(f.Out(), v, mode, to)
}

func nativeBreakpoint(f *Frame) error {
	return DoBreakpointThrows(f, f.Out(), false, nil, false)
}

func nativePause(f *Frame) error {
	return DoBreakpointThrows(f, f.Out(), false, f.Arg(1), f.Arg(1).kind == KindBlock)
}

// nativeResume assembles a resume instruction and throws it to the
// innermost breakpoint sandbox.
func nativeResume(f *Frame) error {
	var mode, payload, target Cell
	InitBlank(&mode)
	InitBlank(&payload)
	switch {
	case f.Arg(2).Logic(): // /with
		InitLogic(&mode, false)
		MoveValue(&payload, f.Arg(3))
	case f.Arg(4).Logic(): // /do
		InitLogic(&mode, true)
		MoveValue(&payload, f.Arg(5))
	}
	if f.Arg(6).Logic() { // /at
		MoveValue(&target, f.Arg(7))
		if target.kind != KindFrame {
			return newError(ErrInvalidArg, target.kind.Name())
		}
	} else {
		bp := innermostBreakpoint(f)
		if bp == nil {
			return newError(ErrNoResume)
		}
		InitContext(&target, KindFrame, bp.Reify())
	}
	return &resumeThrow{instr: MakeResumeInstruction(&mode, &payload, &target)}
}

func innermostBreakpoint(from *Frame) *Frame {
	for g := from; g != nil; g = g.prior {
		if g.fun != nil && g.fun.isBreakpoint {
			return g
		}
	}
	return nil
}

// equalCells is a shallow equivalence good enough for FIND.
func equalCells(a, b *Cell) bool {
	if a.kind != b.kind {
		return false
	}
	switch {
	case AnyWord(a.kind):
		return SameWord(a.spelling, b.spelling)
	case a.ser != nil || b.ser != nil:
		return a.ser == b.ser && a.idx == b.idx
	default:
		return a.n == b.n && a.f == b.f && a.tuple == b.tuple
	}
}
