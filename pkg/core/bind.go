package core

// GetFlags modify variable resolution.
type GetFlags uint8

const (
	// GetMutable asks for a writable cell; protection is enforced.
	GetMutable GetFlags = 1 << iota
	// GetEndIfUnavailable returns the end sentinel instead of failing on
	// unbound words and popped frames.
	GetEndIfUnavailable
)

// GetVarCore resolves a word cell to its variable's cell across the four
// bind states. specifier supplies the frame for relative words and the
// derived-context override for specific ones. The returned cell aliases
// live storage; it is valid while the owning context or frame is.
func GetVarCore(w *Cell, specifier Specifier, flags GetFlags) (*Cell, error) {
	switch w.binding.kind {
	case bindDirect:
		f := w.binding.frame
		if !f.Live() {
			if flags&GetEndIfUnavailable != 0 {
				return End(), nil
			}
			return nil, newError(ErrNoRelative, w.describe())
		}
		return frameVar(f, w, flags)

	case bindRelative:
		f := specifier.Frame()
		if f == nil || f.Underlying() != w.binding.paramlist {
			if flags&GetEndIfUnavailable != 0 {
				return End(), nil
			}
			return nil, newError(ErrNoRelative, w.describe())
		}
		return frameVar(f, w, flags)

	case bindSpecific:
		ctx := w.binding.ctx
		// Derived-context override: if the specifier's frame carries a
		// context whose keylist's ancestor chain reaches the word's
		// context's keylist, the frame's context wins.
		if f := specifier.Frame(); f != nil {
			if over := f.binding.Context(); over != nil && overrides(over, ctx) {
				ctx = over
			}
		}
		if ctx.Inaccessible() {
			if flags&GetEndIfUnavailable != 0 {
				return End(), nil
			}
			return nil, newError(ErrNoRelative, w.describe())
		}
		return contextVar(ctx, w, flags)

	default: // unbound
		if flags&GetEndIfUnavailable != 0 {
			return End(), nil
		}
		return nil, newError(ErrNotBound, w.describe())
	}
}

// GetVar is GetVarCore with no flags: read-only, erroring when unbound.
func GetVar(w *Cell, specifier Specifier) (*Cell, error) {
	return GetVarCore(w, specifier, 0)
}

// GetMutableVar resolves w for writing, enforcing protection.
func GetMutableVar(w *Cell, specifier Specifier) (*Cell, error) {
	return GetVarCore(w, specifier, GetMutable)
}

func frameVar(f *Frame, w *Cell, flags GetFlags) (*Cell, error) {
	idx := w.idx
	if idx < 1 || idx > f.NumArgs() {
		return nil, newError(ErrPastEnd)
	}
	if flags&GetMutable != 0 {
		if f.nativeHold {
			return nil, newError(ErrProtectedWord, w.describe())
		}
		if f.Key(idx).HasFlag(FlagProtected) || f.Arg(idx).HasFlag(FlagProtected) {
			return nil, newError(ErrProtectedWord, w.describe())
		}
	}
	return f.Arg(idx), nil
}

func contextVar(ctx *Context, w *Cell, flags GetFlags) (*Cell, error) {
	idx := w.idx
	if idx < 1 || idx > ctx.Len() {
		// The word may have been bound before the deriving context
		// rearranged keys; fall back to a spelling search.
		idx = ctx.Find(w.spelling)
		if idx == 0 {
			return nil, newError(ErrNotBound, w.describe())
		}
	}
	key := ctx.Key(idx)
	if !SameWord(key.spelling, w.spelling) {
		idx = ctx.Find(w.spelling)
		if idx == 0 {
			return nil, newError(ErrNotBound, w.describe())
		}
		key = ctx.Key(idx)
	}
	if flags&GetMutable != 0 {
		if ctx.varlist.Protected() {
			return nil, newError(ErrReadOnly)
		}
		if key.HasFlag(FlagProtected) {
			return nil, newError(ErrProtectedKey, key.spelling.Text())
		}
		if ctx.Var(idx).HasFlag(FlagProtected) {
			return nil, newError(ErrProtectedWord, w.describe())
		}
	}
	return ctx.Var(idx), nil
}

// SetVar resolves w mutably and copies v into it.
func SetVar(w *Cell, specifier Specifier, v *Cell) error {
	dst, err := GetVarCore(w, specifier, GetMutable)
	if err != nil {
		return err
	}
	protect := dst.flags & FlagProtected
	MoveValue(dst, v)
	dst.flags |= protect
	return nil
}

// Bind binds the words of an array to a context, in place. With deep, it
// descends into nested arrays. Only words the context already has keys for
// are bound; with addMissing, unbound set-words gain new keys first.
func Bind(arr *Series, ctx *Context, deep, addMissing bool) error {
	binder := NewBinder()
	defer binder.Release()
	kl := ctx.Keylist()
	for i := 1; i < kl.Len(); i++ {
		k := kl.At(i)
		if k.spelling != nil && !k.HasFlag(FlagUnbindable) {
			binder.Set(k.spelling, i)
		}
	}
	return bindWalk(arr, ctx, binder, deep, addMissing)
}

func bindWalk(arr *Series, ctx *Context, binder *Binder, deep, addMissing bool) error {
	for i := 0; i < arr.Len(); i++ {
		v := arr.At(i)
		switch {
		case AnyWord(v.kind):
			idx, ok := binder.Get(v.spelling)
			if !ok && addMissing && v.kind == KindSetWord {
				if _, err := AppendContext(ctx, v.spelling); err != nil {
					return err
				}
				idx = ctx.Len()
				binder.Set(v.spelling, idx)
				ok = true
			}
			if ok {
				v.binding = SpecificBinding(ctx)
				v.idx = idx
			}
		case AnyArray(v.kind) && deep:
			if err := bindWalk(v.ser, ctx, binder, deep, addMissing); err != nil {
				return err
			}
		}
	}
	return nil
}

// BindFrame binds the words of an array straight to a live frame, in
// place, descending into nested arrays. Words naming no param of the
// frame are left alone. The bindings stay valid only while the frame is
// live, which suits transient input such as a debug console line.
func BindFrame(arr *Series, f *Frame) error {
	binder := NewBinder()
	defer binder.Release()
	for i := 1; i <= f.NumArgs(); i++ {
		k := f.Key(i)
		if k.spelling != nil && !k.HasFlag(FlagUnbindable) {
			binder.Set(k.spelling, i)
		}
	}
	return bindFrameWalk(arr, f, binder)
}

func bindFrameWalk(arr *Series, f *Frame, binder *Binder) error {
	for i := 0; i < arr.Len(); i++ {
		v := arr.At(i)
		switch {
		case AnyWord(v.kind):
			if idx, ok := binder.Get(v.spelling); ok {
				v.binding = DirectBinding(f)
				v.idx = idx
			}
		case AnyArray(v.kind):
			if err := bindFrameWalk(v.ser, f, binder); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProtectValue toggles per-cell protection, descending through series with
// the coloring bits as the recursion guard so cyclic structures terminate.
func ProtectValue(v *Cell, on bool) {
	if v.ser != nil {
		protectSeriesDeep(v.ser, on)
	}
	if on {
		v.flags |= FlagProtected
	} else {
		v.flags &^= FlagProtected
	}
}

// blackened records the series colored by the current walk so EndWalk can
// whiten exactly those.
var blackened []*Series

func blackenForWalk(s *Series) {
	s.Blacken()
	blackened = append(blackened, s)
}

func protectSeriesDeep(s *Series, on bool) {
	if s.IsBlack() {
		return
	}
	blackenForWalk(s)
	s.Protect(on)
	if s.class == ClassArray {
		for i := range s.cells {
			if sub := s.cells[i].ser; sub != nil {
				protectSeriesDeep(sub, on)
			}
		}
	}
}

// FreezeValueDeep permanently locks a value's series and everything
// reachable from it. Irreversible.
func FreezeValueDeep(v *Cell) {
	if v.ser != nil {
		freezeSeriesDeep(v.ser)
	}
}

func freezeSeriesDeep(s *Series) {
	if s.IsBlack() {
		return
	}
	blackenForWalk(s)
	s.Freeze()
	if s.class == ClassArray {
		for i := range s.cells {
			if sub := s.cells[i].ser; sub != nil {
				freezeSeriesDeep(sub)
			}
		}
	}
}

// EndWalk resets the coloring after a protect/freeze walk. When the walk
// touched most of the heap a polarity flip would be cheaper, but whitening
// the recorded set keeps untouched series' color stable.
func EndWalk() {
	for _, s := range blackened {
		s.Unblacken()
	}
	blackened = blackened[:0]
}
