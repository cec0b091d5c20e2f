package core

import "fmt"

// Throw is the unwind carrying a value to a specific frame: function exit,
// and the final leg of a resume instruction. It travels as an error until
// the targeted frame's application catches it.
type Throw struct {
	Target *Frame
	Value  Cell
	// Evaluate defers the payload: the catch site evaluates it as a
	// block in the target frame's context, after the unwind.
	Evaluate bool
}

// catchThrow handles a throw addressed to frame f, producing the final
// value in out. Returns false if the throw is someone else's.
func catchThrow(err error, f *Frame, out *Cell) (bool, error) {
	t, ok := err.(*Throw)
	if !ok || t.Target != f {
		return false, err
	}
	if t.Evaluate {
		return true, DoArray(out, t.Value.ser, 0, FrameSpecifier(f))
	}
	MoveValue(out, &t.Value)
	return true, nil
}

func (t *Throw) Error() string {
	return fmt.Sprintf("no catch for throw to %s", frameLabel(t.Target))
}

func frameLabel(f *Frame) string {
	if f != nil && f.label != nil {
		return f.label.Text()
	}
	return "anonymous"
}

// DoArray evaluates the expressions of arr from idx to the end, leaving
// the last product in out. An empty stretch produces void.
func DoArray(out *Cell, arr *Series, idx int, sp Specifier) error {
	InitVoid(out)
	release := arr.Hold()
	defer release()
	for idx < arr.Len() {
		var err error
		idx, err = DoNext(out, arr, idx, sp)
		if err != nil {
			return err
		}
	}
	return nil
}

// DoNext evaluates one expression starting at idx, writes its product to
// out, and returns the index just past it.
func DoNext(out *Cell, arr *Series, idx int, sp Specifier) (int, error) {
	v := arr.At(idx)
	switch v.kind {
	case KindBar:
		InitVoid(out)
		return idx + 1, nil

	case KindLitBar:
		InitBar(out)
		return idx + 1, nil

	case KindWord:
		cell, err := GetVar(v, sp)
		if err != nil {
			return idx, err
		}
		if cell.kind == KindFunction {
			return applyCell(out, cell, v.spelling, arr, idx+1, sp, nil)
		}
		if cell.kind == KindVoid {
			return idx, newError(ErrNoValue, v.describe())
		}
		MoveValue(out, cell)
		return idx + 1, nil

	case KindSetWord:
		if idx+1 >= arr.Len() {
			return idx, newError(ErrPastEnd)
		}
		next, err := DoNext(out, arr, idx+1, sp)
		if err != nil {
			return idx, err
		}
		if err := SetVar(v, sp, out); err != nil {
			return idx, err
		}
		return next, nil

	case KindGetWord:
		cell, err := GetVarCore(v, sp, GetEndIfUnavailable)
		if err != nil {
			return idx, err
		}
		if IsEnd(cell) {
			InitVoid(out)
		} else {
			MoveValue(out, cell)
		}
		return idx + 1, nil

	case KindLitWord:
		if err := Derelativize(out, v, sp); err != nil {
			return idx, err
		}
		out.kind = KindWord
		return idx + 1, nil

	case KindGroup:
		if err := DoArray(out, v.ser, 0, subSpecifier(v, sp)); err != nil {
			return idx, err
		}
		return idx + 1, nil

	case KindPath, KindGetPath:
		return doPath(out, v, arr, idx, sp)

	case KindSetPath:
		if idx+1 >= arr.Len() {
			return idx, newError(ErrPastEnd)
		}
		next, err := DoNext(out, arr, idx+1, sp)
		if err != nil {
			return idx, err
		}
		if err := setPath(v, sp, out); err != nil {
			return idx, err
		}
		return next, nil

	case KindLitPath:
		if err := Derelativize(out, v, sp); err != nil {
			return idx, err
		}
		out.kind = KindPath
		return idx + 1, nil

	case KindFunction:
		return applyCell(out, v, nil, arr, idx+1, sp, nil)

	default:
		// Self-evaluating. Blocks and other bindables resolve their
		// binding on the way out.
		if err := Derelativize(out, v, sp); err != nil {
			return idx, err
		}
		return idx + 1, nil
	}
}

// subSpecifier computes the specifier for descending into a nested array
// cell. The outer specifier continues to apply: relative cells inside the
// array still resolve against the frame being executed, and the
// derived-context override still sees that frame's binding.
func subSpecifier(v *Cell, outer Specifier) Specifier {
	_ = v
	return outer
}

// applyCell pushes a call frame for the function in cell fv and gathers
// its arguments starting at arr[idx]. refines names refinements activated
// through a path call.
func applyCell(out *Cell, fv *Cell, label *Spelling, arr *Series, idx int, sp Specifier, refines []*Spelling) (int, error) {
	if err := checkHalt(); err != nil {
		return idx, err
	}
	fn := fv.Func()
	f, err := PushFrame(fn, fv.binding, out, label)
	if err != nil {
		return idx, err
	}
	defer DropFrame(f)

	active := true
	for i := 1; i <= fn.NumParams(); i++ {
		key := f.Key(i)
		if key.HasFlag(paramRefinement) {
			active = refinementActive(key.spelling, refines)
			InitLogic(f.Arg(i), active)
			continue
		}
		if !active {
			InitBlank(f.Arg(i))
			continue
		}
		if idx >= arr.Len() {
			return idx, newError(ErrPastEnd)
		}
		if key.HasFlag(paramQuoted) {
			if err := Derelativize(f.Arg(i), arr.At(idx), sp); err != nil {
				return idx, err
			}
			idx++
			continue
		}
		idx, err = DoNext(f.Arg(i), arr, idx, sp)
		if err != nil {
			return idx, err
		}
	}

	err = fn.dispatcher(f)
	if caught, cerr := catchThrow(err, f, out); caught {
		err = cerr
	}
	return idx, err
}

func refinementActive(sp *Spelling, refines []*Spelling) bool {
	for _, r := range refines {
		if SameWord(r, sp) {
			return true
		}
	}
	return false
}

// ApplyValue invokes a function value with pre-evaluated arguments. The
// breakpoint hook and embedding callers use it.
func ApplyValue(out *Cell, fv *Cell, label *Spelling, args []Cell) error {
	if err := checkHalt(); err != nil {
		return err
	}
	fn := fv.Func()
	f, err := PushFrame(fn, fv.binding, out, label)
	if err != nil {
		return err
	}
	defer DropFrame(f)
	for i := 0; i < len(args) && i < f.NumArgs(); i++ {
		MoveValue(f.Arg(i+1), &args[i])
	}
	err = fn.dispatcher(f)
	if caught, cerr := catchThrow(err, f, out); caught {
		err = cerr
	}
	return err
}

// doPath evaluates a path expression: the head resolves like a word and
// each tail element selects into the product. A function at the head turns
// the remaining words into refinements and applies.
func doPath(out *Cell, pv *Cell, arr *Series, idx int, sp Specifier) (int, error) {
	path := pv.ser
	if path.Len() == 0 {
		return idx, newError(ErrPastEnd)
	}
	head := path.At(0)
	if !AnyWord(head.kind) {
		return idx, newError(ErrInvalidArg, head.describe())
	}
	psp := subSpecifier(pv, sp)
	cell, err := GetVar(head, psp)
	if err != nil {
		return idx, err
	}
	if cell.kind == KindFunction && pv.kind != KindGetPath {
		var refines []*Spelling
		for i := 1; i < path.Len(); i++ {
			el := path.At(i)
			if !AnyWord(el.kind) {
				return idx, newError(ErrInvalidArg, el.describe())
			}
			refines = append(refines, el.spelling)
		}
		return applyCell(out, cell, head.spelling, arr, idx+1, sp, refines)
	}

	var cur Cell
	MoveValue(&cur, cell)
	for i := 1; i < path.Len(); i++ {
		if err := pickInto(&cur, &cur, path.At(i), psp); err != nil {
			return idx, err
		}
	}
	if cur.kind == KindFunction && pv.kind != KindGetPath {
		// A method picked out of an object applies in place, carrying the
		// binding pickInto gave it.
		label := path.At(path.Len() - 1)
		var sp2 *Spelling
		if AnyWord(label.kind) {
			sp2 = label.Spelling()
		}
		return applyCell(out, &cur, sp2, arr, idx+1, sp, nil)
	}
	MoveValue(out, &cur)
	return idx + 1, nil
}

// pickInto selects sel out of v, writing the product to out (which may
// alias v).
func pickInto(out, v *Cell, sel *Cell, sp Specifier) error {
	switch v.kind {
	case KindObject, KindError, KindFrame:
		ctx := &Context{varlist: v.ser}
		if !AnyWord(sel.kind) {
			return newError(ErrInvalidArg, sel.describe())
		}
		i := ctx.Find(sel.spelling)
		if i == 0 {
			return newError(ErrInvalidArg, sel.spelling.Text())
		}
		if ctx.Inaccessible() {
			return newError(ErrNoRelative, sel.spelling.Text())
		}
		target := ctx.Var(i)
		if target.kind == KindFunction {
			// Method access through a derived object: calling must see
			// the object picked through, so carry it in the binding.
			var m Cell
			MoveValue(&m, target)
			if b := m.binding.Context(); b == nil || overrides(ctx, b) {
				m.binding = SpecificBinding(ctx)
			}
			MoveValue(out, &m)
			return nil
		}
		MoveValue(out, target)
		return nil

	case KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath, KindLitPath:
		var i int
		switch sel.kind {
		case KindInteger:
			i = int(sel.n)
		case KindWord:
			w, err := GetVar(sel, sp)
			if err != nil {
				return err
			}
			if w.kind != KindInteger {
				return newError(ErrInvalidArg, sel.describe())
			}
			i = int(w.n)
		default:
			return newError(ErrInvalidArg, sel.describe())
		}
		at := v.idx + i - 1
		if at < 0 || at >= v.ser.Len() {
			InitVoid(out)
			return nil
		}
		return Derelativize(out, v.ser.At(at), Specified)

	case KindPair:
		return pairPick(out, v, sel)

	case KindTuple:
		return tuplePick(out, v, sel)

	case KindBitset:
		return bitsetPickCell(out, v, sel)

	default:
		return newError(ErrInvalidArg, v.kind.Name())
	}
}

// setPath assigns v through a set-path: all but the last element select,
// the last names the slot to write.
func setPath(pv *Cell, sp Specifier, v *Cell) error {
	path := pv.ser
	if path.Len() < 2 {
		return newError(ErrPastEnd)
	}
	head := path.At(0)
	if !AnyWord(head.kind) {
		return newError(ErrInvalidArg, head.describe())
	}
	psp := subSpecifier(pv, sp)
	cell, err := GetMutableVar(head, psp)
	if err != nil {
		return err
	}
	// Walk down to the penultimate element, resolving each step to live
	// storage so pokes on inline payloads (tuple, pair) write through to
	// the variable instead of a picked copy.
	cur := cell
	for i := 1; i < path.Len()-1; i++ {
		next, err := pickSlot(cur, path.At(i), psp)
		if err != nil {
			return err
		}
		cur = next
	}
	return pokeCell(cur, path.At(path.Len()-1), v, psp)
}

// pickSlot resolves sel out of v to the cell it selects inside v's own
// storage. Unlike pickInto it never copies, so the caller may mutate the
// result in place.
func pickSlot(v *Cell, sel *Cell, sp Specifier) (*Cell, error) {
	switch v.kind {
	case KindObject, KindError, KindFrame:
		ctx := &Context{varlist: v.ser}
		if !AnyWord(sel.kind) {
			return nil, newError(ErrInvalidArg, sel.describe())
		}
		i := ctx.Find(sel.spelling)
		if i == 0 {
			return nil, newError(ErrInvalidArg, sel.spelling.Text())
		}
		if ctx.Inaccessible() {
			return nil, newError(ErrNoRelative, sel.spelling.Text())
		}
		if ctx.varlist.Protected() {
			return nil, newError(ErrReadOnly)
		}
		return ctx.Var(i), nil

	case KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath, KindLitPath:
		var i int
		switch sel.kind {
		case KindInteger:
			i = int(sel.n)
		case KindWord:
			w, err := GetVar(sel, sp)
			if err != nil {
				return nil, err
			}
			if w.kind != KindInteger {
				return nil, newError(ErrInvalidArg, sel.describe())
			}
			i = int(w.n)
		default:
			return nil, newError(ErrInvalidArg, sel.describe())
		}
		at := v.idx + i - 1
		if at < 0 || at >= v.ser.Len() {
			return nil, newError(ErrPastEnd)
		}
		if err := v.ser.writable(); err != nil {
			return nil, err
		}
		return v.ser.At(at), nil

	default:
		return nil, newError(ErrInvalidArg, v.kind.Name())
	}
}

// pokeCell writes v into the slot sel selects out of target.
func pokeCell(target *Cell, sel *Cell, v *Cell, sp Specifier) error {
	switch target.kind {
	case KindObject, KindError, KindFrame:
		ctx := &Context{varlist: target.ser}
		if !AnyWord(sel.kind) {
			return newError(ErrInvalidArg, sel.describe())
		}
		i := ctx.Find(sel.spelling)
		if i == 0 {
			return newError(ErrInvalidArg, sel.spelling.Text())
		}
		if ctx.varlist.Protected() {
			return newError(ErrReadOnly)
		}
		if ctx.Key(i).HasFlag(FlagProtected) {
			return newError(ErrProtectedKey, sel.spelling.Text())
		}
		MoveValue(ctx.Var(i), v)
		return nil

	case KindBlock, KindGroup:
		if sel.kind != KindInteger {
			return newError(ErrInvalidArg, sel.describe())
		}
		at := target.idx + int(sel.n) - 1
		if at < 0 || at >= target.ser.Len() {
			return newError(ErrPastEnd)
		}
		if err := target.ser.writable(); err != nil {
			return err
		}
		return Derelativize(target.ser.At(at), v, Specified)

	case KindTuple:
		return tuplePoke(target, sel, v)

	case KindBitset:
		return bitsetPokeCell(target, sel, v)

	default:
		return newError(ErrInvalidArg, target.kind.Name())
	}
}
