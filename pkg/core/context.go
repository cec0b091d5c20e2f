package core

import "math"

// Context is a varlist/keylist pair: the representation behind objects,
// modules, errors, ports, and reified frames. Its identity is the varlist
// series. Element 0 of the varlist is the archetype cell, whose binding
// points back at the context; element 0 of the keylist is the rootkey.
// Elements 1..N are the variables and their typeset keys.
type Context struct {
	varlist *Series
}

// allTypes is the typeset bitmask admitting every kind.
const allTypes = int64(math.MaxInt64)

// AllocContext makes an empty unmanaged context of the given kind with
// room for capacity variables. The rootkey is a symbol-less typeset.
func AllocContext(kind Kind, capacity int) *Context {
	varlist := MakeArray(capacity + 1)
	keylist := MakeArray(capacity + 1)

	var rootkey Cell
	InitTypeset(&rootkey, allTypes, nil)
	keylist.cells = append(keylist.cells, rootkey)
	keylist.ancestor = keylist

	c := &Context{varlist: varlist}
	varlist.keylist = keylist

	var archetype Cell
	InitContext(&archetype, kind, c)
	varlist.cells = append(varlist.cells, archetype)

	return c
}

// Varlist returns the context's identity series.
func (c *Context) Varlist() *Series { return c.varlist }

// Keylist returns the context's keylist. For a frame still on the stack
// the keysource is the frame itself; the facade paramlist serves as keys.
func (c *Context) Keylist() *Series {
	if c.varlist.frame != nil {
		return c.varlist.frame.facade
	}
	return c.varlist.keylist
}

// Kind returns the any-context kind of the archetype.
func (c *Context) Kind() Kind { return c.varlist.cells[0].kind }

// Archetype returns the context's element-0 cell.
func (c *Context) Archetype() *Cell { return &c.varlist.cells[0] }

// Len returns the number of variables (excluding the archetype slot).
func (c *Context) Len() int {
	if f := c.varlist.frame; f != nil {
		return f.NumArgs()
	}
	return c.varlist.Len() - 1
}

// Key returns the typeset key at 1-based index i.
func (c *Context) Key(i int) *Cell { return c.Keylist().At(i) }

// Var returns the variable cell at 1-based index i. For a frame context
// still on the stack, the cell lives on the chunk stack.
func (c *Context) Var(i int) *Cell {
	if f := c.varlist.frame; f != nil {
		return f.Arg(i)
	}
	return c.varlist.At(i)
}

// Inaccessible reports whether the context's variables are gone (a frame
// context whose call has returned).
func (c *Context) Inaccessible() bool { return c.varlist.Inaccessible() }

// Find returns the 1-based index of the key spelled like sp, or 0. Hidden
// keys are not found.
func (c *Context) Find(sp *Spelling) int {
	kl := c.Keylist()
	for i := 1; i < kl.Len(); i++ {
		k := kl.At(i)
		if k.HasFlag(FlagHidden) {
			continue
		}
		if SameWord(k.spelling, sp) {
			return i
		}
	}
	return 0
}

// appendKey adds a key/var pair. The new variable starts out void: an
// unset variable reads as an error, which is the principled default for a
// slot nothing has assigned yet.
func (c *Context) appendKey(sp *Spelling, keyFlags Flags) (*Cell, error) {
	if c.Keylist().SharedKeylist() {
		c.splitKeylist()
	}
	var key Cell
	InitTypeset(&key, allTypes, sp)
	key.flags |= keyFlags
	if err := c.Keylist().Append(key); err != nil {
		return nil, err
	}
	var v Cell
	InitVoid(&v)
	if err := c.varlist.Append(v); err != nil {
		return nil, err
	}
	return c.Var(c.Len()), nil
}

// AppendContext adds a variable named sp and returns its cell, or the
// existing cell if the name is already present.
func AppendContext(c *Context, sp *Spelling) (*Cell, error) {
	if i := c.Find(sp); i != 0 {
		return c.Var(i), nil
	}
	return c.appendKey(sp, 0)
}

// splitKeylist gives the context its own copy of a shared keylist. The
// copy's ancestor is the keylist it was split from, which is what makes
// derived-context override work.
func (c *Context) splitKeylist() {
	shared := c.varlist.keylist
	own := MakeArray(shared.Len())
	own.cells = append(own.cells, shared.cells...)
	own.ancestor = shared
	own.flags = shared.flags &^ seriesSharedKeylist
	c.varlist.keylist = own
}

// ExpandContext grows the context by delta void variables with anonymous
// keys. A shared keylist is cloned exactly once, no matter how many
// expansions follow.
func ExpandContext(c *Context, delta int) error {
	if c.Keylist().SharedKeylist() {
		c.splitKeylist()
	}
	for i := 0; i < delta; i++ {
		var key Cell
		InitTypeset(&key, allTypes, nil)
		if err := c.Keylist().Append(key); err != nil {
			return err
		}
		var v Cell
		InitVoid(&v)
		if err := c.varlist.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// CopyContextShallowExtra copies a context's variables into a new context
// with room for extra more. With extra == 0 the copy shares the original's
// keylist (both get the shared mark); otherwise the keylist is copied
// uniquely with its ancestor pointing at the original's.
func CopyContextShallowExtra(src *Context, extra int) *Context {
	dst := &Context{varlist: MakeArray(src.varlist.Len() + extra)}
	dst.varlist.cells = append(dst.varlist.cells, src.varlist.cells...)

	if extra == 0 {
		kl := src.Keylist()
		kl.flags |= seriesSharedKeylist
		dst.varlist.keylist = kl
	} else {
		kl := MakeArray(src.Keylist().Len() + extra)
		kl.cells = append(kl.cells, src.Keylist().cells...)
		kl.ancestor = src.Keylist()
		dst.varlist.keylist = kl
	}
	InitContext(&dst.varlist.cells[0], src.Kind(), dst)
	return dst
}

// selfSpelling is the hidden SELF key every selfish context carries.
func selfSpelling() *Spelling { return Intern("self") }

// MakeSelfishContextDetect scans values for top-level set-words and builds
// a context of the given kind with one variable per distinct set-word,
// plus a hidden SELF whose value is the context itself. With a parent, the
// new keylist starts from the parent's keys (ancestor chain recorded), the
// parent's values are copied in, and any function value bound to the
// parent is hijacked to carry the derived context in its binding slot so
// that inherited methods see the derived variables.
func MakeSelfishContextDetect(kind Kind, values []Cell, parent *Context) (*Context, error) {
	binder := NewBinder()
	defer binder.Release()

	var names []*Spelling
	collect := func(sp *Spelling) {
		if binder.Add(sp, len(names)+1) {
			names = append(names, sp)
		}
	}
	if parent != nil {
		kl := parent.Keylist()
		for i := 1; i < kl.Len(); i++ {
			collect(kl.At(i).spelling)
		}
	} else {
		collect(selfSpelling())
	}
	for i := range values {
		if values[i].kind == KindSetWord {
			collect(values[i].spelling)
		}
	}
	if parent == nil {
		// SELF was collected first; nothing else to do.
	} else if binder.Add(selfSpelling(), len(names)+1) {
		names = append(names, selfSpelling())
	}

	c := AllocContext(kind, len(names))
	for _, sp := range names {
		flags := Flags(0)
		if SameWord(sp, selfSpelling()) {
			flags = FlagHidden | FlagUnbindable
		}
		if _, err := c.appendKey(sp, flags); err != nil {
			return nil, err
		}
	}

	if parent != nil {
		c.Keylist().ancestor = parent.Keylist()
		for i := 1; i <= parent.Len(); i++ {
			v := c.Var(i)
			MoveValue(v, parent.Var(i))
			// Inherited methods: rebind the function value itself so a
			// call through the derived context sees derived variables.
			if v.kind == KindFunction {
				// Compare by varlist: context wrappers are not canonical,
				// so pointer identity of *Context would miss a binding
				// installed by an earlier derivation.
				if b := v.binding.Context(); (b != nil && b.varlist == parent.varlist) || v.binding.IsUnbound() {
					v.binding = SpecificBinding(c)
				}
			}
		}
	}
	if i, ok := binder.Get(selfSpelling()); ok {
		InitContext(c.Var(i), kind, c)
		c.Var(i).flags = c.Key(i).flags
	}
	return c, nil
}

// MergeContextsSelfish makes a selfish context holding the union of two
// contexts' keys, p2 winning conflicts, with values copied shallowly.
func MergeContextsSelfish(p1, p2 *Context) (*Context, error) {
	merged, err := MakeSelfishContextDetect(p1.Kind(), nil, p1)
	if err != nil {
		return nil, err
	}
	kl := p2.Keylist()
	for i := 1; i < kl.Len(); i++ {
		sp := kl.At(i).spelling
		if sp == nil || kl.At(i).HasFlag(FlagHidden) {
			continue
		}
		v, err := AppendContext(merged, sp)
		if err != nil {
			return nil, err
		}
		MoveValue(v, p2.Var(i))
	}
	return merged, nil
}

// overrides reports whether context over's keylist reaches context under's
// keylist on its ancestor chain — the single rule of derived-context
// override. Paramlists never participate: functions are not derived from
// objects.
func overrides(over, under *Context) bool {
	if over == nil || under == nil {
		return false
	}
	if over == under {
		return true
	}
	target := under.Keylist()
	k := over.Keylist()
	if k.flags&seriesParamlist != 0 || target.flags&seriesParamlist != 0 {
		return false
	}
	for {
		if k == target {
			return true
		}
		if k.ancestor == nil || k.ancestor == k {
			return false
		}
		k = k.ancestor
	}
}
