package core

import "testing"

func TestAppendContextAndFind(t *testing.T) {
	c := AllocContext(KindObject, 2)
	if c.Len() != 0 {
		t.Fatalf("fresh context Len = %d, want 0", c.Len())
	}
	v, err := AppendContext(c, Intern("alpha"))
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindVoid {
		t.Errorf("new variable kind = %v, want void", v.Kind())
	}
	if c.Len() != 1 {
		t.Errorf("Len after append = %d, want 1", c.Len())
	}
	if i := c.Find(Intern("ALPHA")); i != 1 {
		t.Errorf("case-insensitive Find = %d, want 1", i)
	}
	if i := c.Find(Intern("beta")); i != 0 {
		t.Errorf("Find on absent key = %d, want 0", i)
	}

	// Appending an existing name returns the same cell.
	again, err := AppendContext(c, Intern("Alpha"))
	if err != nil {
		t.Fatal(err)
	}
	if again != v {
		t.Errorf("AppendContext on existing key returned a new cell")
	}
}

func TestContextKeyVarParity(t *testing.T) {
	c := AllocContext(KindObject, 4)
	for _, name := range []string{"one", "two", "three"} {
		if _, err := AppendContext(c, Intern(name)); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := c.Keylist().Len(), c.Varlist().Len(); got != want {
		t.Errorf("keylist len %d != varlist len %d", got, want)
	}
	for i := 1; i <= c.Len(); i++ {
		if c.Key(i).Spelling() == nil {
			t.Errorf("key %d has no spelling", i)
		}
	}
}

func TestSharedKeylistSingleClone(t *testing.T) {
	src := AllocContext(KindObject, 2)
	if _, err := AppendContext(src, Intern("shared-a")); err != nil {
		t.Fatal(err)
	}

	cp := CopyContextShallowExtra(src, 0)
	if cp.Keylist() != src.Keylist() {
		t.Fatalf("zero-extra copy did not share the keylist")
	}
	if !src.Keylist().SharedKeylist() {
		t.Errorf("shared keylist is not marked shared")
	}

	// First expansion clones the keylist; later ones must not.
	if _, err := AppendContext(cp, Intern("shared-b")); err != nil {
		t.Fatal(err)
	}
	cloned := cp.Keylist()
	if cloned == src.Keylist() {
		t.Fatalf("expansion did not clone the shared keylist")
	}
	if cloned.ancestor != src.Keylist() {
		t.Errorf("clone's ancestor does not point at the original keylist")
	}
	if _, err := AppendContext(cp, Intern("shared-c")); err != nil {
		t.Fatal(err)
	}
	if cp.Keylist() != cloned {
		t.Errorf("second expansion cloned the keylist again")
	}

	// The original still sees only its own key.
	if src.Len() != 1 {
		t.Errorf("original Len = %d after copy expansion, want 1", src.Len())
	}
	if cp.Len() != 3 {
		t.Errorf("copy Len = %d, want 3", cp.Len())
	}
}

func TestSelfIsHidden(t *testing.T) {
	c, err := MakeSelfishContextDetect(KindObject, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// SELF occupies a slot but is invisible to Find and binding.
	if c.Len() != 1 {
		t.Fatalf("selfish context Len = %d, want 1", c.Len())
	}
	if i := c.Find(Intern("self")); i != 0 {
		t.Errorf("Find located the hidden self key at %d", i)
	}
	if !c.Key(1).HasFlag(FlagHidden | FlagUnbindable) {
		t.Errorf("self key is not hidden and unbindable")
	}
	if c.Var(1).Kind() != KindObject || c.Var(1).Series() != c.Varlist() {
		t.Errorf("self variable does not name its own context")
	}
}

func TestOverridesChain(t *testing.T) {
	base, err := MakeSelfishContextDetect(KindObject, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	mid, err := MakeSelfishContextDetect(KindObject, nil, base)
	if err != nil {
		t.Fatal(err)
	}
	top, err := MakeSelfishContextDetect(KindObject, nil, mid)
	if err != nil {
		t.Fatal(err)
	}

	if !overrides(top, mid) || !overrides(top, base) {
		t.Errorf("derived context does not override its ancestors")
	}
	if !overrides(mid, base) {
		t.Errorf("mid does not override base")
	}
	if overrides(base, top) || overrides(mid, top) {
		t.Errorf("ancestor overrides its descendant")
	}
	if !overrides(base, base) {
		t.Errorf("context does not override itself")
	}

	other, err := MakeSelfishContextDetect(KindObject, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if overrides(top, other) || overrides(other, base) {
		t.Errorf("unrelated contexts override each other")
	}
}

func TestMergeContextsSelfish(t *testing.T) {
	p1 := AllocContext(KindObject, 2)
	v, _ := AppendContext(p1, Intern("merge-x"))
	InitInteger(v, 1)
	v, _ = AppendContext(p1, Intern("merge-y"))
	InitInteger(v, 2)

	p2 := AllocContext(KindObject, 2)
	v, _ = AppendContext(p2, Intern("merge-y"))
	InitInteger(v, 20)
	v, _ = AppendContext(p2, Intern("merge-z"))
	InitInteger(v, 30)

	m, err := MergeContextsSelfish(p1, p2)
	if err != nil {
		t.Fatal(err)
	}
	read := func(name string) int64 {
		t.Helper()
		i := m.Find(Intern(name))
		if i == 0 {
			t.Fatalf("merged context lacks %s", name)
		}
		return m.Var(i).Int()
	}
	if got := read("merge-x"); got != 1 {
		t.Errorf("merge-x = %d, want 1", got)
	}
	if got := read("merge-y"); got != 20 {
		t.Errorf("merge-y = %d, want 20 (second context wins)", got)
	}
	if got := read("merge-z"); got != 30 {
		t.Errorf("merge-z = %d, want 30", got)
	}
}
