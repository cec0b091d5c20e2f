package core

import "testing"

func TestInternIdentity(t *testing.T) {
	a := Intern("intern-identity")
	b := Intern("intern-identity")
	if a != b {
		t.Errorf("Intern returned distinct nodes for the same text")
	}
	if a.Text() != "intern-identity" {
		t.Errorf("Text() = %q, want %q", a.Text(), "intern-identity")
	}
	c := Intern("intern-identity-other")
	if c == a {
		t.Errorf("distinct texts interned to the same node")
	}
}

func TestSynonymRing(t *testing.T) {
	lower := Intern("ring-word")
	upper := Intern("Ring-Word")
	if lower == upper {
		t.Fatalf("case variants interned to the same node")
	}
	if !SameWord(lower, upper) {
		t.Errorf("SameWord(%q, %q) = false, want true", lower.Text(), upper.Text())
	}
	if !lower.IsCanon() {
		t.Errorf("first interned spelling is not the canon")
	}
	if upper.IsCanon() {
		t.Errorf("later case variant became a canon")
	}
	if upper.Canon() != lower {
		t.Errorf("variant's canon is not the first interned spelling")
	}
	if upper.Text() != "Ring-Word" {
		t.Errorf("variant lost its original case: %q", upper.Text())
	}
	if got := FindCanon("RING-WORD"); got != lower {
		t.Errorf("FindCanon with a third case variant = %v, want the canon", got)
	}
}

func TestCanonPromotion(t *testing.T) {
	canon := Intern("promo-word")
	variant := Intern("Promo-Word")
	if variant.IsCanon() {
		t.Fatalf("variant should not start as canon")
	}

	// Keep only the variant reachable: an unmanaged array is a GC root.
	arr := MakeArray(1)
	var w Cell
	InitWord(&w, KindWord, variant)
	if err := arr.Append(w); err != nil {
		t.Fatal(err)
	}
	Recycle()
	FreeSeries(arr)

	if !variant.IsCanon() {
		t.Errorf("surviving synonym was not promoted to canon")
	}
	if got := FindCanon("promo-word"); got != variant {
		t.Errorf("FindCanon after promotion = %v, want the promoted variant", got)
	}
	_ = canon
}

func TestBinder(t *testing.T) {
	b := NewBinder()
	defer b.Release()
	if !b.Add(Intern("binder-x"), 1) {
		t.Errorf("Add on a fresh canon = false, want true")
	}
	if b.Add(Intern("Binder-X"), 2) {
		t.Errorf("Add on a case variant of a recorded canon = true, want false")
	}
	if i, ok := b.Get(Intern("BINDER-X")); !ok || i != 1 {
		t.Errorf("Get through a case variant = (%d, %v), want (1, true)", i, ok)
	}
	if _, ok := b.Get(Intern("binder-y")); ok {
		t.Errorf("Get on an unrecorded canon reported ok")
	}
}
