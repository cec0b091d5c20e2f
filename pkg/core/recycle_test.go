package core

import "testing"

func TestRecycleSweepsUnreachable(t *testing.T) {
	Startup()
	garbage := MakeArray(4)
	ManageSeries(garbage)
	Recycle()
	if !garbage.Inaccessible() {
		t.Errorf("unreachable managed series survived a collection")
	}
}

func TestRecycleKeepsManuals(t *testing.T) {
	Startup()
	arr := MakeArray(2)
	defer FreeSeries(arr)
	if err := arr.Append(intCell(1)); err != nil {
		t.Fatal(err)
	}
	// A managed series reachable only from a manual one stays live.
	inner := MakeArray(0)
	ManageSeries(inner)
	var blk Cell
	InitBlock(&blk, inner)
	if err := arr.Append(blk); err != nil {
		t.Fatal(err)
	}

	Recycle()
	if arr.Inaccessible() || inner.Inaccessible() {
		t.Errorf("series reachable from the manuals list was swept")
	}
}

func TestGuardSeries(t *testing.T) {
	Startup()
	s := MakeArray(1)
	ManageSeries(s)
	release := GuardSeries(s)
	Recycle()
	if s.Inaccessible() {
		t.Fatalf("guarded series was swept")
	}
	release()
	Recycle()
	if !s.Inaccessible() {
		t.Errorf("series survived after its guard was released")
	}
}

func TestGuardCell(t *testing.T) {
	Startup()
	s := MakeArray(1)
	ManageSeries(s)
	var c Cell
	InitBlock(&c, s)
	release := GuardCell(&c)
	defer release()
	Recycle()
	if s.Inaccessible() {
		t.Errorf("series reachable from a guarded cell was swept")
	}
}

func TestManageArrayDeep(t *testing.T) {
	Startup()
	inner := MakeArray(0)
	outer := MakeArray(1)
	var blk Cell
	InitBlock(&blk, inner)
	if err := outer.Append(blk); err != nil {
		t.Fatal(err)
	}
	ManageArrayDeep(outer)
	if !outer.Managed() || !inner.Managed() {
		t.Fatalf("deep manage missed a nested series")
	}
	// Both are unreachable, so both go in one sweep.
	Recycle()
	if !outer.Inaccessible() || !inner.Inaccessible() {
		t.Errorf("deep-managed garbage survived")
	}
}

func TestRootContextsSurvive(t *testing.T) {
	Startup()
	before := Lib().Len()
	Recycle()
	if Lib().Varlist().Inaccessible() {
		t.Fatalf("lib context was swept")
	}
	if Lib().Len() != before {
		t.Errorf("lib lost variables across a collection")
	}
}

func TestFreedSeriesDetected(t *testing.T) {
	s := MakeArray(1)
	FreeSeries(s)
	if !s.Inaccessible() {
		t.Fatalf("freed series does not read as inaccessible")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("use of a freed series did not panic")
		}
	}()
	s.At(0)
}

func TestRecycleNative(t *testing.T) {
	Startup()
	got := run(t, "recycle")
	if got.Kind() != KindInteger || got.Int() < 0 {
		t.Errorf("recycle = %s, want a sweep count", Mold(got))
	}
}

func TestFreeArrayDeep(t *testing.T) {
	Startup()
	outer := MakeArray(2)
	inner := MakeArray(1)
	if err := inner.Append(intCell(7)); err != nil {
		t.Fatal(err)
	}
	var blk Cell
	InitBlock(&blk, inner)
	if err := outer.Append(blk); err != nil {
		t.Fatal(err)
	}
	managedSub := MakeArray(0)
	ManageSeries(managedSub)
	var mblk Cell
	InitBlock(&mblk, managedSub)
	if err := outer.Append(mblk); err != nil {
		t.Fatal(err)
	}

	FreeArrayDeep(outer)
	if !outer.Inaccessible() || !inner.Inaccessible() {
		t.Errorf("deep free left an unmanaged series live")
	}
	// Managed substructure belongs to the collector; a deep free must
	// leave it alone.
	if managedSub.Inaccessible() {
		t.Errorf("deep free retired a managed series")
	}
	// Freeing the same tree again is a no-op, not a double free.
	FreeArrayDeep(outer)
}
