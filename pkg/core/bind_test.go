package core

import "testing"

// wordsArray builds an unbound array of word-family cells from kind/name
// pairs, managed nowhere so tests can free it.
func wordsArray(pairs ...any) *Series {
	arr := MakeArray(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		var c Cell
		InitWord(&c, pairs[i].(Kind), Intern(pairs[i+1].(string)))
		if err := arr.Append(c); err != nil {
			panic(err)
		}
	}
	return arr
}

func TestBindAddMissing(t *testing.T) {
	ctx := AllocContext(KindObject, 2)
	arr := wordsArray(KindSetWord, "bind-n", KindWord, "bind-n", KindWord, "bind-m")
	defer FreeSeries(arr)

	if err := Bind(arr, ctx, false, true); err != nil {
		t.Fatal(err)
	}
	// The set-word added a key; the plain word of the same spelling bound
	// to it; the unknown plain word stayed unbound.
	if ctx.Len() != 1 {
		t.Fatalf("context Len = %d, want 1", ctx.Len())
	}
	if _, err := GetVar(arr.At(1), Specified); err != nil {
		t.Errorf("bound word does not resolve: %v", err)
	}
	if _, err := GetVar(arr.At(2), Specified); !isErrKind(err, ErrNotBound) {
		t.Errorf("plain word gained a binding without a set-word: %v", err)
	}
}

func TestBindDeep(t *testing.T) {
	ctx := AllocContext(KindObject, 1)
	if _, err := AppendContext(ctx, Intern("bind-deep")); err != nil {
		t.Fatal(err)
	}

	build := func() *Series {
		inner := wordsArray(KindWord, "bind-deep")
		ManageSeries(inner)
		var blk Cell
		InitBlock(&blk, inner)
		arr := MakeArray(1)
		if err := arr.Append(blk); err != nil {
			panic(err)
		}
		return arr
	}

	shallow := build()
	defer FreeSeries(shallow)
	if err := Bind(shallow, ctx, false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := GetVar(shallow.At(0).Series().At(0), Specified); !isErrKind(err, ErrNotBound) {
		t.Errorf("shallow bind descended into a nested array: %v", err)
	}

	deep := build()
	defer FreeSeries(deep)
	if err := Bind(deep, ctx, true, false); err != nil {
		t.Fatal(err)
	}
	if _, err := GetVar(deep.At(0).Series().At(0), Specified); err != nil {
		t.Errorf("deep bind missed a nested word: %v", err)
	}
}

func TestSetVarGetVar(t *testing.T) {
	ctx := AllocContext(KindObject, 1)
	arr := wordsArray(KindSetWord, "svgv", KindWord, "svgv")
	defer FreeSeries(arr)
	if err := Bind(arr, ctx, false, true); err != nil {
		t.Fatal(err)
	}

	var ten Cell
	InitInteger(&ten, 10)
	if err := SetVar(arr.At(0), Specified, &ten); err != nil {
		t.Fatal(err)
	}
	got, err := GetVar(arr.At(1), Specified)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindInteger || got.Int() != 10 {
		t.Errorf("variable = %s, want 10", Mold(got))
	}
}

func TestSetVarProtection(t *testing.T) {
	ctx := AllocContext(KindObject, 1)
	arr := wordsArray(KindSetWord, "prot-v", KindWord, "prot-v")
	defer FreeSeries(arr)
	if err := Bind(arr, ctx, false, true); err != nil {
		t.Fatal(err)
	}
	var one Cell
	InitInteger(&one, 1)
	if err := SetVar(arr.At(0), Specified, &one); err != nil {
		t.Fatal(err)
	}

	v, err := GetVar(arr.At(1), Specified)
	if err != nil {
		t.Fatal(err)
	}
	v.SetFlag(FlagProtected)
	if err := SetVar(arr.At(0), Specified, &one); !isErrKind(err, ErrProtectedWord) {
		t.Errorf("write to protected variable: err = %v", err)
	}
	// Reads still work, and protection survives a later unprotected write
	// attempt.
	if _, err := GetVar(arr.At(1), Specified); err != nil {
		t.Errorf("read of protected variable failed: %v", err)
	}
	v.ClearFlag(FlagProtected)
	if err := SetVar(arr.At(0), Specified, &one); err != nil {
		t.Errorf("write after unprotect failed: %v", err)
	}
}

func TestGetVarUnbound(t *testing.T) {
	var w Cell
	InitWord(&w, KindWord, Intern("never-bound"))
	if _, err := GetVar(&w, Specified); !isErrKind(err, ErrNotBound) {
		t.Errorf("unbound word: err = %v, want not-bound", err)
	}
	got, err := GetVarCore(&w, Specified, GetEndIfUnavailable)
	if err != nil {
		t.Fatalf("end-tolerant lookup failed: %v", err)
	}
	if !IsEnd(got) {
		t.Errorf("end-tolerant lookup of unbound word did not return the end sentinel")
	}
}

func TestGetVarStaleIndexRecovers(t *testing.T) {
	// A word bound before its context grows keeps resolving by spelling
	// even when keys move.
	ctx := AllocContext(KindObject, 2)
	arr := wordsArray(KindSetWord, "stale-a", KindWord, "stale-a")
	defer FreeSeries(arr)
	if err := Bind(arr, ctx, false, true); err != nil {
		t.Fatal(err)
	}
	w := arr.At(1)
	// Forge a wrong index; resolution must fall back to the spelling.
	w.idx = 99
	v, err := GetVar(w, Specified)
	if err != nil {
		t.Fatalf("stale index did not recover: %v", err)
	}
	if v != ctx.Var(1) {
		t.Errorf("stale index resolved to the wrong variable")
	}
}

func TestBindFrameDirect(t *testing.T) {
	Startup()
	var resolved, after Cell
	SetBreakpointHook(func(top *Frame, interrupted bool) (Cell, error) {
		arr := wordsArray(KindWord, "default")
		defer FreeSeries(arr)
		if err := BindFrame(arr, top); err != nil {
			t.Fatal(err)
		}
		// A frame-bound word resolves with no specifier while the frame
		// is on the stack.
		v, err := GetVar(arr.At(0), Specified)
		if err != nil {
			t.Fatalf("frame-bound word: %v", err)
		}
		MoveValue(&resolved, v)
		MoveValue(&after, arr.At(0))

		// Store the word into its own frame's arg cell and collect: the
		// mark walk has to follow the binding back into the frame and
		// terminate.
		MoveValue(top.Arg(1), arr.At(0))
		Recycle()

		var mode, payload, target Cell
		InitLogic(&mode, false)
		InitInteger(&payload, 42)
		InitContext(&target, KindFrame, top.Reify())
		return MakeResumeInstruction(&mode, &payload, &target), nil
	})
	defer SetBreakpointHook(nil)

	got := run(t, "pause", 7)
	if got.Int() != 42 {
		t.Errorf("pause resumed with %s, want 42", Mold(got))
	}
	if resolved.Kind() != KindInteger || resolved.Int() != 7 {
		t.Errorf("default resolved to %s, want 7", Mold(&resolved))
	}
	// The frame is gone; its bindings are too.
	if _, err := GetVar(&after, Specified); !isErrKind(err, ErrNoRelative) {
		t.Errorf("word bound to a dropped frame resolved: %v", err)
	}
}

func TestBindFrameSkipsForeignWords(t *testing.T) {
	Startup()
	SetBreakpointHook(func(top *Frame, interrupted bool) (Cell, error) {
		arr := wordsArray(KindWord, "bind-frame-none")
		defer FreeSeries(arr)
		if err := BindFrame(arr, top); err != nil {
			t.Fatal(err)
		}
		if _, err := GetVar(arr.At(0), Specified); !isErrKind(err, ErrNotBound) {
			t.Errorf("word naming no param gained a binding: %v", err)
		}
		var void Cell
		InitVoid(&void)
		return void, nil
	})
	defer SetBreakpointHook(nil)
	run(t, "pause", 1)
}
