package core

import (
	"testing"

	"github.com/lore-lang/lore/pkg/tt"
)

func moldCell(c Cell) string { return Mold(&c) }

func wordC(kind Kind, name string) Cell {
	var c Cell
	InitWord(&c, kind, Intern(name))
	return c
}

func TestMoldScalars(t *testing.T) {
	logic := func(v bool) Cell {
		var c Cell
		InitLogic(&c, v)
		return c
	}
	percent := func(v float64) Cell {
		var c Cell
		InitPercent(&c, v)
		return c
	}
	blank := Cell{}
	InitBlank(&blank)

	tt.Test(t, tt.Fn("Mold", moldCell), tt.Table{
		Args(intC(42)).Rets("42"),
		Args(intC(-7)).Rets("-7"),
		Args(decC(3.5)).Rets("3.5"),
		// A round decimal keeps its point so it rescans as a decimal.
		Args(decC(1000)).Rets("1000.0"),
		Args(logic(true)).Rets("#[true]"),
		Args(logic(false)).Rets("#[false]"),
		Args(blank).Rets("_"),
		Args(percent(0.25)).Rets("25%"),
		Args(moneyC(37500)).Rets("$3.75"),
		Args(moneyC(-12500)).Rets("-$1.25"),
		Args(moneyC(15590)).Rets("$1.559"),
		Args(tupleC(1, 9, 3)).Rets("1.9.3"),
		Args(charCell('a')).Rets(`#"a"`),
		Args(charCell('\n')).Rets(`#"^/"`),
		Args(timeC(10, 30, 0)).Rets("10:30:00"),
	})
}

func TestMoldTimeFraction(t *testing.T) {
	var c Cell
	InitTime(&c, int64(1500)*1_000_000) // 1.5 seconds
	if got := Mold(&c); got != "0:00:01.5" {
		t.Errorf("mold = %s, want 0:00:01.5", got)
	}
	InitTimeParts(&c, true, 2, 15, 0)
	if got := Mold(&c); got != "-2:15:00" {
		t.Errorf("mold = %s, want -2:15:00", got)
	}
}

func TestMoldDate(t *testing.T) {
	var c Cell
	InitDate(&c, 2012, 12, 12)
	if got := Mold(&c); got != "12-Dec-2012" {
		t.Errorf("mold = %s, want 12-Dec-2012", got)
	}
	InitDate(&c, 1999, 1, 5)
	if got := Mold(&c); got != "5-Jan-1999" {
		t.Errorf("mold = %s, want 5-Jan-1999", got)
	}
}

func TestMoldWords(t *testing.T) {
	tt.Test(t, tt.Fn("Mold", moldCell), tt.Table{
		Args(wordC(KindWord, "foo")).Rets("foo"),
		Args(wordC(KindSetWord, "foo")).Rets("foo:"),
		Args(wordC(KindGetWord, "foo")).Rets(":foo"),
		Args(wordC(KindLitWord, "foo")).Rets("'foo"),
		Args(wordC(KindRefinement, "only")).Rets("/only"),
		Args(wordC(KindIssue, "123-ab")).Rets("#123-ab"),
	})
}

func TestMoldStrings(t *testing.T) {
	str := func(text string) Cell { return strCell(text) }
	tt.Test(t, tt.Fn("Mold", moldCell), tt.Table{
		Args(str("abc")).Rets(`"abc"`),
		// Newlines and embedded quotes push the text into brace form.
		Args(str("a\nb")).Rets("{a\nb}"),
		Args(str(`say "hi"`)).Rets(`{say "hi"}`),
		Args(str("a^b")).Rets(`"a^^b"`),
		Args(str("a\tb")).Rets(`"a^-b"`),
	})
}

func TestFormStrings(t *testing.T) {
	c := strCell("a\nb")
	if got := Form(&c); got != "a\nb" {
		t.Errorf("form = %q, want the raw text", got)
	}
	w := wordC(KindLitWord, "foo")
	if got := Form(&w); got != "'foo" {
		t.Errorf("form lit-word = %q", got)
	}
}

func TestMoldArrays(t *testing.T) {
	arr := progArray(1, 2, 3)
	var c Cell
	InitBlock(&c, arr)
	if got := Mold(&c); got != "[1 2 3]" {
		t.Errorf("mold block = %s", got)
	}

	InitSeries(&c, KindGroup, progArray("add", 1, 2), 0)
	if got := Mold(&c); got != "(add 1 2)" {
		t.Errorf("mold group = %s", got)
	}

	// A newline flag on an element breaks the line before it.
	arr = progArray("a", "b")
	arr.At(1).SetFlag(FlagNewline)
	InitBlock(&c, arr)
	if got := Mold(&c); got != "[a\nb]" {
		t.Errorf("mold with newline flag = %q", got)
	}
}

func TestMoldPaths(t *testing.T) {
	tt.Test(t, tt.Fn("Mold", moldCell), tt.Table{
		Args(pathOf(KindPath, "a", "b", 2)).Rets("a/b/2"),
		Args(pathOf(KindSetPath, "a", 2)).Rets("a/2:"),
		Args(pathOf(KindGetPath, "a", "b")).Rets(":a/b"),
		Args(pathOf(KindLitPath, "a", "b")).Rets("'a/b"),
	})
}

func TestMoldObject(t *testing.T) {
	Startup()
	got := run(t, "mold", "make", "object!", blockOf("mo-a:", 1, "mo-b:", strCell("hi")))
	want := `make object! [mo-a: 1 mo-b: "hi"]`
	if string(got.Series().Runes()) != want {
		t.Errorf("mold object = %s, want %s", Mold(got), want)
	}
}
