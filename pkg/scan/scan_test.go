package scan

import (
	"errors"
	"os"
	"testing"

	"github.com/lore-lang/lore/pkg/core"
	"github.com/lore-lang/lore/pkg/tt"
)

var Args = tt.Args

func TestMain(m *testing.M) {
	// Construct scanning and Load bind into lib.
	core.Startup()
	os.Exit(m.Run())
}

// rescan scans src and molds the result back to source text. Errors
// fold into the return value so tables can assert on them too.
func rescan(src string) string {
	arr, err := Scan([]byte(src), "test.lore")
	if err != nil {
		var coreErr *core.Error
		if errors.As(err, &coreErr) {
			return "error: " + string(coreErr.Kind)
		}
		return "error: " + err.Error()
	}
	var b core.Cell
	core.InitBlock(&b, arr)
	m := core.Mold(&b)
	return m[1 : len(m)-1]
}

func TestScanRoundTrip(t *testing.T) {
	tt.Test(t, tt.Fn("rescan", rescan), tt.Table{
		Args("1 2 3").Rets("1 2 3"),
		Args("foo: bar/baz 1.5").Rets("foo: bar/baz 1.5"),
		Args("'foo :bar").Rets("'foo :bar"),
		Args("a/b: 10").Rets("a/b: 10"),
		Args(":a/b 'a/b").Rets(":a/b 'a/b"),
		Args("(1 2) [3 [4]]").Rets("(1 2) [3 [4]]"),
		Args(`"abc"`).Rets(`"abc"`),
		Args("{a\nb}").Rets("{a\nb}"),
		Args(`{say "hi"}`).Rets(`{say "hi"}`),
		Args(`#"a" #"^/"`).Rets(`#"a" #"^/"`),
		Args("%foo.r %dir/file.txt").Rets("%foo.r %dir/file.txt"),
		Args(`<a href="x">`).Rets(`<a href="x">`),
		Args("<= <> << < >").Rets("<= <> << < >"),
		Args("#{DEADBEEF}").Rets("#{DEADBEEF}"),
		Args("#123-ab").Rets("#123-ab"),
		Args("1.2.3 100.200.255").Rets("1.2.3 100.200.255"),
		Args("$1.50 -$0.25").Rets("$1.50 -$0.25"),
		Args("10:30").Rets("10:30:00"),
		Args("0:00:01.5").Rets("0:00:01.5"),
		Args("3x4").Rets("3x4"),
		Args("25%").Rets("25%"),
		Args("1e3").Rets("1000.0"),
		Args("12-Dec-2012").Rets("12-Dec-2012"),
		Args("2012-12-12").Rets("12-Dec-2012"),
		Args("bob@example.com").Rets("bob@example.com"),
		Args("http://example.com/index.html").Rets("http://example.com/index.html"),
		Args("mailto:bob").Rets("mailto:bob"),
		Args("/only /local").Rets("/only /local"),
		Args("/").Rets("/"),
		Args("a//b a/").Rets("a//b a/"),
		Args("| '|").Rets("| '|"),
		Args("_").Rets("_"),
	})
}

func TestScanConstructs(t *testing.T) {
	tt.Test(t, tt.Fn("rescan", rescan), tt.Table{
		Args("#[true] #[false]").Rets("#[true] #[false]"),
		Args("#[on] #[yes]").Rets("#[true] #[true]"),
		Args("#[off] #[no]").Rets("#[false] #[false]"),
		Args("#[none]").Rets("_"),
		Args("#[logic! 1] #[logic! 0]").Rets("#[true] #[false]"),
		Args("#[block! [1 2]]").Rets("[1 2]"),
		Args("#[bitset! #{70}]").Rets("#[bitset! #{70}]"),
	})
}

func TestScanNewlineMarkers(t *testing.T) {
	tt.Test(t, tt.Fn("rescan", rescan), tt.Table{
		Args("nl-a\nnl-b").Rets("nl-a\nnl-b"),
		Args("nl-a ;comment\nnl-b").Rets("nl-a\nnl-b"),
		Args("nl-a nl-b").Rets("nl-a nl-b"),
	})
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind core.ErrKind
	}{
		{"[a b", core.ErrMissing},
		{"(a b", core.ErrMissing},
		{`"unclosed`, core.ErrMissing},
		{"{unclosed", core.ErrMissing},
		{"#[true", core.ErrMissing},
		{"(a]", core.ErrMismatch},
		{"[a)", core.ErrMismatch},
		{"a]", core.ErrExtra},
		{"a)", core.ErrExtra},
		{"a}", core.ErrExtra},
		{"#[frob!]", core.ErrMalconstruct},
		{"#[block! 1]", core.ErrMalconstruct},
		{":1a", core.ErrSyntax},
		{"2abc", core.ErrSyntax},
		{`\`, core.ErrSyntax},
		{"a/2: 1", core.ErrSyntax},
		{"1.2.300", core.ErrSyntax},
		{"25:70:00", core.ErrSyntax},
		{"\xff\xfe", core.ErrSyntax},
	}
	for _, test := range tests {
		_, err := Scan([]byte(test.src), "test.lore")
		var coreErr *core.Error
		if !errors.As(err, &coreErr) {
			t.Errorf("Scan(%q) error = %v, want *core.Error", test.src, err)
			continue
		}
		if coreErr.Kind != test.kind {
			t.Errorf("Scan(%q) error kind = %s, want %s", test.src, coreErr.Kind, test.kind)
		}
	}
}

func TestScanErrorPosition(t *testing.T) {
	_, err := Scan([]byte("ok-1\nok-2\n{never closed"), "pos.lore")
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("error = %v, want *core.Error", err)
	}
	if coreErr.Kind != core.ErrMissing {
		t.Errorf("kind = %s, want %s", coreErr.Kind, core.ErrMissing)
	}
	if coreErr.Line != 3 {
		t.Errorf("line = %d, want 3", coreErr.Line)
	}
	if coreErr.File != "pos.lore" {
		t.Errorf("file = %q, want pos.lore", coreErr.File)
	}
}

func TestScanRelaxInlineErrors(t *testing.T) {
	arr, errs := ScanRelax([]byte(`relax-a \ relax-b \ relax-c`), "relax.lore")
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	for i, e := range errs {
		if e.Kind != core.ErrSyntax {
			t.Errorf("errs[%d].Kind = %s, want %s", i, e.Kind, core.ErrSyntax)
		}
	}
	wantKinds := []core.Kind{
		core.KindWord, core.KindError, core.KindWord, core.KindError, core.KindWord,
	}
	if arr.Len() != len(wantKinds) {
		t.Fatalf("got %d values, want %d", arr.Len(), len(wantKinds))
	}
	for i, k := range wantKinds {
		if arr.At(i).Kind() != k {
			t.Errorf("value %d kind = %v, want %v", i, arr.At(i).Kind(), k)
		}
	}
}

func TestScanRelaxMalconstruct(t *testing.T) {
	arr, errs := ScanRelax([]byte("relax-d #[frob!] relax-e"), "relax.lore")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Kind != core.ErrMalconstruct {
		t.Errorf("kind = %s, want %s", errs[0].Kind, core.ErrMalconstruct)
	}
	if arr.Len() != 3 || arr.At(1).Kind() != core.KindError {
		t.Errorf("values do not carry the inline error: %s", core.Mold(mustBlock(arr)))
	}
}

// Relax mode still fails hard on structural errors; a lost closer is
// not recoverable.
func TestScanRelaxStructural(t *testing.T) {
	_, errs := ScanRelax([]byte("[never closed"), "relax.lore")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Kind != core.ErrMissing {
		t.Errorf("kind = %s, want %s", errs[0].Kind, core.ErrMissing)
	}
}

func mustBlock(arr *core.Series) *core.Cell {
	var b core.Cell
	core.InitBlock(&b, arr)
	return &b
}

func TestTranscode(t *testing.T) {
	arr, rest, err := Transcode([]byte("tr-a tr-b tr-c"), "tr.lore", 1)
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}
	if arr.Len() != 1 || arr.At(0).Kind() != core.KindWord {
		t.Fatalf("got %d values, want one word", arr.Len())
	}
	if string(rest) != " tr-b tr-c" {
		t.Errorf("rest = %q, want %q", rest, " tr-b tr-c")
	}

	arr, rest, err = Transcode(rest, "tr.lore", 1)
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}
	if arr.Len() != 1 || string(rest) != " tr-c" {
		t.Errorf("second step: %d values, rest %q", arr.Len(), rest)
	}
}

func TestTranscodeEmpty(t *testing.T) {
	arr, rest, err := Transcode([]byte("  ; just a comment"), "tr.lore", 1)
	if err != nil {
		t.Fatalf("Transcode error: %v", err)
	}
	if arr.Len() != 0 {
		t.Errorf("got %d values, want 0", arr.Len())
	}
	if rest != nil {
		t.Errorf("rest = %q, want nil", rest)
	}
}

func TestTranscodeExtraCloser(t *testing.T) {
	_, _, err := Transcode([]byte(" ] tr-d"), "tr.lore", 1)
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != core.ErrExtra {
		t.Errorf("error = %v, want extra", err)
	}
}

func TestLoadBinds(t *testing.T) {
	arr, err := Load([]byte("load-x: 41 add load-x 1"), "load.lore")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	var out core.Cell
	if err := core.DoArray(&out, arr, 0, core.Specified); err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if out.Kind() != core.KindInteger || out.Int() != 42 {
		t.Errorf("result = %s, want 42", core.Mold(&out))
	}
}
