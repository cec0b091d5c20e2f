package diag

import (
	"strings"
	"testing"

	"github.com/lore-lang/lore/pkg/tt"
)

func TestRanging(t *testing.T) {
	tt.Test(t, tt.Fn("PointRanging", PointRanging), tt.Table{
		tt.Args(3).Rets(Ranging{3, 3}),
	})
	tt.Test(t, tt.Fn("MixedRanging", MixedRanging), tt.Table{
		tt.Args(Ranging{1, 4}, Ranging{6, 9}).Rets(Ranging{1, 9}),
	})
}

func TestContextShow(t *testing.T) {
	c := NewContext("script.lore", "foo: bar/baz 1.5", Ranging{5, 12})
	got := c.Show("  ")
	if !strings.Contains(got, "script.lore, line 1:") {
		t.Errorf("Show missing position description: %q", got)
	}
	if !strings.Contains(got, "bar/baz") {
		t.Errorf("Show missing culprit text: %q", got)
	}
}

func TestContextShowMultiline(t *testing.T) {
	src := "first [\nsecond\nthird]"
	c := NewContext("input", src, Ranging{6, len(src)})
	if want := "line 1-3:"; !strings.Contains(c.Show(""), want) {
		t.Errorf("Show missing %q: %q", want, c.Show(""))
	}
}

func TestContextShowInvalidPosition(t *testing.T) {
	c := NewContext("input", "abc", Ranging{-1, -1})
	if want := "unknown position"; !strings.Contains(c.Show(""), want) {
		t.Errorf("Show missing %q: %q", want, c.Show(""))
	}
}

func TestErrorShow(t *testing.T) {
	e := &Error{
		Type:    "syntax error",
		Message: "invalid syntax",
		Context: *NewContext("input", "1abc", Ranging{0, 4}),
	}
	if got := e.Show(""); !strings.HasPrefix(got, "Syntax error:") {
		t.Errorf("Show = %q, want Syntax error header", got)
	}
	if got := e.Error(); !strings.Contains(got, "0-4 in input") {
		t.Errorf("Error = %q, want position range", got)
	}
	if got := e.Range(); got != (Ranging{0, 4}) {
		t.Errorf("Range = %v, want {0 4}", got)
	}
}

func TestShowError(t *testing.T) {
	var sb strings.Builder
	save := stderr
	stderr = &sb
	defer func() { stderr = save }()

	ShowError(&Error{
		Type:    "scan error",
		Message: "missing ]",
		Context: *NewContext("input", "block [", Ranging{6, 7}),
	})
	if !strings.Contains(sb.String(), "missing ]") {
		t.Errorf("ShowError wrote %q, want shown error", sb.String())
	}

	sb.Reset()
	Complainf("no such %s", "file")
	if !strings.Contains(sb.String(), "no such file") {
		t.Errorf("Complainf wrote %q", sb.String())
	}
}
