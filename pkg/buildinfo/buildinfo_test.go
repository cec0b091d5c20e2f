package buildinfo

import (
	"os"
	"strings"
	"testing"

	"github.com/lore-lang/lore/pkg/core"
	"github.com/lore-lang/lore/pkg/must"
	"github.com/lore-lang/lore/pkg/prog"
)

func TestVersionTuple(t *testing.T) {
	v := VersionTuple()
	if got := core.Mold(&v); got != Version {
		t.Errorf("VersionTuple molds to %q, want %q", got, Version)
	}
}

func TestProgram(t *testing.T) {
	out := runWith(t, &prog.Flags{Version: true})
	if want := Version + VersionSuffix; strings.TrimSpace(out) != want {
		t.Errorf("-version printed %q, want %q", out, want)
	}

	out = runWith(t, &prog.Flags{BuildInfo: true})
	if !strings.Contains(out, "Version: "+Version+VersionSuffix) {
		t.Errorf("-buildinfo printed %q", out)
	}

	out = runWith(t, &prog.Flags{BuildInfo: true, JSON: true})
	if !strings.Contains(out, `"version":`) {
		t.Errorf("-buildinfo -json printed %q", out)
	}

	if err := Program.Run([3]*os.File{}, &prog.Flags{}, nil); err != prog.ErrNotSuitable {
		t.Errorf("ran without -version or -buildinfo: %v", err)
	}
}

func runWith(t *testing.T, f *prog.Flags) string {
	t.Helper()
	r, w := must.OK2(os.Pipe())
	must.OK(Program.Run([3]*os.File{nil, w, nil}, f, nil))
	w.Close()
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	r.Close()
	return string(buf[:n])
}
