// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X github.com/lore-lang/lore/pkg/buildinfo.Var=value" to
// "go build".
package buildinfo

import (
	"fmt"
	"os"
	"runtime"

	"github.com/lore-lang/lore/pkg/core"
	"github.com/lore-lang/lore/pkg/prog"
)

// Version identifies the version of Lore. On development commits, it
// identifies the next release.
const Version = "0.3.0"

// VersionSuffix is appended to Version in the output of "lore -version"
// and "lore -buildinfo" to build the full version string. It can be
// overridden when building Lore.
var VersionSuffix = "-dev.unknown"

// Reproducible identifies whether the build is reproducible. It can be
// overridden when building Lore.
var Reproducible = "false"

// VersionTuple returns the numeric version as a tuple value, the form
// scripts see it in.
func VersionTuple() core.Cell {
	var major, minor, patch int
	fmt.Sscanf(Version, "%d.%d.%d", &major, &minor, &patch)
	var v core.Cell
	if err := core.InitTuple(&v, []byte{byte(major), byte(minor), byte(patch)}); err != nil {
		panic(err)
	}
	return v
}

// Program is the buildinfo subprogram.
var Program prog.Program = program{}

type program struct{}

func (program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	switch {
	case f.BuildInfo:
		if f.JSON {
			fmt.Fprintf(fds[1],
				`{"version":%q,"goversion":%q,"reproducible":%v}`+"\n",
				Version+VersionSuffix, runtime.Version(), Reproducible)
		} else {
			fmt.Fprintln(fds[1], "Version:", Version+VersionSuffix)
			fmt.Fprintln(fds[1], "Go version:", runtime.Version())
			fmt.Fprintln(fds[1], "Reproducible build:", Reproducible)
		}
		return nil
	case f.Version:
		fmt.Fprintln(fds[1], Version+VersionSuffix)
		return nil
	}
	return prog.ErrNotSuitable
}
