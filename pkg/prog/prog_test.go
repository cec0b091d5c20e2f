package prog

import (
	"errors"
	"os"
	"testing"

	"github.com/lore-lang/lore/pkg/must"
)

type fixedProgram struct {
	ran bool
	err error
}

func (p *fixedProgram) Run(fds [3]*os.File, f *Flags, args []string) error {
	p.ran = true
	return p.err
}

func run(args []string, p Program) int {
	devnull := must.OK1(os.OpenFile(os.DevNull, os.O_RDWR, 0))
	defer devnull.Close()
	return Run([3]*os.File{devnull, devnull, devnull}, args, p)
}

func TestRunOK(t *testing.T) {
	p := &fixedProgram{}
	if exit := run([]string{"lore"}, p); exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if !p.ran {
		t.Errorf("program did not run")
	}
}

func TestRunBadFlag(t *testing.T) {
	p := &fixedProgram{}
	if exit := run([]string{"lore", "-bad-flag"}, p); exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
	if p.ran {
		t.Errorf("program ran despite flag error")
	}
}

func TestRunHelp(t *testing.T) {
	p := &fixedProgram{}
	if exit := run([]string{"lore", "-help"}, p); exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if p.ran {
		t.Errorf("program ran despite -help")
	}
}

func TestRunExitError(t *testing.T) {
	p := &fixedProgram{err: Exit(3)}
	if exit := run([]string{"lore"}, p); exit != 3 {
		t.Errorf("exit = %d, want 3", exit)
	}
}

func TestRunBadUsage(t *testing.T) {
	p := &fixedProgram{err: BadUsage("need an argument")}
	if exit := run([]string{"lore"}, p); exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
}

func TestComposite(t *testing.T) {
	first := &fixedProgram{err: ErrNotSuitable}
	second := &fixedProgram{}
	if exit := run([]string{"lore"}, Composite(first, second)); exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if !first.ran || !second.ran {
		t.Errorf("composite skipped a program: first %v, second %v", first.ran, second.ran)
	}
}

func TestCompositeNoneSuitable(t *testing.T) {
	p := &fixedProgram{err: ErrNotSuitable}
	if exit := run([]string{"lore"}, Composite(p)); exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
	if !errors.Is(ErrNotSuitable, ErrNotSuitable) {
		t.Errorf("ErrNotSuitable does not match itself")
	}
}
