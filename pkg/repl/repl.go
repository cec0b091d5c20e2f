// Package repl implements the console subprogram: the interactive
// read-scan-eval loop, script execution, -c one-liners, and the
// -compileonly checker.
package repl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/lore-lang/lore/pkg/buildinfo"
	"github.com/lore-lang/lore/pkg/core"
	"github.com/lore-lang/lore/pkg/diag"
	"github.com/lore-lang/lore/pkg/logutil"
	"github.com/lore-lang/lore/pkg/prog"
	"github.com/lore-lang/lore/pkg/scan"
	"github.com/lore-lang/lore/pkg/store"
	"github.com/lore-lang/lore/pkg/sys"
)

var logger = logutil.GetLogger("[repl] ")

const (
	promptMain  = ">> "
	promptCont  = "   "
	promptDebug = "debug>> "

	// Fallback when RLIMIT_STACK gives nothing usable.
	stackLimitFallback = 2_000_000
)

// Program is the console subprogram. It is the fallback of the composite
// program and never returns ErrNotSuitable.
var Program prog.Program = program{}

type program struct{}

func (program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) > 1 {
		return prog.BadUsage("at most one script file may be given")
	}

	core.Startup()
	if v, err := core.AppendContext(core.Lib(), core.Intern("version")); err == nil {
		*v = buildinfo.VersionTuple()
	}
	cells := sys.ValueStackLimit(stackLimitFallback)
	core.DS.SetLimit(cells)
	// A call frame occupies a chunk of several cells; bound recursion by
	// the same budget.
	core.CS.SetLimit(cells / 8)

	switch {
	case f.CodeInArg:
		if len(args) == 0 {
			return prog.BadUsage("-c requires an argument")
		}
		return runSource(fds, f, []byte(args[0]), "")
	case len(args) == 1:
		src, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(fds[2], "cannot read script:", err)
			return prog.Exit(2)
		}
		return runSource(fds, f, src, args[0])
	}

	if f.CompileOnly || !sys.IsATTY(fds[0].Fd()) {
		// Piped input runs as a script.
		src, err := io.ReadAll(fds[0])
		if err != nil {
			fmt.Fprintln(fds[2], "cannot read standard input:", err)
			return prog.Exit(2)
		}
		return runSource(fds, f, src, "")
	}

	return interact(fds, f)
}

// runSource checks or evaluates one whole source.
func runSource(fds [3]*os.File, f *prog.Flags, src []byte, name string) error {
	if f.CompileOnly {
		return compileOnly(fds, f, src, name)
	}
	arr, err := scan.Load(src, name)
	if err != nil {
		showScanError(err, src, name)
		return prog.Exit(2)
	}
	var out core.Cell
	err = core.Trap(func() error {
		return core.DoArray(&out, arr, 0, core.Specified)
	})
	if err != nil {
		diag.ShowError(err)
		return prog.Exit(2)
	}
	return nil
}

// compileOnly scans and binds without evaluating. With -relax every
// recoverable token error is collected and reported instead of the scan
// stopping at the first one.
func compileOnly(fds [3]*os.File, f *prog.Flags, src []byte, name string) error {
	var errs []*core.Error
	if f.Relax {
		_, errs = scan.ScanRelax(src, name)
	} else {
		if _, err := scan.Load(src, name); err != nil {
			var coreErr *core.Error
			if !errors.As(err, &coreErr) {
				coreErr = core.NewError(core.ErrSyntax, err.Error())
			}
			errs = []*core.Error{coreErr}
		}
	}
	if f.JSON {
		fmt.Fprintln(fds[1], errorsJSON(errs, name))
	} else {
		for _, e := range errs {
			showScanError(e, src, name)
		}
	}
	if len(errs) > 0 {
		return prog.Exit(2)
	}
	return nil
}

// showScanError renders a scan error with the offending span of the
// source highlighted. Errors that carry no line position fall back to
// the plain renderer.
func showScanError(err error, src []byte, name string) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Line <= 0 {
		diag.ShowError(err)
		return
	}
	diag.ShowError(&diag.Error{
		Type:    "syntax error",
		Message: coreErr.Message(),
		Context: *scanContext(coreErr, src, name),
	})
}

// scanContext locates the reported line in src, narrowed to the near
// excerpt when it can be found on that line.
func scanContext(e *core.Error, src []byte, name string) *diag.Context {
	if name == "" {
		name = "[tty]"
	}
	text := string(src)
	from := 0
	for l := 1; l < e.Line; l++ {
		nl := strings.Index(text[from:], "\n")
		if nl < 0 {
			break
		}
		from += nl + 1
	}
	to := len(text)
	if nl := strings.Index(text[from:], "\n"); nl >= 0 {
		to = from + nl
	}
	if e.Near != "" {
		if i := strings.Index(text[from:to], e.Near); i >= 0 {
			from += i
			to = from + len(e.Near)
		}
	}
	return diag.NewContext(name, text, diag.Ranging{From: from, To: to})
}

func errorsJSON(errs []*core.Error, name string) string {
	type jsonError struct {
		FileName string `json:"fileName"`
		LineNo   int    `json:"lineNo"`
		CodeName string `json:"codeName"`
		Message  string `json:"message"`
	}
	out := make([]jsonError, len(errs))
	for i, e := range errs {
		file := e.File
		if file == "" {
			file = name
		}
		out[i] = jsonError{
			FileName: file,
			LineNo:   e.Line,
			CodeName: string(e.Kind),
			Message:  e.Message(),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// interact runs the interactive console until EOF.
func interact(fds [3]*os.File, f *prog.Flags) error {
	sigCh := sys.NotifySignals()
	defer sys.StopSignals(sigCh)
	go func() {
		for sig := range sigCh {
			if sig == os.Interrupt {
				core.RequestHalt()
			}
		}
	}()

	st := openHistory(f)
	if st != nil {
		defer st.Close()
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	preloadHistory(ln, st)

	core.SetBreakpointHook(debugHook(fds, ln))
	defer core.SetBreakpointHook(nil)

	for {
		core.ClearHalt()
		src, ok := readInput(ln, promptMain)
		if !ok {
			fmt.Fprintln(fds[1])
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if st != nil {
			if _, err := st.Add(src); err != nil {
				logger.Println("history add:", err)
			}
		}
		evalAndPrint(fds, src)
	}
}

// openHistory opens the input history database. History is an amenity:
// failure to open it degrades to a session-only history.
func openHistory(f *prog.Flags) *store.Store {
	path := f.DB
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Println("history disabled:", err)
			return nil
		}
		path = filepath.Join(home, ".lore", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		logger.Println("history disabled:", err)
		return nil
	}
	st, err := store.Open(path)
	if err != nil {
		logger.Println("history disabled:", err)
		return nil
	}
	return st
}

const historyPreload = 1000

func preloadHistory(ln *liner.State, st *store.Store) {
	if st == nil {
		return
	}
	upto, err := st.NextSeq()
	if err != nil {
		logger.Println("history read:", err)
		return
	}
	from := upto - historyPreload
	if from < 0 {
		from = 0
	}
	inputs, err := st.Inputs(from, upto)
	if err != nil {
		logger.Println("history read:", err)
		return
	}
	for _, in := range inputs {
		ln.AppendHistory(strings.ReplaceAll(in.Text, "\n", " "))
	}
}

// readInput reads one complete unit of input, prompting for more lines
// while the scanner reports an unclosed opener. Returns false at EOF.
func readInput(ln *liner.State, prompt string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := ln.Prompt(p)
		switch {
		case err == io.EOF:
			return "", false
		case err == liner.ErrPromptAborted:
			// Ctrl-C abandons the current input.
			return "", true
		case err != nil:
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if incomplete(src) {
			continue
		}
		return src, true
	}
}

// incomplete reports whether src ends inside an unclosed block, group,
// brace string, construct or binary, so the console should keep reading.
func incomplete(src string) bool {
	_, err := scan.Scan([]byte(src), "")
	var coreErr *core.Error
	return errors.As(err, &coreErr) && coreErr.Kind == core.ErrMissing
}

// evalAndPrint scans, binds, evaluates and echoes the product.
func evalAndPrint(fds [3]*os.File, src string) {
	arr, err := scan.Load([]byte(src), "")
	if err != nil {
		showScanError(err, []byte(src), "")
		return
	}
	var out core.Cell
	err = core.Trap(func() error {
		return core.DoArray(&out, arr, 0, core.Specified)
	})
	if err != nil {
		diag.ShowError(err)
		return
	}
	if out.Kind() != core.KindVoid {
		fmt.Fprintln(fds[1], "== "+core.Mold(&out))
	}
}

// debugHook is the console side of a breakpoint: a nested prompt loop
// that only a resume instruction (or EOF, standing for plain resume)
// exits.
func debugHook(fds [3]*os.File, ln *liner.State) core.BreakpointHook {
	return func(top *core.Frame, interrupted bool) (core.Cell, error) {
		var void core.Cell
		core.InitVoid(&void)
		if interrupted {
			fmt.Fprintln(fds[1], "** interrupted, entering debug console; resume to continue")
		} else {
			fmt.Fprintln(fds[1], "** breakpoint hit; resume to continue")
		}
		for {
			src, ok := readInput(ln, promptDebug)
			if !ok {
				fmt.Fprintln(fds[1])
				return void, nil
			}
			if strings.TrimSpace(src) == "" {
				continue
			}
			arr, err := scan.Load([]byte(src), "")
			if err != nil {
				showScanError(err, []byte(src), "")
				continue
			}
			// Console input sees the suspended function's args and
			// locals for as long as its frame is on the stack.
			if top != nil && top.Live() {
				if err := core.BindFrame(arr, top); err != nil {
					diag.ShowError(err)
					continue
				}
			}
			var out core.Cell
			err = core.DoArray(&out, arr, 0, core.Specified)
			if err != nil {
				if core.IsResume(err) {
					return void, err
				}
				diag.ShowError(err)
				continue
			}
			if out.Kind() != core.KindVoid {
				fmt.Fprintln(fds[1], "== "+core.Mold(&out))
			}
		}
	}
}
