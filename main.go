// Lore is an interpreter for a homoiconic, block-structured data
// language. The same lexical form serves as code and data; the scanner
// turns source text into blocks of values and the evaluator runs them.
package main

import (
	"os"

	"github.com/lore-lang/lore/pkg/buildinfo"
	"github.com/lore-lang/lore/pkg/lsp"
	"github.com/lore-lang/lore/pkg/prog"
	"github.com/lore-lang/lore/pkg/repl"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program, lsp.Program, repl.Program)))
}
