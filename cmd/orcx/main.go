// Orcx is the Orchid driver: it runs Orchid projects and scripts, offers an
// interactive REPL, and can serve language diagnostics over LSP.
package main

import (
	"os"

	"github.com/orchidlang/orchid/pkg/buildinfo"
	"github.com/orchidlang/orchid/pkg/lsp"
	"github.com/orchidlang/orchid/pkg/prog"
	"github.com/orchidlang/orchid/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		&buildinfo.Program{}, &lsp.Program{}, &shell.Program{}))
}
