// Package shell implements the orcx driver: running project directories and
// script files, an interactive REPL, and a watch mode that recompiles on
// source changes.
package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/orchid"
	"github.com/orchidlang/orchid/pkg/pipeline"
	"github.com/orchidlang/orchid/pkg/prj"
	"github.com/orchidlang/orchid/pkg/prog"
)

// Program is the shell subprogram; it runs when no other subprogram was
// selected.
type Program struct {
	codeInArg   bool
	compileOnly bool
	macroDebug  bool
	watch       bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.codeInArg, "c", false, "take first argument as code to execute")
	fs.BoolVar(&p.compileOnly, "compileonly", false, "parse and compile, but do not run")
	fs.BoolVar(&p.macroDebug, "macro-debug", false, "trace every macro rewrite to stderr")
	fs.BoolVar(&p.watch, "watch", false, "rerun whenever a source file changes")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	switch {
	case p.codeInArg:
		if len(args) != 1 {
			return prog.BadUsage("-c requires exactly one argument")
		}
		return p.runCode(fds, args[0])
	case len(args) == 0:
		if isatty.IsTerminal(fds[0].Fd()) {
			return p.repl(fds)
		}
		code, err := io.ReadAll(fds[0])
		if err != nil {
			return err
		}
		return p.runCode(fds, string(code))
	case len(args) == 1:
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if info.IsDir() {
			return p.runProject(fds, args[0])
		}
		return p.runFile(fds, args[0])
	default:
		return prog.BadUsage("at most one project directory or script may be given")
	}
}

// runCode compiles a source text as a single-module project whose only file
// is the code itself.
func (p *Program) runCode(fds [3]*os.File, code string) error {
	cfg := orchid.CompileCfg{
		Resolver: pipeline.MapResolver{"main": code},
		Targets:  []string{"main"},
	}
	return p.compileAndRun(fds, cfg, "main", 0)
}

// runFile runs one script file; sibling files are importable as modules.
func (p *Program) runFile(fds [3]*os.File, path string) error {
	if filepath.Ext(path) != pipeline.Ext {
		return prog.BadUsage("scripts must have the " + pipeline.Ext + " extension")
	}
	module := strings.TrimSuffix(filepath.Base(path), pipeline.Ext)
	cfg := orchid.CompileCfg{
		Resolver: pipeline.DirResolver(filepath.Dir(path)),
		Targets:  []string{module},
	}
	return p.compileAndRun(fds, cfg, module, 0)
}

// runProject runs the project at dir according to its manifest.
func (p *Program) runProject(fds [3]*os.File, dir string) error {
	manifest, err := prj.Load(dir)
	if os.IsNotExist(err) {
		manifest = prj.Default(dir)
	} else if err != nil {
		return err
	}
	cfg := manifest.CompileCfg()
	if p.watch {
		return p.watchProject(fds, dir, cfg, manifest)
	}
	return p.compileAndRun(fds, cfg, cfg.Targets[0], manifest.StepBudget)
}

func (p *Program) compileAndRun(fds [3]*os.File, cfg orchid.CompileCfg, module string, stepBudget int) error {
	if p.macroDebug {
		cfg.MacroTrace = fds[2]
	}
	res, err := orchid.Compile(cfg)
	if err != nil {
		diag.ShowError(err)
		return prog.Exit(2)
	}
	if p.compileOnly {
		return nil
	}
	ht := res.StdHandlers(fds[1], fds[0])
	budget := eval.Unbounded
	if stepBudget > 0 {
		budget = stepBudget
	}
	e, status, err := res.RunHandler(module+"::main", budget, ht)
	if err != nil {
		diag.ShowError(err)
		return prog.Exit(2)
	}
	if status != eval.Done {
		return fmt.Errorf("main exceeded the step budget of %d", stepBudget)
	}
	if e.Clause.Kind != eval.IntLit {
		return fmt.Errorf("main must reduce to an integer exit status, got %s",
			renderValue(res, e))
	}
	return prog.Exit(int(e.Clause.Int))
}

// renderValue shows a normal form for the REPL and error messages.
func renderValue(res *orchid.Result, e *eval.Expr) string {
	switch e.Clause.Kind {
	case eval.IntLit:
		return strconv.FormatUint(e.Clause.Int, 10)
	case eval.NumLit:
		return strconv.FormatFloat(e.Clause.Num, 'g', -1, 64)
	case eval.CharLit:
		return strconv.QuoteRune(e.Clause.Char)
	case eval.StrLit:
		return strconv.Quote(res.In.TextOf(e.Clause.Str))
	case eval.Lambda:
		return "<function>"
	case eval.ExternK:
		return "<extern " + e.Clause.Fn.Name() + ">"
	case eval.AtomK:
		return fmt.Sprintf("<atom %T>", e.Clause.Atom)
	default:
		return "<unreduced>"
	}
}
