// Package orchid is the embedder facade: it wires the pipeline, the macro
// engine and the reducer together and registers the extern standard
// modules.
package orchid

import (
	"fmt"
	"io"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/errutil"
	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/macro"
	"github.com/orchidlang/orchid/pkg/mods/cpsio"
	"github.com/orchidlang/orchid/pkg/mods/logic"
	"github.com/orchidlang/orchid/pkg/mods/num"
	"github.com/orchidlang/orchid/pkg/mods/prelude"
	"github.com/orchidlang/orchid/pkg/mods/str"
	"github.com/orchidlang/orchid/pkg/mods/system"
	"github.com/orchidlang/orchid/pkg/pipeline"
	"github.com/orchidlang/orchid/pkg/rule"
)

// CompileCfg carries the inputs of a Compile call.
type CompileCfg struct {
	// Resolver supplies project sources.
	Resolver pipeline.Resolver
	// Targets are the module paths to compile, in source form ("app::main").
	Targets []string
	// NoPrelude disables the implicit wildcard import of the embedded
	// prelude.
	NoPrelude bool
	// MacroBudget bounds rewrite steps per constant; zero selects the
	// default.
	MacroBudget int
	// Externs are additional extern functions bound at the given paths
	// ("ext::my_fn") and exported from their parent modules.
	Externs map[string]eval.ExternFn
	// Interner overrides the interner, letting embedders share one across
	// compiles. A fresh one is created when nil.
	Interner *intern.Interner
	// MacroTrace, when set, receives a line for every applied rewrite.
	MacroTrace io.Writer
}

// Result is a compiled program ready for reduction.
type Result struct {
	In      *intern.Interner
	Tree    *eval.Tree
	Machine *eval.Machine
	// Source is the name-resolved module tree, retained for tooling.
	Source *pipeline.Result
}

// Compile loads, rewrites and lowers a project. Independent failures are
// aggregated in the returned error.
func Compile(cfg CompileCfg) (*Result, error) {
	in := cfg.Interner
	if in == nil {
		in = intern.New()
	}
	tree := eval.NewTree()
	externals := make(map[intern.Sym][]intern.Tok)
	for _, bind := range []func(*intern.Interner, *eval.Tree) map[intern.Sym][]intern.Tok{
		num.Bind, logic.Bind, str.Bind, cpsio.Bind, system.Bind,
	} {
		for sym, names := range bind(in, tree) {
			externals[sym] = names
		}
	}
	for path, fn := range cfg.Externs {
		sym := in.ParseSym(path)
		tree.Bind(sym, eval.NewExpr(eval.FnClause(fn)))
		segs := in.PathOf(sym)
		if len(segs) > 1 {
			parent := in.Path(segs[:len(segs)-1])
			externals[parent] = append(externals[parent], segs[len(segs)-1])
		}
	}

	resolver := cfg.Resolver
	var preludeSym intern.Sym
	if !cfg.NoPrelude {
		preludeSym = in.Sym(prelude.ModuleName)
		resolver = pipeline.PrefixResolver{
			Mounts: map[string]pipeline.Resolver{
				prelude.ModuleName: pipeline.MapResolver{"": prelude.Source()},
			},
			Rest: cfg.Resolver,
		}
	}

	targets := make([]intern.Sym, len(cfg.Targets))
	for i, target := range cfg.Targets {
		targets[i] = in.ParseSym(target)
	}
	src, err := pipeline.Run(in, pipeline.Config{
		Resolver:  resolver,
		Targets:   targets,
		Prelude:   preludeSym,
		Externals: externals,
	})
	if err != nil {
		return nil, err
	}

	repo := rule.New(in)
	var errs []error
	for _, r := range src.Rules() {
		if err := repo.Insert(r); err != nil {
			errs = append(errs, fmt.Errorf("invalid rule %q in %s: %w",
				ast.SeqText(in, r.Pattern), in.SymText(r.Module), err))
		}
	}
	if len(errs) > 0 {
		return nil, errutil.Multi(errs...)
	}

	runner := macro.NewRunner(in, repo, cfg.MacroBudget)
	if cfg.MacroTrace != nil {
		runner.SetTrace(cfg.MacroTrace)
	}
	for _, modSym := range src.Order {
		mod := src.Modules[modSym]
		for _, name := range mod.ConstNames {
			sym := in.Extended(mod.Path, name)
			normal, err := runner.Normalize(mod.Consts[name])
			if err != nil {
				errs = append(errs, fmt.Errorf("in %s: %w", in.SymText(sym), err))
				continue
			}
			lowered, err := runner.Lower(normal)
			if err != nil {
				errs = append(errs, fmt.Errorf("in %s: %w", in.SymText(sym), err))
				continue
			}
			tree.Bind(sym, lowered)
		}
	}
	if len(errs) > 0 {
		return nil, errutil.Multi(errs...)
	}
	return &Result{
		In: in, Tree: tree, Machine: eval.NewMachine(in, tree), Source: src,
	}, nil
}

// Run reduces the named symbol to normal form within the budget.
func (r *Result) Run(symbol string, budget int) (*eval.Expr, eval.Status, error) {
	e := eval.NewName(r.In.ParseSym(symbol))
	status, _, err := r.Machine.Reduce(e, budget)
	return e, status, err
}

// RunHandler reduces the named symbol, trampolining command atoms through
// the handler set.
func (r *Result) RunHandler(symbol string, budget int, ht *eval.HandlerTable) (*eval.Expr, eval.Status, error) {
	e := eval.NewName(r.In.ParseSym(symbol))
	status, _, err := r.Machine.ReduceWithHandlers(e, budget, ht)
	return e, status, err
}

// StdHandlers builds the io handler set over the given streams.
func (r *Result) StdHandlers(out io.Writer, src io.Reader) *eval.HandlerTable {
	return cpsio.Handlers(r.In, out, src)
}

// ExitCode reduces main in the target module with the given handlers and
// interprets its integer normal form as the exit code.
func (r *Result) ExitCode(module string, ht *eval.HandlerTable) (int, error) {
	e, status, err := r.RunHandler(module+"::main", eval.Unbounded, ht)
	if err != nil {
		return 1, err
	}
	if status != eval.Done {
		return 1, fmt.Errorf("main did not finish within its budget")
	}
	if e.Clause.Kind != eval.IntLit {
		return 1, fmt.Errorf("main must reduce to an integer exit status")
	}
	return int(e.Clause.Int), nil
}
