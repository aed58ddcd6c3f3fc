// Package pipeline assembles Orchid sources into a tree of name-resolved
// modules.
//
// The pipeline runs in layers. Source loading is pull-based: starting from
// the target modules it preparses each file with an empty operator set to
// discover imports, and recurses. Operator collection then computes the set
// of names that lex as operators in each file, the files are re-lexed and
// fully parsed with those sets, namespaces are nested into modules, and
// finally every name in every constant and rule is rewritten to an absolute
// path.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/errutil"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
	"github.com/orchidlang/orchid/pkg/logutil"
	"github.com/orchidlang/orchid/pkg/parse"
)

var logger = logutil.GetLogger("[pipeline] ")

// Error is a pipeline error with a source context, used for failures that
// can be attributed to an import or name site.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "pipeline error" }

// Config carries the inputs of a pipeline run.
type Config struct {
	// Resolver supplies source text for module paths.
	Resolver Resolver
	// Targets are the module paths to load, together with everything they
	// import.
	Targets []intern.Sym
	// Prelude, when nonzero, is a module path implicitly wildcard-imported
	// by every file outside the prelude itself.
	Prelude intern.Sym
	// Externals maps extern module paths to their exported names. Imports
	// into these paths resolve without source files.
	Externals map[intern.Sym][]intern.Tok
}

// Result is the assembled, name-resolved module tree.
type Result struct {
	Modules map[intern.Sym]*ast.Module
	// Order lists module paths in deterministic order.
	Order []intern.Sym
}

// Rules returns every rule of every module in deterministic order.
func (r *Result) Rules() []ast.Rule {
	var out []ast.Rule
	for _, sym := range r.Order {
		out = append(out, r.Modules[sym].Rules...)
	}
	return out
}

// loadedFile is one source file pulled in by the loader.
type loadedFile struct {
	path   []intern.Tok // module path of the file root
	sym    intern.Sym
	src    lex.Source
	header *parse.Header
	ops    lex.OpSet
	file   *ast.File
}

type loader struct {
	in    *intern.Interner
	cfg   Config
	files map[intern.Sym]*loadedFile
	// missing caches paths known to have no file, to avoid repeated
	// resolver calls.
	missing map[intern.Sym]bool
	errs    []error
}

// Run executes the pipeline. On failure the error aggregates every
// independent failure encountered; the result is nil.
func Run(in *intern.Interner, cfg Config) (*Result, error) {
	ld := &loader{
		in: in, cfg: cfg,
		files:   make(map[intern.Sym]*loadedFile),
		missing: make(map[intern.Sym]bool),
	}
	ld.loadAll()
	if len(ld.errs) > 0 {
		return nil, errutil.Multi(ld.errs...)
	}
	ld.checkImportCycles()
	if len(ld.errs) > 0 {
		return nil, errutil.Multi(ld.errs...)
	}
	ld.collectOps()
	ld.parseAll()
	if len(ld.errs) > 0 {
		return nil, errutil.Multi(ld.errs...)
	}
	res := ld.assemble()
	ld.resolveNames(res)
	if len(ld.errs) > 0 {
		return nil, errutil.Multi(ld.errs...)
	}
	return res, nil
}

func (ld *loader) errorf(format string, args ...any) {
	ld.errs = append(ld.errs, fmt.Errorf(format, args...))
}

// errorAt records an error attached to a source site.
func (ld *loader) errorAt(src lex.Source, r diag.Ranger, format string, args ...any) {
	ld.errs = append(ld.errs, &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(src.Name, src.Code, r),
	})
}

// external reports whether the module path is (under or a prefix of) an
// extern module supplied by the embedder.
func (ld *loader) external(path []intern.Tok) bool {
	if len(ld.cfg.Externals) == 0 {
		return false
	}
	for sym := range ld.cfg.Externals {
		ext := ld.in.PathOf(sym)
		if isPrefix(path, ext) || isPrefix(ext, path) {
			return true
		}
	}
	return false
}

func isPrefix(prefix, of []intern.Tok) bool {
	if len(prefix) > len(of) {
		return false
	}
	for i, tok := range prefix {
		if of[i] != tok {
			return false
		}
	}
	return true
}

// pathStrings renders a module path for resolvers and messages.
func (ld *loader) pathStrings(path []intern.Tok) []string {
	out := make([]string, len(path))
	for i, tok := range path {
		out[i] = ld.in.TextOf(tok)
	}
	return out
}

func (ld *loader) pathText(path []intern.Tok) string {
	text := ""
	for i, seg := range ld.pathStrings(path) {
		if i > 0 {
			text += "::"
		}
		text += seg
	}
	return text
}

// loadAll pulls in every file reachable from the targets.
func (ld *loader) loadAll() {
	queue := make([][]intern.Tok, 0, len(ld.cfg.Targets))
	for _, sym := range ld.cfg.Targets {
		queue = append(queue, ld.in.PathOf(sym))
	}
	if ld.cfg.Prelude != 0 {
		queue = append(queue, ld.in.PathOf(ld.cfg.Prelude))
	}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if ld.external(path) {
			continue
		}
		file, ok := ld.requireModule(path, false)
		if !ok || file == nil || file.ops != nil {
			continue
		}
		// Mark visited; ops is replaced by collectOps later.
		file.ops = lex.OpSet{}
		for _, edge := range ld.fileImports(file) {
			if target := ld.importTarget(edge); target != nil {
				queue = append(queue, target)
			}
		}
	}
}

// fileImports lists the import edges of a file, including the implicit
// prelude import.
func (ld *loader) fileImports(file *loadedFile) []ast.Import {
	edges := file.header.AllImports(nil)
	if ld.cfg.Prelude != 0 && !isPrefix(ld.in.PathOf(ld.cfg.Prelude), file.path) {
		edges = append(edges, ast.Import{Path: ld.in.PathOf(ld.cfg.Prelude)})
	}
	return edges
}

// importTarget returns the module path an import edge requires, or nil when
// the edge needs no loading. For a non-wildcard import of a name the target
// may be either a module or a constant in the parent module; both are tried
// at load time.
func (ld *loader) importTarget(edge ast.Import) []intern.Tok {
	if edge.Wildcard() {
		return edge.Path
	}
	// Loading the parent covers both a::b the module and a::b the constant
	// in module a. A module a::b with no file for a is found by
	// requireModule's prefix walk when aliases resolve.
	full := append(append([]intern.Tok(nil), edge.Path...), edge.Name)
	if _, ok := ld.locateFile(full); ok {
		return full
	}
	if len(edge.Path) > 0 {
		return edge.Path
	}
	return full
}

// locateFile finds the longest loadable file prefix of the path without
// reporting errors.
func (ld *loader) locateFile(path []intern.Tok) (*loadedFile, bool) {
	for k := len(path); k >= 1; k-- {
		prefix := path[:k]
		sym := ld.in.Path(prefix)
		if file, ok := ld.files[sym]; ok {
			if file.header.Descend(path[k:]) != nil {
				return file, true
			}
			continue
		}
		if ld.missing[sym] {
			continue
		}
		src, err := ld.cfg.Resolver.Source(ld.pathStrings(prefix))
		if err != nil {
			if IsNotFound(err) {
				ld.missing[sym] = true
				continue
			}
			ld.errorf("resolver failed for %s: %v", ld.pathText(prefix), err)
			return nil, false
		}
		file := &loadedFile{
			path: prefix, sym: sym,
			src: lex.Source{Name: ld.pathText(prefix) + Ext, Code: src},
		}
		header, err := parse.Preparse(ld.in, file.src)
		if err != nil {
			ld.errs = append(ld.errs, err)
			ld.missing[sym] = true
			return nil, false
		}
		file.header = header
		ld.files[sym] = file
		logger.Println("loaded", file.src.Name)
		if header.Descend(path[k:]) != nil {
			return file, true
		}
	}
	return nil, false
}

// requireModule resolves a module path to its file, reporting a missing-file
// error unless lenient.
func (ld *loader) requireModule(path []intern.Tok, lenient bool) (*loadedFile, bool) {
	if file, ok := ld.locateFile(path); ok {
		return file, true
	}
	if !lenient {
		ld.errorf("missing file for module %s", ld.pathText(path))
	}
	return nil, false
}

// checkImportCycles rejects cycles among non-wildcard imports. Wildcard
// cycles are legal; the exported-name sets they propagate are closed by
// construction, since exports never chain through imports.
func (ld *loader) checkImportCycles() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[intern.Sym]int)
	var stack []intern.Sym
	var visit func(file *loadedFile) bool
	visit = func(file *loadedFile) bool {
		color[file.sym] = grey
		stack = append(stack, file.sym)
		for _, edge := range file.header.AllImports(nil) {
			if edge.Wildcard() {
				continue
			}
			target, ok := ld.locateFile(ld.importTarget(edge))
			if !ok || target == nil || target.sym == file.sym {
				continue
			}
			switch color[target.sym] {
			case grey:
				chain := ""
				for _, sym := range stack {
					chain += ld.in.SymText(sym) + " -> "
				}
				ld.errorAt(file.src, edge,
					"cyclic import: %s%s", chain, ld.in.SymText(target.sym))
				return false
			case white:
				if !visit(target) {
					return false
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[file.sym] = black
		return true
	}
	for _, file := range ld.sortedFiles() {
		if color[file.sym] == white {
			if !visit(file) {
				return
			}
		}
	}
}

func (ld *loader) sortedFiles() []*loadedFile {
	files := make([]*loadedFile, 0, len(ld.files))
	for _, file := range ld.files {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		return ld.in.SymText(files[i].sym) < ld.in.SymText(files[j].sym)
	})
	return files
}

// moduleExports returns the exported names of the module at the given path,
// whether extern, a file root, or a namespace in a file.
func (ld *loader) moduleExports(path []intern.Tok) ([]intern.Tok, bool) {
	if sym := ld.in.Path(path); ld.cfg.Externals != nil {
		if names, ok := ld.cfg.Externals[sym]; ok {
			return names, true
		}
	}
	file, ok := ld.locateFile(path)
	if !ok || file == nil {
		return nil, false
	}
	header := file.header.Descend(path[len(file.path):])
	if header == nil {
		return nil, false
	}
	return header.Exported, true
}

// collectOps computes, per file, the operator set in scope: names defined
// anywhere in the file plus names brought in by its imports. Wildcard
// imports contribute the entire exported name set of their target.
func (ld *loader) collectOps() {
	for _, file := range ld.files {
		ops := lex.OpSet{}
		for _, tok := range file.header.AllDefined(nil) {
			ops[ld.in.TextOf(tok)] = true
		}
		for _, edge := range ld.fileImports(file) {
			if edge.Wildcard() {
				if names, ok := ld.moduleExports(edge.Path); ok {
					for _, tok := range names {
						ops[ld.in.TextOf(tok)] = true
					}
				}
			} else {
				ops[ld.in.TextOf(edge.Name)] = true
			}
		}
		file.ops = ops
	}
}

// parseAll re-lexes and parses every file with its operator set.
func (ld *loader) parseAll() {
	for _, file := range ld.sortedFiles() {
		parsed, err := parse.Parse(ld.in, file.src, file.ops)
		if err != nil {
			ld.errs = append(ld.errs, err)
			continue
		}
		file.file = parsed
	}
}

// assemble nests every parsed file into the module tree.
func (ld *loader) assemble() *Result {
	res := &Result{Modules: make(map[intern.Sym]*ast.Module)}
	for _, file := range ld.sortedFiles() {
		ld.assembleModule(res, file, file.path, file.file.Lines)
	}
	res.Order = make([]intern.Sym, 0, len(res.Modules))
	for sym := range res.Modules {
		res.Order = append(res.Order, sym)
	}
	sort.Slice(res.Order, func(i, j int) bool {
		return ld.in.SymText(res.Order[i]) < ld.in.SymText(res.Order[j])
	})
	return res
}

func (ld *loader) assembleModule(res *Result, file *loadedFile, path []intern.Tok, lines []ast.Line) {
	sym := ld.in.Path(path)
	mod := ast.NewModule(sym)
	res.Modules[sym] = mod
	if ld.cfg.Prelude != 0 && !isPrefix(ld.in.PathOf(ld.cfg.Prelude), path) {
		mod.Imports = append(mod.Imports, ast.Import{Path: ld.in.PathOf(ld.cfg.Prelude)})
	}
	for _, line := range lines {
		switch line.Kind {
		case ast.ImportLine:
			mod.Imports = append(mod.Imports, line.Imports...)
		case ast.ExportLine:
			for _, name := range line.Exports {
				mod.Exports[name] = true
			}
		case ast.ConstLine:
			if _, dup := mod.Consts[line.Name]; dup {
				ld.errorAt(file.src, line, "constant %s defined twice",
					ld.in.TextOf(line.Name))
				continue
			}
			mod.AddConst(line.Name, line.Body)
			if line.Exported {
				mod.Exports[line.Name] = true
			}
		case ast.MacroLine:
			rule := *line.Rule
			rule.Module = sym
			mod.Rules = append(mod.Rules, rule)
			if line.Exported {
				for _, name := range ld.patternNames(rule.Pattern) {
					mod.Exports[name] = true
				}
			}
		case ast.NamespaceLine:
			sub := append(append([]intern.Tok(nil), path...), line.Name)
			ld.assembleModule(res, file, sub, line.Sub)
		}
	}
}

// patternNames lists the single-segment name tokens of a pattern; these are
// the names an exported macro exports.
func (ld *loader) patternNames(pattern []ast.Clause) []intern.Tok {
	syms := make(map[intern.Sym]struct{})
	ast.CollectNames(pattern, syms)
	var out []intern.Tok
	for sym := range syms {
		if path := ld.in.PathOf(sym); len(path) == 1 {
			out = append(out, path[0])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
