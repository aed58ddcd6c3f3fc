package pipeline

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
)

// resolveNames rewrites every name in every module to an absolute path. A
// name whose head matches a local alias is redirected through the alias;
// every other name, lambda argument names included, is prefixed with the
// module's own path.
func (ld *loader) resolveNames(res *Result) {
	for _, sym := range res.Order {
		mod := res.Modules[sym]
		aliases := ld.aliasMap(res, mod)
		for name, body := range mod.Consts {
			mod.Consts[name] = ld.resolveClauses(mod, aliases, body)
		}
		for i := range mod.Rules {
			rule := &mod.Rules[i]
			rule.Pattern = ld.resolveClauses(mod, aliases, rule.Pattern)
			rule.Template = ld.resolveClauses(mod, aliases, rule.Template)
		}
	}
}

// aliasMap computes the local alias map of a module: imported name to
// absolute path. Wildcards expand to the entire export set of their target;
// explicit imports override wildcard entries, and conflicting wildcard
// expansions of the same name are an error.
func (ld *loader) aliasMap(res *Result, mod *ast.Module) map[intern.Tok]intern.Sym {
	aliases := make(map[intern.Tok]intern.Sym)
	wildcardSource := make(map[intern.Tok]intern.Sym)
	file := ld.fileOf(mod.Path)
	for _, edge := range mod.Imports {
		if !edge.Wildcard() {
			continue
		}
		names, ok := ld.moduleExports(edge.Path)
		if !ok {
			ld.reportEdge(file, edge, "wildcard import of unknown module %s",
				ld.pathText(edge.Path))
			continue
		}
		targetSym := ld.in.Path(edge.Path)
		for _, name := range names {
			target := ld.in.Extended(targetSym, name)
			if prev, clash := aliases[name]; clash && prev != target {
				ld.reportEdge(file, edge,
					"wildcard imports of %s and %s both provide %s",
					ld.in.SymText(wildcardSource[name]), ld.pathText(edge.Path),
					ld.in.TextOf(name))
				continue
			}
			aliases[name] = target
			wildcardSource[name] = targetSym
		}
	}
	for _, edge := range mod.Imports {
		if edge.Wildcard() {
			continue
		}
		if !ld.importDefined(edge) {
			ld.reportEdge(file, edge, "import of undefined name %s in %s",
				ld.in.TextOf(edge.Name), ld.pathText(edge.Path))
			continue
		}
		full := append(append([]intern.Tok(nil), edge.Path...), edge.Name)
		aliases[edge.Name] = ld.in.Path(full)
	}
	return aliases
}

// importDefined checks that an explicit import refers to something that
// exists: a module at the full path, an exported name of the parent module,
// or an extern path.
func (ld *loader) importDefined(edge ast.Import) bool {
	full := append(append([]intern.Tok(nil), edge.Path...), edge.Name)
	if ld.external(full) {
		return true
	}
	if file, ok := ld.locateFile(full); ok && file != nil {
		return true
	}
	if len(edge.Path) == 0 {
		return false
	}
	names, ok := ld.moduleExports(edge.Path)
	if !ok {
		return false
	}
	for _, name := range names {
		if name == edge.Name {
			return true
		}
	}
	return false
}

func (ld *loader) fileOf(path intern.Sym) *loadedFile {
	file, _ := ld.locateFile(ld.in.PathOf(path))
	return file
}

func (ld *loader) reportEdge(file *loadedFile, edge ast.Import, format string, args ...any) {
	if file != nil && edge.To != 0 {
		ld.errorAt(file.src, edge, format, args...)
	} else {
		ld.errorf(format, args...)
	}
}

func (ld *loader) resolveClauses(mod *ast.Module, aliases map[intern.Tok]intern.Sym, cs []ast.Clause) []ast.Clause {
	out := make([]ast.Clause, len(cs))
	for i, c := range cs {
		out[i] = ld.resolveClause(mod, aliases, c)
	}
	return out
}

func (ld *loader) resolveClause(mod *ast.Module, aliases map[intern.Tok]intern.Sym, c ast.Clause) ast.Clause {
	switch c.Kind {
	case ast.Name:
		segs := ld.in.PathOf(c.Sym)
		if target, ok := aliases[segs[0]]; ok {
			c.Sym = ld.in.Extended(target, segs[1:]...)
		} else {
			c.Sym = ld.in.Extended(mod.Path, segs...)
		}
	case ast.S:
		c.Body = ld.resolveClauses(mod, aliases, c.Body)
	case ast.Lambda:
		arg := ld.resolveClause(mod, aliases, *c.Arg)
		c.Arg = &arg
		c.Body = ld.resolveClauses(mod, aliases, c.Body)
	}
	return c
}
