package parse

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
)

// Header is the result of preparsing one namespace level of a file: enough
// structure to discover imports and the names the level defines, without
// parsing expression bodies. Preparsing lexes with an empty operator set, so
// it can run before the operator set of the file is known.
type Header struct {
	// Imports at this level.
	Imports []ast.Import
	// Defined names at this level: constants, namespaces, and every name
	// token occurring in a macro pattern.
	Defined []intern.Tok
	// Exported names at this level: export lists plus export-marked
	// definitions.
	Exported []intern.Tok
	// Sub holds the headers of nested namespaces.
	Sub map[intern.Tok]*Header
}

// AllImports appends the imports of the whole header tree to out.
func (h *Header) AllImports(out []ast.Import) []ast.Import {
	out = append(out, h.Imports...)
	for _, sub := range h.Sub {
		out = sub.AllImports(out)
	}
	return out
}

// AllDefined appends the defined names of the whole header tree to out. The
// whole file is lexed with one operator set, so names defined in nested
// namespaces count for the file.
func (h *Header) AllDefined(out []intern.Tok) []intern.Tok {
	out = append(out, h.Defined...)
	for _, sub := range h.Sub {
		out = sub.AllDefined(out)
	}
	return out
}

// Descend returns the header of the namespace at the given path below h.
func (h *Header) Descend(path []intern.Tok) *Header {
	for _, seg := range path {
		if h == nil {
			return nil
		}
		h = h.Sub[seg]
	}
	return h
}

// Preparse scans the header structure of a source file: imports, export
// lists, and definition names, recursing into namespace blocks but skipping
// expression bodies.
func Preparse(in *intern.Interner, src lex.Source) (*Header, error) {
	tokens, err := lex.Lex(in, src, nil)
	if err != nil {
		return nil, err
	}
	ps := newParser(in, src, tokens)
	header := ps.preparseLines(false)
	return header, diag.PackErrors(ps.errors)
}

func (ps *parser) preparseLines(sub bool) *Header {
	h := &Header{Sub: make(map[intern.Tok]*Header)}
	for {
		ps.skipBreaks()
		if ps.done() {
			if sub {
				ps.errorf(ps.here(), "unclosed namespace block")
			}
			return h
		}
		if sub {
			if tok := ps.peek(); tok.Kind == lex.RP {
				return h
			}
		}
		if !ps.preparseLine(h) {
			ps.skipLine()
		}
	}
}

func (ps *parser) preparseLine(h *Header) bool {
	tok := ps.peek()
	if tok.Kind != lex.Name {
		ps.errorf(tok, "line must begin with import, export, const, macro or namespace")
		return false
	}
	exported := false
	switch tok.Text {
	case ps.kwImport:
		ps.pos++
		imports, ok := ps.parseImportTrees(nil)
		if !ok {
			return false
		}
		h.Imports = append(h.Imports, imports...)
		return true
	case ps.kwExport:
		ps.pos++
		if next := ps.peek(); next != nil && next.Kind == lex.NS {
			line, ok := ps.parseExportList(tok.From)
			if !ok {
				return false
			}
			h.Exported = append(h.Exported, line.Exports...)
			return true
		}
		exported = true
		tok = ps.peek()
		if tok == nil || tok.Kind != lex.Name {
			ps.errorf(ps.here(), "export must be followed by ::(...), const or macro")
			return false
		}
	}
	switch tok.Text {
	case ps.kwConst:
		ps.pos++
		name, ok := ps.expectName("constant name")
		if !ok {
			return false
		}
		h.define(name, exported)
		ps.skipLine()
		return true
	case ps.kwMacro:
		ps.pos++
		return ps.preparseMacro(h, exported)
	case ps.kwNamespace:
		ps.pos++
		name, ok := ps.expectName("namespace name")
		if !ok {
			return false
		}
		if lp := ps.next(); lp == nil || lp.Kind != lex.LP || lp.Bracket != ast.Round {
			ps.errorf(ps.here(), "namespace needs a ( block after its name")
			return false
		}
		h.define(name, false)
		sub := ps.preparseLines(true)
		if rp := ps.next(); rp == nil || rp.Kind != lex.RP {
			ps.errorf(ps.here(), "unclosed namespace block")
			return false
		}
		h.Sub[name] = sub
		return true
	}
	ps.errorf(tok, "line must begin with import, export, const, macro or namespace")
	return false
}

// preparseMacro collects the name tokens of the pattern. These names are the
// operators the macro defines; with an empty operator set each symbolic run
// lexes whole, which is exactly the spelling the full lex must split on.
func (ps *parser) preparseMacro(h *Header, exported bool) bool {
	depth := 0
	for {
		tok := ps.peek()
		if tok == nil {
			break
		}
		if tok.Kind == lex.BR && depth == 0 {
			break
		}
		if tok.Kind == lex.RP && depth == 0 {
			break
		}
		ps.pos++
		switch tok.Kind {
		case lex.LP:
			depth++
		case lex.RP:
			depth--
		case lex.Arrow:
			if depth == 0 {
				ps.skipLine()
				return true
			}
		case lex.Name:
			h.define(tok.Text, exported)
		}
	}
	ps.errorf(ps.here(), "macro needs a rule arrow =priority=> after its pattern")
	return false
}

func (h *Header) define(name intern.Tok, exported bool) {
	h.Defined = append(h.Defined, name)
	if exported {
		h.Exported = append(h.Exported, name)
	}
}
