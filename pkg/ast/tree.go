package ast

import (
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Rule is a rewrite rule. Before import resolution the names in Pattern and
// Template are as written; after resolution they are absolute.
type Rule struct {
	diag.Ranging
	Pattern  []Clause
	Template []Clause
	Priority float64
	// Module is the path of the defining module, set during namespace
	// assembly.
	Module intern.Sym
}

// Import is one edge of an import line, flattened from the import tree
// syntax. Path holds the segments up to the imported item; Name is the
// imported item itself, or zero for a wildcard import.
type Import struct {
	diag.Ranging
	Path []intern.Tok
	Name intern.Tok
}

// Wildcard reports whether the import brings in every export of its target.
func (im Import) Wildcard() bool { return im.Name == 0 }

// LineKind enumerates the kinds of lines in a source file.
type LineKind uint8

const (
	ImportLine LineKind = 1 + iota
	ExportLine
	ConstLine
	MacroLine
	NamespaceLine
)

// Line is one parsed line of a source file.
type Line struct {
	diag.Ranging
	Kind     LineKind
	Exported bool
	// Name of the constant or namespace.
	Name intern.Tok
	// Body of the constant.
	Body []Clause
	// Rule of a macro line.
	Rule *Rule
	// Flattened edges of an import line.
	Imports []Import
	// Names of an export line.
	Exports []intern.Tok
	// Sub-lines of a namespace line.
	Sub []Line
}

// File is a parsed source file.
type File struct {
	Lines []Line
}

// Module is a namespace after assembly. Imports and exports are flattened
// from the file's lines; constants and rules still carry written names until
// import resolution rewrites them to absolute ones.
type Module struct {
	Path intern.Sym
	// ConstNames preserves definition order of Consts.
	ConstNames []intern.Tok
	Consts     map[intern.Tok][]Clause
	Rules      []Rule
	Imports    []Import
	Exports    map[intern.Tok]bool
}

// NewModule returns an empty module at the given path.
func NewModule(path intern.Sym) *Module {
	return &Module{
		Path:    path,
		Consts:  make(map[intern.Tok][]Clause),
		Exports: make(map[intern.Tok]bool),
	}
}

// AddConst records a constant definition, preserving order.
func (m *Module) AddConst(name intern.Tok, body []Clause) {
	if _, ok := m.Consts[name]; !ok {
		m.ConstNames = append(m.ConstNames, name)
	}
	m.Consts[name] = body
}
