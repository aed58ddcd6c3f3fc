// Package eval reduces post-macro Orchid expressions.
//
// Reduction is pure call-by-need: the leftmost outermost redex is rewritten
// in place, and because every shared subterm is a single Expr node, each
// redex is reduced at most once per sharing class. Reduction is step-bounded
// and resumable; foreign atoms and extern functions plug in through the
// interfaces in foreign.go.
package eval

import (
	"github.com/orchidlang/orchid/pkg/intern"
)

// Kind enumerates the variants of a runtime clause.
type Kind uint8

const (
	// Apply is the application of F to X.
	Apply Kind = 1 + iota
	// Lambda binds Arg in Body. Bound names are fully qualified, so
	// substitution needs no renaming.
	Lambda
	// Name refers to a symbol of the tree, or to an enclosing lambda
	// argument.
	Name
	// IntLit, NumLit, CharLit and StrLit are literals.
	IntLit
	NumLit
	CharLit
	StrLit
	// AtomK is an opaque foreign value.
	AtomK
	// ExternK is a foreign function.
	ExternK
)

// Clause is the payload of an expression node.
type Clause struct {
	Kind Kind
	F, X *Expr      // Apply
	Arg  intern.Sym // Lambda
	Body *Expr      // Lambda
	Sym  intern.Sym // Name
	Int  uint64     // IntLit
	Num  float64    // NumLit
	Char rune       // CharLit
	Str  intern.Tok // StrLit
	Atom Atom       // AtomK
	Fn   ExternFn   // ExternK
}

// normState tracks reduction progress of a node.
type normState uint8

const (
	raw normState = iota
	reducing
	normal
)

// Expr is a shared expression node. Expr identity is the sharing unit: all
// references to the same Expr observe each other's reduction progress.
type Expr struct {
	Clause Clause
	state  normState
}

// NewExpr wraps a clause in a fresh node.
func NewExpr(c Clause) *Expr { return &Expr{Clause: c} }

// Normal reports whether the node is in normal form.
func (e *Expr) Normal() bool { return e.state == normal }

// Touch marks the node as not yet normalized, for use after replacing its
// clause from outside the reducer.
func (e *Expr) Touch() { e.state = raw }

// Convenience constructors used by lowering and by extern libraries.

func NewApply(f, x *Expr) *Expr {
	return NewExpr(Clause{Kind: Apply, F: f, X: x})
}

func NewLambda(arg intern.Sym, body *Expr) *Expr {
	return NewExpr(Clause{Kind: Lambda, Arg: arg, Body: body})
}

func NewName(sym intern.Sym) *Expr {
	return NewExpr(Clause{Kind: Name, Sym: sym})
}

func NewInt(v uint64) *Expr { return NewExpr(IntClause(v)) }

// IntClause returns an integer literal clause.
func IntClause(v uint64) Clause { return Clause{Kind: IntLit, Int: v} }

// NumClause returns a float literal clause.
func NumClause(v float64) Clause { return Clause{Kind: NumLit, Num: v} }

// CharClause returns a character literal clause.
func CharClause(r rune) Clause { return Clause{Kind: CharLit, Char: r} }

// StrClause returns a string literal clause over an interned payload.
func StrClause(s intern.Tok) Clause { return Clause{Kind: StrLit, Str: s} }

// AtomClause returns a clause holding a foreign atom.
func AtomClause(a Atom) Clause { return Clause{Kind: AtomK, Atom: a} }

// FnClause returns a clause holding a foreign function.
func FnClause(fn ExternFn) Clause { return Clause{Kind: ExternK, Fn: fn} }

// Tree is the symbol table produced by the pipeline and macro stages: the
// fully macro-expanded, name-resolved, lowered program. It is read-only
// during reduction.
type Tree struct {
	syms map[intern.Sym]*Expr
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{syms: make(map[intern.Sym]*Expr)}
}

// Bind adds or replaces a symbol.
func (t *Tree) Bind(sym intern.Sym, e *Expr) { t.syms[sym] = e }

// Lookup resolves a symbol.
func (t *Tree) Lookup(sym intern.Sym) (*Expr, bool) {
	e, ok := t.syms[sym]
	return e, ok
}

// Symbols lists the bound symbols in unspecified order.
func (t *Tree) Symbols() []intern.Sym {
	out := make([]intern.Sym, 0, len(t.syms))
	for sym := range t.syms {
		out = append(out, sym)
	}
	return out
}
