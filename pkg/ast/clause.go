// Package ast defines the S-tree that Orchid source parses into and that the
// macro engine rewrites: clause sequences, placeholders, rewrite rules, and
// the module tree the pipeline assembles.
package ast

import (
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Kind enumerates the variants of a Clause.
type Kind uint8

const (
	// Name is an identifier. Before import resolution its Sym holds the path
	// as written; afterwards the Sym is fully qualified.
	Name Kind = 1 + iota
	// S is a bracketed clause sequence.
	S
	// Lambda is an anonymous function. Its argument is a single clause, which
	// must have become a Name by the time the lambda is lowered.
	Lambda
	// Num is a floating point literal.
	Num
	// Int is an unsigned integer literal.
	Int
	// Char is a character literal.
	Char
	// Str is a string literal; the processed payload is interned.
	Str
	// Placeh is a macro placeholder. It is only legal inside rule patterns
	// and templates.
	Placeh
)

// Bracket enumerates the three bracket styles of an S clause.
type Bracket uint8

const (
	Round Bracket = iota
	Square
	Curly
)

// PhKind enumerates the matching classes of a placeholder.
type PhKind uint8

const (
	// Scalar matches exactly one clause.
	Scalar PhKind = iota
	// VecZero matches zero or more consecutive clauses.
	VecZero
	// VecOne matches one or more consecutive clauses.
	VecOne
)

// Placeholder names a captured position in a rule. Prio is the growth
// priority of vectorial placeholders; it is 0 for scalars.
type Placeholder struct {
	Name intern.Tok
	Kind PhKind
	Prio int
}

// Vectorial reports whether the placeholder captures a clause sequence
// rather than a single clause.
func (ph Placeholder) Vectorial() bool {
	return ph.Kind == VecZero || ph.Kind == VecOne
}

// Clause is a node of the S-tree. The meaning of the non-Kind fields depends
// on Kind; unused fields hold zero values.
type Clause struct {
	diag.Ranging
	Kind    Kind
	Sym     intern.Sym  // Name
	Bracket Bracket     // S
	Body    []Clause    // S and Lambda body
	Arg     *Clause     // Lambda argument
	Num     float64     // Num
	Int     uint64      // Int
	Char    rune        // Char
	Str     intern.Tok  // Str
	Ph      Placeholder // Placeh
}

// NewName returns a Name clause.
func NewName(r diag.Ranger, sym intern.Sym) Clause {
	return Clause{Ranging: r.Range(), Kind: Name, Sym: sym}
}

// NewS returns a bracketed clause.
func NewS(r diag.Ranger, b Bracket, body []Clause) Clause {
	return Clause{Ranging: r.Range(), Kind: S, Bracket: b, Body: body}
}

// NewLambda returns a lambda clause.
func NewLambda(r diag.Ranger, arg Clause, body []Clause) Clause {
	return Clause{Ranging: r.Range(), Kind: Lambda, Arg: &arg, Body: body}
}

// NewInt returns an integer literal clause.
func NewInt(r diag.Ranger, v uint64) Clause {
	return Clause{Ranging: r.Range(), Kind: Int, Int: v}
}

// NewNum returns a float literal clause.
func NewNum(r diag.Ranger, v float64) Clause {
	return Clause{Ranging: r.Range(), Kind: Num, Num: v}
}

// NewChar returns a character literal clause.
func NewChar(r diag.Ranger, c rune) Clause {
	return Clause{Ranging: r.Range(), Kind: Char, Char: c}
}

// NewStr returns a string literal clause.
func NewStr(r diag.Ranger, payload intern.Tok) Clause {
	return Clause{Ranging: r.Range(), Kind: Str, Str: payload}
}

// NewPlaceh returns a placeholder clause.
func NewPlaceh(r diag.Ranger, ph Placeholder) Clause {
	return Clause{Ranging: r.Range(), Kind: Placeh, Ph: ph}
}

// Eq compares two clauses structurally, ignoring source ranges.
func Eq(a, b Clause) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Name:
		return a.Sym == b.Sym
	case S:
		return a.Bracket == b.Bracket && SeqEq(a.Body, b.Body)
	case Lambda:
		return Eq(*a.Arg, *b.Arg) && SeqEq(a.Body, b.Body)
	case Num:
		return a.Num == b.Num
	case Int:
		return a.Int == b.Int
	case Char:
		return a.Char == b.Char
	case Str:
		return a.Str == b.Str
	case Placeh:
		return a.Ph == b.Ph
	}
	return false
}

// SeqEq compares two clause sequences with Eq.
func SeqEq(a, b []Clause) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// VecAttrs returns the placeholder if c is a vectorial placeholder.
func VecAttrs(c Clause) (Placeholder, bool) {
	if c.Kind == Placeh && c.Ph.Vectorial() {
		return c.Ph, true
	}
	return Placeholder{}, false
}

// CollectNames adds every Sym occurring in a Name clause under cs to the set.
func CollectNames(cs []Clause, into map[intern.Sym]struct{}) {
	for i := range cs {
		collectNames(&cs[i], into)
	}
}

func collectNames(c *Clause, into map[intern.Sym]struct{}) {
	switch c.Kind {
	case Name:
		into[c.Sym] = struct{}{}
	case S:
		CollectNames(c.Body, into)
	case Lambda:
		collectNames(c.Arg, into)
		CollectNames(c.Body, into)
	}
}
