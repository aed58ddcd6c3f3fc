// Package logic binds the std::bool extern module: boolean atoms, strict
// equality over literals, and the lazy conditional.
package logic

import (
	"errors"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Bool is the boolean atom. It is inert; only std::bool functions and host
// handlers give it meaning.
type Bool struct{ Value bool }

// Step implements eval.Atom.
func (Bool) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	return eval.Fail(errors.New("a boolean is not a function; apply std::bool::ifthenelse"))
}

// Clause wraps a Go bool into a clause.
func Clause(v bool) eval.Clause {
	return eval.AtomClause(Bool{Value: v})
}

// Bind installs the module into the tree and returns its export set.
func Bind(in *intern.Interner, tree *eval.Tree) map[intern.Sym][]intern.Tok {
	tree.Bind(in.Sym("std", "bool", "true"), eval.NewExpr(Clause(true)))
	tree.Bind(in.Sym("std", "bool", "false"), eval.NewExpr(Clause(false)))

	tree.Bind(in.Sym("std", "bool", "equals"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "equals",
		Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
			return eval.AtomClause(equals1{a: arg}), nil
		},
	})))

	// ifthenelse is strict in the condition and lazy in the branches: it
	// reduces to a selector lambda over the two continuations.
	tTok, fTok := in.Sym("std", "bool", "\x00t"), in.Sym("std", "bool", "\x00f")
	tree.Bind(in.Sym("std", "bool", "ifthenelse"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "ifthenelse",
		Body: func(m *eval.Machine, cond *eval.Expr) (eval.Clause, error) {
			b, ok := cond.Clause.Atom.(Bool)
			if cond.Clause.Kind != eval.AtomK || !ok {
				return eval.Clause{}, errors.New("if condition is not a boolean")
			}
			pick := tTok
			if !b.Value {
				pick = fTok
			}
			return eval.NewLambda(tTok,
				eval.NewLambda(fTok, eval.NewName(pick))).Clause, nil
		},
	})))

	return map[intern.Sym][]intern.Tok{
		in.Sym("std", "bool"): {
			in.Text("true"), in.Text("false"),
			in.Text("equals"), in.Text("ifthenelse"),
		},
	}
}

// equals1 is equals applied to its first operand.
type equals1 struct{ a *eval.Expr }

func (e equals1) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	if !e.a.Normal() {
		return eval.RequireReduce(e.a)
	}
	if !arg.Normal() {
		return eval.RequireReduce(arg)
	}
	return eval.Replace(Clause(literalEq(e.a.Clause, arg.Clause)))
}

// literalEq compares normal forms by value. Booleans compare by value too;
// any other non-literal normal forms are never equal.
func literalEq(a, b eval.Clause) bool {
	if a.Kind != b.Kind {
		// Integral floats compare equal to integers.
		an, aok := numeric(a)
		bn, bok := numeric(b)
		return aok && bok && an == bn
	}
	switch a.Kind {
	case eval.IntLit:
		return a.Int == b.Int
	case eval.NumLit:
		return a.Num == b.Num
	case eval.CharLit:
		return a.Char == b.Char
	case eval.StrLit:
		return a.Str == b.Str
	case eval.AtomK:
		ab, aok := a.Atom.(Bool)
		bb, bok := b.Atom.(Bool)
		return aok && bok && ab.Value == bb.Value
	}
	return false
}

func numeric(c eval.Clause) (float64, bool) {
	switch c.Kind {
	case eval.IntLit:
		return float64(c.Int), true
	case eval.NumLit:
		return c.Num, true
	}
	return 0, false
}
