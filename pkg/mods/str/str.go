// Package str binds the std::string extern module.
package str

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Bind installs the module into the tree and returns its export set.
func Bind(in *intern.Interner, tree *eval.Tree) map[intern.Sym][]intern.Tok {
	tree.Bind(in.Sym("std", "string", "concatenate"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "concatenate",
		Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
			a, err := payload(m, arg)
			if err != nil {
				return eval.Clause{}, err
			}
			return eval.AtomClause(concat1{a: a}), nil
		},
	})))

	tree.Bind(in.Sym("std", "string", "char_at"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "char_at",
		Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
			a, err := payload(m, arg)
			if err != nil {
				return eval.Clause{}, err
			}
			return eval.AtomClause(charAt1{s: a}), nil
		},
	})))

	tree.Bind(in.Sym("std", "string", "to_string"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "to_string",
		Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
			return eval.StrClause(m.Interner().Text(render(m, arg.Clause))), nil
		},
	})))

	return map[intern.Sym][]intern.Tok{
		in.Sym("std", "string"): {
			in.Text("concatenate"), in.Text("char_at"), in.Text("to_string"),
		},
	}
}

func payload(m *eval.Machine, e *eval.Expr) (string, error) {
	if e.Clause.Kind != eval.StrLit {
		return "", errors.New("expected a string")
	}
	return m.Interner().TextOf(e.Clause.Str), nil
}

type concat1 struct{ a string }

func (c concat1) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	if !arg.Normal() {
		return eval.RequireReduce(arg)
	}
	b, err := payload(m, arg)
	if err != nil {
		return eval.Fail(fmt.Errorf("concatenate: %v", err))
	}
	return eval.Replace(eval.StrClause(m.Interner().Text(c.a + b)))
}

type charAt1 struct{ s string }

func (c charAt1) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	if !arg.Normal() {
		return eval.RequireReduce(arg)
	}
	if arg.Clause.Kind != eval.IntLit {
		return eval.Fail(errors.New("char_at: expected an index"))
	}
	runes := []rune(c.s)
	i := arg.Clause.Int
	if i >= uint64(len(runes)) {
		return eval.Fail(fmt.Errorf("char_at: index %d out of bounds for %q", i, c.s))
	}
	return eval.Replace(eval.CharClause(runes[i]))
}

// render gives the string form of a normal form, used by to_string.
func render(m *eval.Machine, c eval.Clause) string {
	switch c.Kind {
	case eval.StrLit:
		return m.Interner().TextOf(c.Str)
	case eval.IntLit:
		return strconv.FormatUint(c.Int, 10)
	case eval.NumLit:
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	case eval.CharLit:
		return string(c.Char)
	default:
		return "<opaque>"
	}
}
