// Package num binds the std::number extern module: curried arithmetic over
// Orchid's integer and float literals.
package num

import (
	"errors"
	"fmt"
	"math"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Bind installs the module into the tree and returns its export set for the
// pipeline.
func Bind(in *intern.Interner, tree *eval.Tree) map[intern.Sym][]intern.Tok {
	names := []string{"add", "subtract", "multiply", "divide", "remainder"}
	ops := map[string]func(a, b value) (eval.Clause, error){
		"add":       add,
		"subtract":  subtract,
		"multiply":  multiply,
		"divide":    divide,
		"remainder": remainder,
	}
	exports := make([]intern.Tok, 0, len(names))
	for _, name := range names {
		name, op := name, ops[name]
		sym := in.Sym("std", "number", name)
		tree.Bind(sym, eval.NewExpr(eval.FnClause(eval.Fn1{
			FnName: name,
			Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
				a, err := numValue(arg)
				if err != nil {
					return eval.Clause{}, err
				}
				return eval.AtomClause(partial{name: name, a: a, op: op}), nil
			},
		})))
		exports = append(exports, in.Text(name))
	}
	return map[intern.Sym][]intern.Tok{in.Sym("std", "number"): exports}
}

// value is a number in either representation.
type value struct {
	isInt bool
	i     uint64
	f     float64
}

func (v value) float() float64 {
	if v.isInt {
		return float64(v.i)
	}
	return v.f
}

func numValue(e *eval.Expr) (value, error) {
	switch e.Clause.Kind {
	case eval.IntLit:
		return value{isInt: true, i: e.Clause.Int}, nil
	case eval.NumLit:
		return value{f: e.Clause.Num}, nil
	default:
		return value{}, errors.New("expected a number")
	}
}

// partial is a binary operator applied to its first operand.
type partial struct {
	name string
	a    value
	op   func(a, b value) (eval.Clause, error)
}

func (p partial) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	if !arg.Normal() {
		return eval.RequireReduce(arg)
	}
	b, err := numValue(arg)
	if err != nil {
		return eval.Fail(fmt.Errorf("%s: %v", p.name, err))
	}
	clause, err := p.op(p.a, b)
	if err != nil {
		return eval.Fail(fmt.Errorf("%s: %v", p.name, err))
	}
	return eval.Replace(clause)
}

// mkFloat guards against undefined values; arithmetic never produces NaN.
func mkFloat(v float64) (eval.Clause, error) {
	if math.IsNaN(v) {
		return eval.Clause{}, errors.New("the result is not a number")
	}
	return eval.NumClause(v), nil
}

func add(a, b value) (eval.Clause, error) {
	if a.isInt && b.isInt {
		if sum := a.i + b.i; sum >= a.i {
			return eval.IntClause(sum), nil
		}
	}
	return mkFloat(a.float() + b.float())
}

func subtract(a, b value) (eval.Clause, error) {
	if a.isInt && b.isInt && b.i <= a.i {
		return eval.IntClause(a.i - b.i), nil
	}
	return mkFloat(a.float() - b.float())
}

func multiply(a, b value) (eval.Clause, error) {
	if a.isInt && b.isInt {
		if prod := a.i * b.i; a.i == 0 || prod/a.i == b.i {
			return eval.IntClause(prod), nil
		}
	}
	return mkFloat(a.float() * b.float())
}

func divide(a, b value) (eval.Clause, error) {
	if b.float() == 0 {
		return eval.Clause{}, errors.New("division by zero")
	}
	return mkFloat(a.float() / b.float())
}

func remainder(a, b value) (eval.Clause, error) {
	if a.isInt && b.isInt {
		if b.i == 0 {
			return eval.Clause{}, errors.New("division by zero")
		}
		return eval.IntClause(a.i % b.i), nil
	}
	if b.float() == 0 {
		return eval.Clause{}, errors.New("division by zero")
	}
	return mkFloat(math.Mod(a.float(), b.float()))
}
