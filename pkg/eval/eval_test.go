package eval

import (
	"errors"
	"fmt"
	"testing"

	"github.com/orchidlang/orchid/pkg/intern"
)

// inert is a test atom with no behavior.
type inert struct{ tag string }

func (inert) Step(arg *Expr, m *Machine) AtomStep { return Inert() }

// incFn is an extern function adding one to an integer.
func incFn() ExternFn {
	return Fn1{FnName: "inc", Body: func(m *Machine, arg *Expr) (Clause, error) {
		if arg.Clause.Kind != IntLit {
			return Clause{}, errors.New("inc: not an integer")
		}
		return IntClause(arg.Clause.Int + 1), nil
	}}
}

func setup() (*intern.Interner, *Tree, *Machine) {
	in := intern.New()
	tree := NewTree()
	return in, tree, NewMachine(in, tree)
}

func reduceOK(t *testing.T, m *Machine, e *Expr) {
	t.Helper()
	status, _, err := m.Reduce(e, Unbounded)
	if err != nil {
		t.Fatalf("Reduce -> error %v", err)
	}
	if status != Done {
		t.Fatalf("Reduce -> status %v, want Done", status)
	}
}

func wantInt(t *testing.T, e *Expr, v uint64) {
	t.Helper()
	if e.Clause.Kind != IntLit || e.Clause.Int != v {
		t.Fatalf("normal form = %+v, want Int %d", e.Clause, v)
	}
}

func TestBetaReduction(t *testing.T) {
	in, _, m := setup()
	x := in.Sym("m", "x")
	// (\x.x) 42
	e := NewApply(NewLambda(x, NewName(x)), NewInt(42))
	reduceOK(t, m, e)
	wantInt(t, e, 42)
}

func TestNestedApplication(t *testing.T) {
	in, _, m := setup()
	x, y := in.Sym("m", "x"), in.Sym("m", "y")
	// (\x.\y.x) 1 2
	konst := NewLambda(x, NewLambda(y, NewName(x)))
	e := NewApply(NewApply(konst, NewInt(1)), NewInt(2))
	reduceOK(t, m, e)
	wantInt(t, e, 1)
}

func TestConstantLookup(t *testing.T) {
	in, tree, m := setup()
	answer := in.Sym("m", "answer")
	tree.Bind(answer, NewInt(42))
	e := NewName(answer)
	reduceOK(t, m, e)
	wantInt(t, e, 42)
}

func TestMissingSymbol(t *testing.T) {
	in, _, m := setup()
	e := NewName(in.Sym("m", "nope"))
	_, _, err := m.Reduce(e, Unbounded)
	var rerr *RunError
	if !errors.As(err, &rerr) || rerr.Kind != MissingSymbol {
		t.Fatalf("err = %v, want MissingSymbol", err)
	}
}

func TestNonFunctionApplication(t *testing.T) {
	_, _, m := setup()
	e := NewApply(NewInt(1), NewInt(2))
	_, _, err := m.Reduce(e, Unbounded)
	var rerr *RunError
	if !errors.As(err, &rerr) || rerr.Kind != NonFunction {
		t.Fatalf("err = %v, want NonFunction", err)
	}
}

func TestExternFn(t *testing.T) {
	in, tree, m := setup()
	inc := in.Sym("std", "inc")
	tree.Bind(inc, NewExpr(FnClause(incFn())))
	// inc (inc 40)
	e := NewApply(NewName(inc), NewApply(NewName(inc), NewInt(40)))
	reduceOK(t, m, e)
	wantInt(t, e, 42)
}

func TestSharing_YStep(t *testing.T) {
	in, tree, m := setup()
	g := in.Sym("m", "g")
	x := in.Sym("m", "x")
	tree.Bind(g, NewExpr(AtomClause(inert{"g"})))
	// (\x.g (x x)) (\x.g (x x)): one step wires the argument lambda into
	// both substitution sites as the same node.
	mk := func() *Expr {
		return NewLambda(x, NewApply(NewName(g), NewApply(NewName(x), NewName(x))))
	}
	e := NewApply(mk(), mk())
	status, _, err := m.Reduce(e, 1)
	if err != nil {
		t.Fatalf("Reduce -> error %v", err)
	}
	if status != BudgetExhausted {
		t.Fatalf("status = %v, want BudgetExhausted", status)
	}
	if e.Clause.Kind != Apply || e.Clause.X.Clause.Kind != Apply {
		t.Fatalf("unexpected shape after one step: %+v", e.Clause)
	}
	selfApp := e.Clause.X
	if selfApp.Clause.F != selfApp.Clause.X {
		t.Errorf("the two references to the argument are distinct nodes")
	}
}

func TestSharedArgumentReducedOnce(t *testing.T) {
	in, tree, m := setup()
	counter := 0
	count := in.Sym("std", "count")
	tree.Bind(count, NewExpr(FnClause(Fn1{
		FnName: "count",
		Body: func(m *Machine, arg *Expr) (Clause, error) {
			counter++
			return arg.Clause, nil
		},
	})))
	x := in.Sym("m", "x")
	seq2 := in.Sym("std", "seq2")
	// seq2 forces both of its arguments and returns the second. Both sites
	// reference the same argument node, so count runs once.
	tree.Bind(seq2, NewExpr(FnClause(Fn1{
		FnName: "seq2",
		Body: func(m *Machine, a *Expr) (Clause, error) {
			return FnClause(Fn1{
				FnName: "seq2'",
				Body: func(m *Machine, b *Expr) (Clause, error) {
					return b.Clause, nil
				},
			}), nil
		},
	})))
	body := NewApply(NewApply(NewName(seq2), NewName(x)), NewName(x))
	e := NewApply(NewLambda(x, body), NewApply(NewName(count), NewInt(1)))
	reduceOK(t, m, e)
	wantInt(t, e, 1)
	if counter != 1 {
		t.Errorf("shared argument evaluated %d times, want exactly once", counter)
	}
}

func TestBudgetResumability(t *testing.T) {
	in, _, m := setup()
	x := in.Sym("m", "x")
	id := func() *Expr { return NewLambda(x, NewName(x)) }
	mk := func() *Expr {
		return NewApply(id(), NewApply(id(), NewApply(id(), NewInt(42))))
	}
	// Full cost is 3 steps. Any b1+b2 >= 3 must land on the same result.
	for b1 := 0; b1 <= 3; b1++ {
		e := mk()
		status, _, err := m.Reduce(e, b1)
		if err != nil {
			t.Fatalf("budget %d: %v", b1, err)
		}
		if b1 < 3 && status != BudgetExhausted {
			t.Fatalf("budget %d: status %v, want BudgetExhausted", b1, status)
		}
		status, _, err = m.Reduce(e, Unbounded)
		if err != nil || status != Done {
			t.Fatalf("resume after %d: status %v err %v", b1, status, err)
		}
		wantInt(t, e, 42)
	}
}

func TestDeterminism(t *testing.T) {
	in, _, m := setup()
	x, y := in.Sym("m", "x"), in.Sym("m", "y")
	mk := func() *Expr {
		konst := NewLambda(x, NewLambda(y, NewName(x)))
		return NewApply(NewApply(konst, NewInt(7)), NewInt(9))
	}
	a, b := mk(), mk()
	reduceOK(t, m, a)
	reduceOK(t, m, b)
	if a.Clause.Kind != b.Clause.Kind || a.Clause.Int != b.Clause.Int {
		t.Errorf("equal expressions reduced to different normal forms")
	}
}

func TestLambdaIsTerminal(t *testing.T) {
	in, _, m := setup()
	x := in.Sym("m", "x")
	// The body of an unapplied lambda is not reduced.
	e := NewLambda(x, NewApply(NewInt(1), NewInt(2)))
	reduceOK(t, m, e)
	if e.Clause.Kind != Lambda {
		t.Fatalf("lambda is not terminal")
	}
}

// command is a test command atom for the handler trampoline.
type command struct {
	msg  string
	cont *Expr
}

func (command) Step(arg *Expr, m *Machine) AtomStep { return Inert() }

func TestReduceWithHandlers(t *testing.T) {
	in, tree, m := setup()
	print := in.Sym("std", "print")
	// print msg cont reduces to a command atom carrying the continuation.
	tree.Bind(print, NewExpr(FnClause(Fn1{
		FnName: "print",
		Body: func(m *Machine, arg *Expr) (Clause, error) {
			msg := m.Interner().TextOf(arg.Clause.Str)
			return FnClause(Fn1{
				FnName: "print1",
				Body: func(m *Machine, cont *Expr) (Clause, error) {
					return AtomClause(command{msg: msg, cont: cont}), nil
				},
			}), nil
		},
	})))
	var out []string
	ht := NewHandlerTable()
	Register(ht, func(cmd command) (Clause, error) {
		out = append(out, cmd.msg)
		return cmd.cont.Clause, nil
	})
	e := NewApply(
		NewApply(NewName(print), NewExpr(StrClause(in.Text("hello")))),
		NewInt(0))
	status, _, err := m.ReduceWithHandlers(e, Unbounded, ht)
	if err != nil || status != Done {
		t.Fatalf("status %v err %v", status, err)
	}
	wantInt(t, e, 0)
	if len(out) != 1 || out[0] != "hello" {
		t.Errorf("handler output = %v, want [hello]", out)
	}
}

func TestAtomFail(t *testing.T) {
	_, _, m := setup()
	e := NewExpr(AtomClause(failAtom{}))
	_, _, err := m.Reduce(e, Unbounded)
	var rerr *RunError
	if !errors.As(err, &rerr) || rerr.Kind != AtomFail {
		t.Fatalf("err = %v, want AtomFail", err)
	}
}

type failAtom struct{}

func (failAtom) Step(arg *Expr, m *Machine) AtomStep {
	return Fail(fmt.Errorf("boom"))
}

func TestAtomRequireReduce(t *testing.T) {
	in, _, m := setup()
	x := in.Sym("m", "x")
	// addTo requires its argument reduced before consuming it.
	arg := NewApply(NewLambda(x, NewName(x)), NewInt(2))
	e := NewApply(NewExpr(AtomClause(addTo{40})), arg)
	reduceOK(t, m, e)
	wantInt(t, e, 42)
}

// addTo is an atom that adds its base to a reduced integer argument.
type addTo struct{ base uint64 }

func (a addTo) Step(arg *Expr, m *Machine) AtomStep {
	if arg == nil {
		return Inert()
	}
	if !arg.Normal() {
		return RequireReduce(arg)
	}
	return Replace(IntClause(a.base + arg.Clause.Int))
}
