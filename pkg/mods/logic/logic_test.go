package logic

import (
	"testing"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

func setup() (*intern.Interner, *eval.Machine) {
	in := intern.New()
	tree := eval.NewTree()
	Bind(in, tree)
	return in, eval.NewMachine(in, tree)
}

func TestEquals(t *testing.T) {
	in, m := setup()
	tests := []struct {
		a, b *eval.Expr
		want bool
	}{
		{eval.NewInt(1), eval.NewInt(1), true},
		{eval.NewInt(1), eval.NewInt(2), false},
		{eval.NewExpr(eval.NumClause(1)), eval.NewInt(1), true},
		{eval.NewExpr(eval.StrClause(in.Text("a"))), eval.NewExpr(eval.StrClause(in.Text("a"))), true},
		{eval.NewExpr(eval.StrClause(in.Text("a"))), eval.NewInt(1), false},
		{eval.NewExpr(eval.CharClause('x')), eval.NewExpr(eval.CharClause('x')), true},
	}
	for i, test := range tests {
		e := eval.NewApply(eval.NewApply(
			eval.NewName(in.Sym("std", "bool", "equals")), test.a), test.b)
		if _, _, err := m.Reduce(e, eval.Unbounded); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		b, ok := e.Clause.Atom.(Bool)
		if e.Clause.Kind != eval.AtomK || !ok {
			t.Fatalf("case %d: normal form %+v is not a Bool", i, e.Clause)
		}
		if b.Value != test.want {
			t.Errorf("case %d: got %v, want %v", i, b.Value, test.want)
		}
	}
}

func TestIfThenElse(t *testing.T) {
	in, m := setup()
	pick := func(cond bool) uint64 {
		t.Helper()
		e := eval.NewApply(eval.NewApply(eval.NewApply(
			eval.NewName(in.Sym("std", "bool", "ifthenelse")),
			eval.NewExpr(Clause(cond))),
			eval.NewInt(10)), eval.NewInt(20))
		if _, _, err := m.Reduce(e, eval.Unbounded); err != nil {
			t.Fatalf("Reduce -> %v", err)
		}
		if e.Clause.Kind != eval.IntLit {
			t.Fatalf("normal form %+v is not an integer", e.Clause)
		}
		return e.Clause.Int
	}
	if got := pick(true); got != 10 {
		t.Errorf("if true -> %d, want 10", got)
	}
	if got := pick(false); got != 20 {
		t.Errorf("if false -> %d, want 20", got)
	}
}

func TestIfThenElse_BranchesStayLazy(t *testing.T) {
	in, m := setup()
	// The untaken branch is an application that fails when reduced;
	// laziness means it is never touched.
	bad := eval.NewApply(eval.NewInt(1), eval.NewInt(2))
	e := eval.NewApply(eval.NewApply(eval.NewApply(
		eval.NewName(in.Sym("std", "bool", "ifthenelse")),
		eval.NewExpr(Clause(true))),
		eval.NewInt(10)), bad)
	if _, _, err := m.Reduce(e, eval.Unbounded); err != nil {
		t.Fatalf("Reduce -> %v", err)
	}
	if e.Clause.Kind != eval.IntLit || e.Clause.Int != 10 {
		t.Errorf("normal form = %+v, want 10", e.Clause)
	}
}

func TestIfThenElse_NonBoolCondition(t *testing.T) {
	in, m := setup()
	e := eval.NewApply(eval.NewName(in.Sym("std", "bool", "ifthenelse")), eval.NewInt(1))
	if _, _, err := m.Reduce(e, eval.Unbounded); err == nil {
		t.Fatalf("want error for non-boolean condition")
	}
}
