package cpsio

import (
	"strings"
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

func TestPrintln(t *testing.T) {
	in, m := setup()
	e := eval.NewApply(eval.NewApply(
		eval.NewName(in.Sym("std", "io", "println")),
		eval.NewExpr(eval.StrClause(in.Text("hi")))),
		eval.NewInt(0))
	var out strings.Builder
	ht := Handlers(in, &out, strings.NewReader(""))
	status, _, err := m.ReduceWithHandlers(e, eval.Unbounded, ht)
	if err != nil || status != eval.Done {
		t.Fatalf("reduce -> %v status %v", err, status)
	}
	if out.String() != "hi\n" {
		t.Errorf("output = %q, want %q", out.String(), "hi\n")
	}
	if e.Clause.Kind != eval.IntLit || e.Clause.Int != 0 {
		t.Errorf("continuation = %+v, want 0", e.Clause)
	}
}

func TestPrintNoNewline(t *testing.T) {
	in, m := setup()
	e := eval.NewApply(eval.NewApply(
		eval.NewName(in.Sym("std", "io", "print")),
		eval.NewExpr(eval.StrClause(in.Text("hi")))),
		eval.NewInt(0))
	var out strings.Builder
	ht := Handlers(in, &out, strings.NewReader(""))
	if _, _, err := m.ReduceWithHandlers(e, eval.Unbounded, ht); err != nil {
		t.Fatalf("reduce -> %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("output = %q, want %q", out.String(), "hi")
	}
}

func TestReadln(t *testing.T) {
	in, m := setup()
	// readln (\line. line)
	x := in.Sym("m", "line")
	e := eval.NewApply(
		eval.NewName(in.Sym("std", "io", "readln")),
		eval.NewLambda(x, eval.NewName(x)))
	var out strings.Builder
	ht := Handlers(in, &out, strings.NewReader("first\nsecond\n"))
	status, _, err := m.ReduceWithHandlers(e, eval.Unbounded, ht)
	if err != nil || status != eval.Done {
		t.Fatalf("reduce -> %v status %v", err, status)
	}
	if e.Clause.Kind != eval.StrLit || in.TextOf(e.Clause.Str) != "first" {
		t.Errorf("normal form = %+v, want \"first\"", e.Clause)
	}
}

func TestCommandsAreInertWithoutHandlers(t *testing.T) {
	in, m := setup()
	e := eval.NewApply(eval.NewApply(
		eval.NewName(in.Sym("std", "io", "println")),
		eval.NewExpr(eval.StrClause(in.Text("hi")))),
		eval.NewInt(0))
	status, _, err := m.Reduce(e, eval.Unbounded)
	if err != nil || status != eval.Done {
		t.Fatalf("reduce -> %v status %v", err, status)
	}
	if e.Clause.Kind != eval.AtomK {
		t.Errorf("normal form = %+v, want an inert command atom", e.Clause)
	}
}
