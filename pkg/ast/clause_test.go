package ast

import (
	"testing"

	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/tt"
)

var r = diag.Ranging{From: 0, To: 0}

func TestEq(t *testing.T) {
	in := intern.New()
	foo, bar := in.Sym("foo"), in.Sym("bar")
	x := in.Text("x")

	tt.Test(t, tt.Fn("Eq", Eq), tt.Table{
		tt.Args(NewName(r, foo), NewName(r, foo)).Rets(true),
		tt.Args(NewName(r, foo), NewName(r, bar)).Rets(false),
		tt.Args(NewInt(r, 3), NewInt(r, 3)).Rets(true),
		tt.Args(NewInt(r, 3), NewNum(r, 3)).Rets(false),
		tt.Args(
			NewS(r, Round, []Clause{NewName(r, foo), NewInt(r, 1)}),
			NewS(r, Round, []Clause{NewName(r, foo), NewInt(r, 1)}),
		).Rets(true),
		tt.Args(
			NewS(r, Round, []Clause{NewName(r, foo)}),
			NewS(r, Square, []Clause{NewName(r, foo)}),
		).Rets(false),
		tt.Args(
			NewLambda(r, NewName(r, foo), []Clause{NewName(r, bar)}),
			NewLambda(r, NewName(r, foo), []Clause{NewName(r, bar)}),
		).Rets(true),
		tt.Args(
			NewPlaceh(r, Placeholder{Name: x, Kind: VecZero, Prio: 1}),
			NewPlaceh(r, Placeholder{Name: x, Kind: VecZero, Prio: 1}),
		).Rets(true),
		tt.Args(
			NewPlaceh(r, Placeholder{Name: x, Kind: VecZero}),
			NewPlaceh(r, Placeholder{Name: x, Kind: VecOne}),
		).Rets(false),
	})

	// Ranges are ignored.
	a := NewName(diag.Ranging{From: 0, To: 3}, foo)
	b := NewName(diag.Ranging{From: 7, To: 10}, foo)
	if !Eq(a, b) {
		t.Errorf("Eq is sensitive to source ranges")
	}
}

func TestCollectNames(t *testing.T) {
	in := intern.New()
	foo, bar, baz := in.Sym("foo"), in.Sym("bar"), in.Sym("baz")
	cs := []Clause{
		NewName(r, foo),
		NewS(r, Round, []Clause{NewName(r, bar)}),
		NewLambda(r, NewName(r, baz), []Clause{NewName(r, foo), NewInt(r, 2)}),
	}
	got := make(map[intern.Sym]struct{})
	CollectNames(cs, got)
	for _, sym := range []intern.Sym{foo, bar, baz} {
		if _, ok := got[sym]; !ok {
			t.Errorf("missing %s in collected names", in.SymText(sym))
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d names, want 3", len(got))
	}
}

func TestText(t *testing.T) {
	in := intern.New()
	lam := NewLambda(r, NewName(r, in.Sym("x")),
		[]Clause{NewName(r, in.Sym("std", "number", "add")),
			NewName(r, in.Sym("x")), NewInt(r, 1)})
	tt.Test(t, tt.Fn("Text", Text), tt.Table{
		tt.Args(in, NewName(r, in.Sym("std", "list", "cons"))).
			Rets("std::list::cons"),
		tt.Args(in, NewS(r, Square, []Clause{NewInt(r, 1), NewInt(r, 2)})).
			Rets("[1 2]"),
		tt.Args(in, lam).Rets(`\x.std::number::add x 1`),
		tt.Args(in, NewStr(r, in.Text("hi"))).Rets(`"hi"`),
		tt.Args(in, NewPlaceh(r, Placeholder{Name: in.Text("a"), Kind: VecOne, Prio: 2})).
			Rets("...$a:2"),
		tt.Args(in, NewPlaceh(r, Placeholder{Name: in.Text("a"), Kind: Scalar})).
			Rets("$a"),
	})
}
