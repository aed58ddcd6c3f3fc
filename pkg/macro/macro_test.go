package macro

import (
	"strings"
	"testing"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
	"github.com/orchidlang/orchid/pkg/parse"
	"github.com/orchidlang/orchid/pkg/rule"
)

func mkRule(t *testing.T, in *intern.Interner, code string) ast.Rule {
	t.Helper()
	file, err := parse.Parse(in, lex.Source{Name: "rule.orc", Code: "macro " + code}, nil)
	if err != nil {
		t.Fatalf("parse rule %q: %v", code, err)
	}
	return *file.Lines[0].Rule
}

func mkSeq(t *testing.T, in *intern.Interner, code string) []ast.Clause {
	t.Helper()
	file, err := parse.Parse(in, lex.Source{Name: "seq.orc", Code: "const x := " + code}, nil)
	if err != nil {
		t.Fatalf("parse seq %q: %v", code, err)
	}
	return file.Lines[0].Body
}

func mkRunner(t *testing.T, in *intern.Interner, rules ...string) *Runner {
	t.Helper()
	repo := rule.New(in)
	for _, code := range rules {
		if err := repo.Insert(mkRule(t, in, code)); err != nil {
			t.Fatalf("Insert(%q) -> %v", code, err)
		}
	}
	return NewRunner(in, repo, 0)
}

func normalizeText(t *testing.T, r *Runner, in *intern.Interner, code string) string {
	t.Helper()
	out, err := r.Normalize(mkSeq(t, in, code))
	if err != nil {
		t.Fatalf("Normalize(%q) -> %v", code, err)
	}
	return ast.SeqText(in, out)
}

func TestNormalize_NoRules(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in)
	if got := normalizeText(t, r, in, "f 1 2"); got != "f 1 2" {
		t.Errorf("normal form = %q, want unchanged", got)
	}
}

func TestNormalize_OperatorPrecedence(t *testing.T) {
	in := intern.New()
	// Addition binds looser (rewrites first), so 1 + 2 * 3 nests the
	// multiplication inside the addition.
	r := mkRunner(t, in,
		"...$a + ...$b =0x2p36=> (add (...$a) (...$b))",
		"...$a * ...$b =0x1p36=> (mul (...$a) (...$b))",
	)
	// The multiplication rewrites inside the bracket the addition template
	// introduced, so its expansion stays wrapped in that bracket.
	got := normalizeText(t, r, in, "1 + 2 * 3")
	want := "(add (1) ((mul (2) (3))))"
	if got != want {
		t.Errorf("normal form = %q, want %q", got, want)
	}
}

func TestNormalize_OutsideFirst(t *testing.T) {
	in := intern.New()
	// The rule matches both outside and inside the bracket; the outside
	// match is rewritten first.
	r := mkRunner(t, in, "f $a =0x1p8=> (g $a)")
	out, applied, err := r.Step(mkSeq(t, in, "f (f 1)"))
	if err != nil || applied == nil {
		t.Fatalf("Step -> %v, applied %v", err, applied)
	}
	if got := ast.SeqText(in, out); got != "(g (f 1))" {
		t.Errorf("after one step: %q, want %q", got, "(g (f 1))")
	}
}

func TestNormalize_Ambiguity(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in,
		"f $a =0x1p8=> (g $a)",
		"f $b =0x1p8=> (h $b)",
	)
	_, err := r.Normalize(mkSeq(t, in, "f 1"))
	merr, ok := err.(*Error)
	if !ok || merr.Kind != Ambiguity {
		t.Fatalf("err = %v, want Ambiguity", err)
	}
}

func TestNormalize_DistinctPrioritiesNotAmbiguous(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in,
		"f $a =0x2p8=> (g $a)",
		"f $b =0x1p8=> (h $b)",
	)
	if got := normalizeText(t, r, in, "f 1"); got != "(g 1)" {
		t.Errorf("normal form = %q, want the higher priority rule", got)
	}
}

func TestNormalize_Recursion(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in, "foo $x =0x1p200=> foo $x")
	_, err := r.Normalize(mkSeq(t, in, "foo 1"))
	merr, ok := err.(*Error)
	if !ok || merr.Kind != Recursion {
		t.Fatalf("err = %v, want Recursion", err)
	}
}

func TestNormalize_BudgetExceeded(t *testing.T) {
	in := intern.New()
	repo := rule.New(in)
	if err := repo.Insert(mkRule(t, in, "grow $x =1=> grow ($x)")); err != nil {
		t.Fatalf("Insert -> %v", err)
	}
	r := NewRunner(in, repo, 10)
	_, err := r.Normalize(mkSeq(t, in, "grow 1"))
	merr, ok := err.(*Error)
	if !ok || merr.Kind != BudgetExceeded {
		t.Fatalf("err = %v, want BudgetExceeded", err)
	}
}

func TestNormalize_DoBlock(t *testing.T) {
	in := intern.New()
	// A miniature do/let macro set, in the style of the standard prelude.
	r := mkRunner(t, in,
		"do { ...$body } =0x3p8=> (statement (...$body))",
		"statement (let $name = ...$value:1 ; ...$rest) =0x2p8=> "+
			`((\$name. statement (...$rest)) (...$value))`,
		"statement (...$return) =0x1p8=> (...$return)",
	)
	got := normalizeText(t, r, in, "do { let a = 2 ; a }")
	want := `(((\a.(a)) (2)))`
	if got != want {
		t.Errorf("normal form = %q, want %q", got, want)
	}
}

func TestLower_Application(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in)
	e, err := r.Lower(mkSeq(t, in, "f x y"))
	if err != nil {
		t.Fatalf("Lower -> %v", err)
	}
	// f x y lowers to App(App(f, x), y).
	if e.Clause.Kind != eval.Apply || e.Clause.F.Clause.Kind != eval.Apply {
		t.Fatalf("lowered shape wrong: %+v", e.Clause)
	}
	inner := e.Clause.F
	if inner.Clause.F.Clause.Sym != in.Sym("f") {
		t.Errorf("head is not f")
	}
}

func TestLower_Lambda(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in)
	e, err := r.Lower(mkSeq(t, in, `\x. f x`))
	if err != nil {
		t.Fatalf("Lower -> %v", err)
	}
	if e.Clause.Kind != eval.Lambda || e.Clause.Arg != in.Sym("x") {
		t.Fatalf("lowered lambda wrong: %+v", e.Clause)
	}
}

func TestLower_Errors(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in)
	tests := []struct {
		code string
		kind ErrorKind
	}{
		{"f [1 2]", NonRoundBracket},
		{"f {1}", NonRoundBracket},
		{`\(g h). f`, BadLambdaArg},
		{"f $x", PlaceholderLeft},
	}
	for _, test := range tests {
		_, err := r.Lower(mkSeq(t, in, test.code))
		merr, ok := err.(*Error)
		if !ok || merr.Kind != test.kind {
			t.Errorf("Lower(%q) -> %v, want kind %d", test.code, err, test.kind)
		}
	}
}

func TestStep_MacroDebug(t *testing.T) {
	in := intern.New()
	r := mkRunner(t, in, "f $a =0x1p8=> (g $a)")
	body := mkSeq(t, in, "f 1")
	body, applied, err := r.Step(body)
	if err != nil || applied == nil {
		t.Fatalf("Step -> %v %v", applied, err)
	}
	if !strings.Contains(applied.Matched, "f 1") {
		t.Errorf("Applied.Matched = %q", applied.Matched)
	}
	if _, applied2, _ := r.Step(body); applied2 != nil {
		t.Errorf("second Step applied %v on a normal form", applied2)
	}
}
