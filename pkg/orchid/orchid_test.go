package orchid

import (
	"strings"
	"testing"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/pipeline"
	"github.com/orchidlang/orchid/pkg/testutil"
)

func compileOK(t *testing.T, sources map[string]string) *Result {
	t.Helper()
	res, err := Compile(CompileCfg{
		Resolver: pipeline.MapResolver(sources),
		Targets:  []string{"main"},
	})
	if err != nil {
		t.Fatalf("Compile -> %v", err)
	}
	return res
}

func runMain(t *testing.T, res *Result) (*eval.Expr, string) {
	t.Helper()
	var out strings.Builder
	ht := res.StdHandlers(&out, strings.NewReader(""))
	e, status, err := res.RunHandler("main::main", eval.Unbounded, ht)
	if err != nil {
		t.Fatalf("run -> %v", err)
	}
	if status != eval.Done {
		t.Fatalf("run -> status %v", status)
	}
	return e, out.String()
}

func wantInt(t *testing.T, e *eval.Expr, v uint64) {
	t.Helper()
	if e.Clause.Kind != eval.IntLit || e.Clause.Int != v {
		t.Fatalf("normal form = %+v, want Int %d", e.Clause, v)
	}
}

func TestHelloWorld(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import std::(io::println, exit_status)
			const main := println "Hello World!" exit_status::success
		`),
	})
	e, out := runMain(t, res)
	if out != "Hello World!\n" {
		t.Errorf("stdout = %q, want %q", out, "Hello World!\n")
	}
	wantInt(t, e, 0)
}

func TestDoLetBlock(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": "const main := do { let a = 2 ; let b = 3 ; a + b }",
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 5)
}

func TestOperatorPrecedence(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": "const main := 1 + 2 * 3",
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 7)
}

func TestPipeline(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			const double := \x. x * 2
			const main := 1 + 4 |> double
		`),
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 10)
}

func TestIfThenElse(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			const pick := \n. if n == 1 then 10 else 20
			const main := pick 1 + pick 2
		`),
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 30)
}

func TestStringConcat(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import std::(io::println, exit_status)
			const main := println ("Hello " ++ "Orchid") exit_status::success
		`),
	})
	_, out := runMain(t, res)
	if out != "Hello Orchid\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestCpsReadln(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import std::(io::println, io::readln, exit_status)
			const main := do {
				cps name = readln ;
				cps println ("hi " ++ name) ;
				exit_status::success
			}
		`),
	})
	var out strings.Builder
	ht := res.StdHandlers(&out, strings.NewReader("orchid\n"))
	e, status, err := res.RunHandler("main::main", eval.Unbounded, ht)
	if err != nil || status != eval.Done {
		t.Fatalf("run -> %v status %v", err, status)
	}
	wantInt(t, e, 0)
	if out.String() != "hi orchid\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestUserMacro(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			macro twice $x =0x1p40=> ($x + $x)
			const main := twice 21
		`),
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 42)
}

func TestCrossModule(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import lib::triple
			const main := triple 5
		`),
		"lib": testutil.Dedent(`
			export const triple := \x. x * 3
		`),
	})
	e, _ := runMain(t, res)
	wantInt(t, e, 15)
}

func TestRuleAmbiguityDiagnosed(t *testing.T) {
	_, err := Compile(CompileCfg{
		Resolver: pipeline.MapResolver(map[string]string{
			"main": testutil.Dedent(`
				macro foo $x =0x1p8=> (left $x)
				macro foo $y =0x1p8=> (right $y)
				const main := foo 1
			`),
		}),
		Targets: []string{"main"},
	})
	if err == nil || !strings.Contains(err.Error(), "ambiguity") {
		t.Fatalf("want ambiguity error, got %v", err)
	}
}

func TestRuleRecursionDiagnosed(t *testing.T) {
	_, err := Compile(CompileCfg{
		Resolver: pipeline.MapResolver(map[string]string{
			"main": testutil.Dedent(`
				macro foo $x =0x1p200=> foo $x
				const main := foo 1
			`),
		}),
		Targets: []string{"main"},
	})
	if err == nil || !strings.Contains(err.Error(), "recursion") {
		t.Fatalf("want recursion error, got %v", err)
	}
}

func TestPanic(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import std::system::panic
			const main := panic "boom"
		`),
	})
	var out strings.Builder
	ht := res.StdHandlers(&out, strings.NewReader(""))
	_, _, err := res.RunHandler("main::main", eval.Unbounded, ht)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("want panic error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": testutil.Dedent(`
			import std::exit_status
			const main := exit_status::failure
		`),
	})
	var out strings.Builder
	code, err := res.ExitCode("main", res.StdHandlers(&out, strings.NewReader("")))
	if err != nil {
		t.Fatalf("ExitCode -> %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestExitCodeNonInteger(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": `const main := "not a number"`,
	})
	var out strings.Builder
	_, err := res.ExitCode("main", res.StdHandlers(&out, strings.NewReader("")))
	if err == nil || !strings.Contains(err.Error(), "integer") {
		t.Fatalf("want non-integer error, got %v", err)
	}
}

func TestCustomExtern(t *testing.T) {
	res, err := Compile(CompileCfg{
		Resolver: pipeline.MapResolver(map[string]string{
			"main": testutil.Dedent(`
				import ext::fortytwo
				const main := fortytwo 0
			`),
		}),
		Targets: []string{"main"},
		Externs: map[string]eval.ExternFn{
			"ext::fortytwo": eval.Fn1{
				FnName: "fortytwo",
				Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
					return eval.IntClause(42), nil
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Compile -> %v", err)
	}
	e, _ := runMain(t, res)
	wantInt(t, e, 42)
}

func TestNoPrelude(t *testing.T) {
	_, err := Compile(CompileCfg{
		Resolver: pipeline.MapResolver(map[string]string{
			"main": "const main := 1 + 2",
		}),
		Targets:   []string{"main"},
		NoPrelude: true,
	})
	// Without the prelude, + stays one unresolved local name; compilation
	// itself succeeds but running it fails to resolve.
	if err != nil {
		t.Fatalf("Compile -> %v", err)
	}
}

func TestBudgetedRun(t *testing.T) {
	res := compileOK(t, map[string]string{
		"main": "const main := do { let a = 2 ; let b = 3 ; a + b }",
	})
	e, status, err := res.Run("main::main", 1)
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if status != eval.BudgetExhausted {
		t.Fatalf("status = %v, want BudgetExhausted", status)
	}
	// Resuming with no limit completes the same reduction.
	status, _, err = res.Machine.Reduce(e, eval.Unbounded)
	if err != nil || status != eval.Done {
		t.Fatalf("resume -> %v status %v", err, status)
	}
	wantInt(t, e, 5)
}
