// Package macro drives the term-rewriting engine to a fixpoint and lowers
// macro normal forms into runtime expressions.
//
// Each pass picks the applicable rule with the highest priority and rewrites
// the first sequence it matches, trying outer sequences before bracketed
// ones. The driver detects rule ties (ambiguity) and rewrite cycles
// (recursion), and enforces a per-constant rewrite step budget.
package macro

import (
	"fmt"
	"io"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/logutil"
	"github.com/orchidlang/orchid/pkg/rule"
)

var logger = logutil.GetLogger("[macro] ")

// DefaultBudget is the rewrite step budget per constant when the runner is
// created with none.
const DefaultBudget = 10000

// ErrorKind enumerates rewrite failures.
type ErrorKind uint8

const (
	// Ambiguity: two rules at the same priority matched the same body.
	Ambiguity ErrorKind = 1 + iota
	// Recursion: rewriting revisited an earlier state of the body.
	Recursion
	// BudgetExceeded: the rewrite step budget ran out.
	BudgetExceeded
	// NonRoundBracket: a square or curly bracket survived to lowering.
	NonRoundBracket
	// BadLambdaArg: a lambda argument did not reduce to a name by lowering.
	BadLambdaArg
	// PlaceholderLeft: a placeholder survived outside a rule.
	PlaceholderLeft
	// EmptySeq: an empty clause sequence cannot be lowered.
	EmptySeq
)

// Error is a rewrite or lowering error.
type Error struct {
	Kind ErrorKind
	// Rule is the offending rule, when one is involved.
	Rule *rule.Prepared
	// Detail renders the offending clauses.
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case Ambiguity:
		return fmt.Sprintf("rule ambiguity at priority %v: %s", e.Rule.Priority(), e.Detail)
	case Recursion:
		return fmt.Sprintf("rule recursion: %s", e.Detail)
	case BudgetExceeded:
		return fmt.Sprintf("macro budget exceeded: %s", e.Detail)
	case NonRoundBracket:
		return fmt.Sprintf("non-round bracket in macro normal form: %s", e.Detail)
	case BadLambdaArg:
		return fmt.Sprintf("lambda argument is not a name: %s", e.Detail)
	case PlaceholderLeft:
		return fmt.Sprintf("placeholder outside a rule: %s", e.Detail)
	case EmptySeq:
		return "empty expression"
	}
	return "macro error"
}

// Runner rewrites constant bodies against a rule repository.
type Runner struct {
	in     *intern.Interner
	repo   *rule.Repository
	budget int
	trace  io.Writer
}

// SetTrace makes the runner write every applied rewrite to w, for macro
// debugging. A nil w disables tracing.
func (r *Runner) SetTrace(w io.Writer) { r.trace = w }

// NewRunner creates a runner. A zero budget selects DefaultBudget.
func NewRunner(in *intern.Interner, repo *rule.Repository, budget int) *Runner {
	if budget == 0 {
		budget = DefaultBudget
	}
	return &Runner{in: in, repo: repo, budget: budget}
}

// Applied describes one rewrite step, for macro debugging.
type Applied struct {
	Rule *rule.Prepared
	// Matched renders the sequence the rule matched.
	Matched string
}

// Step performs at most one rewrite and reports what was applied. When no
// rule matches, the body is returned unchanged with a nil Applied.
func (r *Runner) Step(body []ast.Clause) ([]ast.Clause, *Applied, error) {
	prep, newBody, matched, ok, err := r.step(body)
	if err != nil {
		return body, nil, err
	}
	if !ok {
		return body, nil, nil
	}
	return newBody, &Applied{Rule: prep, Matched: ast.SeqText(r.in, matched)}, nil
}

// Normalize rewrites the body until no rule applies and returns the macro
// normal form.
func (r *Runner) Normalize(body []ast.Clause) ([]ast.Clause, error) {
	seen := map[string]bool{ast.SeqText(r.in, body): true}
	for steps := 0; ; steps++ {
		if steps >= r.budget {
			return nil, &Error{Kind: BudgetExceeded, Detail: ast.SeqText(r.in, body)}
		}
		prep, newBody, _, ok, err := r.step(body)
		if err != nil {
			return nil, err
		}
		if !ok {
			return body, nil
		}
		rendered := ast.SeqText(r.in, newBody)
		if seen[rendered] {
			return nil, &Error{Kind: Recursion, Rule: prep, Detail: rendered}
		}
		seen[rendered] = true
		logger.Printf("step %d: %s", steps, rendered)
		if r.trace != nil {
			fmt.Fprintf(r.trace, "%s\n  => %s\n", ruleName(r.in, prep), rendered)
		}
		body = newBody
	}
}

// step finds the highest-priority applicable rule and applies it once,
// trying outer sequences before inner ones. A second distinct rule at the
// same priority matching the same body is an ambiguity.
func (r *Runner) step(body []ast.Clause) (*rule.Prepared, []ast.Clause, []ast.Clause, bool, error) {
	names := make(map[intern.Sym]struct{})
	ast.CollectNames(body, names)
	rules := r.repo.Rules()
	for i, prep := range rules {
		if !prep.GlossarySubset(names) {
			continue
		}
		newBody, matched, ok := applyFirst(prep, body)
		if !ok {
			continue
		}
		for _, other := range rules[i+1:] {
			if other.Priority() != prep.Priority() {
				break
			}
			if !other.GlossarySubset(names) {
				continue
			}
			if _, _, clash := applyFirst(other, body); clash {
				return nil, nil, nil, false, &Error{
					Kind: Ambiguity, Rule: prep,
					Detail: fmt.Sprintf("%s and %s both match %s",
						ruleName(r.in, prep), ruleName(r.in, other),
						ast.SeqText(r.in, matched)),
				}
			}
		}
		return prep, newBody, matched, true, nil
	}
	return nil, nil, nil, false, nil
}

func ruleName(in *intern.Interner, p *rule.Prepared) string {
	if p.Rule.Module == 0 {
		return fmt.Sprintf("rule %q", ast.SeqText(in, p.Rule.Pattern))
	}
	return fmt.Sprintf("rule %q in %s",
		ast.SeqText(in, p.Rule.Pattern), in.SymText(p.Rule.Module))
}

// applyFirst applies the rule to the first matching sequence in tree order:
// the sequence itself first, then the subsequences of each clause from left
// to right.
func applyFirst(p *rule.Prepared, cs []ast.Clause) (newSeq, matched []ast.Clause, ok bool) {
	if state, hit := p.Match(cs); hit {
		return p.Expand(state), cs, true
	}
	for i := range cs {
		if newC, m, hit := applyFirstClause(p, cs[i]); hit {
			out := make([]ast.Clause, len(cs))
			copy(out, cs)
			out[i] = newC
			return out, m, true
		}
	}
	return nil, nil, false
}

func applyFirstClause(p *rule.Prepared, c ast.Clause) (ast.Clause, []ast.Clause, bool) {
	switch c.Kind {
	case ast.S:
		if body, m, ok := applyFirst(p, c.Body); ok {
			c.Body = body
			return c, m, true
		}
	case ast.Lambda:
		if arg, m, ok := applyFirstClause(p, *c.Arg); ok {
			c.Arg = &arg
			return c, m, true
		}
		if body, m, ok := applyFirst(p, c.Body); ok {
			c.Body = body
			return c, m, true
		}
	}
	return ast.Clause{}, nil, false
}
