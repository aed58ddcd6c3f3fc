package eval

import (
	"fmt"

	"github.com/orchidlang/orchid/pkg/intern"
)

// Machine reduces expressions against a symbol tree. The tree and the
// interner are read-only for the lifetime of any reduction; mutating either
// during a Reduce call is forbidden by contract.
type Machine struct {
	in   *intern.Interner
	tree *Tree
}

// NewMachine creates a machine over a tree.
func NewMachine(in *intern.Interner, tree *Tree) *Machine {
	return &Machine{in: in, tree: tree}
}

// Interner returns the machine's interner, for extern libraries that build
// literals.
func (m *Machine) Interner() *intern.Interner { return m.in }

// Tree returns the machine's symbol tree.
func (m *Machine) Tree() *Tree { return m.tree }

// Status reports how a reduction ended.
type Status uint8

const (
	// Done: the expression is in normal form.
	Done Status = 1 + iota
	// BudgetExhausted: the step budget ran out; the expression graph is in a
	// valid, partially reduced state and a later Reduce resumes it.
	BudgetExhausted
)

// Unbounded removes the step limit when passed as a budget.
const Unbounded = -1

// RunError is a runtime error surfaced by reduction.
type RunError struct {
	Kind RunErrorKind
	// Sym names the missing symbol for MissingSymbol errors.
	Sym string
	// Err is the underlying atom error for AtomFail.
	Err error
	// Detail describes the offending clause for NonFunction errors.
	Detail string
}

// RunErrorKind enumerates runtime error categories.
type RunErrorKind uint8

const (
	// MissingSymbol: a Name did not resolve through the tree.
	MissingSymbol RunErrorKind = 1 + iota
	// NonFunction: something that is not a function was applied to an
	// argument.
	NonFunction
	// AtomFail: an atom reported failure.
	AtomFail
)

func (e *RunError) Error() string {
	switch e.Kind {
	case MissingSymbol:
		return fmt.Sprintf("undefined symbol %s", e.Sym)
	case NonFunction:
		return fmt.Sprintf("%s is not a function and cannot be applied", e.Detail)
	case AtomFail:
		return e.Err.Error()
	}
	return "runtime error"
}

func (e *RunError) Unwrap() error { return e.Err }

// Reduce brings the expression to normal form within the step budget. Each
// β-step, extern call, atom step and symbol lookup consumes one unit. It
// returns the remaining budget; on BudgetExhausted the graph stays valid and
// resumable.
func (m *Machine) Reduce(e *Expr, budget int) (Status, int, error) {
	c := &rctx{m: m, gas: budget}
	done, err := c.normalize(e)
	if err != nil {
		return Done, c.gas, err
	}
	if !done {
		return BudgetExhausted, 0, nil
	}
	return Done, c.gas, nil
}

// rctx carries the mutable state of one reduction session.
type rctx struct {
	m   *Machine
	gas int
}

// spend consumes one unit and reports false when the budget is exhausted.
func (c *rctx) spend() bool {
	if c.gas == 0 {
		return false
	}
	if c.gas > 0 {
		c.gas--
	}
	return true
}

// normalize drives the node to normal form. It reports done=false when the
// budget ran out; the node keeps any partial progress.
func (c *rctx) normalize(e *Expr) (bool, error) {
	if e.state == normal {
		return true, nil
	}
	if e.state == reducing {
		// Re-entered through sharing along the active spine. Authored
		// recursion goes through the Y combinator and re-creates its
		// reference lazily, so this cannot loop; return it as done without
		// marking it normal, and let the outer frame reducing it finish it.
		return true, nil
	}
	e.state = reducing
	done, err := c.loop(e)
	if err != nil {
		e.state = raw
		return false, err
	}
	if done {
		e.state = normal
	} else {
		e.state = raw
	}
	return done, nil
}

func (c *rctx) loop(e *Expr) (bool, error) {
	for {
		switch e.Clause.Kind {
		case Name:
			target, ok := c.m.tree.Lookup(e.Clause.Sym)
			if !ok {
				return false, &RunError{
					Kind: MissingSymbol, Sym: c.m.in.SymText(e.Clause.Sym),
				}
			}
			if !c.spend() {
				return false, nil
			}
			e.Clause = target.Clause
		case Apply:
			done, err := c.step(e)
			if err != nil || !done {
				return done, err
			}
		case AtomK:
			step := e.Clause.Atom.Step(nil, c.m)
			switch step.Kind {
			case StepInert:
				return true, nil
			case StepReplace:
				if !c.spend() {
					return false, nil
				}
				e.Clause = step.Clause
			case StepRequire:
				if !c.spend() {
					return false, nil
				}
				if done, err := c.normalize(step.Target); err != nil || !done {
					return done, err
				}
			case StepFail:
				return false, &RunError{Kind: AtomFail, Err: step.Err}
			}
		default:
			// Literals, lambdas and extern functions are terminal.
			return true, nil
		}
	}
}

// step reduces an application node by one move: β-reduction, extern call,
// or atom application.
func (c *rctx) step(e *Expr) (bool, error) {
	f, x := e.Clause.F, e.Clause.X
	done, err := c.normalize(f)
	if err != nil || !done {
		return done, err
	}
	switch f.Clause.Kind {
	case Lambda:
		if !c.spend() {
			return false, nil
		}
		e.Clause = substRoot(f.Clause.Body, f.Clause.Arg, x)
		return true, nil
	case ExternK:
		if done, err := c.normalize(x); err != nil || !done {
			return done, err
		}
		if !c.spend() {
			return false, nil
		}
		clause, err := f.Clause.Fn.Apply(c.m, x)
		if err != nil {
			return false, &RunError{Kind: AtomFail, Err: err}
		}
		e.Clause = clause
		return true, nil
	case AtomK:
		if !c.spend() {
			return false, nil
		}
		step := f.Clause.Atom.Step(x, c.m)
		switch step.Kind {
		case StepReplace:
			e.Clause = step.Clause
			return true, nil
		case StepRequire:
			if done, err := c.normalize(step.Target); err != nil || !done {
				return done, err
			}
			return true, nil
		case StepInert:
			return false, &RunError{
				Kind: NonFunction, Detail: "an inert atom",
			}
		case StepFail:
			return false, &RunError{Kind: AtomFail, Err: step.Err}
		}
		return true, nil
	default:
		return false, &RunError{
			Kind: NonFunction, Detail: describeClause(c.m.in, f.Clause),
		}
	}
}

// substRoot substitutes arg for every free occurrence of sym in body and
// returns the clause of the instantiated root. The argument node itself is
// wired into every substitution site, so all sites share its reduction.
func substRoot(body *Expr, sym intern.Sym, arg *Expr) Clause {
	return subst(body, sym, arg).Clause
}

func subst(e *Expr, sym intern.Sym, arg *Expr) *Expr {
	switch e.Clause.Kind {
	case Name:
		if e.Clause.Sym == sym {
			return arg
		}
		return e
	case Apply:
		f := subst(e.Clause.F, sym, arg)
		x := subst(e.Clause.X, sym, arg)
		if f == e.Clause.F && x == e.Clause.X {
			return e
		}
		return NewApply(f, x)
	case Lambda:
		if e.Clause.Arg == sym {
			// The inner lambda shadows the name.
			return e
		}
		body := subst(e.Clause.Body, sym, arg)
		if body == e.Clause.Body {
			return e
		}
		return NewLambda(e.Clause.Arg, body)
	default:
		return e
	}
}

func describeClause(in *intern.Interner, c Clause) string {
	switch c.Kind {
	case IntLit:
		return fmt.Sprintf("the integer %d", c.Int)
	case NumLit:
		return fmt.Sprintf("the number %v", c.Num)
	case CharLit:
		return fmt.Sprintf("the character %q", c.Char)
	case StrLit:
		return fmt.Sprintf("the string %q", in.TextOf(c.Str))
	case Name:
		return in.SymText(c.Sym)
	default:
		return "this value"
	}
}
