package eval

// Atom is an opaque foreign value embedded in the expression graph. The host
// defines its reduction behavior; the reducer only drives it through Step.
//
// Atoms appear in runtime expressions only, never in patterns; the matcher
// never compares atoms for equality.
type Atom interface {
	// Step advances the atom by one unit of work. When the atom is in
	// function position, arg is the applied argument (not yet reduced);
	// otherwise arg is nil. Atoms that need the argument in normal form
	// return a RequireReduce step and are re-stepped afterwards.
	Step(arg *Expr, m *Machine) AtomStep
}

// DeepCloner is implemented by atoms that distinguish copies from shared
// references. Atoms without it are shared freely.
type DeepCloner interface {
	CloneDeep() Atom
}

// StepKind enumerates atom step outcomes.
type StepKind uint8

const (
	// StepReplace substitutes a clause for the atom (and its application,
	// when stepped with an argument).
	StepReplace StepKind = 1 + iota
	// StepRequire asks the reducer to bring Target to normal form and step
	// the atom again.
	StepRequire
	// StepInert declares the atom a normal form.
	StepInert
	// StepFail aborts reduction with an error.
	StepFail
)

// AtomStep is the result of stepping an atom.
type AtomStep struct {
	Kind   StepKind
	Clause Clause
	Target *Expr
	Err    error
}

// Replace builds a StepReplace.
func Replace(c Clause) AtomStep { return AtomStep{Kind: StepReplace, Clause: c} }

// RequireReduce builds a StepRequire.
func RequireReduce(target *Expr) AtomStep {
	return AtomStep{Kind: StepRequire, Target: target}
}

// Inert builds a StepInert.
func Inert() AtomStep { return AtomStep{Kind: StepInert} }

// Fail builds a StepFail.
func Fail(err error) AtomStep { return AtomStep{Kind: StepFail, Err: err} }

// ExternFn is a foreign function. Apply must be pure: the reducer is free to
// elide repeated calls with the same argument node. The reducer brings the
// argument to normal form before calling Apply; functions that must receive
// their argument unreduced are expressed as atoms instead.
type ExternFn interface {
	// Name identifies the function in messages.
	Name() string
	// Apply consumes the argument and returns the replacement clause.
	Apply(m *Machine, arg *Expr) (Clause, error)
}

// Fn1 adapts a Go function into an ExternFn.
type Fn1 struct {
	FnName string
	Body   func(m *Machine, arg *Expr) (Clause, error)
}

func (f Fn1) Name() string { return f.FnName }

func (f Fn1) Apply(m *Machine, arg *Expr) (Clause, error) {
	return f.Body(m, arg)
}
