package eval

import (
	"fmt"
	"reflect"
)

// HandlerTable maps atom types to host handlers. Together with command atoms
// it implements effectful APIs on top of pure reduction: Orchid code reduces
// to a command atom, the handler performs the effect and supplies the
// continuation clause, and reduction resumes.
type HandlerTable struct {
	handlers map[reflect.Type]func(Atom) (Clause, error)
}

// NewHandlerTable creates an empty handler table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{handlers: make(map[reflect.Type]func(Atom) (Clause, error))}
}

// Register adds a handler for a concrete atom type. Registering two handlers
// for the same type panics.
func Register[T Atom](ht *HandlerTable, f func(T) (Clause, error)) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		panic("eval: Register needs a concrete atom type")
	}
	if _, dup := ht.handlers[t]; dup {
		panic(fmt.Sprintf("eval: handler for %v registered twice", t))
	}
	ht.handlers[t] = func(a Atom) (Clause, error) {
		return f(a.(T))
	}
}

// Combine merges the entries of other into ht. Overlaps panic.
func (ht *HandlerTable) Combine(other *HandlerTable) *HandlerTable {
	for t, f := range other.handlers {
		if _, dup := ht.handlers[t]; dup {
			panic(fmt.Sprintf("eval: handler for %v registered twice", t))
		}
		ht.handlers[t] = f
	}
	return ht
}

func (ht *HandlerTable) dispatch(a Atom) (Clause, bool, error) {
	f, ok := ht.handlers[reflect.TypeOf(a)]
	if !ok {
		return Clause{}, false, nil
	}
	clause, err := f(a)
	return clause, true, err
}

// ReduceWithHandlers trampolines reduction: whenever the normal form is an
// atom recognized by the handler table, the handler runs and reduction
// resumes from the clause it returns. Handler invocations are not counted
// against the budget.
func (m *Machine) ReduceWithHandlers(e *Expr, budget int, ht *HandlerTable) (Status, int, error) {
	for {
		status, rest, err := m.Reduce(e, budget)
		if err != nil || status != Done {
			return status, rest, err
		}
		budget = rest
		if e.Clause.Kind != AtomK {
			return Done, rest, nil
		}
		clause, handled, err := ht.dispatch(e.Clause.Atom)
		if err != nil {
			return Done, rest, &RunError{Kind: AtomFail, Err: err}
		}
		if !handled {
			return Done, rest, nil
		}
		e.Clause = clause
		e.Touch()
	}
}
