// Package system binds the std::exit_status and std::system extern modules.
package system

import (
	"errors"
	"fmt"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

// PanicError is reported when Orchid code reaches std::system::panic.
type PanicError struct{ Message string }

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %s", e.Message)
}

// Bind installs the modules into the tree and returns their export sets.
func Bind(in *intern.Interner, tree *eval.Tree) map[intern.Sym][]intern.Tok {
	tree.Bind(in.Sym("std", "exit_status", "success"), eval.NewInt(0))
	tree.Bind(in.Sym("std", "exit_status", "failure"), eval.NewInt(1))

	tree.Bind(in.Sym("std", "system", "panic"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "panic",
		Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
			if arg.Clause.Kind != eval.StrLit {
				return eval.Clause{}, errors.New("panic: expected a message string")
			}
			return eval.Clause{}, &PanicError{
				Message: m.Interner().TextOf(arg.Clause.Str),
			}
		},
	})))

	return map[intern.Sym][]intern.Tok{
		in.Sym("std", "exit_status"): {in.Text("success"), in.Text("failure")},
		in.Sym("std", "system"):      {in.Text("panic")},
	}
}
