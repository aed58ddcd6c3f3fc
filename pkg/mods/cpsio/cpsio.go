// Package cpsio binds the std::io extern module. IO functions reduce to
// inert command atoms carrying their continuation; the host drives them with
// the handler set from Handlers, keeping reduction itself pure.
package cpsio

import (
	"bufio"
	"errors"
	"io"

	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/intern"
)

// PrintCmd is the command atom of print and println.
type PrintCmd struct {
	Text string
	// Cont is the continuation expression reduced after the write.
	Cont *eval.Expr
}

// Step implements eval.Atom; commands are inert until a handler runs them.
func (PrintCmd) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	return eval.Fail(errors.New("an io command is not a function"))
}

// ReadLnCmd is the command atom of readln. Its continuation is applied to
// the line that was read.
type ReadLnCmd struct {
	Cont *eval.Expr
}

// Step implements eval.Atom.
func (ReadLnCmd) Step(arg *eval.Expr, m *eval.Machine) eval.AtomStep {
	if arg == nil {
		return eval.Inert()
	}
	return eval.Fail(errors.New("an io command is not a function"))
}

// Bind installs the module into the tree and returns its export set.
func Bind(in *intern.Interner, tree *eval.Tree) map[intern.Sym][]intern.Tok {
	bindPrint := func(name, suffix string) {
		tree.Bind(in.Sym("std", "io", name), eval.NewExpr(eval.FnClause(eval.Fn1{
			FnName: name,
			Body: func(m *eval.Machine, arg *eval.Expr) (eval.Clause, error) {
				if arg.Clause.Kind != eval.StrLit {
					return eval.Clause{}, errors.New(name + ": expected a string")
				}
				text := m.Interner().TextOf(arg.Clause.Str) + suffix
				return eval.FnClause(eval.Fn1{
					FnName: name + "'",
					Body: func(m *eval.Machine, cont *eval.Expr) (eval.Clause, error) {
						return eval.AtomClause(PrintCmd{Text: text, Cont: cont}), nil
					},
				}), nil
			},
		})))
	}
	bindPrint("print", "")
	bindPrint("println", "\n")

	tree.Bind(in.Sym("std", "io", "readln"), eval.NewExpr(eval.FnClause(eval.Fn1{
		FnName: "readln",
		Body: func(m *eval.Machine, cont *eval.Expr) (eval.Clause, error) {
			return eval.AtomClause(ReadLnCmd{Cont: cont}), nil
		},
	})))

	return map[intern.Sym][]intern.Tok{
		in.Sym("std", "io"): {
			in.Text("print"), in.Text("println"), in.Text("readln"),
		},
	}
}

// Handlers builds the handler set that performs io commands against the
// given streams. Effects run once per command atom identity; sharing makes
// repeated observation of the same node free.
func Handlers(in *intern.Interner, out io.Writer, src io.Reader) *eval.HandlerTable {
	ht := eval.NewHandlerTable()
	eval.Register(ht, func(cmd PrintCmd) (eval.Clause, error) {
		if _, err := io.WriteString(out, cmd.Text); err != nil {
			return eval.Clause{}, err
		}
		return cmd.Cont.Clause, nil
	})
	reader := bufio.NewReader(src)
	eval.Register(ht, func(cmd ReadLnCmd) (eval.Clause, error) {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return eval.Clause{}, err
		}
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		str := eval.NewExpr(eval.StrClause(in.Text(line)))
		return eval.NewApply(cmd.Cont, str).Clause, nil
	})
	return ht
}
