package macro

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/eval"
)

// Lower converts a macro normal form into a runtime expression. Round
// brackets become application grouping, lambdas become runtime lambdas with
// name arguments; square and curly brackets and placeholders must have been
// eliminated by the macro stage and are errors here.
func (r *Runner) Lower(body []ast.Clause) (*eval.Expr, error) {
	return r.lowerSeq(body)
}

func (r *Runner) lowerSeq(cs []ast.Clause) (*eval.Expr, error) {
	if len(cs) == 0 {
		return nil, &Error{Kind: EmptySeq}
	}
	head, err := r.lowerClause(cs[0])
	if err != nil {
		return nil, err
	}
	for _, c := range cs[1:] {
		arg, err := r.lowerClause(c)
		if err != nil {
			return nil, err
		}
		head = eval.NewApply(head, arg)
	}
	return head, nil
}

func (r *Runner) lowerClause(c ast.Clause) (*eval.Expr, error) {
	switch c.Kind {
	case ast.Name:
		return eval.NewName(c.Sym), nil
	case ast.S:
		if c.Bracket != ast.Round {
			return nil, &Error{Kind: NonRoundBracket, Detail: ast.Text(r.in, c)}
		}
		return r.lowerSeq(c.Body)
	case ast.Lambda:
		if c.Arg.Kind != ast.Name {
			return nil, &Error{Kind: BadLambdaArg, Detail: ast.Text(r.in, *c.Arg)}
		}
		body, err := r.lowerSeq(c.Body)
		if err != nil {
			return nil, err
		}
		return eval.NewLambda(c.Arg.Sym, body), nil
	case ast.Int:
		return eval.NewInt(c.Int), nil
	case ast.Num:
		return eval.NewExpr(eval.NumClause(c.Num)), nil
	case ast.Char:
		return eval.NewExpr(eval.CharClause(c.Char)), nil
	case ast.Str:
		return eval.NewExpr(eval.StrClause(c.Str)), nil
	default:
		return nil, &Error{Kind: PlaceholderLeft, Detail: ast.Text(r.in, c)}
	}
}
