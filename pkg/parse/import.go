package parse

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
)

// parseImportTrees parses one import tree with the given path prefix and
// flattens it into import edges:
//
//	TREE = name | name::TREE | name::* | ( TREE [, TREE]* )
func (ps *parser) parseImportTrees(prefix []intern.Tok) ([]ast.Import, bool) {
	tok := ps.next()
	if tok == nil {
		ps.errorf(ps.here(), "import tree expected")
		return nil, false
	}
	switch {
	case tok.Kind == lex.Name && tok.Text == ps.nameStar:
		if len(prefix) == 0 {
			ps.errorf(tok, "wildcard import needs a module prefix")
			return nil, false
		}
		return []ast.Import{{
			Ranging: tok.Ranging,
			Path:    append([]intern.Tok(nil), prefix...),
		}}, true
	case tok.Kind == lex.Name:
		if next := ps.peek(); next != nil && next.Kind == lex.NS {
			ps.pos++
			return ps.parseImportTrees(append(prefix, tok.Text))
		}
		return []ast.Import{{
			Ranging: tok.Ranging,
			Path:    append([]intern.Tok(nil), prefix...),
			Name:    tok.Text,
		}}, true
	case tok.Kind == lex.LP && tok.Bracket == ast.Round:
		var edges []ast.Import
		for {
			sub, ok := ps.parseImportTrees(prefix)
			if !ok {
				return nil, false
			}
			edges = append(edges, sub...)
			sep := ps.next()
			if sep == nil {
				ps.errorf(ps.here(), "unclosed import group")
				return nil, false
			}
			if sep.Kind == lex.RP && sep.Bracket == ast.Round {
				return edges, true
			}
			if sep.Kind != lex.Name || sep.Text != ps.nameComma {
				ps.errorf(sep, "import group entries must be separated by ,")
				return nil, false
			}
		}
	default:
		ps.errorf(tok, "import tree expected")
		return nil, false
	}
}
