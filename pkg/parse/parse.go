// Package parse nests the token stream of an Orchid source file into clause
// trees and file lines.
//
// A file is a sequence of lines: imports, export lists, constants, macros
// and namespace blocks. Expression bodies are sequences of clauses; lambdas
// are greedy to the end of their enclosing bracket or line.
package parse

import (
	"fmt"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
)

// Error is a parse error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "parse error" }

// UnpackErrors returns the constituent parse errors if the given error
// contains one or more of them. Otherwise it returns nil.
func UnpackErrors(e error) []*Error {
	return diag.UnpackErrors[ErrorTag](e)
}

// parser maintains the mutable state of parsing one token stream.
type parser struct {
	in     *intern.Interner
	src    lex.Source
	tokens []lex.Token
	pos    int
	errors []*Error

	// Interned reserved words and punctuators.
	kwImport, kwExport, kwConst, kwMacro, kwNamespace intern.Tok
	nameDot, nameComma, nameStar                      intern.Tok
}

// Parse lexes and parses a source file with the given operator set.
func Parse(in *intern.Interner, src lex.Source, ops lex.OpSet) (*ast.File, error) {
	tokens, err := lex.Lex(in, src, ops)
	if err != nil {
		return nil, err
	}
	ps := newParser(in, src, tokens)
	file := &ast.File{Lines: ps.parseLines(false)}
	return file, diag.PackErrors(ps.errors)
}

func newParser(in *intern.Interner, src lex.Source, tokens []lex.Token) *parser {
	return &parser{
		in: in, src: src, tokens: tokens,
		kwImport:    in.Text("import"),
		kwExport:    in.Text("export"),
		kwConst:     in.Text("const"),
		kwMacro:     in.Text("macro"),
		kwNamespace: in.Text("namespace"),
		nameDot:     in.Text("."),
		nameComma:   in.Text(","),
		nameStar:    in.Text("*"),
	}
}

func (ps *parser) errorf(r diag.Ranger, format string, args ...any) {
	ps.errors = append(ps.errors, &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(ps.src.Name, ps.src.Code, r),
		Partial: r.Range().From == len(ps.src.Code),
	})
}

func (ps *parser) done() bool { return ps.pos >= len(ps.tokens) }

func (ps *parser) peek() *lex.Token {
	if ps.done() {
		return nil
	}
	return &ps.tokens[ps.pos]
}

func (ps *parser) next() *lex.Token {
	tok := ps.peek()
	if tok != nil {
		ps.pos++
	}
	return tok
}

// here returns a ranging for error reports at the current position.
func (ps *parser) here() diag.Ranging {
	if tok := ps.peek(); tok != nil {
		return tok.Ranging
	}
	return diag.PointRanging(len(ps.src.Code))
}

func (ps *parser) skipBreaks() {
	for tok := ps.peek(); tok != nil && tok.Kind == lex.BR; tok = ps.peek() {
		ps.pos++
	}
}

// atName reports whether the current token is a Name with the given text.
func (ps *parser) atName(text intern.Tok) bool {
	tok := ps.peek()
	return tok != nil && tok.Kind == lex.Name && tok.Text == text
}

// skipLine consumes tokens to the next line break at bracket depth zero, for
// error recovery.
func (ps *parser) skipLine() {
	depth := 0
	for tok := ps.next(); tok != nil; tok = ps.next() {
		switch tok.Kind {
		case lex.LP:
			depth++
		case lex.RP:
			if depth == 0 {
				ps.pos--
				return
			}
			depth--
		case lex.BR:
			if depth == 0 {
				return
			}
		}
	}
}

// parseLines parses lines until the end of input, or until the closing
// bracket of a namespace block when sub is true.
func (ps *parser) parseLines(sub bool) []ast.Line {
	var lines []ast.Line
	for {
		ps.skipBreaks()
		if ps.done() {
			if sub {
				ps.errorf(ps.here(), "unclosed namespace block")
			}
			return lines
		}
		if sub {
			if tok := ps.peek(); tok.Kind == lex.RP {
				return lines
			}
		}
		if line, ok := ps.parseLine(); ok {
			lines = append(lines, line)
		} else {
			ps.skipLine()
		}
	}
}

func (ps *parser) parseLine() (ast.Line, bool) {
	tok := ps.peek()
	from := tok.From
	if tok.Kind != lex.Name {
		ps.errorf(tok, "line must begin with import, export, const, macro or namespace")
		return ast.Line{}, false
	}
	exported := false
	switch tok.Text {
	case ps.kwImport:
		ps.pos++
		imports, ok := ps.parseImportTrees(nil)
		if !ok {
			return ast.Line{}, false
		}
		return ast.Line{
			Ranging: diag.Ranging{From: from, To: ps.lastTo()},
			Kind:    ast.ImportLine, Imports: imports,
		}, true
	case ps.kwExport:
		ps.pos++
		if tok := ps.peek(); tok != nil && tok.Kind == lex.NS {
			return ps.parseExportList(from)
		}
		exported = true
		tok = ps.peek()
		if tok == nil || tok.Kind != lex.Name {
			ps.errorf(ps.here(), "export must be followed by ::(...), const or macro")
			return ast.Line{}, false
		}
	}
	switch tok.Text {
	case ps.kwConst:
		ps.pos++
		return ps.parseConst(from, exported)
	case ps.kwMacro:
		ps.pos++
		return ps.parseMacro(from, exported)
	case ps.kwNamespace:
		if exported {
			ps.errorf(tok, "namespace cannot be exported")
			return ast.Line{}, false
		}
		ps.pos++
		return ps.parseNamespace(from)
	}
	ps.errorf(tok, "line must begin with import, export, const, macro or namespace")
	return ast.Line{}, false
}

func (ps *parser) lastTo() int {
	if ps.pos == 0 {
		return 0
	}
	return ps.tokens[ps.pos-1].To
}

// parseExportList parses `::( name, name, ... )` after the export keyword.
func (ps *parser) parseExportList(from int) (ast.Line, bool) {
	ps.pos++ // ::
	tok := ps.next()
	if tok == nil || tok.Kind != lex.LP || tok.Bracket != ast.Round {
		ps.errorf(ps.here(), "export list needs ( after ::")
		return ast.Line{}, false
	}
	var names []intern.Tok
	for {
		tok := ps.next()
		if tok == nil {
			ps.errorf(ps.here(), "unclosed export list")
			return ast.Line{}, false
		}
		switch {
		case tok.Kind == lex.RP && tok.Bracket == ast.Round:
			return ast.Line{
				Ranging: diag.Ranging{From: from, To: tok.To},
				Kind:    ast.ExportLine, Exports: names,
			}, true
		case tok.Kind == lex.Name && tok.Text == ps.nameComma:
			// separator
		case tok.Kind == lex.Name:
			names = append(names, tok.Text)
		default:
			ps.errorf(tok, "export list may only contain names")
			return ast.Line{}, false
		}
	}
}

func (ps *parser) parseConst(from int, exported bool) (ast.Line, bool) {
	name, ok := ps.expectName("constant name")
	if !ok {
		return ast.Line{}, false
	}
	if tok := ps.next(); tok == nil || tok.Kind != lex.Walrus {
		ps.errorf(ps.here(), "constant needs := after its name")
		return ast.Line{}, false
	}
	body := ps.parseClauses(endOfLine)
	if len(body) == 0 {
		ps.errorf(ps.here(), "constant body is empty")
		return ast.Line{}, false
	}
	return ast.Line{
		Ranging: diag.Ranging{From: from, To: ps.lastTo()},
		Kind:    ast.ConstLine, Exported: exported, Name: name, Body: body,
	}, true
}

func (ps *parser) parseMacro(from int, exported bool) (ast.Line, bool) {
	pattern := ps.parseClauses(endOfLineOrArrow)
	tok := ps.next()
	if tok == nil || tok.Kind != lex.Arrow {
		ps.errorf(ps.here(), "macro needs a rule arrow =priority=> after its pattern")
		return ast.Line{}, false
	}
	prio := tok.Prio
	template := ps.parseClauses(endOfLine)
	if len(pattern) == 0 {
		ps.errorf(diag.Ranging{From: from, To: tok.To}, "macro pattern is empty")
		return ast.Line{}, false
	}
	r := diag.Ranging{From: from, To: ps.lastTo()}
	return ast.Line{
		Ranging: r,
		Kind:    ast.MacroLine, Exported: exported,
		Rule: &ast.Rule{
			Ranging: r, Pattern: pattern, Template: template, Priority: prio,
		},
	}, true
}

func (ps *parser) parseNamespace(from int) (ast.Line, bool) {
	name, ok := ps.expectName("namespace name")
	if !ok {
		return ast.Line{}, false
	}
	tok := ps.next()
	if tok == nil || tok.Kind != lex.LP || tok.Bracket != ast.Round {
		ps.errorf(ps.here(), "namespace needs a ( block after its name")
		return ast.Line{}, false
	}
	sub := ps.parseLines(true)
	tok = ps.next()
	if tok == nil || tok.Kind != lex.RP || tok.Bracket != ast.Round {
		ps.errorf(ps.here(), "unclosed namespace block")
		return ast.Line{}, false
	}
	return ast.Line{
		Ranging: diag.Ranging{From: from, To: tok.To},
		Kind:    ast.NamespaceLine, Name: name, Sub: sub,
	}, true
}

func (ps *parser) expectName(what string) (intern.Tok, bool) {
	tok := ps.next()
	if tok == nil || tok.Kind != lex.Name {
		ps.errorf(ps.here(), "%s expected", what)
		return 0, false
	}
	return tok.Text, true
}

// clause sequence terminators
type stopSet uint8

const (
	endOfLine stopSet = 1 + iota
	// endOfLineOrArrow additionally stops at a rule arrow, for macro
	// patterns.
	endOfLineOrArrow
)

// parseClauses parses a clause sequence until the stop set, the end of the
// enclosing bracket, or the end of input.
func (ps *parser) parseClauses(stop stopSet) []ast.Clause {
	var out []ast.Clause
	for {
		tok := ps.peek()
		if tok == nil {
			return out
		}
		switch tok.Kind {
		case lex.BR:
			if stop != 0 {
				return out
			}
			ps.pos++
		case lex.RP:
			return out
		case lex.Arrow:
			if stop == endOfLineOrArrow {
				return out
			}
			ps.errorf(tok, "rule arrow outside macro line")
			ps.pos++
		default:
			c, ok := ps.parseClause(stop)
			if ok {
				out = append(out, c)
			}
		}
	}
}

// parseClause parses a single clause. The stop set is only used by lambda
// bodies, which extend to the end of the enclosing sequence.
func (ps *parser) parseClause(stop stopSet) (ast.Clause, bool) {
	tok := ps.next()
	switch tok.Kind {
	case lex.Name:
		return ps.parsePath(tok)
	case lex.Int:
		return ast.NewInt(tok, tok.Int), true
	case lex.Num:
		return ast.NewNum(tok, tok.Num), true
	case lex.Char:
		return ast.NewChar(tok, tok.Char), true
	case lex.Str:
		return ast.NewStr(tok, tok.Text), true
	case lex.Placeh:
		return ast.NewPlaceh(tok, tok.Ph), true
	case lex.LP:
		return ps.parseS(tok)
	case lex.BS:
		return ps.parseLambda(tok, stop)
	default:
		ps.errorf(tok, "unexpected token in expression")
		return ast.Clause{}, false
	}
}

// parsePath parses the rest of a :: separated path after its first segment.
func (ps *parser) parsePath(first *lex.Token) (ast.Clause, bool) {
	segs := []intern.Tok{first.Text}
	to := first.To
	for {
		tok := ps.peek()
		if tok == nil || tok.Kind != lex.NS {
			break
		}
		ps.pos++
		seg := ps.next()
		if seg == nil || seg.Kind != lex.Name {
			ps.errorf(ps.here(), "name expected after ::")
			return ast.Clause{}, false
		}
		segs = append(segs, seg.Text)
		to = seg.To
	}
	r := diag.Ranging{From: first.From, To: to}
	return ast.NewName(r, ps.in.Path(segs)), true
}

func (ps *parser) parseS(lp *lex.Token) (ast.Clause, bool) {
	body := ps.parseClauses(0)
	tok := ps.next()
	if tok == nil || tok.Kind != lex.RP {
		ps.errorf(ps.here(), "unclosed %s", bracketName(lp.Bracket, true))
		return ast.Clause{}, false
	}
	if tok.Bracket != lp.Bracket {
		ps.errorf(tok, "%s closed with %s",
			bracketName(lp.Bracket, true), bracketName(tok.Bracket, false))
		return ast.Clause{}, false
	}
	r := diag.Ranging{From: lp.From, To: tok.To}
	return ast.NewS(r, lp.Bracket, body), true
}

// parseLambda parses `\arg.body` where the body is greedy to the end of the
// enclosing bracket or line.
func (ps *parser) parseLambda(bs *lex.Token, stop stopSet) (ast.Clause, bool) {
	arg, ok := ps.parseClause(stop)
	if !ok {
		return ast.Clause{}, false
	}
	if !ps.atName(ps.nameDot) {
		ps.errorf(ps.here(), "lambda needs . after its argument")
		return ast.Clause{}, false
	}
	ps.pos++
	body := ps.parseClauses(stop)
	if len(body) == 0 {
		ps.errorf(ps.here(), "lambda body is empty")
		return ast.Clause{}, false
	}
	r := diag.Ranging{From: bs.From, To: ps.lastTo()}
	return ast.NewLambda(r, arg, body), true
}

func bracketName(b ast.Bracket, open bool) string {
	names := map[ast.Bracket][2]string{
		ast.Round:  {"(", ")"},
		ast.Square: {"[", "]"},
		ast.Curly:  {"{", "}"},
	}
	if open {
		return names[b][0]
	}
	return names[b][1]
}
