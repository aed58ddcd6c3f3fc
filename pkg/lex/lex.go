// Package lex turns Orchid source text into a flat token stream.
//
// Lexing is parameterized by the operator set in scope for the file: a run of
// symbolic characters is split by greedy longest-match against the known
// operators, and left whole when no operator matches. The pipeline therefore
// lexes every file twice, once with an empty operator set to discover
// definitions and imports, and once with the full set.
package lex

import (
	"fmt"
	"strings"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Source describes a piece of source code.
type Source struct {
	// Name of the source, shown in diagnostics.
	Name string
	// Code is the full source text.
	Code string
}

// Kind enumerates token kinds.
type Kind uint8

const (
	// Name is an identifier or operator. Reserved words are also lexed as
	// names; the parser gives them meaning.
	Name Kind = 1 + iota
	// Int and Num are numeric literals.
	Int
	Num
	// Char and Str are character and string literals.
	Char
	Str
	// Placeh is a macro placeholder.
	Placeh
	// LP and RP are bracket tokens; the Bracket field tells the style.
	LP
	RP
	// BS is a single backslash introducing a lambda.
	BS
	// Walrus is ":=".
	Walrus
	// NS is "::".
	NS
	// Colon is a bare ":".
	Colon
	// Arrow is a rule arrow "=<priority>=>".
	Arrow
	// BR is a line break.
	BR
)

// Token is a lexeme together with its source range.
type Token struct {
	diag.Ranging
	Kind    Kind
	Text    intern.Tok      // Name identifier, Str payload
	Bracket ast.Bracket     // LP, RP
	Int     uint64          // Int
	Num     float64         // Num
	Char    rune            // Char
	Ph      ast.Placeholder // Placeh
	Prio    float64         // Arrow
}

// OpSet is the set of operator spellings known to be in scope.
type OpSet map[string]bool

// Error is a lex error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "lex error" }

// reserved characters terminate a symbolic run.
const reserved = ":\\@\"'()[]{},.$"

func isReserved(c byte) bool { return strings.IndexByte(reserved, c) >= 0 }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) }

func isOpChar(c byte) bool {
	return !isNameStart(c) && !isDigit(c) && c != ' ' && c != '\t' &&
		c != '\r' && c != '\n' && !isReserved(c) && c >= 0x20
}

func isNumChar(c byte, prev byte) bool {
	return isNameChar(c) || c == '.' || (c == '-' && (prev == 'p' || prev == 'P'))
}

// lexer holds the mutable state of one Lex call.
type lexer struct {
	in     *intern.Interner
	src    Source
	ops    OpSet
	pos    int
	tokens []Token
	errors []*Error
}

// Lex tokenizes the source with the given operator set. The returned error,
// if any, unpacks to the constituent lex errors with [UnpackErrors]; the
// token list is still returned as far as lexing got.
func Lex(in *intern.Interner, src Source, ops OpSet) ([]Token, error) {
	lx := &lexer{in: in, src: src, ops: ops}
	lx.run()
	return lx.tokens, diag.PackErrors(lx.errors)
}

// UnpackErrors returns the constituent lex errors if the given error contains
// one or more of them. Otherwise it returns nil.
func UnpackErrors(e error) []*Error {
	return diag.UnpackErrors[ErrorTag](e)
}

func (lx *lexer) errorf(r diag.Ranger, format string, args ...any) {
	lx.errors = append(lx.errors, &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(lx.src.Name, lx.src.Code, r),
		Partial: r.Range().From == len(lx.src.Code),
	})
}

func (lx *lexer) emit(from int, k Kind) *Token {
	lx.tokens = append(lx.tokens, Token{
		Ranging: diag.Ranging{From: from, To: lx.pos}, Kind: k,
	})
	return &lx.tokens[len(lx.tokens)-1]
}

func (lx *lexer) rest() string { return lx.src.Code[lx.pos:] }

func (lx *lexer) eat(prefix string) bool {
	if strings.HasPrefix(lx.rest(), prefix) {
		lx.pos += len(prefix)
		return true
	}
	return false
}

// takeWhile advances over bytes satisfying pred and returns the span.
func (lx *lexer) takeWhile(pred func(byte) bool) string {
	start := lx.pos
	for lx.pos < len(lx.src.Code) && pred(lx.src.Code[lx.pos]) {
		lx.pos++
	}
	return lx.src.Code[start:lx.pos]
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src.Code) {
		lx.takeWhile(func(c byte) bool {
			return c == ' ' || c == '\t' || c == '\r'
		})
		if lx.pos == len(lx.src.Code) {
			return
		}
		from := lx.pos
		c := lx.src.Code[lx.pos]
		switch {
		case c == '\n':
			lx.pos++
			lx.emit(from, BR)
		case lx.eat("--["):
			lx.lexBlockComment(from)
		case strings.HasPrefix(lx.rest(), "--") && !lx.opPrefixed("--"):
			lx.takeWhile(func(c byte) bool { return c != '\n' })
		case lx.eat(":="):
			lx.emit(from, Walrus)
		case lx.eat("::"):
			lx.emit(from, NS)
		case c == ':':
			lx.pos++
			lx.emit(from, Colon)
		case c == '\\':
			lx.pos++
			lx.emit(from, BS)
		case c == '(', c == '[', c == '{':
			lx.pos++
			lx.emit(from, LP).Bracket = bracketOf(c)
		case c == ')', c == ']', c == '}':
			lx.pos++
			lx.emit(from, RP).Bracket = bracketOf(c)
		case c == '"':
			lx.lexString(from)
		case c == '\'':
			lx.lexChar(from)
		case c == '$':
			lx.lexScalarPlaceh(from)
		case c == '.':
			lx.lexDots(from)
		case c == ',':
			lx.pos++
			lx.emitName(from, ",")
		case isDigit(c):
			lx.lexNumber(from)
		case c == '=' && lx.tryArrow(from):
			// handled in tryArrow
		case isNameStart(c):
			name := lx.takeWhile(isNameChar)
			lx.emitName(from, name)
		case isOpChar(c):
			run := lx.takeWhile(isOpChar)
			lx.splitOps(from, run)
		default:
			lx.pos++
			lx.errorf(diag.Ranging{From: from, To: lx.pos},
				"unexpected character %q", rune(c))
		}
	}
}

func (lx *lexer) emitName(from int, name string) {
	lx.emit(from, Name).Text = lx.in.Text(name)
}

// opPrefixed reports whether an operator in scope extends the given prefix at
// the current position, in which case the prefix must not be taken as
// punctuation. This keeps comment detection from eating operators that merely
// start with "--".
func (lx *lexer) opPrefixed(prefix string) bool {
	run := lx.rest()
	end := 0
	for end < len(run) && isOpChar(run[end]) {
		end++
	}
	run = run[:end]
	if len(run) <= len(prefix) {
		return false
	}
	for op := range lx.ops {
		if len(op) > len(prefix) && strings.HasPrefix(op, prefix) &&
			strings.HasPrefix(run, op) {
			return true
		}
	}
	return false
}

func (lx *lexer) lexBlockComment(from int) {
	i := strings.Index(lx.rest(), "]--")
	if i < 0 {
		lx.pos = len(lx.src.Code)
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "unterminated block comment")
		return
	}
	lx.pos += i + len("]--")
}

// lexDots handles the universal names "." ".." "..." and the vectorial
// placeholder prefixes "..$" "...$".
func (lx *lexer) lexDots(from int) {
	dots := lx.takeWhile(func(c byte) bool { return c == '.' })
	if len(dots) > 3 {
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "too many dots")
		return
	}
	if (dots == ".." || dots == "...") && lx.eat("$") {
		kind := ast.VecZero
		if dots == "..." {
			kind = ast.VecOne
		}
		lx.lexVecPlaceh(from, kind)
		return
	}
	lx.emitName(from, dots)
}

func (lx *lexer) lexScalarPlaceh(from int) {
	lx.pos++ // $
	name := lx.takeWhile(isNameChar)
	if name == "" {
		lx.errorf(diag.Ranging{From: from, To: lx.pos},
			"placeholder needs a name after $")
		return
	}
	lx.emit(from, Placeh).Ph = ast.Placeholder{
		Name: lx.in.Text(name), Kind: ast.Scalar,
	}
}

func (lx *lexer) lexVecPlaceh(from int, kind ast.PhKind) {
	name := lx.takeWhile(isNameChar)
	if name == "" {
		lx.errorf(diag.Ranging{From: from, To: lx.pos},
			"placeholder needs a name after $")
		return
	}
	prio := 0
	if lx.eat(":") {
		prioFrom := lx.pos
		digits := lx.takeWhile(isDigit)
		if digits == "" {
			lx.errorf(diag.Ranging{From: prioFrom, To: lx.pos},
				"growth priority needs digits after :")
		} else {
			for _, d := range digits {
				prio = prio*10 + int(d-'0')
			}
		}
	}
	lx.emit(from, Placeh).Ph = ast.Placeholder{
		Name: lx.in.Text(name), Kind: kind, Prio: prio,
	}
}

// tryArrow attempts to lex a rule arrow "=<priority>=>" and reports whether
// it succeeded. On failure the position is unchanged and the "=" falls
// through to operator lexing.
func (lx *lexer) tryArrow(from int) bool {
	rest := lx.rest()[1:] // past "="
	if rest == "" || !isDigit(rest[0]) {
		return false
	}
	end := 0
	for end < len(rest) && isNumChar(rest[end], prevByte(rest, end)) {
		end++
	}
	numText := rest[:end]
	if !strings.HasPrefix(rest[end:], "=>") {
		return false
	}
	lx.pos += 1 + end + len("=>")
	v, err := ParseNumber(numText)
	if err != nil {
		lx.errorf(diag.Ranging{From: from + 1, To: from + 1 + end},
			"bad priority in rule arrow: %v", err)
		return true
	}
	lx.emit(from, Arrow).Prio = v.Float()
	return true
}

func prevByte(s string, i int) byte {
	if i == 0 {
		return 0
	}
	return s[i-1]
}

func (lx *lexer) lexNumber(from int) {
	text := lx.takeWhile(func(c byte) bool {
		return isNumChar(c, prevByte(lx.src.Code, lx.pos))
	})
	v, err := ParseNumber(text)
	if err != nil {
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "bad number: %v", err)
		return
	}
	if v.IsInt {
		lx.emit(from, Int).Int = v.Int
	} else {
		lx.emit(from, Num).Num = v.Num
	}
}

// splitOps applies greedy longest-match against the operator set to a run of
// symbolic characters. A run with no matching prefix is one name.
func (lx *lexer) splitOps(from int, run string) {
	for run != "" {
		best := 0
		for op := range lx.ops {
			if len(op) > best && strings.HasPrefix(run, op) {
				best = len(op)
			}
		}
		if best == 0 || best == len(run) {
			lx.emitNameAt(from, run)
			return
		}
		lx.emitNameAt(from, run[:best])
		from += best
		run = run[best:]
	}
}

func (lx *lexer) emitNameAt(from int, name string) {
	lx.tokens = append(lx.tokens, Token{
		Ranging: diag.Ranging{From: from, To: from + len(name)},
		Kind:    Name, Text: lx.in.Text(name),
	})
}

func bracketOf(c byte) ast.Bracket {
	switch c {
	case '[', ']':
		return ast.Square
	case '{', '}':
		return ast.Curly
	default:
		return ast.Round
	}
}
