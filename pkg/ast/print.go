package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orchidlang/orchid/pkg/intern"
)

// Text renders a clause in source-like form. It is used in error messages and
// tests; the output is not guaranteed to re-parse.
func Text(in *intern.Interner, c Clause) string {
	var sb strings.Builder
	writeClause(&sb, in, c)
	return sb.String()
}

// SeqText renders a clause sequence with single spaces between clauses.
func SeqText(in *intern.Interner, cs []Clause) string {
	var sb strings.Builder
	for i, c := range cs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeClause(&sb, in, c)
	}
	return sb.String()
}

func writeClause(sb *strings.Builder, in *intern.Interner, c Clause) {
	switch c.Kind {
	case Name:
		sb.WriteString(in.SymText(c.Sym))
	case S:
		l, r := brackets(c.Bracket)
		sb.WriteByte(l)
		sb.WriteString(SeqText(in, c.Body))
		sb.WriteByte(r)
	case Lambda:
		sb.WriteByte('\\')
		writeClause(sb, in, *c.Arg)
		sb.WriteByte('.')
		sb.WriteString(SeqText(in, c.Body))
	case Num:
		sb.WriteString(strconv.FormatFloat(c.Num, 'g', -1, 64))
	case Int:
		sb.WriteString(strconv.FormatUint(c.Int, 10))
	case Char:
		sb.WriteString(strconv.QuoteRune(c.Char))
	case Str:
		sb.WriteString(strconv.Quote(in.TextOf(c.Str)))
	case Placeh:
		writePlaceh(sb, in, c.Ph)
	default:
		fmt.Fprintf(sb, "<invalid clause kind %d>", c.Kind)
	}
}

func writePlaceh(sb *strings.Builder, in *intern.Interner, ph Placeholder) {
	switch ph.Kind {
	case Scalar:
		sb.WriteByte('$')
	case VecZero:
		sb.WriteString("..$")
	case VecOne:
		sb.WriteString("...$")
	}
	sb.WriteString(in.TextOf(ph.Name))
	if ph.Vectorial() && ph.Prio != 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(ph.Prio))
	}
}

func brackets(b Bracket) (byte, byte) {
	switch b {
	case Square:
		return '[', ']'
	case Curly:
		return '{', '}'
	default:
		return '(', ')'
	}
}
