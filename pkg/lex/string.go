package lex

import (
	"strings"
	"unicode/utf8"

	"github.com/orchidlang/orchid/pkg/diag"
)

// lexString lexes a string literal starting at the opening quote. The
// processed payload is interned; escape errors are reported but lexing
// continues past the literal.
func (lx *lexer) lexString(from int) {
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		if lx.pos >= len(lx.src.Code) {
			lx.errorf(diag.Ranging{From: from, To: lx.pos}, "unterminated string")
			return
		}
		r, size := utf8.DecodeRuneInString(lx.rest())
		lx.pos += size
		switch r {
		case '"':
			lx.emit(from, Str).Text = lx.in.Text(sb.String())
			return
		case '\n':
			lx.pos--
			lx.errorf(diag.Ranging{From: from, To: lx.pos}, "unterminated string")
			return
		case '\\':
			esc, ok := lx.lexEscape(from)
			if ok {
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}

// lexEscape lexes the escape sequence after a backslash. A backslash before
// a newline skips all following whitespace, letting literals span lines; it
// reports ok=false since no rune is produced.
func (lx *lexer) lexEscape(litFrom int) (rune, bool) {
	if lx.pos >= len(lx.src.Code) {
		lx.errorf(diag.PointRanging(lx.pos), "unterminated escape sequence")
		return 0, false
	}
	from := lx.pos - 1
	r, size := utf8.DecodeRuneInString(lx.rest())
	lx.pos += size
	switch r {
	case '\\', '/', '"', '\'':
		return r, true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '\n':
		lx.takeWhile(func(c byte) bool {
			return c == ' ' || c == '\t' || c == '\r' || c == '\n'
		})
		return 0, false
	case 'u':
		return lx.lexUnicodeEscape(from)
	default:
		lx.errorf(diag.Ranging{From: from, To: lx.pos},
			"unknown escape sequence \\%c", r)
		return 0, false
	}
}

func (lx *lexer) lexUnicodeEscape(from int) (rune, bool) {
	var acc rune
	for i := 0; i < 4; i++ {
		if lx.pos >= len(lx.src.Code) {
			lx.errorf(diag.Ranging{From: from, To: lx.pos},
				"\\u escape needs 4 hex digits")
			return 0, false
		}
		c := lx.src.Code[lx.pos]
		var d rune
		switch {
		case '0' <= c && c <= '9':
			d = rune(c - '0')
		case 'a' <= c && c <= 'f':
			d = rune(c-'a') + 10
		case 'A' <= c && c <= 'F':
			d = rune(c-'A') + 10
		default:
			lx.errorf(diag.Ranging{From: from, To: lx.pos + 1},
				"\\u escape needs 4 hex digits")
			return 0, false
		}
		lx.pos++
		acc = acc*16 + d
	}
	if !utf8.ValidRune(acc) {
		lx.errorf(diag.Ranging{From: from, To: lx.pos},
			"\\u escape names an invalid code point")
		return 0, false
	}
	return acc, true
}

// lexChar lexes a character literal starting at the opening quote.
func (lx *lexer) lexChar(from int) {
	lx.pos++ // opening quote
	if lx.pos >= len(lx.src.Code) {
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "unterminated character literal")
		return
	}
	r, size := utf8.DecodeRuneInString(lx.rest())
	lx.pos += size
	if r == '\\' {
		esc, ok := lx.lexEscape(from)
		if !ok {
			lx.skipPastQuote(from)
			return
		}
		r = esc
	} else if r == '\'' {
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "empty character literal")
		return
	}
	if !lx.eat("'") {
		lx.errorf(diag.Ranging{From: from, To: lx.pos}, "unterminated character literal")
		return
	}
	lx.emit(from, Char).Char = r
}

func (lx *lexer) skipPastQuote(from int) {
	for lx.pos < len(lx.src.Code) && lx.src.Code[lx.pos] != '\'' &&
		lx.src.Code[lx.pos] != '\n' {
		lx.pos++
	}
	lx.eat("'")
}
