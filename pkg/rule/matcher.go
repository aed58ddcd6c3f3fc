package rule

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
)

// anyMatcher matches a clause sequence. A pattern with no vectorial
// placeholder is a straight-line scalar check; otherwise the sequence splits
// into scalar flanks around one vectorial region.
type anyMatcher struct {
	scalars []scalMatcher
	left    []scalMatcher
	mid     *vecMatcher
	right   []scalMatcher
	vec     bool
}

type scalKind uint8

const (
	scalName scalKind = 1 + iota
	scalLit
	scalPlaceh
	scalS
	scalLambda
)

// scalMatcher matches exactly one clause.
type scalMatcher struct {
	kind    scalKind
	sym     intern.Sym   // scalName
	lit     ast.Clause   // scalLit
	key     intern.Tok   // scalPlaceh
	bracket ast.Bracket  // scalS
	body    *anyMatcher  // scalS, scalLambda
	arg     *scalMatcher // scalLambda
}

type vecKind uint8

const (
	vecPlaceh vecKind = 1 + iota
	vecScan
	vecMiddle
)

// vecMatcher matches a clause sequence of variable length. It is rooted at
// the vectorial placeholder with the highest growth priority.
type vecMatcher struct {
	kind    vecKind
	key     intern.Tok
	nonzero bool

	// vecScan: one side is the rooted placeholder, the other a lower
	// priority submatcher; sep is the scalar boundary walked inward from the
	// side opposite the root.
	left     *vecMatcher
	sep      []scalMatcher
	right    *vecMatcher
	mainLeft bool

	// vecMiddle: the rooted placeholder sits between scalar separators with
	// lower priority vectorials outside them. keyOrder lists the vectorial
	// keys of the flanks in decreasing allocation precedence.
	leftSep  []scalMatcher
	mid      *vecMatcher
	rightSep []scalMatcher
	keyOrder []intern.Tok
}

// scalCount returns the number of leading non-vectorial clauses.
func scalCount(cs []ast.Clause) int {
	for i := range cs {
		if _, ok := ast.VecAttrs(cs[i]); ok {
			return i
		}
	}
	return len(cs)
}

func scalCountRev(cs []ast.Clause) int {
	for i := range cs {
		if _, ok := ast.VecAttrs(cs[len(cs)-1-i]); ok {
			return i
		}
	}
	return len(cs)
}

// mkAny compiles a pattern sequence.
func mkAny(pattern []ast.Clause) *anyMatcher {
	leftSplit := scalCount(pattern)
	if leftSplit == len(pattern) {
		return &anyMatcher{scalars: mkScalv(pattern)}
	}
	rightSplit := len(pattern) - scalCountRev(pattern)
	return &anyMatcher{
		vec:   true,
		left:  mkScalv(pattern[:leftSplit]),
		mid:   mkVec(pattern[leftSplit:rightSplit]),
		right: mkScalv(pattern[rightSplit:]),
	}
}

func mkScalv(pattern []ast.Clause) []scalMatcher {
	out := make([]scalMatcher, len(pattern))
	for i := range pattern {
		out[i] = mkScalar(pattern[i])
	}
	return out
}

// splitAtMaxVec locates the vectorial with the highest growth priority,
// preferring the rightmost on ties so greedy allocation is right-to-left.
func splitAtMaxVec(pattern []ast.Clause) (left []ast.Clause, ph ast.Placeholder, right []ast.Clause) {
	best, bestPrio := -1, -1
	for i := range pattern {
		if attrs, ok := ast.VecAttrs(pattern[i]); ok && attrs.Prio >= bestPrio {
			best, bestPrio = i, attrs.Prio
		}
	}
	ph, _ = ast.VecAttrs(pattern[best])
	return pattern[:best], ph, pattern[best+1:]
}

// mkVec compiles a pattern region that starts and ends with a vectorial.
func mkVec(pattern []ast.Clause) *vecMatcher {
	left, ph, right := splitAtMaxVec(pattern)
	main := &vecMatcher{kind: vecPlaceh, key: ph.Name, nonzero: ph.Kind == ast.VecOne}
	rSepLen := scalCount(right)
	rSep, rSide := right[:rSepLen], right[rSepLen:]
	lSepLen := scalCountRev(left)
	lSide, lSep := left[:len(left)-lSepLen], left[len(left)-lSepLen:]
	switch {
	case len(left) == 0 && len(right) == 0:
		return main
	case len(left) == 0:
		return &vecMatcher{
			kind: vecScan, mainLeft: true,
			left: main, sep: mkScalv(rSep), right: mkVec(rSide),
		}
	case len(right) == 0:
		return &vecMatcher{
			kind: vecScan, mainLeft: false,
			left: mkVec(lSide), sep: mkScalv(lSep), right: main,
		}
	default:
		return &vecMatcher{
			kind:     vecMiddle,
			leftSep:  mkScalv(lSep),
			mid:      main,
			rightSep: mkScalv(rSep),
			left:     mkVec(lSide),
			right:    mkVec(rSide),
			keyOrder: flankKeyOrder(lSide, rSide),
		}
	}
}

// flankKeyOrder lists the vectorial keys of the flanks in decreasing growth
// priority; among equal priorities the rightmost goes first.
func flankKeyOrder(lSide, rSide []ast.Clause) []intern.Tok {
	type attr struct {
		key  intern.Tok
		prio int
		pos  int
	}
	var attrs []attr
	pos := 0
	for _, cs := range [][]ast.Clause{lSide, rSide} {
		for i := range cs {
			if ph, ok := ast.VecAttrs(cs[i]); ok {
				attrs = append(attrs, attr{ph.Name, ph.Prio, pos})
			}
			pos++
		}
	}
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0; j-- {
			a, b := attrs[j-1], attrs[j]
			if b.prio > a.prio || (b.prio == a.prio && b.pos > a.pos) {
				attrs[j-1], attrs[j] = b, a
			} else {
				break
			}
		}
	}
	out := make([]intern.Tok, len(attrs))
	for i, a := range attrs {
		out[i] = a.key
	}
	return out
}

// mkScalar compiles a single non-vectorial pattern clause.
func mkScalar(pattern ast.Clause) scalMatcher {
	switch pattern.Kind {
	case ast.Name:
		return scalMatcher{kind: scalName, sym: pattern.Sym}
	case ast.Placeh:
		return scalMatcher{kind: scalPlaceh, key: pattern.Ph.Name}
	case ast.S:
		return scalMatcher{
			kind: scalS, bracket: pattern.Bracket, body: mkAny(pattern.Body),
		}
	case ast.Lambda:
		arg := mkScalar(*pattern.Arg)
		return scalMatcher{kind: scalLambda, arg: &arg, body: mkAny(pattern.Body)}
	default:
		return scalMatcher{kind: scalLit, lit: pattern}
	}
}
