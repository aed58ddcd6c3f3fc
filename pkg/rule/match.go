package rule

import (
	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
)

// Entry is one captured binding in a match: either a single clause or a
// clause slice, depending on the placeholder class.
type Entry struct {
	Vec    []ast.Clause
	Scalar *ast.Clause
	IsVec  bool
}

// State is the substitution environment produced by a successful match.
type State map[intern.Tok]Entry

// Match attempts the rule against a clause sequence and returns the
// substitution environment.
func (p *Prepared) Match(seq []ast.Clause) (State, bool) {
	state := make(State)
	if p.matcher.match(seq, state) {
		return state, true
	}
	return nil, false
}

func (m *anyMatcher) match(seq []ast.Clause, state State) bool {
	if !m.vec {
		return scalvMatch(m.scalars, seq, state)
	}
	if len(seq) < len(m.left)+len(m.right) {
		return false
	}
	if !scalvMatch(m.left, seq[:len(m.left)], state) {
		return false
	}
	if !scalvMatch(m.right, seq[len(seq)-len(m.right):], state) {
		return false
	}
	return m.mid.match(seq[len(m.left):len(seq)-len(m.right)], state)
}

// scalvMatch matches a scalar subpattern against a sequence of the same
// length.
func scalvMatch(ms []scalMatcher, seq []ast.Clause, state State) bool {
	if len(ms) != len(seq) {
		return false
	}
	for i := range ms {
		if !ms[i].match(&seq[i], state) {
			return false
		}
	}
	return true
}

func (m *scalMatcher) match(c *ast.Clause, state State) bool {
	switch m.kind {
	case scalName:
		return c.Kind == ast.Name && c.Sym == m.sym
	case scalLit:
		return ast.Eq(m.lit, *c)
	case scalPlaceh:
		state[m.key] = Entry{Scalar: c}
		return true
	case scalS:
		return c.Kind == ast.S && c.Bracket == m.bracket &&
			m.body.match(c.Body, state)
	case scalLambda:
		return c.Kind == ast.Lambda && m.arg.match(c.Arg, state) &&
			m.body.match(c.Body, state)
	}
	return false
}

func (m *vecMatcher) match(seq []ast.Clause, state State) bool {
	switch m.kind {
	case vecPlaceh:
		if m.nonzero && len(seq) == 0 {
			return false
		}
		state[m.key] = Entry{Vec: seq, IsVec: true}
		return true
	case vecScan:
		return m.scanMatch(seq, state)
	case vecMiddle:
		return m.middleMatch(seq, state)
	}
	return false
}

// scanMatch moves the scalar boundary inward from the side opposite the
// rooted placeholder, so the highest priority side is tried with the
// largest allocations first.
func (m *vecMatcher) scanMatch(seq []ast.Clause, state State) bool {
	if len(seq) < len(m.sep) {
		return false
	}
	max := len(seq) - len(m.sep)
	for i := 0; i <= max; i++ {
		lpos := i
		if m.mainLeft {
			lpos = max - i
		}
		rpos := lpos + len(m.sep)
		trial := make(State)
		if !m.left.match(seq[:lpos], trial) {
			continue
		}
		if !scalvMatch(m.sep, seq[lpos:rpos], trial) {
			continue
		}
		if !m.right.match(seq[rpos:], trial) {
			continue
		}
		merge(state, trial)
		return true
	}
	return false
}

// middleMatch enumerates separator position pairs in decreasing gap width,
// and among equal gaps picks the candidate whose allocations win on
// keyOrder.
func (m *vecMatcher) middleMatch(seq []ast.Clause, state State) bool {
	minLen := len(m.leftSep) + len(m.rightSep)
	if len(seq) < minLen {
		return false
	}
	type pos struct{ l, r int }
	var pairs []pos
	for l := 0; l+minLen <= len(seq); l++ {
		if !scalvMatch(m.leftSep, seq[l:l+len(m.leftSep)], make(State)) {
			continue
		}
		for r := l + len(m.leftSep); r+len(m.rightSep) <= len(seq); r++ {
			if scalvMatch(m.rightSep, seq[r:r+len(m.rightSep)], make(State)) {
				pairs = append(pairs, pos{l, r})
			}
		}
	}
	// Stable-sort by decreasing gap width.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && gap(pairs[j]) > gap(pairs[j-1]); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	for i := 0; i < len(pairs); {
		j := i
		var best State
		for ; j < len(pairs) && gap(pairs[j]) == gap(pairs[i]); j++ {
			p := pairs[j]
			trial := make(State)
			if !scalvMatch(m.leftSep, seq[p.l:p.l+len(m.leftSep)], trial) ||
				!scalvMatch(m.rightSep, seq[p.r:p.r+len(m.rightSep)], trial) ||
				!m.left.match(seq[:p.l], trial) ||
				!m.mid.match(seq[p.l+len(m.leftSep):p.r], trial) ||
				!m.right.match(seq[p.r+len(m.rightSep):], trial) {
				continue
			}
			if best == nil || m.beats(trial, best) {
				best = trial
			}
		}
		if best != nil {
			merge(state, best)
			return true
		}
		i = j
	}
	return false
}

func gap(p struct{ l, r int }) int { return p.r - p.l }

// beats compares two candidate states on keyOrder: the one allocating more
// clauses to an earlier key wins.
func (m *vecMatcher) beats(a, b State) bool {
	for _, key := range m.keyOrder {
		al, bl := len(a[key].Vec), len(b[key].Vec)
		if al != bl {
			return al > bl
		}
	}
	return false
}

func merge(into, from State) {
	for key, entry := range from {
		into[key] = entry
	}
}

// Expand instantiates the rule's template with a match state: scalar
// placeholders insert their captured clause, vectorials splice their
// captured range, everything else is copied.
func (p *Prepared) Expand(state State) []ast.Clause {
	return expandSeq(p.template, state)
}

func expandSeq(template []ast.Clause, state State) []ast.Clause {
	var out []ast.Clause
	for i := range template {
		out = append(out, expandClause(template[i], state)...)
	}
	return out
}

func expandClause(c ast.Clause, state State) []ast.Clause {
	switch c.Kind {
	case ast.Placeh:
		entry := state[c.Ph.Name]
		if entry.IsVec {
			return entry.Vec
		}
		if entry.Scalar == nil {
			// Anonymous padding placeholders outside the match state expand
			// to nothing.
			return nil
		}
		return []ast.Clause{*entry.Scalar}
	case ast.S:
		c.Body = expandSeq(c.Body, state)
		return []ast.Clause{c}
	case ast.Lambda:
		arg := expandClause(*c.Arg, state)
		if len(arg) == 1 {
			c.Arg = &arg[0]
		}
		c.Body = expandSeq(c.Body, state)
		return []ast.Clause{c}
	default:
		return []ast.Clause{c}
	}
}
