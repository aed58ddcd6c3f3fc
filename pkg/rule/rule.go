// Package rule stores and matches Orchid rewrite rules.
//
// Rules are validated and compiled to matcher trees at insert. The matcher
// tree is rooted at the vectorial placeholder with the highest growth
// priority, so that matching allocates clauses to placeholders in descending
// priority order; scalar subpatterns compile to straight-line sequence
// checks.
package rule

import (
	"fmt"
	"sort"

	"github.com/orchidlang/orchid/pkg/ast"
	"github.com/orchidlang/orchid/pkg/intern"
)

// ErrorKind enumerates the ways a rule can be invalid.
type ErrorKind uint8

const (
	// EmptyPattern: the pattern has no clauses.
	EmptyPattern ErrorKind = 1 + iota
	// NoNameInPattern: the pattern contains no name token, so the rule could
	// not be indexed.
	NoNameInPattern
	// AdjacentVectors: two vectorial placeholders are next to each other in
	// a pattern sequence.
	AdjacentVectors
	// DuplicatePlaceholder: a placeholder name occurs twice in the pattern.
	DuplicatePlaceholder
	// UndeclaredPlaceholder: a template placeholder does not occur in the
	// pattern.
	UndeclaredPlaceholder
	// KindMismatch: a template placeholder has a different matching class
	// than its pattern occurrence.
	KindMismatch
)

// Error reports an invalid rule rejected at insert.
type Error struct {
	Kind ErrorKind
	// Name is the offending placeholder, when applicable.
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case EmptyPattern:
		return "rule pattern is empty"
	case NoNameInPattern:
		return "rule pattern contains no name"
	case AdjacentVectors:
		return fmt.Sprintf("vectorial placeholders %s are adjacent in pattern", e.Name)
	case DuplicatePlaceholder:
		return fmt.Sprintf("placeholder $%s occurs twice in pattern", e.Name)
	case UndeclaredPlaceholder:
		return fmt.Sprintf("template placeholder $%s does not occur in pattern", e.Name)
	case KindMismatch:
		return fmt.Sprintf("placeholder $%s has different classes in pattern and template", e.Name)
	}
	return "invalid rule"
}

// Prepared is a validated rule compiled for matching. Its pattern is padded
// with anonymous vectorials on both ends so that it matches anywhere in a
// sequence.
type Prepared struct {
	Rule ast.Rule
	// Glossary holds the names that must occur in a clause sequence for the
	// rule to possibly match.
	Glossary map[intern.Sym]struct{}

	pattern  []ast.Clause
	template []ast.Clause
	matcher  *anyMatcher
}

// Priority returns the rule's priority.
func (p *Prepared) Priority() float64 { return p.Rule.Priority }

// Repository stores prepared rules in descending priority order. Within a
// priority band the order is the insertion order, which callers must not
// rely on.
type Repository struct {
	in    *intern.Interner
	rules []*Prepared
}

// New creates an empty repository.
func New(in *intern.Interner) *Repository {
	return &Repository{in: in}
}

// Insert validates, compiles and stores a rule.
func (repo *Repository) Insert(rule ast.Rule) error {
	if err := repo.validate(rule); err != nil {
		return err
	}
	prefix, suffix := repo.in.Text("\x00prefix"), repo.in.Text("\x00suffix")
	pattern, template := pad(rule, prefix, suffix)
	prep := &Prepared{
		Rule:     rule,
		Glossary: make(map[intern.Sym]struct{}),
		pattern:  pattern,
		template: template,
		matcher:  mkAny(pattern),
	}
	ast.CollectNames(rule.Pattern, prep.Glossary)
	repo.rules = append(repo.rules, prep)
	sort.SliceStable(repo.rules, func(i, j int) bool {
		return repo.rules[i].Rule.Priority > repo.rules[j].Rule.Priority
	})
	return nil
}

// Rules lists the prepared rules in descending priority order.
func (repo *Repository) Rules() []*Prepared { return repo.rules }

// GlossarySubset reports whether every name the rule requires occurs in the
// given name set. It is the cheap sweep run before attempting a match.
func (p *Prepared) GlossarySubset(names map[intern.Sym]struct{}) bool {
	for sym := range p.Glossary {
		if _, ok := names[sym]; !ok {
			return false
		}
	}
	return true
}

// validate enforces the rule invariants.
func (repo *Repository) validate(rule ast.Rule) error {
	if len(rule.Pattern) == 0 {
		return &Error{Kind: EmptyPattern}
	}
	names := make(map[intern.Sym]struct{})
	ast.CollectNames(rule.Pattern, names)
	if len(names) == 0 {
		return &Error{Kind: NoNameInPattern}
	}
	types := make(map[intern.Tok]ast.PhKind)
	if err := repo.checkSeq(rule.Pattern, types, false); err != nil {
		return err
	}
	return repo.checkSeq(rule.Template, types, true)
}

func (repo *Repository) checkSeq(cs []ast.Clause, types map[intern.Tok]ast.PhKind, inTemplate bool) error {
	for i := range cs {
		if !inTemplate && i > 0 {
			if a, ok := ast.VecAttrs(cs[i-1]); ok {
				if b, ok := ast.VecAttrs(cs[i]); ok {
					return &Error{Kind: AdjacentVectors,
						Name: repo.in.TextOf(a.Name) + " and " + repo.in.TextOf(b.Name)}
				}
			}
		}
		if err := repo.checkClause(cs[i], types, inTemplate); err != nil {
			return err
		}
	}
	return nil
}

func (repo *Repository) checkClause(c ast.Clause, types map[intern.Tok]ast.PhKind, inTemplate bool) error {
	switch c.Kind {
	case ast.Placeh:
		known, seen := types[c.Ph.Name]
		switch {
		case !inTemplate && seen:
			return &Error{Kind: DuplicatePlaceholder, Name: repo.in.TextOf(c.Ph.Name)}
		case inTemplate && !seen:
			return &Error{Kind: UndeclaredPlaceholder, Name: repo.in.TextOf(c.Ph.Name)}
		case inTemplate && (known == ast.Scalar) != (c.Ph.Kind == ast.Scalar):
			return &Error{Kind: KindMismatch, Name: repo.in.TextOf(c.Ph.Name)}
		}
		types[c.Ph.Name] = c.Ph.Kind
	case ast.S:
		return repo.checkSeq(c.Body, types, inTemplate)
	case ast.Lambda:
		if err := repo.checkClause(*c.Arg, types, inTemplate); err != nil {
			return err
		}
		return repo.checkSeq(c.Body, types, inTemplate)
	}
	return nil
}

// pad brackets the pattern with anonymous zero-or-more vectorials so that a
// pattern with no explicit outer vectorial matches anywhere in a sequence.
// The same placeholders are added to the template so the surrounding clauses
// survive expansion.
func pad(rule ast.Rule, prefix, suffix intern.Tok) (pattern, template []ast.Clause) {
	pattern = rule.Pattern
	template = rule.Template
	head, tail := pattern[0], pattern[len(pattern)-1]
	if _, ok := ast.VecAttrs(head); !ok {
		ph := ast.NewPlaceh(head, ast.Placeholder{Name: prefix, Kind: ast.VecZero})
		pattern = append([]ast.Clause{ph}, pattern...)
		template = append([]ast.Clause{ph}, template...)
	}
	if _, ok := ast.VecAttrs(tail); !ok {
		ph := ast.NewPlaceh(tail, ast.Placeholder{Name: suffix, Kind: ast.VecZero})
		pattern = append(append([]ast.Clause(nil), pattern...), ph)
		template = append(append([]ast.Clause(nil), template...), ph)
	}
	return pattern, template
}
