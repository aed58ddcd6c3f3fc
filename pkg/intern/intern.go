// Package intern exchanges immutable values for small integer handles.
//
// Orchid interns two kinds of values: source text fragments (names, string
// literal payloads) become [Tok], and non-empty sequences of Tok representing
// fully qualified paths become [Sym]. Equality of handles implies equality of
// the interned values, so namespaced name comparison during matching and
// reduction is integer comparison.
//
// An Interner is carried as an explicit argument by everything that parses,
// rewrites or reduces, rather than being process-global, so tests can
// parameterize it.
package intern

import (
	"strings"
)

// Tok is a handle to an interned piece of text. The zero value is not a valid
// handle.
type Tok int32

// Sym is a handle to an interned non-empty sequence of Toks, representing a
// fully qualified path such as std::list::cons. The zero value is not a valid
// handle.
type Sym int32

// Interner exchanges text and paths for handles. Handles are stable and never
// reused for the lifetime of the Interner. The zero value is not usable; call
// [New].
type Interner struct {
	text  store[string]
	paths store[string]
	segs  [][]Tok
}

// New creates an empty Interner.
func New() *Interner {
	return &Interner{text: newStore[string](), paths: newStore[string]()}
}

// Text interns a piece of text. It is idempotent: interning the same text
// again returns the same Tok.
func (in *Interner) Text(s string) Tok {
	return Tok(in.text.intern(s))
}

// TextOf resolves a Tok back to the text it was created from.
func (in *Interner) TextOf(t Tok) string {
	return in.text.resolve(int32(t))
}

// Path interns a non-empty sequence of Toks. It panics if segs is empty.
func (in *Interner) Path(segs []Tok) Sym {
	if len(segs) == 0 {
		panic("intern: empty path")
	}
	key := pathKey(segs)
	id, isNew := in.paths.internNew(key)
	if isNew {
		in.segs = append(in.segs, append([]Tok(nil), segs...))
	}
	return Sym(id)
}

// PathOf resolves a Sym back to its segments. The returned slice must not be
// modified.
func (in *Interner) PathOf(s Sym) []Tok {
	return in.segs[int32(s)-1]
}

// Sym interns the path assembled from the given segment texts. It panics if
// called with no segments.
func (in *Interner) Sym(segs ...string) Sym {
	toks := make([]Tok, len(segs))
	for i, seg := range segs {
		toks[i] = in.Text(seg)
	}
	return in.Path(toks)
}

// SymText renders a Sym in source form, with segments joined by "::".
func (in *Interner) SymText(s Sym) string {
	var sb strings.Builder
	for i, t := range in.PathOf(s) {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(in.TextOf(t))
	}
	return sb.String()
}

// ParseSym interns the path written in source form ("a::b::c").
func (in *Interner) ParseSym(s string) Sym {
	return in.Sym(strings.Split(s, "::")...)
}

// Head returns the first segment of a Sym.
func (in *Interner) Head(s Sym) Tok {
	return in.PathOf(s)[0]
}

// Extended interns the path of s extended with the given additional segments.
func (in *Interner) Extended(s Sym, segs ...Tok) Sym {
	base := in.PathOf(s)
	path := make([]Tok, 0, len(base)+len(segs))
	path = append(path, base...)
	path = append(path, segs...)
	return in.Path(path)
}

// pathKey encodes a Tok sequence into a compact string key for the path
// store.
func pathKey(segs []Tok) string {
	var sb strings.Builder
	sb.Grow(len(segs) * 5)
	for _, t := range segs {
		v := uint32(t)
		for v >= 0x80 {
			sb.WriteByte(byte(v) | 0x80)
			v >>= 7
		}
		sb.WriteByte(byte(v))
	}
	return sb.String()
}

// store is a monotype interning tier: a map from value to id and the reverse
// slice. Ids start at 1 so that the zero handle stays invalid.
type store[K comparable] struct {
	ids  map[K]int32
	vals []K
}

func newStore[K comparable]() store[K] {
	return store[K]{ids: make(map[K]int32)}
}

func (s *store[K]) intern(k K) int32 {
	id, _ := s.internNew(k)
	return id
}

func (s *store[K]) internNew(k K) (int32, bool) {
	if id, ok := s.ids[k]; ok {
		return id, false
	}
	s.vals = append(s.vals, k)
	id := int32(len(s.vals))
	s.ids[k] = id
	return id, true
}

func (s *store[K]) resolve(id int32) K {
	return s.vals[id-1]
}
