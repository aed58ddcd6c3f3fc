package intern

import "testing"

func TestText(t *testing.T) {
	in := New()
	foo := in.Text("foo")
	bar := in.Text("bar")
	if foo == bar {
		t.Errorf("distinct texts interned to the same Tok")
	}
	if foo2 := in.Text("foo"); foo2 != foo {
		t.Errorf("interning is not idempotent: %v != %v", foo2, foo)
	}
	if got := in.TextOf(foo); got != "foo" {
		t.Errorf("TextOf -> %q, want %q", got, "foo")
	}
}

func TestPath(t *testing.T) {
	in := New()
	ab := in.Sym("a", "b")
	ab2 := in.Path([]Tok{in.Text("a"), in.Text("b")})
	if ab != ab2 {
		t.Errorf("equal paths interned to different Syms")
	}
	if abc := in.Sym("a", "b", "c"); abc == ab {
		t.Errorf("distinct paths interned to the same Sym")
	}
	if got := in.SymText(ab); got != "a::b" {
		t.Errorf("SymText -> %q, want %q", got, "a::b")
	}
	if got := in.ParseSym("a::b"); got != ab {
		t.Errorf("ParseSym(\"a::b\") -> %v, want %v", got, ab)
	}
}

func TestPath_Empty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("empty path did not panic")
		}
	}()
	New().Path(nil)
}

func TestExtended(t *testing.T) {
	in := New()
	a := in.Sym("a")
	ab := in.Extended(a, in.Text("b"))
	if want := in.Sym("a", "b"); ab != want {
		t.Errorf("Extended -> %v, want %v", ab, want)
	}
	if in.Head(ab) != in.Text("a") {
		t.Errorf("Head(a::b) is not a")
	}
}

func TestHandleStability(t *testing.T) {
	in := New()
	toks := make(map[Tok]bool)
	for _, s := range []string{"x", "y", "z", "x", "y"} {
		toks[in.Text(s)] = true
	}
	if len(toks) != 3 {
		t.Errorf("got %d distinct handles for 3 distinct texts", len(toks))
	}
}
