package prog

import (
	"os"
	"strings"
	"testing"

	"github.com/orchidlang/orchid/pkg/must"
)

// recorded implements Program and records whether it ran.
type recorded struct {
	next bool
	ran  bool
	err  error
}

func (p *recorded) RegisterFlags(fs *FlagSet) {}

func (p *recorded) Run(fds [3]*os.File, args []string) error {
	if p.next {
		return ErrNextProgram
	}
	p.ran = true
	return p.err
}

func run(t *testing.T, args []string, programs ...Program) (int, string) {
	t.Helper()
	devNull := must.OK1(os.Open(os.DevNull))
	defer devNull.Close()
	errFile := must.OK1(os.CreateTemp(t.TempDir(), "stderr"))
	defer errFile.Close()
	exit := Run([3]*os.File{devNull, devNull, errFile}, args, programs...)
	content := must.OK1(os.ReadFile(errFile.Name()))
	return exit, string(content)
}

func TestRun_PicksFirstSuitable(t *testing.T) {
	first := &recorded{next: true}
	second := &recorded{}
	exit, _ := run(t, []string{"orcx"}, first, second)
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if first.ran || !second.ran {
		t.Errorf("ran = (%v, %v), want (false, true)", first.ran, second.ran)
	}
}

func TestRun_BadFlag(t *testing.T) {
	exit, stderr := run(t, []string{"orcx", "-no-such-flag"}, &recorded{})
	if exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
	if !strings.Contains(stderr, "Usage") {
		t.Errorf("stderr = %q, want usage text", stderr)
	}
}

func TestRun_BadUsage(t *testing.T) {
	exit, stderr := run(t, []string{"orcx"}, &recorded{err: BadUsage("won't do it")})
	if exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
	if !strings.Contains(stderr, "won't do it") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_Exit(t *testing.T) {
	exit, stderr := run(t, []string{"orcx"}, &recorded{err: Exit(7)})
	if exit != 7 {
		t.Errorf("exit = %d, want 7", exit)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestRun_NoSuitableProgram(t *testing.T) {
	exit, _ := run(t, []string{"orcx"}, &recorded{next: true})
	if exit != 2 {
		t.Errorf("exit = %d, want 2", exit)
	}
}

func TestExitZeroIsNil(t *testing.T) {
	if Exit(0) != nil {
		t.Errorf("Exit(0) is not nil")
	}
}
