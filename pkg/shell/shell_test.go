package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orchidlang/orchid/pkg/must"
	"github.com/orchidlang/orchid/pkg/testutil"
)

// runShell runs the shell program with captured output files.
func runShell(t *testing.T, p *Program, args []string) (err error, stdout, stderr string) {
	t.Helper()
	devNull := must.OK1(os.Open(os.DevNull))
	defer devNull.Close()
	outFile := must.OK1(os.CreateTemp(t.TempDir(), "stdout"))
	defer outFile.Close()
	errFile := must.OK1(os.CreateTemp(t.TempDir(), "stderr"))
	defer errFile.Close()
	err = p.Run([3]*os.File{devNull, outFile, errFile}, args)
	return err,
		string(must.OK1(os.ReadFile(outFile.Name()))),
		string(must.OK1(os.ReadFile(errFile.Name())))
}

func TestCodeInArg(t *testing.T) {
	code := testutil.Dedent(`
		import std::(io::println, exit_status)
		const main := println "from -c" exit_status::success
	`)
	err, stdout, _ := runShell(t, &Program{codeInArg: true}, []string{code})
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if stdout != "from -c\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestCodeInArg_ExitStatus(t *testing.T) {
	code := "import std::exit_status\nconst main := exit_status::failure"
	err, _, _ := runShell(t, &Program{codeInArg: true}, []string{code})
	if err == nil || err.Error() != "" {
		t.Fatalf("want silent exit error, got %v", err)
	}
}

func TestCodeInArg_NeedsOneArgument(t *testing.T) {
	err, _, _ := runShell(t, &Program{codeInArg: true}, nil)
	if err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("want usage error, got %v", err)
	}
}

func TestRunScriptFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "app.orc")
	must.OK(os.WriteFile(script, []byte(testutil.Dedent(`
		import std::(io::println, exit_status)
		import helper::greeting
		const main := println greeting exit_status::success
	`)), 0o644))
	must.OK(os.WriteFile(filepath.Join(dir, "helper.orc"),
		[]byte(`export const greeting := "hello from a sibling"`), 0o644))
	err, stdout, _ := runShell(t, &Program{}, []string{script})
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if stdout != "hello from a sibling\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunScriptFile_WrongExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.txt")
	must.OK(os.WriteFile(path, []byte("const main := 1"), 0o644))
	err, _, _ := runShell(t, &Program{}, []string{path})
	if err == nil || !strings.Contains(err.Error(), ".orc") {
		t.Fatalf("want extension error, got %v", err)
	}
}

func TestRunProject(t *testing.T) {
	dir := t.TempDir()
	must.OK(os.WriteFile(filepath.Join(dir, "orchid.yaml"), []byte(testutil.Dedent(`
		targets: [app]
		root: src
	`)), 0o644))
	must.OK(os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	must.OK(os.WriteFile(filepath.Join(dir, "src", "app.orc"), []byte(testutil.Dedent(`
		import std::(io::println, exit_status)
		const main := println "project main" exit_status::success
	`)), 0o644))
	err, stdout, _ := runShell(t, &Program{}, []string{dir})
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if stdout != "project main\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestCompileOnly(t *testing.T) {
	code := "const main := 1 + 1"
	err, stdout, _ := runShell(t, &Program{codeInArg: true, compileOnly: true}, []string{code})
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if stdout != "" {
		t.Errorf("compileonly produced output %q", stdout)
	}
}

func TestMacroDebugTrace(t *testing.T) {
	p := &Program{codeInArg: true, compileOnly: true, macroDebug: true}
	err, _, stderr := runShell(t, p, []string{"const main := 1 + 1"})
	if err != nil {
		t.Fatalf("Run -> %v", err)
	}
	if !strings.Contains(stderr, "rule") {
		t.Errorf("macro-debug produced no trace, stderr = %q", stderr)
	}
}

func TestBadUsage_TooManyArgs(t *testing.T) {
	err, _, _ := runShell(t, &Program{}, []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "at most one") {
		t.Fatalf("want usage error, got %v", err)
	}
}
