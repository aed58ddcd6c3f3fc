package testutil

import (
	"os"
	"path/filepath"

	"github.com/orchidlang/orchid/pkg/must"
)

// InTempDir changes into a new temporary directory for the duration of the
// test, and returns the path of the directory.
func InTempDir(c Cleanuper) string {
	dir := c.TempDir()
	// Resolve symlinks, since on some platforms (macOS among them) TempDir
	// lives behind one and tests comparing working directories need the
	// resolved path.
	dir = must.OK1(filepath.EvalSymlinks(dir))
	oldWd := must.OK1(os.Getwd())
	must.OK(os.Chdir(dir))
	c.Cleanup(func() { must.OK(os.Chdir(oldWd)) })
	return dir
}

// ApplyDir creates the given filesystem layout in the current directory.
// Values of the map are either file contents (string) or nested directories
// (Dir).
func ApplyDir(dir Dir) {
	applyDir(dir, "")
}

// Dir describes a directory layout.
type Dir map[string]any

func applyDir(dir Dir, prefix string) {
	for name, file := range dir {
		path := filepath.Join(prefix, name)
		switch file := file.(type) {
		case string:
			must.OK(os.WriteFile(path, []byte(file), 0o644))
		case Dir:
			must.OK(os.MkdirAll(path, 0o755))
			applyDir(file, path)
		default:
			panic("file is neither string nor Dir")
		}
	}
}

// Cleanuper covers the subset of testing.T and testing.B used by this
// package.
type Cleanuper interface {
	Cleanup(func())
	TempDir() string
}
