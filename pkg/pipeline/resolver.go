package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver turns module paths into source code. The pipeline pulls sources
// through a Resolver so embedders can serve files from a directory tree, from
// memory, or from a combination of mounts.
type Resolver interface {
	// Source returns the source text of the module at the given path
	// segments. It returns an error wrapping [ErrNotFound] when no such
	// module exists.
	Source(path []string) (string, error)
}

// ErrNotFound is returned (wrapped) by resolvers for paths with no source.
var ErrNotFound = errors.New("no source file")

// IsNotFound reports whether the error means the module has no source, as
// opposed to the resolver failing.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// DirResolver resolves module paths against a directory tree: the module
// a::b resolves to <dir>/a/b.orc.
type DirResolver string

// Ext is the conventional extension of Orchid source files.
const Ext = ".orc"

// Source reads the file backing the module path.
func (d DirResolver) Source(path []string) (string, error) {
	file := filepath.Join(append([]string{string(d)}, path...)...) + Ext
	content, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", file, ErrNotFound)
		}
		return "", err
	}
	return string(content), nil
}

// MapResolver serves sources from memory. Keys are slash-joined module paths
// without extension, like "std/list". It is used in tests and for embedded
// sources.
type MapResolver map[string]string

// Source returns the in-memory source of the module path.
func (m MapResolver) Source(path []string) (string, error) {
	key := strings.Join(path, "/")
	if src, ok := m[key]; ok {
		return src, nil
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotFound)
}

// PrefixResolver mounts resolvers below path prefixes. A request for a path
// is forwarded to the resolver mounted at its first segment with that
// segment stripped; paths with no mount fall through to the Rest resolver.
type PrefixResolver struct {
	Mounts map[string]Resolver
	Rest   Resolver
}

// Source dispatches to the mounted resolver.
func (p PrefixResolver) Source(path []string) (string, error) {
	if len(path) > 0 {
		if sub, ok := p.Mounts[path[0]]; ok {
			return sub.Source(path[1:])
		}
	}
	if p.Rest != nil {
		return p.Rest.Source(path)
	}
	return "", fmt.Errorf("%s: %w", strings.Join(path, "/"), ErrNotFound)
}
