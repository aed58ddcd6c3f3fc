// Package prj loads orchid.yaml project manifests.
package prj

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/orchidlang/orchid/pkg/buildinfo"
	"github.com/orchidlang/orchid/pkg/orchid"
	"github.com/orchidlang/orchid/pkg/pipeline"
)

// FileName is the manifest file name looked up in a project directory.
const FileName = "orchid.yaml"

// Manifest is the decoded project manifest.
type Manifest struct {
	// Language constrains the host language version, in semver range form
	// (">= 0.1"). Empty accepts any host.
	Language string `yaml:"language"`
	// Root is the source root relative to the manifest, defaulting to the
	// manifest's own directory.
	Root string `yaml:"root"`
	// Targets are the module paths to compile, defaulting to [main].
	Targets []string `yaml:"targets"`
	// Prelude toggles the implicit prelude import, defaulting to true.
	Prelude *bool `yaml:"prelude"`
	// MacroBudget bounds rewrite steps per constant.
	MacroBudget int `yaml:"macro_budget"`
	// StepBudget bounds reduction steps per run; 0 means unbounded.
	StepBudget int `yaml:"step_budget"`

	dir string
}

// Load reads and validates the manifest in the given project directory.
func Load(dir string) (*Manifest, error) {
	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	m.dir = dir
	if err := m.checkLanguage(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Default returns the manifest used when a project has no orchid.yaml.
func Default(dir string) *Manifest {
	return &Manifest{dir: dir}
}

func (m *Manifest) checkLanguage() error {
	if m.Language == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(m.Language)
	if err != nil {
		return fmt.Errorf("%s: bad language constraint %q: %w", FileName, m.Language, err)
	}
	version, err := semver.NewVersion(buildinfo.Version)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return fmt.Errorf("project needs orchid %q, this host is %s",
			m.Language, buildinfo.Version)
	}
	return nil
}

// CompileCfg assembles the facade configuration for the project.
func (m *Manifest) CompileCfg() orchid.CompileCfg {
	root := m.dir
	if m.Root != "" {
		root = filepath.Join(m.dir, m.Root)
	}
	targets := m.Targets
	if len(targets) == 0 {
		targets = []string{"main"}
	}
	return orchid.CompileCfg{
		Resolver:    pipeline.DirResolver(root),
		Targets:     targets,
		NoPrelude:   m.Prelude != nil && !*m.Prelude,
		MacroBudget: m.MacroBudget,
	}
}
