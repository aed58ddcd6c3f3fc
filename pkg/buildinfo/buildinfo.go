// Package buildinfo contains build information.
package buildinfo

import (
	"fmt"
	"os"
	"runtime"

	"github.com/orchidlang/orchid/pkg/prog"
)

// Version is the version of the Orchid host. It is set at release time;
// development builds carry the -dev suffix.
const Version = "0.1.0-dev"

// Program is the buildinfo subprogram, selected by -version.
type Program struct {
	version bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false, "show version and quit")
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	if !p.version {
		return prog.ErrNextProgram
	}
	fmt.Fprintf(fds[1], "orchid %s (%s %s/%s)\n",
		Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
