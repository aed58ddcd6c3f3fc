// Package prog provides the entry point to orcx. Its subpackages and
// consumers correspond to subprograms: the language server, the script
// runner and the REPL.
package prog

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/orchidlang/orchid/pkg/logutil"
)

// FlagSet wraps flag.FlagSet to keep subprogram registration decoupled from
// the standard library type.
type FlagSet struct {
	flag.FlagSet
}

// Program represents a subprogram.
type Program interface {
	// RegisterFlags registers the subprogram's flags.
	RegisterFlags(fs *FlagSet)
	// Run runs the subprogram. It returns ErrNextProgram when the program
	// decides, from flags or arguments, that it is not the one to run.
	Run(fds [3]*os.File, args []string) error
}

// ErrNextProgram is returned by Program.Run to pass control to the next
// program in a composition.
var ErrNextProgram = errors.New("internal error: no suitable subprogram")

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It
// causes the main function to exit with the given code without printing any
// error messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }

// Run parses command-line flags and runs the first applicable program. It
// returns the exit status of the process.
func Run(fds [3]*os.File, args []string, programs ...Program) int {
	fs := &FlagSet{}
	fs.Init("orcx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var help bool
	var logFile string
	fs.BoolVar(&help, "help", false, "show usage help and quit")
	fs.StringVar(&logFile, "log", "", "a file to write debug log to")
	for _, p := range programs {
		p.RegisterFlags(fs)
	}
	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// Parse returns ErrHelp when -h was requested but not defined.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}
	if logFile != "" {
		if err := logutil.SetOutputFile(logFile); err != nil {
			fmt.Fprintln(fds[2], err)
		}
	}
	if help {
		usage(fds[1], fs)
		return 0
	}
	for _, p := range programs {
		err := p.Run(fds, fs.Args())
		if err == ErrNextProgram {
			continue
		}
		if err == nil {
			return 0
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(fds[2], msg)
		}
		switch err := err.(type) {
		case badUsageError:
			usage(fds[2], fs)
			return 2
		case exitError:
			return err.exit
		}
		return 2
	}
	fmt.Fprintln(fds[2], "internal error: no suitable subprogram")
	return 2
}

func usage(out io.Writer, fs *FlagSet) {
	fmt.Fprintln(out, "Usage: orcx [flags] [project dir | script.orc]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}
