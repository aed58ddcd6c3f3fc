package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/orchidlang/orchid/pkg/diag"
	"github.com/orchidlang/orchid/pkg/eval"
	"github.com/orchidlang/orchid/pkg/orchid"
	"github.com/orchidlang/orchid/pkg/pipeline"
	"github.com/orchidlang/orchid/pkg/store"
)

const valuePrefix = "▶ "

// repl runs the interactive loop. Lines that look like definitions (import,
// const, macro, namespace, export) accumulate into the session module;
// anything else evaluates as an expression against it.
func (p *Program) repl(fds [3]*os.File) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	history := openHistory(fds[2])
	if history != nil {
		defer history.Close()
		if cmds, err := history.Cmds(0, -1); err == nil {
			for _, cmd := range cmds {
				ln.AppendHistory(cmd)
			}
		}
	}

	var defs []string
	for {
		line, err := ln.Prompt("orcx> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Fprintln(fds[1])
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if history != nil {
			history.AddCmd(line)
		}
		if isDefinition(line) {
			if err := p.checkDefs(append(defs, line)); err != nil {
				diag.ShowError(err)
				continue
			}
			defs = append(defs, line)
			continue
		}
		p.evalLine(fds, defs, line)
	}
}

func isDefinition(line string) bool {
	for _, kw := range []string{"import ", "export ", "const ", "macro ", "namespace "} {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return false
}

// checkDefs compiles the accumulated definitions to validate the newest one.
func (p *Program) checkDefs(defs []string) error {
	_, err := orchid.Compile(orchid.CompileCfg{
		Resolver: pipeline.MapResolver{"repl": strings.Join(defs, "\n")},
		Targets:  []string{"repl"},
	})
	return err
}

// evalLine compiles the session module with the line bound as its main
// constant and reduces it.
func (p *Program) evalLine(fds [3]*os.File, defs []string, line string) {
	source := strings.Join(append(append([]string(nil), defs...),
		"const main := "+line), "\n")
	cfg := orchid.CompileCfg{
		Resolver: pipeline.MapResolver{"repl": source},
		Targets:  []string{"repl"},
	}
	if p.macroDebug {
		cfg.MacroTrace = fds[2]
	}
	res, err := orchid.Compile(cfg)
	if err != nil {
		diag.ShowError(err)
		return
	}
	ht := res.StdHandlers(fds[1], fds[0])
	e, status, err := res.RunHandler("repl::main", eval.Unbounded, ht)
	if err != nil {
		diag.ShowError(err)
		return
	}
	if status != eval.Done {
		diag.Complain("evaluation did not finish")
		return
	}
	fmt.Fprintln(fds[1], valuePrefix+renderValue(res, e))
}

// openHistory opens the persistent REPL history, degrading to a nil store
// with a warning when it is unavailable.
func openHistory(errOut io.Writer) *store.DB {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(dir, "orchid")
	if err := os.MkdirAll(path, 0o755); err != nil {
		fmt.Fprintln(errOut, "warning: no command history:", err)
		return nil
	}
	db, err := store.Open(filepath.Join(path, "cmds.db"))
	if err != nil {
		fmt.Fprintln(errOut, "warning: no command history:", err)
		return nil
	}
	return db
}
