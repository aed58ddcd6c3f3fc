package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/orchidlang/orchid/pkg/orchid"
	"github.com/orchidlang/orchid/pkg/pipeline"
	"github.com/orchidlang/orchid/pkg/prj"
)

// watchProject reruns the project whenever a source file below it changes.
// Failures of individual runs are reported and watching continues; the loop
// only ends with the process.
func (p *Program) watchProject(fds [3]*os.File, dir string, cfg orchid.CompileCfg, manifest *prj.Manifest) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watchTree(watcher, dir); err != nil {
		return err
	}

	run := func() {
		err := p.compileAndRun(fds, cfg, cfg.Targets[0], manifest.StepBudget)
		if err != nil && err.Error() != "" {
			fmt.Fprintln(fds[2], err)
		}
		fmt.Fprintln(fds[2], "watching for changes...")
	}
	run()
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watchTree(watcher, event.Name)
				}
			}
			if relevant(event) {
				// Editors fire bursts of events per save; debounce them.
				pending = time.After(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(fds[2], "watch error:", err)
		case <-pending:
			pending = nil
			run()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	ext := filepath.Ext(event.Name)
	return ext == pipeline.Ext || filepath.Base(event.Name) == prj.FileName
}

func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
