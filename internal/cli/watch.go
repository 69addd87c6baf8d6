package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/config"
	"github.com/matzehuels/autoinstall/pkg/discover"
	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/manifest"
	"github.com/matzehuels/autoinstall/pkg/planner"
)

// watchCommand creates the watch command: an initial scan followed by
// incremental updates as files change.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    projectFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Reconcile continuously as source files change",
		Long: `Watch runs a full scan, then follows file changes. A created or modified
file is re-parsed on its own; a deleted file drops its imports; a change to
package.json triggers a new full scan. Install and remove commands run in
the background while watching continues.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.openProject(ctx, cmd, projectDir(args), &flags, projectOptions{
				background: true,
				onReport: func(r *planner.Report) {
					for _, f := range r.Failed {
						printError("%s: %s", f.Command, errors.UserMessage(f.Err))
					}
				},
			})
			if err != nil {
				return err
			}
			defer p.Close()

			if cmd.Flags().Changed("debounce") {
				p.cfg.Debounce = debounce
			}

			if _, err := p.scanner.Scan(ctx); err != nil {
				return err
			}

			w := &watcher{
				root:     p.root,
				pattern:  p.cfg.FilesToScan,
				opts:     discover.Options{RespectGitignore: p.cfg.RespectGitignore},
				debounce: p.cfg.Debounce,
				logger:   c.Logger,
			}
			printInfo("Watching %s (ctrl+c to stop)", p.root)

			err = w.run(ctx, func(ch change) {
				var err error
				switch ch.kind {
				case changeManifest:
					_, err = p.scanner.Scan(ctx)
				case changeEdit:
					_, err = p.scanner.Edit(ctx, ch.path)
				case changeDelete:
					err = deleteTree(ctx, p, ch.path)
				}
				if err != nil && !errors.Recoverable(err) {
					c.Logger.Error("update failed", "path", relPath(p.root, ch.path), "err", err)
				}
			})
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "quiet period before a changed file is processed")
	return cmd
}

// deleteTree forgets path and, when path was a directory, every tracked
// file below it. Paths that were never tracked are ignored.
func deleteTree(ctx context.Context, p *project, path string) error {
	prefix := path + string(filepath.Separator)
	for _, f := range p.store.Files() {
		if f != path && !strings.HasPrefix(f, prefix) {
			continue
		}
		if _, err := p.scanner.Delete(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// File Watcher
// =============================================================================

type changeKind int

const (
	changeEdit changeKind = iota
	changeDelete
	changeManifest
)

func (k changeKind) String() string {
	switch k {
	case changeEdit:
		return "edit"
	case changeDelete:
		return "delete"
	case changeManifest:
		return "manifest"
	}
	return "unknown"
}

// change is one debounced file event.
type change struct {
	path string
	kind changeKind
}

// watcher turns fsnotify events under root into debounced changes.
type watcher struct {
	root     string
	pattern  string
	opts     discover.Options
	debounce time.Duration
	logger   *log.Logger
}

// run watches until ctx is done. handle is called from the watching
// goroutine, one change at a time, in path order per batch.
func (w *watcher) run(ctx context.Context, handle func(change)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	debounce := w.debounce
	if debounce <= 0 {
		debounce = config.DefaultDebounce
	}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !discover.SkipDir(info.Name()) {
						_ = w.addRecursive(fw, path)
						// Files written before the watch was added produce no events.
						w.queueTree(path, pending)
						timer.Reset(debounce)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(debounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				if ch, ok := w.classify(p); ok {
					w.logger.Debug("file event", "kind", ch.kind, "path", relPath(w.root, p))
					handle(ch)
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// classify decides what a settled path means. The file system is consulted
// at flush time, so a burst of events for one path collapses into its final
// state.
func (w *watcher) classify(path string) (change, bool) {
	if path == manifest.Path(w.root) {
		return change{path: path, kind: changeManifest}, true
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return change{}, false
	case err == nil:
		if discover.Match(w.root, w.pattern, path, w.opts) {
			return change{path: path, kind: changeEdit}, true
		}
		return change{}, false
	case os.IsNotExist(err):
		// A deleted path may have been a file or a whole directory.
		return change{path: path, kind: changeDelete}, true
	}
	return change{}, false
}

// queueTree marks every file below dir as pending.
func (w *watcher) queueTree(dir string, pending map[string]struct{}) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && discover.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		pending[path] = struct{}{}
		return nil
	})
}

func (w *watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(filepath.Clean(dir), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
