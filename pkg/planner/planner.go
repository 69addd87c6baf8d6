// Package planner turns the reconciliation state into package-manager runs.
//
// Every record in the Uninstalled collection becomes one install command and
// every record in Unused becomes one remove command. Commands of a batch run
// concurrently as independent child processes. The store is mutated per
// module as each command succeeds; a failed command leaves the state of its
// module untouched and is not retried until the next scan or edit.
//
// Runs are not mutually exclusive unless [Options.Serialize] is set. Two
// overlapping runs may then both act on the same record; the store tolerates
// this and the next full scan restores a consistent view.
package planner

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autoinstall/pkg/command"
	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/observability"
	"github.com/matzehuels/autoinstall/pkg/store"
)

// NotificationTag prefixes every success notification.
const NotificationTag = "[Auto Install Module]"

// Notifier receives one message per successful command.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(msg string)

// Notify calls f.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Options configures a Planner.
type Options struct {
	Manager     command.Manager // Package manager family (default: yarn)
	Exact       bool            // Pass --save-exact to npm installs
	DryRun      bool            // Log planned commands without running them
	Serialize   bool            // Queue overlapping runs instead of interleaving
	MaxParallel int             // Concurrent commands per batch (0 = unbounded)

	Runner   command.Runner // Default: command.ExecRunner
	Notifier Notifier       // Default: no notifications
	Logger   *log.Logger    // Default: discard
}

// Planner issues install and remove commands for one project.
type Planner struct {
	store *store.Store
	opts  Options

	runMu sync.Mutex
}

// New creates a planner acting on s. Commands run in s.Root().
func New(s *store.Store, opts Options) *Planner {
	if opts.Manager == "" {
		opts.Manager = command.DefaultManager
	}
	if opts.Runner == nil {
		opts.Runner = command.ExecRunner{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Planner{store: s, opts: opts}
}

// Manager returns the configured package manager.
func (p *Planner) Manager() command.Manager { return p.opts.Manager }

// Failure describes one command that did not succeed.
type Failure struct {
	Module  modules.Module
	Command string
	Err     error
}

// Report summarizes one planner run.
type Report struct {
	RunID     string
	Installed []modules.Module
	Removed   []modules.Module
	Failed    []Failure
	Planned   []string // Commands that would have run in dry-run mode
}

// Empty reports whether the run did nothing.
func (r *Report) Empty() bool {
	return len(r.Installed) == 0 && len(r.Removed) == 0 && len(r.Failed) == 0 && len(r.Planned) == 0
}

// Install runs one install command per record in Uninstalled. since marks the
// start of the triggering scan or edit and is used for elapsed-time
// notifications; the zero time means "now".
func (p *Planner) Install(ctx context.Context, since time.Time) *Report {
	return p.run(ctx, since, true, false)
}

// Remove runs one remove command per record in Unused.
func (p *Planner) Remove(ctx context.Context, since time.Time) *Report {
	return p.run(ctx, since, false, true)
}

// Run launches the install and remove batches concurrently and waits for
// both.
func (p *Planner) Run(ctx context.Context, since time.Time) *Report {
	return p.run(ctx, since, true, true)
}

func (p *Planner) run(ctx context.Context, since time.Time, install, remove bool) *Report {
	if p.opts.Serialize {
		p.runMu.Lock()
		defer p.runMu.Unlock()
	}
	if since.IsZero() {
		since = time.Now()
	}

	b := &batch{
		planner: p,
		since:   since,
		report:  &Report{RunID: uuid.NewString()},
	}
	b.logger = p.opts.Logger.With("run", shortID(b.report.RunID))

	g, gctx := errgroup.WithContext(ctx)
	if p.opts.MaxParallel > 0 {
		g.SetLimit(p.opts.MaxParallel)
	}
	if install {
		for _, m := range p.store.Modules(modules.Uninstalled) {
			g.Go(func() error {
				b.install(gctx, m)
				return nil
			})
		}
	}
	if remove {
		for _, m := range p.store.Modules(modules.Unused) {
			g.Go(func() error {
				b.remove(gctx, m)
				return nil
			})
		}
	}
	_ = g.Wait()

	b.report.sort()
	if !b.report.Empty() {
		b.logger.Debug("run complete",
			"installed", len(b.report.Installed),
			"removed", len(b.report.Removed),
			"failed", len(b.report.Failed))
	}
	return b.report
}

// batch collects the outcomes of one run.
type batch struct {
	planner *Planner
	since   time.Time
	logger  *log.Logger

	mu     sync.Mutex
	report *Report
}

func (b *batch) install(ctx context.Context, m modules.Module) {
	p := b.planner
	cmd, err := command.Install(m, p.opts.Manager, p.opts.Exact)
	if err != nil {
		b.fail(m, m.Name, err)
		return
	}
	if !b.exec(ctx, cmd) {
		return
	}

	s := p.store
	s.Delete(modules.Uninstalled, m.Name, "")
	s.Delete(modules.Unused, m.Name, "")
	s.Add(modules.Installed, m)
	s.Add(modules.Used, m)

	b.mu.Lock()
	b.report.Installed = append(b.report.Installed, m)
	b.mu.Unlock()
}

func (b *batch) remove(ctx context.Context, m modules.Module) {
	p := b.planner
	cmd, err := command.Remove(m, p.opts.Manager)
	if err != nil {
		b.fail(m, m.Name, err)
		return
	}
	if !b.exec(ctx, cmd) {
		return
	}

	for _, c := range modules.Collections() {
		p.store.Delete(c, m.Name, m.SourceFile)
	}

	b.mu.Lock()
	b.report.Removed = append(b.report.Removed, m)
	b.mu.Unlock()
}

// exec runs cmd and reports whether the store should be updated.
func (b *batch) exec(ctx context.Context, cmd command.Command) bool {
	p := b.planner
	line := cmd.String()

	if p.opts.DryRun {
		b.logger.Info("dry run: "+cmd.Describe(), "command", line)
		b.mu.Lock()
		b.report.Planned = append(b.report.Planned, line)
		b.mu.Unlock()
		return false
	}

	hooks := observability.Command()
	hooks.OnCommandStart(ctx, b.report.RunID, line)
	b.logger.Info(cmd.Describe(), "command", line)

	start := time.Now()
	err := p.opts.Runner.Run(ctx, cmd, p.store.Root())
	hooks.OnCommandComplete(ctx, b.report.RunID, line, time.Since(start), err)
	if err != nil {
		b.fail(cmd.Module, line, err)
		return false
	}

	p.opts.Notifier.Notify(Notification(line, time.Since(b.since)))
	return true
}

func (b *batch) fail(m modules.Module, line string, err error) {
	b.logger.Error("command failed", "module", m.Name, "err", err)
	b.mu.Lock()
	b.report.Failed = append(b.report.Failed, Failure{Module: m, Command: line, Err: err})
	b.mu.Unlock()
}

// Notification formats the success message for a command line.
func Notification(line string, elapsed time.Duration) string {
	return fmt.Sprintf("%s %s cost %dms", NotificationTag, line, elapsed.Milliseconds())
}

func (r *Report) sort() {
	byName := func(mods []modules.Module) {
		sort.SliceStable(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	}
	byName(r.Installed)
	byName(r.Removed)
	sort.SliceStable(r.Failed, func(i, j int) bool { return r.Failed[i].Module.Name < r.Failed[j].Module.Name })
	sort.Strings(r.Planned)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
