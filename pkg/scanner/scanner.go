// Package scanner keeps a project's reconciliation state in step with its
// files.
//
// A [Scanner] owns the flow from file system to package manager: it discovers
// source files, parses and classifies their imports, reads package.json,
// updates the [store.Store] and hands the result to the [planner.Planner].
//
// Three entry points mirror the events of an editor session:
//
//   - [Scanner.Scan]: full scan of the project, then reconcile
//   - [Scanner.Edit]: one file was created or modified
//   - [Scanner.Delete]: one file was removed
//
// Failures confined to one unit of work (an unparsable file, an unreadable
// manifest) are logged and treated as contributing nothing. They never abort
// a scan.
package scanner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autoinstall/pkg/cache"
	"github.com/matzehuels/autoinstall/pkg/classify"
	"github.com/matzehuels/autoinstall/pkg/discover"
	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/manifest"
	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/observability"
	"github.com/matzehuels/autoinstall/pkg/planner"
	"github.com/matzehuels/autoinstall/pkg/reconcile"
	"github.com/matzehuels/autoinstall/pkg/source"
	"github.com/matzehuels/autoinstall/pkg/store"
)

// Options configures a Scanner.
type Options struct {
	Pattern          string // Glob of files to scan (default: discover.DefaultPattern)
	RespectGitignore bool   // Skip paths ignored by the root .gitignore
	CommonJS         bool   // Also extract require() and dynamic import()
	Parallelism      int    // Files parsed concurrently (default: GOMAXPROCS)

	Cache    cache.Cache   // Parse result cache (default: NullCache)
	Keyer    cache.Keyer   // Cache key builder (default: DefaultKeyer)
	CacheTTL time.Duration // Lifetime of cached parse results

	// Background launches planner runs without waiting for them. Reports
	// are delivered to OnReport; Wait blocks until all runs have finished.
	Background bool
	OnReport   func(*planner.Report)

	Logger *log.Logger
}

// Result is the outcome of a Scan, Edit or Delete.
type Result struct {
	// State is the store snapshot taken before planner commands ran.
	State store.State

	// Files is the number of files parsed.
	Files int

	// Diff holds the names added to and removed from the edited file.
	Diff reconcile.Diff

	// Purged holds the names forgotten on Delete.
	Purged []string

	// Report is the planner report. It is nil when the planner runs in the
	// background or was not invoked.
	Report *planner.Report
}

// Scanner drives one project.
type Scanner struct {
	root    string
	store   *store.Store
	planner *planner.Planner
	parser  *source.Parser
	opts    Options

	runs sync.WaitGroup
}

// New creates a scanner for the project owning st. pl may be nil, in which
// case no commands are ever run.
func New(st *store.Store, pl *planner.Planner, opts Options) *Scanner {
	if opts.Pattern == "" {
		opts.Pattern = discover.DefaultPattern
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	root := st.Root()
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Scanner{
		root:    root,
		store:   st,
		planner: pl,
		parser:  source.NewParser(source.WithCommonJS(opts.CommonJS)),
		opts:    opts,
	}
}

// Root returns the project root.
func (s *Scanner) Root() string { return s.root }

// Store returns the store the scanner updates.
func (s *Scanner) Store() *store.Store { return s.store }

// Scan rebuilds the state from scratch and reconciles it.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	since := time.Now()
	res, err := s.fullScan(ctx)
	if err != nil {
		return nil, err
	}
	res.Report = s.reconcile(ctx, since)
	return res, nil
}

// Status rebuilds the state from scratch without running any command.
func (s *Scanner) Status(ctx context.Context) (*Result, error) {
	return s.fullScan(ctx)
}

func (s *Scanner) fullScan(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	hooks := observability.Scan()
	hooks.OnScanStart(ctx, s.root)
	res = &Result{}
	defer func() {
		hooks.OnScanComplete(ctx, s.root, res.Files, time.Since(start), err)
	}()

	var installed, used []modules.Module
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		installed = s.installedModules()
		return nil
	})
	g.Go(func() error {
		var files int
		var err error
		used, files, err = s.usedModules(gctx)
		res.Files = files
		return err
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	s.store.ReplaceAll(installed, used)
	res.State = s.store.Snapshot()

	s.opts.Logger.Info("scan complete",
		"files", res.Files,
		"installed", len(res.State.Installed),
		"used", len(res.State.Used),
		"uninstalled", len(res.State.Uninstalled),
		"unused", len(res.State.Unused),
		"duration", time.Since(start))
	return res, nil
}

// installedModules reads package.json. Errors leave the set empty.
func (s *Scanner) installedModules() []modules.Module {
	mods, err := manifest.Read(s.root)
	if err != nil {
		s.opts.Logger.Warn("no declared dependencies", "err", err)
		return nil
	}
	return mods
}

// UsedModules parses every discovered file and returns the classified
// records in path order. Records are de-duplicated per file only.
func (s *Scanner) UsedModules(ctx context.Context) ([]modules.Module, error) {
	mods, _, err := s.usedModules(ctx)
	return mods, err
}

func (s *Scanner) usedModules(ctx context.Context) ([]modules.Module, int, error) {
	files, err := discover.Files(s.root, s.opts.Pattern, discover.Options{
		RespectGitignore: s.opts.RespectGitignore,
	})
	if err != nil {
		return nil, 0, err
	}
	files = parseable(files)
	s.opts.Logger.Debug("discovered files", "count", len(files))

	perFile := make([][]modules.Module, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perFile[i] = s.fileModules(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var used []modules.Module
	for _, mods := range perFile {
		used = append(used, mods...)
	}
	return used, len(files), nil
}

// parseable keeps the files whose extension has a grammar. A broad
// files_to_scan pattern may also match data or markup files.
func parseable(files []string) []string {
	exts := make(map[string]struct{}, len(source.Extensions()))
	for _, e := range source.Extensions() {
		exts[e] = struct{}{}
	}
	out := files[:0]
	for _, f := range files {
		if _, ok := exts[strings.ToLower(filepath.Ext(f))]; ok {
			out = append(out, f)
		}
	}
	return out
}

// fileModules reads, parses and classifies one file. Any failure is logged
// and yields no records.
func (s *Scanner) fileModules(ctx context.Context, path string) []modules.Module {
	src, err := os.ReadFile(path)
	if err != nil {
		s.opts.Logger.Warn("skipping unreadable file", "path", s.rel(path), "err", err)
		return nil
	}
	specs, err := s.parse(ctx, path, src)
	mods := classify.Classify(specs, path)
	observability.Scan().OnFileParsed(ctx, path, len(mods), err)
	if err != nil {
		s.opts.Logger.Warn("skipping file", "path", s.rel(path), "err", errors.UserMessage(err))
		return nil
	}
	return mods
}

// parse returns the specifiers of src, consulting the parse cache first.
// Parse errors are not cached.
func (s *Scanner) parse(ctx context.Context, path string, src []byte) ([]string, error) {
	key := s.opts.Keyer.ParseKey(path, s.parser.CommonJS(), src)
	hooks := observability.Cache()

	if data, ok, err := s.opts.Cache.Get(ctx, key); err == nil && ok {
		var specs []string
		if json.Unmarshal(data, &specs) == nil {
			hooks.OnCacheHit(ctx, cache.KeyTypeParse)
			return specs, nil
		}
	} else if err != nil {
		s.opts.Logger.Debug("cache get failed", "err", err)
	}
	hooks.OnCacheMiss(ctx, cache.KeyTypeParse)

	specs, err := s.parser.ParseImports(ctx, src, path)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(specs); err == nil {
		if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
			s.opts.Logger.Debug("cache set failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cache.KeyTypeParse, len(data))
		}
	}
	return specs, nil
}

// Edit re-reads one file and records the names it gained or lost. A file
// that no longer exists is handled as a Delete.
func (s *Scanner) Edit(ctx context.Context, path string) (*Result, error) {
	since := time.Now()
	path, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s.Delete(ctx, path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", s.rel(path))
	}

	specs, err := s.parse(ctx, path, src)
	if err != nil {
		// The file contributes nothing until it parses again; the previous
		// attribution is kept.
		observability.Scan().OnFileParsed(ctx, path, 0, err)
		s.opts.Logger.Warn("skipping edit", "path", s.rel(path), "err", errors.UserMessage(err))
		return nil, err
	}
	mods := classify.Classify(specs, path)
	observability.Scan().OnFileParsed(ctx, path, len(mods), nil)

	res := &Result{Files: 1}
	res.Diff = s.store.ApplyFileEdit(path, reconcile.Names(mods), classify.IsTestFile(path))
	res.State = s.store.Snapshot()
	if !res.Diff.Empty() {
		s.opts.Logger.Info("file changed", "path", s.rel(path), "added", res.Diff.Add, "removed", res.Diff.Remove)
	}
	res.Report = s.reconcile(ctx, since)
	return res, nil
}

// Delete forgets one file and every name/path pair attributed to it.
func (s *Scanner) Delete(ctx context.Context, path string) (*Result, error) {
	since := time.Now()
	path, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	res.Purged = s.store.ApplyFileDelete(path)
	res.State = s.store.Snapshot()
	if len(res.Purged) > 0 {
		s.opts.Logger.Info("file deleted", "path", s.rel(path), "purged", res.Purged)
	}
	res.Report = s.reconcile(ctx, since)
	return res, nil
}

// reconcile hands the current state to the planner. Runs are detached from
// ctx cancellation so that a superseded event does not kill its commands.
func (s *Scanner) reconcile(ctx context.Context, since time.Time) *planner.Report {
	if s.planner == nil {
		return nil
	}
	runCtx := context.WithoutCancel(ctx)
	if !s.opts.Background {
		report := s.planner.Run(runCtx, since)
		s.deliver(report)
		return report
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.deliver(s.planner.Run(runCtx, since))
	}()
	return nil
}

func (s *Scanner) deliver(report *planner.Report) {
	if s.opts.OnReport != nil {
		s.opts.OnReport(report)
	}
}

// Wait blocks until every background planner run has finished.
func (s *Scanner) Wait() {
	s.runs.Wait()
}

// resolve validates an event path and makes it absolute against the root.
func (s *Scanner) resolve(path string) (string, error) {
	if err := errors.ValidateEventPath(path); err != nil {
		s.opts.Logger.Warn("dropping event", "err", errors.UserMessage(err))
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	return filepath.Clean(path), nil
}

func (s *Scanner) rel(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
