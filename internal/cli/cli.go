// Package cli implements the autoinstall command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/buildinfo"
	"github.com/matzehuels/autoinstall/pkg/cache"
	"github.com/matzehuels/autoinstall/pkg/command"
	"github.com/matzehuels/autoinstall/pkg/config"
	"github.com/matzehuels/autoinstall/pkg/planner"
	"github.com/matzehuels/autoinstall/pkg/scanner"
	"github.com/matzehuels/autoinstall/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "autoinstall"

	// logPrefix tags every log line.
	logPrefix = "Auto Install Module"

	// redisKeyPrefix namespaces parse results in a shared Redis database.
	redisKeyPrefix = "autoinstall:"

	// sqliteFilename is the default database of the sqlite cache backend.
	sqliteFilename = "parse.db"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "autoinstall",
		Short: "Autoinstall keeps package.json in step with your imports",
		Long: `Autoinstall scans a JavaScript or TypeScript project for import and export
statements, compares the referenced packages with package.json, and runs
npm or yarn to install what is missing and remove what is no longer used.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Project Setup
// =============================================================================

// projectFlags are the flags shared by commands that open a project.
type projectFlags struct {
	dryRun         bool
	packageManager string
	exact          bool
	commonJS       bool
	noCache        bool
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print commands instead of running them")
	cmd.Flags().StringVar(&f.packageManager, "package-manager", "", "package manager: yarn or npm (default from config)")
	cmd.Flags().BoolVar(&f.exact, "exact", false, "pin exact versions on npm install")
	cmd.Flags().BoolVar(&f.commonJS, "commonjs", false, "also detect require() and dynamic import()")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the parse cache")

	cmd.ValidArgsFunction = completeProjectDir
	_ = cmd.RegisterFlagCompletionFunc("package-manager", completePackageManager)
}

// apply overrides config values with the flags the user set explicitly.
func (f *projectFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if flags.Changed("package-manager") {
		cfg.PackageManager = command.Manager(f.packageManager)
	}
	if flags.Changed("exact") {
		cfg.SaveExact = f.exact
	}
	if flags.Changed("commonjs") {
		cfg.DetectCommonJS = f.commonJS
	}
	if f.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	return cfg.Validate()
}

// project bundles the objects that serve one project root.
type project struct {
	root    string
	cfg     config.Config
	store   *store.Store
	planner *planner.Planner
	scanner *scanner.Scanner
	cache   cache.Cache
}

// projectOptions tune how a project's scanner runs.
type projectOptions struct {
	background bool
	onReport   func(*planner.Report)
}

// openProject loads the configuration of dir and wires store, planner and
// scanner. The caller must Close the project.
func (c *CLI) openProject(ctx context.Context, cmd *cobra.Command, dir string, f *projectFlags, po projectOptions) (*project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if err := f.apply(cmd, &cfg); err != nil {
		return nil, err
	}

	pc, keyer := c.newCache(ctx, cfg, root)

	st := store.New(root)
	pl := planner.New(st, planner.Options{
		Manager:     cfg.PackageManager,
		Exact:       cfg.SaveExact,
		DryRun:      cfg.DryRun,
		Serialize:   cfg.SerializeRuns,
		MaxParallel: cfg.MaxParallel,
		Notifier:    planner.NotifierFunc(func(msg string) { printSuccess("%s", msg) }),
		Logger:      c.Logger,
	})
	sc := scanner.New(st, pl, scanner.Options{
		Pattern:          cfg.FilesToScan,
		RespectGitignore: cfg.RespectGitignore,
		CommonJS:         cfg.DetectCommonJS,
		Cache:            pc,
		Keyer:            keyer,
		CacheTTL:         cfg.Cache.TTL,
		Background:       po.background,
		OnReport:         po.onReport,
		Logger:           c.Logger,
	})

	c.Logger.Debug("project opened",
		"root", root,
		"package_manager", cfg.PackageManager,
		"files", cfg.FilesToScan,
		"cache", cfg.Cache.Backend)

	return &project{
		root:    root,
		cfg:     cfg,
		store:   st,
		planner: pl,
		scanner: sc,
		cache:   pc,
	}, nil
}

// Close waits for background runs and releases the cache.
func (p *project) Close() error {
	p.scanner.Wait()
	return p.cache.Close()
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache builds the parse cache selected by cfg. A backend that cannot be
// opened degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, root string) (cache.Cache, cache.Keyer) {
	keyer := cache.NewDefaultKeyer()
	switch cfg.Cache.Backend {
	case config.CacheFile:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("parse cache disabled", "err", err)
			return cache.NewNullCache(), keyer
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("parse cache disabled", "err", err)
			return cache.NewNullCache(), keyer
		}
		return fc, keyer
	case config.CacheSQLite:
		path := cfg.Cache.SQLitePath
		if path == "" {
			dir, err := cacheDir()
			if err != nil {
				c.Logger.Warn("parse cache disabled", "err", err)
				return cache.NewNullCache(), keyer
			}
			path = filepath.Join(dir, sqliteFilename)
		}
		sc, err := cache.NewSQLiteCache(path)
		if err != nil {
			c.Logger.Warn("parse cache disabled", "err", err)
			return cache.NewNullCache(), keyer
		}
		return sc, keyer
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisKeyPrefix)
		if err != nil {
			c.Logger.Warn("parse cache disabled", "err", err)
			return cache.NewNullCache(), keyer
		}
		return rc, cache.NewScopedKeyer(keyer, projectScope(root))
	}
	return cache.NewNullCache(), keyer
}

// projectScope is the key prefix separating projects in a shared cache.
func projectScope(root string) string {
	return "project:" + cache.Hash([]byte(root))[:12] + ":"
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/autoinstall/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// projectDir returns the directory argument or the working directory.
func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
