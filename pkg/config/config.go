// Package config loads the per-project settings file.
//
// Settings live in .autoinstall.toml at the project root, or in
// .autoinstall.yaml with the same keys when no TOML file exists. Every key is
// optional; a missing file yields [Default]. Command-line flags are applied
// on top by the CLI.
//
//	files_to_scan     = "**/*.{js,jsx,ts,tsx,mjs,cjs}"
//	package_manager   = "yarn"
//	save_exact        = false
//	detect_commonjs   = false
//	respect_gitignore = true
//	serialize_runs    = false
//	max_parallel      = 0
//	debounce          = "250ms"
//	dry_run           = false
//
//	[cache]
//	backend     = "file"   # file, sqlite, redis or none
//	redis_url   = "redis://localhost:6379/0"
//	sqlite_path = ""       # defaults to parse.db in the cache directory
//	ttl         = "168h"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autoinstall/pkg/cache"
	"github.com/matzehuels/autoinstall/pkg/command"
	"github.com/matzehuels/autoinstall/pkg/discover"
	"github.com/matzehuels/autoinstall/pkg/errors"
)

// Settings file names, in lookup order.
const (
	Filename     = ".autoinstall.toml"
	YAMLFilename = ".autoinstall.yaml"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Defaults.
const (
	DefaultDebounce = 250 * time.Millisecond
	DefaultRedisURL = "redis://localhost:6379/0"
)

// Config holds the project settings.
type Config struct {
	FilesToScan      string          `toml:"files_to_scan" yaml:"files_to_scan"`
	PackageManager   command.Manager `toml:"package_manager" yaml:"package_manager"`
	SaveExact        bool            `toml:"save_exact" yaml:"save_exact"`
	DetectCommonJS   bool            `toml:"detect_commonjs" yaml:"detect_commonjs"`
	RespectGitignore bool            `toml:"respect_gitignore" yaml:"respect_gitignore"`
	SerializeRuns    bool            `toml:"serialize_runs" yaml:"serialize_runs"`
	MaxParallel      int             `toml:"max_parallel" yaml:"max_parallel"`
	Debounce         time.Duration   `toml:"debounce" yaml:"debounce"`
	DryRun           bool            `toml:"dry_run" yaml:"dry_run"`

	Cache CacheConfig `toml:"cache" yaml:"cache"`
}

// CacheConfig selects the parse cache backend.
type CacheConfig struct {
	Backend    string        `toml:"backend" yaml:"backend"`
	RedisURL   string        `toml:"redis_url" yaml:"redis_url"`
	SQLitePath string        `toml:"sqlite_path" yaml:"sqlite_path"`
	TTL        time.Duration `toml:"ttl" yaml:"ttl"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		FilesToScan:      discover.DefaultPattern,
		PackageManager:   command.DefaultManager,
		RespectGitignore: true,
		Debounce:         DefaultDebounce,
		Cache: CacheConfig{
			Backend:  CacheFile,
			RedisURL: DefaultRedisURL,
			TTL:      cache.DefaultTTL,
		},
	}
}

// Path returns the settings file in use for a project root, or "" when
// there is none.
func Path(root string) string {
	for _, name := range []string{Filename, YAMLFilename} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the settings of the project at root. Keys absent from the file
// keep their default values. A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()
	path := Path(root)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", filepath.Base(path))
	}
	if filepath.Base(path) == YAMLFilename {
		return ParseYAML(data, cfg)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML settings over base and validates the result.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return base, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", Filename)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return base, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", Filename, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// ParseYAML decodes YAML settings over base and validates the result.
func ParseYAML(data []byte, base Config) (Config, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return base, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", YAMLFilename)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate checks the settings and normalizes the package manager name.
func (c *Config) Validate() error {
	if err := discover.ValidatePattern(c.FilesToScan); err != nil {
		return err
	}
	pm, err := command.ParseManager(string(c.PackageManager))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "package_manager")
	}
	c.PackageManager = pm
	if c.MaxParallel < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_parallel must be >= 0, got %d", c.MaxParallel)
	}
	if c.Debounce < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "debounce must be >= 0, got %s", c.Debounce)
	}
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = CacheFile
	case CacheFile, CacheSQLite, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, sqlite, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must be >= 0, got %s", c.Cache.TTL)
	}
	return nil
}
