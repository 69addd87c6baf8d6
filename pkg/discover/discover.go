// Package discover finds the source files of a project that should be scanned
// for imports.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/matzehuels/autoinstall/pkg/errors"
)

// DefaultPattern selects JavaScript and TypeScript sources.
const DefaultPattern = "**/*.{js,jsx,ts,tsx,mjs,cjs}"

// skipDirs are never descended into, whatever the pattern says.
var skipDirs = map[string]struct{}{
	"node_modules":     {},
	"jspm_packages":    {},
	"typings":          {},
	"bower_components": {},
	".git":             {},
	".yarn":            {},
	".pnpm-store":      {},
}

// Options controls discovery.
type Options struct {
	// RespectGitignore drops paths matched by the root .gitignore.
	RespectGitignore bool
}

// SkipDir reports whether a directory with this base name is excluded.
func SkipDir(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// ValidatePattern checks that pattern is a well-formed doublestar glob.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "files_to_scan is empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return errors.New(errors.ErrCodeInvalidConfig, "files_to_scan %q is not a valid glob", pattern)
	}
	return nil
}

// Files returns the absolute paths under root whose root-relative path
// matches pattern, minus the deny-list and, optionally, gitignored paths.
// The result is sorted.
func Files(root, pattern string, opts Options) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", root)
	}

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(root)
	}

	var results []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if SkipDir(d.Name()) || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if !matchRel(pattern, rel) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

// Match reports whether the file at path would be returned by Files for the
// same root and pattern. Only the root .gitignore is consulted.
func Match(root, pattern, path string, opts Options) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if SkipDir(dir) {
			return false
		}
	}
	if !matchRel(pattern, rel) {
		return false
	}
	if opts.RespectGitignore {
		if gi := loadGitignore(root); gi != nil && gi.MatchesPath(rel) {
			return false
		}
	}
	return true
}

// matchRel applies the pattern and the declaration-file rule to a
// slash-separated relative path.
func matchRel(pattern, rel string) bool {
	if strings.HasSuffix(rel, ".d.ts") {
		return false
	}
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
