// Package classify turns raw import specifiers into registry package records.
//
// The pipeline runs in a fixed order, each stage narrowing the set:
//
//  1. drop local paths ("./x", "../y", "/abs/z", "C:\\w")
//  2. collapse deep imports to the package identity ("lodash/fp" -> "lodash",
//     "@scope/pkg/sub" -> "@scope/pkg")
//  3. drop platform built-ins ("fs", "node:path")
//  4. drop names that do not match the package-name grammar
//
// Nothing in this package returns an error: specifiers that do not survive the
// pipeline are simply not registry packages.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/autoinstall/pkg/modules"
)

var validName = regexp.MustCompile(`^(@[a-z0-9_-]+/)?[a-z0-9_-]+$`)

var windowsDrive = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// Classify filters specifiers down to registry packages referenced by
// filePath. Each surviving package appears once, in first-seen order.
func Classify(specifiers []string, filePath string) []modules.Module {
	dev := IsTestFile(filePath)
	seen := make(map[string]struct{}, len(specifiers))

	var out []modules.Module
	for _, spec := range specifiers {
		if IsLocal(spec) {
			continue
		}
		name := PackageName(spec)
		if IsBuiltin(name) || !IsValidName(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, modules.Module{Name: name, Dev: dev, SourceFile: filePath})
	}
	return out
}

// IsLocal reports whether specifier resolves to a file rather than a package.
func IsLocal(specifier string) bool {
	switch {
	case specifier == "." || specifier == "..":
		return true
	case strings.Contains(specifier, "./"):
		return true
	case strings.HasPrefix(specifier, "/"):
		return true
	case windowsDrive.MatchString(specifier):
		return true
	}
	return false
}

// PackageName returns the top-level package identity of a bare specifier.
// Scoped packages keep two segments; everything else keeps one.
func PackageName(specifier string) string {
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(parts[0], "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// IsValidName reports whether name matches the accepted package-name grammar:
// lowercase alphanumerics, '-' and '_', optionally behind an @scope/ prefix.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// IsTestFile reports whether path follows the .spec.* / .test.* naming
// convention. Modules found only in test files are dev dependencies.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return false
	}
	stem := strings.TrimSuffix(base, ext)
	return strings.HasSuffix(stem, ".spec") || strings.HasSuffix(stem, ".test")
}
