package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name before it is placed on a
// package-manager command line. It rejects names that could be used for path
// traversal or read as a flag.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No leading dash
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 214 characters (npm registry limit)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters")
		}
	}

	if strings.HasPrefix(name, "-") {
		return New(ErrCodeInvalidPackage, "package name cannot start with '-': %q", name)
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// npmPackageNameRegex matches valid npm package names.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package names must be lowercase: %q", name)
	}

	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
	}

	return nil
}

// ValidateEventPath validates the path carried by a file-change event.
// Events without a resolvable path are reported as EMPTY_PATH so the caller
// can drop them without touching reconciliation state.
func ValidateEventPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeEmptyPath, "change event has no file path")
	}

	for _, r := range path {
		if r == '\x00' {
			return New(ErrCodeInvalidPath, "path contains a null byte")
		}
	}

	return nil
}
