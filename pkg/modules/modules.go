// Package modules defines the records shared by every stage of the
// reconciliation engine.
//
// A [Module] is one registry package reference: either declared in
// package.json or discovered in a source file. Records are values and are
// never mutated in place; reconciliation moves them between the four
// [Collection]s instead.
package modules

import "fmt"

// Module is a registry package reference.
type Module struct {
	// Name is the registry package identifier, e.g. "lodash" or "@scope/pkg".
	Name string `json:"name"`

	// Dev is true when the module is a development dependency: declared under
	// devDependencies, or discovered only in test files.
	Dev bool `json:"dev"`

	// SourceFile is the absolute path of the file that referenced the module.
	// Empty for records read from the manifest.
	SourceFile string `json:"sourceFile,omitempty"`
}

// String returns the module name with a dev marker.
func (m Module) String() string {
	if m.Dev {
		return m.Name + " (dev)"
	}
	return m.Name
}

// Collection names one of the four reconciliation sets.
type Collection int

const (
	// Installed holds modules declared in the project manifest.
	Installed Collection = iota
	// Used holds modules referenced from at least one scanned source file.
	Used
	// Uninstalled holds modules referenced from source but not declared.
	Uninstalled
	// Unused holds modules declared but not referenced anywhere.
	Unused

	numCollections
)

// NumCollections is the number of distinct collections.
const NumCollections = int(numCollections)

var collectionNames = [numCollections]string{
	Installed:   "installed",
	Used:        "used",
	Uninstalled: "uninstalled",
	Unused:      "unused",
}

// Collections returns every collection in declaration order.
func Collections() []Collection {
	return []Collection{Installed, Used, Uninstalled, Unused}
}

// String returns the lowercase collection name.
func (c Collection) String() string {
	if c.Valid() {
		return collectionNames[c]
	}
	return fmt.Sprintf("collection(%d)", int(c))
}

// Valid reports whether c is one of the four defined collections.
func (c Collection) Valid() bool {
	return c >= Installed && c < numCollections
}

// ParseCollection maps a collection name back to its value.
func ParseCollection(s string) (Collection, bool) {
	for i, name := range collectionNames {
		if name == s {
			return Collection(i), true
		}
	}
	return 0, false
}

// Names returns the module names in order.
func Names(mods []Module) []string {
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name
	}
	return names
}
