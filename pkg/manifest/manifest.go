// Package manifest reads declared dependencies from package.json.
//
// Only dependency names are consumed; version ranges are ignored. Names from
// dependencies and peerDependencies are runtime dependencies, names from
// devDependencies are dev dependencies.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/modules"
)

// Filename is the manifest file name looked up in the project root.
const Filename = "package.json"

// Path returns the manifest path for a project root.
func Path(root string) string {
	return filepath.Join(root, Filename)
}

// Read returns the modules declared in <root>/package.json.
// A missing or unreadable file yields MANIFEST_READ_ERROR; invalid JSON yields
// MANIFEST_PARSE_ERROR. Callers treat both as "no declared dependencies".
func Read(root string) ([]modules.Module, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestRead, err, "read %s", path)
	}
	return Parse(data, path)
}

// Parse decodes manifest content. path is only used in error messages.
func Parse(data []byte, path string) ([]modules.Module, error) {
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "parse %s", path)
	}
	return pkg.modules(), nil
}

// packageFile holds only the dependency groups, so unrelated fields of any
// shape never fail the decode.
type packageFile struct {
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

func (p packageFile) modules() []modules.Module {
	var out []modules.Module
	out = appendGroup(out, p.Dependencies, false)
	out = appendGroup(out, p.DevDependencies, true)
	out = appendGroup(out, p.PeerDependencies, false)
	return out
}

func appendGroup(out []modules.Module, group map[string]string, dev bool) []modules.Module {
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, modules.Module{Name: name, Dev: dev})
	}
	return out
}
