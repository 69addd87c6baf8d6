// Package store holds the reconciliation state of one project.
//
// A [Store] owns the four module collections and the per-file map from source
// path to referenced module names. Create one per project root when the
// project is opened and drop it when the project is closed; nothing is
// persisted.
//
// Each method is atomic on its own. Sequences of calls made by concurrent
// planner batches may interleave, and the last writer wins: a later full scan
// restores a consistent view.
package store

import (
	"sort"
	"sync"

	"github.com/matzehuels/autoinstall/pkg/classify"
	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/reconcile"
)

// State is a point-in-time copy of the four collections.
type State struct {
	Installed   []modules.Module `json:"installed"`
	Used        []modules.Module `json:"used"`
	Uninstalled []modules.Module `json:"uninstalled"`
	Unused      []modules.Module `json:"unused"`
}

// Get returns the slice for collection c.
func (s State) Get(c modules.Collection) []modules.Module {
	switch c {
	case modules.Installed:
		return s.Installed
	case modules.Used:
		return s.Used
	case modules.Uninstalled:
		return s.Uninstalled
	case modules.Unused:
		return s.Unused
	}
	return nil
}

// Store is the reconciliation state of one project root.
type Store struct {
	root string

	mu    sync.Mutex
	sets  [modules.NumCollections][]modules.Module
	files map[string]reconcile.NameSet
}

// New creates an empty store for the project at root.
func New(root string) *Store {
	return &Store{
		root:  root,
		files: make(map[string]reconcile.NameSet),
	}
}

// Root returns the project root the store belongs to.
func (s *Store) Root() string { return s.root }

// ReplaceAll replaces the installed and used collections, re-derives the
// uninstalled and unused collections, and rebuilds the per-file map from the
// SourceFile of every used record. Used records are merged per name: the
// first record keeps its attribution and Dev holds only when every record of
// the name is Dev.
func (s *Store) ReplaceAll(installed, used []modules.Module) {
	files := make(map[string]reconcile.NameSet)
	for _, m := range used {
		if m.SourceFile == "" {
			continue
		}
		set, ok := files[m.SourceFile]
		if !ok {
			set = make(reconcile.NameSet)
			files[m.SourceFile] = set
		}
		set[m.Name] = struct{}{}
	}

	used = mergeUsed(used)
	uninstalled := reconcile.Uninstalled(installed, used)
	unused := reconcile.Unused(installed, used)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[modules.Installed] = dedup(installed)
	s.sets[modules.Used] = used
	s.sets[modules.Uninstalled] = uninstalled
	s.sets[modules.Unused] = unused
	s.files = files
}

// ApplyFileEdit records that path now references names. Names the file did
// not reference before are queued in Uninstalled; names it no longer
// references are queued in Unused. The diff is returned.
//
// Added names go to Uninstalled without checking Installed. The install step
// or the next full scan settles names that turn out to be declared already.
func (s *Store) ApplyFileEdit(path string, names reconcile.NameSet, dev bool) reconcile.Diff {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := reconcile.DiffFileModules(names, s.files[path])
	s.files[path] = names.Clone()

	for _, name := range d.Add {
		s.addLocked(modules.Uninstalled, modules.Module{Name: name, Dev: dev, SourceFile: path})
	}
	for _, name := range d.Remove {
		s.addLocked(modules.Unused, modules.Module{Name: name, Dev: dev, SourceFile: path})
	}
	return d
}

// ApplyFileDelete purges every name/path pair attributed to path from all
// four collections and forgets the file. The purged names are returned in
// sorted order. Records attributed to other files are untouched.
func (s *Store) ApplyFileDelete(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, ok := s.files[path]
	if !ok {
		return nil
	}
	delete(s.files, path)
	for name := range names {
		for _, c := range modules.Collections() {
			s.deleteLocked(c, name, path)
		}
		s.reattributeLocked(name)
	}
	return names.Sorted()
}

// reattributeLocked keeps name in Used when another tracked file still
// references it. Used holds one record per name, so the purged record may
// have been the only one standing in for several files. The new record is
// Dev only when every remaining file is a test file.
func (s *Store) reattributeLocked(name string) {
	if indexOf(s.sets[modules.Used], name) >= 0 {
		return
	}
	owner, dev := "", true
	for _, p := range sortedKeys(s.files) {
		if !s.files[p].Has(name) {
			continue
		}
		if owner == "" {
			owner = p
		}
		dev = dev && classify.IsTestFile(p)
	}
	if owner != "" {
		s.addLocked(modules.Used, modules.Module{Name: name, Dev: dev, SourceFile: owner})
	}
}

// Add appends m to collection c unless a record with the same name is
// already there. It reports whether m was added.
func (s *Store) Add(c modules.Collection, m modules.Module) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(c, m)
}

// Delete removes every record named name from collection c. When path is
// non-empty only records attributed to that file are removed. It returns the
// number of records removed.
func (s *Store) Delete(c modules.Collection, name, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(c, name, path)
}

// Has reports whether collection c holds a record named name.
func (s *Store) Has(c modules.Collection, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.sets[c], name) >= 0
}

// Modules returns a copy of collection c.
func (s *Store) Modules(c modules.Collection) []modules.Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.sets[c])
}

// Snapshot returns a copy of all four collections.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Installed:   clone(s.sets[modules.Installed]),
		Used:        clone(s.sets[modules.Used]),
		Uninstalled: clone(s.sets[modules.Uninstalled]),
		Unused:      clone(s.sets[modules.Unused]),
	}
}

// FileModules returns the names recorded for path.
func (s *Store) FileModules(path string) (reconcile.NameSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.files[path]
	if !ok {
		return nil, false
	}
	return names.Clone(), true
}

// Files returns every tracked file path in sorted order.
func (s *Store) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.files)
}

func sortedKeys(files map[string]reconcile.NameSet) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Store) addLocked(c modules.Collection, m modules.Module) bool {
	if indexOf(s.sets[c], m.Name) >= 0 {
		return false
	}
	s.sets[c] = append(s.sets[c], m)
	return true
}

func (s *Store) deleteLocked(c modules.Collection, name, path string) int {
	mods := s.sets[c]
	kept := mods[:0:0]
	for _, m := range mods {
		if m.Name == name && (path == "" || m.SourceFile == path) {
			continue
		}
		kept = append(kept, m)
	}
	removed := len(mods) - len(kept)
	if removed > 0 {
		s.sets[c] = kept
	}
	return removed
}

func indexOf(mods []modules.Module, name string) int {
	for i, m := range mods {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func dedup(mods []modules.Module) []modules.Module {
	seen := make(reconcile.NameSet, len(mods))
	out := make([]modules.Module, 0, len(mods))
	for _, m := range mods {
		if seen.Has(m.Name) {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, m)
	}
	return out
}

// mergeUsed folds used to one record per name, in first-occurrence order.
func mergeUsed(used []modules.Module) []modules.Module {
	index := make(map[string]int, len(used))
	out := make([]modules.Module, 0, len(used))
	for _, m := range used {
		if i, ok := index[m.Name]; ok {
			out[i].Dev = out[i].Dev && m.Dev
			continue
		}
		index[m.Name] = len(out)
		out = append(out, m)
	}
	return out
}

func clone(mods []modules.Module) []modules.Module {
	if len(mods) == 0 {
		return nil
	}
	out := make([]modules.Module, len(mods))
	copy(out, mods)
	return out
}
