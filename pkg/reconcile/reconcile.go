// Package reconcile derives the "must install" and "must remove" sets from
// declared and referenced modules.
//
// Every function in this package is pure: no side effects, deterministic for
// a given input, and safe to call from any goroutine.
package reconcile

import (
	"sort"

	"github.com/matzehuels/autoinstall/pkg/modules"
)

// NameSet is a set of module names. A nil NameSet is valid and empty.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Names returns the set of names carried by mods.
func Names(mods []modules.Module) NameSet {
	s := make(NameSet, len(mods))
	for _, m := range mods {
		s[m.Name] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s NameSet) Clone() NameSet {
	out := make(NameSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same names.
func (s NameSet) Equal(other NameSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Uninstalled returns the records of used whose name is not declared in
// installed. Duplicated names keep their first occurrence, in used order.
func Uninstalled(installed, used []modules.Module) []modules.Module {
	return missing(used, Names(installed))
}

// Unused returns the records of installed whose name is not referenced in
// used. Duplicated names keep their first occurrence, in installed order.
func Unused(installed, used []modules.Module) []modules.Module {
	return missing(installed, Names(used))
}

func missing(from []modules.Module, present NameSet) []modules.Module {
	seen := make(NameSet, len(from))
	var out []modules.Module
	for _, m := range from {
		if seen.Has(m.Name) {
			continue
		}
		seen[m.Name] = struct{}{}
		if !present.Has(m.Name) {
			out = append(out, m)
		}
	}
	return out
}

// Diff is the change between two per-file name snapshots.
type Diff struct {
	Add    []string
	Remove []string
}

// Empty reports whether the diff carries no change.
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// DiffFileModules compares the names a file references now (next) with the
// names it referenced before (prev). A nil prev means the file was never seen,
// so every name in next is added. Both result slices are sorted.
func DiffFileModules(next, prev NameSet) Diff {
	d := Diff{Add: []string{}, Remove: []string{}}
	for n := range next {
		if !prev.Has(n) {
			d.Add = append(d.Add, n)
		}
	}
	for n := range prev {
		if !next.Has(n) {
			d.Remove = append(d.Remove, n)
		}
	}
	sort.Strings(d.Add)
	sort.Strings(d.Remove)
	return d
}
