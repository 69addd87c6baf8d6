package reconcile

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/matzehuels/autoinstall/pkg/modules"
)

func mods(names ...string) []modules.Module {
	out := make([]modules.Module, len(names))
	for i, n := range names {
		out[i] = modules.Module{Name: n}
	}
	return out
}

func TestUninstalled(t *testing.T) {
	tests := []struct {
		name      string
		installed []string
		used      []string
		want      []string
	}{
		{"nothing declared", nil, []string{"a", "b"}, []string{"a", "b"}},
		{"all declared", []string{"a", "b"}, []string{"b", "a"}, nil},
		{"partial", []string{"left-pad"}, []string{"right-pad", "left-pad"}, []string{"right-pad"}},
		{"duplicates keep first", nil, []string{"x", "y", "x"}, []string{"x", "y"}},
		{"empty", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := modules.Names(Uninstalled(mods(tt.installed...), mods(tt.used...)))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Uninstalled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUninstalledKeepsFirstRecord(t *testing.T) {
	used := []modules.Module{
		{Name: "jest", Dev: true, SourceFile: "/p/a.test.js"},
		{Name: "jest", Dev: false, SourceFile: "/p/b.js"},
	}
	got := Uninstalled(nil, used)
	if len(got) != 1 || got[0] != used[0] {
		t.Errorf("Uninstalled() = %+v, want first record", got)
	}
}

func TestUnused(t *testing.T) {
	tests := []struct {
		name      string
		installed []string
		used      []string
		want      []string
	}{
		{"nothing used", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"all used", []string{"a"}, []string{"a"}, nil},
		{"partial", []string{"left-pad", "react"}, []string{"react"}, []string{"left-pad"}},
		{"duplicates keep first", []string{"a", "a"}, nil, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := modules.Names(Unused(mods(tt.installed...), mods(tt.used...)))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unused() = %v, want %v", got, tt.want)
			}
		})
	}
}

func randomNames(r *rand.Rand) []string {
	n := r.Intn(8)
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("m%d", r.Intn(10))
	}
	return out
}

func TestDerivedSetProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		installed := mods(randomNames(r)...)
		used := mods(randomNames(r)...)
		inst, use := Names(installed), Names(used)

		for _, m := range Uninstalled(installed, used) {
			if inst.Has(m.Name) {
				t.Fatalf("Uninstalled contains installed name %q (installed=%v used=%v)", m.Name, installed, used)
			}
			if !use.Has(m.Name) {
				t.Fatalf("Uninstalled contains unknown name %q", m.Name)
			}
		}
		for _, m := range Unused(installed, used) {
			if use.Has(m.Name) {
				t.Fatalf("Unused contains used name %q (installed=%v used=%v)", m.Name, installed, used)
			}
			if !inst.Has(m.Name) {
				t.Fatalf("Unused contains undeclared name %q", m.Name)
			}
		}
	}
}

func TestDiffFileModules(t *testing.T) {
	tests := []struct {
		name       string
		next, prev NameSet
		wantAdd    []string
		wantRemove []string
	}{
		{"unseen file", NewNameSet("b", "a"), nil, []string{"a", "b"}, []string{}},
		{"unchanged", NewNameSet("a", "b"), NewNameSet("a", "b"), []string{}, []string{}},
		{"edit", NewNameSet("b", "c"), NewNameSet("a", "b"), []string{"c"}, []string{"a"}},
		{"cleared", NewNameSet(), NewNameSet("a"), []string{}, []string{"a"}},
		{"both empty", nil, nil, []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DiffFileModules(tt.next, tt.prev)
			if !reflect.DeepEqual(d.Add, tt.wantAdd) {
				t.Errorf("Add = %v, want %v", d.Add, tt.wantAdd)
			}
			if !reflect.DeepEqual(d.Remove, tt.wantRemove) {
				t.Errorf("Remove = %v, want %v", d.Remove, tt.wantRemove)
			}
		})
	}
}

func TestDiffFileModulesIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s := NewNameSet(randomNames(r)...)
		if d := DiffFileModules(s, s); !d.Empty() {
			t.Fatalf("DiffFileModules(S, S) = %+v, want empty", d)
		}
		d := DiffFileModules(s, nil)
		if !reflect.DeepEqual(d.Add, s.Sorted()) || len(d.Remove) != 0 {
			t.Fatalf("DiffFileModules(S, nil) = %+v, want add=%v", d, s.Sorted())
		}
	}
}

func TestNameSet(t *testing.T) {
	s := NewNameSet("b", "a", "b")
	if len(s) != 2 || !s.Has("a") || s.Has("c") {
		t.Errorf("unexpected set %v", s)
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Sorted() = %v", got)
	}
	c := s.Clone()
	c["z"] = struct{}{}
	if s.Has("z") {
		t.Error("Clone shares storage")
	}
	if !s.Equal(NewNameSet("a", "b")) || s.Equal(c) {
		t.Error("Equal mismatch")
	}
	var empty NameSet
	if empty.Has("a") || len(empty.Sorted()) != 0 {
		t.Error("nil set should be empty")
	}
}
