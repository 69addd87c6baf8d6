package store

import (
	"reflect"
	"sync"
	"testing"

	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/reconcile"
)

func names(mods []modules.Module) []string {
	if len(mods) == 0 {
		return nil
	}
	return modules.Names(mods)
}

func assertNames(t *testing.T, label string, got []modules.Module, want ...string) {
	t.Helper()
	if len(want) == 0 {
		want = nil
	}
	if g := names(got); !reflect.DeepEqual(g, want) {
		t.Errorf("%s = %v, want %v", label, g, want)
	}
}

func TestReplaceAllScenario(t *testing.T) {
	s := New("/app")
	s.ReplaceAll(
		[]modules.Module{{Name: "left-pad"}},
		[]modules.Module{{Name: "right-pad", SourceFile: "/app/index.js"}},
	)

	st := s.Snapshot()
	assertNames(t, "installed", st.Installed, "left-pad")
	assertNames(t, "used", st.Used, "right-pad")
	assertNames(t, "uninstalled", st.Uninstalled, "right-pad")
	assertNames(t, "unused", st.Unused, "left-pad")

	got, ok := s.FileModules("/app/index.js")
	if !ok || !got.Equal(reconcile.NewNameSet("right-pad")) {
		t.Errorf("FileModules = %v, %v", got, ok)
	}
}

func TestReplaceAllIdempotent(t *testing.T) {
	installed := []modules.Module{{Name: "a"}, {Name: "b", Dev: true}}
	used := []modules.Module{
		{Name: "b", SourceFile: "/p/x.js"},
		{Name: "c", SourceFile: "/p/x.js"},
		{Name: "c", SourceFile: "/p/y.js"},
	}

	s := New("/p")
	s.ReplaceAll(installed, used)
	first := s.Snapshot()
	s.ReplaceAll(installed, used)
	second := s.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("ReplaceAll not idempotent:\n%+v\n%+v", first, second)
	}
	assertNames(t, "used", second.Used, "b", "c")
	if got := s.Files(); !reflect.DeepEqual(got, []string{"/p/x.js", "/p/y.js"}) {
		t.Errorf("Files() = %v", got)
	}
}

func TestAddFirstWriteWins(t *testing.T) {
	s := New("/p")
	if !s.Add(modules.Installed, modules.Module{Name: "a", SourceFile: "/p/1.js"}) {
		t.Fatal("first Add should succeed")
	}
	if s.Add(modules.Installed, modules.Module{Name: "a", SourceFile: "/p/2.js"}) {
		t.Fatal("second Add should be a no-op")
	}
	got := s.Modules(modules.Installed)
	if len(got) != 1 || got[0].SourceFile != "/p/1.js" {
		t.Errorf("Installed = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	s := New("/p")
	s.Add(modules.Unused, modules.Module{Name: "a", SourceFile: "/p/1.js"})
	s.Add(modules.Unused, modules.Module{Name: "b", SourceFile: "/p/1.js"})

	if n := s.Delete(modules.Unused, "a", "/p/other.js"); n != 0 {
		t.Errorf("Delete with other path removed %d", n)
	}
	if n := s.Delete(modules.Unused, "a", "/p/1.js"); n != 1 {
		t.Errorf("Delete with path removed %d", n)
	}
	if n := s.Delete(modules.Unused, "b", ""); n != 1 {
		t.Errorf("Delete without path removed %d", n)
	}
	if s.Has(modules.Unused, "a") || s.Has(modules.Unused, "b") {
		t.Error("records should be gone")
	}
}

func TestApplyFileEdit(t *testing.T) {
	s := New("/p")
	s.ReplaceAll(nil, []modules.Module{
		{Name: "a", SourceFile: "/p/f.js"},
		{Name: "b", SourceFile: "/p/f.js"},
	})

	d := s.ApplyFileEdit("/p/f.js", reconcile.NewNameSet("b", "c"), false)
	if !reflect.DeepEqual(d.Add, []string{"c"}) || !reflect.DeepEqual(d.Remove, []string{"a"}) {
		t.Errorf("diff = %+v, want add=[c] remove=[a]", d)
	}

	got, _ := s.FileModules("/p/f.js")
	if !got.Equal(reconcile.NewNameSet("b", "c")) {
		t.Errorf("FileModuleMap[f] = %v, want {b,c}", got.Sorted())
	}
	if !s.Has(modules.Uninstalled, "c") {
		t.Error("c should be queued in uninstalled")
	}
	if !s.Has(modules.Unused, "a") {
		t.Error("a should be queued in unused")
	}
}

func TestApplyFileEditUnseenFile(t *testing.T) {
	s := New("/p")
	s.ReplaceAll([]modules.Module{{Name: "react"}}, nil)

	d := s.ApplyFileEdit("/p/new.test.js", reconcile.NewNameSet("react", "jest"), true)
	if !reflect.DeepEqual(d.Add, []string{"jest", "react"}) || len(d.Remove) != 0 {
		t.Errorf("diff = %+v", d)
	}
	// Added names are queued even when already declared.
	if !s.Has(modules.Uninstalled, "react") {
		t.Error("react should be queued in uninstalled")
	}
	for _, m := range s.Modules(modules.Uninstalled) {
		if !m.Dev || m.SourceFile != "/p/new.test.js" {
			t.Errorf("record %+v should be dev and attributed", m)
		}
	}
}

func TestApplyFileDelete(t *testing.T) {
	s := New("/p")
	s.ReplaceAll(
		[]modules.Module{{Name: "shared"}},
		[]modules.Module{
			{Name: "only-a", SourceFile: "/p/a.js"},
			{Name: "shared", SourceFile: "/p/a.js"},
			{Name: "only-b", SourceFile: "/p/b.js"},
			{Name: "shared", SourceFile: "/p/b.js"},
		},
	)
	s.Add(modules.Unused, modules.Module{Name: "only-b", SourceFile: "/p/b.js"})

	purged := s.ApplyFileDelete("/p/a.js")
	if !reflect.DeepEqual(purged, []string{"only-a", "shared"}) {
		t.Errorf("purged = %v", purged)
	}

	st := s.Snapshot()
	for _, c := range modules.Collections() {
		for _, m := range st.Get(c) {
			if m.SourceFile == "/p/a.js" {
				t.Errorf("%s still holds %+v", c, m)
			}
		}
	}
	if _, ok := s.FileModules("/p/a.js"); ok {
		t.Error("file map entry should be gone")
	}

	// b.js keeps its attributions; shared is still referenced by b.js.
	if !s.Has(modules.Used, "only-b") || !s.Has(modules.Unused, "only-b") {
		t.Error("b.js attributions were affected")
	}
	if !s.Has(modules.Used, "shared") {
		t.Error("shared should stay used through b.js")
	}
	if !s.Has(modules.Installed, "shared") {
		t.Error("manifest records carry no path and must survive")
	}
}

func TestApplyFileDeleteUnknown(t *testing.T) {
	s := New("/p")
	if got := s.ApplyFileDelete("/p/missing.js"); got != nil {
		t.Errorf("ApplyFileDelete(unknown) = %v", got)
	}
}

func TestConcurrentMutation(t *testing.T) {
	s := New("/p")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := modules.Module{Name: "m"}
			s.Add(modules.Installed, m)
			s.Add(modules.Used, m)
			s.Delete(modules.Uninstalled, "m", "")
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()
	if got := s.Modules(modules.Installed); len(got) != 1 {
		t.Errorf("Installed = %v, want one record", got)
	}
}

func TestStateGet(t *testing.T) {
	st := State{Unused: []modules.Module{{Name: "x"}}}
	if len(st.Get(modules.Unused)) != 1 || st.Get(modules.Collection(42)) != nil {
		t.Error("State.Get mismatch")
	}
}

func TestReplaceAllMergesDev(t *testing.T) {
	s := New("/p")
	s.ReplaceAll(nil, []modules.Module{
		{Name: "lodash", Dev: true, SourceFile: "/p/a.test.js"},
		{Name: "lodash", Dev: false, SourceFile: "/p/b.js"},
		{Name: "vitest", Dev: true, SourceFile: "/p/a.test.js"},
		{Name: "vitest", Dev: true, SourceFile: "/p/c.spec.js"},
	})

	for _, c := range []modules.Collection{modules.Used, modules.Uninstalled} {
		want := map[string]bool{"lodash": false, "vitest": true}
		got := s.Modules(c)
		if len(got) != len(want) {
			t.Fatalf("%s = %+v, want one record per name", c, got)
		}
		for _, m := range got {
			if m.Dev != want[m.Name] {
				t.Errorf("%s %s Dev = %v, want %v", c, m.Name, m.Dev, want[m.Name])
			}
		}
	}

	// Both files stay tracked for lodash.
	for _, p := range []string{"/p/a.test.js", "/p/b.js"} {
		if set, _ := s.FileModules(p); !set.Has("lodash") {
			t.Errorf("%s should reference lodash", p)
		}
	}
}

func TestApplyFileDeleteReattributesDev(t *testing.T) {
	tests := []struct {
		name    string
		deleted string
		want    string
		wantDev bool
	}{
		{"production file remains", "/p/a.test.js", "/p/c.js", false},
		{"only test files remain", "/p/c.js", "/p/a.test.js", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("/p")
			s.ReplaceAll(nil, []modules.Module{
				{Name: "lodash", Dev: true, SourceFile: "/p/a.test.js"},
				{Name: "lodash", Dev: true, SourceFile: "/p/b.spec.js"},
				{Name: "lodash", SourceFile: "/p/c.js"},
			})
			// Make the deleted file the attributed owner.
			s.Delete(modules.Used, "lodash", "")
			s.Add(modules.Used, modules.Module{Name: "lodash", Dev: tt.deleted != "/p/c.js", SourceFile: tt.deleted})

			s.ApplyFileDelete(tt.deleted)

			used := s.Modules(modules.Used)
			if len(used) != 1 {
				t.Fatalf("used = %+v, want one lodash record", used)
			}
			if used[0].SourceFile != tt.want || used[0].Dev != tt.wantDev {
				t.Errorf("used = %+v, want SourceFile %s Dev %v", used[0], tt.want, tt.wantDev)
			}
		})
	}
}
