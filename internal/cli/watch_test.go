package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autoinstall/pkg/discover"
)

func newTestWatcher(root string) *watcher {
	return &watcher{
		root:     root,
		pattern:  discover.DefaultPattern,
		debounce: 20 * time.Millisecond,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func TestWatcherClassify(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"package.json", "src/app.js", "README.md", "node_modules/x/index.js"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	w := newTestWatcher(root)

	tests := []struct {
		rel    string
		want   changeKind
		wantOK bool
	}{
		{"package.json", changeManifest, true},
		{"src/app.js", changeEdit, true},
		{"src/gone.js", changeDelete, true},
		{"README.md", 0, false},
		{"src", 0, false},
		{"node_modules/x/index.js", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			ch, ok := w.classify(filepath.Join(root, filepath.FromSlash(tt.rel)))
			if ok != tt.wantOK {
				t.Fatalf("classify ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && ch.kind != tt.want {
				t.Errorf("kind = %s, want %s", ch.kind, tt.want)
			}
		})
	}
}

func TestWatcherRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "index.js")
	if err := os.WriteFile(path, []byte(`import "a"`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []change
	seen := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- newTestWatcher(root).run(ctx, func(ch change) {
			mu.Lock()
			got = append(got, ch)
			mu.Unlock()
			seen <- struct{}{}
		})
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	// A burst of writes collapses into one edit.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`import "b"`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered for write")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered for remove")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("changes = %+v, want edit then delete", got)
	}
	if got[0].kind != changeEdit || got[1].kind != changeDelete {
		t.Errorf("kinds = %s, %s; want edit, delete", got[0].kind, got[1].kind)
	}
	if got[0].path != path {
		t.Errorf("path = %q, want %q", got[0].path, path)
	}
}
