package discover

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/autoinstall/pkg/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.js":                      "",
		"src/app.tsx":                   "",
		"src/lib/util.ts":               "",
		"src/types.d.ts":                "",
		"src/styles.css":                "",
		"scripts/build.mjs":             "",
		"node_modules/react/index.js":   "",
		"src/node_modules/x/index.js":   "",
		"jspm_packages/a.js":            "",
		"typings/globals.ts":            "",
		"bower_components/jquery/jq.js": "",
		".git/hooks/pre-commit.js":      "",
		"README.md":                     "",
	})

	got, err := Files(root, DefaultPattern, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"index.js", "scripts/build.mjs", "src/app.tsx", "src/lib/util.ts"}
	if r := rels(t, root, got); !reflect.DeepEqual(r, want) {
		t.Errorf("Files = %v, want %v", r, want)
	}
}

func TestFilesPattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.js":  "",
		"src/a.js":  "",
		"src/b.ts":  "",
		"test/a.js": "",
	})

	got, err := Files(root, "src/**/*.js", Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if r := rels(t, root, got); !reflect.DeepEqual(r, []string{"src/a.js"}) {
		t.Errorf("Files = %v", r)
	}
}

func TestFilesGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":     "dist/\n*.gen.js\n",
		"src/a.js":       "",
		"src/a.gen.js":   "",
		"dist/bundle.js": "",
	})

	all, err := Files(root, DefaultPattern, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("without gitignore: %v", rels(t, root, all))
	}

	got, err := Files(root, DefaultPattern, Options{RespectGitignore: true})
	if err != nil {
		t.Fatal(err)
	}
	if r := rels(t, root, got); !reflect.DeepEqual(r, []string{"src/a.js"}) {
		t.Errorf("with gitignore: %v", r)
	}
}

func TestFilesInvalidPattern(t *testing.T) {
	_, err := Files(t.TempDir(), "src/[", Options{})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestMatch(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		path string
		want bool
	}{
		{"index.js", true},
		{"src/app.tsx", true},
		{"src/types.d.ts", false},
		{"src/style.css", false},
		{"node_modules/react/index.js", false},
		{"packages/a/node_modules/b/index.js", false},
		{"typings/x.ts", false},
		{"../outside.js", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path := filepath.Join(root, filepath.FromSlash(tt.path))
			if got := Match(root, DefaultPattern, path, Options{}); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".gitignore": "generated/\n"})

	path := filepath.Join(root, "generated", "api.js")
	if !Match(root, DefaultPattern, path, Options{}) {
		t.Error("path should match when gitignore is off")
	}
	if Match(root, DefaultPattern, path, Options{RespectGitignore: true}) {
		t.Error("gitignored path should not match")
	}
}

func TestSkipDir(t *testing.T) {
	for _, name := range []string{"node_modules", "jspm_packages", "typings", ".git"} {
		if !SkipDir(name) {
			t.Errorf("SkipDir(%q) = false", name)
		}
	}
	if SkipDir("src") {
		t.Error("SkipDir(src) = true")
	}
}
