package source

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar is a tree-sitter language tried when parsing a file.
type Grammar struct {
	Name string
	lang *sitter.Language
}

var (
	grammarJS  = &Grammar{Name: "javascript", lang: javascript.GetLanguage()}
	grammarTS  = &Grammar{Name: "typescript", lang: typescript.GetLanguage()}
	grammarTSX = &Grammar{Name: "tsx", lang: tsx.GetLanguage()}
)

// GrammarsFor returns the grammars to try for path, in order. Plain
// JavaScript falls back to tsx, which also accepts type annotations and JSX.
func GrammarsFor(path string) []*Grammar {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return []*Grammar{grammarTS}
	case ".tsx":
		return []*Grammar{grammarTSX}
	default:
		return []*Grammar{grammarJS, grammarTSX}
	}
}

// Extensions lists the file extensions the parser understands.
func Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
}
