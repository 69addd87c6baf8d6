// Package source extracts import specifiers from JavaScript and TypeScript
// files using tree-sitter.
//
// Recognised forms:
//
//	import x from 'a'
//	import 'a'
//	import x = require('a')   // TypeScript
//	export { y } from 'a'
//	export * from 'a'
//
// With [WithCommonJS], literal require('a') calls and literal dynamic
// import('a') expressions are extracted as well. Arguments that are not
// string literals carry no specifier and are skipped.
package source

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/matzehuels/autoinstall/pkg/errors"
)

// Parser extracts specifiers from source text. A Parser holds no tree-sitter
// state and is safe for concurrent use; each call builds its own parser.
type Parser struct {
	commonJS bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithCommonJS enables extraction of require() calls and literal dynamic
// import() expressions.
func WithCommonJS(enabled bool) Option {
	return func(p *Parser) { p.commonJS = enabled }
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CommonJS reports whether require() detection is enabled.
func (p *Parser) CommonJS() bool { return p.commonJS }

// ParseImports returns the raw specifiers referenced by src, in source order.
// path selects the grammar and is used in error messages. A file with a
// syntax error under every candidate grammar yields a PARSE_ERROR.
func (p *Parser) ParseImports(ctx context.Context, src []byte, path string) ([]string, error) {
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, nil
	}

	var lastErr error
	for _, g := range GrammarsFor(path) {
		specs, err := p.parseWith(ctx, g, src, path)
		if err == nil {
			return specs, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (p *Parser) parseWith(ctx context.Context, g *Grammar, src []byte, path string) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s as %s", path, g.Name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.New(errors.ErrCodeParse, "could not parse %s as %s: syntax error", path, g.Name)
	}
	return p.extract(root, src), nil
}

func (p *Parser) extract(root *sitter.Node, src []byte) []string {
	var specs []string

	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}

		switch n.Type() {
		case "import_statement", "export_statement":
			if s, ok := statementSource(n, src); ok {
				specs = append(specs, s)
			}
		case "call_expression":
			if !p.commonJS {
				continue
			}
			if s, ok := callSource(n, src); ok {
				specs = append(specs, s)
			}
		}
	}
	return specs
}

// statementSource returns the module an import/export statement reads from.
// Only the source field counts, so exports without a from clause, such as
// export default 'x', have no source. TypeScript's import x = require('y')
// carries its module in an import_require_clause.
func statementSource(n *sitter.Node, src []byte) (string, bool) {
	if s := n.ChildByFieldName("source"); s != nil {
		return stringLiteral(s, src)
	}
	if n.Type() != "import_statement" {
		return "", false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "import_require_clause" {
			continue
		}
		if s := child.ChildByFieldName("source"); s != nil {
			return stringLiteral(s, src)
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if c := child.NamedChild(j); c.Type() == "string" {
				return stringLiteral(c, src)
			}
		}
	}
	return "", false
}

// callSource handles require('x') and import('x').
func callSource(n *sitter.Node, src []byte) (string, bool) {
	callee := n.ChildByFieldName("function")
	if callee == nil {
		callee = n.Child(0)
	}
	if callee == nil {
		return "", false
	}
	switch {
	case callee.Type() == "import":
	case callee.Type() == "identifier" && callee.Content(src) == "require":
	default:
		return "", false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	return stringLiteral(args.NamedChild(0), src)
}

func stringLiteral(n *sitter.Node, src []byte) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	s := strings.Trim(n.Content(src), "\"'")
	if s == "" {
		return "", false
	}
	return s, true
}
