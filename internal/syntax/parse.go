package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is a parsed Rust document together with the source it was parsed from.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
}

// Parse parses src as Rust. The caller must Close the returned Tree.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	lang, ok := ParserForLanguage("rust")
	if !ok {
		return nil, fmt.Errorf("syntax: rust grammar not registered")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}
	return &Tree{tree: tree, Source: src}, nil
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// Root returns the source_file node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.Source)
}

// NodeRange returns the byte range covered by n.
func NodeRange(n *sitter.Node) TextRange {
	return TextRange{Start: n.StartByte(), End: n.EndByte()}
}

// SameNode reports whether a and b denote the same syntax node. Distinct
// *sitter.Node values may wrap the same node.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
