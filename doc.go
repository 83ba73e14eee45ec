// Package prism provides semantic syntax highlighting for Rust built on
// tree-sitter, with recursive highlighting of code embedded in string
// literals and documentation.
//
// # Pipeline
//
// Prism operates in two phases:
//
//  1. Index: For each source file, parse with tree-sitter, run the Rust
//     Risor extraction script, and write symbols and function parameters to
//     SQLite.
//
//  2. Highlight: Walk a document's syntax tree and classify every token.
//     String literals passed to fixture parameters (by default, parameters
//     whose name starts with "ra_fixture") are highlighted as Rust documents
//     of their own, and so are the Rust code blocks of doc comments. The
//     nested results are mapped back onto the original document.
//
// # Usage
//
//	e, err := prism.New(".prism/index.db", "")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/crate")
//	ranges, err := e.Highlight(ctx, "path/to/crate/src/lib.rs")
//
// Indexing lets the highlighter find fixture parameters of functions
// declared in other files. Without an index, only functions the document
// declares itself are consulted.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] detects unchanged files via content hashing and skips
// them. [Engine.ScriptsChanged] reports whether the extraction scripts
// differ from the ones that built the database.
//
// # Scripts
//
// Extraction logic lives in Risor scripts under scripts/extract/. They are
// embedded in the binary; [New] loads them from disk instead when given a
// scripts directory. See the internal/runtime package for the globals
// exposed to scripts.
package prism
