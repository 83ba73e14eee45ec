package highlight

import (
	"context"
	"errors"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"github.com/jward/prism/internal/syntax"
)

func parseRust(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

// findNode returns the first node of the given type in document order.
func findNode(n *sitter.Node, typ string) *sitter.Node {
	if n.Type() == typ {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := findNode(n.Child(i), typ); found != nil {
			return found
		}
	}
	return nil
}

// mustFind is findNode that fails the test when nothing matches.
func mustFind(t *testing.T, tree *syntax.Tree, typ string) *sitter.Node {
	t.Helper()
	n := findNode(tree.Root(), typ)
	require.NotNil(t, n, "no %s node", typ)
	return n
}

// offsetOf returns the range of the nth (0-based) occurrence of needle.
func offsetOf(t *testing.T, src, needle string, nth int) syntax.TextRange {
	t.Helper()
	from := 0
	for i := 0; ; i++ {
		idx := strings.Index(src[from:], needle)
		require.GreaterOrEqual(t, idx, 0, "occurrence %d of %q not found", nth, needle)
		if i == nth {
			return syntax.RangeAt(uint32(from+idx), uint32(len(needle)))
		}
		from += idx + len(needle)
	}
}

// highlightsAt returns every highlight emitted for exactly r.
func highlightsAt(ranges []HlRange, r syntax.TextRange) []Highlight {
	var out []Highlight
	for _, hl := range ranges {
		if hl.Range == r {
			out = append(out, hl.Highlight)
		}
	}
	return out
}

// recordingAnalyzer records the documents it is asked to highlight and
// answers with a fixed result.
type recordingAnalyzer struct {
	texts  []string
	opts   []AnalyzeOptions
	result []HlRange
	err    error
}

func (a *recordingAnalyzer) HighlightDocument(_ context.Context, text string, opts AnalyzeOptions) ([]HlRange, error) {
	a.texts = append(a.texts, text)
	a.opts = append(a.opts, opts)
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

var errAnalysis = errors.New("analysis exploded")

// fixedParam binds every argument to the same parameter.
type fixedParam string

func (p fixedParam) At(context.Context, *sitter.Node) (ParamBinding, bool) {
	if p == "" {
		return ParamBinding{}, false
	}
	return ParamBinding{Name: string(p), Callee: "check"}, true
}

// stubIndex is an in-memory SymbolIndex.
type stubIndex struct {
	symbols []IndexedSymbol
	params  map[int64][]IndexedParam
	calls   int
}

func (s *stubIndex) SymbolsByName(_ context.Context, name string) ([]IndexedSymbol, error) {
	s.calls++
	var out []IndexedSymbol
	for _, sym := range s.symbols {
		if sym.Name == name {
			out = append(out, sym)
		}
	}
	return out, nil
}

func (s *stubIndex) FunctionParams(_ context.Context, id int64) ([]IndexedParam, error) {
	return s.params[id], nil
}
