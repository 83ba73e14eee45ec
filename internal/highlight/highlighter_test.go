package highlight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jward/prism/internal/syntax"
)

func highlight(t *testing.T, h *Highlighter, src string) []HlRange {
	t.Helper()
	ranges, err := h.Highlight(context.Background(), []byte(src))
	require.NoError(t, err)
	return ranges
}

func TestHighlighter_Keywords(t *testing.T) {
	t.Parallel()
	src := "fn f() { if true { return; } loop { break; } }\n"
	ranges := highlight(t, New(), src)

	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "fn", 0)), H(Keyword))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "if", 0)), H(Keyword, ControlFlow))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "return", 0)), H(Keyword, ControlFlow))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "true", 0)), H(BoolLiteral))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "f", 1)), H(Function, Definition))
}

func TestHighlighter_Items(t *testing.T) {
	t.Parallel()
	src := `pub struct Point { pub x: i32 }
enum Shape { Circle }
const LIMIT: u8 = 3;
impl Point {
    fn new() -> Self { Point { x: 0 } }
    fn len(&self) -> i32 { self.x }
}
`
	ranges := highlight(t, New(), src)

	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Point", 0)), H(Struct, Definition, Public))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "x", 0)), H(Field, Definition, Public))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "i32", 0)), H(BuiltinType))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Shape", 0)), H(Enum, Definition))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Circle", 0)), H(Variant, Definition))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "LIMIT", 0)), H(Const, Definition))
	assert.Contains(t, highlightsAt(ranges, syntax.RangeAt(offsetOf(t, src, "3;", 0).Start, 1)), H(NumericLiteral))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Point", 1)), H(Struct))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "new", 0)), H(Function, Definition, Associated, StaticMod))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Self", 0)), H(SelfType))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "len", 0)), H(Method, Definition, Associated))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "self", 0)), H(SelfKeyword))
}

func TestHighlighter_BindingHashes(t *testing.T) {
	t.Parallel()
	src := "fn f(p: u8) { let a = p; let b = a; let mut a = 2; a += b; }\n"
	ranges := highlight(t, New(), src)

	hashAt := func(needle string, nth int) uint64 {
		t.Helper()
		for _, hl := range ranges {
			if hl.Range == offsetOf(t, src, needle, nth) && hl.BindingHash != nil {
				return *hl.BindingHash
			}
		}
		t.Fatalf("no binding hash for occurrence %d of %q", nth, needle)
		return 0
	}

	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "p", 0)), H(ValueParam, Definition))
	assert.Equal(t, hashAt("p", 0), hashAt("p", 1))

	firstA := offsetOf(t, src, "a", 0)
	assert.Contains(t, highlightsAt(ranges, firstA), H(Local, Definition))
	assert.Equal(t, hashAt("a", 0), hashAt("a", 1), "b = a reads the first a")
	assert.NotEqual(t, hashAt("a", 0), hashAt("a", 2), "shadowing introduces a new binding")
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "a", 2)), H(Local, Definition, Mutable))
	assert.Equal(t, hashAt("a", 2), hashAt("a", 3))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "a", 3)), H(Local, Mutable))
}

func TestHighlighter_UnresolvedAndSyntactic(t *testing.T) {
	t.Parallel()
	src := "fn main() { mystery(); Thing::make(); }\n"

	ranges := highlight(t, New(), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "mystery", 0)), H(UnresolvedReference))

	ranges, err := New().HighlightDocument(context.Background(), src, AnalyzeOptions{SyntacticNameRefs: true})
	require.NoError(t, err)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "mystery", 0)), H(Function))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "Thing", 0)), H(Struct))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "make", 0)), H(Function))
}

func TestHighlighter_Comments(t *testing.T) {
	t.Parallel()
	src := "// plain\n/// doc\nfn f() {}\n"
	ranges := highlight(t, New(WithInjection(false)), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "// plain", 0)), H(Comment))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "/// doc", 0)), H(Comment, Documentation))
}

func TestHighlighter_StringEscapes(t *testing.T) {
	t.Parallel()
	src := "fn f() { let s = \"a\\nb\"; }\n"
	ranges := highlight(t, New(), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, `"a\nb"`, 0)), H(StringLiteral))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, `\n`, 0)), H(EscapeSequence))
}

const fixtureSource = `fn check(ra_fixture: &str) {}

fn main() {
    check(r#"fn foo() {}"#);
}
`

func TestHighlighter_Fixture(t *testing.T) {
	t.Parallel()
	ranges := highlight(t, New(), fixtureSource)

	lit := offsetOf(t, fixtureSource, `r#"fn foo() {}"#`, 0)
	assert.Empty(t, highlightsAt(ranges, lit), "the literal is not highlighted as one string")
	assert.Contains(t, highlightsAt(ranges, syntax.RangeAt(lit.Start, 3)), H(StringLiteral))
	assert.Contains(t, highlightsAt(ranges, syntax.RangeAt(lit.Start+3, 2)), H(Keyword, Injected))
	assert.Contains(t, highlightsAt(ranges, syntax.RangeAt(lit.Start+6, 3)), H(Function, Definition, Injected))
	assert.Contains(t, highlightsAt(ranges, syntax.RangeAt(lit.End-2, 2)), H(StringLiteral))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, fixtureSource, "ra_fixture", 0)), H(ValueParam, Definition))
}

func TestHighlighter_FixtureDisabled(t *testing.T) {
	t.Parallel()
	ranges := highlight(t, New(WithInjection(false)), fixtureSource)
	lit := offsetOf(t, fixtureSource, `r#"fn foo() {}"#`, 0)
	assert.Equal(t, []Highlight{H(StringLiteral)}, highlightsAt(ranges, lit))
}

func TestHighlighter_FixturePrefixOption(t *testing.T) {
	t.Parallel()
	src := "fn run(src_code: &str) {}\nfn main() { run(\"let v = 1;\"); }\n"
	ranges := highlight(t, New(WithFixturePrefix("src_")), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "let", 0)), H(Keyword, Injected))
}

func TestHighlighter_FixtureFromIndex(t *testing.T) {
	t.Parallel()
	src := "fn main() { helper(1, \"fn x() {}\"); }\n"
	idx := &stubIndex{
		symbols: []IndexedSymbol{{ID: 7, Name: "helper", Kind: "function", Path: "src/lib.rs"}},
		params: map[int64][]IndexedParam{7: {
			{Name: "n", Ordinal: 0},
			{Name: "ra_fixture", Ordinal: 1},
		}},
	}
	ranges := highlight(t, New(WithIndex(idx)), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "helper", 0)), H(Function))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "x", 0)), H(Function, Definition, Injected))

	// Standalone documents never consult the index.
	calls := idx.calls
	_, err := New(WithIndex(idx)).HighlightDocument(context.Background(), src, AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, calls, idx.calls)
}

func TestHighlighter_Doctest(t *testing.T) {
	t.Parallel()
	src := "/// ```\n/// let x = 1;\n/// ```\nfn documented() {}\n"
	ranges := highlight(t, New(), src)

	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "let", 0)), H(Keyword, Injected))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "1", 0)), H(NumericLiteral, Injected))

	var x *HlRange
	for i, hl := range ranges {
		if hl.Range == offsetOf(t, src, "x", 0) {
			x = &ranges[i]
		}
	}
	require.NotNil(t, x)
	assert.Equal(t, H(Local, Definition, Injected), x.Highlight)
	assert.NotNil(t, x.BindingHash)

	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "/// ", 1)), H(Comment, Documentation))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "/// let x = 1;", 0)), H(Comment, Documentation))
}

func TestHighlighter_UnitAndTupleStructValues(t *testing.T) {
	t.Parallel()
	src := "struct S;\nstruct T(u8);\nfn f() { let s = S; let t = T(1); }\n"
	ranges := highlight(t, New(), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "S", 1)), H(Struct))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "T", 1)), H(Struct))
}

func TestHighlighter_DoctestUnitStruct(t *testing.T) {
	t.Parallel()
	src := "/// ```\n/// struct S;\n/// let s = S;\n/// ```\nfn f() {}\n"
	ranges := highlight(t, New(), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "S", 1)), H(Struct, Injected))
	assert.NotContains(t, highlightsAt(ranges, offsetOf(t, src, "S", 1)), H(Const, Injected))
}

func TestHighlighter_InnerDoctestAndLinks(t *testing.T) {
	t.Parallel()
	src := "//! Uses [`Widget`].\n//! ```\n//! let w = 2;\n//! ```\n\npub struct Widget;\n"
	ranges := highlight(t, New(), src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "[`Widget`]", 0)), H(Struct, Documentation, Injected, IntraDocLink))
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "w", 0)), H(Local, Definition, Injected))
}

func TestHighlighter_Idempotent(t *testing.T) {
	t.Parallel()
	src := fixtureSource + "/// ```\n/// let y = check(\"\");\n/// ```\nfn other() {}\n"
	h := New()
	assert.Equal(t, highlight(t, h, src), highlight(t, h, src))
}

func TestHighlighter_SortedOutput(t *testing.T) {
	t.Parallel()
	ranges := highlight(t, New(), fixtureSource)
	for i := 1; i < len(ranges); i++ {
		assert.LessOrEqual(t, ranges[i-1].Range.Start, ranges[i].Range.Start)
	}
}

func TestHighlighter_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Highlight(ctx, []byte(fixtureSource))
	require.Error(t, err)
}

type failingIndex struct{}

func (failingIndex) SymbolsByName(context.Context, string) ([]IndexedSymbol, error) {
	return nil, errAnalysis
}

func (failingIndex) FunctionParams(context.Context, int64) ([]IndexedParam, error) {
	return nil, errAnalysis
}

func TestHighlighter_IndexErrorsAreLogged(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	h := New(WithIndex(failingIndex{}), WithLogger(zap.New(core)))

	src := "fn main() { elsewhere(); }\n"
	ranges := highlight(t, h, src)
	assert.Contains(t, highlightsAt(ranges, offsetOf(t, src, "elsewhere", 0)), H(UnresolvedReference))
	assert.NotZero(t, logs.FilterMessage("index lookup failed").Len())
}
