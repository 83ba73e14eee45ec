package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/prism/internal/runtime"
	"github.com/jward/prism/internal/store"
	"github.com/jward/prism/scripts"
)

// rustTestEnv wraps the test environment for Rust extraction tests.
type rustTestEnv struct {
	store *store.Store
	rt    *runtime.Runtime
	t     *testing.T
}

func newRustTestEnv(t *testing.T) *rustTestEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })

	rt := runtime.NewRuntime(s, "", runtime.WithRuntimeFS(scripts.FS))
	return &rustTestEnv{store: s, rt: rt, t: t}
}

// extractRustSource writes Rust source to a temp file, inserts a file record,
// and runs the extraction script. Returns the file ID.
func (e *rustTestEnv) extractRustSource(src string) int64 {
	e.t.Helper()

	rsFile := filepath.Join(e.t.TempDir(), "lib.rs")
	require.NoError(e.t, os.WriteFile(rsFile, []byte(src), 0644))

	fileID, err := e.store.InsertFile(&store.File{Path: rsFile, Language: "rust"})
	require.NoError(e.t, err)

	extras := map[string]any{
		"file_path": rsFile,
		"file_id":   fileID,
	}
	err = e.rt.RunScript(context.Background(), runtime.ExtractionScriptPath("rust"), extras)
	require.NoError(e.t, err)
	return fileID
}

func (e *rustTestEnv) symbolsByName(fileID int64) map[string]*store.Symbol {
	e.t.Helper()
	syms, err := e.store.SymbolsByFile(fileID)
	require.NoError(e.t, err)
	out := make(map[string]*store.Symbol, len(syms))
	for _, s := range syms {
		out[s.Name] = s
	}
	return out
}

// =============================================================================
// Items
// =============================================================================

func TestRustExtract_SimpleFunction(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`fn foo() {}`))

	fn := syms["foo"]
	require.NotNil(t, fn, "expected function symbol")
	assert.Equal(t, "function", fn.Kind)
	assert.Equal(t, "private", fn.Visibility)
	assert.Equal(t, 0, fn.StartLine)
}

func TestRustExtract_Visibility(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
fn private_fn() {}
pub fn public_fn() {}
pub(crate) fn crate_fn() {}
pub(super) fn super_fn() {}
`))

	assert.Equal(t, "private", syms["private_fn"].Visibility)
	assert.Equal(t, "public", syms["public_fn"].Visibility)
	assert.Equal(t, "pub(crate)", syms["crate_fn"].Visibility)
	assert.Equal(t, "pub(super)", syms["super_fn"].Visibility)
}

func TestRustExtract_FunctionModifiers(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
pub async fn fetch() {}
const unsafe fn raw() {}
static mut COUNTER: u32 = 0;
`))

	assert.Equal(t, []string{"async"}, syms["fetch"].Modifiers)
	assert.ElementsMatch(t, []string{"const", "unsafe"}, syms["raw"].Modifiers)
	assert.Equal(t, "static", syms["COUNTER"].Kind)
	assert.Equal(t, []string{"mut"}, syms["COUNTER"].Modifiers)
}

func TestRustExtract_StructFieldsAndEnumVariants(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	fileID := env.extractRustSource(`
pub struct Point {
    pub x: f64,
    y: f64,
}

enum Direction {
    Up,
    Down(u8),
}
`)
	syms := env.symbolsByName(fileID)

	point := syms["Point"]
	require.NotNil(t, point)
	assert.Equal(t, "struct", point.Kind)
	fields, err := env.store.SymbolChildren(point.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "field", fields[0].Kind)
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "public", fields[0].Visibility)
	assert.Equal(t, "private", fields[1].Visibility)

	dir := syms["Direction"]
	require.NotNil(t, dir)
	variants, err := env.store.SymbolChildren(dir.ID)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	for _, v := range variants {
		assert.Equal(t, "variant", v.Kind)
	}
}

func TestRustExtract_OtherItems(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
const MAX: usize = 100;
type Id = u64;
union Bits { i: u32, f: f32 }
macro_rules! check { () => {}; }
mod inner {
    pub fn nested() {}
}
`))

	assert.Equal(t, "const", syms["MAX"].Kind)
	assert.Equal(t, "type_alias", syms["Id"].Kind)
	assert.Equal(t, "union", syms["Bits"].Kind)
	assert.Equal(t, "macro", syms["check"].Kind)

	mod := syms["inner"]
	require.NotNil(t, mod)
	assert.Equal(t, "module", mod.Kind)
	nested := syms["nested"]
	require.NotNil(t, nested)
	require.NotNil(t, nested.ParentSymbolID)
	assert.Equal(t, mod.ID, *nested.ParentSymbolID)
}

// =============================================================================
// Impl blocks and parameters
// =============================================================================

func TestRustExtract_ImplMethodsParentedToType(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	// The impl precedes the struct on purpose.
	syms := env.symbolsByName(env.extractRustSource(`
impl Point {
    pub fn new(x: f64, y: f64) -> Self { Point { x, y } }
    pub fn distance(&self) -> f64 { 0.0 }
}

struct Point { x: f64, y: f64 }
`))

	point := syms["Point"]
	require.NotNil(t, point)
	for _, name := range []string{"new", "distance"} {
		fn := syms[name]
		require.NotNil(t, fn, name)
		require.NotNil(t, fn.ParentSymbolID, name)
		assert.Equal(t, point.ID, *fn.ParentSymbolID, name)
	}
	assert.Equal(t, "function", syms["new"].Kind)
	assert.Equal(t, "method", syms["distance"].Kind)
}

func TestRustExtract_ImplOfForeignTypeGetsImplSymbol(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
impl Vec<u8> {
    fn helper(&self) {}
}
`))

	impl := syms["Vec"]
	require.NotNil(t, impl)
	assert.Equal(t, "impl", impl.Kind)
	require.NotNil(t, syms["helper"].ParentSymbolID)
	assert.Equal(t, impl.ID, *syms["helper"].ParentSymbolID)
}

func TestRustExtract_TraitMethods(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
trait Shape {
    fn area(&self) -> f64;
    fn unit() -> Self;
}
`))

	shape := syms["Shape"]
	require.NotNil(t, shape)
	assert.Equal(t, "trait", shape.Kind)
	assert.Equal(t, "method", syms["area"].Kind)
	assert.Equal(t, "function", syms["unit"].Kind)
	assert.Equal(t, shape.ID, *syms["area"].ParentSymbolID)
}

func TestRustExtract_FunctionParams(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
fn check(#[rust_analyzer::rust_fixture] ra_fixture: &str, mut expect: Expect, (a, b): (u8, u8)) {}
`))

	params, err := env.store.FunctionParams(syms["check"].ID)
	require.NoError(t, err)
	require.Len(t, params, 3)

	assert.Equal(t, "ra_fixture", params[0].Name)
	assert.Equal(t, "&str", params[0].TypeExpr)
	assert.Equal(t, 0, params[0].Ordinal)
	assert.Equal(t, "expect", params[1].Name)
	assert.Equal(t, 1, params[1].Ordinal)
	assert.Empty(t, params[2].Name, "destructuring patterns have no name")
	assert.Equal(t, "(u8, u8)", params[2].TypeExpr)
}

func TestRustExtract_SelfParameter(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)
	syms := env.symbolsByName(env.extractRustSource(`
struct Foo {}

impl Foo {
    fn method(&mut self, x: i32) {}
}
`))

	params, err := env.store.FunctionParams(syms["method"].ID)
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "self", params[0].Name)
	assert.Equal(t, "&mut self", params[0].TypeExpr)
	assert.True(t, params[0].IsReceiver)
	assert.Equal(t, 0, params[0].Ordinal)

	assert.Equal(t, "x", params[1].Name)
	assert.Equal(t, "i32", params[1].TypeExpr)
	assert.Equal(t, 1, params[1].Ordinal)
}

func TestRustExtract_BatchedStore(t *testing.T) {
	t.Parallel()
	env := newRustTestEnv(t)

	rsFile := filepath.Join(t.TempDir(), "lib.rs")
	require.NoError(t, os.WriteFile(rsFile, []byte("struct S;\nimpl S { fn go(&self, n: u8) {} }\n"), 0644))
	fileID, err := env.store.InsertFile(&store.File{Path: rsFile, Language: "rust"})
	require.NoError(t, err)

	batch := store.NewBatchedStore(env.store)
	rt := runtime.NewRuntime(batch, "", runtime.WithRuntimeFS(scripts.FS))
	err = rt.RunScript(context.Background(), runtime.ExtractionScriptPath("rust"), map[string]any{
		"file_path": rsFile,
		"file_id":   fileID,
	})
	require.NoError(t, err)
	require.NoError(t, env.store.CommitBatch(batch))

	syms := env.symbolsByName(fileID)
	require.NotNil(t, syms["go"])
	require.NotNil(t, syms["go"].ParentSymbolID)
	assert.Equal(t, syms["S"].ID, *syms["go"].ParentSymbolID)

	params, err := env.store.FunctionParams(syms["go"].ID)
	require.NoError(t, err)
	assert.Len(t, params, 2)
}
