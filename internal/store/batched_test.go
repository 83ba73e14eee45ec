package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_SymbolsByFile_ReturnsBufferedSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// Insert a real file into the database (simulates the prepare phase).
	f := insertTestFile(t, s, "/lib.rs")

	batch := NewBatchedStore(s)

	id1, err := batch.InsertSymbol(&Symbol{FileID: &f.ID, Name: "check", Kind: "function"})
	require.NoError(t, err)
	assert.Negative(t, id1, "batched IDs should be negative")

	id2, err := batch.InsertSymbol(&Symbol{FileID: &f.ID, Name: "Fixture", Kind: "struct"})
	require.NoError(t, err)
	assert.Negative(t, id2)

	syms, err := batch.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)

	names := []string{syms[0].Name, syms[1].Name}
	assert.Contains(t, names, "check")
	assert.Contains(t, names, "Fixture")

	for _, sym := range syms {
		assert.Negative(t, sym.ID, "buffered symbols should have negative IDs")
	}
}

func TestBatchedStore_SymbolsByFile_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/lib.rs")

	insertTestSymbol(t, s, &f.ID, "Existing", "function")

	batch := NewBatchedStore(s)
	_, err := batch.InsertSymbol(&Symbol{FileID: &f.ID, Name: "New", Kind: "struct"})
	require.NoError(t, err)

	syms, err := batch.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)

	names := []string{syms[0].Name, syms[1].Name}
	assert.Contains(t, names, "Existing")
	assert.Contains(t, names, "New")
}

func TestBatchedStore_SymbolsByFile_DoesNotReturnOtherFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f1 := insertTestFile(t, s, "/a.rs")
	f2 := insertTestFile(t, s, "/b.rs")

	batch := NewBatchedStore(s)
	_, err := batch.InsertSymbol(&Symbol{FileID: &f1.ID, Name: "InFileA", Kind: "function"})
	require.NoError(t, err)
	_, err = batch.InsertSymbol(&Symbol{FileID: &f2.ID, Name: "InFileB", Kind: "function"})
	require.NoError(t, err)

	syms, err := batch.SymbolsByFile(f1.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "InFileA", syms[0].Name)
}

func TestCommitBatch_RemapsFakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/lib.rs")

	batch := NewBatchedStore(s)
	implID, err := batch.InsertSymbol(&Symbol{FileID: &f.ID, Name: "Parser", Kind: "impl"})
	require.NoError(t, err)
	fnID, err := batch.InsertSymbol(&Symbol{FileID: &f.ID, Name: "check", Kind: "method", ParentSymbolID: ptr(implID)})
	require.NoError(t, err)
	_, err = batch.InsertFunctionParam(&FunctionParam{SymbolID: fnID, Name: "ra_fixture", Ordinal: 0, TypeExpr: "&str"})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	syms, err := s.SymbolsByName("check")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	fn := syms[0]
	assert.Positive(t, fn.ID)
	require.NotNil(t, fn.ParentSymbolID)
	assert.Positive(t, *fn.ParentSymbolID)

	parent, err := s.SymbolByID(*fn.ParentSymbolID)
	require.NoError(t, err)
	assert.Equal(t, "Parser", parent.Name)

	params, err := s.FunctionParams(fn.ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "ra_fixture", params[0].Name)
}

func TestCommitBatch_UnknownParentFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := NewBatchedStore(s)
	batch.Symbols = append(batch.Symbols, Symbol{ID: -5, Name: "orphan", Kind: "function", ParentSymbolID: ptr(int64(-99))})

	err := s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parent")

	syms, err := s.SymbolsByName("orphan")
	require.NoError(t, err)
	assert.Empty(t, syms, "failed batch must roll back")
}
