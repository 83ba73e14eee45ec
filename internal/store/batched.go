package store

import "sync"

// BatchedStore is a DataStore that keeps one file's extraction output in
// memory until CommitBatch writes it. Inserted rows get negative
// placeholder IDs (-1, -2, ...) that CommitBatch replaces with real ones.
// Lookups read committed rows from the backing Store.
type BatchedStore struct {
	store *Store

	mu             sync.Mutex
	issued         int64
	Symbols        []Symbol
	FunctionParams []FunctionParam
}

var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore returns an empty batch backed by s.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// placeholder must be called with b.mu held.
func (b *BatchedStore) placeholder() int64 {
	b.issued++
	return -b.issued
}

// InsertSymbol buffers sym and stamps it with a placeholder ID.
func (b *BatchedStore) InsertSymbol(sym *Symbol) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym.ID = b.placeholder()
	b.Symbols = append(b.Symbols, *sym)
	return sym.ID, nil
}

// InsertFunctionParam buffers fp. Its SymbolID may be a placeholder.
func (b *BatchedStore) InsertFunctionParam(fp *FunctionParam) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fp.ID = b.placeholder()
	b.FunctionParams = append(b.FunctionParams, *fp)
	return fp.ID, nil
}

// SymbolsByName only sees committed symbols.
func (b *BatchedStore) SymbolsByName(name string) ([]*Symbol, error) {
	return b.store.SymbolsByName(name)
}

// SymbolsByFile returns the committed symbols of fileID followed by the
// buffered ones.
func (b *BatchedStore) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	syms, err := b.store.SymbolsByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sym := range b.Symbols {
		if sym.FileID != nil && *sym.FileID == fileID {
			syms = append(syms, &sym)
		}
	}
	return syms, nil
}
