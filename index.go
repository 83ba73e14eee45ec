package prism

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/jward/prism/internal/highlight"
	"github.com/jward/prism/internal/store"
)

// symbolIndex serves the highlighter's cross-file lookups from the store.
// Results are cached until the next indexing run changes the store.
type symbolIndex struct {
	store *store.Store

	byName *lru.Cache[string, []highlight.IndexedSymbol]
	params *lru.Cache[int64, []highlight.IndexedParam]
}

func newSymbolIndex(s *store.Store, size int) (*symbolIndex, error) {
	byName, err := lru.New[string, []highlight.IndexedSymbol](size)
	if err != nil {
		return nil, err
	}
	params, err := lru.New[int64, []highlight.IndexedParam](size)
	if err != nil {
		return nil, err
	}
	return &symbolIndex{store: s, byName: byName, params: params}, nil
}

func (x *symbolIndex) SymbolsByName(ctx context.Context, name string) ([]highlight.IndexedSymbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cached, ok := x.byName.Get(name); ok {
		return cached, nil
	}

	syms, err := x.store.SymbolsByName(name)
	if err != nil {
		return nil, fmt.Errorf("symbols named %q: %w", name, err)
	}
	paths := make(map[int64]string)
	out := make([]highlight.IndexedSymbol, 0, len(syms))
	for _, sym := range syms {
		is := highlight.IndexedSymbol{ID: sym.ID, Name: sym.Name, Kind: sym.Kind}
		if sym.FileID != nil {
			path, ok := paths[*sym.FileID]
			if !ok {
				f, err := x.store.FileByID(*sym.FileID)
				if err != nil {
					return nil, fmt.Errorf("file of symbol %d: %w", sym.ID, err)
				}
				if f != nil {
					path = f.Path
				}
				paths[*sym.FileID] = path
			}
			is.Path = path
		}
		out = append(out, is)
	}
	x.byName.Add(name, out)
	return out, nil
}

func (x *symbolIndex) FunctionParams(ctx context.Context, symbolID int64) ([]highlight.IndexedParam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cached, ok := x.params.Get(symbolID); ok {
		return cached, nil
	}

	params, err := x.store.FunctionParams(symbolID)
	if err != nil {
		return nil, fmt.Errorf("parameters of symbol %d: %w", symbolID, err)
	}
	out := make([]highlight.IndexedParam, 0, len(params))
	for _, p := range params {
		out = append(out, highlight.IndexedParam{
			Name:       p.Name,
			Ordinal:    p.Ordinal,
			IsReceiver: p.IsReceiver,
		})
	}
	x.params.Add(symbolID, out)
	return out, nil
}

// Purge drops every cached lookup.
func (x *symbolIndex) Purge() {
	x.byName.Purge()
	x.params.Purge()
}
