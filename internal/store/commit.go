package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch writes a batch in one transaction, replacing placeholder IDs
// with the IDs SQLite assigns. Symbols go first, in insertion order, so a
// parent is always written before its children. A placeholder that the
// batch never issued fails the commit.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	return s.withTx(func(tx *sql.Tx) error {
		ids := make(map[int64]int64, len(batch.Symbols))
		resolve := func(id int64) (int64, bool) {
			if id >= 0 {
				return id, true
			}
			mapped, ok := ids[id]
			return mapped, ok
		}

		for _, sym := range batch.Symbols {
			if sym.ParentSymbolID != nil {
				parent, ok := resolve(*sym.ParentSymbolID)
				if !ok {
					return fmt.Errorf("commit batch: symbol %q has unknown parent %d", sym.Name, *sym.ParentSymbolID)
				}
				sym.ParentSymbolID = &parent
			}
			placeholder := sym.ID
			id, err := insertSymbol(tx, &sym)
			if err != nil {
				return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
			}
			ids[placeholder] = id
		}

		for _, fp := range batch.FunctionParams {
			symbolID, ok := resolve(fp.SymbolID)
			if !ok {
				return fmt.Errorf("commit batch: param %q has unknown symbol %d", fp.Name, fp.SymbolID)
			}
			fp.SymbolID = symbolID
			if _, err := insertFunctionParam(tx, &fp); err != nil {
				return fmt.Errorf("commit batch: param %q: %w", fp.Name, err)
			}
		}
		return nil
	})
}
