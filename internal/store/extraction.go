package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryOne is queryAll for a single row; a missing row is (nil, nil).
func queryOne[T any](db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func insertReturningID(db execer, query string, args ...any) (int64, error) {
	res, err := db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Files

const selectFile = "SELECT id, path, language, hash, line_count, last_indexed FROM files"

func scanFile(r rowScanner) (*File, error) {
	f := &File{}
	if err := r.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
		return nil, err
	}
	return f, nil
}

// InsertFile stores f and sets its ID.
func (s *Store) InsertFile(f *File) (int64, error) {
	id, err := insertReturningID(s.db,
		"INSERT INTO files (path, language, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file %s: %w", f.Path, err)
	}
	f.ID = id
	return id, nil
}

// FileByPath returns the file record for path, or nil if it is not indexed.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := queryOne(s.db, scanFile, selectFile+" WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileByID returns the file record with the given ID, or nil.
func (s *Store) FileByID(id int64) (*File, error) {
	f, err := queryOne(s.db, scanFile, selectFile+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	files, err := queryAll(s.db, scanFile, selectFile+" ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	return files, nil
}

// Symbols

const selectSymbol = `SELECT id, file_id, parent_symbol_id, name, kind, visibility, modifiers,
	signature_hash, start_line, start_col, end_line, end_col FROM symbols`

func scanSymbol(r rowScanner) (*Symbol, error) {
	sym := &Symbol{}
	var vis, mods, hash sql.NullString
	err := r.Scan(
		&sym.ID, &sym.FileID, &sym.ParentSymbolID, &sym.Name, &sym.Kind, &vis, &mods,
		&hash, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
	)
	if err != nil {
		return nil, err
	}
	sym.Visibility = vis.String
	sym.Modifiers = unmarshalModifiers(mods.String)
	sym.SignatureHash = hash.String
	return sym, nil
}

// InsertSymbol stores sym and sets its ID.
func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol %q: %w", sym.Name, err)
	}
	sym.ID = id
	return id, nil
}

func insertSymbol(db execer, sym *Symbol) (int64, error) {
	return insertReturningID(db,
		`INSERT INTO symbols (file_id, parent_symbol_id, name, kind, visibility, modifiers,
			signature_hash, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.ParentSymbolID, sym.Name, sym.Kind, sym.Visibility,
		marshalModifiers(sym.Modifiers), sym.SignatureHash,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
}

func (s *Store) symbolsWhere(cond string, arg any) ([]*Symbol, error) {
	syms, err := queryAll(s.db, scanSymbol, selectSymbol+" WHERE "+cond+" ORDER BY id", arg)
	if err != nil {
		return nil, fmt.Errorf("symbols where %s: %w", cond, err)
	}
	return syms, nil
}

// SymbolsByFile returns a file's symbols in insertion order.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.symbolsWhere("file_id = ?", fileID)
}

// SymbolsByName returns every symbol called name.
func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.symbolsWhere("name = ?", name)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.symbolsWhere("kind = ?", kind)
}

// SymbolChildren returns the fields, variants and methods nested under a
// symbol.
func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.symbolsWhere("parent_symbol_id = ?", symbolID)
}

// SymbolByID returns the symbol with the given ID, or nil.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := queryOne(s.db, scanSymbol, selectSymbol+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// UpdateSignatureHash records the signature hash computed for a symbol.
func (s *Store) UpdateSignatureHash(symbolID int64, hash string) error {
	if _, err := s.db.Exec("UPDATE symbols SET signature_hash = ? WHERE id = ?", hash, symbolID); err != nil {
		return fmt.Errorf("update signature hash: %w", err)
	}
	return nil
}

// Function parameters

func scanFunctionParam(r rowScanner) (*FunctionParam, error) {
	fp := &FunctionParam{}
	var name, typeExpr sql.NullString
	if err := r.Scan(&fp.ID, &fp.SymbolID, &fp.Ordinal, &name, &typeExpr, &fp.IsReceiver); err != nil {
		return nil, err
	}
	fp.Name = name.String
	fp.TypeExpr = typeExpr.String
	return fp, nil
}

// InsertFunctionParam stores fp and sets its ID.
func (s *Store) InsertFunctionParam(fp *FunctionParam) (int64, error) {
	id, err := insertFunctionParam(s.db, fp)
	if err != nil {
		return 0, fmt.Errorf("insert function param %q: %w", fp.Name, err)
	}
	fp.ID = id
	return id, nil
}

func insertFunctionParam(db execer, fp *FunctionParam) (int64, error) {
	return insertReturningID(db,
		`INSERT INTO function_parameters (symbol_id, ordinal, name, type_expr, is_receiver)
		 VALUES (?, ?, ?, ?, ?)`,
		fp.SymbolID, fp.Ordinal, fp.Name, fp.TypeExpr, fp.IsReceiver,
	)
}

// FunctionParams returns a function's parameters ordered by ordinal.
func (s *Store) FunctionParams(symbolID int64) ([]*FunctionParam, error) {
	params, err := queryAll(s.db, scanFunctionParam,
		`SELECT id, symbol_id, ordinal, name, type_expr, is_receiver
		 FROM function_parameters WHERE symbol_id = ? ORDER BY ordinal`,
		symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("function params: %w", err)
	}
	return params, nil
}
