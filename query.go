package prism

import (
	"fmt"
	"strings"

	"github.com/jward/prism/internal/store"
)

// QueryBuilder provides read access to the symbol index.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder wraps an existing Store.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Symbols returns every indexed symbol with the given name.
func (q *QueryBuilder) Symbols(name string) ([]*Symbol, error) {
	syms, err := q.store.SymbolsByName(name)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	return syms, nil
}

// SymbolsInFile returns the symbols of an indexed file in declaration order.
// It returns nil if the file is not indexed.
func (q *QueryBuilder) SymbolsInFile(path string) ([]*Symbol, error) {
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("symbols in file: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	syms, err := q.store.SymbolsByFile(f.ID)
	if err != nil {
		return nil, fmt.Errorf("symbols in file: %w", err)
	}
	return syms, nil
}

// Signature describes a symbol together with where it lives and, for
// functions, its parameters.
type Signature struct {
	Symbol *Symbol
	File   string
	Params []*FunctionParam
}

// Signature returns the signature of the symbol with the given ID, or nil if
// there is no such symbol.
func (q *QueryBuilder) Signature(symbolID int64) (*Signature, error) {
	sym, err := q.store.SymbolByID(symbolID)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	sig := &Signature{Symbol: sym}
	if sym.FileID != nil {
		f, err := q.store.FileByID(*sym.FileID)
		if err != nil {
			return nil, fmt.Errorf("signature: lookup file: %w", err)
		}
		if f != nil {
			sig.File = f.Path
		}
	}
	sig.Params, err = q.store.FunctionParams(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("signature: params: %w", err)
	}
	return sig, nil
}

// String renders the signature in Rust-like form, e.g.
// "pub fn check(ra_fixture: &str)".
func (s *Signature) String() string {
	var b strings.Builder
	if s.Symbol.Visibility != "" && s.Symbol.Visibility != "private" {
		if s.Symbol.Visibility == "public" {
			b.WriteString("pub ")
		} else {
			b.WriteString(s.Symbol.Visibility + " ")
		}
	}
	for _, m := range s.Symbol.Modifiers {
		if m == "mut" {
			continue
		}
		b.WriteString(m + " ")
	}

	switch s.Symbol.Kind {
	case "function", "method":
		b.WriteString("fn " + s.Symbol.Name + "(")
		for i, p := range s.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			switch {
			case p.IsReceiver:
				b.WriteString(p.TypeExpr)
			case p.Name == "":
				b.WriteString("_: " + p.TypeExpr)
			default:
				b.WriteString(p.Name + ": " + p.TypeExpr)
			}
		}
		b.WriteString(")")
	case "type_alias":
		b.WriteString("type " + s.Symbol.Name)
	case "module":
		b.WriteString("mod " + s.Symbol.Name)
	case "macro":
		b.WriteString("macro_rules! " + s.Symbol.Name)
	case "static":
		b.WriteString("static ")
		if hasModifier(s.Symbol.Modifiers, "mut") {
			b.WriteString("mut ")
		}
		b.WriteString(s.Symbol.Name)
	default:
		b.WriteString(s.Symbol.Kind + " " + s.Symbol.Name)
	}
	return b.String()
}

func hasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}
