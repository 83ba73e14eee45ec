package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/prism/internal/store"
)

// Risor scripts cannot build Go structs, so store rows cross the boundary
// as maps of primitives.

// unary wraps a one-argument builtin with an arity check.
func unary(name string, fn func(ctx context.Context, arg object.Object) object.Object) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		return fn(ctx, args[0])
	})
}

// insert_symbol({name, kind, file_id, parent_symbol_id, ...}) -> id
func makeInsertSymbolFn(s store.DataStore) *object.Builtin {
	return unary("insert_symbol", func(_ context.Context, arg object.Object) object.Object {
		f, err := fieldsOf(arg)
		if err != nil {
			return object.Errorf("insert_symbol: %v", err)
		}
		sym := &store.Symbol{
			Name:       f.str("name"),
			Kind:       f.str("kind"),
			Visibility: f.str("visibility"),
			Modifiers:  f.strs("modifiers"),
			StartLine:  int(f.int("start_line")),
			StartCol:   int(f.int("start_col")),
			EndLine:    int(f.int("end_line")),
			EndCol:     int(f.int("end_col")),
			FileID:     f.optInt("file_id"),
		}
		if sym.Name == "" || sym.Kind == "" {
			return object.Errorf("insert_symbol: name and kind are required")
		}
		sym.ParentSymbolID = f.optInt("parent_symbol_id")

		id, err := s.InsertSymbol(sym)
		if err != nil {
			return object.Errorf("insert_symbol: %v", err)
		}
		return object.NewInt(id)
	})
}

// insert_function_param({symbol_id, name, ordinal, type_expr, is_receiver}) -> id
func makeInsertFunctionParamFn(s store.DataStore) *object.Builtin {
	return unary("insert_function_param", func(_ context.Context, arg object.Object) object.Object {
		f, err := fieldsOf(arg)
		if err != nil {
			return object.Errorf("insert_function_param: %v", err)
		}
		id, err := s.InsertFunctionParam(&store.FunctionParam{
			SymbolID:   f.int("symbol_id"),
			Name:       f.str("name"),
			Ordinal:    int(f.int("ordinal")),
			TypeExpr:   f.str("type_expr"),
			IsReceiver: f.bool("is_receiver"),
		})
		if err != nil {
			return object.Errorf("insert_function_param: %v", err)
		}
		return object.NewInt(id)
	})
}

// symbols_by_name(name) -> [symbol]
func makeSymbolsByNameFn(s store.DataStore) *object.Builtin {
	return unary("symbols_by_name", func(_ context.Context, arg object.Object) object.Object {
		name, errObj := stringArg("symbols_by_name", "name", arg)
		if errObj != nil {
			return errObj
		}
		syms, err := s.SymbolsByName(name)
		if err != nil {
			return object.Errorf("symbols_by_name: %v", err)
		}
		return symbolList(syms)
	})
}

// symbols_by_file(file_id) -> [symbol]
func makeSymbolsByFileFn(s store.DataStore) *object.Builtin {
	return unary("symbols_by_file", func(_ context.Context, arg object.Object) object.Object {
		id, ok := intValue(arg)
		if !ok {
			return object.Errorf("symbols_by_file: expected int, got %s", arg.Type())
		}
		syms, err := s.SymbolsByFile(id)
		if err != nil {
			return object.Errorf("symbols_by_file: %v", err)
		}
		return symbolList(syms)
	})
}

// fields is a Risor map argument. Missing or mistyped keys read as zero.
type fields map[string]object.Object

func fieldsOf(obj object.Object) (fields, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return fields(m.Value()), nil
}

func (f fields) str(key string) string {
	if s, ok := f[key].(*object.String); ok {
		return s.Value()
	}
	return ""
}

func (f fields) strs(key string) []string {
	l, ok := f[key].(*object.List)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range l.Value() {
		if s, ok := item.(*object.String); ok {
			out = append(out, s.Value())
		}
	}
	return out
}

func (f fields) int(key string) int64 {
	v, _ := intValue(f[key])
	return v
}

func (f fields) optInt(key string) *int64 {
	if v, ok := intValue(f[key]); ok {
		return &v
	}
	return nil
}

func (f fields) bool(key string) bool {
	b, ok := f[key].(*object.Bool)
	return ok && b.Value()
}

// intValue accepts ints and floats; Risor arithmetic can yield either.
func intValue(obj object.Object) (int64, bool) {
	switch v := obj.(type) {
	case *object.Int:
		return v.Value(), true
	case *object.Float:
		return int64(v.Value()), true
	}
	return 0, false
}

func symbolList(syms []*store.Symbol) object.Object {
	items := make([]object.Object, len(syms))
	for i, sym := range syms {
		mods := make([]object.Object, len(sym.Modifiers))
		for j, mod := range sym.Modifiers {
			mods[j] = object.NewString(mod)
		}
		m := map[string]object.Object{
			"id":         object.NewInt(sym.ID),
			"name":       object.NewString(sym.Name),
			"kind":       object.NewString(sym.Kind),
			"visibility": object.NewString(sym.Visibility),
			"modifiers":  object.NewList(mods),
			"start_line": object.NewInt(int64(sym.StartLine)),
			"start_col":  object.NewInt(int64(sym.StartCol)),
			"end_line":   object.NewInt(int64(sym.EndLine)),
			"end_col":    object.NewInt(int64(sym.EndCol)),
		}
		if sym.FileID != nil {
			m["file_id"] = object.NewInt(*sym.FileID)
		}
		if sym.ParentSymbolID != nil {
			m["parent_symbol_id"] = object.NewInt(*sym.ParentSymbolID)
		}
		items[i] = object.NewMap(m)
	}
	return object.NewList(items)
}
