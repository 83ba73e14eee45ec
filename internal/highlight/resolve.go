package highlight

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// SymbolIndex is the cross-file symbol index consulted by the top-level
// highlighting pass. Standalone documents never see one.
type SymbolIndex interface {
	SymbolsByName(ctx context.Context, name string) ([]IndexedSymbol, error)
	FunctionParams(ctx context.Context, symbolID int64) ([]IndexedParam, error)
}

// IndexedSymbol is a symbol known to the index.
type IndexedSymbol struct {
	ID   int64
	Name string
	Kind string
	Path string
}

// IndexedParam is a formal parameter of an indexed function.
type IndexedParam struct {
	Name       string
	Ordinal    int
	IsReceiver bool
}

// Resolved is the item a doc link points at.
type Resolved struct {
	Name string
	Kind string
}

// LinkResolver extracts links from documentation and resolves them.
type LinkResolver interface {
	ExtractLinks(docs string) []DocLink
	Resolve(ctx context.Context, def Item, target string, ns Namespace) (Resolved, bool)
}

var primitiveTypes = map[string]bool{
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

// docLinkResolver resolves link paths by their last segment, first against
// the document's own items and then against the index.
type docLinkResolver struct {
	defs   *definitionTable
	index  SymbolIndex
	logger *zap.Logger
}

func (r *docLinkResolver) ExtractLinks(docs string) []DocLink {
	return ExtractLinks(docs)
}

func (r *docLinkResolver) Resolve(ctx context.Context, _ Item, target string, ns Namespace) (Resolved, bool) {
	path := strings.TrimSpace(target)
	if path == "" || strings.ContainsAny(path, "/#? ") {
		return Resolved{}, false
	}
	if i := strings.IndexByte(path, '<'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "::")
	for len(segs) > 1 {
		switch segs[0] {
		case "crate", "self", "super", "Self":
			segs = segs[1:]
			continue
		}
		break
	}
	name := segs[len(segs)-1]
	if name == "" {
		return Resolved{}, false
	}

	if len(segs) == 1 && primitiveTypes[name] && (ns == AnyNamespace || ns == TypeNamespace) {
		return Resolved{Name: name, Kind: "builtin"}, true
	}
	if def, ok := r.defs.lookup(name, ns); ok {
		return Resolved{Name: def.Name, Kind: def.Kind}, true
	}
	if r.index == nil {
		return Resolved{}, false
	}
	syms, err := r.index.SymbolsByName(ctx, name)
	if err != nil {
		r.logger.Debug("doc link lookup failed", zap.String("name", name), zap.Error(err))
		return Resolved{}, false
	}
	for _, s := range syms {
		if ns.admits(s.Kind) {
			return Resolved{Name: s.Name, Kind: s.Kind}, true
		}
	}
	return Resolved{}, false
}
