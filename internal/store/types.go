package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is a named Rust item. Kind is one of function, method, struct,
// enum, union, variant, trait, type_alias, const, static, module, macro,
// impl or field.
type Symbol struct {
	ID             int64
	FileID         *int64
	Name           string
	Kind           string
	Visibility     string
	Modifiers      []string
	SignatureHash  string
	StartLine      int
	StartCol       int
	EndLine        int
	EndCol         int
	ParentSymbolID *int64
}

type FunctionParam struct {
	ID         int64
	SymbolID   int64
	Name       string
	Ordinal    int
	TypeExpr   string
	IsReceiver bool
}
