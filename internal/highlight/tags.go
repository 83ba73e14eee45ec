package highlight

import "strings"

// Tag is the semantic category of a highlighted range.
type Tag int

const (
	TagNone Tag = iota

	// Symbol kinds.
	Const
	Enum
	Field
	Function
	Impl
	Label
	Lifetime
	Local
	Macro
	Method
	Module
	SelfKeyword
	SelfType
	Static
	Struct
	Trait
	TypeAlias
	TypeParam
	Union
	ValueParam
	Variant

	// Lexical categories.
	Attribute
	BoolLiteral
	BuiltinType
	ByteLiteral
	CharLiteral
	Comment
	EscapeSequence
	Keyword
	NumericLiteral
	Operator
	Punctuation
	StringLiteral
	UnresolvedReference
)

var tagNames = [...]string{
	TagNone:             "none",
	Const:               "constant",
	Enum:                "enum",
	Field:               "field",
	Function:            "function",
	Impl:                "impl",
	Label:               "label",
	Lifetime:            "lifetime",
	Local:               "variable",
	Macro:               "macro",
	Method:              "method",
	Module:              "module",
	SelfKeyword:         "self_keyword",
	SelfType:            "self_type",
	Static:              "static",
	Struct:              "struct",
	Trait:               "trait",
	TypeAlias:           "type_alias",
	TypeParam:           "type_param",
	Union:               "union",
	ValueParam:          "value_param",
	Variant:             "enum_member",
	Attribute:           "attribute",
	BoolLiteral:         "bool_literal",
	BuiltinType:         "builtin_type",
	ByteLiteral:         "byte_literal",
	CharLiteral:         "char_literal",
	Comment:             "comment",
	EscapeSequence:      "escape_sequence",
	Keyword:             "keyword",
	NumericLiteral:      "numeric_literal",
	Operator:            "operator",
	Punctuation:         "punctuation",
	StringLiteral:       "string_literal",
	UnresolvedReference: "unresolved_reference",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// Mod is a set of highlight modifiers.
type Mod uint32

const (
	Associated Mod = 1 << iota
	AttributeMod
	Async
	ControlFlow
	Definition
	Documentation
	Injected
	IntraDocLink
	Mutable
	Public
	StaticMod
	TraitMod
	Unsafe
)

var modNames = []struct {
	mod  Mod
	name string
}{
	{Associated, "associated"},
	{AttributeMod, "attribute"},
	{Async, "async"},
	{ControlFlow, "control"},
	{Definition, "declaration"},
	{Documentation, "documentation"},
	{Injected, "injected"},
	{IntraDocLink, "intra_doc_link"},
	{Mutable, "mutable"},
	{Public, "public"},
	{StaticMod, "static"},
	{TraitMod, "trait"},
	{Unsafe, "unsafe"},
}

// Has reports whether every modifier in other is set.
func (m Mod) Has(other Mod) bool { return m&other == other }

// Names returns the modifier names in a fixed order.
func (m Mod) Names() []string {
	var names []string
	for _, mn := range modNames {
		if m&mn.mod != 0 {
			names = append(names, mn.name)
		}
	}
	return names
}

// Highlight is a tag plus its modifiers.
type Highlight struct {
	Tag  Tag
	Mods Mod
}

// H builds a Highlight.
func H(tag Tag, mods ...Mod) Highlight {
	h := Highlight{Tag: tag}
	for _, m := range mods {
		h.Mods |= m
	}
	return h
}

// With returns h with mods added.
func (h Highlight) With(mods Mod) Highlight {
	h.Mods |= mods
	return h
}

// String renders the highlight as "tag.mod.mod", e.g. "function.declaration.injected".
func (h Highlight) String() string {
	parts := append([]string{h.Tag.String()}, h.Mods.Names()...)
	return strings.Join(parts, ".")
}

// tagForKind maps a symbol kind as stored in the index to a tag.
func tagForKind(kind string) Tag {
	switch kind {
	case "function":
		return Function
	case "method":
		return Method
	case "struct":
		return Struct
	case "enum":
		return Enum
	case "union":
		return Union
	case "variant":
		return Variant
	case "trait":
		return Trait
	case "type_alias":
		return TypeAlias
	case "const":
		return Const
	case "static":
		return Static
	case "module":
		return Module
	case "macro":
		return Macro
	case "field":
		return Field
	case "impl":
		return Impl
	case "builtin":
		return BuiltinType
	default:
		return UnresolvedReference
	}
}
