package highlight

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/jward/prism/internal/syntax"
)

// Highlighter is prism's semantic highlighter for Rust. It classifies names
// by their syntactic role and by the items the document declares, and
// recurses into fixtures and doctests through itself.
type Highlighter struct {
	index         SymbolIndex
	logger        *zap.Logger
	fixturePrefix string
	injection     bool
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithIndex sets the symbol index consulted for names the top-level
// document does not declare.
func WithIndex(idx SymbolIndex) Option {
	return func(h *Highlighter) { h.index = idx }
}

// WithLogger sets the logger used for injection failures.
func WithLogger(l *zap.Logger) Option {
	return func(h *Highlighter) { h.logger = l }
}

// WithFixturePrefix sets the parameter-name prefix that marks fixtures.
func WithFixturePrefix(prefix string) Option {
	return func(h *Highlighter) { h.fixturePrefix = prefix }
}

// WithInjection turns fixture and doctest injection on or off.
func WithInjection(enabled bool) Option {
	return func(h *Highlighter) { h.injection = enabled }
}

// New creates a Highlighter. Injection is on by default.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		logger:        zap.NewNop(),
		fixturePrefix: DefaultFixturePrefix,
		injection:     true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Highlight highlights src as a top-level document. Names it does not
// declare are looked up in the index, if there is one.
func (h *Highlighter) Highlight(ctx context.Context, src []byte) ([]HlRange, error) {
	return h.run(ctx, src, h.index, AnalyzeOptions{})
}

// HighlightDocument highlights text as a standalone document. The index is
// never consulted, so the result depends on text alone.
func (h *Highlighter) HighlightDocument(ctx context.Context, text string, opts AnalyzeOptions) ([]HlRange, error) {
	return h.run(ctx, []byte(text), nil, opts)
}

func (h *Highlighter) run(ctx context.Context, src []byte, index SymbolIndex, opts AnalyzeOptions) ([]HlRange, error) {
	tree, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("highlight: %w", err)
	}
	defer tree.Close()

	var out Highlights
	p := newPass(h, tree, index, opts, &out)
	if err := p.visit(ctx, tree.Root()); err != nil {
		return nil, err
	}
	return out.Sorted(), nil
}

// pass is one highlighting run over one document.
type pass struct {
	h         *Highlighter
	src       []byte
	sink      Sink
	defs      *definitionTable
	index     SymbolIndex
	syntactic bool

	fixtures *FixtureInjector
	doctests *DoctestInjector

	scopes  []map[string]binding
	shadows map[string]int
}

type binding struct {
	tag     Tag
	hash    uint64
	mutable bool
}

func newPass(h *Highlighter, tree *syntax.Tree, index SymbolIndex, opts AnalyzeOptions, sink Sink) *pass {
	defs := collectDefinitions(tree.Root(), tree.Source)
	p := &pass{
		h:         h,
		src:       tree.Source,
		sink:      sink,
		defs:      defs,
		index:     index,
		syntactic: opts.SyntacticNameRefs,
		scopes:    []map[string]binding{{}},
		shadows:   make(map[string]int),
	}
	if h.injection {
		p.fixtures = &FixtureInjector{
			Analyzer: h,
			Params:   &callSiteLookup{src: tree.Source, defs: defs, index: index, logger: h.logger},
			Prefix:   h.fixturePrefix,
		}
		p.doctests = &DoctestInjector{
			Analyzer: h,
			Links:    &docLinkResolver{defs: defs, index: index, logger: h.logger},
		}
	}
	return p
}

func (p *pass) add(n *sitter.Node, hl Highlight) {
	p.sink.Add(HlRange{Range: syntax.NodeRange(n), Highlight: hl})
}

func (p *pass) text(n *sitter.Node) string {
	return n.Content(p.src)
}

func (p *pass) visit(ctx context.Context, n *sitter.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch n.Type() {
	case "line_comment", "block_comment":
		p.comment(n)
		return nil
	case "string_literal", "raw_string_literal":
		p.stringLiteral(ctx, n)
		return nil
	case "char_literal":
		if strings.HasPrefix(p.text(n), "b") {
			p.add(n, H(ByteLiteral))
		} else {
			p.add(n, H(CharLiteral))
		}
		return nil
	case "integer_literal", "float_literal":
		p.add(n, H(NumericLiteral))
		return nil
	case "boolean_literal":
		p.add(n, H(BoolLiteral))
		return nil
	case "primitive_type":
		p.add(n, H(BuiltinType))
		return nil
	case "lifetime":
		p.lifetime(n)
		return nil
	case "label":
		p.add(n, H(Label))
		return nil
	case "self":
		p.add(n, H(SelfKeyword))
		return nil
	case "crate", "super", "mutable_specifier":
		p.add(n, H(Keyword))
		return nil
	case "identifier":
		p.identifier(ctx, n)
		return nil
	case "type_identifier":
		p.typeIdentifier(ctx, n)
		return nil
	case "field_identifier":
		p.fieldIdentifier(n)
		return nil
	case "shorthand_field_identifier":
		p.shorthandField(ctx, n)
		return nil
	case "attribute_item", "inner_attribute_item":
		return p.attribute(ctx, n)
	case "let_declaration":
		return p.letDeclaration(ctx, n)
	}

	if n.ChildCount() == 0 {
		if !n.IsNamed() {
			p.token(n)
		}
		return nil
	}

	switch n.Type() {
	case "function_item", "closure_expression":
		saved := p.shadows
		if n.Type() == "function_item" {
			p.shadows = make(map[string]int)
		}
		p.pushScope()
		err := p.children(ctx, n)
		p.popScope()
		p.shadows = saved
		if err != nil {
			return err
		}
	case "block", "match_arm", "for_expression", "if_expression", "while_expression",
		"impl_item", "trait_item", "struct_item", "enum_item", "union_item", "type_item":
		p.pushScope()
		err := p.children(ctx, n)
		p.popScope()
		if err != nil {
			return err
		}
	default:
		if err := p.children(ctx, n); err != nil {
			return err
		}
	}

	p.doctest(ctx, n)
	return nil
}

func (p *pass) children(ctx context.Context, n *sitter.Node) error {
	for i := 0; i < int(n.ChildCount()); i++ {
		if err := p.visit(ctx, n.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) pushScope() { p.scopes = append(p.scopes, map[string]binding{}) }
func (p *pass) popScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

// =============================================================================
// Injection sites
// =============================================================================

func (p *pass) stringLiteral(ctx context.Context, n *sitter.Node) {
	if p.fixtures != nil {
		ok, err := p.fixtures.Inject(ctx, p.sink, n, p.src)
		if err != nil {
			p.h.logger.Warn("fixture injection failed",
				zap.Uint32("offset", n.StartByte()), zap.Error(err))
		}
		if ok {
			return
		}
	}
	p.plainString(n, H(StringLiteral))
}

func (p *pass) plainString(n *sitter.Node, hl Highlight) {
	p.add(n, hl)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "escape_sequence" {
			p.add(c, H(EscapeSequence))
		}
	}
}

func (p *pass) doctest(ctx context.Context, n *sitter.Node) {
	if p.doctests == nil {
		return
	}
	switch n.Type() {
	case "source_file", "impl_item":
	default:
		if _, ok := itemKinds[n.Type()]; !ok {
			return
		}
	}
	if _, err := p.doctests.Inject(ctx, p.sink, n, p.src); err != nil {
		p.h.logger.Warn("doctest injection failed",
			zap.Uint32("offset", n.StartByte()), zap.Error(err))
	}
}

// =============================================================================
// Tokens
// =============================================================================

var keywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "default": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "fn": true, "for": true, "if": true, "impl": true, "in": true,
	"let": true, "loop": true, "macro_rules!": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true,
	"static": true, "struct": true, "trait": true, "type": true, "union": true,
	"unsafe": true, "use": true, "where": true, "while": true, "yield": true,
}

var controlFlow = map[string]bool{
	"break": true, "continue": true, "else": true, "if": true, "loop": true,
	"match": true, "return": true, "while": true, "yield": true, "await": true,
}

var operators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "^": true, "!": true,
	"&": true, "|": true, "&&": true, "||": true, "<<": true, ">>": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "^=": true,
	"&=": true, "|=": true, "<<=": true, ">>=": true, "=": true, "==": true,
	"!=": true, ">": true, ">=": true, "<": true, "<=": true, "..": true,
	"..=": true, "...": true,
}

var punctuation = map[string]bool{
	"(": true, ")": true, "[": true, "]": true, "{": true, "}": true,
	",": true, ";": true, ":": true, "::": true, ".": true, "=>": true,
	"->": true, "#": true, "@": true, "_": true, "'": true, "$": true,
}

// genericBrackets are nodes whose < and > are brackets, not comparisons.
var genericBrackets = map[string]bool{
	"type_arguments": true, "type_parameters": true, "for_lifetimes": true,
	"bracketed_type": true, "qualified_type": true,
}

func (p *pass) token(n *sitter.Node) {
	t := n.Type()
	parent := n.Parent()
	parentType := ""
	if parent != nil {
		parentType = parent.Type()
	}

	switch {
	case keywords[t]:
		hl := H(Keyword)
		if controlFlow[t] || (t == "for" && parentType == "for_expression") {
			hl = hl.With(ControlFlow)
		}
		switch t {
		case "async", "await":
			hl = hl.With(Async)
		case "unsafe":
			hl = hl.With(Unsafe)
		}
		p.add(n, hl)
	case t == "?":
		p.add(n, H(Operator, ControlFlow))
	case t == "!" && parentType == "macro_invocation":
		p.add(n, H(Macro))
	case (t == "<" || t == ">") && genericBrackets[parentType]:
		p.add(n, H(Punctuation))
	case operators[t]:
		p.add(n, H(Operator))
	case punctuation[t]:
		p.add(n, H(Punctuation))
	}
}

func (p *pass) comment(n *sitter.Node) {
	text := p.text(n)
	hl := H(Comment)
	if syntax.ClassifyComment(text).IsDoc() {
		hl = hl.With(Documentation)
	}
	r := syntax.NodeRange(n)
	r.End -= uint32(len(text) - len(strings.TrimSuffix(text, "\n")))
	p.sink.Add(HlRange{Range: r, Highlight: hl})
}

func (p *pass) lifetime(n *sitter.Node) {
	hl := H(Lifetime)
	if parent := n.Parent(); parent != nil {
		switch parent.Type() {
		case "type_parameters", "constrained_type_parameter", "lifetime_parameter":
			hl = hl.With(Definition)
		}
	}
	p.add(n, hl)
}

func (p *pass) attribute(ctx context.Context, item *sitter.Node) error {
	for i := 0; i < int(item.ChildCount()); i++ {
		c := item.Child(i)
		switch {
		case !c.IsNamed():
			p.add(c, H(Attribute))
		case c.Type() == "attribute":
			if err := p.attributeBody(ctx, c); err != nil {
				return err
			}
		default:
			if err := p.visit(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) attributeBody(ctx context.Context, attr *sitter.Node) error {
	path := ""
	seenPath := false
	for i := 0; i < int(attr.ChildCount()); i++ {
		c := attr.Child(i)
		switch {
		case c.IsNamed() && !seenPath:
			seenPath = true
			path = p.text(c)
			p.add(c, H(Attribute))
		case path == "doc" && (c.Type() == "string_literal" || c.Type() == "raw_string_literal"):
			p.plainString(c, H(StringLiteral, Documentation))
		case c.Type() == "token_tree":
			if err := p.attributeArgs(ctx, c); err != nil {
				return err
			}
		default:
			if err := p.visit(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// attributeArgs highlights the arguments of an attribute such as
// #[derive(Debug, Clone)] or #[cfg(test)].
func (p *pass) attributeArgs(ctx context.Context, tt *sitter.Node) error {
	for i := 0; i < int(tt.ChildCount()); i++ {
		c := tt.Child(i)
		switch c.Type() {
		case "identifier":
			name := p.text(c)
			if def, ok := p.defs.lookup(name, TypeNamespace); ok {
				p.add(c, H(tagForKind(def.Kind), AttributeMod))
			} else if tag, ok := preludeTypes[name]; ok {
				p.add(c, H(tag, AttributeMod))
			} else {
				p.add(c, H(Attribute))
			}
		case "token_tree":
			if err := p.attributeArgs(ctx, c); err != nil {
				return err
			}
		default:
			if err := p.visit(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// Names
// =============================================================================

// refRole is the syntactic position of a name reference.
type refRole int

const (
	roleValue refRole = iota
	roleCall
	rolePath
	roleType
	roleMacro
)

func (r refRole) namespace() Namespace {
	switch r {
	case roleValue, roleCall:
		return ValueNamespace
	case roleType:
		return TypeNamespace
	case roleMacro:
		return MacroNamespace
	default:
		return AnyNamespace
	}
}

// namedDefinitions maps item nodes whose "name" field is an identifier to
// the tag of that name.
var namedDefinitions = map[string]Tag{
	"function_item":           Function,
	"function_signature_item": Function,
	"enum_variant":            Variant,
	"const_item":              Const,
	"static_item":             Static,
	"mod_item":                Module,
	"macro_definition":        Macro,
}

// typeDefinitions is namedDefinitions for items named by a type_identifier.
var typeDefinitions = map[string]Tag{
	"struct_item":     Struct,
	"enum_item":       Enum,
	"union_item":      Union,
	"trait_item":      Trait,
	"type_item":       TypeAlias,
	"associated_type": TypeAlias,
}

func (p *pass) identifier(ctx context.Context, n *sitter.Node) {
	name := p.text(n)
	parent := n.Parent()
	if parent == nil {
		return
	}

	if tag, ok := namedDefinitions[parent.Type()]; ok && isField(parent, "name", n) {
		p.add(n, p.itemDefinition(parent, tag))
		return
	}
	if tag, mutable, ok := p.bindingKind(n); ok && !p.isConstPattern(name) {
		p.declare(n, name, tag, mutable)
		return
	}

	switch parent.Type() {
	case "macro_invocation":
		if isField(parent, "macro", n) {
			p.add(n, H(Macro))
			return
		}
	case "scoped_identifier", "scoped_type_identifier":
		if isField(parent, "path", n) {
			p.nameRef(ctx, n, name, rolePath)
			return
		}
		if grand := parent.Parent(); grand != nil {
			if grand.Type() == "macro_invocation" && isField(grand, "macro", parent) {
				p.add(n, H(Macro))
				return
			}
			if grand.Type() == "call_expression" && isField(grand, "function", parent) {
				p.nameRef(ctx, n, name, roleCall)
				return
			}
		}
		p.nameRef(ctx, n, name, rolePath)
		return
	case "call_expression":
		if isField(parent, "function", n) {
			p.nameRef(ctx, n, name, roleCall)
			return
		}
	case "generic_function":
		p.nameRef(ctx, n, name, roleCall)
		return
	case "use_declaration", "use_list", "scoped_use_list", "use_as_clause":
		p.nameRef(ctx, n, name, rolePath)
		return
	case "tuple_struct_pattern":
		if isField(parent, "type", n) {
			p.nameRef(ctx, n, name, roleValue)
			return
		}
	}
	p.nameRef(ctx, n, name, roleValue)
}

func (p *pass) itemDefinition(item *sitter.Node, tag Tag) Highlight {
	hl := H(tag, Definition)
	if hasChild(item, "visibility_modifier") {
		hl = hl.With(Public)
	}
	if tag == Static && hasChild(item, "mutable_specifier") {
		hl = hl.With(Mutable)
	}
	if tag != Function {
		return hl
	}
	if container := enclosingContainer(item); container != "" {
		hl = hl.With(Associated)
		if params := item.ChildByFieldName("parameters"); params != nil && hasChild(params, "self_parameter") {
			hl.Tag = Method
		} else {
			hl = hl.With(StaticMod)
		}
		if container == "trait_item" {
			hl = hl.With(TraitMod)
		}
	}
	return hl
}

func (p *pass) typeIdentifier(ctx context.Context, n *sitter.Node) {
	name := p.text(n)
	parent := n.Parent()
	if parent == nil {
		return
	}
	if tag, ok := typeDefinitions[parent.Type()]; ok && isField(parent, "name", n) {
		p.add(n, p.itemDefinition(parent, tag))
		return
	}
	switch parent.Type() {
	case "type_parameters", "constrained_type_parameter", "optional_type_parameter":
		if parent.Type() == "type_parameters" || isField(parent, "left", n) || isField(parent, "name", n) {
			p.scopes[len(p.scopes)-1][name] = binding{tag: TypeParam}
			p.add(n, H(TypeParam, Definition))
			return
		}
	case "scoped_type_identifier":
		if isField(parent, "path", n) {
			p.nameRef(ctx, n, name, rolePath)
			return
		}
	}
	if name == "Self" {
		p.add(n, H(SelfType))
		return
	}
	if b, ok := p.lookupLocal(name); ok && b.tag == TypeParam {
		p.add(n, H(TypeParam))
		return
	}
	p.nameRef(ctx, n, name, roleType)
}

func (p *pass) fieldIdentifier(n *sitter.Node) {
	parent := n.Parent()
	if parent == nil {
		p.add(n, H(Field))
		return
	}
	switch parent.Type() {
	case "field_declaration":
		hl := H(Field, Definition)
		if hasChild(parent, "visibility_modifier") {
			hl = hl.With(Public)
		}
		p.add(n, hl)
	case "field_expression":
		if grand := parent.Parent(); grand != nil && grand.Type() == "call_expression" && isField(grand, "function", parent) {
			p.add(n, H(Method))
			return
		}
		p.add(n, H(Field))
	default:
		p.add(n, H(Field))
	}
}

func (p *pass) shorthandField(ctx context.Context, n *sitter.Node) {
	name := p.text(n)
	if parent := n.Parent(); parent != nil && parent.Type() == "field_pattern" {
		p.declare(n, name, Local, hasChild(parent, "mutable_specifier"))
		return
	}
	p.nameRef(ctx, n, name, roleValue)
}

func (p *pass) letDeclaration(ctx context.Context, n *sitter.Node) error {
	// The pattern goes last so that `let x = x;` reads the outer x.
	pattern := n.ChildByFieldName("pattern")
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if pattern != nil && syntax.SameNode(c, pattern) {
			continue
		}
		if err := p.visit(ctx, c); err != nil {
			return err
		}
	}
	if pattern != nil {
		return p.visit(ctx, pattern)
	}
	return nil
}

// bindingKind reports whether identifier n introduces a binding, walking up
// through nested patterns to the construct that owns them.
func (p *pass) bindingKind(n *sitter.Node) (Tag, bool, bool) {
	mutable := false
	child := n
	for parent := n.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		switch parent.Type() {
		case "mut_pattern":
			mutable = true
		case "ref_pattern", "reference_pattern", "tuple_pattern", "slice_pattern",
			"or_pattern", "captured_pattern", "field_pattern":
		case "tuple_struct_pattern":
			if isField(parent, "type", child) {
				return TagNone, false, false
			}
		case "parameter":
			if !isField(parent, "pattern", child) {
				return TagNone, false, false
			}
			return ValueParam, mutable || hasChild(parent, "mutable_specifier"), true
		case "closure_parameters":
			return ValueParam, mutable, true
		case "let_declaration":
			if !isField(parent, "pattern", child) {
				return TagNone, false, false
			}
			return Local, mutable || hasChild(parent, "mutable_specifier"), true
		case "for_expression", "let_condition":
			if !isField(parent, "pattern", child) {
				return TagNone, false, false
			}
			return Local, mutable, true
		case "match_pattern":
			if isField(parent, "condition", child) {
				return TagNone, false, false
			}
			return Local, mutable, true
		default:
			return TagNone, false, false
		}
	}
	return TagNone, false, false
}

// isConstPattern reports whether a bare name in pattern position refers to
// an item rather than binding a new local.
func (p *pass) isConstPattern(name string) bool {
	if def, ok := p.defs.lookup(name, ValueNamespace); ok {
		return def.Kind == "const" || def.Kind == "static" || def.Kind == "variant" || def.Kind == "struct"
	}
	return preludeValues[name] != TagNone
}

func (p *pass) declare(n *sitter.Node, name string, tag Tag, mutable bool) {
	count := p.shadows[name]
	p.shadows[name] = count + 1
	b := binding{tag: tag, hash: bindingHash(name, count), mutable: mutable}
	p.scopes[len(p.scopes)-1][name] = b

	hl := H(tag, Definition)
	if mutable {
		hl = hl.With(Mutable)
	}
	p.sink.Add(HlRange{Range: syntax.NodeRange(n), Highlight: hl, BindingHash: &b.hash})
}

func (p *pass) lookupLocal(name string) (binding, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if b, ok := p.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// bindingHash identifies a local by its name and how many earlier bindings
// of that name the enclosing function has.
func bindingHash(name string, shadowCount int) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s#%d", name, shadowCount)
	return h.Sum64()
}

var preludeTypes = map[string]Tag{
	"String": Struct, "Vec": Struct, "Box": Struct, "Option": Enum, "Result": Enum,
	"Clone": Trait, "Copy": Trait, "Default": Trait, "Drop": Trait, "Eq": Trait,
	"PartialEq": Trait, "Ord": Trait, "PartialOrd": Trait, "Iterator": Trait,
	"IntoIterator": Trait, "Extend": Trait, "From": Trait, "Into": Trait,
	"AsRef": Trait, "AsMut": Trait, "ToString": Trait, "ToOwned": Trait,
	"Fn": Trait, "FnMut": Trait, "FnOnce": Trait, "Send": Trait, "Sync": Trait,
	"Sized": Trait, "Unpin": Trait, "Debug": Trait, "Hash": Trait,
}

var preludeValues = map[string]Tag{
	"Some": Variant, "None": Variant, "Ok": Variant, "Err": Variant,
	"drop": Function,
}

// nameRef highlights a reference to name. Locals come first, then the
// document's items, the prelude, and the index. Whatever is left is
// unresolved, or guessed from its shape in syntactic mode.
func (p *pass) nameRef(ctx context.Context, n *sitter.Node, name string, role refRole) {
	if role == roleValue || role == roleCall {
		if b, ok := p.lookupLocal(name); ok && b.tag != TypeParam {
			hl := H(b.tag)
			if b.mutable {
				hl = hl.With(Mutable)
			}
			hash := b.hash
			p.sink.Add(HlRange{Range: syntax.NodeRange(n), Highlight: hl, BindingHash: &hash})
			return
		}
	}

	ns := role.namespace()
	if def, ok := p.defs.lookup(name, ns); ok {
		p.add(n, H(tagForKind(def.Kind)))
		return
	}
	prelude := preludeValues
	if role == roleType || role == rolePath {
		prelude = preludeTypes
	}
	if tag, ok := prelude[name]; ok {
		p.add(n, H(tag))
		return
	}
	if kind, ok := p.indexKind(ctx, name, ns); ok {
		p.add(n, H(tagForKind(kind)))
		return
	}
	if p.syntactic {
		p.add(n, H(guessTag(name, role)))
		return
	}
	p.add(n, H(UnresolvedReference))
}

func (p *pass) indexKind(ctx context.Context, name string, ns Namespace) (string, bool) {
	if p.index == nil {
		return "", false
	}
	syms, err := p.index.SymbolsByName(ctx, name)
	if err != nil {
		p.h.logger.Debug("index lookup failed", zap.String("name", name), zap.Error(err))
		return "", false
	}
	for _, s := range syms {
		if ns.admits(s.Kind) {
			return s.Kind, true
		}
	}
	return "", false
}

// guessTag classifies a name that did not resolve from its spelling and
// position alone.
func guessTag(name string, role refRole) Tag {
	capitalized := name != "" && unicode.IsUpper(rune(name[0]))
	switch role {
	case roleCall:
		if capitalized {
			return Variant
		}
		return Function
	case roleMacro:
		return Macro
	case roleType:
		return Struct
	case rolePath:
		if capitalized {
			return Struct
		}
		return Module
	}
	switch {
	case strings.ToUpper(name) == name && capitalized:
		return Const
	case capitalized:
		return Struct
	default:
		return Local
	}
}

// =============================================================================
// Tree helpers
// =============================================================================

func isField(parent *sitter.Node, field string, n *sitter.Node) bool {
	f := parent.ChildByFieldName(field)
	return f != nil && syntax.SameNode(f, n)
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

// enclosingContainer returns "impl_item" or "trait_item" when item is an
// associated item, and "" otherwise.
func enclosingContainer(item *sitter.Node) string {
	list := item.Parent()
	if list == nil || list.Type() != "declaration_list" {
		return ""
	}
	owner := list.Parent()
	if owner == nil {
		return ""
	}
	switch owner.Type() {
	case "impl_item", "trait_item":
		return owner.Type()
	}
	return ""
}
