package highlight

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/prism/internal/syntax"
)

// Item is a named item declared in a document.
type Item struct {
	Name string
	Kind string // same vocabulary as the symbol index: "function", "struct", ...
	Node *sitter.Node
}

// itemKinds maps item node types to symbol kinds.
var itemKinds = map[string]string{
	"function_item":           "function",
	"function_signature_item": "function",
	"struct_item":             "struct",
	"enum_item":               "enum",
	"union_item":              "union",
	"enum_variant":            "variant",
	"trait_item":              "trait",
	"type_item":               "type_alias",
	"associated_type":         "type_alias",
	"const_item":              "const",
	"static_item":             "static",
	"mod_item":                "module",
	"macro_definition":        "macro",
	"field_declaration":       "field",
}

// definitionOf returns the definition introduced by n, if n is a
// documentable item.
func definitionOf(n *sitter.Node, src []byte) (Item, bool) {
	switch n.Type() {
	case "source_file":
		return Item{Kind: "module", Node: n}, true
	case "impl_item":
		typ := n.ChildByFieldName("type")
		if typ == nil {
			return Item{}, false
		}
		return Item{Name: typ.Content(src), Kind: "impl", Node: n}, true
	}
	kind, ok := itemKinds[n.Type()]
	if !ok {
		return Item{}, false
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		return Item{}, false
	}
	return Item{Name: name.Content(src), Kind: kind, Node: n}, true
}

// DocAttr is one documentation attribute: a doc comment or a
// #[doc = "..."] attribute. A `///` comment block is one attribute per line.
type DocAttr struct {
	// Text is the attribute's text as it appears in the source. For comments
	// it starts with Prefix; for attributes it is the string between the
	// quotes.
	Text   string
	Range  syntax.TextRange
	Prefix string
	// Malformed is set for doc attributes whose value is not a string
	// literal. They carry no text and are skipped.
	Malformed bool
}

// Documented is an item together with the documentation attached to it.
type Documented struct {
	Def   Item
	Attrs []DocAttr
}

// DocAttributes returns the documentation attached to n. Items collect the
// outer docs that precede them; the source file collects its leading inner
// docs. ok is false when n is not a documentable item or has no docs.
func DocAttributes(n *sitter.Node, src []byte) (*Documented, bool) {
	def, ok := definitionOf(n, src)
	if !ok {
		return nil, false
	}

	var attrs []DocAttr
	if n.Type() == "source_file" {
		attrs = innerDocs(n, src)
	} else {
		attrs = outerDocs(n, src)
	}
	if len(attrs) == 0 {
		return nil, false
	}
	return &Documented{Def: def, Attrs: attrs}, true
}

func outerDocs(n *sitter.Node, src []byte) []DocAttr {
	var attrs []DocAttr
	for s := n.PrevNamedSibling(); s != nil; s = s.PrevNamedSibling() {
		switch s.Type() {
		case "line_comment", "block_comment":
			if attr, ok := commentAttr(s, src, syntax.OuterDoc); ok {
				attrs = append(attrs, attr)
			}
			continue
		case "attribute_item":
			if attr, ok := docAttr(s, src); ok {
				attrs = append(attrs, attr)
			}
			continue
		}
		break
	}
	// Collected back to front.
	for i, j := 0, len(attrs)-1; i < j; i, j = i+1, j-1 {
		attrs[i], attrs[j] = attrs[j], attrs[i]
	}
	return attrs
}

func innerDocs(root *sitter.Node, src []byte) []DocAttr {
	var attrs []DocAttr
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		switch c.Type() {
		case "line_comment", "block_comment":
			if attr, ok := commentAttr(c, src, syntax.InnerDoc); ok {
				attrs = append(attrs, attr)
			}
			continue
		case "inner_attribute_item":
			if attr, ok := docAttr(c, src); ok {
				attrs = append(attrs, attr)
			}
			continue
		}
		break
	}
	return attrs
}

func commentAttr(n *sitter.Node, src []byte, style syntax.DocStyle) (DocAttr, bool) {
	text := n.Content(src)
	kind := syntax.ClassifyComment(text)
	if kind.Doc != style {
		return DocAttr{}, false
	}
	text = strings.TrimSuffix(text, "\n")
	if kind.Shape == syntax.BlockComment {
		text = strings.TrimSuffix(text, "*/")
	}
	return DocAttr{
		Text:   text,
		Range:  syntax.RangeAt(n.StartByte(), uint32(len(text))),
		Prefix: kind.Prefix(),
	}, true
}

// docAttr reads #[doc = "..."] and #![doc = "..."]. Other attributes,
// including #[doc(hidden)], are not documentation text.
func docAttr(item *sitter.Node, src []byte) (DocAttr, bool) {
	var attr *sitter.Node
	for i := 0; i < int(item.NamedChildCount()); i++ {
		if c := item.NamedChild(i); c.Type() == "attribute" {
			attr = c
			break
		}
	}
	if attr == nil || attr.NamedChildCount() == 0 || attr.NamedChild(0).Content(src) != "doc" {
		return DocAttr{}, false
	}
	value := attr.ChildByFieldName("value")
	if value == nil {
		return DocAttr{}, false
	}
	lit, ok := syntax.StringLiteralFromNode(value, src)
	if !ok {
		return DocAttr{Range: syntax.NodeRange(value), Malformed: true}, true
	}
	return DocAttr{Text: lit.Content(), Range: lit.ContentRange()}, true
}

// DocRangeMap maps ranges of the text returned by DocsWithRangeMap back to
// the document. Only ranges within a single docs line can be mapped.
type DocRangeMap struct {
	segs []docSegment
}

type docSegment struct {
	docs   syntax.TextRange
	source uint32
}

// Map translates a docs-text range into document coordinates.
func (m *DocRangeMap) Map(r syntax.TextRange) (syntax.TextRange, bool) {
	i := sort.Search(len(m.segs), func(i int) bool {
		return m.segs[i].docs.End >= r.End
	})
	if i == len(m.segs) || !m.segs[i].docs.ContainsRange(r) {
		return syntax.TextRange{}, false
	}
	seg := m.segs[i]
	return syntax.TextRange{
		Start: r.Start - seg.docs.Start + seg.source,
		End:   r.End - seg.docs.Start + seg.source,
	}, true
}

// DocsWithRangeMap joins the documentation lines with '\n', comment markers
// stripped and common indentation removed.
func (d *Documented) DocsWithRangeMap() (string, *DocRangeMap) {
	type line struct {
		text  string
		start uint32
	}
	var lines []line
	for _, attr := range d.Attrs {
		if attr.Malformed {
			continue
		}
		body := attr.Text[len(attr.Prefix):]
		start := attr.Range.Start + uint32(len(attr.Prefix))
		for _, l := range strings.Split(body, "\n") {
			lines = append(lines, line{text: strings.TrimRight(l, " \t\r"), start: start})
			start += uint32(len(l)) + 1
		}
	}

	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		if n := leadingSpace(l.text); indent < 0 || n < indent {
			indent = n
		}
	}
	indent = max(indent, 0)

	var buf strings.Builder
	m := &DocRangeMap{}
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		cut := min(indent, leadingSpace(l.text))
		text := l.text[cut:]
		at := uint32(buf.Len())
		buf.WriteString(text)
		m.segs = append(m.segs, docSegment{
			docs:   syntax.RangeAt(at, uint32(len(text))),
			source: l.start + uint32(cut),
		})
	}
	return buf.String(), m
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// definitionTable indexes the named items of one document.
type definitionTable struct {
	byName map[string][]Item
}

func collectDefinitions(root *sitter.Node, src []byte) *definitionTable {
	t := &definitionTable{byName: make(map[string][]Item)}
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() != "source_file" && n.Type() != "impl_item" {
			if def, ok := definitionOf(n, src); ok && def.Name != "" {
				t.byName[def.Name] = append(t.byName[def.Name], def)
			}
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
	return t
}

// lookup returns the first definition of name, in document order, whose
// kind lives in ns.
func (t *definitionTable) lookup(name string, ns Namespace) (Item, bool) {
	for _, def := range t.byName[name] {
		if !ns.admits(def.Kind) {
			continue
		}
		if ns == ValueNamespace && def.Kind == "struct" && hasNamedFields(def.Node) {
			continue
		}
		return def, true
	}
	return Item{}, false
}

// hasNamedFields reports whether a struct item declares braced fields, which
// keeps it out of the value namespace.
func hasNamedFields(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	body := n.ChildByFieldName("body")
	return body != nil && body.Type() == "field_declaration_list"
}
