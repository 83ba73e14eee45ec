package highlight

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/jward/prism/internal/syntax"
)

// Namespace restricts which kinds of item a doc link may resolve to.
type Namespace int

const (
	AnyNamespace Namespace = iota
	TypeNamespace
	ValueNamespace
	MacroNamespace
)

func (ns Namespace) String() string {
	switch ns {
	case TypeNamespace:
		return "types"
	case ValueNamespace:
		return "values"
	case MacroNamespace:
		return "macros"
	default:
		return "any"
	}
}

func (ns Namespace) admits(kind string) bool {
	switch ns {
	case TypeNamespace:
		switch kind {
		case "struct", "enum", "union", "trait", "type_alias", "module", "variant", "builtin":
			return true
		}
		return false
	case ValueNamespace:
		// Unit and tuple structs are values too.
		switch kind {
		case "function", "method", "const", "static", "variant", "struct":
			return true
		}
		return false
	case MacroNamespace:
		return kind == "macro"
	default:
		return kind != "impl"
	}
}

// DocLink is a link found in documentation text.
type DocLink struct {
	Range     syntax.TextRange // in docs-text coordinates, brackets included
	Target    string
	Namespace Namespace
}

var namespacePrefixes = []struct {
	ns       Namespace
	prefixes []string
	suffixes []string
}{
	{TypeNamespace, []string{"type", "struct", "enum", "mod", "trait", "union", "module", "prim", "primitive"}, nil},
	{ValueNamespace, []string{"value", "function", "fn", "method", "const", "static", "mod", "module"}, []string{"()"}},
	{MacroNamespace, []string{"macro", "derive"}, []string{"!"}},
}

// ParseIntraDocLink strips backticks and namespace disambiguators from a
// link target: "struct@Foo" and "Foo" name the same item, "foo()" is a
// value and "foo!" is a macro.
func ParseIntraDocLink(s string) (string, Namespace) {
	s = strings.Trim(s, "`")
	for _, cand := range namespacePrefixes {
		for _, prefix := range cand.prefixes {
			if len(s) > len(prefix) && strings.HasPrefix(s, prefix) && (s[len(prefix)] == '@' || s[len(prefix)] == ' ') {
				return s[len(prefix)+1:], cand.ns
			}
		}
		for _, suffix := range cand.suffixes {
			if trimmed, ok := strings.CutSuffix(s, suffix); ok {
				return trimmed, cand.ns
			}
		}
	}
	return s, AnyNamespace
}

var bracketed = regexp.MustCompile(`\[([^\[\]\n]+)\]`)

// ExtractLinks returns the markdown links of docs. A shortcut reference
// with no matching definition, like [Foo] or [`Foo`], links to its own
// label.
func ExtractLinks(docs string) []DocLink {
	src := []byte(docs)
	md := goldmark.DefaultParser()

	// The first pass only collects the [label]: target definitions.
	defs := parser.NewContext()
	md.Parse(text.NewReader(src), parser.WithContext(defs))

	pc := parser.NewContext()
	for _, ref := range defs.References() {
		pc.AddReference(ref)
	}
	for _, m := range bracketed.FindAllSubmatch(src, -1) {
		label := m[1]
		if _, ok := pc.Reference(util.ToLinkReference(label)); !ok {
			pc.AddReference(parser.NewReference(label, label, nil))
		}
	}

	var links []DocLink
	doc := md.Parse(text.NewReader(src), parser.WithContext(pc))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		r, ok := linkRange(link, src)
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		target := string(link.Destination)
		if target == "" {
			target = string(link.Title)
		}
		target, ns := ParseIntraDocLink(target)
		links = append(links, DocLink{Range: r, Target: target, Namespace: ns})
		return ast.WalkSkipChildren, nil
	})
	return links
}

// linkRange finds the source span of a link: its label text widened to the
// enclosing brackets plus a trailing (destination) or [reference].
func linkRange(link *ast.Link, src []byte) (syntax.TextRange, bool) {
	start, stop := -1, -1
	_ = ast.Walk(link, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			if start < 0 || t.Segment.Start < start {
				start = t.Segment.Start
			}
			stop = max(stop, t.Segment.Stop)
		}
		return ast.WalkContinue, nil
	})
	if start < 0 {
		return syntax.TextRange{}, false
	}

	open := bytes.LastIndexByte(src[:start], '[')
	closing := bytes.IndexByte(src[stop:], ']')
	if open < 0 || closing < 0 {
		return syntax.TextRange{}, false
	}
	end := stop + closing + 1
	if end < len(src) {
		var term byte
		switch src[end] {
		case '(':
			term = ')'
		case '[':
			term = ']'
		}
		if term != 0 {
			if i := bytes.IndexByte(src[end:], term); i >= 0 {
				end += i + 1
			}
		}
	}
	return syntax.NewRange(uint32(open), uint32(end)), true
}
