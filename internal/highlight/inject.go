package highlight

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/prism/internal/syntax"
)

// AnalyzeOptions tunes a nested analysis.
type AnalyzeOptions struct {
	// SyntacticNameRefs guesses the category of names that do not resolve
	// from their shape instead of marking them unresolved.
	SyntacticNameRefs bool
}

// Analyzer highlights a standalone document. Results must depend on text
// alone.
type Analyzer interface {
	HighlightDocument(ctx context.Context, text string, opts AnalyzeOptions) ([]HlRange, error)
}

// DefaultFixturePrefix marks parameters whose string arguments are fixtures.
const DefaultFixturePrefix = "ra_fixture"

// cursorMarker stands for the cursor position inside a fixture.
const cursorMarker = "$0"

// FixtureInjector highlights the contents of string literals passed to
// fixture parameters as standalone documents.
type FixtureInjector struct {
	Analyzer Analyzer
	Params   ActiveParameterLookup
	Prefix   string
}

// Inject highlights node if it is a string literal bound to a fixture
// parameter. It reports false, and adds nothing, when the site is not a
// fixture. Nothing is added either when the nested analysis fails.
func (f *FixtureInjector) Inject(ctx context.Context, sink Sink, node *sitter.Node, src []byte) (bool, error) {
	lit, ok := syntax.StringLiteralFromNode(node, src)
	if !ok {
		return false, nil
	}
	param, ok := f.Params.At(ctx, node)
	if !ok || !strings.HasPrefix(param.Name, f.Prefix) {
		return false, nil
	}
	value, ok := lit.Value()
	if !ok {
		return false, nil
	}

	var out Highlights
	out.Add(HlRange{Range: lit.OpenQuoteRange(), Highlight: H(StringLiteral)})

	var inj Injector
	splitMarkers(value, &inj, func(marker syntax.TextRange) {
		if r, ok := lit.MapRangeUp(marker); ok {
			out.Add(HlRange{Range: r, Highlight: H(Keyword)})
		}
	})

	ranges, err := f.Analyzer.HighlightDocument(ctx, inj.Text(), AnalyzeOptions{})
	if err != nil {
		return false, fmt.Errorf("highlight: fixture for %s: %w", param.Name, err)
	}
	for _, hl := range ranges {
		for _, r := range inj.MapRangeUp(hl.Range) {
			up, ok := lit.MapRangeUp(r)
			if !ok {
				continue
			}
			out.Add(HlRange{Range: up, Highlight: hl.Highlight.With(Injected), BindingHash: hl.BindingHash})
		}
	}

	out.Add(HlRange{Range: lit.CloseQuoteRange(), Highlight: H(StringLiteral)})
	for _, r := range out.Ranges() {
		sink.Add(r)
	}
	return true, nil
}

// splitMarkers copies text into inj, leaving out every cursor marker. Each
// marker's range in text is passed to onMarker.
func splitMarkers(text string, inj *Injector, onMarker func(syntax.TextRange)) {
	var offset uint32
	for text != "" {
		idx := strings.Index(text, cursorMarker)
		if idx < 0 {
			idx = len(text)
		}
		chunk := text[:idx]
		inj.Add(chunk, syntax.RangeAt(offset, uint32(len(chunk))))
		offset += uint32(len(chunk))
		text = text[idx:]

		if rest, ok := strings.CutPrefix(text, cursorMarker); ok {
			onMarker(syntax.RangeAt(offset, uint32(len(cursorMarker))))
			offset += uint32(len(cursorMarker))
			text = rest
		}
	}
}

// DoctestInjector highlights Rust code blocks in documentation and the
// intra-doc links around them.
type DoctestInjector struct {
	Analyzer Analyzer
	Links    LinkResolver
}

// Inject highlights the documentation attached to node. Links are added
// directly. Example code is wrapped in a function, highlighted as a
// standalone document, and mapped back. It reports whether any example
// code was found and highlighted.
func (d *DoctestInjector) Inject(ctx context.Context, sink Sink, node *sitter.Node, src []byte) (bool, error) {
	doc, ok := DocAttributes(node, src)
	if !ok {
		return false, nil
	}

	if d.Links != nil {
		docs, rangeMap := doc.DocsWithRangeMap()
		for _, link := range d.Links.ExtractLinks(docs) {
			res, ok := d.Links.Resolve(ctx, doc.Def, link.Target, link.Namespace)
			if !ok {
				continue
			}
			r, ok := rangeMap.Map(link.Range)
			if !ok {
				continue
			}
			sink.Add(HlRange{
				Range:     r,
				Highlight: H(tagForKind(res.Kind), Documentation, Injected, IntraDocLink),
			})
		}
	}

	inj, prefixes := assembleDoctest(doc.Attrs)
	if len(prefixes) == 0 {
		return false, nil
	}

	ranges, err := d.Analyzer.HighlightDocument(ctx, inj.Text(), AnalyzeOptions{SyntacticNameRefs: true})
	if err != nil {
		return false, fmt.Errorf("highlight: doctest for %q: %w", doc.Def.Name, err)
	}
	for _, hl := range ranges {
		for _, r := range inj.MapRangeUp(hl.Range) {
			sink.Add(HlRange{Range: r, Highlight: hl.Highlight.With(Injected), BindingHash: hl.BindingHash})
		}
	}
	for _, r := range prefixes {
		sink.Add(HlRange{Range: r, Highlight: H(Comment, Documentation)})
	}
	return true, nil
}

// assembleDoctest builds the synthetic document for the example code in
// attrs. It also returns the decoration skipped at the start of every code
// line. Fence state carries from one attribute to the next, since each
// `///` line is an attribute of its own.
func assembleDoctest(attrs []DocAttr) (*Injector, []syntax.TextRange) {
	inj := &Injector{}
	inj.AddUnmapped("fn doctest() {\n")

	var prefixes []syntax.TextRange
	inFence, isDoctest := false, false
	for _, attr := range attrs {
		if attr.Malformed {
			continue
		}
		// Only the first line of an attribute carries the comment marker.
		pos := len(attr.Prefix)
		next := attr.Range.Start
		for _, line := range strings.Split(attr.Text, "\n") {
			start := next
			next += uint32(len(line)) + 1
			p := pos
			pos = 0

			if idx := strings.Index(line, codeFence); idx >= 0 {
				inFence = !inFence
				isDoctest = inFence && IsRustFence(line[idx+len(codeFence):])
				continue
			}
			if !isDoctest {
				continue
			}

			p = skipDecoration(line, p)
			prefixes = append(prefixes, syntax.RangeAt(start, uint32(p)))
			inj.Add(line[p:], syntax.NewRange(start+uint32(p), start+uint32(len(line))))
			inj.AddUnmapped("\n")
		}
	}

	if len(prefixes) > 0 {
		inj.AddUnmapped("\n}")
	}
	return inj, prefixes
}

// skipDecoration returns where example code starts in line, searching from
// pos. One whitespace character after the comment marker is decoration.
// A hidden line starts with "#" followed by whitespace or nothing; "##" is an
// escaped "#".
func skipDecoration(line string, pos int) int {
	if r, size := utf8.DecodeRuneInString(line[pos:]); size > 0 && unicode.IsSpace(r) {
		pos += size
	}
	rest := line[pos:]
	switch {
	case strings.HasPrefix(rest, "##"):
		pos++
	case rest == "#" || rest == "#\r":
		pos++
	case strings.HasPrefix(rest, "# "), strings.HasPrefix(rest, "#\t"):
		pos += 2
	}
	return pos
}
