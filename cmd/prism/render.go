package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jward/prism"
	"github.com/jward/prism/internal/highlight"
)

// palette maps highlight tags to terminal styles. Tags not listed are
// printed unstyled.
var palette = map[highlight.Tag]lipgloss.Style{
	highlight.Keyword:             fg("5").Bold(true),
	highlight.Function:            fg("4"),
	highlight.Method:              fg("4"),
	highlight.Macro:               fg("6").Bold(true),
	highlight.Struct:              fg("3"),
	highlight.Enum:                fg("3"),
	highlight.Union:               fg("3"),
	highlight.Trait:               fg("3").Italic(true),
	highlight.TypeAlias:           fg("3"),
	highlight.BuiltinType:         fg("3"),
	highlight.Variant:             fg("6"),
	highlight.Const:               fg("6"),
	highlight.Static:              fg("6"),
	highlight.Module:              fg("12"),
	highlight.Lifetime:            fg("13"),
	highlight.StringLiteral:       fg("2"),
	highlight.CharLiteral:         fg("2"),
	highlight.ByteLiteral:         fg("2"),
	highlight.NumericLiteral:      fg("9"),
	highlight.BoolLiteral:         fg("9"),
	highlight.EscapeSequence:      fg("11"),
	highlight.Comment:             fg("8"),
	highlight.Attribute:           fg("8"),
	highlight.UnresolvedReference: fg("1").Underline(true),
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion).Foreground(lipgloss.Color(color))
}

// renderColored writes src with every range styled by its tag. Where ranges
// nest, the innermost one wins, so injected code inside a string literal
// shows its own colors.
func renderColored(w io.Writer, src []byte, ranges []prism.HlRange) error {
	// owner[i] is the index of the innermost range covering byte i, or -1.
	owner := make([]int, len(src))
	for i := range owner {
		owner[i] = -1
	}
	// Ranges are sorted with outer ranges first, so later writes are inner.
	for idx, r := range ranges {
		for i := r.Range.Start; i < r.Range.End && int(i) < len(src); i++ {
			owner[i] = idx
		}
	}

	var b strings.Builder
	for start := 0; start < len(src); {
		end := start + 1
		for end < len(src) && owner[end] == owner[start] {
			end++
		}
		text := string(src[start:end])
		if o := owner[start]; o >= 0 {
			if style, ok := palette[ranges[o].Highlight.Tag]; ok {
				text = renderLines(style, text)
			}
		}
		b.WriteString(text)
		start = end
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderLines styles each line separately so that line breaks stay outside
// the escape sequences.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = style.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
