package highlight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jward/prism/internal/syntax"
)

// Injector assembles a synthetic document out of text copied from an
// original document plus scaffolding, and maps ranges of the synthetic
// document back to the original.
//
// Each chunk records the synthetic range its text occupies and where that
// text starts in the original. Synthetic offsets grow with every append, so
// chunks are sorted by target range and MapRangeUp can binary search them.
type Injector struct {
	buf    strings.Builder
	chunks []chunk
}

type chunk struct {
	target syntax.TextRange
	source uint32
	mapped bool
}

// Add appends text copied from source. It panics if the lengths differ.
func (inj *Injector) Add(text string, source syntax.TextRange) {
	if uint32(len(text)) != source.Len() {
		panic(fmt.Sprintf("highlight: injected text length %d does not match source range %s", len(text), source))
	}
	inj.push(text, source.Start, true)
}

// AddUnmapped appends scaffolding text that has no original counterpart.
func (inj *Injector) AddUnmapped(text string) {
	inj.push(text, 0, false)
}

func (inj *Injector) push(text string, source uint32, mapped bool) {
	start := uint32(inj.buf.Len())
	inj.buf.WriteString(text)
	inj.chunks = append(inj.chunks, chunk{
		target: syntax.RangeAt(start, uint32(len(text))),
		source: source,
		mapped: mapped,
	})
}

// Text returns the assembled synthetic document.
func (inj *Injector) Text() string {
	return inj.buf.String()
}

// Len returns the length of the synthetic document.
func (inj *Injector) Len() uint32 {
	return uint32(inj.buf.Len())
}

// MapRangeUp maps a synthetic range to the original ranges it overlaps, one
// per overlapping mapped chunk, clipped to the overlap and in chunk order.
// An empty range maps through the chunk containing its offset. Ranges past
// the end of the synthetic document panic.
func (inj *Injector) MapRangeUp(r syntax.TextRange) []syntax.TextRange {
	if r.End > inj.Len() || r.Start > r.End {
		panic(fmt.Sprintf("highlight: range %s out of bounds for injected text of length %d", r, inj.Len()))
	}

	i := sort.Search(len(inj.chunks), func(i int) bool {
		return inj.chunks[i].target.End > r.Start
	})

	var out []syntax.TextRange
	if r.IsEmpty() {
		if i < len(inj.chunks) && inj.chunks[i].mapped && inj.chunks[i].target.Contains(r.Start) {
			out = append(out, inj.chunks[i].up(r))
		}
		return out
	}

	for ; i < len(inj.chunks) && inj.chunks[i].target.Start < r.End; i++ {
		c := inj.chunks[i]
		if !c.mapped {
			continue
		}
		overlap, ok := c.target.Intersect(r)
		if !ok || overlap.IsEmpty() {
			continue
		}
		out = append(out, c.up(overlap))
	}
	return out
}

// up translates a range inside c's target range into source coordinates.
func (c chunk) up(r syntax.TextRange) syntax.TextRange {
	return syntax.TextRange{
		Start: r.Start - c.target.Start + c.source,
		End:   r.End - c.target.Start + c.source,
	}
}
