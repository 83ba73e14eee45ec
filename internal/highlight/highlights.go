package highlight

import (
	"sort"

	"github.com/jward/prism/internal/syntax"
)

// HlRange is one highlighted range of a document.
type HlRange struct {
	Range     syntax.TextRange
	Highlight Highlight
	// BindingHash identifies a local binding so that every use of it can be
	// colored alike. Nil for everything that is not a local.
	BindingHash *uint64
}

// Sink receives highlight ranges. The outer pass and both injectors append
// to the same Sink.
type Sink interface {
	Add(HlRange)
}

// Highlights is an append-only Sink.
type Highlights struct {
	ranges []HlRange
}

func (h *Highlights) Add(r HlRange) {
	h.ranges = append(h.ranges, r)
}

// Ranges returns the ranges in the order they were added.
func (h *Highlights) Ranges() []HlRange {
	return h.ranges
}

// Len returns the number of ranges added so far.
func (h *Highlights) Len() int { return len(h.ranges) }

// Sorted returns the ranges ordered by start offset. Among ranges with the
// same start, wider ranges come first so that nested ranges follow the range
// that contains them. The sort is stable.
func (h *Highlights) Sorted() []HlRange {
	out := make([]HlRange, len(h.ranges))
	copy(out, h.ranges)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.Start != out[j].Range.Start {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].Range.End > out[j].Range.End
	})
	return out
}
