package syntax

import "fmt"

// TextRange is a half-open byte range [Start, End) into a document.
type TextRange struct {
	Start uint32
	End   uint32
}

// NewRange returns [start, end). It panics if end < start.
func NewRange(start, end uint32) TextRange {
	if end < start {
		panic(fmt.Sprintf("syntax: invalid range %d..%d", start, end))
	}
	return TextRange{Start: start, End: end}
}

// RangeAt returns the range of the given length starting at offset.
func RangeAt(offset, length uint32) TextRange {
	return TextRange{Start: offset, End: offset + length}
}

// RangeOf returns [0, len(s)).
func RangeOf(s string) TextRange {
	return TextRange{End: uint32(len(s))}
}

func (r TextRange) Len() uint32   { return r.End - r.Start }
func (r TextRange) IsEmpty() bool { return r.Start == r.End }

// Contains reports whether offset lies in [Start, End).
func (r TextRange) Contains(offset uint32) bool {
	return r.Start <= offset && offset < r.End
}

// ContainsRange reports whether other lies entirely within r.
func (r TextRange) ContainsRange(other TextRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Intersect returns the overlap of r and other. ok is false when the ranges
// neither overlap nor touch.
func (r TextRange) Intersect(other TextRange) (TextRange, bool) {
	start := max(r.Start, other.Start)
	end := min(r.End, other.End)
	if start > end {
		return TextRange{}, false
	}
	return TextRange{Start: start, End: end}, true
}

// Shift moves the range forward by delta bytes.
func (r TextRange) Shift(delta uint32) TextRange {
	return TextRange{Start: r.Start + delta, End: r.End + delta}
}

func (r TextRange) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}
