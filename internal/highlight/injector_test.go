package highlight

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/prism/internal/syntax"
)

func rng(start, end uint32) syntax.TextRange { return syntax.NewRange(start, end) }

// newTestInjector builds "fn f() {\n" + "abc" + "\n" + "defg" + "\n}" with the
// two code chunks copied from non-contiguous, out-of-order source ranges.
func newTestInjector() *Injector {
	inj := &Injector{}
	inj.AddUnmapped("fn f() {\n")
	inj.Add("abc", rng(100, 103))
	inj.AddUnmapped("\n")
	inj.Add("defg", rng(20, 24))
	inj.AddUnmapped("\n}")
	return inj
}

func TestInjector_TextIsConcatenation(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()
	assert.Equal(t, "fn f() {\nabc\ndefg\n}", inj.Text())
	assert.Equal(t, "fn f() {\nabc\ndefg\n}", inj.Text(), "Text must be stable across calls")
	assert.Equal(t, uint32(len(inj.Text())), inj.Len())
}

func TestInjector_LengthConservation(t *testing.T) {
	t.Parallel()
	parts := []string{"", "x", "", "hello", "\n", "", "$$"}
	inj := &Injector{}
	var total int
	for i, part := range parts {
		if i%2 == 0 {
			inj.AddUnmapped(part)
		} else {
			inj.Add(part, syntax.RangeAt(uint32(10*i), uint32(len(part))))
		}
		total += len(part)
	}
	assert.Equal(t, uint32(total), inj.Len())
}

func TestInjector_RoundTripCoverage(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()

	// Every offset inside a mapped chunk maps to the same relative offset of
	// its source range.
	for off := uint32(9); off < 12; off++ {
		got := inj.MapRangeUp(syntax.RangeAt(off, 1))
		require.Len(t, got, 1)
		assert.Equal(t, syntax.RangeAt(100+off-9, 1), got[0])
	}
	for off := uint32(13); off < 17; off++ {
		got := inj.MapRangeUp(syntax.RangeAt(off, 1))
		require.Len(t, got, 1)
		assert.Equal(t, syntax.RangeAt(20+off-13, 1), got[0])
	}
}

func TestInjector_UnmappedNeverMapped(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()
	assert.Empty(t, inj.MapRangeUp(rng(0, 9)), "scaffold prefix")
	assert.Empty(t, inj.MapRangeUp(rng(12, 13)), "newline between chunks")
	assert.Empty(t, inj.MapRangeUp(rng(17, 19)), "scaffold suffix")
}

func TestInjector_MapRangeUpSpansChunks(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()

	got := inj.MapRangeUp(rng(0, inj.Len()))
	want := []syntax.TextRange{rng(100, 103), rng(20, 24)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapRangeUp whole document (-want +got):\n%s", diff)
	}

	got = inj.MapRangeUp(rng(10, 15))
	want = []syntax.TextRange{rng(101, 103), rng(20, 22)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapRangeUp partial overlap (-want +got):\n%s", diff)
	}
}

func TestInjector_EmptyQuery(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()
	assert.Equal(t, []syntax.TextRange{rng(101, 101)}, inj.MapRangeUp(rng(10, 10)))
	assert.Empty(t, inj.MapRangeUp(rng(2, 2)))
	assert.Empty(t, inj.MapRangeUp(rng(inj.Len(), inj.Len())))
}

func TestInjector_EmptyChunks(t *testing.T) {
	t.Parallel()
	inj := &Injector{}
	inj.Add("", rng(0, 0))
	inj.Add("abc", rng(5, 8))
	inj.Add("", rng(8, 8))
	inj.Add("d", rng(40, 41))

	assert.Equal(t, "abcd", inj.Text())
	got := inj.MapRangeUp(rng(0, 4))
	want := []syntax.TextRange{rng(5, 8), rng(40, 41)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MapRangeUp (-want +got):\n%s", diff)
	}
}

func TestInjector_Panics(t *testing.T) {
	t.Parallel()
	inj := newTestInjector()
	assert.Panics(t, func() { inj.MapRangeUp(rng(0, inj.Len()+1)) })
	assert.Panics(t, func() { inj.Add("abc", rng(0, 4)) })
}
