package types

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpan(t *testing.T) {
	span, err := NewSpan(3, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(0), span.Len())

	_, err = NewSpan(-1, 3)
	assert.Error(t, err)
	_, err = NewSpan(5, 3)
	assert.Error(t, err)
}

func TestSpanOverlaps(t *testing.T) {
	tests := map[string]struct {
		a, b     Span
		expected bool
	}{
		"disjoint":  {Span{0, 5}, Span{10, 15}, false},
		"touching":  {Span{0, 5}, Span{5, 10}, false},
		"partial":   {Span{0, 6}, Span{5, 10}, true},
		"nested":    {Span{0, 20}, Span{5, 10}, true},
		"identical": {Span{5, 10}, Span{5, 10}, true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.a.Overlaps(test.b))
			assert.Equal(t, test.expected, test.b.Overlaps(test.a))
		})
	}
}

func TestSpanContains(t *testing.T) {
	outer := Span{Begin: 0, End: 20}
	assert.True(t, outer.Contains(Span{Begin: 0, End: 20}))
	assert.True(t, outer.Contains(Span{Begin: 5, End: 10}))
	assert.False(t, outer.Contains(Span{Begin: 15, End: 25}))
}

func TestSpansSort(t *testing.T) {
	a := &AnnotationEntry{Id: "T3", Span: [2]int32{81, 90}}
	b := &AnnotationEntry{Id: "T1", Span: [2]int32{0, 5}}
	c := &AnnotationEntry{Id: "T2", Span: [2]int32{0, 3}}
	spans := Spans{a, b, c}
	sort.Stable(spans)

	assert.Equal(t, Spans{c, b, a}, spans)
}

func TestSpanHashAndString(t *testing.T) {
	assert.Equal(t, Span{Begin: 1, End: 2}.GetHashCode(), Span{Begin: 1, End: 2}.GetHashCode())
	assert.NotEqual(t, Span{Begin: 1, End: 2}.GetHashCode(), Span{Begin: 2, End: 1}.GetHashCode())
	assert.Equal(t, "[81,90)", Span{Begin: 81, End: 90}.String())
}
