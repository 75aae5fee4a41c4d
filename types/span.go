package types

import (
	"fmt"

	"text2phenotype.com/standoff/utils"
)

type HasSpan interface {
	GetSpan() *Span
}

// Span is a half-open [Begin, End) interval of document character offsets.
type Span struct {
	Begin int32
	End   int32
}

func NewSpan(begin int32, end int32) (Span, error) {
	if begin < 0 {
		return Span{}, fmt.Errorf("span begin %d is negative", begin)
	}
	if begin > end {
		return Span{}, fmt.Errorf("span begin %d is after end %d", begin, end)
	}
	return Span{Begin: begin, End: end}, nil
}

func (span Span) Len() int32 {
	return span.End - span.Begin
}

// Overlaps reports whether the two intervals share at least one offset.
// Spans that only touch at a boundary do not overlap.
func (span Span) Overlaps(other Span) bool {
	return span.Begin < other.End && other.Begin < span.End
}

func (span Span) Contains(other Span) bool {
	return span.Begin <= other.Begin && span.End >= other.End
}

func (span Span) Less(other Span) bool {
	if span.Begin == other.Begin {
		return span.End < other.End
	}
	return span.Begin < other.Begin
}

func (span Span) String() string {
	return fmt.Sprintf("[%d,%d)", span.Begin, span.End)
}

func (span Span) GetHashCode() uint64 {
	key := fmt.Sprintf("%d_%d", span.Begin, span.End)
	return utils.HashString(key)
}

type Spans []HasSpan

func (spans Spans) Len() int {
	return len(spans)
}

func (spans Spans) Less(i int, j int) bool {
	return spans[i].GetSpan().Less(*spans[j].GetSpan())
}

func (spans Spans) Swap(i int, j int) {
	spans[i], spans[j] = spans[j], spans[i]
}
