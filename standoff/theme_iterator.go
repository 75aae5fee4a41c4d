package standoff

import (
	"io"

	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/utils"
)

// ThemeIterator is a forward-only sequence of the T lines of an entity
// stream. It never touches a Resolver unless drained into one.
type ThemeIterator struct {
	cursor
	lines *lineReader
	store utils.StringStore
}

func NewThemeIterator(source string, r io.Reader) *ThemeIterator {
	it := &ThemeIterator{
		lines: newLineReader(source, r),
		store: utils.NewStringStore(),
	}
	it.cursor = cursor{fill: it.fillNext, release: it.lines.close}
	return it
}

// HasNext buffers the next theme. Repeated calls without Next do not read.
func (it *ThemeIterator) HasNext() (bool, error) {
	return it.hasNext()
}

// Next returns the buffered theme, or ErrExhausted at the end of the stream.
func (it *ThemeIterator) Next() (*types.Annotation, error) {
	return it.next()
}

func (it *ThemeIterator) Close() error {
	return it.close()
}

// Collect reads all remaining themes.
func (it *ThemeIterator) Collect() ([]*types.Annotation, error) {
	var themes []*types.Annotation
	for {
		ok, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return themes, nil
		}
		ann, err := it.Next()
		if err != nil {
			return nil, err
		}
		themes = append(themes, ann)
	}
}

// Drain registers every remaining theme into resolver and returns the count.
func (it *ThemeIterator) Drain(resolver Resolver) (int, error) {
	count := 0
	for {
		ok, err := it.HasNext()
		if err != nil {
			return count, err
		}
		if !ok {
			return count, nil
		}
		ann, err := it.Next()
		if err != nil {
			return count, err
		}
		if err := resolver.Register(ann.ID(), ann); err != nil {
			return count, it.lines.lineError(it.lines.last, err)
		}
		count++
	}
}

func (it *ThemeIterator) fillNext() (*types.Annotation, error) {
	for {
		line, err := it.lines.next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !hasMarker(line, themeMarker) {
			continue
		}
		ann, err := parseThemeLine(line, it.store)
		if err != nil {
			return nil, it.lines.lineError(line, err)
		}
		return ann, nil
	}
}
