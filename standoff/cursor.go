package standoff

import "text2phenotype.com/standoff/types"

type cursorState int8

const (
	stateNeedsFill cursorState = iota
	stateBuffered
	stateExhausted
	stateFailed
)

// fillFunc produces the next item, or nil at the end of the stream.
type fillFunc func() (*types.Annotation, error)

// cursor is the pull state machine shared by the iterators. Only a
// NeedsFill cursor reads from its stream, so hasNext is idempotent.
// Exhausted and Failed are terminal and release the stream. An error from
// that release is kept for close.
type cursor struct {
	state      cursorState
	buffered   *types.Annotation
	err        error
	releaseErr error
	fill       fillFunc
	release    func() error
}

func (c *cursor) hasNext() (bool, error) {
	switch c.state {
	case stateBuffered:
		return true, nil
	case stateExhausted:
		return false, nil
	case stateFailed:
		return false, c.err
	}

	ann, err := c.fill()
	switch {
	case err != nil:
		c.state = stateFailed
		c.err = err
		c.releaseStream()
		return false, err
	case ann == nil:
		c.state = stateExhausted
		c.releaseStream()
		return false, nil
	}
	c.buffered = ann
	c.state = stateBuffered
	return true, nil
}

func (c *cursor) next() (*types.Annotation, error) {
	ok, err := c.hasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExhausted
	}
	ann := c.buffered
	c.buffered = nil
	c.state = stateNeedsFill
	return ann, nil
}

func (c *cursor) releaseStream() {
	if c.release != nil && c.releaseErr == nil {
		c.releaseErr = c.release()
	}
}

// close releases the stream early; later calls report exhaustion. It
// returns the error of the release, whether done here or at the end of
// the stream, until that error has been reported once.
func (c *cursor) close() error {
	if c.state == stateNeedsFill || c.state == stateBuffered {
		c.state = stateExhausted
		c.buffered = nil
	}
	c.releaseStream()
	err := c.releaseErr
	c.releaseErr = nil
	return err
}
