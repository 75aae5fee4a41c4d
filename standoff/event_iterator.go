package standoff

import (
	"io"

	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/utils"
)

// EventIterator is a forward-only sequence of the resolved E lines of an
// event stream. T lines met on the way are registered into the resolver
// before any later line is read, and are not emitted.
type EventIterator struct {
	cursor
	lines      *lineReader
	resolver   Resolver
	grammar    string
	store      utils.StringStore
	themesSeen int
}

func NewEventIterator(source string, r io.Reader, resolver Resolver, grammar string) *EventIterator {
	if grammar == "" {
		grammar = types.GrammarPositional
	}
	it := &EventIterator{
		lines:    newLineReader(source, r),
		resolver: resolver,
		grammar:  grammar,
		store:    utils.NewStringStore(),
	}
	it.cursor = cursor{fill: it.fillNext, release: it.lines.close}
	return it
}

// HasNext scans to the next E line and builds its event. Repeated calls
// without Next do not read.
func (it *EventIterator) HasNext() (bool, error) {
	return it.hasNext()
}

// Next returns the buffered event, or ErrExhausted at the end of the stream.
func (it *EventIterator) Next() (*types.Annotation, error) {
	return it.next()
}

func (it *EventIterator) Close() error {
	return it.close()
}

// ThemesSeen counts the T lines registered from the event stream so far.
func (it *EventIterator) ThemesSeen() int {
	return it.themesSeen
}

// Collect reads all remaining events.
func (it *EventIterator) Collect() ([]*types.Annotation, error) {
	var events []*types.Annotation
	for {
		ok, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return events, nil
		}
		ann, err := it.Next()
		if err != nil {
			return nil, err
		}
		events = append(events, ann)
	}
}

func (it *EventIterator) fillNext() (*types.Annotation, error) {
	for {
		line, err := it.lines.next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		switch {
		case hasMarker(line, themeMarker):
			if err := it.registerTheme(line); err != nil {
				return nil, it.lines.lineError(line, err)
			}
		case hasMarker(line, eventMarker):
			event, err := it.buildEvent(line)
			if err != nil {
				return nil, it.lines.lineError(line, err)
			}
			return event, nil
		}
	}
}

func (it *EventIterator) registerTheme(line string) error {
	theme, err := parseThemeLine(line, it.store)
	if err != nil {
		return err
	}
	if err := it.resolver.Register(theme.ID(), theme); err != nil {
		return err
	}
	it.themesSeen++
	return nil
}

func (it *EventIterator) buildEvent(line string) (*types.Annotation, error) {
	ev, err := parseEventLine(line, it.grammar)
	if err != nil {
		return nil, err
	}
	trigger, ok := it.resolver.Resolve(ev.trigger)
	if !ok {
		return nil, unresolved("trigger", ev.trigger)
	}

	event := types.NewAnnotation(it.store.Intern(ev.eventType), trigger.Span, trigger.CoveredText)
	if err := event.AddSlotValue(types.SlotEntityID, ev.id); err != nil {
		return nil, err
	}
	for _, ref := range ev.themes {
		theme, ok := it.resolver.Resolve(ref)
		if !ok {
			return nil, unresolved("theme", ref)
		}
		if err := event.AddSlotValue(types.SlotHasTheme, theme); err != nil {
			return nil, err
		}
	}
	if ev.cause != "" {
		cause, ok := it.resolver.Resolve(ev.cause)
		if !ok {
			return nil, unresolved("cause", ev.cause)
		}
		if err := event.AddSlotValue(types.SlotHasCause, cause); err != nil {
			return nil, err
		}
	}

	if err := it.resolver.Register(ev.id, event); err != nil {
		return nil, err
	}
	return event, nil
}
