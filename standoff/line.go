package standoff

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/utils"
)

const (
	themeMarker = 'T'
	eventMarker = 'E'

	roleTheme = "Theme"
	roleCause = "Cause"
)

var (
	themeRefPattern = regexp.MustCompile(`Theme:([ET]\d+)`)
	causeRefPattern = regexp.MustCompile(`Cause:([ET]\d+)`)
)

type lineReader struct {
	source string
	reader *bufio.Reader
	closer io.Closer
	lineNo int
	last   string
}

func newLineReader(source string, r io.Reader) *lineReader {
	lr := &lineReader{
		source: source,
		reader: bufio.NewReader(r),
	}
	if closer, ok := r.(io.Closer); ok {
		lr.closer = closer
	}
	return lr
}

// next returns the next line without its terminator, or io.EOF.
func (lr *lineReader) next() (string, error) {
	line, err := lr.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", &ReadError{Source: lr.source, Err: err}
	}
	if len(line) == 0 && err == io.EOF {
		return "", io.EOF
	}
	lr.lineNo++
	lr.last = strings.TrimRight(line, "\r\n")
	return lr.last, nil
}

func (lr *lineReader) lineError(line string, err error) error {
	return &LineError{Source: lr.source, Line: lr.lineNo, Text: line, Err: err}
}

func (lr *lineReader) close() error {
	if lr.closer == nil {
		return nil
	}
	closer := lr.closer
	lr.closer = nil
	return closer.Close()
}

func hasMarker(line string, marker byte) bool {
	return len(line) > 0 && line[0] == marker
}

// isStandoffID checks the <prefix><digits> shape of a standoff identifier.
func isStandoffID(id string, prefixes string) bool {
	if len(id) < 2 || strings.IndexByte(prefixes, id[0]) < 0 {
		return false
	}
	for _, r := range id[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseOffset(field string) (int32, error) {
	offset, err := strconv.ParseInt(field, 10, 32)
	if err != nil {
		return 0, malformed("offset %q is not an integer", field)
	}
	return int32(offset), nil
}

// parseThemeLine reads `T<id>\t<Type> <begin> <end>\t<text>`.
func parseThemeLine(line string, store utils.StringStore) (*types.Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, malformed("theme line needs an id, a type and two offsets")
	}
	id := fields[0]
	if !isStandoffID(id, "T") {
		return nil, malformed("%q is not a theme id", id)
	}
	begin, err := parseOffset(fields[2])
	if err != nil {
		return nil, err
	}
	end, err := parseOffset(fields[3])
	if err != nil {
		return nil, err
	}
	span, err := types.NewSpan(begin, end)
	if err != nil {
		return nil, malformed("%v", err)
	}

	var coveredText string
	if parts := strings.SplitN(line, "\t", 3); len(parts) == 3 {
		coveredText = parts[2]
	} else {
		coveredText = strings.Join(fields[4:], " ")
	}

	ann := types.NewAnnotation(store.Intern(fields[1]), span, coveredText)
	if err := ann.AddSlotValue(types.SlotEntityID, id); err != nil {
		return nil, err
	}
	return ann, nil
}

type eventLine struct {
	id        string
	eventType string
	trigger   string
	themes    []string
	cause     string
}

func (ev *eventLine) addTheme(ref string) {
	for _, theme := range ev.themes {
		if theme == ref {
			return
		}
	}
	ev.themes = append(ev.themes, ref)
}

// parseEventLine reads `E<id>\t<Type>:<trigger> (Theme:<ref>)* (Cause:<ref>)?`.
func parseEventLine(line string, grammar string) (eventLine, error) {
	var ev eventLine
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ev, malformed("event line needs an id and a type:trigger pair")
	}
	ev.id = fields[0]
	if !isStandoffID(ev.id, "E") {
		return ev, malformed("%q is not an event id", ev.id)
	}
	eventType, trigger, ok := strings.Cut(fields[1], ":")
	if !ok || eventType == "" {
		return ev, malformed("%q is not a type:trigger pair", fields[1])
	}
	if !isStandoffID(trigger, "TE") {
		return ev, malformed("trigger %q is not a standoff id", trigger)
	}
	ev.eventType = eventType
	ev.trigger = trigger

	if grammar == types.GrammarPattern {
		for _, match := range themeRefPattern.FindAllStringSubmatch(line, -1) {
			ev.addTheme(match[1])
		}
		if match := causeRefPattern.FindStringSubmatch(line); match != nil {
			ev.cause = match[1]
		}
		return ev, nil
	}

	for _, arg := range fields[2:] {
		role, ref, ok := strings.Cut(arg, ":")
		if !ok || role == "" {
			return ev, malformed("argument %q is not a role:id pair", arg)
		}
		if !isStandoffID(ref, "TE") {
			return ev, malformed("argument %q does not reference a standoff id", arg)
		}
		switch role {
		case roleTheme:
			ev.addTheme(ref)
		case roleCause:
			if ev.cause != "" {
				return ev, malformed("more than one cause")
			}
			ev.cause = ref
		}
	}
	return ev, nil
}
