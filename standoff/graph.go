package standoff

import (
	"encoding/json"
	"sort"

	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/utils"
)

// Graph is the materialized annotation graph of one document.
type Graph struct {
	DocID       string
	Config      string
	ids         *IDMap
	events      []*types.Annotation
	orderBySpan bool
}

func (graph *Graph) Get(id string) (*types.Annotation, bool) {
	if graph.ids == nil {
		return nil, false
	}
	return graph.ids.Resolve(id)
}

// IDs exposes the document id map, e.g. to seed further event files.
func (graph *Graph) IDs() *IDMap {
	return graph.ids
}

// Themes returns the T annotations in registration order.
func (graph *Graph) Themes() []*types.Annotation {
	var themes []*types.Annotation
	if graph.ids == nil {
		return themes
	}
	for _, ann := range graph.ids.Annotations() {
		if hasMarker(ann.ID(), themeMarker) {
			themes = append(themes, ann)
		}
	}
	return themes
}

// Events returns the events in event-file order.
func (graph *Graph) Events() []*types.Annotation {
	return graph.events
}

func (graph *Graph) Export() types.GraphResponse {
	resp := types.GraphResponse{
		DocId:  graph.DocID,
		Config: graph.Config,
		Themes: exportEntries(graph.Themes(), graph.orderBySpan),
		Events: exportEntries(graph.events, false),
	}
	resp.Fingerprint = utils.FormatHash(fingerprint(resp.Themes, resp.Events))
	return resp
}

func (graph *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graph.Export())
}

func (graph *Graph) Fingerprint() uint64 {
	resp := graph.Export()
	return fingerprint(resp.Themes, resp.Events)
}

func fingerprint(themes []types.AnnotationEntry, events []types.AnnotationEntry) uint64 {
	themesBuf, err := json.Marshal(themes)
	if err != nil {
		panic(err)
	}
	eventsBuf, err := json.Marshal(events)
	if err != nil {
		panic(err)
	}
	return utils.HashBytes(themesBuf, eventsBuf)
}

func exportEntries(anns []*types.Annotation, orderBySpan bool) []types.AnnotationEntry {
	entries := make([]*types.AnnotationEntry, 0, len(anns))
	for _, ann := range anns {
		entries = append(entries, exportEntry(ann))
	}
	if orderBySpan {
		spans := make(types.Spans, len(entries))
		for i, entry := range entries {
			spans[i] = entry
		}
		sort.Stable(spans)
		for i, span := range spans {
			entries[i] = span.(*types.AnnotationEntry)
		}
	}
	result := make([]types.AnnotationEntry, len(entries))
	for i, entry := range entries {
		result[i] = *entry
	}
	return result
}

func exportEntry(ann *types.Annotation) *types.AnnotationEntry {
	entry := &types.AnnotationEntry{
		Id:   ann.ID(),
		Type: ann.Type(),
		Span: [2]int32{ann.Begin, ann.End},
		Text: ann.CoveredText,
	}
	for _, slot := range ann.Slots() {
		switch {
		case slot.Name == types.SlotEntityID:
			continue
		case slot.Kind == types.SlotComplex:
			if entry.Relations == nil {
				entry.Relations = make(map[string][]string)
			}
			for _, ref := range slot.Refs {
				entry.Relations[slot.Name] = append(entry.Relations[slot.Name], ref.ID())
			}
		default:
			if entry.Attributes == nil {
				entry.Attributes = make(map[string][]string)
			}
			entry.Attributes[slot.Name] = append(entry.Attributes[slot.Name], slot.Values...)
		}
	}
	return entry
}
