package standoff

import (
	"fmt"
	"sort"
	"strconv"

	"text2phenotype.com/standoff/types"
)

// Resolver is the id lookup shared by theme and event parsing. A Register
// call must happen before any line that references the id is resolved.
type Resolver interface {
	Resolve(id string) (*types.Annotation, bool)
	Register(id string, ann *types.Annotation) error
}

// IDMap is the document-scoped Resolver. It remembers registration order.
type IDMap struct {
	annotations      map[string]*types.Annotation
	order            []string
	rejectDuplicates bool
}

func NewIDMap(duplicatePolicy string) *IDMap {
	return &IDMap{
		annotations:      make(map[string]*types.Annotation),
		rejectDuplicates: duplicatePolicy == types.DuplicateIDsReject,
	}
}

// NewIDMapFrom seeds an overwrite-policy map from plain annotations, in id order.
func NewIDMapFrom(annotations map[string]*types.Annotation) *IDMap {
	ids := make([]string, 0, len(annotations))
	for id := range annotations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return lessID(ids[i], ids[j])
	})
	m := NewIDMap(types.DuplicateIDsOverwrite)
	for _, id := range ids {
		_ = m.Register(id, annotations[id])
	}
	return m
}

func lessID(a string, b string) bool {
	if a == "" || b == "" {
		return a < b
	}
	if a[0] != b[0] {
		return a[0] > b[0] // T before E
	}
	na, errA := strconv.Atoi(a[1:])
	nb, errB := strconv.Atoi(b[1:])
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}

func (m *IDMap) Resolve(id string) (*types.Annotation, bool) {
	ann, ok := m.annotations[id]
	return ann, ok
}

// Register stores ann under id. An existing id is overwritten in place
// unless the map rejects duplicates.
func (m *IDMap) Register(id string, ann *types.Annotation) error {
	if ann == nil {
		return fmt.Errorf("nil annotation for %s", id)
	}
	if _, exists := m.annotations[id]; exists {
		if m.rejectDuplicates {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	} else {
		m.order = append(m.order, id)
	}
	m.annotations[id] = ann
	return nil
}

func (m *IDMap) Len() int {
	return len(m.order)
}

func (m *IDMap) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Annotations returns the registered annotations in registration order.
func (m *IDMap) Annotations() []*types.Annotation {
	anns := make([]*types.Annotation, 0, len(m.order))
	for _, id := range m.order {
		anns = append(anns, m.annotations[id])
	}
	return anns
}

// Copy returns an independent map holding the same annotations.
func (m *IDMap) Copy() *IDMap {
	cp := &IDMap{
		annotations:      make(map[string]*types.Annotation, len(m.annotations)),
		order:            make([]string, len(m.order)),
		rejectDuplicates: m.rejectDuplicates,
	}
	copy(cp.order, m.order)
	for id, ann := range m.annotations {
		cp.annotations[id] = ann
	}
	return cp
}
