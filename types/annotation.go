package types

import (
	"errors"
	"fmt"
)

// Reserved slot names used by the standoff loader.
const (
	SlotEntityID = "entity ID"
	SlotHasTheme = "has theme"
	SlotHasCause = "has cause"
)

var ErrSlotKindMismatch = errors.New("slot kind mismatch")

type SlotKind int8

const (
	SlotPrimitive SlotKind = iota
	SlotComplex
)

func (kind SlotKind) Name() string {
	switch kind {
	case SlotComplex:
		return "complex"
	default:
		return "primitive"
	}
}

// Slot holds either scalar values or references to other annotations,
// never both. Values behave as a set: adding an existing value is a no-op.
type Slot struct {
	Name   string
	Kind   SlotKind
	Values []string
	Refs   []*Annotation
}

func (slot *Slot) add(value interface{}) error {
	switch v := value.(type) {
	case string:
		if slot.Kind != SlotPrimitive {
			return fmt.Errorf("%w: slot %q holds annotations, got string %q", ErrSlotKindMismatch, slot.Name, v)
		}
		for _, existing := range slot.Values {
			if existing == v {
				return nil
			}
		}
		slot.Values = append(slot.Values, v)
	case *Annotation:
		if slot.Kind != SlotComplex {
			return fmt.Errorf("%w: slot %q holds strings, got annotation", ErrSlotKindMismatch, slot.Name)
		}
		if v == nil {
			return fmt.Errorf("slot %q: nil annotation reference", slot.Name)
		}
		for _, existing := range slot.Refs {
			if existing == v {
				return nil
			}
		}
		slot.Refs = append(slot.Refs, v)
	default:
		return fmt.Errorf("%w: slot %q does not accept %T", ErrSlotKindMismatch, slot.Name, value)
	}
	return nil
}

// Annotation is a typed text annotation with named slots. Its type is fixed
// at construction.
type Annotation struct {
	Span
	CoveredText string
	typeName    string
	slots       []*Slot
}

func NewAnnotation(typeName string, span Span, coveredText string) *Annotation {
	return &Annotation{
		Span:        span,
		CoveredText: coveredText,
		typeName:    typeName,
	}
}

func (ann *Annotation) GetSpan() *Span {
	return &ann.Span
}

func (ann *Annotation) Type() string {
	return ann.typeName
}

// ID returns the standoff identifier stored in the entity ID slot.
func (ann *Annotation) ID() string {
	values := ann.PrimitiveValues(SlotEntityID)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// AddSlotValue appends value to the named slot, creating the slot on first
// use. Strings go to primitive slots, *Annotation values to complex slots.
func (ann *Annotation) AddSlotValue(name string, value interface{}) error {
	slot, ok := ann.Slot(name)
	if !ok {
		kind := SlotPrimitive
		if _, isRef := value.(*Annotation); isRef {
			kind = SlotComplex
		}
		slot = &Slot{Name: name, Kind: kind}
		if err := slot.add(value); err != nil {
			return err
		}
		ann.slots = append(ann.slots, slot)
		return nil
	}
	return slot.add(value)
}

func (ann *Annotation) Slot(name string) (*Slot, bool) {
	for _, slot := range ann.slots {
		if slot.Name == name {
			return slot, true
		}
	}
	return nil, false
}

func (ann *Annotation) Slots() []*Slot {
	return ann.slots
}

func (ann *Annotation) PrimitiveValues(name string) []string {
	slot, ok := ann.Slot(name)
	if !ok || slot.Kind != SlotPrimitive {
		return nil
	}
	return slot.Values
}

func (ann *Annotation) ComplexValues(name string) []*Annotation {
	slot, ok := ann.Slot(name)
	if !ok || slot.Kind != SlotComplex {
		return nil
	}
	return slot.Refs
}

func (ann *Annotation) Themes() []*Annotation {
	return ann.ComplexValues(SlotHasTheme)
}

func (ann *Annotation) Cause() *Annotation {
	refs := ann.ComplexValues(SlotHasCause)
	if len(refs) == 0 {
		return nil
	}
	return refs[0]
}

func (ann *Annotation) String() string {
	return fmt.Sprintf("%s %s%s", ann.ID(), ann.typeName, ann.Span)
}
