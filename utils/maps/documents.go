package maps

import (
	"encoding/json"
	"reflect"

	"text2phenotype.com/standoff/utils"
)

// PartialDocument is a typed view over a raw JSON object. Keys the struct
// does not declare survive a read-modify-write cycle untouched.
type PartialDocument interface {
	getRaw() *map[string]interface{}
	setRaw(*map[string]interface{})
	MarshalJSON() ([]byte, error)
}

type BaseDocument struct {
	rawMap *map[string]interface{}
}

func (doc *BaseDocument) getRaw() *map[string]interface{} {
	if doc.rawMap == nil {
		raw := map[string]interface{}{}
		doc.rawMap = &raw
	}
	return doc.rawMap
}

func (doc *BaseDocument) setRaw(raw *map[string]interface{}) {
	doc.rawMap = raw
}

func (doc *BaseDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(doc.getRaw())
}

// Decode parses a JSON object into doc, keeping the raw object for later saves.
func Decode(data []byte, doc PartialDocument) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return FillFromMap(doc, &raw)
}

func FillFromMap(doc PartialDocument, from *map[string]interface{}) error {
	if err := mapToStruct(from, doc); err != nil {
		return err
	}
	doc.setRaw(from)
	return nil
}

// CopyValues fills to with the fields it shares with from. The raw map of
// to only holds its own declared fields.
func CopyValues(from PartialDocument, to PartialDocument) error {
	if err := mapToStruct(from.getRaw(), to); err != nil {
		return err
	}
	copied := map[string]interface{}{}
	if err := updateMapFromStruct(&copied, to); err != nil {
		return err
	}
	to.setRaw(&copied)
	return nil
}

// ApplyUpdates calls updateFunc, a func(*T) where doc is a *T, and writes
// the changed fields back into the raw map.
func ApplyUpdates(doc PartialDocument, updateFunc interface{}) (err error) {
	if updateFunc == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)
	reflect.ValueOf(updateFunc).Call([]reflect.Value{reflect.ValueOf(doc)})
	return updateMapFromStruct(doc.getRaw(), doc)
}
