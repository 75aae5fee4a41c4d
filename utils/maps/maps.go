package maps

import (
	"fmt"
	"reflect"
	"strings"

	"text2phenotype.com/standoff/utils"
)

// jsonKey returns the object key of a tagged field. Untagged and "-"
// fields are not mapped.
func jsonKey(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	name := strings.Split(tag, ",")[0]
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}

func structOf(ptr interface{}) (reflect.Value, error) {
	value := reflect.ValueOf(ptr)
	if value.Kind() != reflect.Ptr {
		return reflect.Value{}, fmt.Errorf("%T is not a pointer", ptr)
	}
	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%T is not a struct pointer", ptr)
	}
	return value, nil
}

func mapToStruct(fromMap *map[string]interface{}, toPtr interface{}) error {
	value, err := structOf(toPtr)
	if err != nil {
		return err
	}
	valueType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := valueType.Field(i)
		key, ok := jsonKey(field)
		if !ok {
			continue
		}
		raw, ok := (*fromMap)[key]
		if !ok {
			continue
		}
		if err := readValue(raw, value.Field(i)); err != nil {
			return fmt.Errorf("got error at field %s: %w", field.Name, err)
		}
	}
	return nil
}

func readValue(raw interface{}, target reflect.Value) error {
	switch target.Kind() {
	case reflect.Struct:
		inner, ok := raw.(map[string]interface{})
		if !ok {
			return nil
		}
		return mapToStruct(&inner, target.Addr().Interface())
	case reflect.Slice:
		return readSlice(raw, target)
	case reflect.Map:
		return readMap(raw, target)
	case reflect.Ptr:
		if raw == nil {
			return nil
		}
		target.Set(reflect.New(target.Type().Elem()))
		return readValue(raw, target.Elem())
	default:
		return readPrimitive(raw, target)
	}
}

func readPrimitive(raw interface{}, target reflect.Value) (err error) {
	defer utils.RecoverWithError(&err)
	if raw == nil {
		return nil
	}
	target.Set(reflect.ValueOf(raw).Convert(target.Type()))
	return nil
}

func readSlice(raw interface{}, target reflect.Value) error {
	if raw == nil {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("expected slice, got %T", raw)
	}
	slice := reflect.MakeSlice(target.Type(), len(items), len(items))
	for i, item := range items {
		if err := readValue(item, slice.Index(i)); err != nil {
			return err
		}
	}
	target.Set(slice)
	return nil
}

func readMap(raw interface{}, target reflect.Value) error {
	if raw == nil {
		return nil
	}
	items, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map, got %T", raw)
	}
	m := reflect.MakeMapWithSize(target.Type(), len(items))
	elemType := target.Type().Elem()
	for key, item := range items {
		elem := reflect.New(elemType).Elem()
		if err := readValue(item, elem); err != nil {
			return err
		}
		m.SetMapIndex(reflect.ValueOf(key), elem)
	}
	target.Set(m)
	return nil
}

func updateMapFromStruct(mapToUpdate *map[string]interface{}, v interface{}) error {
	value, err := structOf(v)
	if err != nil {
		return err
	}
	valueType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := valueType.Field(i)
		key, ok := jsonKey(field)
		if !ok {
			continue
		}
		updated, err := makeUpdatedValue((*mapToUpdate)[key], value.Field(i))
		if err != nil {
			return fmt.Errorf("got error at field %s: %w", field.Name, err)
		}
		(*mapToUpdate)[key] = updated
	}
	return nil
}

// makeUpdatedValue merges value into current, so nested objects keep keys
// the struct does not declare.
func makeUpdatedValue(current interface{}, value reflect.Value) (interface{}, error) {
	switch value.Kind() {
	case reflect.Struct:
		inner, ok := current.(map[string]interface{})
		if current != nil && !ok {
			return nil, fmt.Errorf("expected inner structure to be map, got %T", current)
		}
		if inner == nil {
			inner = map[string]interface{}{}
		}
		// map values are not addressable
		addressable := reflect.New(value.Type())
		addressable.Elem().Set(value)
		if err := updateMapFromStruct(&inner, addressable.Interface()); err != nil {
			return nil, err
		}
		return inner, nil
	case reflect.Ptr:
		if value.IsNil() {
			return nil, nil
		}
		return makeUpdatedValue(current, value.Elem())
	case reflect.Slice:
		if value.IsNil() {
			return nil, nil
		}
		slice := make([]interface{}, value.Len())
		for i := range slice {
			item, err := makeUpdatedValue(nil, value.Index(i))
			if err != nil {
				return nil, err
			}
			slice[i] = item
		}
		return slice, nil
	case reflect.Map:
		if value.IsNil() {
			return nil, nil
		}
		m := make(map[string]interface{}, value.Len())
		iter := value.MapRange()
		for iter.Next() {
			item, err := makeUpdatedValue(nil, iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = item
		}
		return m, nil
	default:
		return value.Interface(), nil
	}
}
