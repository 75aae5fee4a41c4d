package utils

import (
	"strings"
	"sync"
)

// StringStore interns lower-cased strings. A store lives as long as the
// document it serves, so type names from input never outlive their graph.
type StringStore interface {
	GetPointer(s string) *string
	Intern(s string) string
	Len() int
}

type stringStoreImpl struct {
	store sync.Map //map[string] *string
}

func (stringStore *stringStoreImpl) GetPointer(s string) *string {
	lowerS := strings.ToLower(s)
	if ptr, ok := stringStore.store.Load(lowerS); ok {
		return ptr.(*string)
	}
	ptr, _ := stringStore.store.LoadOrStore(lowerS, &lowerS)
	return ptr.(*string)
}

func (stringStore *stringStoreImpl) Intern(s string) string {
	return *stringStore.GetPointer(s)
}

func (stringStore *stringStoreImpl) Len() int {
	count := 0
	stringStore.store.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func NewStringStore() StringStore {
	return new(stringStoreImpl)
}
