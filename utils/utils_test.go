package utils

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringStoreInterns(t *testing.T) {
	store := NewStringStore()
	first := store.GetPointer("Gene_expression")
	second := store.GetPointer("GENE_EXPRESSION")

	assert.Same(t, first, second)
	assert.Equal(t, "gene_expression", *first)
	assert.Equal(t, "protein", store.Intern("Protein"))
	assert.Equal(t, 2, store.Len())
}

func TestStringStoreConcurrentUse(t *testing.T) {
	store := NewStringStore()
	pointers := make([]*string, 16)
	var wg sync.WaitGroup
	for i := range pointers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pointers[i] = store.GetPointer("Binding")
		}(i)
	}
	wg.Wait()
	for _, ptr := range pointers {
		assert.Same(t, pointers[0], ptr)
	}
}

func TestHashing(t *testing.T) {
	assert.Equal(t, HashString("T1"), HashBytes([]byte("T1")))
	assert.Equal(t, HashBytes([]byte("ab"), []byte("c")), HashBytes([]byte("abc")))
	assert.NotEqual(t, HashString("T1"), HashString("T2"))
	assert.Len(t, FormatHash(1), 16)
	assert.Equal(t, "00000000000000ff", FormatHash(255))
}

func TestRecoverWithError(t *testing.T) {
	run := func(fn func()) (err error) {
		defer RecoverWithError(&err)
		fn()
		return nil
	}
	require.NoError(t, run(func() {}))
	err := run(func() { panic(errors.New("boom")) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
