package standoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/standoff/types"
)

func newTheme(t *testing.T, id string, begin int32, end int32) *types.Annotation {
	t.Helper()
	span, err := types.NewSpan(begin, end)
	require.NoError(t, err)
	ann := types.NewAnnotation("protein", span, "x")
	require.NoError(t, ann.AddSlotValue(types.SlotEntityID, id))
	return ann
}

func TestIDMapOverwrite(t *testing.T) {
	ids := NewIDMap(types.DuplicateIDsOverwrite)
	first := newTheme(t, "T1", 0, 5)
	second := newTheme(t, "T2", 6, 9)
	replacement := newTheme(t, "T1", 10, 15)

	require.NoError(t, ids.Register("T1", first))
	require.NoError(t, ids.Register("T2", second))
	require.NoError(t, ids.Register("T1", replacement))

	got, ok := ids.Resolve("T1")
	require.True(t, ok)
	assert.Same(t, replacement, got)
	assert.Equal(t, []string{"T1", "T2"}, ids.IDs())
	assert.Equal(t, 2, ids.Len())
}

func TestIDMapReject(t *testing.T) {
	ids := NewIDMap(types.DuplicateIDsReject)
	first := newTheme(t, "T1", 0, 5)
	require.NoError(t, ids.Register("T1", first))

	err := ids.Register("T1", newTheme(t, "T1", 10, 15))
	assert.ErrorIs(t, err, ErrDuplicateID)
	got, _ := ids.Resolve("T1")
	assert.Same(t, first, got)
}

func TestIDMapRegisterNil(t *testing.T) {
	ids := NewIDMap("")
	assert.Error(t, ids.Register("T1", nil))
	assert.Equal(t, 0, ids.Len())
}

func TestIDMapCopy(t *testing.T) {
	ids := NewIDMap(types.DuplicateIDsOverwrite)
	require.NoError(t, ids.Register("T1", newTheme(t, "T1", 0, 5)))

	cp := ids.Copy()
	require.NoError(t, cp.Register("T2", newTheme(t, "T2", 6, 9)))

	assert.Equal(t, []string{"T1"}, ids.IDs())
	assert.Equal(t, []string{"T1", "T2"}, cp.IDs())
	original, _ := ids.Resolve("T1")
	copied, _ := cp.Resolve("T1")
	assert.Same(t, original, copied)
}

func TestNewIDMapFrom(t *testing.T) {
	seed := map[string]*types.Annotation{
		"E2":  newTheme(t, "E2", 0, 1),
		"T10": newTheme(t, "T10", 0, 1),
		"T2":  newTheme(t, "T2", 0, 1),
		"E1":  newTheme(t, "E1", 0, 1),
	}
	ids := NewIDMapFrom(seed)
	assert.Equal(t, []string{"T2", "T10", "E1", "E2"}, ids.IDs())

	// callers may keep mutating their own map
	delete(seed, "T2")
	_, ok := ids.Resolve("T2")
	assert.True(t, ok)
}
