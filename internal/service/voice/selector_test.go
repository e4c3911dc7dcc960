package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectors(t *testing.T) {
	items := []string{"a", "b", "c"}

	got, ok := Select[string](FirstSelector{}, items)
	require.True(t, ok)
	assert.Equal(t, "a", got)

	got, _ = Select[string](IndexSelector{Index: 1}, items)
	assert.Equal(t, "b", got)

	got, _ = Select[string](IndexSelector{Index: 9}, items)
	assert.Equal(t, "c", got)

	got, _ = Select[string](IndexSelector{Index: -2}, items)
	assert.Equal(t, "a", got)

	_, ok = Select[string](FirstSelector{}, nil)
	assert.False(t, ok)
}

func TestRandomSelector_SeedIsDeterministic(t *testing.T) {
	a := NewRandomSelector(42)
	b := NewRandomSelector(42)

	for i := 0; i < 20; i++ {
		pa := a.Pick(10)
		assert.Equal(t, pa, b.Pick(10))
		assert.GreaterOrEqual(t, pa, 0)
		assert.Less(t, pa, 10)
	}
}

func TestNewSelector(t *testing.T) {
	s, err := NewSelector("first", 0, 0)
	require.NoError(t, err)
	assert.IsType(t, FirstSelector{}, s)

	s, err = NewSelector("index", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, IndexSelector{Index: 2}, s)

	s, err = NewSelector("random", 0, 7)
	require.NoError(t, err)
	assert.IsType(t, &RandomSelector{}, s)

	_, err = NewSelector("closest", 0, 0)
	assert.Error(t, err)
}
