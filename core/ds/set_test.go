package ds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_AddReportsNovelty(t *testing.T) {
	s := NewSet[string]()
	require.True(t, s.IsEmpty())

	assert.True(t, s.Add("hello"))
	assert.False(t, s.Add("hello"), "re-adding must report the element as known")
	assert.False(t, s.IsEmpty())
	assert.Equal(t, 1, s.Len())
}

func TestSet_ValuesKeepInsertionOrder(t *testing.T) {
	s := NewSet("c", "a", "b")
	s.Add("a") // no-op, keeps position
	s.Add("d")
	require.Equal(t, []string{"c", "a", "b", "d"}, s.Values())
}

func TestSet_ValuesIsACopy(t *testing.T) {
	s := NewSet("a", "b")
	v := s.Values()
	v[0] = "z"
	require.Equal(t, []string{"a", "b"}, s.Values())
}

func TestSet_Contains(t *testing.T) {
	s := NewSet(1, 2, 3)
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(4))
}

func TestSet_DuplicatesInConstructor(t *testing.T) {
	s := NewSet("a", "b", "a")
	require.Equal(t, []string{"a", "b"}, s.Values())
	require.Equal(t, 2, s.Len())
}
