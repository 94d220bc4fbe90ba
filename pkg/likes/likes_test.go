package likes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	var s Set

	assert.True(t, s.Add("u1"))
	assert.False(t, s.Add("u1"))
	assert.True(t, s.Add("u2"))
	assert.False(t, s.Add(""))
	assert.Equal(t, Set{"u1", "u2"}, s)

	assert.True(t, s.Remove("u1"))
	assert.False(t, s.Remove("u1"))
	assert.Equal(t, Set{"u2"}, s)
	assert.False(t, s.Has("u1"))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, Set{"a", "b"}, Set{"a", "b", "a", "b"}.Dedup())
}
