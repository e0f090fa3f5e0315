package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_PutGet(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	key := Key{LibraryID: "lib1", Generation: 1, QueryFingerprint: "q1", K: 5}
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, []string{"a", "b"})
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestResultCache_GenerationChangeMisses(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	key1 := Key{LibraryID: "lib1", Generation: 1, QueryFingerprint: "q1", K: 5}
	key2 := Key{LibraryID: "lib1", Generation: 2, QueryFingerprint: "q1", K: 5}

	c.Put(key1, "result-at-gen-1")
	_, ok := c.Get(key2)
	assert.False(t, ok, "a generation bump must invalidate prior cache entries")
}

func TestResultCache_DisabledWhenCapacityZero(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	key := Key{LibraryID: "lib1", Generation: 1}
	c.Put(key, "x")
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestFilterFingerprint_OrderIndependent(t *testing.T) {
	a := FilterFingerprint(map[string]string{"color": "red", "lang": "en"}, nil)
	b := FilterFingerprint(map[string]string{"lang": "en", "color": "red"}, nil)
	assert.Equal(t, a, b)
}
