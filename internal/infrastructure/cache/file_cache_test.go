package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "replies"), 10, time.Hour)

	_, ok, err := c.Get(Key("model", "prompt"))
	require.NoError(t, err)
	assert.False(t, ok, "missing directory is a miss")

	require.NoError(t, c.Set(Key("model", "prompt"), `{"question_type":"simple_listing"}`))
	value, ok, err := c.Get(Key("model", "prompt"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"question_type":"simple_listing"}`, value)

	_, ok, _ = c.Get(Key("other-model", "prompt"))
	assert.False(t, ok)
}

func TestFileCacheExpires(t *testing.T) {
	c := NewFileCache(t.TempDir(), 10, time.Minute)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return start }
	require.NoError(t, c.Set("k", "v"))

	c.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, statErr := os.Stat(filepath.Join(c.Dir(), "k.json"))
	assert.True(t, os.IsNotExist(statErr), "expired entries are removed")
}

func TestFileCacheEvictsAndClears(t *testing.T) {
	c := NewFileCache(t.TempDir(), 3, 0)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, c.Set(k, k))
	}
	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, c.Clear())
	n, err = c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", ""), Key("a", "b"))
	assert.Len(t, Key("x"), 64)
}
