package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s := NewStore(dir)
	require.NoError(t, s.Load())

	require.NoError(t, s.Put(NamespaceGeocode, "ALMA ST, Palo Alto, CA", map[string]float64{"latitude": 37.44}))
	require.NoError(t, s.Put(NamespaceCategory, "Grand theft", "Theft"))
	require.NoError(t, s.Flush())

	// A fresh store sees the persisted entries.
	s2 := NewStore(dir)
	require.NoError(t, s2.Load())

	var cat string
	ok, err := s2.GetInto(NamespaceCategory, "Grand theft", &cat)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Theft", cat)

	var geo map[string]float64
	ok, err = s2.GetInto(NamespaceGeocode, "ALMA ST, Palo Alto, CA", &geo)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 37.44, geo["latitude"])
}

func TestStoreNegativeEntry(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	require.NoError(t, s.Load())
	require.NoError(t, s.Put(NamespaceGeocode, "NOWHERE, Palo Alto, CA", nil))

	raw, ok := s.Get(NamespaceGeocode, "NOWHERE, Palo Alto, CA")
	assert.True(t, ok)
	assert.Equal(t, "null", string(raw))

	// GetInto reports a hit but leaves out untouched.
	out := map[string]float64{"latitude": 1}
	ok, err := s.GetInto(NamespaceGeocode, "NOWHERE, Palo Alto, CA", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.0, out["latitude"])
}

func TestStoreMiss(t *testing.T) {
	t.Parallel()

	s := NewStore(t.TempDir())
	require.NoError(t, s.Load())

	_, ok := s.Get(NamespaceGeocode, "unseen")
	assert.False(t, ok)

	var out string
	ok, err := s.GetInto(NamespaceCategory, "unseen", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreLoadTolerance(t *testing.T) {
	t.Parallel()

	t.Run("missing files start empty", func(t *testing.T) {
		t.Parallel()
		s := NewStore(filepath.Join(t.TempDir(), "never-created"))
		require.NoError(t, s.Load())
		assert.Zero(t, s.Len(NamespaceGeocode))
	})

	t.Run("corrupt file starts empty", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, string(NamespaceGeocode)+"_cache.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		s := NewStore(dir)
		require.NoError(t, s.Load())
		assert.Zero(t, s.Len(NamespaceGeocode))
	})
}

// Flushing then reloading then flushing again must not lose entries.
func TestStoreFlushMonotonic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s := NewStore(dir)
	require.NoError(t, s.Load())
	require.NoError(t, s.Put(NamespaceCategory, "a", "Theft"))
	require.NoError(t, s.Flush())

	s2 := NewStore(dir)
	require.NoError(t, s2.Load())
	require.NoError(t, s2.Put(NamespaceCategory, "b", "Fraud"))
	require.NoError(t, s2.Flush())

	data, err := os.ReadFile(filepath.Join(dir, string(NamespaceCategory)+"_cache.json"))
	require.NoError(t, err)

	var entries map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)
}

// Unmodified namespaces are not rewritten.
func TestStoreFlushOnlyDirty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s := NewStore(dir)
	require.NoError(t, s.Load())
	require.NoError(t, s.Put(NamespaceCategory, "a", "Theft"))
	require.NoError(t, s.Flush())

	_, err := os.Stat(filepath.Join(dir, string(NamespaceGeocode)+"_cache.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreFlushUnwritableDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	// A regular file where the cache dir should be makes MkdirAll fail.
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	s := NewStore(filepath.Join(blocked, "cache"))
	require.NoError(t, s.Load())
	require.NoError(t, s.Put(NamespaceCategory, "a", "Theft"))
	assert.Error(t, s.Flush())
}
