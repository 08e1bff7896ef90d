package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagonquiz/internal/models"
)

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "prefs.toml"))

	identity, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdentity{}, identity)
	assert.False(t, identity.IsActive())
}

func TestFileStoreSaveOverwritesAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wagonquiz", "prefs.toml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(models.SessionIdentity{Identifier: "first", Grade: 1}))
	require.NoError(t, store.Save(models.SessionIdentity{Identifier: "student42", Grade: 3}))

	identity, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdentity{Identifier: "student42", Grade: 3}, identity)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `PlayerUID = "student42"`)
	assert.Contains(t, string(data), "PlayerGrade = 3")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".prefs-"), "temp file %s left behind", e.Name())
	}
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "prefs.toml"))
	require.NoError(t, store.Save(models.SessionIdentity{Identifier: "s1", Grade: 2}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")

	identity, err := store.Load()
	require.NoError(t, err)
	assert.False(t, identity.IsActive())
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("PlayerGrade = [not toml"), 0600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	var store Store = NewMemoryStore()

	require.NoError(t, store.Save(models.SessionIdentity{Identifier: "s1", Grade: 2}))
	identity, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "s1", identity.Identifier)

	require.NoError(t, store.Clear())
	identity, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.SessionIdentity{}, identity)
}
