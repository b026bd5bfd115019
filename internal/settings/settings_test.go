package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Defaults(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)

	snap := store.Current()
	assert.True(t, snap.HasCategory("vegetable"))
	assert.True(t, snap.HasAllergen("gluten"))
	assert.False(t, snap.HasCategory("unicorn"))
}

func TestNewStore_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - vegetable\n  - vegetable\n  - ' '\nallergens:\n  - milk\n"), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)

	lists := store.Current().Lists()
	assert.Equal(t, []string{"vegetable"}, lists.Categories)
	assert.Equal(t, []string{"milk"}, lists.Allergens)
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allergens: [milk]\n"), 0o644))
	_, err = NewStore(path)
	assert.True(t, errors.Is(err, ErrEmptyCategories))
}

func TestReload_SwapsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [vegetable]\n"), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)
	before := store.Current()

	require.NoError(t, os.WriteFile(path, []byte("categories: [vegetable, dairy]\n"), 0o644))
	after, err := store.Reload()
	require.NoError(t, err)

	assert.False(t, before.HasCategory("dairy"), "old snapshot must not change")
	assert.True(t, after.HasCategory("dairy"))
	assert.Same(t, after, store.Current())
}

func TestReplace_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [vegetable]\n"), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)

	_, err = store.Replace(Lists{Categories: []string{"fish"}, Allergens: []string{"molluscs"}})
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.True(t, reopened.Current().HasCategory("fish"))
	assert.True(t, reopened.Current().HasAllergen("molluscs"))
	assert.False(t, reopened.Current().HasCategory("vegetable"))
}

func TestReplace_RejectsEmptyCategories(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)

	_, err = store.Replace(Lists{})
	assert.ErrorIs(t, err, ErrEmptyCategories)
	assert.True(t, store.Current().HasCategory("vegetable"))
}
