package voiceprefs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/voiceprefs"
)

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voice_prefs.json")
	store := voiceprefs.New(path, nil)

	_, ok := store.Get("Morty")
	assert.False(t, ok)

	require.NoError(t, store.Set("Morty", "openaudio"))

	backend, ok := store.Get("morty")
	require.True(t, ok)
	assert.Equal(t, "openaudio", backend)
}

func TestSetPersistsAcrossReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "voice_prefs.json")
	store := voiceprefs.New(path, nil)
	require.NoError(t, store.Set("Rick", "elevenlabs"))

	reloaded := voiceprefs.New(path, nil)
	backend, ok := reloaded.Get("rick")
	require.True(t, ok)
	assert.Equal(t, "elevenlabs", backend)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voice_prefs.json")
	store := voiceprefs.New(path, nil)
	require.NoError(t, store.Set("morty", "openaudio"))

	existed, err := store.Remove("MORTY")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok := store.Get("morty")
	assert.False(t, ok)

	existed, err = store.Remove("morty")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestAllReturnsDefensiveCopy(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voice_prefs.json")
	store := voiceprefs.New(path, nil)
	require.NoError(t, store.Set("morty", "openaudio"))

	snapshot := store.All()
	snapshot["morty"] = "tampered"

	backend, ok := store.Get("morty")
	require.True(t, ok)
	assert.Equal(t, "openaudio", backend)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store := voiceprefs.New(path, nil)

	assert.Empty(t, store.All())
}
