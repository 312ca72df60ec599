package voices_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/voiceprefs"
	"github.com/book-expert/unified-tts/internal/voices"
)

func writeVoice(t *testing.T, root, name, ext, transcript string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reference"+ext), []byte("audio"), 0o600))

	if transcript != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "transcript.txt"), []byte(transcript), 0o600))
	}
}

func TestReloadDiscoversValidVoices(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeVoice(t, root, "rick", ".wav", "wubba lubba dub dub")
	writeVoice(t, root, "morty", ".mp3", "aw geez")

	reg := voices.New(root, nil, nil)

	assert.Equal(t, []string{"morty", "rick"}, reg.List())

	v, ok := reg.Get("rick")
	require.True(t, ok)
	assert.Equal(t, "wubba lubba dub dub", v.ReferenceTranscript)
	assert.True(t, v.IsClone)
}

func TestReloadSkipsIncompleteVoiceDirs(t *testing.T) {
	t.Parallel()

	// A directory without reference audio is skipped; transcript.txt is
	// optional, so a directory with reference audio alone is registered.
	root := t.TempDir()
	writeVoice(t, root, "missing-transcript", ".wav", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-audio"), 0o750))

	reg := voices.New(root, nil, nil)

	assert.Equal(t, []string{"missing-transcript"}, reg.List())
}

func TestReloadMissingDirectoryIsNotFatal(t *testing.T) {
	t.Parallel()

	reg := voices.New(filepath.Join(t.TempDir(), "does-not-exist"), nil, nil)

	assert.Equal(t, 0, reg.Reload())
	assert.Empty(t, reg.List())
}

type fakeBackendSource struct {
	kind   string
	voices []string
}

func (f fakeBackendSource) Kind() string      { return f.kind }
func (f fakeBackendSource) VoiceNames() []string { return f.voices }

func TestSetBackendSourcesMergesPresetVoices(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeVoice(t, root, "rick", ".wav", "wubba lubba dub dub")

	reg := voices.New(root, nil, nil)
	reg.SetBackendSources([]voices.BackendVoiceSource{
		fakeBackendSource{kind: "kokoro", voices: []string{"af_heart", "am_adam"}},
	})

	assert.ElementsMatch(t, []string{"af_heart", "am_adam", "rick"}, reg.List())

	v, ok := reg.Get("af_heart")
	require.True(t, ok)
	assert.Equal(t, "preset", v.Category)
	assert.Equal(t, "kokoro", v.Backend)
	assert.False(t, v.IsClone)
}

func TestSetBackendSourcesCloneShadowsBackendPresetOfTheSameName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeVoice(t, root, "adam", ".wav", "a cloned adam")

	reg := voices.New(root, nil, nil)
	reg.SetBackendSources([]voices.BackendVoiceSource{
		fakeBackendSource{kind: "elevenlabs", voices: []string{"adam"}},
	})

	v, ok := reg.Get("adam")
	require.True(t, ok)
	assert.Equal(t, "clone", v.Category)
	assert.True(t, v.IsClone)
}

func TestPreferredBackend(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeVoice(t, root, "rick", ".wav", "wubba lubba dub dub")

	prefsPath := filepath.Join(t.TempDir(), "voice_prefs.json")
	prefs := voiceprefs.New(prefsPath, nil)
	require.NoError(t, prefs.Set("rick", "elevenlabs"))

	reg := voices.New(root, prefs, nil)

	backend, ok := reg.PreferredBackend("rick")
	require.True(t, ok)
	assert.Equal(t, "elevenlabs", backend)

	_, ok = reg.PreferredBackend("morty")
	assert.False(t, ok)
}
