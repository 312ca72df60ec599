package voices

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranscriberRequiresAPIKey(t *testing.T) {
	t.Setenv(envOpenAIAPIKey, "")

	_, ok := NewTranscriber()
	assert.False(t, ok)
}

func TestTranscriberTranscribeParsesWhisperResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"text": "hello from whisper"}`)
	}))
	defer server.Close()

	dir := t.TempDir()
	refPath := filepath.Join(dir, "reference.wav")
	require.NoError(t, os.WriteFile(refPath, []byte("audio"), 0o600))

	transcriber := &Transcriber{apiKey: "test-key", apiURL: server.URL, httpClient: server.Client()}

	text, err := transcriber.Transcribe(refPath)
	require.NoError(t, err)
	assert.Equal(t, "hello from whisper", text)
}

func TestReloadAutoTranscribesMissingTranscript(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text": "auto generated transcript"}`)
	}))
	defer server.Close()

	root := t.TempDir()
	voiceDir := filepath.Join(root, "rick")
	require.NoError(t, os.MkdirAll(voiceDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(voiceDir, "reference.wav"), []byte("audio"), 0o600))

	r := New(root, nil, nil)
	r.transcriber = &Transcriber{apiKey: "test-key", apiURL: server.URL, httpClient: server.Client()}
	r.Reload()

	v, ok := r.Get("rick")
	require.True(t, ok)
	assert.Equal(t, "auto generated transcript", v.ReferenceTranscript)

	persisted, err := os.ReadFile(filepath.Join(voiceDir, "transcript.txt"))
	require.NoError(t, err)
	assert.Equal(t, "auto generated transcript", string(persisted))
}
