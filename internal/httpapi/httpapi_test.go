package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/health"
	"github.com/book-expert/unified-tts/internal/httpapi"
	"github.com/book-expert/unified-tts/internal/voiceprefs"
	"github.com/book-expert/unified-tts/internal/voices"
)

type fakePipeline struct {
	result core.SynthesisResult
	err    error
}

func (f fakePipeline) Synthesize(_ context.Context, _ core.SynthesisRequest) (core.SynthesisResult, error) {
	return f.result, f.err
}

type fakeBackendState struct {
	kind string
}

func (f *fakeBackendState) Get() string { return f.kind }

func (f *fakeBackendState) Set(kind string) error {
	f.kind = kind

	return nil
}

func newServer(t *testing.T, pipeline httpapi.Synthesizer) (*httptest.Server, *fakeBackendState) {
	t.Helper()

	voiceRegistry := voices.New(filepath.Join(t.TempDir(), "voices"), nil, nil)
	prefs := voiceprefs.New(filepath.Join(t.TempDir(), "voice_prefs.json"), nil)
	tracker := health.NewTracker([]string{"openaudio", "higgs"})
	backend := &fakeBackendState{kind: "openaudio"}

	srv := httpapi.New(pipeline, voiceRegistry, prefs, tracker, backend, []string{"openaudio", "higgs"}, nil)

	return httptest.NewServer(srv.Handler()), backend
}

func TestHandleSpeechReturnsAudioOnSuccess(t *testing.T) {
	t.Parallel()

	pipeline := fakePipeline{result: core.SynthesisResult{
		Encoded:      []byte("fake-mp3-bytes"),
		ContentType:  "audio/mpeg",
		BackendsUsed: []string{"openaudio"},
	}}

	server, _ := newServer(t, pipeline)
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"model": "tts-1", "voice": "alloy", "input": "hello there"})

	resp, err := http.Post(server.URL+"/v1/audio/speech", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
}

func TestHandleSpeechMapsVoiceUnknownTo404(t *testing.T) {
	t.Parallel()

	pipeline := fakePipeline{err: core.NewError(core.KindVoiceUnknown, "no backend claims voice", nil)}
	server, _ := newServer(t, pipeline)
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"voice": "nonexistent", "input": "hi"})

	resp, err := http.Post(server.URL+"/v1/audio/speech", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var decoded map[string]map[string]string

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "voice_unknown", decoded["error"]["kind"])
}

func TestHandleSpeechMapsChunkTooLargeTo413(t *testing.T) {
	t.Parallel()

	pipeline := fakePipeline{err: core.NewError(core.KindChunkTooLarge, "clause split still too large", nil)}
	server, _ := newServer(t, pipeline)
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"voice": "alloy", "input": "hi"})

	resp, err := http.Post(server.URL+"/v1/audio/speech", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHandleSpeechMapsBackendTransientExhaustedTo502(t *testing.T) {
	t.Parallel()

	pipeline := fakePipeline{err: core.NewError(core.KindBackendTransient, "all backends failed", nil)}
	server, _ := newServer(t, pipeline)
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"voice": "alloy", "input": "hi"})

	resp, err := http.Post(server.URL+"/v1/audio/speech", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleSpeechRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/audio/speech", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHealthReportsCurrentDefault(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]string

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "ok", decoded["status"])
	assert.Equal(t, "openaudio", decoded["backend"])
}

func TestHandleSwitchBackendUpdatesDefault(t *testing.T) {
	t.Parallel()

	server, backend := newServer(t, fakePipeline{})
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"backend": "higgs"})

	resp, err := http.Post(server.URL+"/v1/backends/switch", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "higgs", backend.Get())
}

func TestHandleSwitchBackendRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/backends/switch", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleVoicePrefsSetThenList(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	body, _ := json.Marshal(map[string]any{"backend": "kokoro"})

	resp, err := http.Post(server.URL+"/v1/voice-prefs/rick", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(server.URL + "/v1/voice-prefs")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var decoded map[string]string

	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&decoded))
	assert.Equal(t, "kokoro", decoded["rick"])
}

func TestHandleBackendsReportsConfiguredKinds(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/backends")
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded struct {
		Backends map[string]string `json:"backends"`
		Default  string            `json:"default"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "unknown", decoded.Backends["openaudio"])
	assert.Equal(t, "openaudio", decoded.Default)
}

func TestHandleModelsListsOpenAIStyleEntry(t *testing.T) {
	t.Parallel()

	server, _ := newServer(t, fakePipeline{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/models")
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded struct {
		Data []map[string]string `json:"data"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Len(t, decoded.Data, 1)
	assert.Equal(t, "tts-1", decoded.Data[0]["id"])
}
