package adapters

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/core"
)

type fakeVoiceLookup struct {
	voices map[string]core.Voice
}

func (f fakeVoiceLookup) Get(name string) (core.Voice, bool) {
	v, ok := f.voices[name]

	return v, ok
}

func writeReferenceFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reference.wav")
	require.NoError(t, os.WriteFile(path, tinyWAV(t), 0o600))

	return path
}

func TestOpenAudioSupportsVoiceRequiresRegisteredClone(t *testing.T) {
	t.Parallel()

	refPath := writeReferenceFile(t)
	lookup := fakeVoiceLookup{voices: map[string]core.Voice{
		"rick": {Name: "rick", IsClone: true, ReferencePath: refPath},
		"bare": {Name: "bare", IsClone: true},
	}}

	adapter := newOpenAudioAdapter("http://example.invalid", testProfile(), lookup)

	assert.True(t, adapter.SupportsVoice("rick"))
	assert.False(t, adapter.SupportsVoice("bare"))
	assert.False(t, adapter.SupportsVoice("unknown"))
}

func TestOpenAudioSynthesizeUploadsMultipartForm(t *testing.T) {
	t.Parallel()

	refPath := writeReferenceFile(t)
	wav := tinyWAV(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)

		reader := multipart.NewReader(r.Body, params["boundary"])

		fields := map[string]string{}

		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}

			if part.FileName() != "" {
				continue
			}

			buf := make([]byte, 256)

			n, _ := part.Read(buf)
			fields[part.FormName()] = string(buf[:n])
		}

		assert.Equal(t, "hello there", fields["text"])
		assert.Equal(t, "reference transcript", fields["reference_text"])

		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wav)
	}))
	defer server.Close()

	lookup := fakeVoiceLookup{}
	adapter := newOpenAudioAdapter(server.URL, testProfile(), lookup)

	out, err := adapter.Synthesize(context.Background(), SynthesisInput{
		Text: "hello there", Voice: "rick",
		ReferencePath: refPath, ReferenceTranscript: "reference transcript",
	})
	require.NoError(t, err)
	assert.Equal(t, "wav", out.Format)
	assert.Equal(t, wav, out.Data)
}

func TestOpenAudioSynthesizeRejectsMissingReference(t *testing.T) {
	t.Parallel()

	adapter := newOpenAudioAdapter("http://example.invalid", testProfile(), fakeVoiceLookup{})

	_, err := adapter.Synthesize(context.Background(), SynthesisInput{Text: "hi", Voice: "rick"})
	require.Error(t, err)
	assert.Equal(t, core.KindVoiceUnknown, core.KindOf(err))
}

func TestVoxCPM15ClonesOnceThenReusesVoiceName(t *testing.T) {
	t.Parallel()

	refPath := writeReferenceFile(t)
	wav := tinyWAV(t)

	cloneCalls := 0
	speechCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/clone":
			cloneCalls++
			w.WriteHeader(http.StatusOK)
		case "/v1/audio/speech":
			speechCalls++
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(wav)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	lookup := fakeVoiceLookup{voices: map[string]core.Voice{
		"rick": {Name: "rick", IsClone: true, ReferencePath: refPath},
	}}
	adapter := newVoxCPM15Adapter(server.URL, testProfile(), lookup)

	req := SynthesisInput{Text: "one", Voice: "rick", ReferencePath: refPath, ReferenceTranscript: "t"}

	_, err := adapter.Synthesize(context.Background(), req)
	require.NoError(t, err)

	req.Text = "two"

	_, err = adapter.Synthesize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, cloneCalls)
	assert.Equal(t, 2, speechCalls)
}
