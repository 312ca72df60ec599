package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const kokoroModel = "kokoro"

// kokoroVoices is Kokoro's native catalog, ported from the reference
// implementation's kokoro.py.
var kokoroVoices = map[string]bool{
	"af_heart": true, "af_bella": true, "af_nicole": true, "af_sarah": true, "af_sky": true,
	"am_adam": true, "am_michael": true,
	"bf_emma": true, "bf_isabella": true,
	"bm_george": true, "bm_lewis": true,
}

// kokoroVoiceAliases maps OpenAI-style voice names (VOICE_MAP in the
// reference implementation) onto kokoro-native names.
var kokoroVoiceAliases = map[string]string{
	"alloy":   "af_heart",
	"echo":    "am_adam",
	"fable":   "bf_emma",
	"onyx":    "bm_george",
	"nova":    "af_bella",
	"shimmer": "af_sky",
}

// kokoroAdapter speaks Kokoro's REST+JSON /v1/audio/speech endpoint.
type kokoroAdapter struct {
	baseURL string
	client  *http.Client
}

func newKokoroAdapter(baseURL string, profile core.BackendProfile) *kokoroAdapter {
	return &kokoroAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
	}
}

func (a *kokoroAdapter) Kind() string { return profiles.Kokoro }

func (a *kokoroAdapter) SupportsVoice(voice string) bool {
	name := resolveKokoroVoice(voice)

	return kokoroVoices[name]
}

// VoiceNames reports kokoro's native preset catalog, for merging into
// the voice registry's listing.
func (a *kokoroAdapter) VoiceNames() []string {
	return mapKeys(kokoroVoices)
}

// kokoroResponseFormats is the set kokoro.py validates response_format
// against before forwarding it; anything outside this set falls back to
// wav.
var kokoroResponseFormats = map[string]bool{
	"wav": true, "mp3": true, "opus": true, "flac": true,
}

func resolveKokoroFormat(hint string) string {
	if kokoroResponseFormats[hint] {
		return hint
	}

	return "wav"
}

func (a *kokoroAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	format := resolveKokoroFormat(req.FormatHint)

	payload := withSpeed(map[string]any{
		"model":           kokoroModel,
		"voice":           resolveKokoroVoice(req.Voice),
		"input":           req.Text,
		"response_format": format,
	}, req.Speed)

	data, contentType, err := postJSONForAudio(ctx, a.client, a.baseURL+"/v1/audio/speech", payload)
	if err != nil {
		return AdapterOutput{}, err
	}

	return AdapterOutput{Data: data, Format: formatFromContentType(contentType)}, nil
}

func (a *kokoroAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}

func resolveKokoroVoice(voice string) string {
	name := strings.ToLower(voice)
	if alias, ok := kokoroVoiceAliases[name]; ok {
		return alias
	}

	return name
}
