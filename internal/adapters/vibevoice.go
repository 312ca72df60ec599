package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const vibevoiceModel = "vibevoice-realtime-0.5b"

// vibevoiceVoices is VIBEVOICE_VOICES from the reference implementation's
// vibevoice.py.
var vibevoiceVoices = map[string]bool{
	"emma": true, "carter": true, "davis": true, "frank": true,
	"grace": true, "mike": true, "samuel": true,
}

// vibevoiceAdapter speaks VibeVoice's REST+JSON /v1/audio/speech endpoint
// with a fixed preset-voice catalog.
type vibevoiceAdapter struct {
	baseURL string
	client  *http.Client
}

func newVibeVoiceAdapter(baseURL string, profile core.BackendProfile) *vibevoiceAdapter {
	return &vibevoiceAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
	}
}

func (a *vibevoiceAdapter) Kind() string { return profiles.VibeVoice }

func (a *vibevoiceAdapter) SupportsVoice(voice string) bool {
	return vibevoiceVoices[strings.ToLower(voice)]
}

// VoiceNames reports vibevoice's native preset catalog, for merging
// into the voice registry's listing.
func (a *vibevoiceAdapter) VoiceNames() []string {
	return mapKeys(vibevoiceVoices)
}

// Synthesize ignores req.FormatHint: vibevoice.py hardcodes
// response_format to "wav" regardless of caller intent.
func (a *vibevoiceAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	payload := withSpeed(map[string]any{
		"model":           vibevoiceModel,
		"input":           req.Text,
		"voice":           strings.ToLower(req.Voice),
		"response_format": "wav",
	}, req.Speed)

	data, contentType, err := postJSONForAudio(ctx, a.client, a.baseURL+"/v1/audio/speech", payload)
	if err != nil {
		return AdapterOutput{}, err
	}

	return AdapterOutput{Data: data, Format: formatFromContentType(contentType)}, nil
}

func (a *vibevoiceAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}
