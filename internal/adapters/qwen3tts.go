package adapters

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const qwen3TTSModel = "qwen3-tts"

var qwen3TTSFallbackVoices = []string{"jenny", "default"}

// qwen3TTSAdapter speaks Qwen3-TTS's REST+JSON /v1/audio/speech endpoint.
// Its voice catalog is server-reported and fetched lazily, falling back
// to a fixed pair when the backend can't be reached yet. The catalog is
// probed from /v1/voices once and cached for the process lifetime.
type qwen3TTSAdapter struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	voices map[string]bool
	probed bool
}

func newQwen3TTSAdapter(baseURL string, profile core.BackendProfile) *qwen3TTSAdapter {
	return &qwen3TTSAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
	}
}

func (a *qwen3TTSAdapter) Kind() string { return profiles.Qwen3TTS }

func (a *qwen3TTSAdapter) SupportsVoice(voice string) bool {
	return a.knownVoices()[strings.ToLower(voice)]
}

// VoiceNames reports qwen3-tts's server-reported voice catalog (or the
// fixed fallback pair if the backend couldn't be probed yet), for
// merging into the voice registry's listing.
func (a *qwen3TTSAdapter) VoiceNames() []string {
	return mapKeys(a.knownVoices())
}

func (a *qwen3TTSAdapter) knownVoices() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.probed {
		return a.voices
	}

	voices := a.fetchVoices()
	a.voices = voices
	a.probed = true

	return voices
}

func (a *qwen3TTSAdapter) fetchVoices() map[string]bool {
	var resp struct {
		Voices []string `json:"voices"`
	}

	out := make(map[string]bool)

	ctx := context.Background()
	if err := getJSON(ctx, a.client, a.baseURL+"/v1/voices", &resp); err != nil || len(resp.Voices) == 0 {
		for _, v := range qwen3TTSFallbackVoices {
			out[v] = true
		}

		return out
	}

	for _, v := range resp.Voices {
		out[strings.ToLower(v)] = true
	}

	return out
}

// Synthesize ignores req.FormatHint: qwen3_tts.py hardcodes
// response_format to "wav" regardless of caller intent.
func (a *qwen3TTSAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	payload := withSpeed(map[string]any{
		"model":           qwen3TTSModel,
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

func (a *qwen3TTSAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}
