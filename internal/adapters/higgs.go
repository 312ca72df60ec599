package adapters

import (
	"context"
	"net/http"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

// higgsAdapter speaks Higgs's REST+JSON /v1/audio/speech endpoint.
// Grounded on the reference implementation's higgs.py, which accepts any
// caller-supplied voice name with no catalog of its own.
type higgsAdapter struct {
	baseURL string
	client  *http.Client
}

func newHiggsAdapter(baseURL string, profile core.BackendProfile) *higgsAdapter {
	return &higgsAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
	}
}

func (a *higgsAdapter) Kind() string { return profiles.Higgs }

func (a *higgsAdapter) SupportsVoice(voice string) bool { return voice != "" }

// Synthesize ignores req.FormatHint: higgs.py has no response_format
// parameter, so this backend always answers in its native container.
func (a *higgsAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	payload := withSpeed(map[string]any{
		"input": req.Text,
		"voice": req.Voice,
	}, req.Speed)

	data, contentType, err := postJSONForAudio(ctx, a.client, a.baseURL+"/v1/audio/speech", payload)
	if err != nil {
		return AdapterOutput{}, err
	}

	return AdapterOutput{Data: data, Format: formatFromContentType(contentType)}, nil
}

func (a *higgsAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}
