package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const (
	elevenlabsDefaultBaseURL = "https://api.elevenlabs.io"
	elevenlabsDefaultVoice   = "adam"
	elevenlabsAPIKeyHeader   = "xi-api-key"
	elevenlabsModel          = "eleven_multilingual_v2"
)

// elevenlabsVoiceIDs is the preset voice-name-to-id table from the
// reference implementation's elevenlabs.py.
var elevenlabsVoiceIDs = map[string]string{
	"rachel": "21m00Tcm4TlvDq8ikWAM",
	"drew":   "29vD33N1CtxCmqQRPOHJ",
	"paul":   "5Q0t7uMcjvnagumLfvZi",
	"dave":   "CYw3kZ02Hs0563khs1Fj",
	"sarah":  "EXAVITQu4vr4xnSDxMaL",
	"adam":   "pNInz6obpgDQGcFmaJgB",
	"sam":    "yoZ06aMxZJJ28mfd3POQ",
}

// elevenlabsAdapter speaks ElevenLabs' cloud REST API. It is the only
// backend in this catalog that needs a bearer credential and returns
// mp3 rather than wav; its output is passed upstream as-is, so a
// single-chunk mp3 request can short-circuit through the pipeline
// without an ffmpeg round-trip.
type elevenlabsAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newElevenLabsAdapter(baseURL, apiKey string, profile core.BackendProfile) *elevenlabsAdapter {
	if baseURL == "" {
		baseURL = elevenlabsDefaultBaseURL
	}

	return &elevenlabsAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(profile.CallTimeoutSec),
	}
}

func (a *elevenlabsAdapter) Kind() string { return profiles.ElevenLabs }

func (a *elevenlabsAdapter) SupportsVoice(voice string) bool {
	return voice != ""
}

// VoiceNames reports elevenlabs' preset voice-name table, for merging
// into the voice registry's listing. Unlike SupportsVoice (which
// accepts any name and falls back to a default id), this only reports
// the names that actually map to a specific voice id.
func (a *elevenlabsAdapter) VoiceNames() []string {
	out := make([]string, 0, len(elevenlabsVoiceIDs))
	for name := range elevenlabsVoiceIDs {
		out = append(out, name)
	}

	return out
}

func resolveElevenLabsVoiceID(voice string) string {
	if id, ok := elevenlabsVoiceIDs[strings.ToLower(voice)]; ok {
		return id
	}

	return elevenlabsVoiceIDs[elevenlabsDefaultVoice]
}

type elevenlabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize ignores req.FormatHint: elevenlabs.py has no
// response_format parameter, it always returns mp3.
func (a *elevenlabsAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	voiceID := resolveElevenLabsVoiceID(req.Voice)

	payload := elevenlabsRequest{Text: req.Text, ModelID: elevenlabsModel}

	body, err := json.Marshal(payload)
	if err != nil {
		return AdapterOutput{}, fmt.Errorf("failed to marshal elevenlabs request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", a.baseURL, voiceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return AdapterOutput{}, fmt.Errorf("failed to create elevenlabs request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(elevenlabsAPIKeyHeader, a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return AdapterOutput{}, wrapTransientErr(err, "elevenlabs request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AdapterOutput{}, parseErrorResponse(resp)
	}

	mp3Data, err := io.ReadAll(resp.Body)
	if err != nil {
		return AdapterOutput{}, core.NewError(core.KindBackendTransient, "failed to read elevenlabs response", err)
	}

	return AdapterOutput{Data: mp3Data, Format: "mp3"}, nil
}

func (a *elevenlabsAdapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/user", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create elevenlabs health check request: %w", err)
	}

	req.Header.Set(elevenlabsAPIKeyHeader, a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return wrapTransientErr(err, "elevenlabs health check failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.NewError(core.KindBackendTransient, fmt.Sprintf("elevenlabs health check failed with status %s", resp.Status), nil)
	}

	return nil
}
