package adapters

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

const voxcpmAPIName = "generate_speech"

// voxcpmAdapter speaks VoxCPM's Gradio session/channel protocol: a call
// is opened with a POST that returns an event id, then the result is
// fetched by polling that event's channel until a "complete" event
// arrives carrying the encoded audio. Grounded on the reference
// implementation's maya1.py, which drives the same two-step flow through
// the gradio_client library's Client.predict(..., api_name=...).
type voxcpmAdapter struct {
	baseURL string
	client  *http.Client
	voices  VoiceLookup
}

func newVoxCPMAdapter(baseURL string, profile core.BackendProfile, voices VoiceLookup) *voxcpmAdapter {
	return &voxcpmAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
		voices:  voices,
	}
}

func (a *voxcpmAdapter) Kind() string { return profiles.VoxCPM }

func (a *voxcpmAdapter) SupportsVoice(voice string) bool {
	v, ok := a.voices.Get(voice)

	return ok && v.IsClone && v.ReferencePath != ""
}

type voxcpmCallRequest struct {
	Data []any `json:"data"`
}

type voxcpmCallResponse struct {
	EventID string `json:"event_id"`
}

// Synthesize ignores req.FormatHint: the gradio_client channel protocol
// this backend speaks carries no response_format parameter and always
// streams wav.
func (a *voxcpmAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	eventID, err := a.openSession(ctx, req)
	if err != nil {
		return AdapterOutput{}, err
	}

	encoded, err := a.awaitResult(ctx, eventID)
	if err != nil {
		return AdapterOutput{}, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return AdapterOutput{}, core.NewError(core.KindStitchFailure, "failed to decode voxcpm audio payload", err)
	}

	return AdapterOutput{Data: data, Format: "wav"}, nil
}

func (a *voxcpmAdapter) openSession(ctx context.Context, req SynthesisInput) (string, error) {
	callReq := voxcpmCallRequest{
		Data: []any{req.Text, req.ReferencePath, req.ReferenceTranscript},
	}

	body, err := json.Marshal(callReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal voxcpm call: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/gradio_api/call/"+voxcpmAPIName, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to create voxcpm session request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", wrapTransientErr(err, "voxcpm session open failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseErrorResponse(resp)
	}

	var callResp voxcpmCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&callResp); err != nil {
		return "", core.NewError(core.KindBackendTransient, "failed to decode voxcpm session response", err)
	}

	return callResp.EventID, nil
}

// awaitResult polls the session's event channel, which streams
// server-sent events terminated by a "complete" event carrying the
// base64 audio payload as its data line.
func (a *voxcpmAdapter) awaitResult(ctx context.Context, eventID string) (string, error) {
	url := fmt.Sprintf("%s/gradio_api/call/%s/%s", a.baseURL, voxcpmAPIName, eventID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create voxcpm poll request: %w", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", wrapTransientErr(err, "voxcpm poll failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseErrorResponse(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var event, payload string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			payload = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}

		if event == "complete" && payload != "" {
			var out []string
			if err := json.Unmarshal([]byte(payload), &out); err == nil && len(out) > 0 {
				return out[0], nil
			}

			return payload, nil
		}

		if event == "error" {
			return "", core.NewError(core.KindBackendTransient, "voxcpm session reported an error: "+payload, nil)
		}
	}

	return "", core.NewError(core.KindBackendTransient, "voxcpm session closed before completing", nil)
}

func (a *voxcpmAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/")
}
