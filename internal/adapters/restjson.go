package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/book-expert/unified-tts/internal/core"
)

// withSpeed adds a "speed" field to payload whenever speed is positive,
// including the default 1.0, for the handful of backends whose native
// API accepts a rate multiplier.
func withSpeed(payload map[string]any, speed float64) map[string]any {
	if speed > 0 {
		payload["speed"] = speed
	}

	return payload
}

// postJSONForAudio POSTs payload as JSON to url and returns the raw
// response body and its Content-Type: explicit headers, status-code
// branch to parseErrorResponse, no silent retry.
func postJSONForAudio(ctx context.Context, client *http.Client, url string, payload any) ([]byte, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, "audio/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", wrapTransientErr(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", parseErrorResponse(resp)
	}

	data, err := readAll(resp.Body)
	if err != nil {
		return nil, "", core.NewError(core.KindBackendTransient, "failed to read response body", err)
	}

	if len(data) == 0 {
		return nil, "", core.NewError(core.KindBackendTransient, "received empty audio data", nil)
	}

	contentType := resp.Header.Get(headerContentType)

	return data, contentType, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return wrapTransientErr(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func healthCheck(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return wrapTransientErr(err, "health check failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.NewError(core.KindBackendTransient, fmt.Sprintf("health check failed with status %s", resp.Status), nil)
	}

	return nil
}
