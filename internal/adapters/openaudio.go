package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

// Multipart form field names for the openaudio backend's upload endpoint.
const (
	openaudioFieldText     = "text"
	openaudioFieldRefAudio = "reference_audio"
	openaudioFieldRefText  = "reference_text"
	openaudioFieldSpeed    = "speed"
	openaudioDefaultSpeed  = 1.0
)

// openaudioAdapter speaks OpenAudio's multipart /v1/tts endpoint. It is a
// clone-type backend: any voice clone with reference audio registered in
// the voice registry is usable; its transcript, possibly empty, is sent
// as reference_text.
type openaudioAdapter struct {
	baseURL string
	client  *http.Client
	voices  VoiceLookup
}

func newOpenAudioAdapter(baseURL string, profile core.BackendProfile, voices VoiceLookup) *openaudioAdapter {
	return &openaudioAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
		voices:  voices,
	}
}

func (a *openaudioAdapter) Kind() string { return profiles.OpenAudio }

func (a *openaudioAdapter) SupportsVoice(voice string) bool {
	v, ok := a.voices.Get(voice)

	return ok && v.IsClone && v.ReferencePath != ""
}

// Synthesize ignores req.FormatHint: the form it sends has no format
// field, and the output format is read from the response Content-Type.
func (a *openaudioAdapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	if req.ReferencePath == "" {
		return AdapterOutput{}, core.NewError(core.KindVoiceUnknown, "openaudio requires reference audio for voice "+req.Voice, nil)
	}

	body, contentType, err := buildOpenAudioForm(req)
	if err != nil {
		return AdapterOutput{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/tts", body)
	if err != nil {
		return AdapterOutput{}, fmt.Errorf("failed to create openaudio request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentType)
	httpReq.Header.Set(headerAccept, "audio/*")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return AdapterOutput{}, wrapTransientErr(err, "openaudio request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AdapterOutput{}, parseErrorResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return AdapterOutput{}, core.NewError(core.KindBackendTransient, "failed to read openaudio response", err)
	}

	return AdapterOutput{Data: data, Format: formatFromContentType(resp.Header.Get(headerContentType))}, nil
}

func buildOpenAudioForm(req SynthesisInput) (*bytes.Buffer, string, error) {
	file, err := os.Open(req.ReferencePath)
	if err != nil {
		return nil, "", core.NewError(core.KindVoiceUnknown, "failed to open reference audio: "+err.Error(), err)
	}
	defer file.Close()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(openaudioFieldRefAudio, filepath.Base(req.ReferencePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy reference audio: %w", err)
	}

	if err := writer.WriteField(openaudioFieldText, req.Text); err != nil {
		return nil, "", fmt.Errorf("failed to write text field: %w", err)
	}

	if err := writer.WriteField(openaudioFieldRefText, req.ReferenceTranscript); err != nil {
		return nil, "", fmt.Errorf("failed to write reference text field: %w", err)
	}

	speed := req.Speed
	if speed <= 0 {
		speed = openaudioDefaultSpeed
	}

	if err := writer.WriteField(openaudioFieldSpeed, strconv.FormatFloat(speed, 'f', -1, 64)); err != nil {
		return nil, "", fmt.Errorf("failed to write speed field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func (a *openaudioAdapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}
