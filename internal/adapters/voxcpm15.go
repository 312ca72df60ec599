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
	"strings"
	"sync"

	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

// voxcpm15Adapter speaks VoxCPM 1.5's two-endpoint REST protocol: a voice
// is registered once via a multipart /v1/clone call, then reused by name
// on subsequent /v1/audio/speech calls. Grounded directly on the
// reference implementation's voxcpm15.py, which already carries both
// patterns (clone-then-reuse) rather than cloning on every call.
type voxcpm15Adapter struct {
	baseURL string
	client  *http.Client
	voices  VoiceLookup

	mu     sync.Mutex
	cloned map[string]bool
}

func newVoxCPM15Adapter(baseURL string, profile core.BackendProfile, voices VoiceLookup) *voxcpm15Adapter {
	return &voxcpm15Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(profile.CallTimeoutSec),
		voices:  voices,
		cloned:  make(map[string]bool),
	}
}

func (a *voxcpm15Adapter) Kind() string { return profiles.VoxCPM15 }

func (a *voxcpm15Adapter) SupportsVoice(voice string) bool {
	v, ok := a.voices.Get(voice)

	return ok && v.IsClone && v.ReferencePath != ""
}

// Synthesize ignores req.FormatHint: voxcpm15.py hardcodes its own
// response_format field to "wav" regardless of caller intent.
func (a *voxcpm15Adapter) Synthesize(ctx context.Context, req SynthesisInput) (AdapterOutput, error) {
	if err := a.ensureCloned(ctx, req); err != nil {
		return AdapterOutput{}, err
	}

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

// ensureCloned registers req.Voice's reference material with the backend
// exactly once per process, caching the result so repeat chunks within
// the same request (and later requests for the same voice) skip the
// upload entirely. The mutex is held across the upload, so chunks
// synthesized in parallel wait for the first upload instead of repeating
// it.
func (a *voxcpm15Adapter) ensureCloned(ctx context.Context, req SynthesisInput) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cloned[req.Voice] {
		return nil
	}

	if req.ReferencePath == "" {
		return core.NewError(core.KindVoiceUnknown, "voxcpm15 requires reference audio for voice "+req.Voice, nil)
	}

	if err := a.cloneVoice(ctx, req); err != nil {
		return err
	}

	a.cloned[req.Voice] = true

	return nil
}

func (a *voxcpm15Adapter) cloneVoice(ctx context.Context, req SynthesisInput) error {
	file, err := os.Open(req.ReferencePath)
	if err != nil {
		return core.NewError(core.KindVoiceUnknown, "failed to open reference audio: "+err.Error(), err)
	}
	defer file.Close()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("reference_audio", filepath.Base(req.ReferencePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy reference audio: %w", err)
	}

	if err := writer.WriteField("reference_text", req.ReferenceTranscript); err != nil {
		return fmt.Errorf("failed to write reference text field: %w", err)
	}

	if err := writer.WriteField("voice_name", req.Voice); err != nil {
		return fmt.Errorf("failed to write voice name field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/clone", &buf)
	if err != nil {
		return fmt.Errorf("failed to create clone request: %w", err)
	}

	httpReq.Header.Set(headerContentType, writer.FormDataContentType())

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return wrapTransientErr(err, "voxcpm15 clone failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp)
	}

	return nil
}

func (a *voxcpm15Adapter) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client, a.baseURL+"/health")
}
