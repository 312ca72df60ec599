package voices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	whisperAPIURL   = "https://api.openai.com/v1/audio/transcriptions"
	whisperModel    = "whisper-1"
	whisperTimeout  = 60 * time.Second
	envOpenAIAPIKey = "OPENAI_API_KEY"
)

// Transcriber fills in a voice clone's transcript when transcript.txt is
// absent from its directory, calling OpenAI's Whisper transcription API.
type Transcriber struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
}

// NewTranscriber builds a Transcriber, or reports ok=false if no API key
// is configured. Auto-transcription is an optional convenience, never a
// hard requirement: transcript.txt itself stays optional either way.
func NewTranscriber() (*Transcriber, bool) {
	apiKey := os.Getenv(envOpenAIAPIKey)
	if apiKey == "" {
		return nil, false
	}

	return &Transcriber{
		apiKey:     apiKey,
		apiURL:     whisperAPIURL,
		httpClient: &http.Client{Timeout: whisperTimeout},
	}, true
}

// Transcribe sends audioPath's contents to the Whisper API and returns
// the recognized text.
func (t *Transcriber) Transcribe(audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open reference audio for transcription: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to create transcription form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy reference audio: %w", err)
	}

	if err := writer.WriteField("model", whisperModel); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.apiURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("whisper API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return parsed.Text, nil
}
