package adapters

import (
	"context"
	"strings"

	"github.com/book-expert/unified-tts/internal/audio"
	"github.com/book-expert/unified-tts/internal/core"
)

// DecodeAudio turns whatever bytes a backend handed back into an
// AudioBuffer. Most of this catalog answers with wav directly; a few
// (elevenlabs) answer with mp3 and need the ffmpeg round-trip audio.Convert
// was generalized for. The pipeline calls this only when it actually needs
// PCM samples, i.e. when stitching multiple chunks or when a single
// chunk's native format doesn't match the requested container.
func DecodeAudio(ctx context.Context, data []byte, format string) (core.AudioBuffer, error) {
	if format == "wav" {
		return audio.DecodeWAV(data)
	}

	wavData, _, err := audio.Convert(ctx, data, format, "wav")
	if err != nil {
		return core.AudioBuffer{}, err
	}

	return audio.DecodeWAV(wavData)
}

// formatFromContentType classifies a backend's Content-Type header into
// one of the four container formats the pipeline understands.
func formatFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)

	switch {
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return "mp3"
	case strings.Contains(ct, "flac"):
		return "flac"
	case strings.Contains(ct, "opus"):
		return "opus"
	default:
		return "wav"
	}
}
