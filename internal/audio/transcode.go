package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/book-expert/unified-tts/internal/core"
)

// Transcode invokes an external ffmpeg process to convert a WAV payload
// into the requested container/codec, streaming through stdin/stdout
// pipes rather than buffering the encoded output twice.
func Transcode(ctx context.Context, wavData []byte, format string) ([]byte, string, error) {
	return Convert(ctx, wavData, "wav", format)
}

// Convert invokes ffmpeg to transform data from fromFormat to toFormat,
// returning the converted bytes and the resulting content type. Used
// both by the transcoder (wav -> requested container) and by adapters
// that must normalize a backend's native output (e.g. ElevenLabs'
// mp3) to this gateway's internal WAV representation.
func Convert(ctx context.Context, data []byte, fromFormat, toFormat string) ([]byte, string, error) {
	args, contentType, err := ffmpegArgsFor(toFormat)
	if err != nil {
		return nil, "", err
	}

	fullArgs := append([]string{"-y", "-f", fromFormat, "-i", "pipe:0"}, args...)
	fullArgs = append(fullArgs, "pipe:1")

	// #nosec G204 -- formats are validated against a fixed allow-list by ffmpegArgsFor
	cmd := exec.CommandContext(ctx, "ffmpeg", fullArgs...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", core.NewError(core.KindEncodeFailure,
			fmt.Sprintf("ffmpeg convert %s->%s failed: %s", fromFormat, toFormat, stderr.String()), err)
	}

	return stdout.Bytes(), contentType, nil
}

// ContentTypeFor reports the HTTP content type for a supported output
// format without invoking ffmpeg, for the pipeline's short-circuit path
// where bytes pass through unconverted.
func ContentTypeFor(format string) (string, error) {
	_, contentType, err := ffmpegArgsFor(format)

	return contentType, err
}

func ffmpegArgsFor(format string) ([]string, string, error) {
	switch format {
	case "wav":
		return []string{"-acodec", "pcm_s16le"}, "audio/wav", nil
	case "mp3":
		return []string{"-acodec", "libmp3lame", "-qscale:a", "2"}, "audio/mpeg", nil
	case "flac":
		return []string{"-acodec", "flac"}, "audio/flac", nil
	case "opus":
		return []string{"-acodec", "libopus"}, "audio/opus", nil
	default:
		return nil, "", core.NewError(core.KindInvalidRequest, "unsupported output format: "+format, nil)
	}
}

// DrainAndClose reads r fully and closes it, discarding the content. Used
// to ensure an adapter's HTTP response body is released even when its
// caller only needed the status code.
func DrainAndClose(r io.ReadCloser) {
	if r == nil {
		return
	}

	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}
