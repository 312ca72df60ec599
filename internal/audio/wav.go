// Package audio implements the in-memory AudioBuffer representation, a
// minimal WAV codec, the crossfade stitcher, and the ffmpeg-backed
// transcoder.
package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/book-expert/unified-tts/internal/core"
)

const (
	wavHeaderSize  = 44
	bitsPerSample  = 16
	pcmFormatCode  = 1
	maxPCMAmplitude = 32767
)

// DecodeWAV parses a canonical 16-bit PCM WAV file into an AudioBuffer.
func DecodeWAV(data []byte) (core.AudioBuffer, error) {
	if len(data) < wavHeaderSize {
		return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "wav payload too short", nil)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "not a RIFF/WAVE file", nil)
	}

	var (
		channels   int
		sampleRate int
		bits       int
		pcm        []byte
		found      bool
	)

	offset := 12

	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+size > len(data) {
			break
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "fmt chunk too short", nil)
			}

			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+size]
			found = true
		}

		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if !found || channels == 0 || sampleRate == 0 {
		return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "missing fmt or data chunk", nil)
	}

	if bits != bitsPerSample {
		return core.AudioBuffer{}, core.NewError(core.KindStitchFailure,
			fmt.Sprintf("unsupported bit depth %d, only 16-bit PCM is supported", bits), nil)
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float64(v) / maxPCMAmplitude
	}

	return core.AudioBuffer{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// EncodeWAV serializes an AudioBuffer to a canonical 16-bit PCM WAV file.
func EncodeWAV(buf core.AudioBuffer) []byte {
	dataSize := len(buf.Samples) * 2
	byteRate := buf.SampleRate * buf.Channels * bitsPerSample / 8
	blockAlign := buf.Channels * bitsPerSample / 8

	out := make([]byte, wavHeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(out[22:24], uint16(buf.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	for i, s := range buf.Samples {
		v := clampSample(s)
		binary.LittleEndian.PutUint16(out[wavHeaderSize+i*2:wavHeaderSize+i*2+2], uint16(int16(v*maxPCMAmplitude)))
	}

	return out
}

func clampSample(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}

	if s < -1.0 {
		return -1.0
	}

	return s
}
