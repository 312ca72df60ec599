// Package profiles holds the static per-backend capability table used by
// the pipeline to size chunks and fan-out. Ported from the reference implementation's
// backend_profiles.py.
package profiles

import (
	"fmt"

	"github.com/book-expert/unified-tts/internal/core"
)

// Kind names match the original backend catalog.
const (
	OpenAudio  = "openaudio"
	VoxCPM     = "voxcpm"
	VoxCPM15   = "voxcpm15"
	Kyutai     = "kyutai"
	Higgs      = "higgs"
	ElevenLabs = "elevenlabs"
	VibeVoice  = "vibevoice"
	Kokoro     = "kokoro"
	Qwen3TTS   = "qwen3_tts"
)

const defaultCallTimeoutSec = 60

var table = map[string]core.BackendProfile{
	OpenAudio: {
		Kind: OpenAudio, MaxWords: 75, MaxChars: 400, OptimalWords: 50,
		NeedsChunking: true, CrossfadeMS: 50, NativeSampleRate: 24000,
		MaxConcurrency: 4, CallTimeoutSec: defaultCallTimeoutSec,
	},
	VoxCPM: {
		Kind: VoxCPM, MaxWords: 75, MaxChars: 400, OptimalWords: 50,
		NeedsChunking: true, CrossfadeMS: 50, NativeSampleRate: 24000,
		MaxConcurrency: 2, CallTimeoutSec: defaultCallTimeoutSec,
	},
	VoxCPM15: {
		Kind: VoxCPM15, MaxWords: 150, MaxChars: 800, OptimalWords: 100,
		NeedsChunking: true, CrossfadeMS: 50, NativeSampleRate: 44100,
		MaxConcurrency: 3, CallTimeoutSec: defaultCallTimeoutSec,
	},
	Kyutai: {
		Kind: Kyutai, MaxWords: 40, MaxChars: 250, OptimalWords: 30,
		NeedsChunking: true, CrossfadeMS: 30, NativeSampleRate: 24000,
		MaxConcurrency: 4, CallTimeoutSec: defaultCallTimeoutSec,
	},
	Higgs: {
		Kind: Higgs, MaxWords: 100, MaxChars: 600, OptimalWords: 75,
		NeedsChunking: true, CrossfadeMS: 50, NativeSampleRate: 24000,
		MaxConcurrency: 4, CallTimeoutSec: defaultCallTimeoutSec,
	},
	ElevenLabs: {
		Kind: ElevenLabs, MaxWords: 2500, MaxChars: 15000, OptimalWords: 500,
		NeedsChunking: false, CrossfadeMS: 0, NativeSampleRate: 44100,
		MaxConcurrency: 8, CallTimeoutSec: defaultCallTimeoutSec,
	},
	VibeVoice: {
		Kind: VibeVoice, MaxWords: 100, MaxChars: 500, OptimalWords: 75,
		NeedsChunking: true, CrossfadeMS: 100, NativeSampleRate: 24000,
		MaxConcurrency: 4, CallTimeoutSec: defaultCallTimeoutSec,
	},
	Kokoro: {
		Kind: Kokoro, MaxWords: 200, MaxChars: 1200, OptimalWords: 150,
		NeedsChunking: true, CrossfadeMS: 30, NativeSampleRate: 24000,
		MaxConcurrency: 6, CallTimeoutSec: defaultCallTimeoutSec,
	},
	Qwen3TTS: {
		Kind: Qwen3TTS, MaxWords: 100, MaxChars: 500, OptimalWords: 75,
		NeedsChunking: true, CrossfadeMS: 50, NativeSampleRate: 24000,
		MaxConcurrency: 4, CallTimeoutSec: defaultCallTimeoutSec,
	},
}

func init() {
	for kind, p := range table {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("profiles: invalid built-in profile %q: %v", kind, err))
		}
	}
}

// Get returns the profile for a backend kind, falling back to the
// openaudio profile when the kind is unrecognized (matching the
// reference implementation's get_profile fallback).
func Get(kind string) core.BackendProfile {
	if p, ok := table[kind]; ok {
		return p
	}

	return table[OpenAudio]
}

// NeedsChunking reports whether a backend kind requires text chunking.
func NeedsChunking(kind string) bool {
	return Get(kind).NeedsChunking
}

// All returns every known profile keyed by kind.
func All() map[string]core.BackendProfile {
	out := make(map[string]core.BackendProfile, len(table))
	for k, v := range table {
		out[k] = v
	}

	return out
}
