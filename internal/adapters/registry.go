package adapters

import (
	"github.com/book-expert/unified-tts/internal/config"
	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
	"github.com/book-expert/unified-tts/internal/router"
	"github.com/book-expert/unified-tts/internal/voices"
)

// Build constructs the concrete Adapter for every configured backend,
// wiring clone-type backends (openaudio, voxcpm, voxcpm15) against the
// shared voice registry so their SupportsVoice reflects what's actually
// on disk.
func Build(backends []config.BackendConfig, voices VoiceLookup) []Adapter {
	out := make([]Adapter, 0, len(backends))

	for _, b := range backends {
		profile := profiles.Get(b.Kind)

		adapter := buildOne(b, profile, voices)
		if adapter != nil {
			out = append(out, adapter)
		}
	}

	return out
}

func buildOne(b config.BackendConfig, profile core.BackendProfile, voices VoiceLookup) Adapter {
	switch b.Kind {
	case profiles.OpenAudio:
		return newOpenAudioAdapter(b.URL, profile, voices)
	case profiles.VoxCPM:
		return newVoxCPMAdapter(b.URL, profile, voices)
	case profiles.VoxCPM15:
		return newVoxCPM15Adapter(b.URL, profile, voices)
	case profiles.Kyutai:
		return newKyutaiAdapter(b.URL, profile)
	case profiles.Higgs:
		return newHiggsAdapter(b.URL, profile)
	case profiles.ElevenLabs:
		return newElevenLabsAdapter(b.URL, b.APIKey, profile)
	case profiles.VibeVoice:
		return newVibeVoiceAdapter(b.URL, profile)
	case profiles.Kokoro:
		return newKokoroAdapter(b.URL, profile)
	case profiles.Qwen3TTS:
		return newQwen3TTSAdapter(b.URL, profile)
	default:
		return nil
	}
}

// Kinds extracts each adapter's Kind, in the same order as adapters, for
// seeding a health.Tracker.
func Kinds(adapters []Adapter) []string {
	out := make([]string, len(adapters))
	for i, a := range adapters {
		out[i] = a.Kind()
	}

	return out
}

// Claimers narrows a slice of Adapter down to the router.VoiceClaimer
// interface it actually needs.
func Claimers(adapters []Adapter) []router.VoiceClaimer {
	out := make([]router.VoiceClaimer, len(adapters))
	for i, a := range adapters {
		out[i] = a
	}

	return out
}

// voiceCatalog is satisfied by adapters with a reportable preset voice
// catalog (kokoro, vibevoice, kyutai, elevenlabs, qwen3tts); clone-type
// and catalog-less backends (openaudio, voxcpm, voxcpm15, higgs) don't
// implement VoiceNames and are skipped.
type voiceCatalog interface {
	Adapter
	VoiceNames() []string
}

// VoiceCatalogs narrows adapterList down to the adapters exposing a
// preset voice catalog, for merging into the voice registry via
// voices.Registry.SetBackendSources.
func VoiceCatalogs(adapterList []Adapter) []voices.BackendVoiceSource {
	out := make([]voices.BackendVoiceSource, 0, len(adapterList))

	for _, a := range adapterList {
		if src, ok := a.(voiceCatalog); ok {
			out = append(out, src)
		}
	}

	return out
}

// mapKeys returns the keys of a bool-valued set map. Order is
// unspecified; callers that need determinism sort separately.
func mapKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
