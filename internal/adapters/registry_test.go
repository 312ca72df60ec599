package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/config"
	"github.com/book-expert/unified-tts/internal/profiles"
)

func TestBuildConstructsOneAdapterPerBackend(t *testing.T) {
	t.Parallel()

	backends := []config.BackendConfig{
		{Kind: profiles.Higgs, URL: "http://higgs.local"},
		{Kind: profiles.ElevenLabs, APIKey: "k"},
		{Kind: profiles.OpenAudio, URL: "http://openaudio.local"},
		{Kind: "unknown-backend"},
	}

	adapters := Build(backends, fakeVoiceLookup{})

	require.Len(t, adapters, 3)

	kinds := Kinds(adapters)
	assert.Contains(t, kinds, profiles.Higgs)
	assert.Contains(t, kinds, profiles.ElevenLabs)
	assert.Contains(t, kinds, profiles.OpenAudio)
}

func TestClaimersNarrowsToVoiceClaimerInterface(t *testing.T) {
	t.Parallel()

	backends := []config.BackendConfig{{Kind: profiles.Higgs, URL: "http://higgs.local"}}
	adapters := Build(backends, fakeVoiceLookup{})

	claimers := Claimers(adapters)
	require.Len(t, claimers, 1)
	assert.Equal(t, profiles.Higgs, claimers[0].Kind())
}

func TestVoiceCatalogsOnlyReportsAdaptersWithAPresetCatalog(t *testing.T) {
	t.Parallel()

	backends := []config.BackendConfig{
		{Kind: profiles.Higgs, URL: "http://higgs.local"},
		{Kind: profiles.Kokoro, URL: "http://kokoro.local"},
		{Kind: profiles.ElevenLabs, APIKey: "k"},
		{Kind: profiles.OpenAudio, URL: "http://openaudio.local"},
	}

	built := Build(backends, fakeVoiceLookup{})

	catalogs := VoiceCatalogs(built)

	kinds := make([]string, 0, len(catalogs))
	for _, c := range catalogs {
		kinds = append(kinds, c.Kind())
		assert.NotEmpty(t, c.VoiceNames())
	}

	assert.ElementsMatch(t, []string{profiles.Kokoro, profiles.ElevenLabs}, kinds)
}
