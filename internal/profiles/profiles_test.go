package profiles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/profiles"
)

func TestAllProfilesSatisfyInvariants(t *testing.T) {
	t.Parallel()

	for kind, p := range profiles.All() {
		p := p

		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, p.Validate())
			assert.LessOrEqual(t, p.OptimalWords, p.MaxWords)
		})
	}
}

func TestGetFallsBackToOpenAudio(t *testing.T) {
	t.Parallel()

	got := profiles.Get("does-not-exist")
	assert.Equal(t, profiles.Get(profiles.OpenAudio), got)
}

func TestNeedsChunking(t *testing.T) {
	t.Parallel()

	assert.True(t, profiles.NeedsChunking(profiles.Kokoro))
	assert.False(t, profiles.NeedsChunking(profiles.ElevenLabs))
}
