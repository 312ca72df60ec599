package pipeline_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/unified-tts/internal/adapters"
	"github.com/book-expert/unified-tts/internal/audio"
	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/pipeline"
)

type fakeRouter struct {
	chain []string
	err   error
}

func (f fakeRouter) Chain(_, _ string) ([]string, error) {
	return f.chain, f.err
}

type fakeHealth struct {
	successes  []string
	failures   []string
	definitive []string
}

func (f *fakeHealth) RecordSuccess(kind string)           { f.successes = append(f.successes, kind) }
func (f *fakeHealth) RecordFailure(kind string)           { f.failures = append(f.failures, kind) }
func (f *fakeHealth) RecordDefinitiveFailure(kind string) { f.definitive = append(f.definitive, kind) }

// fakeAdapter honors req.FormatHint the way kokoro's real adapter does,
// unless reportFormat overrides it to simulate a backend that ignores
// the hint and always answers in its own native container.
type fakeAdapter struct {
	kind         string
	fail         error
	failCalls    int
	mu           chan struct{}
	reportFormat string
}

func newFakeAdapter(kind string, fail error) *fakeAdapter {
	return &fakeAdapter{kind: kind, fail: fail, mu: make(chan struct{}, 1)}
}

func (a *fakeAdapter) Kind() string                          { return a.kind }
func (a *fakeAdapter) SupportsVoice(voice string) bool       { return true }
func (a *fakeAdapter) HealthCheck(ctx context.Context) error { return nil }

func (a *fakeAdapter) Synthesize(ctx context.Context, req adapters.SynthesisInput) (adapters.AdapterOutput, error) {
	if a.fail != nil {
		return adapters.AdapterOutput{}, a.fail
	}

	format := a.reportFormat
	if format == "" {
		format = req.FormatHint
	}

	if format == "" || format == "wav" {
		samples := make([]float64, 2400)
		for i := range samples {
			samples[i] = 0.1
		}

		wavData := audio.EncodeWAV(core.AudioBuffer{Samples: samples, SampleRate: 24000, Channels: 1})

		return adapters.AdapterOutput{Data: wavData, Format: "wav"}, nil
	}

	return adapters.AdapterOutput{Data: []byte("raw-" + format + "-bytes"), Format: format}, nil
}

func shortProfileText() string {
	return "Hello there. This is a short test sentence."
}

func TestSynthesizeSucceedsOnFirstHealthyBackend(t *testing.T) {
	t.Parallel()

	adapter := newFakeAdapter("higgs", nil)
	health := &fakeHealth{}
	p := pipeline.New(fakeRouter{chain: []string{"higgs"}}, []adapters.Adapter{adapter}, health, nil)

	result, err := p.Synthesize(context.Background(), core.SynthesisRequest{
		Text: shortProfileText(), Voice: "anyone", Format: "wav",
	})
	require.NoError(t, err)
	assert.True(t, result.ShortCircuited)
	assert.Equal(t, []string{"higgs"}, result.BackendsUsed)
	assert.Equal(t, []string{"higgs"}, health.successes)
}

func TestSynthesizeShortCircuitsByteEqualOutputForSingleChunkMatch(t *testing.T) {
	t.Parallel()

	adapter := newFakeAdapter("kokoro", nil)
	p := pipeline.New(fakeRouter{chain: []string{"kokoro"}}, []adapters.Adapter{adapter}, &fakeHealth{}, nil)

	result, err := p.Synthesize(context.Background(), core.SynthesisRequest{
		Text: shortProfileText(), Voice: "anyone", Format: "mp3",
	})
	require.NoError(t, err)
	assert.True(t, result.ShortCircuited)
	assert.Equal(t, []byte("raw-mp3-bytes"), result.Encoded)
	assert.Equal(t, "audio/mpeg", result.ContentType)
}

func TestSynthesizeDoesNotShortCircuitWhenAdapterIgnoresFormatHint(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available in this environment")
	}

	adapter := newFakeAdapter("higgs", nil)
	adapter.reportFormat = "wav"
	p := pipeline.New(fakeRouter{chain: []string{"higgs"}}, []adapters.Adapter{adapter}, &fakeHealth{}, nil)

	result, err := p.Synthesize(context.Background(), core.SynthesisRequest{
		Text: shortProfileText(), Voice: "anyone", Format: "mp3",
	})
	require.NoError(t, err)
	assert.False(t, result.ShortCircuited)
	assert.NotEqual(t, []byte("raw-wav-bytes"), result.Encoded)
}

func TestSynthesizeFallsBackToNextBackendOnTransientFailure(t *testing.T) {
	t.Parallel()

	failing := newFakeAdapter("higgs", core.NewError(core.KindBackendTransient, "down", nil))
	healthy := newFakeAdapter("kokoro", nil)

	health := &fakeHealth{}
	p := pipeline.New(fakeRouter{chain: []string{"higgs", "kokoro"}},
		[]adapters.Adapter{failing, healthy}, health, nil)

	result, err := p.Synthesize(context.Background(), core.SynthesisRequest{
		Text: shortProfileText(), Voice: "anyone", Format: "wav",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kokoro"}, result.BackendsUsed)
	assert.Equal(t, []string{"higgs"}, health.failures)
	assert.Equal(t, []string{"kokoro"}, health.successes)
}

func TestSynthesizeFailsWhenEveryBackendFails(t *testing.T) {
	t.Parallel()

	a := newFakeAdapter("higgs", core.NewError(core.KindBackendDefinitive, "rejected", nil))
	health := &fakeHealth{}
	p := pipeline.New(fakeRouter{chain: []string{"higgs"}}, []adapters.Adapter{a}, health, nil)

	_, err := p.Synthesize(context.Background(), core.SynthesisRequest{
		Text: shortProfileText(), Voice: "anyone", Format: "wav",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"higgs"}, health.definitive)
}

func TestSynthesizeRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	p := pipeline.New(fakeRouter{}, nil, &fakeHealth{}, nil)

	_, err := p.Synthesize(context.Background(), core.SynthesisRequest{})
	require.Error(t, err)
	assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))
}

func TestSynthesizePropagatesRouterError(t *testing.T) {
	t.Parallel()

	routerErr := core.NewError(core.KindVoiceUnknown, "no claimant", nil)
	p := pipeline.New(fakeRouter{err: routerErr}, nil, &fakeHealth{}, nil)

	_, err := p.Synthesize(context.Background(), core.SynthesisRequest{Text: "hi", Voice: "x"})
	require.Error(t, err)
	assert.Equal(t, core.KindVoiceUnknown, core.KindOf(err))
}
