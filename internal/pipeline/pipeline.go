// Package pipeline orchestrates one synthesis request end to end: router
// selection, per-backend chunking, bounded-parallel adapter fan-out,
// ordered stitching, and final transcoding.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/logger"

	"github.com/book-expert/unified-tts/internal/adapters"
	"github.com/book-expert/unified-tts/internal/audio"
	"github.com/book-expert/unified-tts/internal/chunk"
	"github.com/book-expert/unified-tts/internal/core"
	"github.com/book-expert/unified-tts/internal/profiles"
)

// Router resolves the ordered candidate chain for a voice.
type Router interface {
	Chain(voice, explicitBackend string) ([]string, error)
}

// HealthRecorder is the subset of health.Tracker the pipeline updates as
// it learns which backends are actually answering.
type HealthRecorder interface {
	RecordSuccess(kind string)
	RecordFailure(kind string)
	RecordDefinitiveFailure(kind string)
}

// Pipeline wires together the router, the chunker, and the adapter set
// to satisfy one SynthesisRequest.
type Pipeline struct {
	router Router
	byKind map[string]adapters.Adapter
	health HealthRecorder
	log    *logger.Logger
}

// New builds a Pipeline over adapterList, indexed by Kind().
func New(router Router, adapterList []adapters.Adapter, health HealthRecorder, log *logger.Logger) *Pipeline {
	byKind := make(map[string]adapters.Adapter, len(adapterList))
	for _, a := range adapterList {
		byKind[a.Kind()] = a
	}

	return &Pipeline{router: router, byKind: byKind, health: health, log: log}
}

// Synthesize renders req end to end, trying each backend in the router's
// chain in order until one completes the whole request successfully. A
// chunk failure partway through a backend attempt aborts that backend's
// attempt (not the whole request) and falls through to the next
// candidate.
func (p *Pipeline) Synthesize(ctx context.Context, req core.SynthesisRequest) (core.SynthesisResult, error) {
	if err := req.Validate(); err != nil {
		return core.SynthesisResult{}, err
	}

	chain, err := p.router.Chain(req.Voice, req.ExplicitBackend)
	if err != nil {
		return core.SynthesisResult{}, err
	}

	var lastErr error

	for _, kind := range chain {
		adapter, ok := p.byKind[kind]
		if !ok {
			continue
		}

		result, err := p.attempt(ctx, adapter, req)
		if err == nil {
			p.recordOutcome(kind, nil)

			result.BackendsUsed = []string{kind}

			return result, nil
		}

		lastErr = err
		p.recordOutcome(kind, err)

		if p.log != nil {
			p.log.Warn("pipeline: backend %q failed, trying next candidate: %v", kind, err)
		}

		if ctx.Err() != nil {
			return core.SynthesisResult{}, core.NewError(core.KindCancelled, "request cancelled", ctx.Err())
		}
	}

	if lastErr == nil {
		return core.SynthesisResult{}, core.NewError(core.KindVoiceUnknown, "no backend available for voice "+req.Voice, nil)
	}

	return core.SynthesisResult{}, lastErr
}

func (p *Pipeline) recordOutcome(kind string, err error) {
	if p.health == nil {
		return
	}

	switch {
	case err == nil:
		p.health.RecordSuccess(kind)
	case core.IsDefinitive(err):
		p.health.RecordDefinitiveFailure(kind)
	default:
		p.health.RecordFailure(kind)
	}
}

// attempt drives one backend through chunking, fan-out, and assembly.
//
// The format hint passed to the adapter is "wav" whenever more than one
// chunk will need stitching, and the request's final format when there
// is exactly one chunk. When that single chunk's adapter reports back
// in precisely the requested container, its bytes are returned
// untouched: no stitch, no wav encode, no transcode. Any other shape
// (multiple chunks, or a single chunk the adapter couldn't render in
// the requested format) falls through to decode, stitch, and transcode.
func (p *Pipeline) attempt(ctx context.Context, adapter adapters.Adapter, req core.SynthesisRequest) (core.SynthesisResult, error) {
	profile := profiles.Get(adapter.Kind())

	chunks, err := chunk.Split(req.Text, profile)
	if err != nil {
		return core.SynthesisResult{}, err
	}

	format := req.Format
	if format == "" {
		format = "wav"
	}

	formatHint := "wav"
	if len(chunks) == 1 {
		formatHint = format
	}

	outputs, err := p.synthesizeChunks(ctx, adapter, req, chunks, profile, formatHint)
	if err != nil {
		return core.SynthesisResult{}, err
	}

	if len(outputs) == 1 && outputs[0].Format == format {
		contentType, err := audio.ContentTypeFor(format)
		if err != nil {
			return core.SynthesisResult{}, err
		}

		return core.SynthesisResult{
			Encoded:        outputs[0].Data,
			ContentType:    contentType,
			ShortCircuited: true,
		}, nil
	}

	buffers := make([]core.AudioBuffer, len(outputs))

	for i, out := range outputs {
		buf, decodeErr := adapters.DecodeAudio(ctx, out.Data, out.Format)
		if decodeErr != nil {
			return core.SynthesisResult{}, decodeErr
		}

		buffers[i] = buf
	}

	var stitched core.AudioBuffer

	if len(buffers) == 1 {
		stitched = buffers[0]
	} else {
		stitched, err = audio.Stitch(buffers, profile.CrossfadeMS)
		if err != nil {
			return core.SynthesisResult{}, err
		}
	}

	wavData := audio.EncodeWAV(stitched)

	var (
		encoded     []byte
		contentType string
	)

	if format == "wav" {
		encoded, contentType = wavData, "audio/wav"
	} else {
		encoded, contentType, err = audio.Transcode(ctx, wavData, format)
		if err != nil {
			return core.SynthesisResult{}, err
		}
	}

	return core.SynthesisResult{
		Audio:       stitched,
		Encoded:     encoded,
		ContentType: contentType,
	}, nil
}

// synthesizeChunks fans chunks out to adapter, bounded by the backend's
// MaxConcurrency, preserving chunk order in the result slice. The first
// chunk failure cancels the shared context so in-flight siblings stop
// early. A chunk failure aborts the whole backend attempt.
func (p *Pipeline) synthesizeChunks(
	ctx context.Context,
	adapter adapters.Adapter,
	req core.SynthesisRequest,
	chunks []core.Chunk,
	profile core.BackendProfile,
	formatHint string,
) ([]adapters.AdapterOutput, error) {
	outputs := make([]adapters.AdapterOutput, len(chunks))

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		firstErr  error
	)

	workerPool := make(chan struct{}, maxConcurrency(profile))

	for i, c := range chunks {
		waitGroup.Add(1)

		go func(index int, text string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}
			defer func() { <-workerPool }()

			if attemptCtx.Err() != nil {
				return
			}

			out, err := adapter.Synthesize(attemptCtx, adapters.SynthesisInput{
				Text:                text,
				Voice:               req.Voice,
				ReferencePath:       req.ReferencePath,
				ReferenceTranscript: req.ReferenceTranscript,
				Speed:               req.Speed,
				FormatHint:          formatHint,
			})
			if err != nil {
				mutex.Lock()

				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d: %w", index+1, err)
					cancel()
				}

				mutex.Unlock()

				return
			}

			outputs[index] = out
		}(i, c.Text)
	}

	waitGroup.Wait()
	close(workerPool)

	if firstErr != nil {
		return nil, firstErr
	}

	return outputs, nil
}

func maxConcurrency(profile core.BackendProfile) int {
	if profile.MaxConcurrency <= 0 {
		return 1
	}

	return profile.MaxConcurrency
}
