package audio

import (
	"math"

	"github.com/book-expert/unified-tts/internal/core"
)

// targetPeakDBFS is the normalization ceiling applied before stitching,
// chosen to leave headroom for the crossfade sum of two signals.
const targetPeakDBFS = -1.0

// Stitch concatenates buffers in order, crossfading the boundary between
// every adjacent pair with an equal-power curve. A single buffer is
// returned unchanged except for peak normalization. Buffers at a
// different sample rate than the first are linearly resampled to match.
func Stitch(buffers []core.AudioBuffer, crossfadeMS int) (core.AudioBuffer, error) {
	if len(buffers) == 0 {
		return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "no audio buffers to stitch", nil)
	}

	normalized := make([]core.AudioBuffer, len(buffers))
	for i, b := range buffers {
		normalized[i] = normalizePeak(b)
	}

	if len(normalized) == 1 {
		return normalized[0], nil
	}

	result := normalized[0]

	for _, next := range normalized[1:] {
		if next.SampleRate != result.SampleRate {
			next = resample(next, result.SampleRate)
		}

		if next.Channels != result.Channels {
			return core.AudioBuffer{}, core.NewError(core.KindStitchFailure, "channel count mismatch between chunks", nil)
		}

		result = crossfade(result, next, crossfadeMS)
	}

	return result, nil
}

func normalizePeak(buf core.AudioBuffer) core.AudioBuffer {
	peak := 0.0

	for _, s := range buf.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	if peak == 0 {
		return buf
	}

	target := math.Pow(10, targetPeakDBFS/20)
	gain := target / peak

	out := make([]float64, len(buf.Samples))
	for i, s := range buf.Samples {
		out[i] = s * gain
	}

	return core.AudioBuffer{Samples: out, SampleRate: buf.SampleRate, Channels: buf.Channels}
}

// resample performs linear interpolation to targetRate. Channel
// interleaving is preserved by resampling each channel's stream
// independently, then re-interleaving.
func resample(buf core.AudioBuffer, targetRate int) core.AudioBuffer {
	if buf.SampleRate == targetRate || buf.Channels == 0 {
		return buf
	}

	frames := len(buf.Samples) / buf.Channels
	ratio := float64(buf.SampleRate) / float64(targetRate)
	outFrames := int(float64(frames) / ratio)

	out := make([]float64, outFrames*buf.Channels)

	for ch := 0; ch < buf.Channels; ch++ {
		for i := 0; i < outFrames; i++ {
			srcPos := float64(i) * ratio
			lo := int(srcPos)
			hi := lo + 1
			frac := srcPos - float64(lo)

			if hi >= frames {
				hi = frames - 1
			}

			if lo >= frames {
				lo = frames - 1
			}

			loVal := buf.Samples[lo*buf.Channels+ch]
			hiVal := buf.Samples[hi*buf.Channels+ch]
			out[i*buf.Channels+ch] = loVal + (hiVal-loVal)*frac
		}
	}

	return core.AudioBuffer{Samples: out, SampleRate: targetRate, Channels: buf.Channels}
}

// crossfade joins a and b with an equal-power curve over crossfadeMS,
// a deliberate redesign from a linear fade: gain_out = cos(theta),
// gain_in = sin(theta), theta = (i/N)*(pi/2), which keeps the combined
// power constant across the transition instead of dipping at the
// midpoint the way a linear fade does.
func crossfade(a, b core.AudioBuffer, crossfadeMS int) core.AudioBuffer {
	frameCountA := len(a.Samples) / a.Channels
	frameCountB := len(b.Samples) / b.Channels

	n := (crossfadeMS * a.SampleRate) / 1000
	if n > frameCountA/4 {
		n = frameCountA / 4
	}

	if n > frameCountB/4 {
		n = frameCountB / 4
	}

	if n <= 0 {
		return core.AudioBuffer{
			Samples:    append(append([]float64{}, a.Samples...), b.Samples...),
			SampleRate: a.SampleRate,
			Channels:   a.Channels,
		}
	}

	channels := a.Channels
	preFrames := frameCountA - n
	postFrames := frameCountB - n

	out := make([]float64, (preFrames+n+postFrames)*channels)

	copy(out, a.Samples[:preFrames*channels])

	for i := 0; i < n; i++ {
		theta := (float64(i) / float64(n)) * (math.Pi / 2)
		gainOut := math.Cos(theta)
		gainIn := math.Sin(theta)

		for ch := 0; ch < channels; ch++ {
			av := a.Samples[(preFrames+i)*channels+ch]
			bv := b.Samples[i*channels+ch]
			out[(preFrames+i)*channels+ch] = av*gainOut + bv*gainIn
		}
	}

	copy(out[(preFrames+n)*channels:], b.Samples[n*channels:])

	return core.AudioBuffer{Samples: out, SampleRate: a.SampleRate, Channels: channels}
}
