// Package audio defines the read-only audio-feature snapshot consumed by
// effect scripts, plus an FFT-backed analyzer that can produce snapshots
// from raw PCM for the command-line tools. The engine itself only ever
// depends on Features; where the snapshot comes from is the host's
// business.
package audio

import "math"

// Features is one frame's audio-feature snapshot: spectrum bands and
// waveform samples per channel, a beat flag, and a scalar energy level.
// It is borrowed by the render pipeline for the duration of a frame and
// never mutated by it.
type Features struct {
	Spectrum [2][]float64 // per-channel magnitude bands, 0..1
	Waveform [2][]float64 // per-channel waveform samples, -1..1
	Beat     bool
	Energy   float64
}

// Spec samples the spectrum. channel selects left (0) or right (1); any
// other value averages both. index is the normalized 0..1 position across
// the bands, linearly interpolated. Out-of-range indexes clamp; an empty
// snapshot reads as silence.
func (f *Features) Spec(channel int, index float64) float64 {
	if channel == 0 || channel == 1 {
		return sample(f.Spectrum[channel], index)
	}
	return (sample(f.Spectrum[0], index) + sample(f.Spectrum[1], index)) / 2
}

// Wave samples the waveform with the same channel and index conventions
// as Spec.
func (f *Features) Wave(channel int, index float64) float64 {
	if channel == 0 || channel == 1 {
		return sample(f.Waveform[channel], index)
	}
	return (sample(f.Waveform[0], index) + sample(f.Waveform[1], index)) / 2
}

// sample linearly interpolates a normalized index into data. Scripts can
// feed any float here, NaN included, so every non-finite input must read
// as silence rather than reach the slice.
func sample(data []float64, index float64) float64 {
	if len(data) == 0 || math.IsNaN(index) {
		return 0
	}
	if len(data) == 1 {
		return data[0]
	}
	if index <= 0 {
		return data[0]
	}
	if index >= 1 {
		return data[len(data)-1]
	}
	pos := index * float64(len(data)-1)
	i := int(pos)
	frac := pos - float64(i)
	return data[i]*(1-frac) + data[i+1]*frac
}
