package audio

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Analyzer turns blocks of stereo PCM into Features snapshots using a
// Hann-windowed FFT and a simple energy-threshold beat detector. It is a
// convenience collaborator for the CLI and preview tools; hosts with a
// real analysis chain supply their own Features.
type Analyzer struct {
	fftSize   int
	bands     int
	plan      *algofft.Plan[complex128]
	window    []float64
	input     []complex128
	output    []complex128
	avgEnergy float64
}

// NewAnalyzer creates an analyzer producing the given number of spectrum
// bands from fftSize input samples per channel. fftSize must be a power
// of two.
func NewAnalyzer(fftSize, bands int) (*Analyzer, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two, got %d", fftSize)
	}
	if bands <= 0 || bands > fftSize/2 {
		return nil, fmt.Errorf("bands must be in 1..%d, got %d", fftSize/2, bands)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("init fft plan: %w", err)
	}

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	return &Analyzer{
		fftSize: fftSize,
		bands:   bands,
		plan:    plan,
		window:  window,
		input:   make([]complex128, fftSize),
		output:  make([]complex128, fftSize),
	}, nil
}

// Analyze produces a Features snapshot from one block of per-channel PCM
// in -1..1. Short input blocks are zero-padded. The returned snapshot
// owns its slices and stays valid after the next Analyze call.
func (a *Analyzer) Analyze(left, right []float64) (*Features, error) {
	f := &Features{}

	energy := 0.0
	for ch, pcm := range [2][]float64{left, right} {
		f.Waveform[ch] = waveform(pcm, a.fftSize)

		for i := range a.input {
			v := 0.0
			if i < len(pcm) {
				v = pcm[i] * a.window[i]
			}
			a.input[i] = complex(v, 0)
		}
		if err := a.plan.Forward(a.output, a.input); err != nil {
			return nil, fmt.Errorf("fft: %w", err)
		}

		bins := a.fftSize / 2
		perBand := bins / a.bands
		if perBand < 1 {
			perBand = 1
		}
		bandsOut := make([]float64, a.bands)
		scale := 2 / float64(a.fftSize)
		for b := 0; b < a.bands; b++ {
			sum := 0.0
			for k := b * perBand; k < (b+1)*perBand && k < bins; k++ {
				re := real(a.output[k])
				im := imag(a.output[k])
				sum += math.Sqrt(re*re+im*im) * scale
			}
			bandsOut[b] = math.Min(1, sum/float64(perBand))
		}
		f.Spectrum[ch] = bandsOut

		for _, v := range pcm {
			energy += v * v
		}
	}

	n := len(left) + len(right)
	if n > 0 {
		energy /= float64(n)
	}
	f.Energy = energy

	// Beat when instantaneous energy jumps well above its running average
	f.Beat = a.avgEnergy > 0 && energy > a.avgEnergy*1.6
	a.avgEnergy = a.avgEnergy*0.9 + energy*0.1

	return f, nil
}

// waveform resamples pcm down to at most max samples
func waveform(pcm []float64, max int) []float64 {
	if len(pcm) <= max {
		out := make([]float64, len(pcm))
		copy(out, pcm)
		return out
	}
	out := make([]float64, max)
	step := float64(len(pcm)) / float64(max)
	for i := range out {
		out[i] = pcm[int(float64(i)*step)]
	}
	return out
}
