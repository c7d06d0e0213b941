// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     vad
// Description: Spectral-flux engine for noisy environments
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// riseRatio is how far flux must rise above its running average to
	// count as full-confidence speech onset
	riseRatio = 1.75

	// fluxSmoothing is the moving average factor for the flux baseline
	fluxSmoothing = 0.05

	// fluxFloor keeps the baseline from collapsing to zero in dead silence
	fluxFloor = 1e-6
)

// Flux scores frames by spectral flux: the summed positive change between
// consecutive magnitude spectra. Speech onsets produce sharp flux spikes that
// survive steady background noise, which drowns plain energy scoring.
type Flux struct {
	frameSize int
	prev      []float64
	baseline  float64
	primed    bool
}

// NewFlux creates a new spectral-flux engine
func NewFlux(cfg Config) (*Flux, error) {
	return &Flux{
		frameSize: cfg.FrameSize,
	}, nil
}

// Score returns the spectral flux of the frame relative to its baseline
func (f *Flux) Score(frame []float32) (float64, error) {
	if len(frame) != f.frameSize {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidFrameSize, len(frame), f.frameSize)
	}

	samples := make([]float64, len(frame))
	for i, s := range frame {
		samples[i] = float64(s)
	}

	spectrum := fft.FFTReal(samples)
	magnitudes := make([]float64, len(spectrum)/2+1)
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}

	if f.prev == nil {
		f.prev = magnitudes
		return 0, nil
	}

	var flux float64
	for i, m := range magnitudes {
		if d := m - f.prev[i]; d > 0 {
			flux += d
		}
	}
	f.prev = magnitudes

	if !f.primed {
		f.baseline = flux
		f.primed = true
		return 0, nil
	}

	base := f.baseline
	if base < fluxFloor {
		base = fluxFloor
	}
	score := flux / (base * riseRatio)

	f.baseline = fluxSmoothing*flux + (1-fluxSmoothing)*f.baseline

	return math.Min(score, 1), nil
}

// Reset clears the spectrum history and baseline
func (f *Flux) Reset() {
	f.prev = nil
	f.baseline = 0
	f.primed = false
}

// Close releases resources
func (f *Flux) Close() error {
	return nil
}
