// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     vad
// Description: RMS energy engine with exponential smoothing
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"
	"math"
)

// DefaultSmoothing is the default exponential moving average factor
const DefaultSmoothing = 0.3

// Energy scores frames by smoothed RMS energy. Samples are expected in
// [-1,1], so the raw RMS is already a probability-shaped value in [0,1].
type Energy struct {
	frameSize int
	smoothing float64
	smoothed  float64
	primed    bool
}

// NewEnergy creates a new energy engine
func NewEnergy(cfg Config) (*Energy, error) {
	smoothing := cfg.Smoothing
	if smoothing == 0 {
		smoothing = DefaultSmoothing
	}

	return &Energy{
		frameSize: cfg.FrameSize,
		smoothing: smoothing,
	}, nil
}

// Score returns the smoothed RMS energy of the frame
func (e *Energy) Score(frame []float32) (float64, error) {
	if len(frame) != e.frameSize {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidFrameSize, len(frame), e.frameSize)
	}

	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(frame)))

	if !e.primed {
		e.smoothed = rms
		e.primed = true
	} else {
		e.smoothed = e.smoothing*rms + (1-e.smoothing)*e.smoothed
	}

	// Clipped input can push RMS slightly above 1
	if e.smoothed > 1 {
		return 1, nil
	}
	return e.smoothed, nil
}

// Reset clears the smoothing state
func (e *Energy) Reset() {
	e.smoothed = 0
	e.primed = false
}

// Close releases resources
func (e *Energy) Close() error {
	return nil
}
