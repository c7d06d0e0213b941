// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection interface
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package vad

import (
	"errors"
	"fmt"
)

// ErrInvalidFrameSize is returned when a frame does not match the configured
// frame size. Frame size is fixed at startup, so this is a programming or
// configuration error, not a recoverable condition.
var ErrInvalidFrameSize = errors.New("invalid frame size")

// Engine scores single frames of mono PCM audio for voice activity
type Engine interface {
	// Score returns the voice probability in [0,1] for one frame.
	// The frame must be exactly the configured frame size.
	Score(frame []float32) (float64, error)

	// Reset clears internal filter state
	Reset()

	// Close releases resources
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (typically 8000, 16000, 32000, or 48000)
	SampleRate int

	// FrameSize is the number of samples per frame
	FrameSize int

	// Threshold is the voice decision threshold in [0,1]
	Threshold float64

	// Smoothing is the exponential moving average factor for the energy engine
	Smoothing float64

	// Mode is the WebRTC aggressiveness (0-3, higher = more aggressive filtering)
	Mode int
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", c.FrameSize)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %f", c.Threshold)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in [0,1], got %f", c.Smoothing)
	}
	return nil
}

// IsVoice scores a frame and applies the threshold
func IsVoice(e Engine, frame []float32, threshold float64) (bool, error) {
	score, err := e.Score(frame)
	if err != nil {
		return false, err
	}
	return score > threshold, nil
}

// New creates an engine by name ("energy", "flux", or "webrtc")
func New(name string, cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vad config: %w", err)
	}

	switch name {
	case "", "energy":
		return NewEnergy(cfg)
	case "flux":
		return NewFlux(cfg)
	case "webrtc":
		return NewWebRTC(cfg)
	default:
		return nil, fmt.Errorf("unknown vad engine: %s", name)
	}
}
