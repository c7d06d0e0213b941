// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD engine
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// voteWindow is how many recent frame decisions shape the returned score
const voteWindow = 5

// WebRTC wraps the WebRTC voice activity detector. The detector itself is
// binary per frame; a short vote window over recent frames turns its
// decisions into a score.
type WebRTC struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameSize  int
	mode       int
	votes      []bool
}

// NewWebRTC creates a new WebRTC engine
func NewWebRTC(cfg Config) (*WebRTC, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create webrtc vad: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}

	validRates := []int{8000, 16000, 32000, 48000}
	validRate := false
	for _, r := range validRates {
		if cfg.SampleRate == r {
			validRate = true
			break
		}
	}
	if !validRate {
		return nil, fmt.Errorf("invalid sample rate %d, must be one of %v", cfg.SampleRate, validRates)
	}

	// The detector only accepts 10, 20 or 30 ms frames
	base := cfg.SampleRate / 100
	if cfg.FrameSize != base && cfg.FrameSize != 2*base && cfg.FrameSize != 3*base {
		return nil, fmt.Errorf("frame size %d is not 10/20/30 ms at %d Hz", cfg.FrameSize, cfg.SampleRate)
	}

	return &WebRTC{
		vad:        vad,
		sampleRate: cfg.SampleRate,
		frameSize:  cfg.FrameSize,
		mode:       mode,
	}, nil
}

// Score runs the detector on one frame and returns the vote-window ratio
func (w *WebRTC) Score(frame []float32) (float64, error) {
	if len(frame) != w.frameSize {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidFrameSize, len(frame), w.frameSize)
	}

	active, err := w.vad.Process(w.sampleRate, int16ToBytes(floatToInt16(frame)))
	if err != nil {
		return 0, fmt.Errorf("vad processing failed: %w", err)
	}

	w.votes = append(w.votes, active)
	if len(w.votes) > voteWindow {
		w.votes = w.votes[1:]
	}

	voiced := 0
	for _, v := range w.votes {
		if v {
			voiced++
		}
	}
	return float64(voiced) / float64(len(w.votes)), nil
}

// Reset clears the vote window
func (w *WebRTC) Reset() {
	w.votes = w.votes[:0]
}

// Close releases resources
func (w *WebRTC) Close() error {
	return nil
}

// Mode returns the current aggressiveness mode
func (w *WebRTC) Mode() int {
	return w.mode
}

// floatToInt16 converts samples in [-1,1] to 16-bit PCM with clamping
func floatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

// int16ToBytes converts int16 samples to bytes (little-endian)
func int16ToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	return bytes
}
