// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     stt
// Description: Speech-to-text interface
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"time"
)

// Transcriber is the interface for speech-to-text backends
type Transcriber interface {
	// Transcribe converts audio samples to text
	Transcribe(ctx context.Context, samples []float32) (Result, error)

	// Close releases resources
	Close() error
}

// Result holds a transcription result
type Result struct {
	// Text is the transcribed text
	Text string

	// Language is the language the text was transcribed as
	Language string
}

// Config holds transcription backend configuration
type Config struct {
	// URL is the server base URL (http:// or ws:// scheme per backend)
	URL string

	// Language is the target language (e.g. "en", "de", "auto")
	Language string

	// SampleRate is the audio sample rate of submitted utterances
	SampleRate int

	// Timeout bounds a single transcription call
	Timeout time.Duration
}

// New creates a transcriber by backend name ("http" or "websocket")
func New(backend string, cfg Config) (Transcriber, error) {
	switch backend {
	case "", "http":
		return NewHTTPClient(cfg)
	case "websocket":
		return NewWSClient(cfg)
	default:
		return nil, fmt.Errorf("unknown stt backend: %s", backend)
	}
}
