// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     vad
// Description: Tests for engine configuration and selection
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package vad

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{SampleRate: 16000, FrameSize: 480, Threshold: 0.5}, false},
		{"zero sample rate", Config{FrameSize: 480, Threshold: 0.5}, true},
		{"zero frame size", Config{SampleRate: 16000, Threshold: 0.5}, true},
		{"negative threshold", Config{SampleRate: 16000, FrameSize: 480, Threshold: -0.1}, true},
		{"threshold above one", Config{SampleRate: 16000, FrameSize: 480, Threshold: 1.1}, true},
		{"smoothing above one", Config{SampleRate: 16000, FrameSize: 480, Threshold: 0.5, Smoothing: 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewByName(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		engine  string
		wantErr bool
	}{
		{"energy", "energy", false},
		{"default is energy", "", false},
		{"flux", "flux", false},
		{"unknown", "neural", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.engine, cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.engine, err, tt.wantErr)
			}
			if e != nil {
				e.Close()
			}
		})
	}
}

func TestIsVoice(t *testing.T) {
	e, _ := NewEnergy(testConfig())

	voiced, err := IsVoice(e, sineFrame(0.8), 0.015)
	if err != nil {
		t.Fatalf("IsVoice failed: %v", err)
	}
	if !voiced {
		t.Error("expected loud frame to be voiced")
	}

	e.Reset()
	voiced, err = IsVoice(e, make([]float32, testFrameSize), 0.015)
	if err != nil {
		t.Fatalf("IsVoice failed: %v", err)
	}
	if voiced {
		t.Error("expected silent frame to not be voiced")
	}
}
