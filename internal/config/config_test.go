// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     config
// Description: Tests for configuration loading
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echotype.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
	if cfg.Listen.SampleRate != 16000 {
		t.Errorf("default sample rate = %d, want 16000", cfg.Listen.SampleRate)
	}
	if cfg.VAD.Engine != "energy" {
		t.Errorf("default vad engine = %q, want energy", cfg.VAD.Engine)
	}
	if cfg.Output.Sink != "stdout" {
		t.Errorf("default output sink = %q, want stdout", cfg.Output.Sink)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
[general]
log_level = "debug"

[listen]
pre_roll_duration = "750ms"
post_silence_duration = "1.5s"
sample_rate = 16000

[vad]
engine = "flux"

[stt]
url = "http://whisper.local:8089"
language = "de"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Listen.PreRollDuration.Duration != 750*time.Millisecond {
		t.Errorf("pre_roll_duration = %v, want 750ms", cfg.Listen.PreRollDuration.Duration)
	}
	if cfg.Listen.PostSilenceDuration.Duration != 1500*time.Millisecond {
		t.Errorf("post_silence_duration = %v, want 1.5s", cfg.Listen.PostSilenceDuration.Duration)
	}
	// Omitted fields fall back to defaults
	if cfg.Listen.MinSpeechDuration.Duration != 300*time.Millisecond {
		t.Errorf("min_speech_duration = %v, want default 300ms", cfg.Listen.MinSpeechDuration.Duration)
	}
	if cfg.VAD.Engine != "flux" {
		t.Errorf("vad engine = %q, want flux", cfg.VAD.Engine)
	}
	if cfg.STT.Language != "de" {
		t.Errorf("stt language = %q, want de", cfg.STT.Language)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.General.LogLevel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad engine", "[vad]\nengine = \"neural\"\n"},
		{"bad sink", "[output]\nsink = \"teletype\"\n"},
		{"bad backend", "[stt]\nbackend = \"grpc\"\n"},
		{"cap below floor", "[listen]\nmax_utterance_duration = \"400ms\"\n"},
		{"stereo capture", "[audio]\nchannels = 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestControllerConversion(t *testing.T) {
	cfg := Default()
	ctrl := cfg.Listen.Controller()

	if err := ctrl.Validate(); err != nil {
		t.Errorf("converted controller config should validate, got %v", err)
	}
	if ctrl.FrameSize() != 480 {
		t.Errorf("frame size = %d, want 480 for 30ms at 16kHz", ctrl.FrameSize())
	}
	if ctrl.PreRollSamples() != 8000 {
		t.Errorf("pre-roll capacity = %d, want 8000 for 500ms at 16kHz", ctrl.PreRollSamples())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "echotype.toml")

	cfg := Default()
	cfg.STT.Language = "fr"
	cfg.Listen.PreRollDuration.Duration = 250 * time.Millisecond

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.STT.Language != "fr" {
		t.Errorf("language = %q, want fr", loaded.STT.Language)
	}
	if loaded.Listen.PreRollDuration.Duration != 250*time.Millisecond {
		t.Errorf("pre_roll_duration = %v, want 250ms", loaded.Listen.PreRollDuration.Duration)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "[stt]\nlanguage = \"es\"\n")
	t.Setenv("ECHOTYPE_CONFIG", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.STT.Language != "es" {
		t.Errorf("language = %q, want es", cfg.STT.Language)
	}
}
