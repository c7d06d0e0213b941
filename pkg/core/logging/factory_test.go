// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     logging
// Description: Tests for logger factory
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "test", Level: "info", Format: "text", Output: &buf})

	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("expected output to contain message, got %q", out)
	}
	if !strings.Contains(out, "service=test") {
		t.Errorf("expected output to contain service attribute, got %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "test", Level: "debug", Format: "json", Output: &buf})

	logger.Debug("structured")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "structured" {
		t.Errorf("expected msg %q, got %v", "structured", record["msg"])
	}
	if record["service"] != "test" {
		t.Errorf("expected service %q, got %v", "test", record["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "test", Level: "error", Output: &buf})

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info record to be suppressed at error level, got %q", buf.String())
	}

	logger.Error("kept")
	if buf.Len() == 0 {
		t.Error("expected error record to be written")
	}
}
