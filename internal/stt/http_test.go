// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     stt
// Description: Tests for the HTTP transcription client
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-audio/wav"
)

func TestHTTPTranscribe(t *testing.T) {
	var gotPath, gotLanguage, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLanguage = r.URL.Query().Get("language")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": " hello there "}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(Config{URL: server.URL, Language: "en", SampleRate: 16000})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	defer c.Close()

	result, err := c.Transcribe(context.Background(), make([]float32, 1600))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if result.Text != "hello there" {
		t.Errorf("text = %q, want %q", result.Text, "hello there")
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("path = %q, want /v1/audio/transcriptions", gotPath)
	}
	if gotLanguage != "en" {
		t.Errorf("language = %q, want en", gotLanguage)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("content type = %q, want audio/wav", gotContentType)
	}
	if !wav.NewDecoder(bytes.NewReader(gotBody)).IsValidFile() {
		t.Error("uploaded body is not a valid WAV file")
	}
}

func TestHTTPTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, _ := NewHTTPClient(Config{URL: server.URL, SampleRate: 16000})
	defer c.Close()

	if _, err := c.Transcribe(context.Background(), make([]float32, 160)); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestHTTPTranscribeBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c, _ := NewHTTPClient(Config{URL: server.URL, SampleRate: 16000})
	defer c.Close()

	if _, err := c.Transcribe(context.Background(), make([]float32, 160)); err == nil {
		t.Error("expected error for malformed response")
	}
}

func TestHTTPTranscribeCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	c, _ := NewHTTPClient(Config{URL: server.URL, SampleRate: 16000})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Transcribe(ctx, make([]float32, 160)); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestNewHTTPClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing url", Config{SampleRate: 16000}},
		{"zero sample rate", Config{URL: "http://localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPClient(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewByBackend(t *testing.T) {
	cfg := Config{URL: "http://localhost:8089", SampleRate: 16000}

	tests := []struct {
		backend string
		wantErr bool
	}{
		{"http", false},
		{"", false},
		{"websocket", false},
		{"grpc", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			tr, err := New(tt.backend, cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if tr != nil {
				tr.Close()
			}
		})
	}
}
