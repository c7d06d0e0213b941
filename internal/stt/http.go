// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     stt
// Description: Whisper-server HTTP client
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echotype/echotype/internal/audio/wavio"
)

// HTTPClient transcribes utterances against a Whisper-compatible HTTP
// server (whisper-server, go-whisper, LocalAI)
type HTTPClient struct {
	baseURL    string
	language   string
	sampleRate int
	client     *http.Client
}

// NewHTTPClient creates a new HTTP transcriber
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server url is required")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Transcribe uploads the utterance as WAV and returns the recognized text
func (c *HTTPClient) Transcribe(ctx context.Context, samples []float32) (Result, error) {
	wavData, err := wavio.Encode(samples, c.sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode wav: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wavData))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	if c.language != "" {
		q := req.URL.Query()
		q.Add("language", c.language)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return Result{
		Text:     strings.TrimSpace(response.Text),
		Language: c.language,
	}, nil
}

// Close releases resources
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
