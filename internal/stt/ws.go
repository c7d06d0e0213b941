// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     stt
// Description: Streaming WebSocket transcription client
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/echotype/echotype/internal/audio/wavio"
)

// wsChunkSamples is how many samples each binary message carries
const wsChunkSamples = 16000

// WSClient transcribes utterances over a WebSocket connection. Each call
// opens a session: a JSON header, binary WAV chunks, an end marker, then one
// JSON result.
type WSClient struct {
	url        string
	language   string
	sampleRate int
	timeout    time.Duration
	dialer     *websocket.Dialer
}

type wsHeader struct {
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language,omitempty"`
}

type wsResult struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// NewWSClient creates a new WebSocket transcriber
func NewWSClient(cfg Config) (*WSClient, error) {
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

	url := cfg.URL
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)

	return &WSClient{
		url:        strings.TrimRight(url, "/") + "/v1/audio/stream",
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		timeout:    timeout,
		dialer:     websocket.DefaultDialer,
	}, nil
}

// Transcribe streams the utterance and waits for the result
func (c *WSClient) Transcribe(ctx context.Context, samples []float32) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(wsHeader{SampleRate: c.sampleRate, Language: c.language}); err != nil {
		return Result{}, fmt.Errorf("failed to send header: %w", err)
	}

	for start := 0; start < len(samples); start += wsChunkSamples {
		end := start + wsChunkSamples
		if end > len(samples) {
			end = len(samples)
		}
		chunk, err := wavio.Encode(samples[start:end], c.sampleRate)
		if err != nil {
			return Result{}, fmt.Errorf("failed to encode chunk: %w", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return Result{}, fmt.Errorf("failed to send chunk: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("end")); err != nil {
		return Result{}, fmt.Errorf("failed to send end marker: %w", err)
	}

	var result wsResult
	if err := conn.ReadJSON(&result); err != nil {
		return Result{}, fmt.Errorf("failed to read result: %w", err)
	}
	if result.Error != "" {
		return Result{}, fmt.Errorf("server error: %s", result.Error)
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return Result{
		Text:     strings.TrimSpace(result.Text),
		Language: c.language,
	}, nil
}

// Close releases resources
func (c *WSClient) Close() error {
	return nil
}
