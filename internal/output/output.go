// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     output
// Description: Sinks for recognized text
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package output

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
)

// Sink delivers one recognized utterance to the user
type Sink interface {
	// Write delivers one line of recognized text
	Write(text string) error
}

// New creates a sink by name ("stdout" or "clipboard")
func New(name string) (Sink, error) {
	switch name {
	case "", "stdout":
		return NewWriterSink(os.Stdout), nil
	case "clipboard":
		return &ClipboardSink{}, nil
	default:
		return nil, fmt.Errorf("unknown output sink: %s", name)
	}
}

// WriterSink writes each utterance as one line, pipe-friendly
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink writing to the given writer
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write delivers one line of recognized text
func (s *WriterSink) Write(text string) error {
	if _, err := fmt.Fprintln(s.w, text); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	return nil
}

// ClipboardSink replaces the system clipboard with each utterance
type ClipboardSink struct{}

// Write delivers one utterance to the clipboard
func (s *ClipboardSink) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
