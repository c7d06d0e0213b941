// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     metrics
// Description: Metrics tests
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFrameCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FrameProcessed(true)
	m.FrameProcessed(false)
	m.FrameProcessed(true)

	if got := testutil.ToFloat64(m.FramesProcessed); got != 3 {
		t.Errorf("frames processed = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.VoicedFrames); got != 2 {
		t.Errorf("voiced frames = %v, want 2", got)
	}
}

func TestUtteranceOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.UtteranceFinalized(16000)
	m.UtteranceDropped("too_short")
	m.UtteranceDropped("too_short")

	if got := testutil.ToFloat64(m.UtterancesFinalized); got != 1 {
		t.Errorf("finalized = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UtterancesDropped.WithLabelValues("too_short")); got != 2 {
		t.Errorf("dropped(too_short) = %v, want 2", got)
	}
}

func TestTranscriptionOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TranscriptionDone(200*time.Millisecond, nil)
	m.TranscriptionDone(time.Second, errors.New("backend down"))

	if got := testutil.ToFloat64(m.TranscriptionSuccesses); got != 1 {
		t.Errorf("successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TranscriptionFailures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
}
