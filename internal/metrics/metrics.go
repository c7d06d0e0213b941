// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     metrics
// Description: Prometheus metrics for the listening pipeline
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for EchoType. It implements the
// controller's Observer interface.
type Metrics struct {
	// Frame metrics
	FramesProcessed prometheus.Counter
	VoicedFrames    prometheus.Counter

	// Utterance metrics
	UtterancesFinalized prometheus.Counter
	UtterancesDropped   *prometheus.CounterVec
	UtteranceSamples    prometheus.Histogram

	// Transcription metrics
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram
}

// New creates and registers all metrics with the given registerer. Passing
// nil registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "echotype_frames_processed_total",
			Help: "Total number of audio frames processed",
		}),
		VoicedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "echotype_voiced_frames_total",
			Help: "Total number of frames classified as voice",
		}),

		UtterancesFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "echotype_utterances_finalized_total",
			Help: "Total number of utterances sent for transcription",
		}),
		UtterancesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "echotype_utterances_dropped_total",
			Help: "Total number of utterances dropped before transcription",
		}, []string{"reason"}),
		UtteranceSamples: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "echotype_utterance_samples",
			Help:    "Number of samples per finalized utterance",
			Buckets: prometheus.ExponentialBuckets(4000, 2, 10), // 0.25s to ~2 minutes at 16 kHz
		}),

		TranscriptionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "echotype_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "echotype_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "echotype_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
	}
}

// FrameProcessed records one processed frame
func (m *Metrics) FrameProcessed(voiced bool) {
	m.FramesProcessed.Inc()
	if voiced {
		m.VoicedFrames.Inc()
	}
}

// UtteranceFinalized records a finalized utterance and its sample count
func (m *Metrics) UtteranceFinalized(samples int) {
	m.UtterancesFinalized.Inc()
	m.UtteranceSamples.Observe(float64(samples))
}

// UtteranceDropped records a dropped utterance by reason
func (m *Metrics) UtteranceDropped(reason string) {
	m.UtterancesDropped.WithLabelValues(reason).Inc()
}

// TranscriptionDone records the outcome of one transcription request
func (m *Metrics) TranscriptionDone(duration time.Duration, err error) {
	m.TranscriptionDuration.Observe(duration.Seconds())
	if err != nil {
		m.TranscriptionFailures.Inc()
	} else {
		m.TranscriptionSuccesses.Inc()
	}
}
