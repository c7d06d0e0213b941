// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     listen
// Description: Pre-roll ring and recording buffer management
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package listen

import (
	"errors"
)

// ErrNotRecording is returned by Finalize when no recording is active
var ErrNotRecording = errors.New("no active recording to finalize")

// BufferManager owns the audio an utterance is assembled from: a
// fixed-capacity pre-roll ring that continuously holds the most recent
// lead-in audio, and a recording buffer that grows while an utterance is
// being captured. It is confined to the controller goroutine and is not
// safe for concurrent use.
type BufferManager struct {
	preRoll []float32
	head    int // next write index into preRoll
	filled  int // valid samples in preRoll, up to its capacity

	recording []float32
	active    bool

	evicted uint64 // samples overwritten in the ring, telemetry only
}

// NewBufferManager creates a buffer manager with the given pre-roll
// capacity in samples
func NewBufferManager(preRollCapacity int) *BufferManager {
	if preRollCapacity < 1 {
		preRollCapacity = 1
	}
	return &BufferManager{
		preRoll: make([]float32, preRollCapacity),
	}
}

// Push appends samples to the active buffer: the recording buffer while a
// recording is open, the pre-roll ring otherwise. A full ring evicts its
// oldest samples; that is expected behavior, not an error.
func (b *BufferManager) Push(samples []float32) {
	if b.active {
		b.recording = append(b.recording, samples...)
		return
	}

	for _, s := range samples {
		b.preRoll[b.head] = s
		b.head = (b.head + 1) % len(b.preRoll)
		if b.filled < len(b.preRoll) {
			b.filled++
		} else {
			b.evicted++
		}
	}
}

// StartRecording snapshots the current pre-roll contents in arrival order,
// seeds the recording buffer with them, and switches Push to the recording
// buffer. The snapshot is returned for inspection.
func (b *BufferManager) StartRecording() []float32 {
	snapshot := b.preRollSnapshot()

	b.recording = make([]float32, len(snapshot))
	copy(b.recording, snapshot)
	b.active = true

	return snapshot
}

// Finalize returns the complete recording (pre-roll snapshot plus everything
// recorded since) and consumes it. Calling Finalize without an open
// recording is a logic error.
func (b *BufferManager) Finalize() ([]float32, error) {
	if !b.active {
		return nil, ErrNotRecording
	}

	out := b.recording
	b.recording = nil
	b.active = false

	return out, nil
}

// Reset discards any open recording and returns to pre-roll-only mode. The
// pre-roll ring keeps its contents and keeps rolling, so pre-speech context
// survives a false start. Reset is idempotent.
func (b *BufferManager) Reset() {
	b.recording = nil
	b.active = false
}

// Clear resets the manager and empties the pre-roll ring as well, for
// pause/shutdown where no captured audio may carry over.
func (b *BufferManager) Clear() {
	b.Reset()
	b.head = 0
	b.filled = 0
}

// Recording reports whether a recording is open
func (b *BufferManager) Recording() bool {
	return b.active
}

// PreRollLen returns the number of valid samples in the pre-roll ring
func (b *BufferManager) PreRollLen() int {
	return b.filled
}

// RecordingLen returns the current recording buffer length in samples
func (b *BufferManager) RecordingLen() int {
	return len(b.recording)
}

// Evicted returns how many samples the ring has overwritten so far
func (b *BufferManager) Evicted() uint64 {
	return b.evicted
}

// preRollSnapshot copies the ring contents oldest-first
func (b *BufferManager) preRollSnapshot() []float32 {
	out := make([]float32, 0, b.filled)
	if b.filled < len(b.preRoll) {
		return append(out, b.preRoll[:b.filled]...)
	}
	out = append(out, b.preRoll[b.head:]...)
	return append(out, b.preRoll[:b.head]...)
}
